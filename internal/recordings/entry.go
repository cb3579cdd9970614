// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recordings

import (
	"strings"
	"time"
)

// defaultNameLayout mirrors the en-US locale date string the mobile client shows.
const defaultNameLayout = "1/2/2006, 3:04:05 PM"

// Entry is the metadata of one recorded clip. Entries are immutable once
// created; Location is the identity key.
type Entry struct {
	Location   string    `json:"location"`
	Name       string    `json:"name"`
	RecordedAt time.Time `json:"recordedAt"`
}

// Intent is a request to register a finished capture.
type Intent struct {
	Location string `json:"location"`
	Name     string `json:"name,omitempty"`
}

// DefaultName is the label given to entries created without a name.
func DefaultName(t time.Time) string {
	return "Recording - " + t.Format(defaultNameLayout)
}

// resolveName returns the trimmed name, or the default for t if nothing is left.
func resolveName(name string, t time.Time) string {
	if n := strings.TrimSpace(name); n != "" {
		return n
	}
	return DefaultName(t)
}

// matches reports whether the entry name contains the lowered query.
func (e Entry) matches(loweredQuery string) bool {
	return strings.Contains(strings.ToLower(e.Name), loweredQuery)
}
