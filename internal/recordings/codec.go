// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recordings

import (
	"encoding/json"
	"fmt"
	"time"
)

// wireEntry is the persisted shape. Field names match what the mobile client
// has always written under the "recordings" key.
type wireEntry struct {
	URI  string `json:"uri"`
	Name string `json:"name"`
	Date string `json:"date"`
}

func encodeEntries(entries []Entry) (string, error) {
	wire := make([]wireEntry, len(entries))
	for i, e := range entries {
		wire[i] = wireEntry{
			URI:  e.Location,
			Name: e.Name,
			Date: e.RecordedAt.UTC().Format(time.RFC3339Nano),
		}
	}
	buf, err := json.Marshal(wire)
	if err != nil {
		return "", err
	}
	return string(buf), nil
}

// decodeEntries parses a persisted payload. Timestamps are normalized to UTC.
// dropped lists locations skipped because an earlier element already used them.
func decodeEntries(raw string) (entries []Entry, dropped []string, err error) {
	var wire []wireEntry
	if err := json.Unmarshal([]byte(raw), &wire); err != nil {
		return nil, nil, err
	}

	entries = make([]Entry, 0, len(wire))
	seen := make(map[string]struct{}, len(wire))
	for i, w := range wire {
		if w.URI == "" {
			return nil, nil, fmt.Errorf("element %d: missing uri", i)
		}
		t, err := time.Parse(time.RFC3339Nano, w.Date)
		if err != nil {
			return nil, nil, fmt.Errorf("element %d: date: %w", i, err)
		}
		if _, dup := seen[w.URI]; dup {
			dropped = append(dropped, w.URI)
			continue
		}
		seen[w.URI] = struct{}{}
		entries = append(entries, Entry{Location: w.URI, Name: w.Name, RecordedAt: t.UTC()})
	}
	return entries, dropped, nil
}
