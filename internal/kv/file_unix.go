// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build !windows

package kv

import "github.com/google/renameio/v2"

// writeAtomic replaces path with full durability guarantees using renameio:
// temp file creation, fsync, atomic rename, cleanup on error.
func writeAtomic(path string, data []byte) error {
	return renameio.WriteFile(path, data, 0o600)
}
