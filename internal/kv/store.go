// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package kv provides the durable string-keyed store the recordings registry
// and the account record persist into.
package kv

import (
	"context"
	"errors"
)

var (
	// ErrClosed is returned by every operation on a closed store.
	ErrClosed = errors.New("kv: store closed")
	// ErrEmptyKey rejects the empty string as a key.
	ErrEmptyKey = errors.New("kv: empty key")
)

// Store is a durable string-keyed store. Implementations are safe for
// concurrent use; Set replaces the whole value atomically.
type Store interface {
	// Get returns the raw value for key. ok is false if the key was never set.
	Get(ctx context.Context, key string) (value string, ok bool, err error)
	// Set stores value under key, replacing any previous value.
	Set(ctx context.Context, key, value string) error
	// Close releases backend resources.
	Close() error
}
