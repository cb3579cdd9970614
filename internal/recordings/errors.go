// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recordings

import (
	"errors"
	"fmt"
)

// Sentinel errors. Callers match them with errors.Is; the typed errors below
// carry the details and unwrap to these.
var (
	// ErrCorruptData: the persisted payload could not be decoded. The registry
	// has fallen back to an empty list.
	ErrCorruptData = errors.New("recordings: corrupt persisted data")

	// ErrDuplicateLocation: an entry with the same location exists. Nothing changed.
	ErrDuplicateLocation = errors.New("recordings: duplicate location")

	// ErrNotFound: no entry has the given location. Nothing changed.
	ErrNotFound = errors.New("recordings: not found")

	// ErrPersistence: the store read or write failed. For add/remove the
	// in-memory list has already changed and is not yet durable.
	ErrPersistence = errors.New("recordings: persistence failed")

	// ErrInvalidLocation: the location is empty.
	ErrInvalidLocation = errors.New("recordings: empty location")

	// ErrClosed: the registry has been closed.
	ErrClosed = errors.New("recordings: registry closed")
)

// CorruptDataError reports a payload under Key that failed to decode.
type CorruptDataError struct {
	Key string
	Err error
}

func (e *CorruptDataError) Error() string {
	return fmt.Sprintf("recordings: corrupt data under key %q: %v", e.Key, e.Err)
}

func (e *CorruptDataError) Unwrap() []error { return []error{ErrCorruptData, e.Err} }

// DuplicateLocationError reports an add whose location is already registered.
type DuplicateLocationError struct {
	Location string
}

func (e *DuplicateLocationError) Error() string {
	return fmt.Sprintf("recordings: location %q already registered", e.Location)
}

func (e *DuplicateLocationError) Unwrap() error { return ErrDuplicateLocation }

// NotFoundError reports a remove of an unknown location.
type NotFoundError struct {
	Location string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("recordings: location %q not found", e.Location)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// PersistenceError reports a failed store read (Op "load") or write.
// Mutated is true when the in-memory list already reflects the change.
type PersistenceError struct {
	Op      string
	Mutated bool
	Err     error
}

func (e *PersistenceError) Error() string {
	if e.Mutated {
		return fmt.Sprintf("recordings: %s applied in memory but not persisted: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("recordings: %s failed: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() []error { return []error{ErrPersistence, e.Err} }
