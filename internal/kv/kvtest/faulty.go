// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package kvtest provides kv.Store wrappers for exercising failure and
// ordering paths in tests.
package kvtest

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ManuGH/memorec/internal/kv"
)

// ErrInjected is returned by FaultyStore when a failure is injected.
var ErrInjected = errors.New("kvtest: injected failure")

// FaultyStore wraps a kv.Store and can fail or delay calls on demand.
// It also records every successful Set value per key in order.
type FaultyStore struct {
	inner kv.Store

	mu        sync.Mutex
	failSets  int
	failGets  int
	setDelays []time.Duration
	writes    map[string][]string
	inFlight  int
	maxFlight int
}

// Wrap returns a FaultyStore around inner.
func Wrap(inner kv.Store) *FaultyStore {
	return &FaultyStore{inner: inner, writes: make(map[string][]string)}
}

// FailNextSets makes the next n Set calls return ErrInjected.
func (f *FaultyStore) FailNextSets(n int) {
	f.mu.Lock()
	f.failSets = n
	f.mu.Unlock()
}

// FailNextGets makes the next n Get calls return ErrInjected.
func (f *FaultyStore) FailNextGets(n int) {
	f.mu.Lock()
	f.failGets = n
	f.mu.Unlock()
}

// DelaySets makes successive Set calls sleep for the given durations.
func (f *FaultyStore) DelaySets(d ...time.Duration) {
	f.mu.Lock()
	f.setDelays = append(f.setDelays, d...)
	f.mu.Unlock()
}

// Writes returns the values written to key, oldest first.
func (f *FaultyStore) Writes(key string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.writes[key]...)
}

// MaxConcurrentSets reports the highest number of overlapping Set calls seen.
func (f *FaultyStore) MaxConcurrentSets() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.maxFlight
}

func (f *FaultyStore) Get(ctx context.Context, key string) (string, bool, error) {
	f.mu.Lock()
	if f.failGets > 0 {
		f.failGets--
		f.mu.Unlock()
		return "", false, ErrInjected
	}
	f.mu.Unlock()
	return f.inner.Get(ctx, key)
}

func (f *FaultyStore) Set(ctx context.Context, key, value string) error {
	f.mu.Lock()
	if f.failSets > 0 {
		f.failSets--
		f.mu.Unlock()
		return ErrInjected
	}
	var delay time.Duration
	if len(f.setDelays) > 0 {
		delay = f.setDelays[0]
		f.setDelays = f.setDelays[1:]
	}
	f.inFlight++
	if f.inFlight > f.maxFlight {
		f.maxFlight = f.inFlight
	}
	f.mu.Unlock()

	defer func() {
		f.mu.Lock()
		f.inFlight--
		f.mu.Unlock()
	}()

	if delay > 0 {
		time.Sleep(delay)
	}
	if err := f.inner.Set(ctx, key, value); err != nil {
		return err
	}

	f.mu.Lock()
	f.writes[key] = append(f.writes[key], value)
	f.mu.Unlock()
	return nil
}

func (f *FaultyStore) Close() error { return f.inner.Close() }
