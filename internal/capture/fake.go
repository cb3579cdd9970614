// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"fmt"
	"sync"
)

// Fake is an in-memory Adapter with predictable handles and locations.
// Stop on the n-th capture returns "file:///fake/recording-<n>.m4a".
type Fake struct {
	mu        sync.Mutex
	seq       int
	active    map[Handle]int
	startErrs []error
	stopErrs  []error
}

// NewFake returns an idle Fake.
func NewFake() *Fake {
	return &Fake{active: make(map[Handle]int)}
}

// FailNextStart makes the next Start return err.
func (f *Fake) FailNextStart(err error) {
	f.mu.Lock()
	f.startErrs = append(f.startErrs, err)
	f.mu.Unlock()
}

// FailNextStop makes the next Stop of a known handle return err. The
// capture is still ended.
func (f *Fake) FailNextStop(err error) {
	f.mu.Lock()
	f.stopErrs = append(f.stopErrs, err)
	f.mu.Unlock()
}

// Active is the number of started, unstopped captures.
func (f *Fake) Active() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.active)
}

func (f *Fake) Start(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.startErrs) > 0 {
		err := f.startErrs[0]
		f.startErrs = f.startErrs[1:]
		return "", err
	}
	f.seq++
	h := Handle(fmt.Sprintf("fake-%d", f.seq))
	f.active[h] = f.seq
	return h, nil
}

func (f *Fake) Stop(_ context.Context, h Handle) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	n, ok := f.active[h]
	if !ok {
		return "", ErrUnknownHandle
	}
	delete(f.active, h)
	if len(f.stopErrs) > 0 {
		err := f.stopErrs[0]
		f.stopErrs = f.stopErrs[1:]
		return "", err
	}
	return FakeLocation(n), nil
}

// FakeLocation is the location Fake returns for its n-th capture.
func FakeLocation(n int) string {
	return fmt.Sprintf("file:///fake/recording-%d.m4a", n)
}
