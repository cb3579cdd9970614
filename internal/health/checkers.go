// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"context"
	"fmt"
	"os"
	"time"
)

// storeProbeTimeout bounds a single store round trip.
const storeProbeTimeout = 2 * time.Second

// WritableDirChecker reports whether files can be created in a directory.
type WritableDirChecker struct {
	name string
	path string
}

// NewWritableDirChecker checks path; an empty path is reported healthy.
func NewWritableDirChecker(name, path string) *WritableDirChecker {
	return &WritableDirChecker{name: name, path: path}
}

func (c *WritableDirChecker) Name() string { return c.name }

func (c *WritableDirChecker) Check(_ context.Context) CheckResult {
	if c.path == "" {
		return CheckResult{Status: StatusHealthy, Message: "not configured"}
	}
	if err := checkWritableDir(c.path); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error(), Message: c.path}
	}
	return CheckResult{Status: StatusHealthy, Message: "writable"}
}

func checkWritableDir(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("directory does not exist: %s", path)
		}
		return err
	}
	if !info.IsDir() {
		return fmt.Errorf("path is not a directory: %s", path)
	}
	f, err := os.CreateTemp(path, ".write_test-*")
	if err != nil {
		return fmt.Errorf("directory is not writable: %s (error: %v)", path, err)
	}
	name := f.Name()
	_ = f.Close()
	_ = os.Remove(name)
	return nil
}

// Getter is the read half of a key-value store.
type Getter interface {
	Get(ctx context.Context, key string) (string, bool, error)
}

// StoreChecker reads one key to prove the store answers.
type StoreChecker struct {
	store Getter
	key   string
}

// NewStoreChecker probes store by reading key. A missing key is healthy.
func NewStoreChecker(store Getter, key string) *StoreChecker {
	return &StoreChecker{store: store, key: key}
}

func (c *StoreChecker) Name() string { return "store" }

func (c *StoreChecker) Check(ctx context.Context) CheckResult {
	ctx, cancel := context.WithTimeout(ctx, storeProbeTimeout)
	defer cancel()
	if _, _, err := c.store.Get(ctx, c.key); err != nil {
		return CheckResult{Status: StatusUnhealthy, Error: err.Error()}
	}
	return CheckResult{Status: StatusHealthy, Message: "reachable"}
}

// DirtyChecker is degraded while the registry holds changes the store has
// not accepted yet.
type DirtyChecker struct {
	dirty func() bool
}

// NewDirtyChecker wraps a dirty-flag accessor such as Registry.Dirty.
func NewDirtyChecker(dirty func() bool) *DirtyChecker {
	return &DirtyChecker{dirty: dirty}
}

func (c *DirtyChecker) Name() string { return "recordings_persisted" }

func (c *DirtyChecker) Check(_ context.Context) CheckResult {
	if c.dirty() {
		return CheckResult{Status: StatusDegraded, Message: "unsaved changes held in memory; POST /api/v1/recordings/sync to retry"}
	}
	return CheckResult{Status: StatusHealthy, Message: "in sync"}
}
