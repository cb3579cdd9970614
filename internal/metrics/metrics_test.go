// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/ManuGH/memorec/internal/recordings"
)

func TestRegistryObserver_CountsByResult(t *testing.T) {
	obs := RegistryObserver{}

	tests := []struct {
		op, wantOp string
		err        error
		wantResult string
	}{
		{"add", "add", nil, "ok"},
		{"add", "add", &recordings.DuplicateLocationError{Location: "a"}, "duplicate"},
		{"remove", "remove", &recordings.NotFoundError{Location: "a"}, "not_found"},
		{"sync", "sync", &recordings.PersistenceError{Op: "sync", Err: errors.New("disk")}, "persistence"},
		{"load", "load", &recordings.CorruptDataError{Key: "recordings", Err: errors.New("x")}, "corrupt"},
		{"compact", "unknown", nil, "ok"},
	}
	for _, tt := range tests {
		c := registryOperationsTotal.WithLabelValues(tt.wantOp, tt.wantResult)
		before := testutil.ToFloat64(c)
		obs.ObserveOperation(tt.op, tt.err)
		if got := testutil.ToFloat64(c); got != before+1 {
			t.Errorf("%s/%s: expected increment, got before=%v after=%v", tt.wantOp, tt.wantResult, before, got)
		}
	}
}

func TestRegistryObserver_SizeAndDirty(t *testing.T) {
	dirty := true
	obs := RegistryObserver{Dirty: func() bool { return dirty }}

	obs.ObserveSize(7)
	if got := testutil.ToFloat64(recordingsTotal); got != 7 {
		t.Fatalf("expected gauge 7, got %v", got)
	}

	obs.ObserveOperation("add", nil)
	if got := testutil.ToFloat64(registryDirty); got != 1 {
		t.Fatalf("expected dirty=1, got %v", got)
	}
	dirty = false
	obs.ObserveOperation("sync", nil)
	if got := testutil.ToFloat64(registryDirty); got != 0 {
		t.Fatalf("expected dirty=0, got %v", got)
	}
}

func TestIncCaptureSession_NormalizesUnknowns(t *testing.T) {
	before := testutil.ToFloat64(captureSessionsTotal.WithLabelValues("unknown"))
	IncCaptureSession("exploded")
	if got := testutil.ToFloat64(captureSessionsTotal.WithLabelValues("unknown")); got != before+1 {
		t.Fatalf("expected unknown counter to increase, got before=%v after=%v", before, got)
	}

	before = testutil.ToFloat64(captureSessionsTotal.WithLabelValues(CaptureResultSaved))
	IncCaptureSession(" SAVED ")
	if got := testutil.ToFloat64(captureSessionsTotal.WithLabelValues(CaptureResultSaved)); got != before+1 {
		t.Fatalf("expected saved counter to increase, got before=%v after=%v", before, got)
	}
}

func TestCaptureActiveAndDuration(t *testing.T) {
	SetCaptureActive(true)
	if got := testutil.ToFloat64(captureActive); got != 1 {
		t.Fatalf("expected active=1, got %v", got)
	}
	SetCaptureActive(false)
	if got := testutil.ToFloat64(captureActive); got != 0 {
		t.Fatalf("expected active=0, got %v", got)
	}

	ObserveCaptureDuration(2 * time.Second)
	if n := testutil.CollectAndCount(captureDuration); n != 1 {
		t.Fatalf("expected one histogram series, got %d", n)
	}
}

func TestIncAccountOperation(t *testing.T) {
	c := accountOperationsTotal.WithLabelValues("login", "rejected")
	before := testutil.ToFloat64(c)
	IncAccountOperation("LOGIN", "rejected")
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("expected login/rejected increment, got before=%v after=%v", before, got)
	}

	c = accountOperationsTotal.WithLabelValues("unknown", "error")
	before = testutil.ToFloat64(c)
	IncAccountOperation("delete", "boom")
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Fatalf("expected unknown/error increment, got before=%v after=%v", before, got)
	}
}
