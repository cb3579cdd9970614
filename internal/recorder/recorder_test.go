// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package recorder

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/memorec/internal/capture"
	"github.com/ManuGH/memorec/internal/kv"
	"github.com/ManuGH/memorec/internal/kv/kvtest"
	"github.com/ManuGH/memorec/internal/recordings"
)

var t0 = time.Date(2024, 2, 3, 10, 0, 0, 0, time.UTC)

func newHarness(t *testing.T, store kv.Store) (*Service, *capture.Fake, *recordings.Registry) {
	t.Helper()
	reg := recordings.NewRegistry(store,
		recordings.WithClock(func() time.Time { return t0 }),
		recordings.WithLogger(zerolog.Nop()))
	t.Cleanup(func() { _ = reg.Close() })
	fake := capture.NewFake()
	svc := New(fake, reg, WithClock(func() time.Time { return t0 }), WithLogger(zerolog.Nop()))
	return svc, fake, reg
}

func TestService_StartStopRegisters(t *testing.T) {
	ctx := context.Background()
	svc, fake, reg := newHarness(t, kv.NewMemoryStore())

	assert.Equal(t, Status{}, svc.Status())
	require.NoError(t, svc.Start(ctx))
	assert.Equal(t, Status{Recording: true, StartedAt: t0}, svc.Status())

	entry, err := svc.Stop(ctx, "Standup")
	require.NoError(t, err)
	assert.Equal(t, capture.FakeLocation(1), entry.Location)
	assert.Equal(t, "Standup", entry.Name)
	assert.False(t, svc.Status().Recording)
	assert.Zero(t, fake.Active())

	got, ok := reg.Lookup(entry.Location)
	require.True(t, ok)
	assert.Equal(t, entry, got)
}

func TestService_StopWithCancelledContextStillRegisters(t *testing.T) {
	svc, fake, reg := newHarness(t, kv.NewMemoryStore())

	for i := 0; i < 20; i++ {
		require.NoError(t, svc.Start(context.Background()))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		entry, err := svc.Stop(ctx, "")
		require.NoError(t, err)
		assert.False(t, svc.Status().Recording)

		_, ok := reg.Lookup(entry.Location)
		assert.True(t, ok, "captured file %s not registered", entry.Location)
	}
	assert.Zero(t, fake.Active())
	assert.Equal(t, 20, reg.Len())
}

func TestService_BlankNameUsesDefault(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newHarness(t, kv.NewMemoryStore())

	require.NoError(t, svc.Start(ctx))
	entry, err := svc.Stop(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, recordings.DefaultName(t0), entry.Name)
}

func TestService_StateErrors(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newHarness(t, kv.NewMemoryStore())

	_, err := svc.Stop(ctx, "x")
	assert.ErrorIs(t, err, ErrNotRecording)

	require.NoError(t, svc.Start(ctx))
	assert.ErrorIs(t, svc.Start(ctx), ErrAlreadyRecording)
}

func TestService_StartFailureStaysIdle(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := newHarness(t, kv.NewMemoryStore())
	boom := errors.New("no microphone permission")

	fake.FailNextStart(boom)
	err := svc.Start(ctx)
	require.ErrorIs(t, err, boom)
	assert.False(t, svc.Status().Recording)

	require.NoError(t, svc.Start(ctx), "can retry after a failed start")
}

func TestService_StopFailureDoesNotRegister(t *testing.T) {
	ctx := context.Background()
	svc, fake, reg := newHarness(t, kv.NewMemoryStore())

	require.NoError(t, svc.Start(ctx))
	fake.FailNextStop(capture.ErrNoOutput)
	_, err := svc.Stop(ctx, "lost")
	require.ErrorIs(t, err, capture.ErrNoOutput)

	assert.Zero(t, reg.Len())
	assert.False(t, svc.Status().Recording, "session ends even on failure")
}

func TestService_PersistenceFailureReturnsEntry(t *testing.T) {
	ctx := context.Background()
	store := kvtest.Wrap(kv.NewMemoryStore())
	svc, _, reg := newHarness(t, store)

	require.NoError(t, svc.Start(ctx))
	store.FailNextSets(1)
	entry, err := svc.Stop(ctx, "kept")
	require.ErrorIs(t, err, recordings.ErrPersistence)
	assert.Equal(t, "kept", entry.Name)
	assert.Equal(t, 1, reg.Len())
	assert.True(t, reg.Dirty())
}

func TestService_ConcurrentStartsOnlyOneWins(t *testing.T) {
	ctx := context.Background()
	svc, fake, _ := newHarness(t, kv.NewMemoryStore())

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- svc.Start(ctx)
		}()
	}
	wg.Wait()
	close(errs)

	var ok, busy int
	for err := range errs {
		switch {
		case err == nil:
			ok++
		case errors.Is(err, ErrAlreadyRecording):
			busy++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 7, busy)
	assert.Equal(t, 1, fake.Active())
}
