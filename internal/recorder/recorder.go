// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recorder runs the single record/stop/save session: it drives a
// capture.Adapter and registers the finished clip.
package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/ManuGH/memorec/internal/capture"
	xglog "github.com/ManuGH/memorec/internal/log"
	"github.com/ManuGH/memorec/internal/metrics"
	"github.com/ManuGH/memorec/internal/recordings"
)

var (
	ErrAlreadyRecording = errors.New("recorder: already recording")
	ErrNotRecording     = errors.New("recorder: not recording")
)

// Registry is the part of *recordings.Registry the recorder needs.
type Registry interface {
	Add(ctx context.Context, intent recordings.Intent) (recordings.Entry, error)
}

// Status is a point-in-time view of the session.
type Status struct {
	Recording bool      `json:"recording"`
	StartedAt time.Time `json:"startedAt,omitzero"`
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source for StartedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service holds at most one active capture.
type Service struct {
	adapter  capture.Adapter
	registry Registry
	now      func() time.Time
	logger   zerolog.Logger

	mu     sync.Mutex // serializes Start and Stop
	handle capture.Handle
	status atomic.Pointer[Status]
}

// New returns an idle Service.
func New(adapter capture.Adapter, registry Registry, opts ...Option) *Service {
	s := &Service{
		adapter:  adapter,
		registry: registry,
		now:      time.Now,
		logger:   xglog.WithComponent("recorder"),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.status.Store(&Status{})
	return s
}

// Start begins a capture.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.status.Load().Recording {
		return ErrAlreadyRecording
	}
	h, err := s.adapter.Start(ctx)
	if err != nil {
		metrics.IncCaptureSession(metrics.CaptureResultStartFailed)
		s.logger.Error().Err(err).
			Str(xglog.FieldEvent, "recorder.start_failed").
			Msg("failed to start capture")
		return fmt.Errorf("recorder: start capture: %w", err)
	}

	s.handle = h
	s.status.Store(&Status{Recording: true, StartedAt: s.now()})
	metrics.SetCaptureActive(true)
	s.logger.Info().
		Str(xglog.FieldEvent, "recorder.started").
		Str(xglog.FieldHandle, string(h)).
		Msg("recording started")
	return nil
}

// Stop ends the capture and adds it to the registry under name; a blank
// name gets the registry default. The session ends even when capture or
// registration fails. A failed capture never reaches the registry. Errors
// from Add are returned unchanged, including *recordings.PersistenceError
// alongside the entry. A captured file is registered even when ctx is
// cancelled while the capture winds down.
func (s *Service) Stop(ctx context.Context, name string) (recordings.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	st := s.status.Load()
	if !st.Recording {
		return recordings.Entry{}, ErrNotRecording
	}
	h := s.handle
	s.handle = ""
	s.status.Store(&Status{})
	metrics.SetCaptureActive(false)
	metrics.ObserveCaptureDuration(s.now().Sub(st.StartedAt))

	location, err := s.adapter.Stop(ctx, h)
	if err != nil {
		metrics.IncCaptureSession(metrics.CaptureResultStopFailed)
		s.logger.Error().Err(err).
			Str(xglog.FieldEvent, "recorder.stop_failed").
			Str(xglog.FieldHandle, string(h)).
			Msg("capture did not produce a recording")
		return recordings.Entry{}, fmt.Errorf("recorder: stop capture: %w", err)
	}

	// The file exists now; registering it must not depend on the caller
	// still waiting.
	entry, err := s.registry.Add(context.WithoutCancel(ctx), recordings.Intent{Location: location, Name: name})
	switch {
	case err == nil:
		metrics.IncCaptureSession(metrics.CaptureResultSaved)
	case errors.Is(err, recordings.ErrPersistence):
		metrics.IncCaptureSession(metrics.CaptureResultUnsaved)
	default:
		metrics.IncCaptureSession(metrics.CaptureResultUnsaved)
		s.logger.Error().Err(err).
			Str(xglog.FieldEvent, "recorder.register_failed").
			Str(xglog.FieldLocation, location).
			Msg("recording captured but not registered")
	}
	return entry, err
}

// Status returns the current session state without blocking on Start/Stop.
func (s *Service) Status() Status {
	return *s.status.Load()
}
