// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package capture starts and stops microphone captures and reports where the
// finished audio file is.
package capture

import (
	"context"
	"errors"
)

// Handle identifies one running capture.
type Handle string

// Adapter produces audio files. Start begins a capture; Stop ends it and
// returns the location of the audio, usually a file:// URI.
type Adapter interface {
	Start(ctx context.Context) (Handle, error)
	Stop(ctx context.Context, h Handle) (location string, err error)
}

var (
	// ErrUnknownHandle: the handle is not a running capture.
	ErrUnknownHandle = errors.New("capture: unknown handle")
	// ErrNoOutput: the capture ended without producing an audio file.
	ErrNoOutput = errors.New("capture: no output file")
	// ErrInvalidCommand: the configured command is empty or lacks the output placeholder.
	ErrInvalidCommand = errors.New("capture: invalid command")
)
