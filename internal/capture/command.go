// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package capture

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/ManuGH/memorec/internal/fsutil"
	xglog "github.com/ManuGH/memorec/internal/log"
	"github.com/ManuGH/memorec/internal/procgroup"
)

// OutputPlaceholder is replaced by the output file path in command arguments.
const OutputPlaceholder = "{output}"

const defaultStopGrace = 3 * time.Second

// CommandConfig configures a CommandAdapter.
type CommandConfig struct {
	// Command is argv; one element must contain OutputPlaceholder.
	Command []string
	// Dir receives the audio files.
	Dir string
	// Extension of created files, without the dot.
	Extension string
	// StopGrace is how long Stop waits after the interrupt before killing.
	StopGrace time.Duration
}

type session struct {
	cmd     *exec.Cmd
	path    string
	waitCh  chan error
	started time.Time
}

// CommandAdapter records by running an external command such as arecord.
// Each capture writes a uniquely named file in Dir.
type CommandAdapter struct {
	cfg    CommandConfig
	logger zerolog.Logger

	mu       sync.Mutex
	sessions map[Handle]*session
}

// NewCommandAdapter validates cfg and returns an adapter.
func NewCommandAdapter(cfg CommandConfig) (*CommandAdapter, error) {
	if len(cfg.Command) == 0 || cfg.Command[0] == "" {
		return nil, fmt.Errorf("%w: empty command", ErrInvalidCommand)
	}
	if !slices.ContainsFunc(cfg.Command, func(a string) bool { return strings.Contains(a, OutputPlaceholder) }) {
		return nil, fmt.Errorf("%w: no %s argument", ErrInvalidCommand, OutputPlaceholder)
	}
	if cfg.Dir == "" {
		return nil, fmt.Errorf("%w: empty output dir", ErrInvalidCommand)
	}
	if cfg.Extension == "" {
		cfg.Extension = "wav"
	}
	if cfg.StopGrace <= 0 {
		cfg.StopGrace = defaultStopGrace
	}
	return &CommandAdapter{
		cfg:      cfg,
		logger:   xglog.WithComponent("capture"),
		sessions: make(map[Handle]*session),
	}, nil
}

// Start launches the command. The process is not bound to ctx; it runs
// until Stop.
func (a *CommandAdapter) Start(ctx context.Context) (Handle, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := os.MkdirAll(a.cfg.Dir, 0o750); err != nil {
		return "", fmt.Errorf("capture: create dir: %w", err)
	}

	id := uuid.NewString()
	path := filepath.Join(a.cfg.Dir, id+"."+strings.TrimPrefix(a.cfg.Extension, "."))
	args := make([]string, len(a.cfg.Command))
	for i, arg := range a.cfg.Command {
		args[i] = strings.ReplaceAll(arg, OutputPlaceholder, path)
	}

	cmd := exec.Command(args[0], args[1:]...) // #nosec G204 -- argv comes from operator config
	procgroup.Set(cmd)
	if err := cmd.Start(); err != nil {
		return "", fmt.Errorf("capture: start %s: %w", args[0], err)
	}

	s := &session{cmd: cmd, path: path, waitCh: make(chan error, 1), started: time.Now()}
	go func() { s.waitCh <- cmd.Wait() }()

	h := Handle(id)
	a.mu.Lock()
	a.sessions[h] = s
	a.mu.Unlock()

	a.logger.Info().
		Str(xglog.FieldEvent, "capture.started").
		Str(xglog.FieldHandle, string(h)).
		Str(xglog.FieldPath, path).
		Int("pid", cmd.Process.Pid).
		Msg("capture started")
	return h, nil
}

// Stop interrupts the capture, waits for it to finish writing and returns
// the file:// location of the output.
func (a *CommandAdapter) Stop(ctx context.Context, h Handle) (string, error) {
	a.mu.Lock()
	s, ok := a.sessions[h]
	delete(a.sessions, h)
	a.mu.Unlock()
	if !ok {
		return "", ErrUnknownHandle
	}

	grace := a.cfg.StopGrace
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < grace {
			grace = max(left, 0)
		}
	}

	outcome, waitErr := procgroup.Terminate(s.cmd, s.waitCh, grace)
	logEvt := a.logger.Info()
	if outcome == procgroup.OutcomeKilled {
		logEvt = a.logger.Warn()
	}
	logEvt.
		Str(xglog.FieldEvent, "capture.stopped").
		Str(xglog.FieldHandle, string(h)).
		Str("outcome", string(outcome)).
		Dur("duration", time.Since(s.started)).
		AnErr("exit", waitErr).
		Msg("capture stopped")

	if err := fsutil.IsRegularFile(s.path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrNoOutput, s.path)
		}
		return "", fmt.Errorf("%w: %v", ErrNoOutput, err)
	}
	return fsutil.PathToLocation(s.path), nil
}

// Active is the number of running captures.
func (a *CommandAdapter) Active() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.sessions)
}

// Close stops every running capture. Files already written are kept.
func (a *CommandAdapter) Close(ctx context.Context) error {
	a.mu.Lock()
	handles := make([]Handle, 0, len(a.sessions))
	for h := range a.sessions {
		handles = append(handles, h)
	}
	a.mu.Unlock()

	var errs []error
	for _, h := range handles {
		if _, err := a.Stop(ctx, h); err != nil && !errors.Is(err, ErrUnknownHandle) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
