// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package procgroup starts capture commands in their own process group and
// stops the whole group.
package procgroup

import (
	"os/exec"
	"time"

	xglog "github.com/ManuGH/memorec/internal/log"
)

// Outcome says how Terminate ended the process.
type Outcome string

const (
	// OutcomeExited: the process exited after the interrupt, or had already exited.
	OutcomeExited Outcome = "exited"
	// OutcomeKilled: the grace period ran out and the group was killed.
	OutcomeKilled Outcome = "killed"
)

// Terminate interrupts the process group of cmd so the recorder can finalize
// its output, waits up to grace for waitCh, then kills the group. It always
// drains waitCh and returns the process exit error.
// cmd must have been started after Set(cmd).
func Terminate(cmd *exec.Cmd, waitCh <-chan error, grace time.Duration) (Outcome, error) {
	if cmd == nil || cmd.Process == nil {
		return OutcomeExited, nil
	}
	logger := xglog.WithComponent("procgroup")
	pid := cmd.Process.Pid

	if err := interrupt(cmd); err != nil {
		logger.Debug().Err(err).Int("pid", pid).Msg("interrupt not delivered")
	}

	timer := time.NewTimer(grace)
	defer timer.Stop()

	select {
	case err := <-waitCh:
		return OutcomeExited, err
	case <-timer.C:
	}

	logger.Warn().
		Str(xglog.FieldEvent, "procgroup.kill").
		Int("pid", pid).
		Dur("grace", grace).
		Msg("grace period exceeded, killing process group")
	if err := kill(cmd); err != nil {
		logger.Debug().Err(err).Int("pid", pid).Msg("kill not delivered")
	}
	return OutcomeKilled, <-waitCh
}
