// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

//go:build windows

package procgroup

import (
	"errors"
	"os/exec"
)

// Set is a no-op on Windows.
func Set(cmd *exec.Cmd) {}

// Windows cannot deliver an interrupt to a child; Terminate falls through to
// kill once the grace period ends.
func interrupt(cmd *exec.Cmd) error {
	return errors.New("interrupt not supported on windows")
}

func kill(cmd *exec.Cmd) error { return cmd.Process.Kill() }
