// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package health

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/ManuGH/memorec/internal/config"
	"github.com/ManuGH/memorec/internal/log"
)

// PerformStartupChecks prepares and validates the filesystem before the
// server starts. Missing directories are created.
func PerformStartupChecks(cfg config.AppConfig) error {
	logger := log.WithComponent("startup-check")

	dirs := []struct{ name, path string }{
		{"data directory", cfg.DataDir},
		{"recordings directory", cfg.RecordingsDir},
	}
	if cfg.StoreBackend == config.BackendFile || cfg.StoreBackend == config.BackendBadger {
		dirs = append(dirs, struct{ name, path string }{"store directory", cfg.StorePath})
	}
	if cfg.StoreBackend == config.BackendSQLite {
		dirs = append(dirs, struct{ name, path string }{"store directory", filepath.Dir(cfg.StorePath)})
	}

	for _, d := range dirs {
		if err := os.MkdirAll(d.path, 0o750); err != nil {
			return fmt.Errorf("%s: %w", d.name, err)
		}
		if err := checkWritableDir(d.path); err != nil {
			return fmt.Errorf("%s check failed: %w", d.name, err)
		}
		logger.Debug().Str(log.FieldPath, d.path).Msgf("%s is writable", d.name)
	}

	// The capture binary may be installed later; recording fails until then.
	if len(cfg.CaptureCommand) == 0 {
		return fmt.Errorf("capture command is empty")
	}
	if bin := cfg.CaptureCommand[0]; !strings.ContainsRune(bin, filepath.Separator) {
		if _, err := exec.LookPath(bin); err != nil {
			logger.Warn().
				Str(log.FieldEvent, "startup.capture_binary_missing").
				Str("binary", bin).
				Msg("capture command not found on PATH; recording will fail")
		}
	} else if _, err := os.Stat(bin); err != nil {
		logger.Warn().
			Err(err).
			Str(log.FieldEvent, "startup.capture_binary_missing").
			Str("binary", bin).
			Msg("capture command not found; recording will fail")
	}

	if cfg.StoreBackend == config.BackendMemory {
		logger.Warn().
			Str(log.FieldBackend, cfg.StoreBackend).
			Msg("in-memory store; recordings and account are lost on restart")
	}

	logger.Info().Str(log.FieldEvent, "startup.checks_passed").Msg("startup checks passed")
	return nil
}
