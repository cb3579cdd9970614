// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import (
	"errors"
	"fmt"
	"net"
	"slices"
	"strings"

	"github.com/rs/zerolog"
)

// Validate checks a resolved configuration and joins every problem found.
func Validate(cfg AppConfig) error {
	var errs []error
	add := func(field, format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, fmt.Sprintf(format, args...)))
	}

	if strings.TrimSpace(cfg.DataDir) == "" {
		add("dataDir", "must not be empty")
	}
	if _, err := zerolog.ParseLevel(cfg.LogLevel); err != nil {
		add("logLevel", "unknown level %q", cfg.LogLevel)
	}

	if strings.TrimSpace(cfg.APIListenAddr) == "" {
		add("api.listenAddr", "must not be empty")
	} else if _, _, err := net.SplitHostPort(cfg.APIListenAddr); err != nil {
		add("api.listenAddr", "%v", err)
	}
	if cfg.APIAuthRateLimit < 0 {
		add("api.authRateLimit", "must not be negative")
	}

	switch cfg.StoreBackend {
	case BackendMemory:
	case BackendFile, BackendSQLite, BackendBadger:
		if cfg.StorePath == "" {
			add("store.path", "required for backend %q", cfg.StoreBackend)
		}
	case BackendRedis:
		if cfg.StoreRedisAddr == "" {
			add("store.redis.addr", "required for backend %q", cfg.StoreBackend)
		}
	default:
		add("store.backend", "unknown backend %q", cfg.StoreBackend)
	}

	if len(cfg.CaptureCommand) == 0 {
		add("capture.command", "must not be empty")
	} else if !slices.Contains(cfg.CaptureCommand, OutputPlaceholder) {
		add("capture.command", "must contain the %s placeholder", OutputPlaceholder)
	}
	if cfg.CaptureExtension == "" || strings.ContainsAny(cfg.CaptureExtension, `/\`) {
		add("capture.extension", "invalid extension %q", cfg.CaptureExtension)
	}
	if cfg.CaptureStopGrace < 0 {
		add("capture.stopGrace", "must not be negative")
	}

	if cfg.TelemetryEnabled {
		if cfg.TelemetryExporter != "grpc" && cfg.TelemetryExporter != "http" {
			add("telemetry.exporter", "unsupported exporter %q (supported: grpc, http)", cfg.TelemetryExporter)
		}
		if cfg.TelemetryEndpoint == "" {
			add("telemetry.endpoint", "required when telemetry is enabled")
		}
	}
	if cfg.TelemetrySamplingRate < 0 || cfg.TelemetrySamplingRate > 1 {
		add("telemetry.samplingRate", "must be within [0,1]")
	}

	return errors.Join(errs...)
}
