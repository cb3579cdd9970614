// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package daemon wires the services together and owns their lifecycle.
package daemon

import (
	"context"
	"errors"
	"fmt"

	"github.com/ManuGH/memorec/internal/account"
	"github.com/ManuGH/memorec/internal/api"
	"github.com/ManuGH/memorec/internal/capture"
	"github.com/ManuGH/memorec/internal/config"
	"github.com/ManuGH/memorec/internal/health"
	"github.com/ManuGH/memorec/internal/kv"
	xglog "github.com/ManuGH/memorec/internal/log"
	"github.com/ManuGH/memorec/internal/metrics"
	"github.com/ManuGH/memorec/internal/recorder"
	"github.com/ManuGH/memorec/internal/recordings"
	"github.com/ManuGH/memorec/internal/telemetry"
)

// Bootstrap builds every service from cfg and returns an App ready to Run.
// Resources opened before a failure are released again. cfgHolder may be nil.
func Bootstrap(ctx context.Context, cfg config.AppConfig, cfgHolder *config.Holder) (*App, error) {
	logger := xglog.WithComponent("daemon")

	if err := health.PerformStartupChecks(cfg); err != nil {
		return nil, fmt.Errorf("startup checks: %w", err)
	}

	var undo []func(context.Context) error
	fail := func(err error) (*App, error) {
		for i := len(undo) - 1; i >= 0; i-- {
			_ = undo[i](context.WithoutCancel(ctx))
		}
		return nil, err
	}

	provider, err := telemetry.NewProvider(ctx, telemetry.Config{
		Enabled:        cfg.TelemetryEnabled,
		ServiceName:    cfg.LogService,
		ServiceVersion: cfg.Version,
		ExporterType:   cfg.TelemetryExporter,
		Endpoint:       cfg.TelemetryEndpoint,
		SamplingRate:   cfg.TelemetrySamplingRate,
	})
	if err != nil {
		return fail(fmt.Errorf("telemetry: %w", err))
	}
	undo = append(undo, provider.Shutdown)

	store, err := kv.Open(ctx, kv.Config{
		Backend: cfg.StoreBackend,
		Path:    cfg.StorePath,
		Redis: kv.RedisConfig{
			Addr:     cfg.StoreRedisAddr,
			Password: cfg.StoreRedisPassword,
			DB:       cfg.StoreRedisDB,
			Prefix:   cfg.StoreRedisPrefix,
		},
	})
	if err != nil {
		return fail(fmt.Errorf("open store: %w", err))
	}
	undo = append(undo, func(context.Context) error { return store.Close() })

	observer := &metrics.RegistryObserver{}
	registry := recordings.NewRegistry(store, recordings.WithObserver(observer))
	observer.Dirty = registry.Dirty
	undo = append(undo, func(context.Context) error { return registry.Close() })

	if err := registry.Load(ctx); err != nil {
		if !errors.Is(err, recordings.ErrCorruptData) {
			return fail(fmt.Errorf("load recordings: %w", err))
		}
		logger.Warn().Err(err).
			Str(xglog.FieldEvent, "recordings.corrupt_ignored").
			Msg("stored recordings list is unreadable, starting empty")
	}

	accounts := account.NewService(store)

	adapter, err := capture.NewCommandAdapter(capture.CommandConfig{
		Command:   cfg.CaptureCommand,
		Dir:       cfg.RecordingsDir,
		Extension: cfg.CaptureExtension,
		StopGrace: cfg.CaptureStopGrace,
	})
	if err != nil {
		return fail(fmt.Errorf("capture: %w", err))
	}
	undo = append(undo, adapter.Close)

	rec := recorder.New(adapter, registry)

	tracingService := ""
	if provider.Enabled() {
		tracingService = cfg.LogService
	}
	hm := health.NewManager(cfg.Version)
	hm.RegisterChecker(health.NewWritableDirChecker("recordings_dir", cfg.RecordingsDir))
	hm.RegisterChecker(health.NewStoreChecker(store, recordings.DefaultKey))
	hm.RegisterChecker(health.NewDirtyChecker(registry.Dirty))

	srv := api.New(api.Config{
		RecordingsDir:  cfg.RecordingsDir,
		AuthRateLimit:  cfg.APIAuthRateLimit,
		TracingService: tracingService,
		Health:         hm,
	}, registry, accounts, rec)

	mgr, err := NewManager(DefaultServerConfig(cfg.APIListenAddr), Deps{
		Logger:     logger,
		APIHandler: srv.Handler(),
	})
	if err != nil {
		return fail(err)
	}

	// Executed in reverse: the active capture is saved before its adapter,
	// registry and store go away.
	mgr.RegisterShutdownHook("telemetry", provider.Shutdown)
	mgr.RegisterShutdownHook("store", func(context.Context) error { return store.Close() })
	mgr.RegisterShutdownHook("registry", func(context.Context) error { return registry.Close() })
	mgr.RegisterShutdownHook("capture", adapter.Close)
	mgr.RegisterShutdownHook("recorder", func(ctx context.Context) error {
		if !rec.Status().Recording {
			return nil
		}
		entry, err := rec.Stop(ctx, "")
		if err != nil && !errors.Is(err, recordings.ErrPersistence) {
			return err
		}
		logger.Info().
			Str(xglog.FieldEvent, "recorder.saved_on_shutdown").
			Str(xglog.FieldLocation, entry.Location).
			Msg("active recording saved during shutdown")
		return err
	})

	if cfgHolder != nil {
		cfgHolder.OnReload(func(next config.AppConfig) {
			if err := xglog.SetLevel(next.LogLevel); err != nil {
				logger.Warn().Err(err).Str(xglog.FieldEvent, "config.level_invalid").Msg("ignoring log level")
				return
			}
			logger.Info().
				Str(xglog.FieldEvent, "config.applied").
				Str("log_level", next.LogLevel).
				Msg("reloaded settings applied; other changes take effect on restart")
		})
	}

	logger.Info().
		Str(xglog.FieldEvent, "daemon.bootstrapped").
		Str("version", cfg.Version).
		Str(xglog.FieldBackend, cfg.StoreBackend).
		Int(xglog.FieldCount, registry.Len()).
		Bool("tracing", provider.Enabled()).
		Msg("daemon ready")

	return NewApp(logger, mgr, cfgHolder), nil
}
