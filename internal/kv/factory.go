// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kv

import (
	"context"
	"fmt"

	xglog "github.com/ManuGH/memorec/internal/log"
)

// Config selects a backend for Open.
type Config struct {
	Backend string // memory, file, sqlite, badger, redis
	Path    string // directory or database file for file/sqlite/badger
	Redis   RedisConfig
}

// Open creates a Store based on the backend configuration.
func Open(ctx context.Context, cfg Config) (Store, error) {
	logger := xglog.WithComponent("kv")

	var (
		s   Store
		err error
	)
	switch cfg.Backend {
	case "memory":
		s = NewMemoryStore()
	case "", "file":
		s, err = OpenFileStore(cfg.Path)
	case "sqlite":
		s, err = OpenSqliteStore(ctx, cfg.Path)
	case "badger":
		s, err = OpenBadgerStore(cfg.Path)
	case "redis":
		s, err = OpenRedisStore(ctx, cfg.Redis, logger)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}

	logger.Info().
		Str(xglog.FieldEvent, "kv.opened").
		Str(xglog.FieldBackend, cfg.Backend).
		Str(xglog.FieldPath, cfg.Path).
		Msg("key-value store opened")
	return s, nil
}
