// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package kv

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendFactory struct {
	name string
	open func(t *testing.T) Store
}

func backends() []backendFactory {
	return []backendFactory{
		{"memory", func(t *testing.T) Store { return NewMemoryStore() }},
		{"file", func(t *testing.T) Store {
			s, err := OpenFileStore(filepath.Join(t.TempDir(), "store"))
			require.NoError(t, err)
			return s
		}},
		{"sqlite", func(t *testing.T) Store {
			s, err := OpenSqliteStore(context.Background(), filepath.Join(t.TempDir(), "kv.db"))
			require.NoError(t, err)
			return s
		}},
		{"badger", func(t *testing.T) Store {
			s, err := OpenBadgerStore(t.TempDir())
			require.NoError(t, err)
			return s
		}},
		{"redis", func(t *testing.T) Store {
			mr := miniredis.RunT(t)
			client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
			return NewRedisStoreWithClient(client, "test:", zerolog.Nop())
		}},
	}
}

func TestStore_Contract(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { _ = s.Close() })

			_, ok, err := s.Get(ctx, "recordings")
			require.NoError(t, err)
			assert.False(t, ok, "unset key must be absent")

			require.NoError(t, s.Set(ctx, "recordings", `[{"uri":"a"}]`))
			v, ok, err := s.Get(ctx, "recordings")
			require.NoError(t, err)
			require.True(t, ok)
			assert.Equal(t, `[{"uri":"a"}]`, v)

			require.NoError(t, s.Set(ctx, "recordings", "[]"))
			v, _, err = s.Get(ctx, "recordings")
			require.NoError(t, err)
			assert.Equal(t, "[]", v, "Set must replace the previous value")

			require.NoError(t, s.Set(ctx, "userCredentials", ""))
			v, ok, err = s.Get(ctx, "userCredentials")
			require.NoError(t, err)
			assert.True(t, ok, "empty value is still present")
			assert.Empty(t, v)

			assert.ErrorIs(t, s.Set(ctx, "", "x"), ErrEmptyKey)
		})
	}
}

func TestStore_ClosedRejectsOperations(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			require.NoError(t, s.Close())
			require.NoError(t, s.Close(), "Close must be idempotent")

			_, _, err := s.Get(ctx, "k")
			assert.ErrorIs(t, err, ErrClosed)
			assert.ErrorIs(t, s.Set(ctx, "k", "v"), ErrClosed)
		})
	}
}

func TestStore_ConcurrentWritersDistinctKeys(t *testing.T) {
	ctx := context.Background()
	for _, b := range backends() {
		t.Run(b.name, func(t *testing.T) {
			s := b.open(t)
			t.Cleanup(func() { _ = s.Close() })

			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					assert.NoError(t, s.Set(ctx, fmt.Sprintf("k%d", i), fmt.Sprintf("v%d", i)))
				}(i)
			}
			wg.Wait()

			for i := 0; i < 16; i++ {
				v, ok, err := s.Get(ctx, fmt.Sprintf("k%d", i))
				require.NoError(t, err)
				require.True(t, ok)
				assert.Equal(t, fmt.Sprintf("v%d", i), v)
			}
		})
	}
}

func TestFileStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	dir := filepath.Join(t.TempDir(), "store")

	s, err := OpenFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "recordings", "persisted"))
	require.NoError(t, s.Close())

	s2, err := OpenFileStore(dir)
	require.NoError(t, err)
	v, ok, err := s2.Get(ctx, "recordings")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestSqliteStore_SurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "kv.db")

	s, err := OpenSqliteStore(ctx, path)
	require.NoError(t, err)
	require.NoError(t, s.Set(ctx, "recordings", "persisted"))
	require.NoError(t, s.Close())

	s2, err := OpenSqliteStore(ctx, path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s2.Close() })
	v, ok, err := s2.Get(ctx, "recordings")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "persisted", v)
}

func TestRedisStore_UsesPrefix(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	s := NewRedisStoreWithClient(client, "memorec:", zerolog.Nop())
	t.Cleanup(func() { _ = s.Close() })

	require.NoError(t, s.Set(context.Background(), "recordings", "[]"))
	got, err := mr.Get("memorec:recordings")
	require.NoError(t, err)
	assert.Equal(t, "[]", got)
}

func TestOpen_Factory(t *testing.T) {
	ctx := context.Background()

	s, err := Open(ctx, Config{Backend: "memory"})
	require.NoError(t, err)
	_, ok := s.(*MemoryStore)
	assert.True(t, ok)

	s, err = Open(ctx, Config{Backend: "file", Path: filepath.Join(t.TempDir(), "s")})
	require.NoError(t, err)
	_, ok = s.(*FileStore)
	assert.True(t, ok)

	mr := miniredis.RunT(t)
	s, err = Open(ctx, Config{Backend: "redis", Redis: RedisConfig{Addr: mr.Addr()}})
	require.NoError(t, err)
	require.NoError(t, s.Close())

	_, err = Open(ctx, Config{Backend: "etcd"})
	require.Error(t, err)

	_, err = Open(ctx, Config{Backend: "badger"})
	require.Error(t, err, "badger without path must fail")
}
