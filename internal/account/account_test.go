// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package account

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuGH/memorec/internal/kv"
	"github.com/ManuGH/memorec/internal/kv/kvtest"
)

var fixedNow = time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)

func newTestService(store kv.Store) *Service {
	return NewService(store,
		WithCost(bcrypt.MinCost),
		WithClock(func() time.Time { return fixedNow }),
		WithLogger(zerolog.Nop()),
	)
}

func TestRegisterAndLogin(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	svc := newTestService(store)

	p, err := svc.Register(ctx, "  alice ", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, Profile{Username: "alice", UpdatedAt: fixedNow}, p)

	raw, ok, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.NotContains(t, raw, "s3cret", "password must not be stored in plaintext")

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(raw), &rec))
	assert.Equal(t, "alice", rec["username"])
	assert.NotEmpty(t, rec["passwordHash"])

	p, err = svc.Login(ctx, "alice", "s3cret")
	require.NoError(t, err)
	assert.Equal(t, "alice", p.Username)
}

func TestLogin_Rejections(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(kv.NewMemoryStore())

	_, err := svc.Login(ctx, "alice", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "no account")

	_, err = svc.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "bob", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "wrong user")
	_, err = svc.Login(ctx, "alice", "PW")
	assert.ErrorIs(t, err, ErrInvalidCredentials, "wrong password")
	_, err = svc.Login(ctx, "", "")
	assert.ErrorIs(t, err, ErrMissingFields)
}

func TestRegister_Validation(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(kv.NewMemoryStore())

	_, err := svc.Register(ctx, "", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Register(ctx, "   ", "pw")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Register(ctx, "alice", "")
	assert.ErrorIs(t, err, ErrMissingFields)
	_, err = svc.Register(ctx, "alice", strings.Repeat("x", 73))
	assert.ErrorIs(t, err, ErrPasswordTooLong)

	_, err = svc.Profile(ctx)
	assert.ErrorIs(t, err, ErrNoAccount, "rejected registrations store nothing")
}

func TestRegister_ReplacesExistingAccount(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(kv.NewMemoryStore())

	_, err := svc.Register(ctx, "alice", "one")
	require.NoError(t, err)
	_, err = svc.Register(ctx, "bob", "two")
	require.NoError(t, err)

	_, err = svc.Login(ctx, "alice", "one")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "bob", "two")
	assert.NoError(t, err)
}

func TestProfileAndUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(kv.NewMemoryStore())

	_, err := svc.Profile(ctx)
	require.ErrorIs(t, err, ErrNoAccount)
	_, err = svc.UpdateProfile(ctx, "alice", "pw")
	require.ErrorIs(t, err, ErrNoAccount)

	_, err = svc.Register(ctx, "alice", "pw")
	require.NoError(t, err)

	_, err = svc.UpdateProfile(ctx, "alicia", "")
	require.ErrorIs(t, err, ErrMissingFields)

	p, err := svc.UpdateProfile(ctx, "alicia", "new-pw")
	require.NoError(t, err)
	assert.Equal(t, "alicia", p.Username)

	got, err := svc.Profile(ctx)
	require.NoError(t, err)
	assert.Equal(t, p, got)

	_, err = svc.Login(ctx, "alicia", "new-pw")
	assert.NoError(t, err)
	_, err = svc.Login(ctx, "alice", "pw")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(kv.NewMemoryStore())

	assert.ErrorIs(t, svc.ResetPassword(ctx, "alice", "x"), ErrNoAccount)

	_, err := svc.Register(ctx, "alice", "old")
	require.NoError(t, err)

	assert.ErrorIs(t, svc.ResetPassword(ctx, "bob", "x"), ErrUnknownUser)
	assert.ErrorIs(t, svc.ResetPassword(ctx, "alice", ""), ErrMissingFields)

	require.NoError(t, svc.ResetPassword(ctx, "alice", "new"))
	_, err = svc.Login(ctx, "alice", "old")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Login(ctx, "alice", "new")
	assert.NoError(t, err)
}

func TestLogin_UpgradesPlaintextRecord(t *testing.T) {
	ctx := context.Background()
	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, DefaultKey, `{"username":"alice","password":"legacy"}`))
	svc := newTestService(store)

	_, err := svc.Login(ctx, "alice", "wrong")
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, "alice", "legacy")
	require.NoError(t, err)

	raw, _, err := store.Get(ctx, DefaultKey)
	require.NoError(t, err)
	assert.NotContains(t, raw, `"password":`)
	assert.Contains(t, raw, `"passwordHash":`)

	_, err = svc.Login(ctx, "alice", "legacy")
	assert.NoError(t, err, "hashed record still accepts the same password")
}

func TestCorruptAndStorageErrors(t *testing.T) {
	ctx := context.Background()

	store := kv.NewMemoryStore()
	require.NoError(t, store.Set(ctx, DefaultKey, "{not json"))
	svc := newTestService(store)
	_, err := svc.Profile(ctx)
	assert.ErrorIs(t, err, ErrCorruptAccount)

	require.NoError(t, store.Set(ctx, DefaultKey, `{"username":"alice"}`))
	_, err = svc.Login(ctx, "alice", "pw")
	assert.ErrorIs(t, err, ErrCorruptAccount)

	_, err = svc.Register(ctx, "alice", "pw")
	require.NoError(t, err, "register overwrites a corrupt record")

	faulty := kvtest.Wrap(kv.NewMemoryStore())
	svc = newTestService(faulty)
	faulty.FailNextSets(1)
	_, err = svc.Register(ctx, "alice", "pw")
	assert.ErrorIs(t, err, ErrStorage)

	faulty.FailNextGets(1)
	_, err = svc.Profile(ctx)
	assert.ErrorIs(t, err, ErrStorage)
}
