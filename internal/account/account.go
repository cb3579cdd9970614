// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package account stores the single local user credential record.
//
// Passwords are kept as bcrypt hashes. Records written by older clients with
// a plaintext "password" field are accepted once and rewritten as a hash on
// the next successful login.
package account

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"

	"github.com/ManuGH/memorec/internal/kv"
	xglog "github.com/ManuGH/memorec/internal/log"
	"github.com/ManuGH/memorec/internal/metrics"
)

// DefaultKey is the store key of the credential record.
const DefaultKey = "userCredentials"

var (
	ErrMissingFields      = errors.New("account: username and password are required")
	ErrPasswordTooLong    = errors.New("account: password longer than 72 bytes")
	ErrInvalidCredentials = errors.New("account: invalid username or password")
	ErrNoAccount          = errors.New("account: no account registered")
	ErrUnknownUser        = errors.New("account: username not found")
	ErrStorage            = errors.New("account: storage failure")
	ErrCorruptAccount     = errors.New("account: corrupt credential record")
)

// Profile is the public part of the credential record.
type Profile struct {
	Username  string    `json:"username"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type record struct {
	Username     string    `json:"username"`
	PasswordHash string    `json:"passwordHash,omitempty"`
	UpdatedAt    time.Time `json:"updatedAt,omitzero"`

	// LegacyPassword is the plaintext field of records made by older clients.
	LegacyPassword string `json:"password,omitempty"`
}

func (r record) profile() Profile {
	return Profile{Username: r.Username, UpdatedAt: r.UpdatedAt}
}

// Option configures a Service.
type Option func(*Service)

// WithCost sets the bcrypt cost. Tests use bcrypt.MinCost.
func WithCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithClock overrides the time source for UpdatedAt.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// Service manages the credential record. Methods are safe for concurrent use;
// read-modify-write sequences are serialized.
type Service struct {
	store  kv.Store
	key    string
	cost   int
	now    func() time.Time
	logger zerolog.Logger

	mu sync.Mutex
}

// NewService returns a Service over store.
func NewService(store kv.Store, opts ...Option) *Service {
	s := &Service{
		store:  store,
		key:    DefaultKey,
		cost:   bcrypt.DefaultCost,
		now:    time.Now,
		logger: xglog.WithComponent("account"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register stores a new credential record, replacing any existing one.
func (s *Service) Register(ctx context.Context, username, password string) (Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.IncAccountOperation("register", "rejected")
		return Profile{}, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.newRecord(username, password)
	if err != nil {
		metrics.IncAccountOperation("register", "rejected")
		return Profile{}, err
	}
	if err := s.save(ctx, rec); err != nil {
		metrics.IncAccountOperation("register", "error")
		return Profile{}, err
	}

	metrics.IncAccountOperation("register", "ok")
	s.logger.Info().
		Str(xglog.FieldEvent, "account.registered").
		Str(xglog.FieldUsername, username).
		Msg("account registered")
	return rec.profile(), nil
}

// Login checks username and password against the stored record. Every
// mismatch, including a missing account, is ErrInvalidCredentials.
func (s *Service) Login(ctx context.Context, username, password string) (Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.IncAccountOperation("login", "rejected")
		return Profile{}, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok, err := s.load(ctx)
	if err != nil {
		metrics.IncAccountOperation("login", "error")
		return Profile{}, err
	}
	if !ok || rec.Username != username || !s.checkPassword(rec, password) {
		metrics.IncAccountOperation("login", "rejected")
		s.logger.Info().
			Str(xglog.FieldEvent, "account.login_rejected").
			Str(xglog.FieldUsername, username).
			Msg("login rejected")
		return Profile{}, ErrInvalidCredentials
	}

	if rec.PasswordHash == "" {
		upgraded, err := s.newRecord(rec.Username, password)
		if err == nil {
			upgraded.UpdatedAt = rec.UpdatedAt
			if err := s.save(ctx, upgraded); err != nil {
				s.logger.Warn().Err(err).
					Str(xglog.FieldEvent, "account.upgrade_failed").
					Msg("could not rewrite plaintext credential as hash")
			} else {
				rec = upgraded
				s.logger.Info().
					Str(xglog.FieldEvent, "account.upgraded").
					Msg("plaintext credential rewritten as hash")
			}
		}
	}

	metrics.IncAccountOperation("login", "ok")
	s.logger.Info().
		Str(xglog.FieldEvent, "account.login").
		Str(xglog.FieldUsername, username).
		Msg("login succeeded")
	return rec.profile(), nil
}

// Profile returns the registered profile.
func (s *Service) Profile(ctx context.Context) (Profile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok, err := s.load(ctx)
	if err != nil {
		return Profile{}, err
	}
	if !ok {
		return Profile{}, ErrNoAccount
	}
	return rec.profile(), nil
}

// UpdateProfile replaces both username and password of the existing account.
func (s *Service) UpdateProfile(ctx context.Context, username, password string) (Profile, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		metrics.IncAccountOperation("update", "rejected")
		return Profile{}, ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok, err := s.load(ctx); err != nil {
		metrics.IncAccountOperation("update", "error")
		return Profile{}, err
	} else if !ok {
		metrics.IncAccountOperation("update", "rejected")
		return Profile{}, ErrNoAccount
	}

	rec, err := s.newRecord(username, password)
	if err != nil {
		metrics.IncAccountOperation("update", "rejected")
		return Profile{}, err
	}
	if err := s.save(ctx, rec); err != nil {
		metrics.IncAccountOperation("update", "error")
		return Profile{}, err
	}

	metrics.IncAccountOperation("update", "ok")
	s.logger.Info().
		Str(xglog.FieldEvent, "account.updated").
		Str(xglog.FieldUsername, username).
		Msg("profile updated")
	return rec.profile(), nil
}

// ResetPassword sets a new password for username without the old one.
func (s *Service) ResetPassword(ctx context.Context, username, newPassword string) error {
	username = strings.TrimSpace(username)
	if username == "" || newPassword == "" {
		metrics.IncAccountOperation("reset", "rejected")
		return ErrMissingFields
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	cur, ok, err := s.load(ctx)
	if err != nil {
		metrics.IncAccountOperation("reset", "error")
		return err
	}
	if !ok {
		metrics.IncAccountOperation("reset", "rejected")
		return ErrNoAccount
	}
	if cur.Username != username {
		metrics.IncAccountOperation("reset", "rejected")
		return ErrUnknownUser
	}

	rec, err := s.newRecord(username, newPassword)
	if err != nil {
		metrics.IncAccountOperation("reset", "rejected")
		return err
	}
	if err := s.save(ctx, rec); err != nil {
		metrics.IncAccountOperation("reset", "error")
		return err
	}

	metrics.IncAccountOperation("reset", "ok")
	s.logger.Info().
		Str(xglog.FieldEvent, "account.password_reset").
		Str(xglog.FieldUsername, username).
		Msg("password reset")
	return nil
}

func (s *Service) newRecord(username, password string) (record, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		if errors.Is(err, bcrypt.ErrPasswordTooLong) {
			return record{}, ErrPasswordTooLong
		}
		return record{}, fmt.Errorf("account: hash password: %w", err)
	}
	return record{Username: username, PasswordHash: string(hash), UpdatedAt: s.now().UTC()}, nil
}

func (s *Service) checkPassword(rec record, password string) bool {
	if rec.PasswordHash != "" {
		return bcrypt.CompareHashAndPassword([]byte(rec.PasswordHash), []byte(password)) == nil
	}
	return rec.LegacyPassword != "" &&
		subtle.ConstantTimeCompare([]byte(rec.LegacyPassword), []byte(password)) == 1
}

func (s *Service) load(ctx context.Context) (record, bool, error) {
	raw, ok, err := s.store.Get(ctx, s.key)
	if err != nil {
		return record{}, false, fmt.Errorf("%w: %v", ErrStorage, err)
	}
	if !ok {
		return record{}, false, nil
	}
	var rec record
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return record{}, false, fmt.Errorf("%w: %v", ErrCorruptAccount, err)
	}
	if rec.Username == "" || (rec.PasswordHash == "" && rec.LegacyPassword == "") {
		return record{}, false, fmt.Errorf("%w: missing fields", ErrCorruptAccount)
	}
	return rec, true, nil
}

func (s *Service) save(ctx context.Context, rec record) error {
	buf, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("account: encode: %w", err)
	}
	if err := s.store.Set(ctx, s.key, string(buf)); err != nil {
		s.logger.Error().Err(err).
			Str(xglog.FieldEvent, "account.save_failed").
			Msg("failed to store credentials")
		return fmt.Errorf("%w: %v", ErrStorage, err)
	}
	return nil
}
