// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package recordings keeps the ordered registry of recorded clips and
// persists it as a single JSON document in a kv.Store.
//
// All mutations run one at a time on a dedicated writer goroutine in the
// order they were submitted. Each mutation reads the current list, applies
// its change and persists the whole list before the next one starts, so
// concurrent callers never lose each other's updates and the store never
// sees writes out of order. Readers get an immutable snapshot and never
// block on the writer.
package recordings

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/ManuGH/memorec/internal/kv"
	xglog "github.com/ManuGH/memorec/internal/log"
	"github.com/ManuGH/memorec/internal/telemetry"
)

// DefaultKey is the store key the list lives under.
const DefaultKey = "recordings"

// Operation names reported to observers, logs and spans.
const (
	OpLoad   = "load"
	OpAdd    = "add"
	OpRemove = "remove"
	OpSync   = "sync"
)

// Observer is notified after every mutation completes.
type Observer interface {
	ObserveOperation(op string, err error)
	ObserveSize(n int)
}

type noopObserver struct{}

func (noopObserver) ObserveOperation(string, error) {}
func (noopObserver) ObserveSize(int)                {}

// Option configures a Registry.
type Option func(*Registry)

// WithClock overrides the time source used for RecordedAt and default names.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithKey overrides the store key.
func WithKey(key string) Option {
	return func(r *Registry) { r.key = key }
}

// WithLogger overrides the component logger.
func WithLogger(l zerolog.Logger) Option {
	return func(r *Registry) { r.logger = l }
}

// WithObserver registers an observer for completed operations.
func WithObserver(o Observer) Option {
	return func(r *Registry) { r.observer = o }
}

type snapshot struct {
	entries []Entry
	index   map[string]int
}

func newSnapshot(entries []Entry) *snapshot {
	idx := make(map[string]int, len(entries))
	for i, e := range entries {
		idx[e.Location] = i
	}
	return &snapshot{entries: entries, index: idx}
}

type result struct {
	entry Entry
	err   error
}

type op struct {
	name string
	ctx  context.Context
	run  func(ctx context.Context) (Entry, error)
	done chan result
}

// Registry is the in-memory list of recordings backed by a kv.Store.
// Create it with NewRegistry and release it with Close.
type Registry struct {
	store    kv.Store
	key      string
	now      func() time.Time
	logger   zerolog.Logger
	observer Observer
	tracer   trace.Tracer

	snap  atomic.Pointer[snapshot]
	dirty atomic.Bool

	mu     sync.RWMutex // guards closed and sends on ops
	closed bool
	ops    chan op
	done   chan struct{}
}

// NewRegistry starts a registry over store. The list is empty until Load.
func NewRegistry(store kv.Store, opts ...Option) *Registry {
	r := &Registry{
		store:    store,
		key:      DefaultKey,
		now:      time.Now,
		logger:   xglog.WithComponent("recordings"),
		observer: noopObserver{},
		tracer:   telemetry.Tracer("github.com/ManuGH/memorec/internal/recordings"),
		ops:      make(chan op),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.snap.Store(newSnapshot(nil))
	go r.loop()
	return r
}

func (r *Registry) loop() {
	defer close(r.done)
	for o := range r.ops {
		entry, err := o.run(o.ctx)
		r.observer.ObserveOperation(o.name, err)
		r.observer.ObserveSize(len(r.snap.Load().entries))
		o.done <- result{entry: entry, err: err}
	}
}

// submit queues fn on the writer goroutine and waits for it. A caller whose
// context ends while still queued gets ctx.Err() and fn never runs; once fn
// has started it runs to completion.
func (r *Registry) submit(ctx context.Context, name string, fn func(ctx context.Context) (Entry, error)) (Entry, error) {
	ctx, span := r.tracer.Start(ctx, "recordings."+name,
		trace.WithAttributes(telemetry.RegistryAttributes(name, r.key)...))
	defer span.End()

	o := op{name: name, ctx: ctx, run: fn, done: make(chan result, 1)}

	r.mu.RLock()
	if r.closed {
		r.mu.RUnlock()
		return Entry{}, ErrClosed
	}
	select {
	case r.ops <- o:
	case <-ctx.Done():
		r.mu.RUnlock()
		return Entry{}, ctx.Err()
	}
	r.mu.RUnlock()

	res := <-o.done
	if res.err != nil {
		span.RecordError(res.err)
		span.SetStatus(codes.Error, errorClass(res.err))
		span.SetAttributes(telemetry.ErrorAttributes(errorClass(res.err))...)
	} else {
		span.SetAttributes(telemetry.RecordingAttributes(res.entry.Location, r.Len())...)
	}
	return res.entry, res.err
}

// persist writes entries to the store. The write is detached from caller
// cancellation once the mutation has started.
func (r *Registry) persist(ctx context.Context, entries []Entry) error {
	payload, err := encodeEntries(entries)
	if err != nil {
		return err
	}
	return r.store.Set(context.WithoutCancel(ctx), r.key, payload)
}

// commit publishes next and persists it. On a write failure the new list
// stays published and the registry is marked dirty.
func (r *Registry) commit(ctx context.Context, opName string, next *snapshot) error {
	r.snap.Store(next)
	if err := r.persist(ctx, next.entries); err != nil {
		r.dirty.Store(true)
		r.logger.Error().Err(err).
			Str(xglog.FieldEvent, "recordings.persist_failed").
			Str(xglog.FieldOperation, opName).
			Int(xglog.FieldCount, len(next.entries)).
			Msg("recordings changed in memory but could not be saved")
		return &PersistenceError{Op: opName, Mutated: true, Err: err}
	}
	r.dirty.Store(false)
	return nil
}

// Load replaces the in-memory list with the persisted one. An absent key
// yields an empty list. An undecodable payload also yields an empty list and
// returns an error matching ErrCorruptData; the payload is left in the store
// until the next successful mutation overwrites it.
func (r *Registry) Load(ctx context.Context) error {
	_, err := r.submit(ctx, OpLoad, func(ctx context.Context) (Entry, error) {
		raw, ok, err := r.store.Get(context.WithoutCancel(ctx), r.key)
		if err != nil {
			r.logger.Error().Err(err).
				Str(xglog.FieldEvent, "recordings.load_failed").
				Str(xglog.FieldKey, r.key).
				Msg("failed to read recordings")
			return Entry{}, &PersistenceError{Op: OpLoad, Err: err}
		}
		if !ok {
			r.snap.Store(newSnapshot(nil))
			r.dirty.Store(false)
			r.logger.Debug().Str(xglog.FieldEvent, "recordings.load_empty").Msg("no persisted recordings")
			return Entry{}, nil
		}

		entries, dropped, err := decodeEntries(raw)
		if err != nil {
			r.snap.Store(newSnapshot(nil))
			r.dirty.Store(false)
			r.logger.Warn().Err(err).
				Str(xglog.FieldEvent, "recordings.load_corrupt").
				Str(xglog.FieldKey, r.key).
				Msg("persisted recordings are unreadable, starting empty")
			return Entry{}, &CorruptDataError{Key: r.key, Err: err}
		}
		for _, loc := range dropped {
			r.logger.Warn().
				Str(xglog.FieldEvent, "recordings.load_duplicate").
				Str(xglog.FieldLocation, loc).
				Msg("dropping duplicate persisted location")
		}

		r.snap.Store(newSnapshot(entries))
		r.dirty.Store(len(dropped) > 0)
		r.logger.Info().
			Str(xglog.FieldEvent, "recordings.loaded").
			Int(xglog.FieldCount, len(entries)).
			Msg("recordings loaded")
		return Entry{}, nil
	})
	return err
}

// Add appends a new entry for intent. RecordedAt is the registry clock;
// a blank name becomes DefaultName. When the write fails the entry is still
// returned together with a *PersistenceError.
func (r *Registry) Add(ctx context.Context, intent Intent) (Entry, error) {
	return r.submit(ctx, OpAdd, func(ctx context.Context) (Entry, error) {
		if intent.Location == "" {
			return Entry{}, ErrInvalidLocation
		}
		cur := r.snap.Load()
		if _, exists := cur.index[intent.Location]; exists {
			return Entry{}, &DuplicateLocationError{Location: intent.Location}
		}

		now := r.now()
		entry := Entry{
			Location:   intent.Location,
			Name:       resolveName(intent.Name, now),
			RecordedAt: now.UTC(),
		}

		entries := make([]Entry, len(cur.entries), len(cur.entries)+1)
		copy(entries, cur.entries)
		entries = append(entries, entry)

		err := r.commit(ctx, OpAdd, newSnapshot(entries))
		r.logger.Info().
			Str(xglog.FieldEvent, "recordings.added").
			Str(xglog.FieldLocation, entry.Location).
			Str(xglog.FieldName, entry.Name).
			Bool("persisted", err == nil).
			Msg("recording added")
		return entry, err
	})
}

// Remove deletes the entry with location and returns it.
func (r *Registry) Remove(ctx context.Context, location string) (Entry, error) {
	return r.submit(ctx, OpRemove, func(ctx context.Context) (Entry, error) {
		cur := r.snap.Load()
		i, ok := cur.index[location]
		if !ok {
			return Entry{}, &NotFoundError{Location: location}
		}
		removed := cur.entries[i]

		entries := make([]Entry, 0, len(cur.entries)-1)
		entries = append(entries, cur.entries[:i]...)
		entries = append(entries, cur.entries[i+1:]...)

		err := r.commit(ctx, OpRemove, newSnapshot(entries))
		r.logger.Info().
			Str(xglog.FieldEvent, "recordings.removed").
			Str(xglog.FieldLocation, removed.Location).
			Bool("persisted", err == nil).
			Msg("recording removed")
		return removed, err
	})
}

// Sync writes the current list to the store. It is how callers retry after
// a *PersistenceError.
func (r *Registry) Sync(ctx context.Context) error {
	_, err := r.submit(ctx, OpSync, func(ctx context.Context) (Entry, error) {
		return Entry{}, r.commit(ctx, OpSync, r.snap.Load())
	})
	return err
}

// List returns a copy of all entries in insertion order.
func (r *Registry) List() []Entry {
	cur := r.snap.Load().entries
	out := make([]Entry, len(cur))
	copy(out, cur)
	return out
}

// Search returns the entries whose name contains query, ignoring case, in
// insertion order. A blank query returns List().
func (r *Registry) Search(query string) []Entry {
	if strings.TrimSpace(query) == "" {
		return r.List()
	}
	q := strings.ToLower(query)

	out := []Entry{}
	for _, e := range r.snap.Load().entries {
		if e.matches(q) {
			out = append(out, e)
		}
	}
	return out
}

// Lookup returns the entry with location.
func (r *Registry) Lookup(location string) (Entry, bool) {
	cur := r.snap.Load()
	i, ok := cur.index[location]
	if !ok {
		return Entry{}, false
	}
	return cur.entries[i], true
}

// Len is the number of entries.
func (r *Registry) Len() int { return len(r.snap.Load().entries) }

// Dirty reports whether the in-memory list differs from what was last persisted.
func (r *Registry) Dirty() bool { return r.dirty.Load() }

// Close waits for queued mutations to finish and stops the writer. Later
// mutations return ErrClosed; reads keep serving the last snapshot. The
// store is not closed.
func (r *Registry) Close() error {
	r.mu.Lock()
	if r.closed {
		r.mu.Unlock()
		return nil
	}
	r.closed = true
	close(r.ops)
	r.mu.Unlock()

	<-r.done
	return nil
}

func errorClass(err error) string {
	switch {
	case errors.Is(err, ErrCorruptData):
		return "corrupt"
	case errors.Is(err, ErrDuplicateLocation):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInvalidLocation):
		return "invalid"
	case errors.Is(err, ErrPersistence):
		return "persistence"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	default:
		return "error"
	}
}

// ErrorClass maps a registry error to the short label used in metrics.
func ErrorClass(err error) string {
	if err == nil {
		return "ok"
	}
	return errorClass(err)
}
