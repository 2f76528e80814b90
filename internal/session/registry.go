// Package session keeps one store per client session. A session's store
// is created on first use and lives until it is destroyed, swept for
// idleness, or the registry is closed. Callers that use a store across
// blocking calls hold it with Acquire so none of those close it mid-use.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/leapstack-labs/sqlscope/pkg/adapter"
)

// ErrNotFound is returned for a session id with no live store.
var ErrNotFound = errors.New("session not found")

// ErrClosed is returned by GetOrCreate after Close.
var ErrClosed = errors.New("session registry closed")

// Factory opens a fresh store for a new session.
type Factory func(ctx context.Context) (adapter.Adapter, error)

// Session is one client's store.
type Session struct {
	ID        string
	Store     adapter.Adapter
	CreatedAt time.Time

	lastUsed time.Time
	leases   int
	// removed is set when the session left the registry while leased; the
	// last release closes the store.
	removed bool
}

// Registry maps session ids to stores.
type Registry struct {
	mu       sync.Mutex
	factory  Factory
	logger   *slog.Logger
	sessions map[string]*Session
	closed   bool
	now      func() time.Time
}

// NewRegistry creates a registry that opens stores with factory.
func NewRegistry(factory Factory, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Registry{
		factory:  factory,
		logger:   logger,
		sessions: make(map[string]*Session),
		now:      time.Now,
	}
}

// AdapterFactory returns a Factory opening cfg through the adapter registry.
func AdapterFactory(cfg adapter.Config, logger *slog.Logger) Factory {
	return func(ctx context.Context) (adapter.Adapter, error) {
		return adapter.Open(ctx, cfg, logger)
	}
}

// NewID returns a fresh random session id.
func NewID() string {
	return uuid.NewString()
}

// GetOrCreate returns the session for id, opening a store if there is
// none. An empty id gets a fresh one.
func (r *Registry) GetOrCreate(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		id = NewID()
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil, ErrClosed
	}
	if s, ok := r.sessions[id]; ok {
		s.lastUsed = r.now()
		return s, nil
	}

	store, err := r.factory(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to open store for session: %w", err)
	}
	now := r.now()
	s := &Session{ID: id, Store: store, CreatedAt: now, lastUsed: now}
	r.sessions[id] = s
	r.logger.Debug("session created", "session", id)
	return s, nil
}

// Acquire returns the session for id and marks it in use until release is
// called. With create set a missing session is opened as GetOrCreate does;
// otherwise a missing session is ErrNotFound. A leased session is never
// swept, and Destroy or Close defer closing its store to the last release.
func (r *Registry) Acquire(ctx context.Context, id string, create bool) (*Session, func(), error) {
	var (
		s   *Session
		err error
	)
	if create {
		s, err = r.GetOrCreate(ctx, id)
	} else {
		s, err = r.Get(id)
	}
	if err != nil {
		return nil, nil, err
	}

	r.mu.Lock()
	if s.removed {
		// destroyed between lookup and lease
		r.mu.Unlock()
		if create {
			return r.Acquire(ctx, id, create)
		}
		return nil, nil, ErrNotFound
	}
	s.leases++
	r.mu.Unlock()

	var once sync.Once
	return s, func() { once.Do(func() { r.release(s) }) }, nil
}

func (r *Registry) release(s *Session) {
	r.mu.Lock()
	s.leases--
	s.lastUsed = r.now()
	closeNow := s.removed && s.leases == 0
	r.mu.Unlock()

	if closeNow {
		r.closeStore(s)
	}
}

// retire takes s out of use. It reports whether the store can be closed
// now; otherwise the last release closes it. r.mu must be held.
func (r *Registry) retire(s *Session) bool {
	s.removed = true
	return s.leases == 0
}

func (r *Registry) closeStore(s *Session) {
	if err := s.Store.Close(); err != nil {
		r.logger.Warn("failed to close session store", "session", s.ID, "error", err.Error())
	}
}

// Get returns the live session for id.
func (r *Registry) Get(id string) (*Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[id]
	if !ok {
		return nil, ErrNotFound
	}
	s.lastUsed = r.now()
	return s, nil
}

// Destroy forgets the session for id and closes its store, or leaves the
// close to the last holder when the session is leased.
func (r *Registry) Destroy(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	delete(r.sessions, id)
	closeNow := ok && r.retire(s)
	r.mu.Unlock()

	if !ok {
		return ErrNotFound
	}
	r.logger.Debug("session destroyed", "session", id)
	if !closeNow {
		return nil
	}
	return s.Store.Close()
}

// Sweep destroys sessions idle for longer than maxIdle and returns how
// many were removed. Leased sessions are in use and are skipped.
func (r *Registry) Sweep(maxIdle time.Duration) int {
	cutoff := r.now().Add(-maxIdle)

	r.mu.Lock()
	var stale []*Session
	for id, s := range r.sessions {
		if s.leases == 0 && s.lastUsed.Before(cutoff) {
			r.retire(s)
			stale = append(stale, s)
			delete(r.sessions, id)
		}
	}
	r.mu.Unlock()

	for _, s := range stale {
		if err := s.Store.Close(); err != nil {
			r.logger.Warn("failed to close idle session store", "session", s.ID, "error", err.Error())
		}
	}
	if len(stale) > 0 {
		r.logger.Info("swept idle sessions", "count", len(stale))
	}
	return len(stale)
}

// Run sweeps idle sessions every interval until ctx is done.
func (r *Registry) Run(ctx context.Context, interval, maxIdle time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(maxIdle)
		}
	}
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sessions)
}

// IDs returns live session ids, sorted.
func (r *Registry) IDs() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]string, 0, len(r.sessions))
	for id := range r.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Close destroys every session. Later GetOrCreate calls fail. Stores still
// leased are closed by their last release.
func (r *Registry) Close() error {
	r.mu.Lock()
	var idle []*Session
	for _, s := range r.sessions {
		if r.retire(s) {
			idle = append(idle, s)
		}
	}
	r.sessions = make(map[string]*Session)
	r.closed = true
	r.mu.Unlock()

	var errs []error
	for _, s := range idle {
		if err := s.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.ID, err))
		}
	}
	return errors.Join(errs...)
}
