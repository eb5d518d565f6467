package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/FotoFacturas/revamp-sub000/internal/kv"
)

// Store is the single source of truth for the current session. Mutations go
// through Save, SaveUser and Logout only; each one is flushed to durable
// storage before it returns.
type Store struct {
	kv              kv.Store
	key             string
	logger          *slog.Logger
	onAuthenticated func(context.Context, Session)

	mu      sync.RWMutex
	current Session
	// mutated is set by the first commit; Restore then leaves current alone.
	mutated bool

	restoreOnce sync.Once
	ready       chan struct{}
}

// Option customises a Store.
type Option func(*Store)

// WithLogger sets the logger used for persistence failures.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithOnAuthenticated registers the hook run after SaveUser, used to start
// whatever depends on a signed-in user without this package knowing about it.
func WithOnAuthenticated(fn func(context.Context, Session)) Option {
	return func(s *Store) { s.onAuthenticated = fn }
}

// New builds a Store persisting under key. The in-memory session is the
// default session until Restore completes.
func New(store kv.Store, key string, opts ...Option) *Store {
	s := &Store{
		kv:      store,
		key:     key,
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		current: Default(),
		ready:   make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Restore loads the persisted session, replacing the in-memory one. It runs
// at most once per Store; later calls return the current session. A missing
// or unreadable record restores the default session. A session written
// before Restore ran is newer than the stored record and is kept.
func (s *Store) Restore(ctx context.Context) Session {
	s.restoreOnce.Do(func() {
		restored := s.load(ctx)

		s.mu.Lock()
		if s.mutated {
			s.logger.Debug("session changed before restore, keeping it", "key", s.key)
		} else {
			s.current = restored
		}
		s.mu.Unlock()

		close(s.ready)
	})
	return s.Current()
}

// Ready is closed once Restore has finished.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

// Current returns a copy of the in-memory session.
func (s *Store) Current() Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.clone()
}

// Save replaces the session wholesale and persists it. The logged-in flag is
// owned by SaveUser and Logout, so Save keeps the current value. Persistence
// failures are logged and the in-memory value is kept.
func (s *Store) Save(ctx context.Context, next Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	next = next.clone()
	next.LoggedIn = s.current.LoggedIn
	s.commit(ctx, next)
}

// SaveUser merges the known profile fields and token into the session, marks
// it logged in, persists it and runs the on-authenticated hook.
func (s *Store) SaveUser(ctx context.Context, profile Profile, token string) Session {
	s.mu.Lock()
	next := s.current.merge(profile)
	next.Token = ptr(token)
	next.LoggedIn = true
	s.commit(ctx, next)
	saved := next.clone()
	s.mu.Unlock()

	if s.onAuthenticated != nil {
		s.onAuthenticated(ctx, saved.clone())
	}
	return saved
}

// Logout resets to the default session, keeping only the email so the login
// screen can be pre-filled.
func (s *Store) Logout(ctx context.Context) Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	next := Default()
	if s.current.Email != nil {
		next.Email = ptr(*s.current.Email)
	}
	s.commit(ctx, next)
	return next.clone()
}

// commit must be called with mu held.
func (s *Store) commit(ctx context.Context, next Session) {
	s.current = next
	s.mutated = true

	payload, err := json.Marshal(next)
	if err != nil {
		s.logger.Warn("encode session", "error", err)
		return
	}
	if err := s.kv.Set(ctx, s.key, string(payload)); err != nil {
		s.logger.Warn("persist session", "key", s.key, "error", err)
	}
}

func (s *Store) load(ctx context.Context) Session {
	raw, err := s.kv.Get(ctx, s.key)
	if err != nil {
		if !errors.Is(err, kv.ErrNotFound) {
			s.logger.Warn("read persisted session", "key", s.key, "error", err)
		}
		return Default()
	}

	restored := Default()
	if err := json.Unmarshal([]byte(raw), &restored); err != nil {
		s.logger.Warn("decode persisted session", "key", s.key, "error", err)
		return Default()
	}
	return restored
}
