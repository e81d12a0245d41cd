// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/poiesic/ragbase/core"
	"github.com/poiesic/ragbase/storage"
)

// DefaultCap is the default maximum number of turns kept per session.
const DefaultCap = 100

// ErrInvalidCap is returned when the turn cap is not positive.
var ErrInvalidCap = errors.New("turn cap must be positive")

// Store holds every session of the process. It is safe for concurrent use.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	limit      int
	repository storage.SessionRepository
	logger     *slog.Logger
}

// Option configures a Store.
type Option func(*Store) error

// WithCap sets the maximum number of turns kept per session.
// Default is DefaultCap.
func WithCap(limit int) Option {
	return func(s *Store) error {
		if limit < 1 {
			return fmt.Errorf("%w: %d", ErrInvalidCap, limit)
		}
		s.limit = limit
		return nil
	}
}

// WithRepository persists sessions to repository on Flush and Close.
func WithRepository(repository storage.SessionRepository) Option {
	return func(s *Store) error {
		s.repository = repository
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Store) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewStore creates an empty store.
func NewStore(opts ...Option) (*Store, error) {
	s := &Store{
		sessions: make(map[string]*Session),
		limit:    DefaultCap,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "history")
	return s, nil
}

// Cap returns the per-session turn cap.
func (s *Store) Cap() int {
	return s.limit
}

// GetOrCreate returns the session for id, creating it on first reference.
func (s *Store) GetOrCreate(id string) *Session {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if ok {
		return session
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[id]; ok {
		return session
	}
	session = newSession(id, s.limit)
	s.sessions[id] = session
	return session
}

// Append adds turns to the session for id, creating it if needed.
func (s *Store) Append(id string, turns ...core.Turn) error {
	return s.GetOrCreate(id).Append(turns...)
}

// Turns returns a copy of the turns of id, or nil if the session doesn't exist.
func (s *Store) Turns(id string) []core.Turn {
	s.mu.RLock()
	session, ok := s.sessions[id]
	s.mu.RUnlock()
	if !ok {
		return nil
	}
	return session.Turns()
}

// IDs returns the ids of every session in sorted order.
func (s *Store) IDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Sorted(maps.Keys(s.sessions))
}

// Delete forgets a session, including its persisted copy.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	delete(s.sessions, id)
	repository := s.repository
	s.mu.Unlock()

	if repository == nil {
		return nil
	}
	return repository.DeleteSession(ctx, id)
}

// Load restores the persisted sessions. Sessions already in memory are
// replaced. Load is a no-op without a repository.
func (s *Store) Load(ctx context.Context) error {
	s.mu.RLock()
	repository := s.repository
	s.mu.RUnlock()
	if repository == nil {
		return nil
	}

	persisted, err := repository.LoadSessions(ctx)
	if err != nil {
		return err
	}
	for id, turns := range persisted {
		s.GetOrCreate(id).replace(turns)
	}
	s.logger.Info("restored sessions", "sessions", len(persisted))
	return nil
}

// Flush persists every session changed since the last flush.
// Flush is a no-op without a repository.
func (s *Store) Flush(ctx context.Context) error {
	s.mu.RLock()
	repository := s.repository
	sessions := slices.Collect(maps.Values(s.sessions))
	s.mu.RUnlock()
	if repository == nil {
		return nil
	}

	var errs []error
	saved := 0
	for _, session := range sessions {
		turns, changed := session.snapshot()
		if !changed {
			continue
		}
		if err := repository.SaveSession(ctx, session.id, turns); err != nil {
			session.markDirty()
			errs = append(errs, fmt.Errorf("session %q: %w", session.id, err))
			continue
		}
		saved++
	}

	if saved > 0 {
		s.logger.Debug("flushed sessions", "sessions", saved)
	}
	return errors.Join(errs...)
}

// Close flushes the store and detaches it from its repository. The store
// keeps working in memory afterwards.
func (s *Store) Close(ctx context.Context) error {
	err := s.Flush(ctx)
	s.mu.Lock()
	s.repository = nil
	s.mu.Unlock()
	return err
}
