package history

import (
	"slices"
	"sync"

	"github.com/poiesic/ragbase/core"
)

// Session is the ordered turn history of one conversation.
// It is safe for concurrent use.
type Session struct {
	id    string
	limit int

	mu    sync.Mutex
	turns []core.Turn
	dirty bool
}

func newSession(id string, limit int) *Session {
	return &Session{id: id, limit: limit}
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// Turns returns a copy of the turns, oldest first.
func (s *Session) Turns() []core.Turn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.turns)
}

// Len returns the number of turns held.
func (s *Session) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.turns)
}

// Append adds turns atomically. Only the newest cap turns are kept.
// Nothing is appended if any turn is invalid.
func (s *Session) Append(turns ...core.Turn) error {
	for _, turn := range turns {
		if err := core.ValidateTurn(turn); err != nil {
			return err
		}
	}
	if len(turns) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = append(s.turns, turns...)
	s.trim()
	s.dirty = true
	return nil
}

// replace sets the turns without marking the session dirty.
func (s *Session) replace(turns []core.Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns = slices.Clone(turns)
	s.trim()
	s.dirty = false
}

func (s *Session) trim() {
	if over := len(s.turns) - s.limit; over > 0 {
		// Copy so evicted turns don't pin the old backing array.
		s.turns = slices.Clone(s.turns[over:])
	}
}

// snapshot returns the turns if they changed since the last snapshot.
func (s *Session) snapshot() ([]core.Turn, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.dirty {
		return nil, false
	}
	s.dirty = false
	return slices.Clone(s.turns), true
}

func (s *Session) markDirty() {
	s.mu.Lock()
	s.dirty = true
	s.mu.Unlock()
}
