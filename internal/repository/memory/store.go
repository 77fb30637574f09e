// Package memory provides an in-memory StateStore for demo deployments
// and tests, where Redis is not available.
package memory

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

// Store keeps live game snapshots and timer deadlines in process memory.
// Contents are lost on restart; active games rehydrate from the turns table.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]json.RawMessage
	timers    map[string]time.Time
}

// NewStore creates an empty Store.
func NewStore() *Store {
	return &Store{
		snapshots: make(map[string]json.RawMessage),
		timers:    make(map[string]time.Time),
	}
}

// SetSnapshot stores the live engine snapshot JSON.
func (s *Store) SetSnapshot(_ context.Context, gameID string, state json.RawMessage) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := make(json.RawMessage, len(state))
	copy(cp, state)
	s.snapshots[gameID] = cp
	return nil
}

// GetSnapshot retrieves the live engine snapshot JSON, or nil if absent.
func (s *Store) GetSnapshot(_ context.Context, gameID string) (json.RawMessage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	state, ok := s.snapshots[gameID]
	if !ok {
		return nil, nil
	}
	return state, nil
}

// SetTimer records the turn deadline for a game.
func (s *Store) SetTimer(_ context.Context, gameID string, deadline time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timers[gameID] = deadline
	return nil
}

// ClearTimer removes the timer for a game.
func (s *Store) ClearTimer(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, gameID)
	return nil
}

// DeleteGame removes all stored data for a game.
func (s *Store) DeleteGame(_ context.Context, gameID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, gameID)
	delete(s.timers, gameID)
	return nil
}
