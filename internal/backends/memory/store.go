// Package memory is an in-process SnapshotStore for tests and single-process hosts.
package memory

import (
	"context"
	"sync"

	"hookstate/internal/codec"
)

// Store keeps deep copies of saved snapshots so callers can never mutate stored state.
type Store struct {
	mu      sync.RWMutex
	records map[string]map[string]any
	saves   int
}

func NewStore() *Store {
	return &Store{records: map[string]map[string]any{}}
}

func (s *Store) Load(_ context.Context, key string) (map[string]any, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rec, ok := s.records[key]
	if !ok {
		return nil, false, nil
	}
	return codec.Clone(rec).(map[string]any), true, nil
}

func (s *Store) Save(_ context.Context, key string, snapshot map[string]any) error {
	if snapshot == nil {
		snapshot = map[string]any{}
	}
	s.mu.Lock()
	s.records[key] = codec.Clone(snapshot).(map[string]any)
	s.saves++
	s.mu.Unlock()
	return nil
}

func (s *Store) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

// Saves returns how many times Save was called.
func (s *Store) Saves() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.saves
}
