package memory

import (
	"context"
	"sync"

	"github.com/aretw0/umlpad/pkg/domain"
)

// Store implements ports.HistoryBackend in memory.
// Safe for concurrent use.
type Store struct {
	entries []domain.HistoryEntry
	present bool
	mu      sync.RWMutex
}

// NewStore creates an empty in-memory backend.
func NewStore() *Store {
	return &Store{}
}

// Load returns a copy of the stored list, or nil if nothing was stored.
func (s *Store) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !s.present {
		return nil, nil
	}
	// Copy on read so callers can't mutate the stored list.
	return append([]domain.HistoryEntry(nil), s.entries...), nil
}

// Store replaces the stored list with a copy of entries.
func (s *Store) Store(ctx context.Context, entries []domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = append([]domain.HistoryEntry(nil), entries...)
	s.present = true
	return nil
}

// Remove drops the stored list.
func (s *Store) Remove(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = nil
	s.present = false
	return nil
}
