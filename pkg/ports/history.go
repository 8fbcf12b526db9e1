package ports

import (
	"context"

	"github.com/aretw0/umlpad/pkg/domain"
)

// HistoryBackend persists the ordered (newest-first) list of history entries.
// The whole list is read and written at once.
type HistoryBackend interface {
	// Load returns the stored entries. An absent list yields (nil, nil).
	// Undecodable data yields an error wrapping domain.ErrCorruptHistory.
	Load(ctx context.Context) ([]domain.HistoryEntry, error)

	// Store replaces the stored list.
	Store(ctx context.Context, entries []domain.HistoryEntry) error

	// Remove deletes the stored list entirely.
	Remove(ctx context.Context) error
}
