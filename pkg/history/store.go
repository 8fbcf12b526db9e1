// Package history keeps a bounded, newest-first list of saved diagram sources.
//
// Every mutation is written through to a ports.HistoryBackend before it
// returns. Stored data that cannot be decoded is treated as an empty history.
package history

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aretw0/umlpad/internal/logging"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/ports"
)

// lockKey names the distributed lock guarding the whole list.
const (
	lockKey = "history"
	lockTTL = 5 * time.Second
)

// Option configures a Store.
type Option func(*Store)

// WithClock injects the time source for timestamps and fallback titles.
func WithClock(c ports.Clock) Option {
	return func(s *Store) {
		s.clock = c
	}
}

// WithLimit overrides the maximum number of entries kept.
func WithLimit(n int) Option {
	return func(s *Store) {
		if n > 0 {
			s.limit = n
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// WithLocker serializes mutations across processes sharing the backend.
func WithLocker(l ports.DistributedLocker) Option {
	return func(s *Store) {
		s.locker = l
	}
}

// WithHooks registers hooks fired after every mutation.
func WithHooks(h domain.LifecycleHooks) Option {
	return func(s *Store) {
		s.hooks = s.hooks.Merge(h)
	}
}

// Store is the history of saved sources.
type Store struct {
	backend ports.HistoryBackend

	// mu serializes read-modify-write cycles against the backend.
	mu sync.Mutex

	locker ports.DistributedLocker
	clock  ports.Clock
	limit  int
	logger *slog.Logger
	hooks  domain.LifecycleHooks
}

// New creates a store on top of backend.
func New(backend ports.HistoryBackend, opts ...Option) *Store {
	s := &Store{
		backend: backend,
		clock:   ports.SystemClock{},
		limit:   domain.MaxHistoryItems,
		logger:  logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save prepends a new entry for source. A blank title is derived from source.
// The oldest entries beyond the limit are evicted.
func (s *Store) Save(ctx context.Context, source, title string) (domain.HistoryEntry, error) {
	if strings.TrimSpace(source) == "" {
		return domain.HistoryEntry{}, domain.ErrEmptySource
	}

	id, err := uuid.NewV7()
	if err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("generate history id: %w", err)
	}

	now := s.clock.Now()
	title = strings.TrimSpace(title)
	if title == "" {
		title = DeriveTitle(source, now)
	}
	entry := domain.HistoryEntry{
		ID:        id.String(),
		Title:     title,
		Source:    source,
		CreatedAt: now,
		Preview:   DerivePreview(source),
	}

	unlock, err := s.lock(ctx)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	defer unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	entries = append([]domain.HistoryEntry{entry}, entries...)
	if len(entries) > s.limit {
		s.logger.Debug("evicting history entries", "count", len(entries)-s.limit)
		entries = entries[:s.limit]
	}
	if err := s.backend.Store(ctx, entries); err != nil {
		return domain.HistoryEntry{}, fmt.Errorf("store history: %w", err)
	}

	s.notify(ctx, "save", entry.ID, len(entries))
	return entry, nil
}

// List returns all entries, newest first.
func (s *Store) List(ctx context.Context) ([]domain.HistoryEntry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx)
}

// Get returns the entry with the given ID.
func (s *Store) Get(ctx context.Context, id string) (domain.HistoryEntry, error) {
	entries, err := s.List(ctx)
	if err != nil {
		return domain.HistoryEntry{}, err
	}
	for _, e := range entries {
		if e.ID == id {
			return e, nil
		}
	}
	return domain.HistoryEntry{}, fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
}

// Delete removes the entry with the given ID.
func (s *Store) Delete(ctx context.Context, id string) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	entries, err := s.load(ctx)
	if err != nil {
		return err
	}

	kept := entries[:0]
	for _, e := range entries {
		if e.ID != id {
			kept = append(kept, e)
		}
	}
	if len(kept) == len(entries) {
		return fmt.Errorf("%w: %s", domain.ErrEntryNotFound, id)
	}
	if err := s.backend.Store(ctx, kept); err != nil {
		return fmt.Errorf("store history: %w", err)
	}

	s.notify(ctx, "delete", id, len(kept))
	return nil
}

// Clear removes every entry.
func (s *Store) Clear(ctx context.Context) error {
	unlock, err := s.lock(ctx)
	if err != nil {
		return err
	}
	defer unlock()

	if err := s.backend.Remove(ctx); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	s.notify(ctx, "clear", "", 0)
	return nil
}

// lock takes the in-process mutex and, when configured, the distributed lock.
func (s *Store) lock(ctx context.Context) (func(), error) {
	s.mu.Lock()
	if s.locker == nil {
		return s.mu.Unlock, nil
	}

	release, err := s.locker.Lock(ctx, lockKey, lockTTL)
	if err != nil {
		s.mu.Unlock()
		return nil, fmt.Errorf("lock history: %w", err)
	}
	return func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.logger.Warn("failed to release history lock", "error", err)
		}
		s.mu.Unlock()
	}, nil
}

func (s *Store) load(ctx context.Context) ([]domain.HistoryEntry, error) {
	entries, err := s.backend.Load(ctx)
	if errors.Is(err, domain.ErrCorruptHistory) {
		s.logger.Warn("ignoring unreadable history", "error", err)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load history: %w", err)
	}
	return entries, nil
}

func (s *Store) notify(ctx context.Context, op, id string, size int) {
	if s.hooks.OnHistory == nil {
		return
	}
	s.hooks.OnHistory(ctx, &domain.HistoryEvent{
		EventBase: domain.EventBase{Timestamp: s.clock.Now(), Type: domain.EventHistory},
		Op:        op,
		EntryID:   id,
		Size:      size,
	})
}
