package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aretw0/umlpad/pkg/domain"
	backend "github.com/redis/go-redis/v9"
)

// DefaultKey holds the JSON-encoded history list.
const DefaultKey = "umlpad:history"

// Store implements ports.HistoryBackend using a single Redis string key.
type Store struct {
	client *backend.Client
	key    string
}

type Option func(*Store)

// WithKey sets the key the history list is stored under.
func WithKey(key string) Option {
	return func(s *Store) {
		if key != "" {
			s.key = key
		}
	}
}

// New creates a new Redis store with options.
func New(address, password string, db int, opts ...Option) *Store {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis store from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Store {
	store := &Store{
		client: client,
		key:    DefaultKey,
	}
	for _, opt := range opts {
		opt(store)
	}
	return store
}

// Client exposes the underlying client, e.g. to build a Locker on it.
func (s *Store) Client() *backend.Client {
	return s.client
}

// Load retrieves the history list.
func (s *Store) Load(ctx context.Context) ([]domain.HistoryEntry, error) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, backend.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	if len(val) == 0 {
		return nil, nil
	}

	var entries []domain.HistoryEntry
	if err := json.Unmarshal(val, &entries); err != nil {
		return nil, fmt.Errorf("%w: key %s: %v", domain.ErrCorruptHistory, s.key, err)
	}
	return entries, nil
}

// Store replaces the history list.
func (s *Store) Store(ctx context.Context, entries []domain.HistoryEntry) error {
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("failed to save to redis: %w", err)
	}
	return nil
}

// Remove deletes the history key.
func (s *Store) Remove(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("failed to delete from redis: %w", err)
	}
	return nil
}

// Close closes the redis client.
func (s *Store) Close() error {
	return s.client.Close()
}
