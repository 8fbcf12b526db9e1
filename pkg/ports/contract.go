package ports

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// RunHistoryBackendContract runs a suite of tests to verify that a HistoryBackend
// implementation adheres to the defined interface contract.
// The backend must start empty.
func RunHistoryBackendContract(t *testing.T, backend HistoryBackend) {
	ctx := context.Background()
	created := time.Date(2025, 3, 14, 15, 9, 26, 0, time.UTC)

	entries := make([]domain.HistoryEntry, 3)
	for i := range entries {
		entries[i] = domain.HistoryEntry{
			ID:        fmt.Sprintf("entry-%d", i),
			Title:     fmt.Sprintf("Diagram %d", i),
			Source:    fmt.Sprintf("@startuml\nA -> B: %d\n@enduml", i),
			CreatedAt: created.Add(-time.Duration(i) * time.Minute),
			Preview:   fmt.Sprintf("A -> B: %d", i),
		}
	}

	t.Run("Load Empty", func(t *testing.T) {
		loaded, err := backend.Load(ctx)
		require.NoError(t, err, "Load on an empty backend should not error")
		assert.Empty(t, loaded)
	})

	t.Run("Store and Load", func(t *testing.T) {
		require.NoError(t, backend.Store(ctx, entries))

		loaded, err := backend.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, len(entries))
		for i := range entries {
			assert.Equal(t, entries[i].ID, loaded[i].ID, "order must be preserved")
			assert.Equal(t, entries[i].Title, loaded[i].Title)
			assert.Equal(t, entries[i].Source, loaded[i].Source)
			assert.Equal(t, entries[i].Preview, loaded[i].Preview)
			assert.True(t, entries[i].CreatedAt.Equal(loaded[i].CreatedAt))
		}
	})

	t.Run("Store Replaces", func(t *testing.T) {
		require.NoError(t, backend.Store(ctx, entries[:1]))

		loaded, err := backend.Load(ctx)
		require.NoError(t, err)
		require.Len(t, loaded, 1)
		assert.Equal(t, "entry-0", loaded[0].ID)
	})

	t.Run("Loaded Slice Is Isolated", func(t *testing.T) {
		require.NoError(t, backend.Store(ctx, entries))

		loaded, err := backend.Load(ctx)
		require.NoError(t, err)
		loaded[0].Title = "mutated"

		again, err := backend.Load(ctx)
		require.NoError(t, err)
		assert.Equal(t, "Diagram 0", again[0].Title)
	})

	t.Run("Remove", func(t *testing.T) {
		require.NoError(t, backend.Remove(ctx))

		loaded, err := backend.Load(ctx)
		require.NoError(t, err)
		assert.Empty(t, loaded)

		assert.NoError(t, backend.Remove(ctx), "Remove on an empty backend should not error")
	})
}
