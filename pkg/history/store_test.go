package history_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/umlpad/internal/testutils"
	"github.com/aretw0/umlpad/pkg/adapters/memory"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/history"
	"github.com/aretw0/umlpad/pkg/ports"
)

func newStore(opts ...history.Option) (*history.Store, *memory.Store) {
	backend := memory.NewStore()
	opts = append([]history.Option{history.WithClock(testutils.NewFakeClock())}, opts...)
	return history.New(backend, opts...), backend
}

func TestStore_Save(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore()

	entry, err := store.Save(ctx, "@startuml\ntitle Login Flow\nA -> B\n@enduml", "")
	require.NoError(t, err)
	assert.Equal(t, "Login Flow", entry.Title)
	assert.Equal(t, "title Login Flow\nA -> B", entry.Preview)
	assert.Equal(t, testutils.NewFakeClock().Now(), entry.CreatedAt)

	id, err := uuid.Parse(entry.ID)
	require.NoError(t, err)
	assert.Equal(t, uuid.Version(7), id.Version())

	stored, err := backend.Load(ctx)
	require.NoError(t, err)
	require.Len(t, stored, 1, "written through before Save returns")
	assert.Equal(t, entry.ID, stored[0].ID)
}

func TestStore_SaveCustomTitle(t *testing.T) {
	store, _ := newStore()
	entry, err := store.Save(context.Background(), "title Ignored\nA -> B", "  Mine  ")
	require.NoError(t, err)
	assert.Equal(t, "Mine", entry.Title)
}

func TestStore_SaveBlank(t *testing.T) {
	ctx := context.Background()
	store, backend := newStore()

	_, err := store.Save(ctx, " \n\t", "title")
	assert.ErrorIs(t, err, domain.ErrEmptySource)

	stored, err := backend.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, stored, "no write for blank source")
}

func TestStore_NewestFirstAndEviction(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()

	var first domain.HistoryEntry
	for i := 0; i <= domain.MaxHistoryItems; i++ {
		e, err := store.Save(ctx, fmt.Sprintf("A -> B: %d", i), "")
		require.NoError(t, err)
		if i == 0 {
			first = e
		}
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, domain.MaxHistoryItems)
	assert.Equal(t, fmt.Sprintf("A -> B: %d", domain.MaxHistoryItems), entries[0].Source)
	assert.Equal(t, "A -> B: 1", entries[len(entries)-1].Source)

	_, err = store.Get(ctx, first.ID)
	assert.ErrorIs(t, err, domain.ErrEntryNotFound, "oldest entry evicted")
}

func TestStore_WithLimit(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore(history.WithLimit(2))
	for _, src := range []string{"a", "b", "c"} {
		_, err := store.Save(ctx, src, "")
		require.NoError(t, err)
	}

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "c", entries[0].Source)
	assert.Equal(t, "b", entries[1].Source)
}

func TestStore_GetDeleteClear(t *testing.T) {
	ctx := context.Background()
	store, _ := newStore()

	a, err := store.Save(ctx, "A", "a")
	require.NoError(t, err)
	b, err := store.Save(ctx, "B", "b")
	require.NoError(t, err)

	got, err := store.Get(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, "A", got.Source)

	require.NoError(t, store.Delete(ctx, a.ID))
	assert.ErrorIs(t, store.Delete(ctx, a.ID), domain.ErrEntryNotFound)

	entries, err := store.List(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, b.ID, entries[0].ID)

	require.NoError(t, store.Clear(ctx))
	entries, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

// memBackend aliases memory.Store so embedding it does not shadow the Store method.
type memBackend = memory.Store

type corruptBackend struct{ memBackend }

func (*corruptBackend) Load(context.Context) ([]domain.HistoryEntry, error) {
	return nil, fmt.Errorf("%w: bad json", domain.ErrCorruptHistory)
}

func TestStore_CorruptDataIsEmpty(t *testing.T) {
	ctx := context.Background()
	store := history.New(&corruptBackend{})

	entries, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	e, err := store.Save(ctx, "A -> B", "")
	require.NoError(t, err, "a corrupt list is replaced on the next save")
	assert.NotEmpty(t, e.ID)
}

type failingBackend struct{ memBackend }

var errDisk = errors.New("disk full")

func (*failingBackend) Store(context.Context, []domain.HistoryEntry) error { return errDisk }

func TestStore_BackendErrors(t *testing.T) {
	store := history.New(&failingBackend{})
	_, err := store.Save(context.Background(), "A -> B", "")
	assert.ErrorIs(t, err, errDisk)
}

type mockLocker struct{ mock.Mock }

func (m *mockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (ports.UnlockFunc, error) {
	args := m.Called(key)
	if fn := args.Get(0); fn != nil {
		return fn.(ports.UnlockFunc), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestStore_Locker(t *testing.T) {
	ctx := context.Background()

	t.Run("Mutations Take The Lock", func(t *testing.T) {
		released := 0
		locker := &mockLocker{}
		locker.On("Lock", "history").Return(ports.UnlockFunc(func(context.Context) error {
			released++
			return nil
		}), nil)

		store, _ := newStore(history.WithLocker(locker))
		e, err := store.Save(ctx, "A", "")
		require.NoError(t, err)
		require.NoError(t, store.Delete(ctx, e.ID))
		require.NoError(t, store.Clear(ctx))

		locker.AssertNumberOfCalls(t, "Lock", 3)
		assert.Equal(t, 3, released)
	})

	t.Run("Lock Failure Aborts", func(t *testing.T) {
		locker := &mockLocker{}
		locker.On("Lock", "history").Return(nil, context.DeadlineExceeded)

		store, backend := newStore(history.WithLocker(locker))
		_, err := store.Save(ctx, "A", "")
		assert.ErrorIs(t, err, context.DeadlineExceeded)

		stored, _ := backend.Load(ctx)
		assert.Nil(t, stored)
	})
}

func TestStore_Hooks(t *testing.T) {
	var ops []string
	hooks := domain.LifecycleHooks{OnHistory: func(_ context.Context, e *domain.HistoryEvent) {
		ops = append(ops, fmt.Sprintf("%s:%d", e.Op, e.Size))
	}}
	store, _ := newStore(history.WithHooks(hooks))
	ctx := context.Background()

	e, _ := store.Save(ctx, "A", "")
	_, _ = store.Save(ctx, "B", "")
	_ = store.Delete(ctx, e.ID)
	_ = store.Clear(ctx)

	assert.Equal(t, []string{"save:1", "save:2", "delete:1", "clear:0"}, ops)
}
