package file_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/aretw0/umlpad/internal/adapters/file"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var _ ports.HistoryBackend = (*file.Store)(nil)

func TestFileStore_Contract(t *testing.T) {
	store := file.New(filepath.Join(t.TempDir(), "nested", "history.json"))
	ports.RunHistoryBackendContract(t, store)
}

func TestFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, file.DefaultPath, file.New("").Path)
}

func TestFileStore_EmptyAndCorrupt(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "history.json")
	store := file.New(path)

	require.NoError(t, os.WriteFile(path, []byte("  \n"), 0644))
	entries, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries)

	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))
	_, err = store.Load(ctx)
	assert.ErrorIs(t, err, domain.ErrCorruptHistory)
}

func TestFileStore_NoTempFilesLeft(t *testing.T) {
	dir := t.TempDir()
	store := file.New(filepath.Join(dir, "history.json"))

	for i := 0; i < 3; i++ {
		require.NoError(t, store.Store(context.Background(), []domain.HistoryEntry{{ID: "a", Source: "x"}}))
	}

	files, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "history.json", files[0].Name())
}
