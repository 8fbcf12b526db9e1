package redis_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/aretw0/umlpad/internal/adapters/redis"
	"github.com/aretw0/umlpad/pkg/domain"
	"github.com/aretw0/umlpad/pkg/ports"
	backend "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newClient(t *testing.T) (*miniredis.Miniredis, *backend.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := backend.NewClient(&backend.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return mr, client
}

func TestRedisStore_Contract(t *testing.T) {
	_, client := newClient(t)
	ports.RunHistoryBackendContract(t, redis.NewFromClient(client))
}

func TestRedisStore_Key(t *testing.T) {
	mr, client := newClient(t)
	store := redis.NewFromClient(client, redis.WithKey("team:history"))

	require.NoError(t, store.Store(context.Background(), []domain.HistoryEntry{{ID: "1", Source: "A -> B"}}))
	assert.True(t, mr.Exists("team:history"))
	assert.False(t, mr.Exists(redis.DefaultKey))
}

func TestRedisStore_Corrupt(t *testing.T) {
	mr, client := newClient(t)
	require.NoError(t, mr.Set(redis.DefaultKey, "[{broken"))

	_, err := redis.NewFromClient(client).Load(context.Background())
	assert.ErrorIs(t, err, domain.ErrCorruptHistory)
}
