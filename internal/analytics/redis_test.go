package analytics

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisStoreWithClient(client)
}

func TestRedisStore_LoadAbsent(t *testing.T) {
	store := newTestRedisStore(t)

	loaded, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, loaded)
}

func TestRedisStore_RoundTrip(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	agg := NewAggregate()
	agg.TotalDownloads = 7
	agg.PlatformStats["TikTok"] = 4
	agg.ErrorStats["Facebook"] = 2

	require.NoError(t, store.Save(ctx, agg))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, 7, loaded.TotalDownloads)
	assert.Equal(t, 4, loaded.PlatformStats["TikTok"])
	assert.Equal(t, 2, loaded.ErrorStats["Facebook"])
}

func TestRedisStore_SaveOverwrites(t *testing.T) {
	store := newTestRedisStore(t)
	ctx := context.Background()

	agg := NewAggregate()
	agg.TotalDownloads = 1
	require.NoError(t, store.Save(ctx, agg))

	agg.TotalDownloads = 2
	require.NoError(t, store.Save(ctx, agg))

	loaded, err := store.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, loaded.TotalDownloads)
}
