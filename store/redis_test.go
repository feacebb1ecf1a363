package store

import (
	"context"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/core"
)

// 需要真实 Redis：BOOKREC_REDIS_ADDR=127.0.0.1:6379 go test ./store/
func newTestRedis(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("BOOKREC_REDIS_ADDR")
	if addr == "" {
		t.Skip("BOOKREC_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(context.Background(), addr, "", 15)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRedisStore(t *testing.T) {
	s := newTestRedis(t)
	ctx := context.Background()
	key, zkey := "bookrec:test:kv", "bookrec:test:popular"
	t.Cleanup(func() {
		_ = s.Delete(ctx, key)
		_ = s.Delete(ctx, zkey)
	})

	require.NoError(t, s.Set(ctx, key, []byte("v"), 60))
	v, err := s.Get(ctx, key)
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)

	require.NoError(t, s.Delete(ctx, key))
	_, err = s.Get(ctx, key)
	assert.True(t, core.IsStoreNotFound(err))

	_, err = s.ZIncrBy(ctx, zkey, 2, "b1")
	require.NoError(t, err)
	_, err = s.ZIncrBy(ctx, zkey, 5, "b2")
	require.NoError(t, err)
	top, err := s.ZRange(ctx, zkey, 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1"}, top)
}

func TestNewRedisStore_Unavailable(t *testing.T) {
	if testing.Short() {
		t.Skip("dials a closed port")
	}
	_, err := NewRedisStore(context.Background(), "127.0.0.1:1", "", 0)
	require.Error(t, err)
	assert.True(t, core.IsUnavailable(err))
}
