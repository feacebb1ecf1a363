package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/core"
)

func TestMemoryStore_KV(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	_, err := s.Get(ctx, "missing")
	assert.True(t, core.IsStoreNotFound(err))
	assert.ErrorIs(t, err, core.ErrStoreNotFound)

	require.NoError(t, s.Set(ctx, "a", []byte("1")))
	v, err := s.Get(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, []byte("1"), v)

	require.NoError(t, s.BatchSet(ctx, map[string][]byte{"b": []byte("2"), "c": []byte("3")}))
	got, err := s.BatchGet(ctx, []string{"a", "b", "x"})
	require.NoError(t, err)
	assert.Equal(t, map[string][]byte{"a": []byte("1"), "b": []byte("2")}, got)

	require.NoError(t, s.Delete(ctx, "a"))
	_, err = s.Get(ctx, "a")
	assert.True(t, core.IsNotFound(err))
}

func TestMemoryStore_TTL(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	require.NoError(t, s.Set(ctx, "k", []byte("v"), 1))
	s.mu.Lock()
	s.data["k"].expire = time.Now().Add(-time.Second)
	s.mu.Unlock()

	_, err := s.Get(ctx, "k")
	assert.True(t, core.IsStoreNotFound(err))
}

func TestMemoryStore_ZSet(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	for _, m := range []string{"b2", "b1", "b2", "b3", "b2", "b1"} {
		_, err := s.ZIncrBy(ctx, "popular", 1, m)
		require.NoError(t, err)
	}

	score, err := s.ZScore(ctx, "popular", "b2")
	require.NoError(t, err)
	assert.Equal(t, 3.0, score)
	_, err = s.ZScore(ctx, "popular", "nope")
	assert.True(t, core.IsStoreNotFound(err))

	top, err := s.ZRange(ctx, "popular", 0, -1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1", "b3"}, top)

	top, err = s.ZRange(ctx, "popular", 0, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"b2", "b1"}, top)

	top, err = s.ZRange(ctx, "empty", 0, 10)
	require.NoError(t, err)
	assert.Empty(t, top)
}

func TestMemoryStore_CloseTwice(t *testing.T) {
	s := NewMemoryStore()
	assert.NoError(t, s.Close())
	assert.NoError(t, s.Close())
}
