package store

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/core"
)

func borrowLog() []core.Transaction {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []core.Transaction{
		{ID: "T1", UserID: "1", Genres: []string{"Mystery", "Thriller", "Crime"}, Timestamp: day(1)},
		{ID: "T2", UserID: "2", Genres: []string{"Mystery", "Thriller"}, Timestamp: day(2)},
		{ID: "T3", UserID: "3", Genres: []string{"Mystery", "Crime"}, Timestamp: day(3)},
		{ID: "T4", UserID: "4", Genres: []string{"Romance", "Drama"}, Timestamp: day(4)},
		{ID: "T5", UserID: "5", Genres: []string{"Thriller", "Mystery"}, Timestamp: day(5)},
	}
}

func TestRuleCache_GetOrTrain(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	cache := NewRuleCache(s)
	rec := apriori.NewRecommender(apriori.DefaultConfig())

	var loads atomic.Int32
	load := func(context.Context) ([]core.Transaction, error) {
		loads.Add(1)
		return borrowLog(), nil
	}

	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			rs, err := cache.GetOrTrain(ctx, rec, load)
			assert.NoError(t, err)
			assert.Len(t, rs.Rules, 6)
		}()
	}
	wg.Wait()

	// 回写后再取走缓存
	rs, err := cache.GetOrTrain(ctx, rec, load)
	require.NoError(t, err)
	assert.Len(t, rs.Rules, 6)
	assert.LessOrEqual(t, loads.Load(), int32(4))
	before := loads.Load()

	_, err = cache.GetOrTrain(ctx, rec, load)
	require.NoError(t, err)
	assert.Equal(t, before, loads.Load())

	require.NoError(t, cache.Invalidate(ctx, rec.Config()))
	_, err = cache.Get(ctx, rec.Config())
	assert.True(t, core.IsStoreNotFound(err))
}

func TestRuleCache_KeepsFullPrecision(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()
	defer s.Close()

	rec := apriori.NewRecommender(apriori.DefaultConfig())
	trained := rec.Train(borrowLog())
	cache := NewRuleCache(s)
	require.NoError(t, cache.Put(ctx, rec.Config(), trained))

	got, err := cache.Get(ctx, rec.Config())
	require.NoError(t, err)
	require.Len(t, got.Rules, len(trained.Rules))
	for i := range trained.Rules {
		assert.Equal(t, trained.Rules[i].Antecedent, got.Rules[i].Antecedent)
		assert.Equal(t, trained.Rules[i].Consequent, got.Rules[i].Consequent)
		assert.Equal(t, trained.Rules[i].Support, got.Rules[i].Support)
		assert.Equal(t, trained.Rules[i].Confidence, got.Rules[i].Confidence)
		assert.Equal(t, trained.Rules[i].Lift, got.Rules[i].Lift)
	}

	profile := []string{"Crime"}
	assert.Equal(t, rec.Recommend(profile, trained.Rules, 5), rec.Recommend(profile, got.Rules, 5))
}

func TestRuleCache_LoadError(t *testing.T) {
	s := NewMemoryStore()
	defer s.Close()

	boom := errors.New("boom")
	_, err := NewRuleCache(s).GetOrTrain(context.Background(),
		apriori.NewRecommender(apriori.DefaultConfig()),
		func(context.Context) ([]core.Transaction, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
}

func TestRuleCache_Key(t *testing.T) {
	c := NewRuleCache(nil, WithRuleCachePrefix("p"), WithRuleCacheTTL(0))
	base := apriori.DefaultConfig()

	topK := base
	topK.TopK = 3
	assert.Equal(t, c.Key(base), c.Key(topK))

	minsup := base
	minsup.MinSupport = 0.3
	assert.NotEqual(t, c.Key(base), c.Key(minsup))

	genres := base
	genres.AllowedGenres = []string{"Mystery"}
	assert.NotEqual(t, c.Key(base), c.Key(genres))
	assert.Contains(t, c.Key(base), "p:0.2:0.6:1.2:")
}
