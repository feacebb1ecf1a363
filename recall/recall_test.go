package recall

import (
	"bytes"
	"context"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/catalog"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/store"
)

// workedExample 中存在 {Mystery} → {Crime}。
func workedExample() []core.Transaction {
	day := func(d int) time.Time { return time.Date(2024, 1, d, 0, 0, 0, 0, time.UTC) }
	return []core.Transaction{
		{ID: "T1", UserID: "1", Genres: []string{"Mystery", "Thriller"}, Timestamp: day(1)},
		{ID: "T2", UserID: "2", Genres: []string{"Romance", "Drama"}, Timestamp: day(2)},
		{ID: "T3", UserID: "3", Genres: []string{"Mystery", "Crime"}, Timestamp: day(3)},
		{ID: "T4", UserID: "4", Genres: []string{"Science Fiction", "Fantasy"}, Timestamp: day(4)},
		{ID: "T5", UserID: "5", Genres: []string{"Mystery", "Thriller", "Crime"}, Timestamp: day(5)},
	}
}

func testCatalog(t *testing.T) *catalog.MemoryCatalog {
	t.Helper()
	c := catalog.NewMemoryCatalog()
	require.NoError(t, c.Add(
		&core.Book{ID: "c1", Title: "The Big Sleep", Author: "Chandler", Genre: "Crime", PublishedYear: 1939, AvailableCopies: 1},
		&core.Book{ID: "c2", Title: "In Cold Blood", Author: "Capote", Genre: "Crime", PublishedYear: 1966, AvailableCopies: 0},
		&core.Book{ID: "c3", Title: "Farewell, My Lovely", Author: "Chandler", Genre: "Crime", PublishedYear: 1940, AvailableCopies: 2},
		&core.Book{ID: "m1", Title: "Rebecca", Author: "du Maurier", Genre: "Mystery", PublishedYear: 1938, AvailableCopies: 3},
		&core.Book{ID: "d1", Title: "Hamlet", Author: "Shakespeare", Genre: "Drama", PublishedYear: 1603, AvailableCopies: 1},
	))
	return c
}

func newGenreRules(t *testing.T) *GenreRules {
	rec := apriori.NewRecommender(apriori.DefaultConfig())
	return &GenreRules{
		Recommender: rec,
		Rules:       &StaticRules{RuleSet: rec.Train(workedExample())},
		Catalog:     testCatalog(t),
		PerGenre:    2,
	}
}

func TestGenreRules_Recall(t *testing.T) {
	r := newGenreRules(t)
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", Genres: []string{"Mystery", "Thriller"}})
	require.NoError(t, err)

	require.Len(t, items, 2)
	assert.Equal(t, "c1", items[0].ID)
	assert.Equal(t, "c2", items[1].ID)
	want := (2.0 / 3) * ((2.0 / 3) / 0.4)
	assert.InDelta(t, want, items[0].Score, 1e-9)
	assert.Equal(t, "Crime", items[0].Labels[LabelGenre].Value)
	assert.Equal(t, "Users who enjoy Mystery also like Crime", items[0].Labels[LabelReason].Value)
	assert.Equal(t, "Chandler", items[0].Book().Author)
}

func TestGenreRules_SkipsProfileGenres(t *testing.T) {
	c := catalog.NewMemoryCatalog()
	require.NoError(t, c.Add(
		&core.Book{ID: "m1", Title: "Rebecca", Author: "du Maurier", Genre: "Mystery", AvailableCopies: 1},
		&core.Book{ID: "c1", Title: "The Big Sleep", Author: "Chandler", Genre: "Crime", AvailableCopies: 1},
		&core.Book{ID: "t1", Title: "The Day of the Jackal", Author: "Forsyth", Genre: "Thriller", AvailableCopies: 1},
	))
	rec := apriori.NewRecommender(apriori.DefaultConfig())
	r := &GenreRules{
		Recommender: rec,
		Rules:       &StaticRules{RuleSet: rec.Train(workedExample())},
		Catalog:     c,
	}

	// {Mystery} → {Crime} 与 {Crime} → {Mystery} 的后件都在画像内
	profile := []string{"Mystery", "Crime"}
	items, err := r.Recall(context.Background(), &core.RecommendContext{UserID: "u1", Genres: profile})
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "t1", items[0].ID)
	for _, it := range items {
		assert.NotContains(t, profile, it.Book().Genre)
	}
}

func TestGenreRules_ProfileLookup(t *testing.T) {
	r := newGenreRules(t)
	r.Profiles = feature.ProfileProviderFunc(func(_ context.Context, userID string) ([]string, error) {
		if userID == "u-err" {
			return nil, core.ErrProfileUnavailable
		}
		return []string{"Romance"}, nil
	})

	rctx := &core.RecommendContext{UserID: "u2"}
	items, err := r.Recall(context.Background(), rctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Romance"}, rctx.Genres)
	require.Len(t, items, 1)
	assert.Equal(t, "d1", items[0].ID)

	_, err = r.Recall(context.Background(), &core.RecommendContext{UserID: "u-err"})
	assert.ErrorIs(t, err, core.ErrProfileUnavailable)

	// 新用户无画像
	r.Profiles = feature.ProfileProviderFunc(func(context.Context, string) ([]string, error) { return []string{}, nil })
	items, err = r.Recall(context.Background(), &core.RecommendContext{UserID: "new"})
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestCachedRules(t *testing.T) {
	s := store.NewMemoryStore()
	defer s.Close()
	src := &CachedRules{
		Cache:       store.NewRuleCache(s),
		Recommender: apriori.NewRecommender(apriori.DefaultConfig()),
		Load:        func(context.Context) ([]core.Transaction, error) { return workedExample(), nil },
	}
	rules, err := src.Rules(context.Background())
	require.NoError(t, err)
	assert.Len(t, rules, 9)
}

func TestPopular(t *testing.T) {
	ctx := context.Background()
	c := testCatalog(t)

	// 内存计数兜底：同分时可借的在前
	p := &Popular{Catalog: c, Counts: map[string]int{"m1": 3, "c2": 1}, TopN: 3}
	items, err := p.Recall(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"m1", "c2", "c1"}, []string{items[0].ID, items[1].ID, items[2].ID})
	assert.Equal(t, "Popular with other readers", items[0].Labels[LabelReason].Value)
	assert.Equal(t, "New in our collection", items[2].Labels[LabelReason].Value)

	s := store.NewMemoryStore()
	defer s.Close()
	for _, id := range []string{"d1", "c3", "d1", "gone"} {
		require.NoError(t, RecordBorrow(ctx, s, "", id))
	}
	p = &Popular{Store: s, Catalog: c}
	items, err = p.Recall(ctx, nil)
	require.NoError(t, err)
	require.Len(t, items, 2, "books missing from the catalog are skipped")
	assert.Equal(t, "d1", items[0].ID)
	assert.Equal(t, 2.0, items[0].Score)
	assert.Equal(t, "c3", items[1].ID)
}

func TestSimilar(t *testing.T) {
	r := &Similar{Catalog: testCatalog(t), TopN: 3}
	items, err := r.Recall(context.Background(), &core.RecommendContext{Params: map[string]any{"book_id": "c1"}})
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, "c3", items[0].ID)
	assert.Equal(t, 20.0, items[0].Score)
	assert.Equal(t, "Same author: Chandler", items[0].Labels[LabelReason].Value)
	assert.Equal(t, "c2", items[1].ID)
	assert.Equal(t, "Similar genre: Crime", items[1].Labels[LabelReason].Value)

	items, err = r.Recall(context.Background(), &core.RecommendContext{})
	require.NoError(t, err)
	assert.Empty(t, items)
}

type stubSource struct {
	name  string
	items []*core.Item
	err   error
	delay time.Duration
}

func (s *stubSource) Name() string { return s.name }
func (s *stubSource) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return s.items, s.err
}

func scored(id string, score float64) *core.Item {
	it := core.NewItem(id)
	it.Score = score
	return it
}

func TestFanout(t *testing.T) {
	var logs bytes.Buffer
	n := &Fanout{
		Sources: []Source{
			&stubSource{name: "a", items: []*core.Item{scored("b1", 1), scored("b2", 1)}},
			&stubSource{name: "broken", err: errors.New("boom")},
			&stubSource{name: "slow", delay: time.Second, items: []*core.Item{scored("b9", 1)}},
			&stubSource{name: "b", items: []*core.Item{scored("b2", 5), scored("b3", 1)}},
		},
		Dedup:   true,
		Timeout: 50 * time.Millisecond,
		Logger:  zerolog.New(&logs),
	}
	out, err := n.Process(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Len(t, out, 3)
	assert.Equal(t, []string{"b1", "b2", "b3"}, []string{out[0].ID, out[1].ID, out[2].ID})
	assert.Equal(t, 1.0, out[1].Score)
	assert.Equal(t, "a|b", out[1].Labels[LabelRecallSource].Value)
	assert.Contains(t, logs.String(), `"source":"broken"`)
	assert.Contains(t, logs.String(), `"source":"slow"`)

	n.MergeStrategy = MaxScoreMergeStrategy{}
	out, err = n.Process(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, 5.0, out[1].Score)

	n.MergeStrategy = UnionMergeStrategy{}
	out, err = n.Process(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	assert.Len(t, out, 4)
}
