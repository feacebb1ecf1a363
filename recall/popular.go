package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// DefaultPopularKey 是借阅次数有序集合的默认 key
const DefaultPopularKey = "bookrec:popular"

// Popular 是热门召回源：按借阅次数取图书，用于新用户冷启动。
//   - Store 不为空时从有序集合 Key 读取 TopN（ZRange，按分数降序）
//   - 否则（或有序集合为空）使用 Counts 内存计数
//
// 分数为借阅次数；同分时可借的在前，其余保持馆藏顺序。
type Popular struct {
	Store   core.KeyValueStore
	Key     string
	Counts  map[string]int
	Catalog core.Catalog
	TopN    int // <= 0 时默认 100
}

func (r *Popular) Name() string        { return "popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Popular) Recall(ctx context.Context, _ *core.RecommendContext) ([]*core.Item, error) {
	topN := r.TopN
	if topN <= 0 {
		topN = 100
	}

	items, err := r.fromStore(ctx, topN)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		if items, err = r.fromCounts(ctx, topN); err != nil {
			return nil, err
		}
	}
	for _, it := range items {
		reason := "New in our collection"
		if it.Score > 0 {
			reason = "Popular with other readers"
		}
		it.PutLabel(LabelReason, utils.Label{Value: reason, Source: "recall"})
	}
	return items, nil
}

func (r *Popular) key() string {
	if r.Key == "" {
		return DefaultPopularKey
	}
	return r.Key
}

func (r *Popular) fromStore(ctx context.Context, topN int) ([]*core.Item, error) {
	if r.Store == nil {
		return nil, nil
	}
	ids, err := r.Store.ZRange(ctx, r.key(), 0, int64(topN-1))
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(ids))
	for _, id := range ids {
		b, err := r.Catalog.Get(ctx, id)
		if core.IsNotFound(err) {
			continue
		}
		if err != nil {
			return nil, err
		}
		score, err := r.Store.ZScore(ctx, r.key(), id)
		if err != nil && !core.IsStoreNotFound(err) {
			return nil, err
		}
		it := core.NewBookItem(b)
		it.Score = score
		it.Features["borrow_count"] = score
		out = append(out, it)
	}
	return out, nil
}

func (r *Popular) fromCounts(ctx context.Context, topN int) ([]*core.Item, error) {
	books, err := r.Catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(books, func(i, j int) bool {
		ci, cj := r.Counts[books[i].ID], r.Counts[books[j].ID]
		if ci != cj {
			return ci > cj
		}
		return books[i].Available() && !books[j].Available()
	})
	if len(books) > topN {
		books = books[:topN]
	}
	out := make([]*core.Item, len(books))
	for i, b := range books {
		it := core.NewBookItem(b)
		it.Score = float64(r.Counts[b.ID])
		it.Features["borrow_count"] = it.Score
		out[i] = it
	}
	return out, nil
}

// RecordBorrow 为图书的借阅次数 +1。
func RecordBorrow(ctx context.Context, kv core.KeyValueStore, key, bookID string) error {
	if key == "" {
		key = DefaultPopularKey
	}
	_, err := kv.ZIncrBy(ctx, key, 1, bookID)
	return err
}
