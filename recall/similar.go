package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Similar 召回与种子图书相似的图书，种子来自 rctx.Params[ParamKey]（默认 "book_id"）。
// 打分：同题材 +10，同作者 +8，出版年份相差不超过 5 年 +2。
type Similar struct {
	Catalog  core.Catalog
	ParamKey string
	TopN     int // <= 0 表示不限
}

func (r *Similar) Name() string        { return "similar" }
func (r *Similar) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *Similar) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *Similar) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}
	key := r.ParamKey
	if key == "" {
		key = "book_id"
	}
	seedID := conv.ConfigGet(rctx.Params, key, "")
	if seedID == "" {
		return nil, nil
	}
	seed, err := r.Catalog.Get(ctx, seedID)
	if core.IsNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	books, err := r.Catalog.All(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]*core.Item, 0, len(books))
	for _, b := range books {
		if b.ID == seed.ID {
			continue
		}
		it := core.NewBookItem(b)
		reason := "You might also like this"
		if b.Genre == seed.Genre {
			it.Score += 10
			reason = "Similar genre: " + b.Genre
		}
		if b.Author != "" && b.Author == seed.Author {
			it.Score += 8
			reason = "Same author: " + b.Author
		}
		if diff := b.PublishedYear - seed.PublishedYear; diff >= -5 && diff <= 5 {
			it.Score += 2
		}
		it.PutLabel(LabelReason, utils.Label{Value: reason, Source: "recall"})
		out = append(out, it)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score > out[j].Score })
	if r.TopN > 0 && len(out) > r.TopN {
		out = out[:r.TopN]
	}
	return out, nil
}
