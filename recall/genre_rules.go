package recall

import (
	"context"
	"fmt"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
	"github.com/rushteam/bookrec/store"
)

// RuleProvider 提供当前生效的关联规则。
type RuleProvider interface {
	Rules(ctx context.Context) ([]apriori.Rule, error)
}

// StaticRules 是进程内固定的规则集（例如从 rules.json 加载）。
type StaticRules struct {
	RuleSet *apriori.RuleSet
}

func (s *StaticRules) Rules(context.Context) ([]apriori.Rule, error) {
	if s.RuleSet == nil {
		return nil, nil
	}
	return s.RuleSet.Rules, nil
}

// CachedRules 从 RuleCache 读取规则，未命中时挖掘并回写。
type CachedRules struct {
	Cache       *store.RuleCache
	Recommender *apriori.Recommender
	Load        store.TransactionLoader
}

func (c *CachedRules) Rules(ctx context.Context) ([]apriori.Rule, error) {
	rs, err := c.Cache.GetOrTrain(ctx, c.Recommender, c.Load)
	if err != nil {
		return nil, err
	}
	return rs.Rules, nil
}

// GenreRules 是关联规则题材召回：
//  1. 解析用户题材画像（rctx.Genres 为空时查询 Profiles，并回写 rctx.Genres）
//  2. 用规则推荐题材
//  3. 每个推荐题材取 PerGenre 本馆藏图书，分数为题材得分
//
// 画像为空（新用户）时返回空结果，由热门召回兜底。
type GenreRules struct {
	Recommender *apriori.Recommender
	Rules       RuleProvider
	Catalog     core.Catalog
	Profiles    feature.ProfileProvider
	TopK        int // 推荐题材数，<= 0 时使用 Recommender 配置
	PerGenre    int // 每个题材的图书数，<= 0 表示不限
}

func (r *GenreRules) Name() string        { return "apriori" }
func (r *GenreRules) Kind() pipeline.Kind { return pipeline.KindRecall }

func (r *GenreRules) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

func (r *GenreRules) Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error) {
	genres, err := r.profile(ctx, rctx)
	if err != nil || len(genres) == 0 {
		return nil, err
	}
	rules, err := r.Rules.Rules(ctx)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	recs := r.Recommender.Recommend(genres, rules, r.TopK)
	seen := make(map[string]struct{})
	var out []*core.Item
	for _, rec := range recs {
		books, err := r.Catalog.ByGenre(ctx, rec.Genre)
		if err != nil {
			return nil, err
		}
		n := 0
		for _, b := range books {
			if r.PerGenre > 0 && n >= r.PerGenre {
				break
			}
			if _, ok := seen[b.ID]; ok {
				continue
			}
			seen[b.ID] = struct{}{}
			n++

			it := core.NewBookItem(b)
			it.Score = rec.Score
			it.Features["genre_score"] = rec.Score
			it.PutLabel(LabelGenre, utils.Label{Value: rec.Genre, Source: "recall"})
			if len(rec.Reasons) > 0 {
				it.PutLabel(LabelReason, utils.Label{Value: rec.Reasons[0], Source: "recall"})
			}
			out = append(out, it)
		}
	}
	return out, nil
}

func (r *GenreRules) profile(ctx context.Context, rctx *core.RecommendContext) ([]string, error) {
	if rctx == nil {
		return nil, nil
	}
	if len(rctx.Genres) > 0 || r.Profiles == nil {
		return rctx.Genres, nil
	}
	genres, err := r.Profiles.UserGenres(ctx, rctx.UserID)
	if err != nil {
		return nil, fmt.Errorf("user %s profile: %w", rctx.UserID, err)
	}
	rctx.Genres = genres
	return genres, nil
}
