// Package rank 对候选图书打分并排序。
package rank

import (
	"context"
	"sort"
	"time"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/history"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// 启发式打分的权重
const (
	GenreWeight     = 10.0 // 每本同题材借阅
	AuthorWeight    = 8.0  // 每本同作者借阅
	AvailableBonus  = 2.0  // 有可借副本
	RecentBonus     = 1.0  // 近 RecentYears 年出版
	RecentYears     = 10
	NewReleaseYears = 3 // 近 3 年出版时给出 "Recent release" 解释
)

// Heuristic 按用户借阅画像给图书打分：
//
//	score = 10×该题材借阅数 + 8×该作者借阅数 + 2（可借）+ 1（近 10 年出版）+ RecallWeight×召回分
//
// 画像优先取 rctx.Params["profile"]（feature.UserContextNode 写入），否则通过 History 加载。
// 写入 label rank_reason（第一条解释），按分数降序稳定排序。
type Heuristic struct {
	History      history.Provider
	Catalog      core.Catalog
	RecallWeight float64
	Now          func() time.Time
}

func (n *Heuristic) Name() string        { return "rank.heuristic" }
func (n *Heuristic) Kind() pipeline.Kind { return pipeline.KindRank }

func (n *Heuristic) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	profile, err := n.profile(ctx, rctx)
	if err != nil {
		return nil, err
	}
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	year := now().Year()

	for _, it := range items {
		if it == nil {
			continue
		}
		b := it.Book()
		if b == nil {
			continue
		}
		score, reasons := 0.0, make([]string, 0, 3)
		if c := profile.Genres[b.Genre]; c > 0 {
			score += GenreWeight * float64(c)
			reasons = append(reasons, "You enjoy "+b.Genre)
		}
		if c := profile.Authors[b.Author]; c > 0 && b.Author != "" {
			score += AuthorWeight * float64(c)
			reasons = append(reasons, "You've read "+b.Author+" before")
		}
		if b.Available() {
			score += AvailableBonus
		}
		if b.PublishedYear >= year-RecentYears {
			score += RecentBonus
			if b.PublishedYear >= year-NewReleaseYears {
				reasons = append(reasons, "Recent release")
			}
		}
		if len(reasons) == 0 {
			reasons = append(reasons, "Popular in our collection")
		}

		it.Features["heuristic_score"] = score
		it.Score = score + n.RecallWeight*it.Score
		it.PutLabel("rank_reason", utils.Label{Value: reasons[0], Source: "rank"})
	}

	sort.SliceStable(items, func(i, j int) bool {
		if items[i] == nil {
			return false
		}
		if items[j] == nil {
			return true
		}
		return items[i].Score > items[j].Score
	})
	return items, nil
}

func (n *Heuristic) profile(ctx context.Context, rctx *core.RecommendContext) (*history.Profile, error) {
	if p, ok := history.ProfileFromContext(rctx); ok {
		return p, nil
	}
	userID := ""
	if rctx != nil {
		userID = rctx.UserID
	}
	if n.History == nil || userID == "" {
		return history.BuildProfile(ctx, userID, nil, nil)
	}
	records, err := n.History.UserRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	return history.BuildProfile(ctx, userID, records, n.Catalog)
}
