package recall

import (
	"context"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// MergeStrategy 合并多路召回结果。all 按 Sources 顺序拼接。
type MergeStrategy interface {
	Merge(all []*core.Item, dedup bool) []*core.Item
}

// Fanout 是一个 Recall Node：并发执行多个召回源，并合并结果。
// 单个召回源出错或超时只记录日志，不中断其他召回源。
type Fanout struct {
	Sources       []Source
	Dedup         bool
	Timeout       time.Duration // 每个召回源的超时时间
	MaxConcurrent int           // 最大并发数（0 表示无限制）
	MergeStrategy MergeStrategy // 默认 FirstMergeStrategy
	Logger        zerolog.Logger
}

func (n *Fanout) Name() string        { return "recall.fanout" }
func (n *Fanout) Kind() pipeline.Kind { return pipeline.KindRecall }

func (n *Fanout) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	if len(n.Sources) == 0 {
		return nil, nil
	}

	results := make([][]*core.Item, len(n.Sources))
	eg, egCtx := errgroup.WithContext(ctx)
	if n.MaxConcurrent > 0 {
		eg.SetLimit(n.MaxConcurrent)
	}

	for i, src := range n.Sources {
		i, src := i, src
		eg.Go(func() error {
			recallCtx := egCtx
			if n.Timeout > 0 {
				var cancel context.CancelFunc
				recallCtx, cancel = context.WithTimeout(egCtx, n.Timeout)
				defer cancel()
			}

			start := time.Now()
			items, err := src.Recall(recallCtx, rctx)
			if err != nil {
				n.Logger.Warn().Err(err).Str("source", src.Name()).Dur("elapsed", time.Since(start)).Msg("recall source failed")
				return nil
			}

			// 记录召回来源 label，方便 explain / 观测
			for _, it := range items {
				it.PutLabel(LabelRecallSource, utils.Label{Value: src.Name(), Source: "recall"})
				it.PutLabel(LabelRecallPriority, utils.Label{Value: strconv.Itoa(i), Source: "recall"})
			}
			results[i] = items
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var all []*core.Item
	for _, items := range results {
		all = append(all, items...)
	}

	strategy := n.MergeStrategy
	if strategy == nil {
		strategy = &FirstMergeStrategy{}
	}
	out := strategy.Merge(all, n.Dedup)
	n.Logger.Debug().Int("sources", len(n.Sources)).Int("candidates", len(all)).Int("merged", len(out)).Msg("recall fanout")
	return out, nil
}

// FirstMergeStrategy 按 ID 去重，保留第一个出现的，后出现的 labels 合并到前者。
type FirstMergeStrategy struct{}

func (FirstMergeStrategy) Merge(all []*core.Item, dedup bool) []*core.Item {
	if !dedup {
		return all
	}
	seen := make(map[string]*core.Item, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		if old, ok := seen[it.ID]; ok {
			for k, v := range it.Labels {
				old.PutLabel(k, v)
			}
			continue
		}
		seen[it.ID] = it
		out = append(out, it)
	}
	return out
}

// UnionMergeStrategy 保留所有结果，不去重。
type UnionMergeStrategy struct{}

func (UnionMergeStrategy) Merge(all []*core.Item, _ bool) []*core.Item {
	return all
}

// MaxScoreMergeStrategy 按 ID 去重，保留分数最高的，位置为首次出现的位置。
type MaxScoreMergeStrategy struct{}

func (MaxScoreMergeStrategy) Merge(all []*core.Item, dedup bool) []*core.Item {
	if !dedup {
		return all
	}
	idx := make(map[string]int, len(all))
	out := make([]*core.Item, 0, len(all))
	for _, it := range all {
		if it == nil {
			continue
		}
		i, ok := idx[it.ID]
		if !ok {
			idx[it.ID] = len(out)
			out = append(out, it)
			continue
		}
		keep, drop := out[i], it
		if it.Score > keep.Score {
			keep, drop = it, keep
		}
		for k, v := range drop.Labels {
			keep.PutLabel(k, v)
		}
		out[i] = keep
	}
	return out
}
