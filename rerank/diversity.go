package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// DefaultMaxPerGenre 是同一题材默认最多保留的图书数。
const DefaultMaxPerGenre = 2

// Diversity 按题材打散：每个题材最多保留 MaxPerGenre 本，超出的候选被挪到末尾
// （Drop 为 true 时直接丢弃）。保持原有相对顺序。
//
// 题材来源优先级：
//   - label[Key].Value
//   - meta[Key]（string）
type Diversity struct {
	Key         string // 默认 "genre"
	MaxPerGenre int
	Drop        bool
}

func (n *Diversity) Name() string        { return "rerank.diversity" }
func (n *Diversity) Kind() pipeline.Kind { return pipeline.KindReRank }

func (n *Diversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}
	key := n.Key
	if key == "" {
		key = "genre"
	}
	limit := n.MaxPerGenre
	if limit <= 0 {
		limit = DefaultMaxPerGenre
	}

	counts := make(map[string]int, 16)
	out := make([]*core.Item, 0, len(items))
	var overflow []*core.Item
	for _, it := range items {
		if it == nil {
			continue
		}
		g := genreOf(it, key)
		if g == "" {
			out = append(out, it)
			continue
		}
		if counts[g] >= limit {
			overflow = append(overflow, it)
			continue
		}
		counts[g]++
		out = append(out, it)
	}
	if n.Drop {
		return out, nil
	}
	return append(out, overflow...), nil
}

func genreOf(it *core.Item, key string) string {
	if lbl, ok := it.Labels[key]; ok && lbl.Value != "" {
		return lbl.Value
	}
	if s, ok := it.Meta[key].(string); ok {
		return s
	}
	return ""
}
