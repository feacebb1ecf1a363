// Package recall 生成候选图书：关联规则题材召回、热门召回、相似图书召回，以及多路并发合并。
package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Source 表示一个可复用的召回源。
// 可以理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

const (
	LabelRecallSource   = "recall_source"
	LabelRecallPriority = "recall_priority"
	LabelGenre          = "genre"
	LabelReason         = "reason"
)
