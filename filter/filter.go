// Package filter 剔除不应推荐的候选图书：已借阅、无库存、黑名单、表达式命中。
package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Filter 判断一个 Item 是否应该被过滤掉。
// 返回 true 表示应该过滤（移除），false 表示保留。
type Filter interface {
	Name() string
	ShouldFilter(ctx context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error)
}
