package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// BorrowedFilter 过滤用户已借阅过的图书（rctx.Borrowed）。
type BorrowedFilter struct{}

func (BorrowedFilter) Name() string { return "filter.borrowed" }

func (BorrowedFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, item *core.Item) (bool, error) {
	return rctx.HasBorrowed(item.ID), nil
}

// AvailabilityFilter 过滤没有可借副本的图书。
// 非图书 Item（Meta 中没有 book）保留。
type AvailabilityFilter struct{}

func (AvailabilityFilter) Name() string { return "filter.availability" }

func (AvailabilityFilter) ShouldFilter(_ context.Context, _ *core.RecommendContext, item *core.Item) (bool, error) {
	b := item.Book()
	return b != nil && !b.Available(), nil
}
