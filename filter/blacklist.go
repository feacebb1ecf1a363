package filter

import (
	"context"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// BlacklistFilter 是黑名单过滤器（下架、违规图书等）。
// 黑名单来自内存 ItemIDs，以及 Store 中 Key 对应的 JSON 数组。
type BlacklistFilter struct {
	ItemIDs []string
	Store   core.Store
	Key     string

	ids map[string]struct{}
}

// NewBlacklistFilter 创建一个黑名单过滤器，store 可为 nil。
func NewBlacklistFilter(itemIDs []string, store core.Store, key string) *BlacklistFilter {
	f := &BlacklistFilter{ItemIDs: itemIDs, Store: store, Key: key}
	f.ids = make(map[string]struct{}, len(itemIDs))
	for _, id := range itemIDs {
		f.ids[id] = struct{}{}
	}
	return f
}

func (f *BlacklistFilter) Name() string {
	return "filter.blacklist"
}

func (f *BlacklistFilter) ShouldFilter(
	ctx context.Context,
	_ *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if _, ok := f.ids[item.ID]; ok {
		return true, nil
	}
	if f.Store == nil || f.Key == "" {
		return false, nil
	}
	ids, err := f.stored(ctx)
	if err != nil {
		return false, err
	}
	_, ok := ids[item.ID]
	return ok, nil
}

func (f *BlacklistFilter) stored(ctx context.Context) (map[string]struct{}, error) {
	data, err := f.Store.Get(ctx, f.Key)
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var ids []string
	if err := json.Unmarshal(data, &ids); err != nil {
		return nil, err
	}
	out := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}
