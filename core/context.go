package core

import "github.com/rushteam/bookrec/pkg/utils"

// RecommendContext 承载用户/场景/请求信息，贯穿整个 Pipeline 透传。
type RecommendContext struct {
	UserID string
	Scene  string

	// Genres 是用户当前的题材画像（集合语义）。
	// 为空时由召回源通过 ProfileProvider 解析。
	Genres []string

	// Borrowed 是用户已借阅过的图书 ID，过滤阶段使用
	Borrowed map[string]struct{}

	// Labels 是用户级标签，例如新用户（无借阅历史）
	Labels map[string]utils.Label

	// Params 请求级上下文参数
	Params map[string]any
}

// HasBorrowed 判断用户是否借阅过该图书。
func (rctx *RecommendContext) HasBorrowed(bookID string) bool {
	if rctx == nil || rctx.Borrowed == nil {
		return false
	}
	_, ok := rctx.Borrowed[bookID]
	return ok
}

// MarkBorrowed 记录已借阅图书。
func (rctx *RecommendContext) MarkBorrowed(bookIDs ...string) {
	if rctx.Borrowed == nil {
		rctx.Borrowed = make(map[string]struct{}, len(bookIDs))
	}
	for _, id := range bookIDs {
		rctx.Borrowed[id] = struct{}{}
	}
}

// PutLabel 写入用户级 Label。
func (rctx *RecommendContext) PutLabel(key string, lbl utils.Label) {
	if rctx.Labels == nil {
		rctx.Labels = make(map[string]utils.Label)
	}
	if old, ok := rctx.Labels[key]; ok {
		rctx.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	rctx.Labels[key] = lbl
}

// GetLabel 获取用户级 Label。
func (rctx *RecommendContext) GetLabel(key string) (utils.Label, bool) {
	if rctx.Labels == nil {
		return utils.Label{}, false
	}
	lbl, ok := rctx.Labels[key]
	return lbl, ok
}
