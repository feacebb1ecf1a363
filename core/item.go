package core

import "github.com/rushteam/bookrec/pkg/utils"

// Item 是推荐链路中的统一承载结构：特征、分数、元信息、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策。
// 图书推荐中 ID 为图书 ID，Meta["book"] 存放 *Book。
type Item struct {
	ID       string
	Score    float64
	Features map[string]float64
	Meta     map[string]any
	Labels   map[string]utils.Label
}

func NewItem(id string) *Item {
	return &Item{
		ID:       id,
		Score:    0,
		Features: make(map[string]float64),
		Meta:     make(map[string]any),
		Labels:   make(map[string]utils.Label),
	}
}

// NewBookItem 以图书构造 Item，并把 genre / author 写入 Meta。
func NewBookItem(b *Book) *Item {
	it := NewItem(b.ID)
	it.Meta["book"] = b
	it.Meta["genre"] = b.Genre
	it.Meta["author"] = b.Author
	it.Meta["available_copies"] = b.AvailableCopies
	it.Meta["published_year"] = b.PublishedYear
	return it
}

// Book 返回 Meta 中的图书，不存在时返回 nil。
func (it *Item) Book() *Book {
	if it == nil || it.Meta == nil {
		return nil
	}
	b, _ := it.Meta["book"].(*Book)
	return b
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
