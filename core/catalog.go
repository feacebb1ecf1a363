package core

import "context"

// Catalog 是馆藏图书的只读视图，召回与排序阶段按题材取书。
type Catalog interface {
	// Get 按 ID 取书，不存在时返回 ErrBookNotFound
	Get(ctx context.Context, id string) (*Book, error)

	// ByGenre 返回题材（Genre 或 Categories）包含 genre 的图书，顺序稳定
	ByGenre(ctx context.Context, genre string) ([]*Book, error)

	// All 返回全部图书，顺序稳定
	All(ctx context.Context) ([]*Book, error)
}

// ErrBookNotFound 表示图书不存在
var ErrBookNotFound = NewDomainError(ModuleCatalog, ErrorCodeNotFound, "catalog: book not found")
