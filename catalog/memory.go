// Package catalog 提供 core.Catalog 的内存实现。
package catalog

import (
	"context"
	"fmt"
	"os"
	"sync"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/validate"
)

// MemoryCatalog 是内存馆藏，按加入顺序保存图书，并维护题材倒排。
type MemoryCatalog struct {
	mu      sync.RWMutex
	books   []*core.Book
	byID    map[string]int
	byGenre map[string][]int
}

var _ core.Catalog = (*MemoryCatalog)(nil)

func NewMemoryCatalog() *MemoryCatalog {
	return &MemoryCatalog{
		byID:    make(map[string]int),
		byGenre: make(map[string][]int),
	}
}

// Add 加入或覆盖图书。图书 ID 为空时返回校验错误。
func (c *MemoryCatalog) Add(books ...*core.Book) error {
	for _, b := range books {
		if err := validate.Struct(b); err != nil {
			return fmt.Errorf("catalog: %w", err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, b := range books {
		if idx, ok := c.byID[b.ID]; ok {
			c.books[idx] = b
			continue
		}
		c.byID[b.ID] = len(c.books)
		c.books = append(c.books, b)
	}
	c.reindex()
	return nil
}

// UpdateCopies 修改可借副本数（借出 -1，归还 +1），不会小于 0。
func (c *MemoryCatalog) UpdateCopies(id string, delta int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	idx, ok := c.byID[id]
	if !ok {
		return core.ErrBookNotFound
	}
	b := *c.books[idx]
	b.AvailableCopies = max(0, b.AvailableCopies+delta)
	c.books[idx] = &b
	return nil
}

func (c *MemoryCatalog) reindex() {
	c.byGenre = make(map[string][]int)
	for i, b := range c.books {
		for _, g := range b.Genres() {
			c.byGenre[g] = append(c.byGenre[g], i)
		}
	}
}

func (c *MemoryCatalog) Get(ctx context.Context, id string) (*core.Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idx, ok := c.byID[id]
	if !ok {
		return nil, core.ErrBookNotFound
	}
	return c.books[idx], nil
}

func (c *MemoryCatalog) ByGenre(ctx context.Context, genre string) ([]*core.Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	idxs := c.byGenre[genre]
	out := make([]*core.Book, len(idxs))
	for i, idx := range idxs {
		out[i] = c.books[idx]
	}
	return out, nil
}

func (c *MemoryCatalog) All(ctx context.Context) ([]*core.Book, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return append([]*core.Book(nil), c.books...), nil
}

// Len 返回图书数量。
func (c *MemoryCatalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.books)
}

// LoadFile 从 JSON 数组文件加载图书。
func LoadFile(path string) (*MemoryCatalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var books []*core.Book
	if err := json.Unmarshal(data, &books); err != nil {
		return nil, fmt.Errorf("catalog: decode %s: %w", path, err)
	}
	c := NewMemoryCatalog()
	if err := c.Add(books...); err != nil {
		return nil, err
	}
	return c, nil
}
