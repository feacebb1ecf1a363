package core

import "time"

// Transaction 是一次借阅事件（或一个借阅会话）归约后的题材集合。
//
// 不变量：Genres 已去重且只包含允许词表中的题材；空集合的 Transaction 在预处理阶段被丢弃。
// Transaction 只在一次挖掘中存在，构造后不再修改。
type Transaction struct {
	ID        string
	UserID    string
	Genres    []string
	Timestamp time.Time
}

// BorrowRecord 是外部系统（借阅 API）提供的原始借阅记录。
// 进入挖掘核心之前由 history.Normalizer 校验并归一化为 Transaction。
type BorrowRecord struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id" validate:"required"`
	BookID     string    `json:"book_id"`
	Genres     []string  `json:"genres" validate:"omitempty,dive,required"`
	BorrowedAt time.Time `json:"borrowed_at" validate:"required"`
}

// Book 是馆藏图书的统一结构。
// 外部 payload 的字段命名差异由边界适配器处理，这里只有一种形状。
type Book struct {
	ID              string   `json:"id" validate:"required"`
	Title           string   `json:"title"`
	Author          string   `json:"author"`
	Genre           string   `json:"genre"`
	Categories      []string `json:"categories,omitempty"`
	PublishedYear   int      `json:"published_year"`
	AvailableCopies int      `json:"available_copies"`
}

// Genres 返回图书的全部题材：Genre 与 Categories 的并集（去重、保序）。
func (b *Book) Genres() []string {
	out := make([]string, 0, 1+len(b.Categories))
	seen := make(map[string]struct{}, 1+len(b.Categories))
	add := func(g string) {
		if g == "" {
			return
		}
		if _, ok := seen[g]; ok {
			return
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	add(b.Genre)
	for _, c := range b.Categories {
		add(c)
	}
	return out
}

// Available 表示是否仍有可借副本。
func (b *Book) Available() bool {
	return b.AvailableCopies > 0
}
