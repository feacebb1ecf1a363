package history

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
)

// DefaultProfileSize 是题材画像默认取的题材数。
const DefaultProfileSize = 3

// Profile 是用户借阅画像：题材与作者的借阅次数。
// 排序在次数相同时保持首次出现的顺序。
type Profile struct {
	UserID   string
	Genres   map[string]int
	Authors  map[string]int
	Borrowed []string

	genreOrder  []string
	authorOrder []string
}

// BuildProfile 从借阅记录构造画像。记录无题材时从 catalog 取图书题材；作者总是从 catalog 取。
func BuildProfile(ctx context.Context, userID string, records []core.BorrowRecord, catalog core.Catalog) (*Profile, error) {
	p := &Profile{
		UserID:  userID,
		Genres:  make(map[string]int),
		Authors: make(map[string]int),
	}
	seenBook := make(map[string]struct{}, len(records))
	for _, rec := range records {
		genres := dedup(rec.Genres)
		var book *core.Book
		if catalog != nil && rec.BookID != "" {
			b, err := catalog.Get(ctx, rec.BookID)
			switch {
			case err == nil:
				book = b
			case !core.IsNotFound(err):
				return nil, err
			}
		}
		if len(genres) == 0 && book != nil {
			genres = book.Genres()
		}
		for _, g := range genres {
			if _, ok := p.Genres[g]; !ok {
				p.genreOrder = append(p.genreOrder, g)
			}
			p.Genres[g]++
		}
		if book != nil && book.Author != "" {
			if _, ok := p.Authors[book.Author]; !ok {
				p.authorOrder = append(p.authorOrder, book.Author)
			}
			p.Authors[book.Author]++
		}
		if rec.BookID != "" {
			if _, ok := seenBook[rec.BookID]; !ok {
				seenBook[rec.BookID] = struct{}{}
				p.Borrowed = append(p.Borrowed, rec.BookID)
			}
		}
	}
	return p, nil
}

// TopGenres 返回借阅次数最多的 n 个题材；n <= 0 返回全部。
func (p *Profile) TopGenres(n int) []string {
	return topN(p.genreOrder, p.Genres, n)
}

// TopAuthors 返回借阅次数最多的 n 个作者；n <= 0 返回全部。
func (p *Profile) TopAuthors(n int) []string {
	return topN(p.authorOrder, p.Authors, n)
}

// Empty 表示没有任何借阅。
func (p *Profile) Empty() bool {
	return p == nil || len(p.Borrowed) == 0 && len(p.Genres) == 0
}

func topN(order []string, counts map[string]int, n int) []string {
	out := append([]string(nil), order...)
	sort.SliceStable(out, func(i, j int) bool {
		return counts[out[i]] > counts[out[j]]
	})
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// ParamProfile 是 RecommendContext.Params 中存放 *Profile 的 key
const ParamProfile = "profile"

// ProfileFromContext 取出 feature.UserContextNode 写入的画像。
func ProfileFromContext(rctx *core.RecommendContext) (*Profile, bool) {
	if rctx == nil || rctx.Params == nil {
		return nil, false
	}
	p, ok := rctx.Params[ParamProfile].(*Profile)
	return p, ok && p != nil
}

// GenreProfile 只按记录自带的题材统计画像，不查馆藏。
func GenreProfile(records []core.BorrowRecord) *Profile {
	p, _ := BuildProfile(context.Background(), "", records, nil)
	return p
}
