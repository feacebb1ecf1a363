// Package history 把借阅记录归一化为挖掘用的 Transaction，并提供借阅历史的读取适配器。
package history

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/validate"
)

// Mode 决定借阅记录如何组成 Transaction。
type Mode string

const (
	// ModeEvent 每条借阅记录一个 Transaction
	ModeEvent Mode = "event"
	// ModeSession 同一用户在 SessionWindow 内的借阅合并为一个 Transaction
	ModeSession Mode = "session"
)

// DefaultSessionWindow 是会话模式的默认窗口。
const DefaultSessionWindow = 24 * time.Hour

// Stats 是一次归一化的统计。
type Stats struct {
	Records      int
	Transactions int
	Skipped      int
}

// Normalizer 校验借阅记录并构造 Transaction。
// 记录未带题材时，通过 Catalog 取图书题材。
type Normalizer struct {
	mode    Mode
	window  time.Duration
	strict  bool
	catalog core.Catalog
	newID   func() string
	logger  zerolog.Logger
}

type Option func(*Normalizer)

func WithMode(m Mode) Option {
	return func(n *Normalizer) { n.mode = m }
}

func WithSessionWindow(d time.Duration) Option {
	return func(n *Normalizer) { n.window = d }
}

// WithStrict 为 true 时遇到非法记录直接返回 ErrInvalidTransaction，否则跳过并计数。
func WithStrict(strict bool) Option {
	return func(n *Normalizer) { n.strict = strict }
}

func WithCatalog(c core.Catalog) Option {
	return func(n *Normalizer) { n.catalog = c }
}

func WithIDGenerator(fn func() string) Option {
	return func(n *Normalizer) { n.newID = fn }
}

func WithLogger(l zerolog.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{
		mode:   ModeEvent,
		window: DefaultSessionWindow,
		newID:  func() string { return uuid.New().String() },
		logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(n)
	}
	if n.window <= 0 {
		n.window = DefaultSessionWindow
	}
	return n
}

// Normalize 把借阅记录转为 Transaction。
//   - ModeEvent：顺序与输入一致，保留记录 ID，ID 为空时生成 uuid
//   - ModeSession：按用户首次出现的顺序输出，每个用户内按借阅时间切分会话
//
// Transaction 的题材只做去重，词表过滤由 apriori.Preprocess 负责。
func (n *Normalizer) Normalize(ctx context.Context, records []core.BorrowRecord) ([]core.Transaction, Stats, error) {
	stats := Stats{Records: len(records)}
	valid := make([]core.BorrowRecord, 0, len(records))
	genres := make([][]string, 0, len(records))
	for i := range records {
		rec := records[i]
		if err := validate.Struct(&rec); err != nil {
			if n.strict {
				return nil, stats, core.WrapDomainError(core.ErrInvalidTransaction, fmt.Errorf("record %d (%s): %w", i, rec.ID, err))
			}
			stats.Skipped++
			n.logger.Warn().Err(err).Int("index", i).Str("record_id", rec.ID).Msg("skip invalid borrow record")
			continue
		}
		g, err := n.recordGenres(ctx, &rec)
		if err != nil {
			return nil, stats, err
		}
		valid = append(valid, rec)
		genres = append(genres, g)
	}

	var txns []core.Transaction
	switch n.mode {
	case ModeSession:
		txns = n.sessions(valid, genres)
	default:
		txns = make([]core.Transaction, len(valid))
		for i, rec := range valid {
			id := rec.ID
			if id == "" {
				id = n.newID()
			}
			txns[i] = core.Transaction{ID: id, UserID: rec.UserID, Genres: genres[i], Timestamp: rec.BorrowedAt}
		}
	}
	stats.Transactions = len(txns)
	n.logger.Debug().
		Str("mode", string(n.mode)).
		Int("records", stats.Records).
		Int("transactions", stats.Transactions).
		Int("skipped", stats.Skipped).
		Msg("normalize borrow records")
	return txns, stats, nil
}

func (n *Normalizer) recordGenres(ctx context.Context, rec *core.BorrowRecord) ([]string, error) {
	if len(rec.Genres) > 0 || n.catalog == nil || rec.BookID == "" {
		return dedup(rec.Genres), nil
	}
	b, err := n.catalog.Get(ctx, rec.BookID)
	if err != nil {
		if core.IsNotFound(err) {
			return nil, nil
		}
		return nil, err
	}
	return b.Genres(), nil
}

func (n *Normalizer) sessions(records []core.BorrowRecord, genres [][]string) []core.Transaction {
	var order []string
	byUser := make(map[string][]int)
	for i, rec := range records {
		if _, ok := byUser[rec.UserID]; !ok {
			order = append(order, rec.UserID)
		}
		byUser[rec.UserID] = append(byUser[rec.UserID], i)
	}

	var out []core.Transaction
	for _, userID := range order {
		idxs := byUser[userID]
		sort.SliceStable(idxs, func(a, b int) bool {
			return records[idxs[a]].BorrowedAt.Before(records[idxs[b]].BorrowedAt)
		})

		var (
			cur   *core.Transaction
			start time.Time
		)
		for _, i := range idxs {
			rec := records[i]
			if cur == nil || rec.BorrowedAt.Sub(start) > n.window {
				if cur != nil {
					out = append(out, *cur)
				}
				cur = &core.Transaction{ID: n.newID(), UserID: userID}
				start = rec.BorrowedAt
			}
			cur.Genres = dedup(append(cur.Genres, genres[i]...))
			cur.Timestamp = rec.BorrowedAt
		}
		if cur != nil {
			out = append(out, *cur)
		}
	}
	return out
}

func dedup(genres []string) []string {
	if len(genres) == 0 {
		return nil
	}
	out := make([]string, 0, len(genres))
	seen := make(map[string]struct{}, len(genres))
	for _, g := range genres {
		if _, ok := seen[g]; ok {
			continue
		}
		seen[g] = struct{}{}
		out = append(out, g)
	}
	return out
}
