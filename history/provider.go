package history

import (
	"context"
	"sync"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/core"
)

// Provider 提供借阅历史。
type Provider interface {
	// UserRecords 返回用户的借阅记录，按写入顺序；用户不存在时返回空切片
	UserRecords(ctx context.Context, userID string) ([]core.BorrowRecord, error)

	// AllRecords 返回全部借阅记录，按用户首次写入顺序
	AllRecords(ctx context.Context) ([]core.BorrowRecord, error)
}

// Recorder 写入借阅记录。
type Recorder interface {
	Append(ctx context.Context, records ...core.BorrowRecord) error
}

// MemoryProvider 是内存借阅历史。
type MemoryProvider struct {
	mu     sync.RWMutex
	users  []string
	byUser map[string][]core.BorrowRecord
}

var (
	_ Provider = (*MemoryProvider)(nil)
	_ Recorder = (*MemoryProvider)(nil)
)

func NewMemoryProvider(records ...core.BorrowRecord) *MemoryProvider {
	p := &MemoryProvider{byUser: make(map[string][]core.BorrowRecord)}
	// 内存实现的 Append 不会失败
	_ = p.Append(context.Background(), records...)
	return p
}

func (p *MemoryProvider) Append(_ context.Context, records ...core.BorrowRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, rec := range records {
		if _, ok := p.byUser[rec.UserID]; !ok {
			p.users = append(p.users, rec.UserID)
		}
		p.byUser[rec.UserID] = append(p.byUser[rec.UserID], rec)
	}
	return nil
}

func (p *MemoryProvider) UserRecords(_ context.Context, userID string) ([]core.BorrowRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]core.BorrowRecord{}, p.byUser[userID]...), nil
}

func (p *MemoryProvider) AllRecords(_ context.Context) ([]core.BorrowRecord, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var out []core.BorrowRecord
	for _, u := range p.users {
		out = append(out, p.byUser[u]...)
	}
	return out, nil
}

// StoreProvider 把借阅历史以 JSON 列表存放在 core.Store 中：
//   - {prefix}:{userID} 为该用户的记录列表
//   - {prefix}:_users 为用户 ID 列表（索引）
//
// Append 是读改写，只保证单进程内串行。
type StoreProvider struct {
	store  core.Store
	prefix string
	mu     sync.Mutex
}

var (
	_ Provider = (*StoreProvider)(nil)
	_ Recorder = (*StoreProvider)(nil)
)

func NewStoreProvider(s core.Store, prefix string) *StoreProvider {
	if prefix == "" {
		prefix = "bookrec:history"
	}
	return &StoreProvider{store: s, prefix: prefix}
}

func (p *StoreProvider) userKey(userID string) string { return p.prefix + ":" + userID }
func (p *StoreProvider) indexKey() string             { return p.prefix + ":_users" }

func (p *StoreProvider) Append(ctx context.Context, records ...core.BorrowRecord) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	users, err := p.users(ctx)
	if err != nil {
		return err
	}
	known := make(map[string]struct{}, len(users))
	for _, u := range users {
		known[u] = struct{}{}
	}

	grouped := make(map[string][]core.BorrowRecord)
	var order []string
	for _, rec := range records {
		if _, ok := grouped[rec.UserID]; !ok {
			order = append(order, rec.UserID)
		}
		grouped[rec.UserID] = append(grouped[rec.UserID], rec)
	}

	kvs := make(map[string][]byte, len(order)+1)
	for _, userID := range order {
		existing, err := p.UserRecords(ctx, userID)
		if err != nil {
			return err
		}
		data, err := json.Marshal(append(existing, grouped[userID]...))
		if err != nil {
			return err
		}
		kvs[p.userKey(userID)] = data
		if _, ok := known[userID]; !ok {
			known[userID] = struct{}{}
			users = append(users, userID)
		}
	}
	idx, err := json.Marshal(users)
	if err != nil {
		return err
	}
	kvs[p.indexKey()] = idx
	return p.store.BatchSet(ctx, kvs)
}

func (p *StoreProvider) UserRecords(ctx context.Context, userID string) ([]core.BorrowRecord, error) {
	data, err := p.store.Get(ctx, p.userKey(userID))
	if core.IsStoreNotFound(err) {
		return []core.BorrowRecord{}, nil
	}
	if err != nil {
		return nil, err
	}
	var out []core.BorrowRecord
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (p *StoreProvider) AllRecords(ctx context.Context) ([]core.BorrowRecord, error) {
	users, err := p.users(ctx)
	if err != nil || len(users) == 0 {
		return nil, err
	}
	keys := make([]string, len(users))
	for i, u := range users {
		keys[i] = p.userKey(u)
	}
	vals, err := p.store.BatchGet(ctx, keys)
	if err != nil {
		return nil, err
	}
	var out []core.BorrowRecord
	for _, k := range keys {
		data, ok := vals[k]
		if !ok {
			continue
		}
		var recs []core.BorrowRecord
		if err := json.Unmarshal(data, &recs); err != nil {
			return nil, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

func (p *StoreProvider) users(ctx context.Context) ([]string, error) {
	data, err := p.store.Get(ctx, p.indexKey())
	if core.IsStoreNotFound(err) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var users []string
	if err := json.Unmarshal(data, &users); err != nil {
		return nil, err
	}
	return users, nil
}
