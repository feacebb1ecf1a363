package feature

import (
	"context"
	"sync"
	"time"
)

// CachedProfileProvider 在 ProfileProvider 前加一层内存缓存（TTL + 最久未访问淘汰），
// 减少对远程画像服务的访问。失败结果不缓存。
type CachedProfileProvider struct {
	Provider ProfileProvider

	mu      sync.Mutex
	entries map[string]*cacheEntry
	maxSize int
	ttl     time.Duration
	now     func() time.Time
}

type cacheEntry struct {
	genres     []string
	expireTime time.Time
	accessTime time.Time
}

// NewCachedProfileProvider 创建缓存，maxSize <= 0 时不限条数。
func NewCachedProfileProvider(p ProfileProvider, maxSize int, ttl time.Duration) *CachedProfileProvider {
	return &CachedProfileProvider{
		Provider: p,
		entries:  make(map[string]*cacheEntry),
		maxSize:  maxSize,
		ttl:      ttl,
		now:      time.Now,
	}
}

func (c *CachedProfileProvider) UserGenres(ctx context.Context, userID string) ([]string, error) {
	now := c.now()
	c.mu.Lock()
	if e, ok := c.entries[userID]; ok && now.Before(e.expireTime) {
		e.accessTime = now
		genres := append([]string(nil), e.genres...)
		c.mu.Unlock()
		return genres, nil
	}
	c.mu.Unlock()

	genres, err := c.Provider.UserGenres(ctx, userID)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[userID] = &cacheEntry{
		genres:     append([]string(nil), genres...),
		expireTime: now.Add(c.ttl),
		accessTime: now,
	}
	c.evict(now)
	return genres, nil
}

// Invalidate 删除用户的缓存画像（例如用户有了新的借阅）。
func (c *CachedProfileProvider) Invalidate(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, userID)
}

// Len 返回当前缓存条数。
func (c *CachedProfileProvider) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *CachedProfileProvider) evict(now time.Time) {
	for k, e := range c.entries {
		if !now.Before(e.expireTime) {
			delete(c.entries, k)
		}
	}
	for c.maxSize > 0 && len(c.entries) > c.maxSize {
		var oldestKey string
		var oldest time.Time
		first := true
		for k, e := range c.entries {
			if first || e.accessTime.Before(oldest) {
				oldestKey, oldest, first = k, e.accessTime, false
			}
		}
		delete(c.entries, oldestKey)
	}
}
