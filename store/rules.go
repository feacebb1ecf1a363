package store

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"golang.org/x/sync/singleflight"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/core"
)

// TransactionLoader 加载参与挖掘的全量 Transaction。
type TransactionLoader func(ctx context.Context) ([]core.Transaction, error)

// RuleCache 按挖掘参数缓存规则集（JSON），多个请求同时未命中时只挖掘一次。
type RuleCache struct {
	store  core.Store
	prefix string
	ttl    int
	group  singleflight.Group
}

// RuleCacheOption 是 RuleCache 的构造选项。
type RuleCacheOption func(*RuleCache)

// WithRuleCachePrefix 设置 key 前缀，默认 "bookrec:rules"。
func WithRuleCachePrefix(prefix string) RuleCacheOption {
	return func(c *RuleCache) { c.prefix = prefix }
}

// WithRuleCacheTTL 设置缓存过期时间（秒），0 表示不过期。
func WithRuleCacheTTL(seconds int) RuleCacheOption {
	return func(c *RuleCache) { c.ttl = seconds }
}

func NewRuleCache(s core.Store, opts ...RuleCacheOption) *RuleCache {
	c := &RuleCache{store: s, prefix: "bookrec:rules", ttl: 3600}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Key 返回 cfg 对应的缓存 key。阈值与题材词表决定规则集，TopK 不参与。
func (c *RuleCache) Key(cfg apriori.Config) string {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.Join(core.AllowedGenresOrDefault(cfg.AllowedGenres), "\x00")))
	return fmt.Sprintf("%s:%g:%g:%g:%08x", c.prefix, cfg.MinSupport, cfg.MinConfidence, cfg.MinLift, h.Sum32())
}

// Get 读取缓存的规则集，未命中返回 core.ErrStoreNotFound。
func (c *RuleCache) Get(ctx context.Context, cfg apriori.Config) (*apriori.RuleSet, error) {
	data, err := c.store.Get(ctx, c.Key(cfg))
	if err != nil {
		return nil, err
	}
	return apriori.DecodeRuleSet(data)
}

// Put 写入规则集。缓存保留完整精度，命中时的推荐得分与直接挖掘相同。
func (c *RuleCache) Put(ctx context.Context, cfg apriori.Config, rs *apriori.RuleSet) error {
	data, err := rs.EncodeCompact()
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.Key(cfg), data, c.ttl)
}

// Invalidate 删除 cfg 对应的缓存，借阅数据变化后调用。
func (c *RuleCache) Invalidate(ctx context.Context, cfg apriori.Config) error {
	return c.store.Delete(ctx, c.Key(cfg))
}

// GetOrTrain 命中缓存直接返回；未命中时加载 Transaction、挖掘并回写缓存。
func (c *RuleCache) GetOrTrain(ctx context.Context, rec *apriori.Recommender, load TransactionLoader) (*apriori.RuleSet, error) {
	cfg := rec.Config()
	if rs, err := c.Get(ctx, cfg); err == nil {
		return rs, nil
	} else if !core.IsStoreNotFound(err) {
		return nil, err
	}

	v, err, _ := c.group.Do(c.Key(cfg), func() (any, error) {
		txns, err := load(ctx)
		if err != nil {
			return nil, err
		}
		rs := rec.Train(txns)
		if err := c.Put(ctx, cfg, rs); err != nil {
			return nil, err
		}
		return rs, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*apriori.RuleSet), nil
}
