package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/goccy/go-json"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/catalog"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/feast"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/history"
	"github.com/rushteam/bookrec/store"
)

func readRecords(path string) ([]core.BorrowRecord, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}
	var records []core.BorrowRecord
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse records %s: %w", path, err)
	}
	return records, nil
}

// loadTransactions 读取借阅记录并归一化为 Transaction；catalogPath 非空时用馆藏补全题材。
func (a *app) loadTransactions(ctx context.Context, path, catalogPath string) ([]core.Transaction, error) {
	records, err := readRecords(path)
	if err != nil {
		return nil, err
	}
	opts := append(a.cfg.History.NormalizerOptions(), history.WithLogger(a.logger))
	if catalogPath != "" {
		c, err := catalog.LoadFile(catalogPath)
		if err != nil {
			return nil, err
		}
		opts = append(opts, history.WithCatalog(c))
	}
	txns, stats, err := history.NewNormalizer(opts...).Normalize(ctx, records)
	if err != nil {
		return nil, err
	}
	a.logger.Info().
		Int("records", stats.Records).
		Int("transactions", stats.Transactions).
		Int("skipped", stats.Skipped).
		Msg("borrow records normalized")
	return txns, nil
}

func readRuleSet(path string) (*apriori.RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	return apriori.DecodeRuleSet(data)
}

// writeOutput 写文件；path 为空时写到标准输出。
func (a *app) writeOutput(path string, data []byte) error {
	if path == "" {
		_, err := a.out.Write(append(data, '\n'))
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// openStore 按配置打开存储后端。
func (a *app) openStore(ctx context.Context) (core.KeyValueStore, error) {
	switch a.cfg.Store.Backend {
	case "redis":
		s, err := store.NewRedisStore(ctx, a.cfg.Store.RedisAddr, a.cfg.Store.RedisPassword, a.cfg.Store.RedisDB)
		if err != nil {
			return nil, err
		}
		return s, nil
	default:
		return store.NewMemoryStore(), nil
	}
}

func (a *app) ruleCache(s core.Store) *store.RuleCache {
	return store.NewRuleCache(s, store.WithRuleCacheTTL(a.cfg.Store.RuleTTL))
}

const (
	profileCacheSize = 10000
	profileCacheTTL  = 5 * time.Minute
)

// profiles 返回题材画像来源：配置了 Feast 时以 Feast 为主、借阅历史兜底。
func (a *app) profiles(h history.Provider, c core.Catalog) (feature.ProfileProvider, func() error, error) {
	local := feature.NewHistoryProfileProvider(h, c)
	fc := a.cfg.Feast
	if fc.Endpoint == "" {
		return local, func() error { return nil }, nil
	}
	client, err := feast.NewClient(fc.Endpoint, fc.Project, feast.WithTimeout(fc.Timeout))
	if err != nil {
		return nil, nil, err
	}
	opts := []feature.FeastOption{feature.WithLogger(a.logger)}
	if fc.Feature != "" {
		opts = append(opts, feature.WithFeature(fc.Feature))
	}
	return &feature.FallbackProfileProvider{
		Primary: feature.NewCachedProfileProvider(
			feature.NewFeastProfileProvider(client, feature.DefaultBreakerConfig(), opts...),
			profileCacheSize, profileCacheTTL,
		),
		Fallback: local,
		Logger:   a.logger,
	}, client.Close, nil
}
