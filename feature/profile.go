// Package feature 解析用户的题材画像：来自本地借阅历史，或来自 Feast 在线特征。
package feature

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/feast"
	"github.com/rushteam/bookrec/history"
)

// ProfileProvider 返回用户的题材画像（集合语义，已按偏好排序）。
// 用户没有画像时返回空切片，不返回错误。
type ProfileProvider interface {
	UserGenres(ctx context.Context, userID string) ([]string, error)
}

// ProfileProviderFunc 把函数适配为 ProfileProvider。
type ProfileProviderFunc func(ctx context.Context, userID string) ([]string, error)

func (f ProfileProviderFunc) UserGenres(ctx context.Context, userID string) ([]string, error) {
	return f(ctx, userID)
}

// HistoryProfileProvider 从借阅历史计算画像：借阅次数最多的 Size 个题材。
type HistoryProfileProvider struct {
	History history.Provider
	Catalog core.Catalog
	Size    int
}

func NewHistoryProfileProvider(h history.Provider, c core.Catalog) *HistoryProfileProvider {
	return &HistoryProfileProvider{History: h, Catalog: c, Size: history.DefaultProfileSize}
}

func (p *HistoryProfileProvider) UserGenres(ctx context.Context, userID string) ([]string, error) {
	records, err := p.History.UserRecords(ctx, userID)
	if err != nil {
		return nil, err
	}
	profile, err := history.BuildProfile(ctx, userID, records, p.Catalog)
	if err != nil {
		return nil, err
	}
	genres := profile.TopGenres(p.Size)
	if genres == nil {
		genres = []string{}
	}
	return genres, nil
}

// BreakerConfig 是远程画像的熔断配置。
type BreakerConfig struct {
	Name             string
	MaxRequests      uint32        // 半开状态允许的请求数
	Interval         time.Duration // 闭合状态下计数清零的周期
	Timeout          time.Duration // 打开状态持续时间
	FailureThreshold uint32        // 连续失败多少次后打开
}

// DefaultBreakerConfig 返回默认熔断配置。
func DefaultBreakerConfig() BreakerConfig {
	return BreakerConfig{
		Name:             "feast-profile",
		MaxRequests:      1,
		Interval:         time.Minute,
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
	}
}

// FeastProfileProvider 从 Feast 在线特征读取题材画像（字符串列表特征）。
// 调用经过熔断器，熔断打开时返回 core.ErrProfileUnavailable。
type FeastProfileProvider struct {
	client    feast.Client
	feature   string
	entityKey string
	breaker   *gobreaker.CircuitBreaker[[]string]
	logger    zerolog.Logger
}

// DefaultGenreFeature 是题材画像的特征名
const DefaultGenreFeature = "user_genre_profile:genres"

type FeastOption func(*FeastProfileProvider)

func WithFeature(name string) FeastOption {
	return func(p *FeastProfileProvider) { p.feature = name }
}

func WithEntityKey(key string) FeastOption {
	return func(p *FeastProfileProvider) { p.entityKey = key }
}

func WithLogger(l zerolog.Logger) FeastOption {
	return func(p *FeastProfileProvider) { p.logger = l }
}

func NewFeastProfileProvider(client feast.Client, cfg BreakerConfig, opts ...FeastOption) *FeastProfileProvider {
	p := &FeastProfileProvider{
		client:    client,
		feature:   DefaultGenreFeature,
		entityKey: "user_id",
		logger:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.breaker = gobreaker.NewCircuitBreaker[[]string](gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			p.logger.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("circuit breaker state changed")
		},
	})
	return p
}

// State 返回熔断器状态（closed / half-open / open）。
func (p *FeastProfileProvider) State() string {
	return p.breaker.State().String()
}

func (p *FeastProfileProvider) UserGenres(ctx context.Context, userID string) ([]string, error) {
	genres, err := p.breaker.Execute(func() ([]string, error) {
		return p.fetch(ctx, userID)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.WrapDomainError(core.ErrProfileUnavailable, err)
	}
	return genres, err
}

func (p *FeastProfileProvider) fetch(ctx context.Context, userID string) ([]string, error) {
	resp, err := p.client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
		Features:   []string{p.feature},
		EntityRows: []map[string]any{{p.entityKey: userID}},
	})
	if err != nil {
		return nil, err
	}
	if len(resp.FeatureVectors) == 0 {
		return []string{}, nil
	}
	switch v := resp.FeatureVectors[0].Values[p.feature].(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case string:
		return []string{v}, nil
	default:
		return nil, fmt.Errorf("feature %s: unexpected value type %T", p.feature, v)
	}
}

// FallbackProfileProvider 先查 Primary，失败时降级到 Fallback。
type FallbackProfileProvider struct {
	Primary  ProfileProvider
	Fallback ProfileProvider
	Logger   zerolog.Logger
}

func (p *FallbackProfileProvider) UserGenres(ctx context.Context, userID string) ([]string, error) {
	genres, err := p.Primary.UserGenres(ctx, userID)
	if err == nil {
		return genres, nil
	}
	p.Logger.Warn().Err(err).Str("user_id", userID).Msg("profile provider degraded to fallback")
	return p.Fallback.UserGenres(ctx, userID)
}
