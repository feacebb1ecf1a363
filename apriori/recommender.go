package apriori

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
)

// DefaultBatchConcurrency 是 RecommendBatch 默认的最大并发数。
const DefaultBatchConcurrency = 8

// MetricsRecorder 接收挖掘与推荐的观测数据，由 metrics.Collector 实现。
type MetricsRecorder interface {
	ObserveMining(duration time.Duration, transactions, itemsets, rules int)
	ObserveRecommend(recommendations int)
}

// Recommender 是基于 Apriori 关联规则的题材推荐器。
//
// Recommender 是无状态的：阈值与题材词表在构造时确定，每次调用都从入参重新计算，
// 因此可以被多个 goroutine 并发使用。
//
// 使用示例：
//
//	rec := apriori.NewRecommender(apriori.DefaultConfig())
//	rs := rec.Train(transactions)
//	recs := rec.Recommend([]string{"Mystery", "Thriller"}, rs.Rules, 5)
type Recommender struct {
	cfg     Config
	allowed []string
	logger  zerolog.Logger
	metrics MetricsRecorder
	batch   int
}

// Option 是 Recommender 的构造选项。
type Option func(*Recommender)

// WithLogger 设置日志，默认不输出。
func WithLogger(l zerolog.Logger) Option {
	return func(r *Recommender) {
		r.logger = l
	}
}

// WithMetrics 设置观测。
func WithMetrics(m MetricsRecorder) Option {
	return func(r *Recommender) {
		r.metrics = m
	}
}

// WithBatchConcurrency 设置 RecommendBatch 的最大并发数，<= 0 表示不限制。
func WithBatchConcurrency(n int) Option {
	return func(r *Recommender) {
		r.batch = n
	}
}

// NewRecommender 创建推荐器。AllowedGenres 为空时使用默认词表，TopK 为 0 时使用默认值。
func NewRecommender(cfg Config, opts ...Option) *Recommender {
	if cfg.TopK == 0 {
		cfg.TopK = core.DefaultTopK
	}
	r := &Recommender{
		cfg:     cfg,
		allowed: core.AllowedGenresOrDefault(cfg.AllowedGenres),
		logger:  zerolog.Nop(),
		batch:   DefaultBatchConcurrency,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Config 返回构造时的配置。
func (r *Recommender) Config() Config {
	cfg := r.cfg
	cfg.AllowedGenres = core.AllowedGenresOrDefault(r.allowed)
	return cfg
}

// Preprocess 按题材词表清洗 Transaction。
func (r *Recommender) Preprocess(txns []core.Transaction) []core.Transaction {
	out := Preprocess(txns, r.allowed)
	r.logger.Debug().Int("raw", len(txns)).Int("valid", len(out)).Msg("preprocess transactions")
	return out
}

// Apriori 以 MinSupport 挖掘频繁项集。
func (r *Recommender) Apriori(txns []core.Transaction) FrequentItemsets {
	freq, stats := MineWithStats(txns, r.cfg.MinSupport)
	r.logger.Debug().
		Int("transactions", stats.Transactions).
		Int("unique_genres", stats.UniqueGenres).
		Float64("minsup", r.cfg.MinSupport).
		Msg("apriori start")
	for _, lv := range stats.Levels {
		r.logger.Debug().
			Int("k", lv.K).
			Int("candidates", lv.Candidates).
			Int("frequent", lv.Frequent).
			Msg("apriori level")
	}
	r.logger.Debug().Int("itemsets", len(freq)).Msg("apriori done")
	return freq
}

// GenerateRules 以 MinConfidence / MinLift 生成规则。
func (r *Recommender) GenerateRules(freq FrequentItemsets) Rules {
	rules := GenerateRules(freq, r.cfg.MinConfidence, r.cfg.MinLift)
	r.logger.Debug().
		Float64("minconf", r.cfg.MinConfidence).
		Float64("minlift", r.cfg.MinLift).
		Int("rules", len(rules)).
		Msg("rules generated")
	return rules
}

// Train 依次执行预处理、频繁项集挖掘与规则生成，返回规则集。
func (r *Recommender) Train(txns []core.Transaction) *RuleSet {
	start := time.Now()
	processed := r.Preprocess(txns)
	freq := r.Apriori(processed)
	rules := r.GenerateRules(freq)
	if r.metrics != nil {
		r.metrics.ObserveMining(time.Since(start), len(processed), len(freq), len(rules))
	}
	return &RuleSet{
		Params: Params{
			MinSupport:    r.cfg.MinSupport,
			MinConfidence: r.cfg.MinConfidence,
			MinLift:       r.cfg.MinLift,
			TopK:          r.cfg.TopK,
		},
		GeneratedAt: start.UTC(),
		Rules:       rules,
		Itemsets:    freq,
	}
}

// Recommend 为题材画像推荐题材；topK <= 0 时使用配置中的 TopK。
func (r *Recommender) Recommend(userGenres []string, rules []Rule, topK int) []GenreRecommendation {
	if topK <= 0 {
		topK = r.cfg.TopK
	}
	recs := Recommend(userGenres, rules, topK)
	if r.metrics != nil {
		r.metrics.ObserveRecommend(len(recs))
	}
	if e := r.logger.Debug(); e.Enabled() {
		for _, rec := range recs {
			e = e.Float64(rec.Genre, rec.Score)
		}
		e.Strs("profile", userGenres).Msg("recommend")
	}
	return recs
}

// RecommendBatch 并发为多个用户推荐。profiles 为 userID → 题材画像。
// 任一调用被 ctx 取消时返回 ctx 的错误。
func (r *Recommender) RecommendBatch(
	ctx context.Context,
	profiles map[string][]string,
	rules []Rule,
	topK int,
) (map[string][]GenreRecommendation, error) {
	var (
		mu  sync.Mutex
		out = make(map[string][]GenreRecommendation, len(profiles))
	)
	eg, egCtx := errgroup.WithContext(ctx)
	if r.batch > 0 {
		eg.SetLimit(r.batch)
	}
	for userID, genres := range profiles {
		uid, g := userID, genres
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			recs := r.Recommend(g, rules, topK)
			mu.Lock()
			out[uid] = recs
			mu.Unlock()
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// Evaluate 留出法评估；k <= 0 时使用配置中的 TopK。
func (r *Recommender) Evaluate(txns []core.Transaction, rules []Rule, k int) Metrics {
	if k <= 0 {
		k = r.cfg.TopK
	}
	m := Evaluate(txns, rules, k)
	r.logger.Info().
		Int("k", k).
		Float64("precision", m.Precision).
		Float64("recall", m.Recall).
		Float64("coverage", m.Coverage).
		Int("users", m.UsersEvaluated).
		Msg("evaluation")
	return m
}
