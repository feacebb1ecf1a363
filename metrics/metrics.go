// Package metrics 提供挖掘与推荐的 Prometheus 指标。
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rushteam/bookrec/apriori"
)

const namespace = "bookrec"

// Collector 实现 apriori.MetricsRecorder。
type Collector struct {
	miningDuration  prometheus.Histogram
	transactions    prometheus.Gauge
	itemsets        prometheus.Gauge
	rules           prometheus.Gauge
	recommendations prometheus.Counter
	requests        prometheus.Counter
}

var _ apriori.MetricsRecorder = (*Collector)(nil)

// NewCollector 创建并向 reg 注册指标；reg 为 nil 时不注册（便于测试）。
func NewCollector(reg prometheus.Registerer) (*Collector, error) {
	c := &Collector{
		miningDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "mining_duration_seconds",
			Help:      "Duration of preprocess + apriori + rule generation runs.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		transactions: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mining_transactions",
			Help:      "Valid transactions in the last mining run.",
		}),
		itemsets: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "frequent_itemsets",
			Help:      "Frequent itemsets found in the last mining run.",
		}),
		rules: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rules",
			Help:      "Association rules kept in the last mining run.",
		}),
		recommendations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_total",
			Help:      "Genre recommendations returned.",
		}),
		requests: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommend_requests_total",
			Help:      "Recommend calls served.",
		}),
	}
	if reg == nil {
		return c, nil
	}
	for _, col := range []prometheus.Collector{
		c.miningDuration, c.transactions, c.itemsets, c.rules, c.recommendations, c.requests,
	} {
		if err := reg.Register(col); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Collector) ObserveMining(duration time.Duration, transactions, itemsets, rules int) {
	c.miningDuration.Observe(duration.Seconds())
	c.transactions.Set(float64(transactions))
	c.itemsets.Set(float64(itemsets))
	c.rules.Set(float64(rules))
}

func (c *Collector) ObserveRecommend(recommendations int) {
	c.requests.Inc()
	c.recommendations.Add(float64(recommendations))
}
