// Package bookrec 是图书借阅推荐工具包：从借阅记录中挖掘题材关联规则，并据此推荐题材与图书。
//
// 设计要点：
//   - 挖掘核心（apriori）是纯计算：预处理 → 频繁项集 → 关联规则 → 推荐 / 评估
//   - 边界适配（history、catalog、feature）把外部借阅记录、馆藏、远程画像转为核心类型
//   - 图书推荐通过 Pipeline 串联：Feature → Recall → Filter → Rank → ReRank
//   - Labels 全链路透传，用于解释推荐原因
package bookrec

import (
	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/pipeline"
)

// 轻量 facade：便于直接 import "bookrec" 使用核心抽象。
type (
	Pipeline            = pipeline.Pipeline
	Node                = pipeline.Node
	Kind                = pipeline.Kind
	Recommender         = apriori.Recommender
	RuleSet             = apriori.RuleSet
	GenreRecommendation = apriori.GenreRecommendation
)

const (
	KindFeature     = pipeline.KindFeature
	KindRecall      = pipeline.KindRecall
	KindFilter      = pipeline.KindFilter
	KindRank        = pipeline.KindRank
	KindReRank      = pipeline.KindReRank
	KindPostProcess = pipeline.KindPostProcess
)

// NewRecommender 以默认阈值创建 Recommender。
func NewRecommender(opts ...apriori.Option) *Recommender {
	return apriori.NewRecommender(apriori.DefaultConfig(), opts...)
}
