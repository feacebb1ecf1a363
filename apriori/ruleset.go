package apriori

import (
	"math"
	"time"

	"github.com/goccy/go-json"
)

// Params 是生成规则集时使用的参数，随规则集一起持久化。
type Params struct {
	MinSupport    float64 `json:"minsup"`
	MinConfidence float64 `json:"minconf"`
	MinLift       float64 `json:"minlift"`
	TopK          int     `json:"top_k"`
}

// RuleSet 是一次挖掘的产物：参数、生成时间、规则。
type RuleSet struct {
	Params      Params    `json:"parameters"`
	GeneratedAt time.Time `json:"generated_at"`
	Rules       Rules     `json:"rules"`

	// Itemsets 不参与序列化，只在同一进程内保留挖掘中间结果
	Itemsets FrequentItemsets `json:"-"`
}

// Encode 把规则集编码为缩进 JSON，度量值保留 4 位小数。
func (rs *RuleSet) Encode() ([]byte, error) {
	out := *rs
	out.Rules = make(Rules, len(rs.Rules))
	for i, r := range rs.Rules {
		r.Support = round4(r.Support)
		r.Confidence = round4(r.Confidence)
		r.Lift = round4(r.Lift)
		out.Rules[i] = r
	}
	return json.MarshalIndent(&out, "", "  ")
}

// EncodeCompact 把规则集编码为紧凑 JSON，度量值保持完整精度。
// 供进程间缓存使用，解码后的规则与挖掘结果逐位一致。
func (rs *RuleSet) EncodeCompact() ([]byte, error) {
	return json.Marshal(rs)
}

// DecodeRuleSet 解析 Encode 或 EncodeCompact 的输出。前件/后件重新规范化为有序集合。
func DecodeRuleSet(data []byte) (*RuleSet, error) {
	var rs RuleSet
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	for i := range rs.Rules {
		rs.Rules[i].Antecedent = NewItemset(rs.Rules[i].Antecedent...)
		rs.Rules[i].Consequent = NewItemset(rs.Rules[i].Consequent...)
	}
	return &rs, nil
}

func round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
