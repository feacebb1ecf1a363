package apriori

import (
	"fmt"
	"sort"
)

// Rule 是关联规则 Antecedent → Consequent。
// Antecedent 与 Consequent 非空、互不相交，二者的并集是一个频繁项集。
type Rule struct {
	Antecedent Itemset `json:"antecedent"`
	Consequent Itemset `json:"consequent"`
	Support    float64 `json:"support"`
	Confidence float64 `json:"confidence"`
	Lift       float64 `json:"lift"`
}

func (r Rule) String() string {
	return fmt.Sprintf("%s → %s (supp=%.3f, conf=%.3f, lift=%.3f)",
		r.Antecedent, r.Consequent, r.Support, r.Confidence, r.Lift)
}

// Itemset 返回规则覆盖的完整项集。
func (r Rule) Itemset() Itemset {
	return r.Antecedent.Union(r.Consequent)
}

// Rules 是规则列表。
type Rules []Rule

// TopByLift 返回按提升度降序的前 n 条规则（不修改原列表）。
func (rs Rules) TopByLift(n int) Rules {
	out := make(Rules, len(rs))
	copy(out, rs)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Lift > out[j].Lift })
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// GenerateRules 从频繁项集生成满足 confidence >= minconf 且 lift >= minlift 的规则。
//
// 对每个大小 >= 2 的项集，枚举其幂集中全部非空真子集作为前件，补集作为后件：
//
//	confidence = support(itemset) / support(antecedent)
//	lift       = confidence / support(consequent)
//
// 前件或后件不在 freq 中时跳过（频繁项集的子集理应频繁，这里只做防护）。
// 项集按规范化键排序遍历、子集按位掩码顺序枚举，因此同一输入的输出顺序固定。
func GenerateRules(freq FrequentItemsets, minconf, minlift float64) Rules {
	rules := make(Rules, 0)
	for _, key := range freq.Keys() {
		itemset, err := ParseKey(key)
		if err != nil || len(itemset) < 2 {
			continue
		}
		suppXY := freq[key]
		n := len(itemset)
		for mask := 1; mask < (1<<n)-1; mask++ {
			ante := make(Itemset, 0, n)
			cons := make(Itemset, 0, n)
			for j := 0; j < n; j++ {
				if mask&(1<<j) != 0 {
					ante = append(ante, itemset[j])
				} else {
					cons = append(cons, itemset[j])
				}
			}
			suppX, ok := freq.Support(ante)
			if !ok || suppX == 0 {
				continue
			}
			suppY, ok := freq.Support(cons)
			if !ok || suppY == 0 {
				continue
			}
			confidence := suppXY / suppX
			lift := confidence / suppY
			if confidence >= minconf && lift >= minlift {
				rules = append(rules, Rule{
					Antecedent: ante,
					Consequent: cons,
					Support:    suppXY,
					Confidence: confidence,
					Lift:       lift,
				})
			}
		}
	}
	return rules
}
