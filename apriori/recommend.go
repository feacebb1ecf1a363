package apriori

import (
	"sort"
	"strings"
)

// MaxReasons 是每个推荐题材保留的解释条数上限。
const MaxReasons = 3

// GenreRecommendation 是一个推荐题材及其累计得分与解释。
type GenreRecommendation struct {
	Genre   string   `json:"genre"`
	Score   float64  `json:"score"`
	Reasons []string `json:"reasons"`
}

// Recommend 用规则集为题材画像 userGenres 推荐新题材，返回至多 topK 个。
//
// 前件是画像子集的规则才生效；对其后件中画像之外的每个题材累加 confidence*lift，
// 并记录一条 "Users who enjoy {前件} also like {题材}" 解释（最多 MaxReasons 条，之后只累加分数）。
// 得分不做归一化。按得分降序稳定排序，同分保持首次出现的顺序。
// 没有任何规则命中时返回空列表。
func Recommend(userGenres []string, rules []Rule, topK int) []GenreRecommendation {
	profile := toSet(userGenres)
	index := make(map[string]int)
	recs := make([]GenreRecommendation, 0)

	for _, rule := range rules {
		if len(rule.Antecedent) == 0 || !rule.Antecedent.SubsetOf(profile) {
			continue
		}
		score := rule.Confidence * rule.Lift
		for _, genre := range rule.Consequent {
			if _, owned := profile[genre]; owned {
				continue
			}
			i, ok := index[genre]
			if !ok {
				i = len(recs)
				index[genre] = i
				recs = append(recs, GenreRecommendation{Genre: genre})
			}
			recs[i].Score += score
			if len(recs[i].Reasons) < MaxReasons {
				recs[i].Reasons = append(recs[i].Reasons, reason(rule.Antecedent, genre))
			}
		}
	}

	sort.SliceStable(recs, func(i, j int) bool { return recs[i].Score > recs[j].Score })
	if topK >= 0 && len(recs) > topK {
		recs = recs[:topK]
	}
	return recs
}

func reason(antecedent Itemset, genre string) string {
	return "Users who enjoy " + strings.Join(antecedent, ", ") + " also like " + genre
}
