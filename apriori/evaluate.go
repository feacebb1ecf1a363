package apriori

import (
	"sort"

	"github.com/rushteam/bookrec/core"
)

// Metrics 是留出法评估结果。
type Metrics struct {
	Precision      float64 `json:"precision"`
	Recall         float64 `json:"recall"`
	Coverage       float64 `json:"coverage"`
	UsersEvaluated int     `json:"users_evaluated"`
}

// Evaluate 以每个用户最近一次 Transaction 为测试集评估规则集。
//
//   - 只有 Transaction 数 >= 2 的用户参与；最近一次（按 Timestamp，相同时间按输入顺序）留出，
//     其余 Transaction 的题材并集作为画像。
//   - precision = |推荐 ∩ 相关| / k，分母是名义 k 而不是实际推荐数。
//   - recall = |推荐 ∩ 相关| / |相关|，相关集为空时记 0。
//   - coverage = |全部用户被推荐过的题材| / |所有 Transaction 出现过的题材|。
func Evaluate(txns []core.Transaction, rules []Rule, k int) Metrics {
	order := make([]string, 0)
	byUser := make(map[string][]core.Transaction)
	allGenres := make(map[string]struct{})
	for _, txn := range txns {
		if _, ok := byUser[txn.UserID]; !ok {
			order = append(order, txn.UserID)
		}
		byUser[txn.UserID] = append(byUser[txn.UserID], txn)
		for _, g := range txn.Genres {
			allGenres[g] = struct{}{}
		}
	}

	var (
		sumPrecision float64
		sumRecall    float64
		users        int
		recommended  = make(map[string]struct{})
	)
	for _, userID := range order {
		userTxns := byUser[userID]
		if len(userTxns) < 2 {
			continue
		}
		sort.SliceStable(userTxns, func(i, j int) bool {
			return userTxns[i].Timestamp.Before(userTxns[j].Timestamp)
		})
		train, test := userTxns[:len(userTxns)-1], userTxns[len(userTxns)-1]

		profile := make([]string, 0)
		seen := make(map[string]struct{})
		for _, txn := range train {
			for _, g := range txn.Genres {
				if _, ok := seen[g]; ok {
					continue
				}
				seen[g] = struct{}{}
				profile = append(profile, g)
			}
		}

		relevant := toSet(test.Genres)
		hits := 0
		for _, rec := range Recommend(profile, rules, k) {
			recommended[rec.Genre] = struct{}{}
			if _, ok := relevant[rec.Genre]; ok {
				hits++
			}
		}

		if k > 0 {
			sumPrecision += float64(hits) / float64(k)
		}
		if len(relevant) > 0 {
			sumRecall += float64(hits) / float64(len(relevant))
		}
		users++
	}

	m := Metrics{UsersEvaluated: users}
	if users > 0 {
		m.Precision = sumPrecision / float64(users)
		m.Recall = sumRecall / float64(users)
	}
	if len(allGenres) > 0 {
		m.Coverage = float64(len(recommended)) / float64(len(allGenres))
	}
	return m
}
