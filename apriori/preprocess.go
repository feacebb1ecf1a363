package apriori

import "github.com/rushteam/bookrec/core"

// Preprocess 对每个 Transaction 的题材去重并与 allowed 求交集，丢弃结果为空的 Transaction。
// 纯函数：不修改入参，题材保留首次出现的顺序。
func Preprocess(txns []core.Transaction, allowed []string) []core.Transaction {
	allowSet := toSet(allowed)
	out := make([]core.Transaction, 0, len(txns))
	for _, txn := range txns {
		seen := make(map[string]struct{}, len(txn.Genres))
		genres := make([]string, 0, len(txn.Genres))
		for _, g := range txn.Genres {
			if _, ok := allowSet[g]; !ok {
				continue
			}
			if _, dup := seen[g]; dup {
				continue
			}
			seen[g] = struct{}{}
			genres = append(genres, g)
		}
		if len(genres) == 0 {
			continue
		}
		txn.Genres = genres
		out = append(out, txn)
	}
	return out
}
