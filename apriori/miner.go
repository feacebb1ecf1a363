package apriori

import (
	"sort"

	"github.com/rushteam/bookrec/core"
)

// LevelStats 记录一层迭代的规模，K 为项集大小。
type LevelStats struct {
	K          int
	Candidates int
	Frequent   int
}

// MineStats 是一次挖掘的过程统计。
type MineStats struct {
	Transactions int
	UniqueGenres int
	Levels       []LevelStats
}

// Mine 逐层挖掘支持度 >= minsup 的全部频繁项集。
func Mine(txns []core.Transaction, minsup float64) FrequentItemsets {
	freq, _ := MineWithStats(txns, minsup)
	return freq
}

// MineWithStats 与 Mine 相同，同时返回每层的候选数与频繁数。
//
// 候选生成采用朴素的两两合并：对 L(k-1) 中任意两个项集求并，并集大小恰为 k 即为候选，
// 不做经典 Apriori 的前缀连接与子集剪枝。结果正确，但每层候选数为 O(|L(k-1)|²)，
// 只适用于十几个题材规模的词表，调用方需要自行控制输入规模。
func MineWithStats(txns []core.Transaction, minsup float64) (FrequentItemsets, MineStats) {
	n := len(txns)
	stats := MineStats{Transactions: n}
	all := make(FrequentItemsets)
	if n == 0 {
		return all, stats
	}

	sets := make([]map[string]struct{}, n)
	counts := make(map[string]int)
	for i, txn := range txns {
		sets[i] = toSet(txn.Genres)
		for g := range sets[i] {
			counts[g]++
		}
	}
	stats.UniqueGenres = len(counts)

	// L1
	level := make([]Itemset, 0, len(counts))
	for g, c := range counts {
		support := float64(c) / float64(n)
		if support >= minsup {
			s := Itemset{g}
			all[s.Key()] = support
			level = append(level, s)
		}
	}
	sortItemsets(level)
	stats.Levels = append(stats.Levels, LevelStats{K: 1, Candidates: len(counts), Frequent: len(level)})

	for k := 2; len(level) > 0; k++ {
		candidates := generateCandidates(level, k)
		next := make([]Itemset, 0, len(candidates))
		for _, c := range candidates {
			count := 0
			for _, set := range sets {
				if c.SubsetOf(set) {
					count++
				}
			}
			support := float64(count) / float64(n)
			if support >= minsup {
				all[c.Key()] = support
				next = append(next, c)
			}
		}
		stats.Levels = append(stats.Levels, LevelStats{K: k, Candidates: len(candidates), Frequent: len(next)})
		level = next
	}
	return all, stats
}

// generateCandidates 对 prev 两两求并，保留大小为 k 的并集（按键去重、排序）。
func generateCandidates(prev []Itemset, k int) []Itemset {
	seen := make(map[string]struct{})
	out := make([]Itemset, 0)
	for i := 0; i < len(prev); i++ {
		for j := i + 1; j < len(prev); j++ {
			u := prev[i].Union(prev[j])
			if len(u) != k {
				continue
			}
			key := u.Key()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			out = append(out, u)
		}
	}
	sortItemsets(out)
	return out
}

func sortItemsets(s []Itemset) {
	sort.Slice(s, func(i, j int) bool { return s[i].Key() < s[j].Key() })
}
