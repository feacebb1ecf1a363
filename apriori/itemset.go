package apriori

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

// Itemset 是一组题材，成员始终按字典序排列且不重复。
type Itemset []string

// NewItemset 对成员去重并排序。
func NewItemset(members ...string) Itemset {
	seen := make(map[string]struct{}, len(members))
	out := make(Itemset, 0, len(members))
	for _, m := range members {
		if _, ok := seen[m]; ok {
			continue
		}
		seen[m] = struct{}{}
		out = append(out, m)
	}
	sort.Strings(out)
	return out
}

// Key 返回规范化键：排序后成员的 JSON 数组，例如 ["Crime","Mystery"]。
// 集合相等与插入顺序无关，规则生成阶段依赖这一点查找子集支持度。
func (s Itemset) Key() string {
	b, err := json.Marshal([]string(s))
	if err != nil {
		// []string 的编码不会失败
		return "[]"
	}
	return string(b)
}

// ParseKey 把规范化键还原为 Itemset。
func ParseKey(key string) (Itemset, error) {
	var members []string
	if err := json.Unmarshal([]byte(key), &members); err != nil {
		return nil, err
	}
	return NewItemset(members...), nil
}

// Contains 判断 g 是否为成员。
func (s Itemset) Contains(g string) bool {
	i := sort.SearchStrings(s, g)
	return i < len(s) && s[i] == g
}

// SubsetOf 判断 s 的每个成员都在 set 中。
func (s Itemset) SubsetOf(set map[string]struct{}) bool {
	for _, g := range s {
		if _, ok := set[g]; !ok {
			return false
		}
	}
	return true
}

// Union 返回两个集合的并集。
func (s Itemset) Union(o Itemset) Itemset {
	out := make([]string, 0, len(s)+len(o))
	out = append(out, s...)
	out = append(out, o...)
	return NewItemset(out...)
}

func (s Itemset) String() string {
	return "{" + strings.Join(s, ", ") + "}"
}

// FrequentItemsets 是规范化键到支持度的映射。
type FrequentItemsets map[string]float64

// Support 查找 itemset 的支持度，不在频繁集中时返回 false。
func (f FrequentItemsets) Support(s Itemset) (float64, bool) {
	v, ok := f[s.Key()]
	return v, ok
}

// Keys 返回排序后的键，用于确定性遍历。
func (f FrequentItemsets) Keys() []string {
	keys := make([]string, 0, len(f))
	for k := range f {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// OfSize 返回大小为 k 的频繁项集（按键排序）。
func (f FrequentItemsets) OfSize(k int) []Itemset {
	out := make([]Itemset, 0)
	for _, key := range f.Keys() {
		s, err := ParseKey(key)
		if err != nil || len(s) != k {
			continue
		}
		out = append(out, s)
	}
	return out
}

func toSet(members []string) map[string]struct{} {
	set := make(map[string]struct{}, len(members))
	for _, m := range members {
		set[m] = struct{}{}
	}
	return set
}
