package utils

import "strings"

// Label 是推荐链路中的一等公民：可解释、可追踪、可透传。
// 常用 key：recall_source、genre、reason、rank_reason。
type Label struct {
	Value  string `json:"value"`
	Source string `json:"source"` // recall / rank / rerank / filter ...
}

// MergeLabel 合并同名 Label，保留历史：
// - Value: 以 '|' 累积，重复值不再追加
// - Source: 以 ',' 累积
func MergeLabel(existing Label, incoming Label) Label {
	if existing.Value == "" {
		return incoming
	}
	if incoming.Value == "" {
		return existing
	}

	merged := existing
	if !containsPart(existing.Value, "|", incoming.Value) {
		merged.Value = existing.Value + "|" + incoming.Value
	}
	switch {
	case existing.Source == "":
		merged.Source = incoming.Source
	case incoming.Source == "" || containsPart(existing.Source, ",", incoming.Source):
		merged.Source = existing.Source
	default:
		merged.Source = existing.Source + "," + incoming.Source
	}
	return merged
}

// Values 返回累积后的各个值。
func (l Label) Values() []string {
	if l.Value == "" {
		return nil
	}
	return strings.Split(l.Value, "|")
}

func containsPart(s, sep, part string) bool {
	for _, p := range strings.Split(s, sep) {
		if p == part {
			return true
		}
	}
	return false
}
