// Package builders 在 init 中向 config 注册内置 Node。
package builders

import (
	"fmt"
	"time"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/rank"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

func init() {
	config.Register("feature.user_context", BuildUserContextNode)
	config.Register("recall.fanout", BuildFanoutNode)
	config.Register("recall.apriori", BuildGenreRulesNode)
	config.Register("recall.popular", BuildPopularNode)
	config.Register("recall.similar", BuildSimilarNode)
	config.Register("filter", BuildFilterNode)
	config.Register("rank.heuristic", BuildHeuristicNode)
	config.Register("rerank.topn", BuildTopNNode)
	config.Register("rerank.diversity", BuildDiversityNode)
}

func BuildUserContextNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	if deps.History == nil {
		return nil, fmt.Errorf("feature.user_context: history provider not configured")
	}
	return &feature.UserContextNode{
		History:  deps.History,
		Catalog:  deps.Catalog,
		Profiles: deps.Profiles,
		Size:     conv.ConfigGetInt(cfg, "size", 0),
		Logger:   deps.Logger,
	}, nil
}

func BuildFanoutNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	sourcesConfig, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("sources not found or invalid")
	}
	sources := make([]recall.Source, 0, len(sourcesConfig))
	for _, sc := range sourcesConfig {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		src, err := buildSource(deps, conv.ConfigGet(sourceMap, "type", ""), sourceMap)
		if err != nil {
			return nil, err
		}
		sources = append(sources, src)
	}
	fanout := &recall.Fanout{
		Sources: sources,
		Dedup:   conv.ConfigGet(cfg, "dedup", true),
		Logger:  deps.Logger,
	}
	if ms := conv.ConfigGetInt(cfg, "timeout_ms", 0); ms > 0 {
		fanout.Timeout = time.Duration(ms) * time.Millisecond
	}
	if n := conv.ConfigGetInt(cfg, "max_concurrent", 0); n > 0 {
		fanout.MaxConcurrent = n
	}
	switch s := conv.ConfigGet(cfg, "merge_strategy", ""); s {
	case "", "first":
		fanout.MergeStrategy = &recall.FirstMergeStrategy{}
	case "union":
		fanout.MergeStrategy = &recall.UnionMergeStrategy{}
	case "max_score":
		fanout.MergeStrategy = &recall.MaxScoreMergeStrategy{}
	default:
		return nil, fmt.Errorf("unknown merge strategy: %s", s)
	}
	return fanout, nil
}

func buildSource(deps *config.Deps, sourceType string, cfg map[string]any) (recall.Source, error) {
	switch sourceType {
	case "apriori":
		return genreRules(deps, cfg)
	case "popular":
		return popular(deps, cfg)
	case "similar":
		return similar(deps, cfg)
	default:
		return nil, fmt.Errorf("unknown source type: %s", sourceType)
	}
}

func BuildGenreRulesNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	return genreRules(deps, cfg)
}

func BuildPopularNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	return popular(deps, cfg)
}

func BuildSimilarNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	return similar(deps, cfg)
}

func genreRules(deps *config.Deps, cfg map[string]any) (*recall.GenreRules, error) {
	if deps.Recommender == nil || deps.Rules == nil || deps.Catalog == nil {
		return nil, fmt.Errorf("apriori recall needs recommender, rules and catalog")
	}
	return &recall.GenreRules{
		Recommender: deps.Recommender,
		Rules:       deps.Rules,
		Catalog:     deps.Catalog,
		Profiles:    deps.Profiles,
		TopK:        conv.ConfigGetInt(cfg, "top_k", 0),
		PerGenre:    conv.ConfigGetInt(cfg, "per_genre", 0),
	}, nil
}

func popular(deps *config.Deps, cfg map[string]any) (*recall.Popular, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("popular recall needs catalog")
	}
	return &recall.Popular{
		Store:   deps.KV,
		Key:     conv.ConfigGet(cfg, "key", recall.DefaultPopularKey),
		Catalog: deps.Catalog,
		TopN:    conv.ConfigGetInt(cfg, "top_n", 0),
	}, nil
}

func similar(deps *config.Deps, cfg map[string]any) (*recall.Similar, error) {
	if deps.Catalog == nil {
		return nil, fmt.Errorf("similar recall needs catalog")
	}
	return &recall.Similar{
		Catalog:  deps.Catalog,
		ParamKey: conv.ConfigGet(cfg, "param_key", ""),
		TopN:     conv.ConfigGetInt(cfg, "top_n", 0),
	}, nil
}

func BuildFilterNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	filtersConfig, ok := cfg["filters"].([]any)
	if !ok {
		return nil, fmt.Errorf("filters not found or invalid")
	}
	filters := make([]filter.Filter, 0, len(filtersConfig))
	for _, fc := range filtersConfig {
		filterMap, ok := fc.(map[string]any)
		if !ok {
			continue
		}
		filterType := conv.ConfigGet(filterMap, "type", "")
		switch filterType {
		case "borrowed":
			filters = append(filters, filter.BorrowedFilter{})
		case "availability":
			filters = append(filters, filter.AvailabilityFilter{})
		case "blacklist":
			ids := conv.ConfigGetStrings(filterMap, "item_ids")
			key := conv.ConfigGet(filterMap, "key", "")
			filters = append(filters, filter.NewBlacklistFilter(ids, deps.Store, key))
		case "expr":
			f, err := filter.NewExprFilter(conv.ConfigGet(filterMap, "expr", ""))
			if err != nil {
				return nil, err
			}
			filters = append(filters, f)
		default:
			return nil, fmt.Errorf("unknown filter type: %s", filterType)
		}
	}
	return &filter.FilterNode{Filters: filters, Logger: deps.Logger}, nil
}

func BuildHeuristicNode(deps *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	return &rank.Heuristic{
		History:      deps.History,
		Catalog:      deps.Catalog,
		RecallWeight: conv.ConfigGetFloat64(cfg, "recall_weight", 0),
	}, nil
}

func BuildTopNNode(_ *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopN{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func BuildDiversityNode(_ *config.Deps, cfg map[string]any) (pipeline.Node, error) {
	return &rerank.Diversity{
		Key:         conv.ConfigGet(cfg, "key", "genre"),
		MaxPerGenre: conv.ConfigGetInt(cfg, "max_per_genre", rerank.DefaultMaxPerGenre),
		Drop:        conv.ConfigGet(cfg, "drop", false),
	}, nil
}
