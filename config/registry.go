// Package config 负责引擎配置加载与 Pipeline Node 注册表。
//
// 使用配置驱动时，需在入口处 import _ "github.com/rushteam/bookrec/config/builders"
// 以触发内置 Node（recall.fanout、recall.apriori、filter、rank.heuristic 等）的 init 注册。
package config

import (
	"fmt"
	"sort"
	"sync"

	"github.com/rs/zerolog"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/feature"
	"github.com/rushteam/bookrec/history"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/recall"
)

// Deps 是构建 Node 时注入的运行时依赖。配置文件只描述拓扑与参数，依赖由入口组装。
type Deps struct {
	Recommender *apriori.Recommender
	Rules       recall.RuleProvider
	Catalog     core.Catalog
	History     history.Provider
	Profiles    feature.ProfileProvider
	KV          core.KeyValueStore
	Store       core.Store
	Logger      zerolog.Logger
}

// NodeBuilder 根据依赖与 config 构建 Node。
// 各组件在 init 中调用 Register(typeName, builder) 即可被配置驱动。
type NodeBuilder func(deps *Deps, cfg map[string]any) (pipeline.Node, error)

var (
	defaultBuilders   = make(map[string]NodeBuilder)
	defaultBuildersMu sync.RWMutex
)

// Register 注册一种 Node 的构建逻辑，重复注册时后者覆盖前者。
func Register(typeName string, builder NodeBuilder) {
	if typeName == "" || builder == nil {
		return
	}
	defaultBuildersMu.Lock()
	defer defaultBuildersMu.Unlock()
	defaultBuilders[typeName] = builder
}

// SupportedTypes 返回当前已注册的 Node 类型列表（排序），用于错误提示与校验。
func SupportedTypes() []string {
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	types := make([]string, 0, len(defaultBuilders))
	for t := range defaultBuilders {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// DefaultFactory 返回绑定了 deps 的 NodeFactory，包含所有通过 Register 注册的 Node 类型。
func DefaultFactory(deps *Deps) *pipeline.NodeFactory {
	if deps == nil {
		deps = &Deps{Logger: zerolog.Nop()}
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	f := pipeline.NewNodeFactory()
	for typeName, builder := range defaultBuilders {
		b := builder
		f.Register(typeName, func(cfg map[string]any) (pipeline.Node, error) {
			return b(deps, cfg)
		})
	}
	return f
}

// ValidatePipelineConfig 校验 pipeline 配置中所有 node 类型均已注册；若有未支持类型则返回包含已支持列表的错误。
func ValidatePipelineConfig(cfg *pipeline.Config) error {
	if cfg == nil {
		return nil
	}
	defaultBuildersMu.RLock()
	defer defaultBuildersMu.RUnlock()
	for i, nc := range cfg.Pipeline.Nodes {
		if _, ok := defaultBuilders[nc.Type]; !ok {
			types := make([]string, 0, len(defaultBuilders))
			for t := range defaultBuilders {
				types = append(types, t)
			}
			sort.Strings(types)
			return core.WrapDomainError(core.ErrInvalidConfig,
				fmt.Errorf("node #%d: unsupported type %q (supported: %v)", i, nc.Type, types))
		}
	}
	return nil
}

// BuildPipeline 校验并构建 Pipeline，Logger 取自 deps。
func BuildPipeline(cfg *pipeline.Config, deps *Deps) (*pipeline.Pipeline, error) {
	if err := ValidatePipelineConfig(cfg); err != nil {
		return nil, err
	}
	p, err := cfg.BuildPipeline(DefaultFactory(deps))
	if err != nil {
		return nil, err
	}
	if deps != nil {
		p.Logger = deps.Logger
	}
	return p, nil
}
