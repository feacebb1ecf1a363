// Package dsl 提供基于 CEL 的 Label 表达式，用于过滤与策略开关。
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译好的 CEL 表达式，线程安全，可复用。
//
// 表达式语法（CEL 标准语法）：
//   - 标签：label.recall_source == "apriori" / "popular" in label
//   - 数值：item.score > 0.7 / item.meta.available_copies > 0
//   - 图书：item.meta.genre == "Crime" && item.meta.published_year >= 2015
//   - 用户："Mystery" in rctx.genres / rctx.scene == "home"
//
// 访问不存在的 key 会报错，判断存在性用 `"key" in label`。
type Program struct {
	expr string
	prg  cel.Program
}

// Compile 编译表达式。空表达式恒为 true。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return &Program{}, nil
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, err
	}
	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("compile %q: %w", expr, issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("program %q: %w", expr, err)
	}
	return &Program{expr: expr, prg: prg}, nil
}

// String 返回原始表达式。
func (p *Program) String() string { return p.expr }

// Eval 对 item 与 rctx 求值，表达式必须返回布尔值。
func (p *Program) Eval(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	if p.prg == nil {
		return true, nil
	}
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		return false, fmt.Errorf("eval %q: %w", p.expr, err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("expression %q must return boolean, got %T", p.expr, out.Value())
	}
	return result, nil
}

var (
	cacheMu sync.RWMutex
	cache   = map[string]*Program{}
)

// Eval 编译（带缓存）并求值，适合表达式来自配置、数量有限的场景。
func Eval(expr string, item *core.Item, rctx *core.RecommendContext) (bool, error) {
	cacheMu.RLock()
	p, ok := cache[expr]
	cacheMu.RUnlock()
	if !ok {
		var err error
		if p, err = Compile(expr); err != nil {
			return false, err
		}
		cacheMu.Lock()
		cache[expr] = p
		cacheMu.Unlock()
	}
	return p.Eval(item, rctx)
}

func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	labels := map[string]any{}
	itemMap := map[string]any{}
	if item != nil {
		meta := make(map[string]any, len(item.Meta))
		for k, v := range item.Meta {
			if k == "book" {
				continue
			}
			meta[k] = v
		}
		labelDetail := make(map[string]any, len(item.Labels))
		for k, v := range item.Labels {
			labels[k] = v.Value
			labelDetail[k] = map[string]any{"value": v.Value, "source": v.Source}
		}
		itemMap = map[string]any{
			"id":       item.ID,
			"score":    item.Score,
			"features": item.Features,
			"meta":     meta,
			"labels":   labelDetail,
		}
	}

	rctxMap := map[string]any{}
	if rctx != nil {
		borrowed := make([]string, 0, len(rctx.Borrowed))
		for id := range rctx.Borrowed {
			borrowed = append(borrowed, id)
		}
		genres := rctx.Genres
		if genres == nil {
			genres = []string{}
		}
		params := rctx.Params
		if params == nil {
			params = map[string]any{}
		}
		rctxMap = map[string]any{
			"user_id":  rctx.UserID,
			"scene":    rctx.Scene,
			"genres":   genres,
			"borrowed": borrowed,
			"params":   params,
		}
	}

	return map[string]any{
		"item":  itemMap,
		"label": labels,
		"rctx":  rctxMap,
	}
}
