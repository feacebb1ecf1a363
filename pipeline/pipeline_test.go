package pipeline

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/core"
)

type funcNode struct {
	name string
	fn   func([]*core.Item) ([]*core.Item, error)
}

func (n *funcNode) Name() string { return n.name }
func (n *funcNode) Kind() Kind   { return KindPostProcess }
func (n *funcNode) Process(_ context.Context, _ *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return n.fn(items)
}

func TestPipeline_Run(t *testing.T) {
	var logs bytes.Buffer
	p := &Pipeline{
		Name:   "test",
		Logger: zerolog.New(&logs).Level(zerolog.DebugLevel),
		Nodes: []Node{
			&funcNode{name: "gen", fn: func([]*core.Item) ([]*core.Item, error) {
				return []*core.Item{core.NewItem("b1"), core.NewItem("b2")}, nil
			}},
			&funcNode{name: "drop", fn: func(items []*core.Item) ([]*core.Item, error) {
				return items[1:], nil
			}},
		},
	}
	out, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "b2", out[0].ID)
	assert.Contains(t, logs.String(), `"node":"drop"`)
}

func TestPipeline_RunError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&funcNode{name: "bad", fn: func([]*core.Item) ([]*core.Item, error) {
		return nil, boom
	}}}}
	_, err := p.Run(context.Background(), nil, nil)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "node bad")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = p.Run(ctx, nil, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestConfig_BuildPipeline(t *testing.T) {
	cfg, err := ParseYAML([]byte(`
pipeline:
  name: home
  nodes:
    - type: noop
      config:
        top_k: 5
    - type: noop
`))
	require.NoError(t, err)
	assert.Equal(t, "home", cfg.Pipeline.Name)

	var seen []map[string]any
	f := NewNodeFactory()
	f.Register("noop", func(c map[string]any) (Node, error) {
		seen = append(seen, c)
		return &funcNode{name: "noop", fn: func(items []*core.Item) ([]*core.Item, error) { return items, nil }}, nil
	})
	p, err := cfg.BuildPipeline(f)
	require.NoError(t, err)
	assert.Len(t, p.Nodes, 2)
	assert.Equal(t, 5, seen[0]["top_k"])
	assert.NotNil(t, seen[1])

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, NodeConfig{Type: "missing"})
	_, err = cfg.BuildPipeline(f)
	assert.ErrorContains(t, err, "unknown node type: missing")
}
