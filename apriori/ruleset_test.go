package apriori

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRuleSet_EncodeDecode(t *testing.T) {
	rs := &RuleSet{
		Params:      Params{MinSupport: 0.2, MinConfidence: 0.6, MinLift: 1.2, TopK: 5},
		GeneratedAt: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Rules:       GenerateRules(Mine(workedExample(), 0.2), 0.6, 1.2),
	}

	data, err := rs.Encode()
	require.NoError(t, err)
	assert.Contains(t, string(data), `"parameters"`)
	assert.Contains(t, string(data), `"minsup": 0.2`)
	assert.Contains(t, string(data), `"lift": 1.6667`)

	got, err := DecodeRuleSet(data)
	require.NoError(t, err)
	assert.Equal(t, rs.Params, got.Params)
	assert.True(t, rs.GeneratedAt.Equal(got.GeneratedAt))
	require.Len(t, got.Rules, len(rs.Rules))
	for i := range rs.Rules {
		assert.Equal(t, rs.Rules[i].Antecedent, got.Rules[i].Antecedent)
		assert.Equal(t, rs.Rules[i].Consequent, got.Rules[i].Consequent)
		assert.InDelta(t, rs.Rules[i].Lift, got.Rules[i].Lift, 1e-4)
		assert.InDelta(t, rs.Rules[i].Confidence, got.Rules[i].Confidence, 1e-4)
	}

	// Encode 不修改原规则
	r, ok := findRule(rs.Rules, NewItemset("Thriller"), NewItemset("Mystery"))
	require.True(t, ok)
	assert.NotEqual(t, round4(r.Lift), r.Lift)
}

func TestRuleSet_EncodeCompact(t *testing.T) {
	rs := NewRecommender(DefaultConfig()).Train(workedExample())
	data, err := rs.EncodeCompact()
	require.NoError(t, err)
	assert.NotContains(t, string(data), "\n")

	got, err := DecodeRuleSet(data)
	require.NoError(t, err)
	require.Len(t, got.Rules, len(rs.Rules))
	for i := range rs.Rules {
		assert.Equal(t, rs.Rules[i].Lift, got.Rules[i].Lift)
		assert.Equal(t, rs.Rules[i].Confidence, got.Rules[i].Confidence)
	}
	assert.Empty(t, got.Itemsets)
}

func TestDecodeRuleSet_Invalid(t *testing.T) {
	_, err := DecodeRuleSet([]byte("{not json"))
	assert.Error(t, err)
}

func TestItemset(t *testing.T) {
	s := NewItemset("Thriller", "Mystery", "Thriller")
	assert.Equal(t, Itemset{"Mystery", "Thriller"}, s)
	assert.Equal(t, `["Mystery","Thriller"]`, s.Key())
	assert.Equal(t, NewItemset("Mystery", "Thriller").Key(), NewItemset("Thriller", "Mystery").Key())
	assert.True(t, s.Contains("Mystery"))
	assert.False(t, s.Contains("Crime"))
	assert.Equal(t, "{Mystery, Thriller}", s.String())

	parsed, err := ParseKey(s.Key())
	require.NoError(t, err)
	assert.Equal(t, s, parsed)

	_, err = ParseKey("Mystery")
	assert.Error(t, err)

	assert.Equal(t, Itemset{"Crime", "Mystery", "Thriller"}, s.Union(NewItemset("Crime", "Mystery")))
}
