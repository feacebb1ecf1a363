package apriori

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func findRule(rules Rules, ante, cons Itemset) (Rule, bool) {
	for _, r := range rules {
		if r.Antecedent.Key() == ante.Key() && r.Consequent.Key() == cons.Key() {
			return r, true
		}
	}
	return Rule{}, false
}

func TestGenerateRules_WorkedExample(t *testing.T) {
	freq := Mine(workedExample(), 0.2)
	rules := GenerateRules(freq, 0.6, 1.2)

	r, ok := findRule(rules, NewItemset("Thriller"), NewItemset("Mystery"))
	require.True(t, ok, "rule {Thriller} → {Mystery} missing")
	assert.InDelta(t, 0.4, r.Support, 1e-9)
	assert.InDelta(t, 1.0, r.Confidence, 1e-9)
	assert.InDelta(t, 1.0/0.6, r.Lift, 1e-9)

	r, ok = findRule(rules, NewItemset("Crime", "Thriller"), NewItemset("Mystery"))
	require.True(t, ok)
	assert.InDelta(t, 0.2, r.Support, 1e-9)
	assert.InDelta(t, 1.0, r.Confidence, 1e-9)

	// conf = 0.2/0.4 = 0.5 < 0.6
	_, ok = findRule(rules, NewItemset("Mystery", "Thriller"), NewItemset("Crime"))
	assert.False(t, ok)
	_, ok = findRule(rules, NewItemset("Thriller"), NewItemset("Crime"))
	assert.False(t, ok)

	assert.Len(t, rules, 9)
}

func TestGenerateRules_Invariants(t *testing.T) {
	freq := Mine(workedExample(), 0.2)
	for _, tc := range []struct {
		minconf, minlift float64
	}{
		{0, 0},
		{0.6, 1.2},
		{0.9, 2},
		{1, 5},
	} {
		rules := GenerateRules(freq, tc.minconf, tc.minlift)
		for _, r := range rules {
			assert.GreaterOrEqual(t, r.Confidence, tc.minconf, r.String())
			assert.GreaterOrEqual(t, r.Lift, tc.minlift, r.String())
			require.NotEmpty(t, r.Antecedent)
			require.NotEmpty(t, r.Consequent)

			for _, g := range r.Antecedent {
				assert.False(t, r.Consequent.Contains(g), "antecedent and consequent overlap: %s", r)
			}
			supp, ok := freq.Support(r.Itemset())
			require.True(t, ok, "union of %s is not frequent", r)
			assert.InDelta(t, supp, r.Support, 1e-12)
		}
	}
}

func TestGenerateRules_SkipsMissingSubsets(t *testing.T) {
	// {A} 缺失：以 {A} 为前件或后件的候选被跳过
	freq := FrequentItemsets{
		NewItemset("B").Key():      0.5,
		NewItemset("A", "B").Key(): 0.4,
	}
	assert.Empty(t, GenerateRules(freq, 0, 0))
}

func TestGenerateRules_IgnoresSingletons(t *testing.T) {
	freq := FrequentItemsets{
		NewItemset("A").Key(): 1,
		NewItemset("B").Key(): 1,
	}
	assert.Empty(t, GenerateRules(freq, 0, 0))
}

func TestGenerateRules_Deterministic(t *testing.T) {
	freq := Mine(workedExample(), 0.2)
	assert.Equal(t, GenerateRules(freq, 0.6, 1.2), GenerateRules(freq, 0.6, 1.2))
}

func TestRules_TopByLift(t *testing.T) {
	rules := Rules{
		{Antecedent: NewItemset("A"), Consequent: NewItemset("B"), Lift: 1.5},
		{Antecedent: NewItemset("C"), Consequent: NewItemset("D"), Lift: 3},
		{Antecedent: NewItemset("E"), Consequent: NewItemset("F"), Lift: 2},
	}
	top := rules.TopByLift(2)
	require.Len(t, top, 2)
	assert.Equal(t, 3.0, top[0].Lift)
	assert.Equal(t, 2.0, top[1].Lift)
	assert.Equal(t, 1.5, rules[0].Lift, "original order must be kept")
}
