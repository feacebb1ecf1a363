package main

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/apriori"
)

const recordsJSON = `[
  {"user_id": "1", "book_id": "m1", "genres": ["Mystery", "Thriller"], "borrowed_at": "2024-01-01T10:00:00Z"},
  {"user_id": "2", "book_id": "r1", "genres": ["Romance", "Drama"], "borrowed_at": "2024-01-02T10:00:00Z"},
  {"user_id": "3", "book_id": "c1", "genres": ["Mystery", "Crime"], "borrowed_at": "2024-01-03T10:00:00Z"},
  {"user_id": "4", "book_id": "s1", "genres": ["Science Fiction", "Fantasy"], "borrowed_at": "2024-01-04T10:00:00Z"},
  {"user_id": "5", "book_id": "c4", "genres": ["Mystery", "Thriller", "Crime"], "borrowed_at": "2024-01-05T10:00:00Z"},
  {"user_id": "", "book_id": "x", "genres": ["Poetry"], "borrowed_at": "2024-01-06T10:00:00Z"}
]`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := newRootCmd(&out, io.Discard)
	cmd.SetArgs(append([]string{"--log-level", "error"}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestDemo(t *testing.T) {
	out, err := run(t, "demo")
	require.NoError(t, err)

	assert.Contains(t, out, "Rules (9, by lift):")
	assert.Contains(t, out, "1. Crime (score")
	assert.Contains(t, out, "Users who enjoy Mystery also like Crime")
	assert.Contains(t, out, "1. Drama (score")
	assert.Contains(t, out, "The Cuckoo's Calling")
	assert.Contains(t, out, "The Goldfinch")
	assert.NotContains(t, out, "Roger Ackroyd", "borrowed books are filtered")
	assert.NotContains(t, out, "In Cold Blood", "unavailable books are filtered")
}

func TestMineRecommendEvaluate(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "records.json")
	rules := filepath.Join(dir, "rules.json")
	require.NoError(t, os.WriteFile(input, []byte(recordsJSON), 0o600))

	out, err := run(t, "mine", "--input", input, "--output", rules)
	require.NoError(t, err)
	assert.Contains(t, out, "5 transactions, 13 frequent itemsets, 9 rules")

	data, err := os.ReadFile(rules)
	require.NoError(t, err)
	rs, err := apriori.DecodeRuleSet(data)
	require.NoError(t, err)
	assert.Len(t, rs.Rules, 9)
	assert.Equal(t, 0.2, rs.Params.MinSupport)

	out, err = run(t, "recommend", "--rules", rules, "--genres", "Mystery,Thriller", "--top-k", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "1. Crime")

	out, err = run(t, "recommend", "--rules", rules, "--genres", "Poetry")
	require.NoError(t, err)
	assert.Contains(t, out, "no recommendations")

	out, err = run(t, "evaluate", "--input", input, "--rules", rules, "--k", "5")
	require.NoError(t, err)
	assert.Contains(t, out, `"users_evaluated": 0`)
}

func TestMine_MissingInput(t *testing.T) {
	_, err := run(t, "mine", "--input", filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestInvalidLogLevel(t *testing.T) {
	_, err := run(t, "--log-level", "loud", "demo")
	assert.Error(t, err)
}
