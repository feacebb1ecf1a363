package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rushteam/bookrec/apriori"
	"github.com/rushteam/bookrec/core"
)

func TestCollector_WiredIntoRecommender(t *testing.T) {
	reg := prometheus.NewRegistry()
	c, err := NewCollector(reg)
	require.NoError(t, err)

	r := apriori.NewRecommender(apriori.DefaultConfig(), apriori.WithMetrics(c))
	rs := r.Train([]core.Transaction{
		{ID: "1", UserID: "a", Genres: []string{"Mystery", "Thriller"}},
		{ID: "2", UserID: "b", Genres: []string{"Mystery", "Crime"}},
		{ID: "3", UserID: "c", Genres: []string{"Romance"}},
	})
	r.Recommend([]string{"Thriller"}, rs.Rules, 5)

	assert.Equal(t, float64(3), testutil.ToFloat64(c.transactions))
	assert.Equal(t, float64(len(rs.Itemsets)), testutil.ToFloat64(c.itemsets))
	assert.Equal(t, float64(len(rs.Rules)), testutil.ToFloat64(c.rules))
	assert.Equal(t, float64(1), testutil.ToFloat64(c.requests))
	assert.Equal(t, 1, testutil.CollectAndCount(c.miningDuration))

	n, err := testutil.GatherAndCount(reg, "bookrec_rules", "bookrec_recommend_requests_total")
	require.NoError(t, err)
	assert.Equal(t, 2, n)
}

func TestNewCollector_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := NewCollector(reg)
	require.NoError(t, err)

	_, err = NewCollector(reg)
	assert.Error(t, err)
}

func TestNewCollector_NilRegistry(t *testing.T) {
	c, err := NewCollector(nil)
	require.NoError(t, err)
	c.ObserveRecommend(3)
	assert.Equal(t, float64(3), testutil.ToFloat64(c.recommendations))
}
