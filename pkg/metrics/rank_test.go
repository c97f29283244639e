package metrics

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func keysOf(rows []MetricRow) []string {
	out := make([]string, 0, len(rows))
	for _, r := range rows {
		out = append(out, r.DimensionKey)
	}
	return out
}

func TestRankDateAscending(t *testing.T) {
	rows := []MetricRow{
		{DimensionKey: "2024-03-03"},
		{DimensionKey: "2024-03-01"},
		{DimensionKey: "2024-03-02"},
	}

	got := Rank(rows, 0, OrderDateAsc)

	assert.Equal(t, []string{"2024-03-01", "2024-03-02", "2024-03-03"}, keysOf(got))
	// input untouched
	assert.Equal(t, "2024-03-03", rows[0].DimensionKey)
}

func TestRankNoSortTakesPrefix(t *testing.T) {
	rows := []MetricRow{{DimensionKey: "c"}, {DimensionKey: "a"}, {DimensionKey: "b"}}

	got := Rank(rows, 2, OrderNone)

	assert.Equal(t, []string{"c", "a"}, keysOf(got))
}

func TestRankClicksDescIsStable(t *testing.T) {
	rows := []MetricRow{
		{DimensionKey: "first", Clicks: 5},
		{DimensionKey: "big", Clicks: 9},
		{DimensionKey: "second", Clicks: 5},
	}

	got := Rank(rows, 10, OrderClicksDesc)

	assert.Equal(t, []string{"big", "first", "second"}, keysOf(got))
}

func TestRankEmpty(t *testing.T) {
	got := Rank(nil, 5, OrderDateAsc)

	require.NotNil(t, got)
	assert.Empty(t, got)
}

func TestStrikingDistance(t *testing.T) {
	rows := []MetricRow{
		{DimensionKey: "top", Position: 2},
		{DimensionKey: "page two", Position: 12.4},
		{DimensionKey: "edge", Position: 20},
		{DimensionKey: "deep", Position: 35},
	}

	assert.Equal(t, []string{"page two", "edge"}, keysOf(StrikingDistance(rows)))
}
