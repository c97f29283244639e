// Package metrics reduces search-analytics rows into display-ready statistics.
//
// Everything in this package is pure: no I/O, no shared state, no errors for
// well-typed input. Rows are validated by the caller before they get here.
package metrics

import "math"

// SearchAnalyticsRow is the row shape returned by the search-analytics API.
// Counts arrive as JSON numbers, so they are decoded as float64.
type SearchAnalyticsRow struct {
	Keys        []string `json:"keys"`
	Clicks      float64  `json:"clicks"`
	Impressions float64  `json:"impressions"`
	CTR         float64  `json:"ctr"`
	Position    float64  `json:"position"`
}

// MetricRow is one dimension bucket (a query, a page or a date) for a period.
type MetricRow struct {
	DimensionKey string   `json:"dimensionKey"`
	Keys         []string `json:"keys"`
	Clicks       int64    `json:"clicks"`
	Impressions  int64    `json:"impressions"`
	CTR          float64  `json:"ctr"`
	Position     float64  `json:"position"`
}

// FromSearchAnalytics converts API rows into MetricRows. The first key becomes
// the dimension key; negative or non-finite counts clamp to zero.
func FromSearchAnalytics(rows []SearchAnalyticsRow) []MetricRow {
	out := make([]MetricRow, 0, len(rows))
	for _, r := range rows {
		row := MetricRow{
			Clicks:      toCount(r.Clicks),
			Impressions: toCount(r.Impressions),
			CTR:         finite(r.CTR),
			Position:    finite(r.Position),
		}
		if len(r.Keys) > 0 {
			row.DimensionKey = r.Keys[0]
			row.Keys = append([]string(nil), r.Keys...)
		}
		out = append(out, row)
	}
	return out
}

func toCount(v float64) int64 {
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0
	}
	return int64(math.Round(v))
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
