package metrics

import (
	"cmp"
	"slices"
)

// SortOrder selects the key Rank sorts by.
type SortOrder int

const (
	// OrderNone keeps the upstream order (search-analytics results already
	// arrive sorted by clicks).
	OrderNone SortOrder = iota
	// OrderDateAsc sorts by dimension key ascending; ISO dates sort lexically.
	OrderDateAsc
	// OrderClicksDesc sorts by clicks, highest first.
	OrderClicksDesc
)

// Rank returns the first topN rows after a stable sort by order. topN <= 0
// returns every row. The input slice is never modified.
func Rank(rows []MetricRow, topN int, order SortOrder) []MetricRow {
	out := slices.Clone(rows)
	if out == nil {
		out = []MetricRow{}
	}

	switch order {
	case OrderDateAsc:
		slices.SortStableFunc(out, func(a, b MetricRow) int {
			return cmp.Compare(a.DimensionKey, b.DimensionKey)
		})
	case OrderClicksDesc:
		slices.SortStableFunc(out, func(a, b MetricRow) int {
			return cmp.Compare(b.Clicks, a.Clicks)
		})
	}

	if topN > 0 && topN < len(out) {
		out = out[:topN]
	}
	return out
}

// StrikingDistance returns rows ranked on the second results page
// (positions 11 to 20), in their original order.
func StrikingDistance(rows []MetricRow) []MetricRow {
	var out []MetricRow
	for _, r := range rows {
		if r.Position >= 11 && r.Position <= 20 {
			out = append(out, r)
		}
	}
	return out
}
