package metrics

// PeriodSummary holds the aggregate numbers for one reporting period.
type PeriodSummary struct {
	TotalClicks      int64   `json:"totalClicks"`
	TotalImpressions int64   `json:"totalImpressions"`
	AvgPosition      float64 `json:"avgPosition"`
	AvgCTR           float64 `json:"avgCtr"`
	Rows             int     `json:"rows"`
}

// Summarize sums clicks and impressions, averages position over every row
// (not only the ones a caller will display) and derives CTR as the ratio of
// the sums. Per-row CTR values are ignored on purpose: the mean of ratios is
// not the ratio of sums.
func Summarize(rows []MetricRow) PeriodSummary {
	var s PeriodSummary
	if len(rows) == 0 {
		return s
	}

	var positionSum float64
	for _, r := range rows {
		s.TotalClicks += r.Clicks
		s.TotalImpressions += r.Impressions
		positionSum += r.Position
	}

	s.Rows = len(rows)
	s.AvgPosition = positionSum / float64(len(rows))
	s.AvgCTR = ratio(float64(s.TotalClicks), float64(s.TotalImpressions))
	return s
}

// ratio returns a/b, or 0 when b is zero.
func ratio(a, b float64) float64 {
	if b == 0 {
		return 0
	}
	return a / b
}
