package metrics

import "math"

// Metric names a reported figure.
type Metric string

const (
	MetricClicks      Metric = "clicks"
	MetricImpressions Metric = "impressions"
	MetricCTR         Metric = "ctr"
	MetricPosition    Metric = "position"

	// GA4 overview metrics
	MetricSessions           Metric = "sessions"
	MetricActiveUsers        Metric = "activeUsers"
	MetricPageViews          Metric = "pageViews"
	MetricAvgSessionDuration Metric = "avgSessionDuration"
	MetricBounceRate         Metric = "bounceRate"
	MetricConversions        Metric = "conversions"
)

// LowerIsBetter reports whether a decrease in the metric is an improvement.
func (m Metric) LowerIsBetter() bool {
	switch m {
	case MetricPosition, MetricBounceRate:
		return true
	default:
		return false
	}
}

// ChangeSet is the percent change of each summary field between two periods.
// Position uses the inverted convention: a better (lower) rank is positive.
type ChangeSet struct {
	Clicks      float64 `json:"clicks"`
	Impressions float64 `json:"impressions"`
	CTR         float64 `json:"ctr"`
	Position    float64 `json:"position"`
}

// For returns the change for a single metric, 0 for metrics the set does not carry.
func (c ChangeSet) For(m Metric) float64 {
	switch m {
	case MetricClicks:
		return c.Clicks
	case MetricImpressions:
		return c.Impressions
	case MetricCTR:
		return c.CTR
	case MetricPosition:
		return c.Position
	default:
		return 0
	}
}

// PercentChange is (current-previous)/previous*100, defined as 0 when previous is 0.
func PercentChange(current, previous float64) float64 {
	if previous == 0 {
		return 0
	}
	return guard((current - previous) / previous * 100)
}

// InvertedPercentChange is (previous-current)/current*100 for lower-is-better
// metrics. It is 0 when either side is 0, so a missing period never reads as a
// 100% swing.
func InvertedPercentChange(current, previous float64) float64 {
	if current == 0 || previous == 0 {
		return 0
	}
	return guard((previous - current) / current * 100)
}

// ComputeChange compares two summaries field by field.
func ComputeChange(current, previous PeriodSummary) ChangeSet {
	return ChangeSet{
		Clicks:      PercentChange(float64(current.TotalClicks), float64(previous.TotalClicks)),
		Impressions: PercentChange(float64(current.TotalImpressions), float64(previous.TotalImpressions)),
		CTR:         PercentChange(current.AvgCTR, previous.AvgCTR),
		Position:    InvertedPercentChange(current.AvgPosition, previous.AvgPosition),
	}
}

// ComputeMetricChanges is the map form of ComputeChange used for free-form
// metric sets such as GA4 overviews. Keys missing from previous count as 0.
// Metrics whose LowerIsBetter is true use the inverted convention.
func ComputeMetricChanges(current, previous map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(current))
	for name, cur := range current {
		prev := previous[name]
		if Metric(name).LowerIsBetter() {
			out[name] = InvertedPercentChange(cur, prev)
			continue
		}
		out[name] = PercentChange(cur, prev)
	}
	return out
}

func guard(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
