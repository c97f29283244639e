package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeChangeSignConventions(t *testing.T) {
	current := PeriodSummary{TotalClicks: 150, TotalImpressions: 2000, AvgPosition: 3, AvgCTR: 0.075}
	previous := PeriodSummary{TotalClicks: 100, TotalImpressions: 2500, AvgPosition: 6, AvgCTR: 0.04}

	c := ComputeChange(current, previous)

	assert.InDelta(t, 50.0, c.Clicks, 1e-9)
	assert.InDelta(t, -20.0, c.Impressions, 1e-9)
	assert.InDelta(t, 87.5, c.CTR, 1e-9)
	// position went from 6 to 3: better rank, positive change
	assert.InDelta(t, 100.0, c.Position, 1e-9)
}

func TestComputeChangePositionWorse(t *testing.T) {
	c := ComputeChange(PeriodSummary{AvgPosition: 8}, PeriodSummary{AvgPosition: 4})

	assert.InDelta(t, -50.0, c.Position, 1e-9)
}

func TestComputeChangePreviousZero(t *testing.T) {
	current := PeriodSummary{TotalClicks: 150, TotalImpressions: 1000, AvgPosition: 3, AvgCTR: 0.15}

	c := ComputeChange(current, PeriodSummary{})

	assert.Equal(t, ChangeSet{}, c)
	for _, v := range []float64{c.Clicks, c.Impressions, c.CTR, c.Position} {
		assert.False(t, math.IsNaN(v) || math.IsInf(v, 0))
	}
}

func TestComputeChangeCurrentZero(t *testing.T) {
	c := ComputeChange(PeriodSummary{}, PeriodSummary{TotalClicks: 40, AvgPosition: 5})

	assert.InDelta(t, -100.0, c.Clicks, 1e-9)
	assert.Equal(t, 0.0, c.Position)
}

func TestChangeSetFor(t *testing.T) {
	c := ChangeSet{Clicks: 1, Impressions: 2, CTR: 3, Position: 4}

	assert.Equal(t, 1.0, c.For(MetricClicks))
	assert.Equal(t, 4.0, c.For(MetricPosition))
	assert.Equal(t, 0.0, c.For(MetricSessions))
	assert.True(t, MetricPosition.LowerIsBetter())
	assert.False(t, MetricClicks.LowerIsBetter())
}

func TestComputeMetricChanges(t *testing.T) {
	current := map[string]float64{"sessions": 1200, "bounceRate": 0.4, "conversions": 10}
	previous := map[string]float64{"sessions": 1000, "bounceRate": 0.5}

	got := ComputeMetricChanges(current, previous)

	assert.InDelta(t, 20.0, got["sessions"], 1e-9)
	assert.InDelta(t, 25.0, got["bounceRate"], 1e-9)
	assert.Equal(t, 0.0, got["conversions"])
	assert.Len(t, got, 3)
}
