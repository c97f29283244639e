package service

import (
	"context"
	"fmt"
	"strings"

	"netfusion-go/pkg/api"
	"netfusion-go/pkg/metrics"
	"netfusion-go/pkg/worker"
)

// GA4 metric names and the keys they are reported under
var overviewMetrics = []struct {
	ga4 string
	key metrics.Metric
}{
	{"sessions", metrics.MetricSessions},
	{"activeUsers", metrics.MetricActiveUsers},
	{"screenPageViews", metrics.MetricPageViews},
	{"averageSessionDuration", metrics.MetricAvgSessionDuration},
	{"bounceRate", metrics.MetricBounceRate},
	{"conversions", metrics.MetricConversions},
}

const trafficSourceLimit = 10

type AnalyticsOverview struct {
	PropertyID string             `json:"propertyId"`
	Current    map[string]float64 `json:"current"`
	Previous   map[string]float64 `json:"previous"`
	Change     map[string]float64 `json:"change"`
}

type TrafficSource struct {
	Channel     string `json:"channel"`
	Sessions    int64  `json:"sessions"`
	Users       int64  `json:"users"`
	Conversions int64  `json:"conversions"`
}

// ReportParams is a caller-shaped GA4 report; empty fields take defaults
type ReportParams struct {
	PropertyID string   `json:"propertyId"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Metrics    []string `json:"metrics"`
	Dimensions []string `json:"dimensions"`
}

type AnalyticsService struct {
	ga4 api.AnalyticsData
}

func NewAnalyticsService(ga4 api.AnalyticsData) *AnalyticsService {
	return &AnalyticsService{ga4: ga4}
}

// Overview compares the last 28 days with the 28 days before them
func (s *AnalyticsService) Overview(ctx context.Context, accessToken, propertyID string) (*AnalyticsOverview, error) {
	if strings.TrimSpace(propertyID) == "" {
		return nil, fmt.Errorf("%w: propertyId is required", ErrInvalidArgument)
	}

	specs := make([]api.MetricSpec, 0, len(overviewMetrics))
	for _, m := range overviewMetrics {
		specs = append(specs, api.MetricSpec{Name: m.ga4})
	}
	report := func(start, end string) api.ReportRequest {
		return api.ReportRequest{
			DateRanges: []api.DateRange{{StartDate: start, EndDate: end}},
			Metrics:    specs,
		}
	}

	var current, previous *api.ReportResponse
	results := worker.FanOut(ctx,
		worker.Task{ID: "current", Fn: func(ctx context.Context) error {
			var err error
			current, err = s.ga4.RunReport(ctx, accessToken, propertyID, report("28daysAgo", "yesterday"))
			return err
		}},
		worker.Task{ID: "previous", Fn: func(ctx context.Context) error {
			var err error
			previous, err = s.ga4.RunReport(ctx, accessToken, propertyID, report("56daysAgo", "29daysAgo"))
			return err
		}},
	)
	for _, res := range results {
		if res.Error != nil {
			return nil, fmt.Errorf("ga4 overview %s period: %w", res.TaskID, res.Error)
		}
	}

	cur := overviewValues(current)
	prev := overviewValues(previous)
	return &AnalyticsOverview{
		PropertyID: api.NormalizeProperty(propertyID),
		Current:    cur,
		Previous:   prev,
		Change:     metrics.ComputeMetricChanges(cur, prev),
	}, nil
}

// TrafficSources returns the top channels of the last 28 days by sessions
func (s *AnalyticsService) TrafficSources(ctx context.Context, accessToken, propertyID string) ([]TrafficSource, error) {
	if strings.TrimSpace(propertyID) == "" {
		return nil, fmt.Errorf("%w: propertyId is required", ErrInvalidArgument)
	}

	resp, err := s.ga4.RunReport(ctx, accessToken, propertyID, api.ReportRequest{
		DateRanges: []api.DateRange{{StartDate: "28daysAgo", EndDate: "yesterday"}},
		Metrics:    []api.MetricSpec{{Name: "sessions"}, {Name: "activeUsers"}, {Name: "conversions"}},
		Dimensions: []api.Dimension{{Name: "sessionDefaultChannelGroup"}},
		OrderBys:   []api.OrderBy{{Metric: &api.MetricOrderBy{MetricName: "sessions"}, Desc: true}},
		Limit:      trafficSourceLimit,
	})
	if err != nil {
		return nil, err
	}

	out := make([]TrafficSource, 0, len(resp.Rows))
	for _, row := range resp.Rows {
		out = append(out, TrafficSource{
			Channel:     row.Dimension(0),
			Sessions:    int64(row.Metric(0)),
			Users:       int64(row.Metric(1)),
			Conversions: int64(row.Metric(2)),
		})
	}
	return out, nil
}

// Report runs a free-form report
func (s *AnalyticsService) Report(ctx context.Context, accessToken string, p ReportParams) (*api.ReportResponse, error) {
	if strings.TrimSpace(p.PropertyID) == "" {
		return nil, fmt.Errorf("%w: propertyId is required", ErrInvalidArgument)
	}
	if p.StartDate == "" {
		p.StartDate = "28daysAgo"
	}
	if p.EndDate == "" {
		p.EndDate = "yesterday"
	}
	if len(p.Metrics) == 0 {
		p.Metrics = []string{"sessions", "activeUsers", "screenPageViews"}
	}
	if p.Dimensions == nil {
		p.Dimensions = []string{"date"}
	}

	req := api.ReportRequest{
		DateRanges: []api.DateRange{{StartDate: p.StartDate, EndDate: p.EndDate}},
	}
	for _, m := range p.Metrics {
		req.Metrics = append(req.Metrics, api.MetricSpec{Name: m})
	}
	for _, d := range p.Dimensions {
		req.Dimensions = append(req.Dimensions, api.Dimension{Name: d})
	}
	return s.ga4.RunReport(ctx, accessToken, p.PropertyID, req)
}

// overviewValues maps a single-row report onto the overview keys. A report
// without rows yields an empty map.
func overviewValues(resp *api.ReportResponse) map[string]float64 {
	byName := resp.FirstRowMetrics()
	out := make(map[string]float64, len(byName))
	if len(byName) == 0 {
		return out
	}
	for _, m := range overviewMetrics {
		out[string(m.key)] = byName[m.ga4]
	}
	return out
}
