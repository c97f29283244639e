package api

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/valyala/fasthttp"
)

const DefaultAnalyticsDataEndpoint = "https://analyticsdata.googleapis.com/v1beta"

// DateRange accepts YYYY-MM-DD or GA4 relative dates such as "28daysAgo"
type DateRange struct {
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

type Dimension struct {
	Name string `json:"name"`
}

type MetricSpec struct {
	Name string `json:"name"`
}

type MetricOrderBy struct {
	MetricName string `json:"metricName"`
}

type OrderBy struct {
	Metric *MetricOrderBy `json:"metric,omitempty"`
	Desc   bool           `json:"desc,omitempty"`
}

// ReportRequest is the body of a GA4 runReport call
type ReportRequest struct {
	DateRanges []DateRange  `json:"dateRanges"`
	Dimensions []Dimension  `json:"dimensions,omitempty"`
	Metrics    []MetricSpec `json:"metrics"`
	OrderBys   []OrderBy    `json:"orderBys,omitempty"`
	Limit      int64        `json:"limit,omitempty,string"`
}

type ReportHeader struct {
	Name string `json:"name"`
	Type string `json:"type,omitempty"`
}

type ReportValue struct {
	Value string `json:"value"`
}

type ReportRow struct {
	DimensionValues []ReportValue `json:"dimensionValues"`
	MetricValues    []ReportValue `json:"metricValues"`
}

type ReportResponse struct {
	DimensionHeaders []ReportHeader `json:"dimensionHeaders"`
	MetricHeaders    []ReportHeader `json:"metricHeaders"`
	Rows             []ReportRow    `json:"rows"`
	RowCount         int64          `json:"rowCount"`
}

// Dimension returns the i-th dimension value of a row, or ""
func (r ReportRow) Dimension(i int) string {
	if i < 0 || i >= len(r.DimensionValues) {
		return ""
	}
	return r.DimensionValues[i].Value
}

// Metric parses the i-th metric value of a row; unparsable or missing values are 0
func (r ReportRow) Metric(i int) float64 {
	if i < 0 || i >= len(r.MetricValues) {
		return 0
	}
	v, err := strconv.ParseFloat(r.MetricValues[i].Value, 64)
	if err != nil {
		return 0
	}
	return v
}

// FirstRowMetrics maps metric header names to the values of the first row.
// A report without rows yields an empty map.
func (r *ReportResponse) FirstRowMetrics() map[string]float64 {
	out := make(map[string]float64, len(r.MetricHeaders))
	if len(r.Rows) == 0 {
		return out
	}
	row := r.Rows[0]
	for i, h := range r.MetricHeaders {
		out[h.Name] = row.Metric(i)
	}
	return out
}

// AnalyticsDataClient calls the GA4 Data API
type AnalyticsDataClient struct {
	endpoint  string
	transport *Transport
}

func NewAnalyticsDataClient(endpoint string, transport *Transport) *AnalyticsDataClient {
	if endpoint == "" {
		endpoint = DefaultAnalyticsDataEndpoint
	}
	return &AnalyticsDataClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		transport: transport,
	}
}

// NormalizeProperty turns "123" into "properties/123" and leaves prefixed ids alone
func NormalizeProperty(propertyID string) string {
	propertyID = strings.TrimSpace(propertyID)
	if strings.HasPrefix(propertyID, "properties/") {
		return propertyID
	}
	return "properties/" + propertyID
}

func (c *AnalyticsDataClient) RunReport(ctx context.Context, accessToken, propertyID string, req ReportRequest) (*ReportResponse, error) {
	if accessToken == "" {
		return nil, ErrMissingToken
	}
	if strings.TrimSpace(propertyID) == "" {
		return nil, fmt.Errorf("property id is required")
	}

	var resp ReportResponse
	err := c.transport.DoJSON(ctx, Request{
		Method: fasthttp.MethodPost,
		URL:    c.endpoint + "/" + NormalizeProperty(propertyID) + ":runReport",
		Header: BearerHeader(accessToken),
	}, req, &resp)
	if err != nil {
		return nil, fmt.Errorf("run report: %w", err)
	}
	return &resp, nil
}
