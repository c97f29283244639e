package api

import (
	"context"

	"netfusion-go/pkg/metrics"
)

// RowQuery selects one dimension of search-analytics rows for a date range
type RowQuery struct {
	SiteURL   string
	StartDate string
	EndDate   string
	Dimension string
	RowLimit  int
}

// RowSource yields metric rows. Services depend on this instead of a
// concrete API client.
type RowSource interface {
	FetchRows(ctx context.Context, q RowQuery) ([]metrics.MetricRow, error)
}

// SearchAnalyticsQuerier is the part of SearchConsoleClient a RowSource needs
type SearchAnalyticsQuerier interface {
	Query(ctx context.Context, accessToken, siteURL string, q SearchAnalyticsQuery) (*SearchAnalyticsResponse, error)
}

// SearchConsoleSource binds a client to one user's access token
type SearchConsoleSource struct {
	client      SearchAnalyticsQuerier
	accessToken string
}

func NewSearchConsoleSource(client SearchAnalyticsQuerier, accessToken string) *SearchConsoleSource {
	return &SearchConsoleSource{client: client, accessToken: accessToken}
}

func (s *SearchConsoleSource) FetchRows(ctx context.Context, q RowQuery) ([]metrics.MetricRow, error) {
	sq := SearchAnalyticsQuery{
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		RowLimit:  q.RowLimit,
	}
	if q.Dimension != "" {
		sq.Dimensions = []string{q.Dimension}
	}

	resp, err := s.client.Query(ctx, s.accessToken, q.SiteURL, sq)
	if err != nil {
		return nil, err
	}
	return metrics.FromSearchAnalytics(resp.Rows), nil
}

var _ RowSource = (*SearchConsoleSource)(nil)
