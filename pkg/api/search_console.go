package api

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/valyala/fasthttp"

	"netfusion-go/pkg/metrics"
)

const DefaultSearchConsoleEndpoint = "https://www.googleapis.com/webmasters/v3"

// Site is one Search Console property the user can read
type Site struct {
	SiteURL         string `json:"siteUrl"`
	PermissionLevel string `json:"permissionLevel"`
}

// SearchAnalyticsQuery is the body of a searchAnalytics.query call.
// Dates are YYYY-MM-DD.
type SearchAnalyticsQuery struct {
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions,omitempty"`
	RowLimit   int      `json:"rowLimit,omitempty"`
	StartRow   int      `json:"startRow,omitempty"`
}

type SearchAnalyticsResponse struct {
	Rows                    []metrics.SearchAnalyticsRow `json:"rows"`
	ResponseAggregationType string                       `json:"responseAggregationType,omitempty"`
}

// SearchConsoleClient talks to the Search Console (webmasters v3) API
type SearchConsoleClient struct {
	endpoint  string
	transport *Transport
}

func NewSearchConsoleClient(endpoint string, transport *Transport) *SearchConsoleClient {
	if endpoint == "" {
		endpoint = DefaultSearchConsoleEndpoint
	}
	return &SearchConsoleClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		transport: transport,
	}
}

func (c *SearchConsoleClient) ListSites(ctx context.Context, accessToken string) ([]Site, error) {
	if accessToken == "" {
		return nil, ErrMissingToken
	}

	var resp struct {
		SiteEntry []Site `json:"siteEntry"`
	}
	err := c.transport.DoJSON(ctx, Request{
		Method: fasthttp.MethodGet,
		URL:    c.endpoint + "/sites",
		Header: BearerHeader(accessToken),
	}, nil, &resp)
	if err != nil {
		return nil, fmt.Errorf("list sites: %w", err)
	}

	if resp.SiteEntry == nil {
		return []Site{}, nil
	}
	return resp.SiteEntry, nil
}

func (c *SearchConsoleClient) Query(ctx context.Context, accessToken, siteURL string, q SearchAnalyticsQuery) (*SearchAnalyticsResponse, error) {
	if accessToken == "" {
		return nil, ErrMissingToken
	}
	if siteURL == "" {
		return nil, fmt.Errorf("site url is required")
	}

	var resp SearchAnalyticsResponse
	err := c.transport.DoJSON(ctx, Request{
		Method: fasthttp.MethodPost,
		URL:    c.endpoint + "/sites/" + url.PathEscape(siteURL) + "/searchAnalytics/query",
		Header: BearerHeader(accessToken),
	}, q, &resp)
	if err != nil {
		return nil, fmt.Errorf("search analytics query: %w", err)
	}
	return &resp, nil
}
