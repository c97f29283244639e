package service

import (
	"context"

	"netfusion-go/pkg/api"
	"netfusion-go/pkg/metrics"
	"netfusion-go/pkg/storage"
)

type DashboardProvider interface {
	Sites(ctx context.Context, accessToken string) ([]api.Site, error)
	Section(ctx context.Context, accessToken, siteURL string, section Section, days int) (*SectionResult, error)
	SiteOverview(ctx context.Context, accessToken, siteURL string, days int) (*SiteOverview, error)
	Performance(ctx context.Context, accessToken, siteURL string, windowDays int) (*PerformanceReport, error)
	TopQueries(ctx context.Context, accessToken, siteURL string, limit int) ([]metrics.MetricRow, error)
	Query(ctx context.Context, accessToken string, p QueryParams) (*QueryResult, error)
}

type InsightProvider interface {
	Generate(ctx context.Context, req InsightRequest) (*InsightResult, error)
	CacheStats() storage.CacheStats
}

type AnalyticsProvider interface {
	Overview(ctx context.Context, accessToken, propertyID string) (*AnalyticsOverview, error)
	TrafficSources(ctx context.Context, accessToken, propertyID string) ([]TrafficSource, error)
	Report(ctx context.Context, accessToken string, req ReportParams) (*api.ReportResponse, error)
}

type ResearchProvider interface {
	SERP(ctx context.Context, req ResearchRequest) (*api.TaskResult, error)
	Keywords(ctx context.Context, req ResearchRequest) (*api.TaskResult, error)
	Domain(ctx context.Context, req ResearchRequest) (*api.TaskResult, error)
	Competitors(ctx context.Context, req ResearchRequest) (*api.TaskResult, error)
	Backlinks(ctx context.Context, req ResearchRequest) (*api.TaskResult, error)
	Balance(ctx context.Context) (*api.Balance, error)
}

// Observer receives cache and insight-origin events; telemetry.Metrics satisfies it
type Observer interface {
	ObserveCache(hit bool)
	ObserveInsight(origin string)
}

type nopObserver struct{}

func (nopObserver) ObserveCache(bool)     {}
func (nopObserver) ObserveInsight(string) {}

var (
	_ DashboardProvider = (*DashboardService)(nil)
	_ InsightProvider   = (*InsightService)(nil)
	_ AnalyticsProvider = (*AnalyticsService)(nil)
	_ ResearchProvider  = (*ResearchService)(nil)
)
