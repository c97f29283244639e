package api

import "context"

// SearchConsole is the Search Console surface the dashboard needs
type SearchConsole interface {
	SearchAnalyticsQuerier
	ListSites(ctx context.Context, accessToken string) ([]Site, error)
}

// AnalyticsData runs GA4 reports
type AnalyticsData interface {
	RunReport(ctx context.Context, accessToken, propertyID string, req ReportRequest) (*ReportResponse, error)
}

// KeywordResearch is the DataForSEO surface
type KeywordResearch interface {
	SERPOrganic(ctx context.Context, keyword string, l Locale) (*TaskResult, error)
	SearchVolume(ctx context.Context, keywords []string, l Locale) (*TaskResult, error)
	DomainMetrics(ctx context.Context, domain string, l Locale) (*TaskResult, error)
	Competitors(ctx context.Context, domain string, limit int, l Locale) (*TaskResult, error)
	Backlinks(ctx context.Context, target string) (*TaskResult, error)
	Balance(ctx context.Context) (*Balance, error)
}

// TextGenerator produces free text from a prompt
type TextGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

// Authenticator runs the OAuth sign-in flow
type Authenticator interface {
	AuthCodeURL(state string) string
	Exchange(ctx context.Context, code string) (*Token, error)
	Refresh(ctx context.Context, refreshToken string) (*Token, error)
	UserInfo(ctx context.Context, accessToken string) (*UserInfo, error)
}

var (
	_ SearchConsole   = (*SearchConsoleClient)(nil)
	_ AnalyticsData   = (*AnalyticsDataClient)(nil)
	_ KeywordResearch = (*DataForSEOClient)(nil)
	_ TextGenerator   = (*GeminiClient)(nil)
	_ Authenticator   = (*OAuthClient)(nil)
)
