package handler

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"netfusion-go/internal/auth"
	"netfusion-go/internal/service"
	"netfusion-go/pkg/api"
	"netfusion-go/pkg/metrics"
	"netfusion-go/pkg/storage"
	"netfusion-go/pkg/telemetry"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type fakeDashboard struct {
	err       error
	lastToken string
	lastSite  string
	lastDays  int
	lastQuery service.QueryParams
}

func (f *fakeDashboard) Sites(_ context.Context, token string) ([]api.Site, error) {
	f.lastToken = token
	if f.err != nil {
		return nil, f.err
	}
	return []api.Site{{SiteURL: "https://example.com/", PermissionLevel: "siteOwner"}}, nil
}

func (f *fakeDashboard) Section(_ context.Context, token, siteURL string, section service.Section, days int) (*service.SectionResult, error) {
	f.lastToken, f.lastSite, f.lastDays = token, siteURL, days
	if f.err != nil {
		return nil, f.err
	}
	if siteURL == "" {
		return nil, service.ErrInvalidArgument
	}
	return &service.SectionResult{SiteURL: siteURL, Rows: []metrics.MetricRow{}}, nil
}

func (f *fakeDashboard) SiteOverview(_ context.Context, token, siteURL string, days int) (*service.SiteOverview, error) {
	f.lastToken, f.lastSite, f.lastDays = token, siteURL, days
	if f.err != nil {
		return nil, f.err
	}
	return &service.SiteOverview{
		SiteURL: siteURL,
		Summary: metrics.PeriodSummary{TotalClicks: 10, TotalImpressions: 1000, AvgPosition: 12, AvgCTR: 0.01},
	}, nil
}

func (f *fakeDashboard) Performance(_ context.Context, token, siteURL string, window int) (*service.PerformanceReport, error) {
	f.lastToken, f.lastSite, f.lastDays = token, siteURL, window
	if f.err != nil {
		return nil, f.err
	}
	return &service.PerformanceReport{SiteURL: siteURL, WindowDays: window}, nil
}

func (f *fakeDashboard) TopQueries(_ context.Context, token, siteURL string, limit int) ([]metrics.MetricRow, error) {
	f.lastToken, f.lastSite = token, siteURL
	if f.err != nil {
		return nil, f.err
	}
	return []metrics.MetricRow{}, nil
}

func (f *fakeDashboard) Query(_ context.Context, token string, p service.QueryParams) (*service.QueryResult, error) {
	f.lastToken, f.lastQuery = token, p
	if f.err != nil {
		return nil, f.err
	}
	if p.SiteURL == "" {
		return nil, service.ErrInvalidArgument
	}
	return &service.QueryResult{
		Rows:                    []metrics.SearchAnalyticsRow{{Keys: []string{"seo", "/"}, Clicks: 3}},
		ResponseAggregationType: "byProperty",
	}, nil
}

type fakeAnalytics struct {
	lastProperty string
}

func (f *fakeAnalytics) Overview(_ context.Context, _, propertyID string) (*service.AnalyticsOverview, error) {
	f.lastProperty = propertyID
	return &service.AnalyticsOverview{PropertyID: "properties/" + propertyID}, nil
}

func (f *fakeAnalytics) TrafficSources(_ context.Context, _, propertyID string) ([]service.TrafficSource, error) {
	f.lastProperty = propertyID
	return []service.TrafficSource{{Channel: "Organic Search", Sessions: 5}}, nil
}

func (f *fakeAnalytics) Report(_ context.Context, _ string, p service.ReportParams) (*api.ReportResponse, error) {
	if p.PropertyID == "" {
		return nil, service.ErrInvalidArgument
	}
	return &api.ReportResponse{RowCount: 1}, nil
}

type fakeResearch struct {
	last service.ResearchRequest
}

func (f *fakeResearch) task(req service.ResearchRequest) (*api.TaskResult, error) {
	f.last = req
	return &api.TaskResult{
		Items: []json.RawMessage{json.RawMessage(`{"rank":1}`)},
		Cost:  decimal.RequireFromString("0.0025"),
	}, nil
}

func (f *fakeResearch) SERP(_ context.Context, req service.ResearchRequest) (*api.TaskResult, error) {
	return f.task(req)
}

func (f *fakeResearch) Keywords(_ context.Context, req service.ResearchRequest) (*api.TaskResult, error) {
	return f.task(req)
}

func (f *fakeResearch) Domain(_ context.Context, req service.ResearchRequest) (*api.TaskResult, error) {
	return f.task(req)
}

func (f *fakeResearch) Competitors(_ context.Context, req service.ResearchRequest) (*api.TaskResult, error) {
	return f.task(req)
}

func (f *fakeResearch) Backlinks(_ context.Context, req service.ResearchRequest) (*api.TaskResult, error) {
	return f.task(req)
}

func (f *fakeResearch) Balance(context.Context) (*api.Balance, error) {
	return &api.Balance{Amount: decimal.RequireFromString("42.5"), Currency: "USD"}, nil
}

type fakeOAuth struct {
	refreshed int
}

func (f *fakeOAuth) AuthCodeURL(state string) string {
	return "https://accounts.example.com/auth?state=" + state
}

func (f *fakeOAuth) Exchange(_ context.Context, code string) (*api.Token, error) {
	if code != "good-code" {
		return nil, &api.StatusError{Source: "oauth", StatusCode: http.StatusBadRequest}
	}
	return &api.Token{AccessToken: "google-access", RefreshToken: "google-refresh", ExpiresIn: 3600}, nil
}

func (f *fakeOAuth) Refresh(_ context.Context, refreshToken string) (*api.Token, error) {
	f.refreshed++
	return &api.Token{AccessToken: "google-access-2", RefreshToken: refreshToken, ExpiresIn: 3600}, nil
}

func (f *fakeOAuth) UserInfo(context.Context, string) (*api.UserInfo, error) {
	return &api.UserInfo{ID: "u-1", Email: "ada@example.com", Name: "Ada"}, nil
}

type fakeGenerator struct {
	calls int
}

func (f *fakeGenerator) GenerateContent(context.Context, string) (string, error) {
	f.calls++
	return `[{"title":"Improve titles","description":"CTR is low","priority":"high"}]`, nil
}

type testEnv struct {
	app       *fiber.App
	ctl       *Controller
	issuer    *auth.Issuer
	dashboard *fakeDashboard
	analytics *fakeAnalytics
	research  *fakeResearch
	oauth     *fakeOAuth
	generator *fakeGenerator
	metrics   *telemetry.Metrics
}

func newTestEnv(t *testing.T, cfg Config) *testEnv {
	t.Helper()

	issuer, err := auth.NewIssuer(testSecret, time.Hour)
	require.NoError(t, err)

	cache, err := storage.NewResponseCache(storage.DefaultCacheCapacity, storage.DefaultCacheTTL)
	require.NoError(t, err)

	env := &testEnv{
		issuer:    issuer,
		dashboard: &fakeDashboard{},
		analytics: &fakeAnalytics{},
		research:  &fakeResearch{},
		oauth:     &fakeOAuth{},
		generator: &fakeGenerator{},
		metrics:   telemetry.NewMetrics("netfusion"),
	}

	env.ctl = NewController(Deps{
		Dashboard: env.dashboard,
		Insights:  service.NewInsightService(cache, env.generator, env.metrics, service.InsightConfig{}),
		Analytics: env.analytics,
		Research:  env.research,
		OAuth:     env.oauth,
		Sessions:  issuer,
		Metrics:   env.metrics,
	}, cfg)
	env.app = NewApp(env.ctl)
	return env
}

func (e *testEnv) token(t *testing.T, g auth.GoogleTokens) string {
	t.Helper()
	tok, err := e.issuer.Issue(auth.Session{UserID: "u-1", Email: "ada@example.com", Name: "Ada", Google: g})
	require.NoError(t, err)
	return tok
}

func (e *testEnv) do(t *testing.T, method, target, token, body string) *http.Response {
	t.Helper()

	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, r)
	if body != "" {
		req.Header.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
	}
	if token != "" {
		req.Header.Set(fiber.HeaderAuthorization, "Bearer "+token)
	}

	resp, err := e.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func decode(t *testing.T, resp *http.Response, v interface{}) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
}

func errorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body errorResponse
	decode(t, resp, &body)
	return body.Error.Code
}
