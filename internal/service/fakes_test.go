package service

import (
	"context"
	"sync"

	"netfusion-go/pkg/api"
	"netfusion-go/pkg/metrics"
)

type fakeSource struct {
	mu      sync.Mutex
	rows    map[string][]metrics.MetricRow
	errs    map[string]error
	queries []api.RowQuery
}

func (f *fakeSource) FetchRows(ctx context.Context, q api.RowQuery) ([]metrics.MetricRow, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	key := q.Dimension + "@" + q.StartDate
	if err := f.errs[q.Dimension]; err != nil {
		return nil, err
	}
	if rows, ok := f.rows[key]; ok {
		return rows, nil
	}
	return f.rows[q.Dimension], nil
}

type fakeSearchConsole struct {
	sites    []api.Site
	resp     *api.SearchAnalyticsResponse
	lastSite string
	queries  []api.SearchAnalyticsQuery
}

func (f *fakeSearchConsole) ListSites(ctx context.Context, token string) ([]api.Site, error) {
	return f.sites, nil
}

func (f *fakeSearchConsole) Query(ctx context.Context, token, siteURL string, q api.SearchAnalyticsQuery) (*api.SearchAnalyticsResponse, error) {
	f.lastSite = siteURL
	f.queries = append(f.queries, q)
	if f.resp != nil {
		return f.resp, nil
	}
	return &api.SearchAnalyticsResponse{}, nil
}

type fakeGenerator struct {
	mu      sync.Mutex
	answer  string
	err     error
	calls   int
	prompts []string
}

func (f *fakeGenerator) GenerateContent(ctx context.Context, prompt string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	f.prompts = append(f.prompts, prompt)
	return f.answer, f.err
}

type fakeAnalytics struct {
	mu       sync.Mutex
	reports  map[string]*api.ReportResponse
	requests []api.ReportRequest
	err      error
}

func (f *fakeAnalytics) RunReport(ctx context.Context, token, propertyID string, req api.ReportRequest) (*api.ReportResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, req)
	if f.err != nil {
		return nil, f.err
	}
	if r, ok := f.reports[req.DateRanges[0].StartDate]; ok {
		return r, nil
	}
	return &api.ReportResponse{}, nil
}

type fakeResearch struct {
	lastKeyword  string
	lastKeywords []string
	lastLocale   api.Locale
}

func (f *fakeResearch) SERPOrganic(ctx context.Context, keyword string, l api.Locale) (*api.TaskResult, error) {
	f.lastKeyword, f.lastLocale = keyword, l
	return &api.TaskResult{}, nil
}

func (f *fakeResearch) SearchVolume(ctx context.Context, keywords []string, l api.Locale) (*api.TaskResult, error) {
	f.lastKeywords, f.lastLocale = keywords, l
	return &api.TaskResult{}, nil
}

func (f *fakeResearch) DomainMetrics(ctx context.Context, domain string, l api.Locale) (*api.TaskResult, error) {
	return &api.TaskResult{}, nil
}

func (f *fakeResearch) Competitors(ctx context.Context, domain string, limit int, l api.Locale) (*api.TaskResult, error) {
	return &api.TaskResult{}, nil
}

func (f *fakeResearch) Backlinks(ctx context.Context, target string) (*api.TaskResult, error) {
	return &api.TaskResult{}, nil
}

func (f *fakeResearch) Balance(ctx context.Context) (*api.Balance, error) {
	return &api.Balance{Currency: "USD"}, nil
}

type countingObserver struct {
	mu      sync.Mutex
	hits    int
	misses  int
	origins []string
}

func (o *countingObserver) ObserveCache(hit bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if hit {
		o.hits++
	} else {
		o.misses++
	}
}

func (o *countingObserver) ObserveInsight(origin string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.origins = append(o.origins, origin)
}
