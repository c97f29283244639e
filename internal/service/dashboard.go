package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"netfusion-go/pkg/api"
	"netfusion-go/pkg/logger"
	"netfusion-go/pkg/metrics"
	"netfusion-go/pkg/worker"
)

const (
	DefaultDays          = 30
	DefaultWindowDays    = 28
	DefaultTopQueryLimit = 50
	DefaultQueryRowLimit = 1000
	// Search Console keeps 16 months of data and answers at most 25000 rows
	MaxDays              = 480
	MaxWindowDays        = MaxDays / 2
	MaxRowLimit          = 25000
	overviewKeywordTable = 10
	dateLayout           = "2006-01-02"
)

var defaultQueryDimensions = []string{"query", "page"}

var queryDimensions = map[string]bool{
	"query":            true,
	"page":             true,
	"country":          true,
	"device":           true,
	"date":             true,
	"searchAppearance": true,
}

// ErrInvalidArgument marks caller mistakes such as a missing site URL
var ErrInvalidArgument = errors.New("invalid argument")

// Section is one dashboard panel backed by a single search-analytics dimension
type Section string

const (
	SectionKeywords Section = "keywords"
	SectionTrends   Section = "trends"
	SectionPages    Section = "pages"
)

type sectionSpec struct {
	dimension string
	rowLimit  int
	order     metrics.SortOrder
}

var sections = map[Section]sectionSpec{
	SectionKeywords: {dimension: "query", rowLimit: 100, order: metrics.OrderNone},
	SectionTrends:   {dimension: "date", rowLimit: 100, order: metrics.OrderDateAsc},
	SectionPages:    {dimension: "page", rowLimit: 20, order: metrics.OrderNone},
}

// SourceFactory binds a row source to one user's access token
type SourceFactory func(accessToken string) api.RowSource

type SectionResult struct {
	SiteURL   string                `json:"siteUrl"`
	StartDate string                `json:"startDate"`
	EndDate   string                `json:"endDate"`
	Summary   metrics.PeriodSummary `json:"summary"`
	Rows      []metrics.MetricRow   `json:"rows"`
}

// SiteOverview combines the three dashboard panels. A panel that failed has
// an entry in Errors and empty rows; the others are still filled.
type SiteOverview struct {
	SiteURL          string                `json:"siteUrl"`
	StartDate        string                `json:"startDate"`
	EndDate          string                `json:"endDate"`
	Summary          metrics.PeriodSummary `json:"summary"`
	Keywords         []metrics.MetricRow   `json:"keywords"`
	StrikingDistance []metrics.MetricRow   `json:"strikingDistance"`
	Trends           []metrics.MetricRow   `json:"trends"`
	Pages            []metrics.MetricRow   `json:"pages"`
	Errors           map[Section]string    `json:"errors,omitempty"`
}

type PerformanceReport struct {
	SiteURL    string                `json:"siteUrl"`
	WindowDays int                   `json:"windowDays"`
	Current    metrics.PeriodSummary `json:"current"`
	Previous   metrics.PeriodSummary `json:"previous"`
	Change     metrics.ChangeSet     `json:"change"`
	Daily      []metrics.MetricRow   `json:"daily"`
}

// QueryParams is a free-form search-analytics query. Zero values fall back to
// the last 28 days ending yesterday, query and page dimensions, 1000 rows.
type QueryParams struct {
	SiteURL    string   `json:"siteUrl"`
	StartDate  string   `json:"startDate"`
	EndDate    string   `json:"endDate"`
	Dimensions []string `json:"dimensions"`
	RowLimit   int      `json:"rowLimit"`
	StartRow   int      `json:"startRow"`
}

type QueryResult struct {
	Rows                    []metrics.SearchAnalyticsRow `json:"rows"`
	ResponseAggregationType string                       `json:"responseAggregationType,omitempty"`
}

type DashboardService struct {
	gsc     api.SearchConsole
	sources SourceFactory
	now     func() time.Time
	log     *logger.Logger
}

type DashboardOption func(*DashboardService)

// WithSourceFactory replaces the Search Console row source
func WithSourceFactory(f SourceFactory) DashboardOption {
	return func(s *DashboardService) { s.sources = f }
}

// WithNow pins the clock used to compute date ranges
func WithNow(now func() time.Time) DashboardOption {
	return func(s *DashboardService) { s.now = now }
}

func NewDashboardService(gsc api.SearchConsole, opts ...DashboardOption) *DashboardService {
	s := &DashboardService{
		gsc: gsc,
		now: time.Now,
		log: logger.GetLogger().WithField("component", "dashboard"),
	}
	s.sources = func(token string) api.RowSource {
		return api.NewSearchConsoleSource(s.gsc, token)
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *DashboardService) Sites(ctx context.Context, accessToken string) ([]api.Site, error) {
	return s.gsc.ListSites(ctx, accessToken)
}

// Section fetches one panel for the last days days
func (s *DashboardService) Section(ctx context.Context, accessToken, siteURL string, section Section, days int) (*SectionResult, error) {
	spec, ok := sections[section]
	if !ok {
		return nil, fmt.Errorf("%w: unknown section %q", ErrInvalidArgument, section)
	}
	if siteURL == "" {
		return nil, fmt.Errorf("%w: siteUrl is required", ErrInvalidArgument)
	}

	start, end, err := s.lastDays(days)
	if err != nil {
		return nil, err
	}
	rows, err := s.sources(accessToken).FetchRows(ctx, api.RowQuery{
		SiteURL:   siteURL,
		StartDate: start,
		EndDate:   end,
		Dimension: spec.dimension,
		RowLimit:  spec.rowLimit,
	})
	if err != nil {
		return nil, err
	}

	return &SectionResult{
		SiteURL:   siteURL,
		StartDate: start,
		EndDate:   end,
		Summary:   metrics.Summarize(rows),
		Rows:      metrics.Rank(rows, 0, spec.order),
	}, nil
}

// SiteOverview fetches keywords, trends and pages concurrently. It only
// fails when every fetch failed.
func (s *DashboardService) SiteOverview(ctx context.Context, accessToken, siteURL string, days int) (*SiteOverview, error) {
	if siteURL == "" {
		return nil, fmt.Errorf("%w: siteUrl is required", ErrInvalidArgument)
	}

	start, end, err := s.lastDays(days)
	if err != nil {
		return nil, err
	}
	source := s.sources(accessToken)

	order := []Section{SectionKeywords, SectionTrends, SectionPages}
	rows := make(map[Section][]metrics.MetricRow, len(order))
	fetched := make([][]metrics.MetricRow, len(order))

	tasks := make([]worker.Task, len(order))
	for i, sec := range order {
		i, spec := i, sections[sec]
		tasks[i] = worker.Task{
			ID: string(sec),
			Fn: func(ctx context.Context) error {
				r, err := source.FetchRows(ctx, api.RowQuery{
					SiteURL:   siteURL,
					StartDate: start,
					EndDate:   end,
					Dimension: spec.dimension,
					RowLimit:  spec.rowLimit,
				})
				fetched[i] = r
				return err
			},
		}
	}

	results := worker.FanOut(ctx, tasks...)

	out := &SiteOverview{SiteURL: siteURL, StartDate: start, EndDate: end}
	var firstErr error
	for i, res := range results {
		sec := order[i]
		if res.Error != nil {
			if firstErr == nil {
				firstErr = res.Error
			}
			if out.Errors == nil {
				out.Errors = make(map[Section]string)
			}
			out.Errors[sec] = res.Error.Error()
			s.log.WithError(res.Error).WithField("section", string(sec)).Warn("Overview section failed")
			continue
		}
		rows[sec] = fetched[i]
	}

	if worker.Failed(results) == len(results) {
		return nil, fmt.Errorf("site overview: %w", firstErr)
	}

	keywords := rows[SectionKeywords]
	out.Summary = metrics.Summarize(keywords)
	out.Keywords = metrics.Rank(keywords, overviewKeywordTable, sections[SectionKeywords].order)
	out.StrikingDistance = nonNilRows(metrics.StrikingDistance(keywords))
	out.Trends = metrics.Rank(rows[SectionTrends], 0, sections[SectionTrends].order)
	out.Pages = metrics.Rank(rows[SectionPages], 0, sections[SectionPages].order)
	return out, nil
}

// Performance compares the last windowDays days (ending yesterday) with the
// window before it
func (s *DashboardService) Performance(ctx context.Context, accessToken, siteURL string, windowDays int) (*PerformanceReport, error) {
	if siteURL == "" {
		return nil, fmt.Errorf("%w: siteUrl is required", ErrInvalidArgument)
	}
	if windowDays <= 0 {
		windowDays = DefaultWindowDays
	}
	if windowDays > MaxWindowDays {
		return nil, fmt.Errorf("%w: window must be at most %d days", ErrInvalidArgument, MaxWindowDays)
	}

	source := s.sources(accessToken)
	query := func(fromDaysAgo, toDaysAgo int) api.RowQuery {
		return api.RowQuery{
			SiteURL:   siteURL,
			StartDate: s.daysAgo(fromDaysAgo),
			EndDate:   s.daysAgo(toDaysAgo),
			Dimension: "date",
		}
	}

	var current, previous []metrics.MetricRow
	results := worker.FanOut(ctx,
		worker.Task{ID: "current", Fn: func(ctx context.Context) error {
			var err error
			current, err = source.FetchRows(ctx, query(windowDays, 1))
			return err
		}},
		worker.Task{ID: "previous", Fn: func(ctx context.Context) error {
			var err error
			previous, err = source.FetchRows(ctx, query(2*windowDays, windowDays+1))
			return err
		}},
	)
	for _, res := range results {
		if res.Error != nil {
			return nil, fmt.Errorf("performance %s window: %w", res.TaskID, res.Error)
		}
	}

	cur := metrics.Summarize(current)
	prev := metrics.Summarize(previous)
	return &PerformanceReport{
		SiteURL:    siteURL,
		WindowDays: windowDays,
		Current:    cur,
		Previous:   prev,
		Change:     metrics.ComputeChange(cur, prev),
		Daily:      metrics.Rank(current, 0, metrics.OrderDateAsc),
	}, nil
}

// TopQueries returns the top queries of the last 28 days in upstream order
func (s *DashboardService) TopQueries(ctx context.Context, accessToken, siteURL string, limit int) ([]metrics.MetricRow, error) {
	if siteURL == "" {
		return nil, fmt.Errorf("%w: siteUrl is required", ErrInvalidArgument)
	}
	if limit <= 0 {
		limit = DefaultTopQueryLimit
	}
	if limit > MaxRowLimit {
		return nil, fmt.Errorf("%w: limit must be at most %d", ErrInvalidArgument, MaxRowLimit)
	}

	rows, err := s.sources(accessToken).FetchRows(ctx, api.RowQuery{
		SiteURL:   siteURL,
		StartDate: s.daysAgo(DefaultWindowDays),
		EndDate:   s.daysAgo(1),
		Dimension: "query",
		RowLimit:  limit,
	})
	if err != nil {
		return nil, err
	}
	return metrics.Rank(rows, limit, metrics.OrderNone), nil
}

// Query runs a caller-shaped search-analytics query and returns the raw rows
func (s *DashboardService) Query(ctx context.Context, accessToken string, p QueryParams) (*QueryResult, error) {
	if p.SiteURL == "" {
		return nil, fmt.Errorf("%w: siteUrl is required", ErrInvalidArgument)
	}

	q := api.SearchAnalyticsQuery{
		StartDate:  p.StartDate,
		EndDate:    p.EndDate,
		Dimensions: p.Dimensions,
		RowLimit:   p.RowLimit,
		StartRow:   p.StartRow,
	}
	if q.StartDate == "" {
		q.StartDate = s.daysAgo(DefaultWindowDays)
	}
	if q.EndDate == "" {
		q.EndDate = s.daysAgo(1)
	}
	if len(q.Dimensions) == 0 {
		q.Dimensions = defaultQueryDimensions
	}
	if q.RowLimit <= 0 {
		q.RowLimit = DefaultQueryRowLimit
	}
	if err := validateQuery(q); err != nil {
		return nil, err
	}

	resp, err := s.gsc.Query(ctx, accessToken, p.SiteURL, q)
	if err != nil {
		return nil, err
	}

	out := &QueryResult{Rows: resp.Rows, ResponseAggregationType: resp.ResponseAggregationType}
	if out.Rows == nil {
		out.Rows = []metrics.SearchAnalyticsRow{}
	}
	return out, nil
}

func validateQuery(q api.SearchAnalyticsQuery) error {
	start, err := time.Parse(dateLayout, q.StartDate)
	if err != nil {
		return fmt.Errorf("%w: startDate must be YYYY-MM-DD", ErrInvalidArgument)
	}
	end, err := time.Parse(dateLayout, q.EndDate)
	if err != nil {
		return fmt.Errorf("%w: endDate must be YYYY-MM-DD", ErrInvalidArgument)
	}
	if end.Before(start) {
		return fmt.Errorf("%w: endDate is before startDate", ErrInvalidArgument)
	}
	for _, d := range q.Dimensions {
		if !queryDimensions[d] {
			return fmt.Errorf("%w: unknown dimension %q", ErrInvalidArgument, d)
		}
	}
	if q.RowLimit > MaxRowLimit {
		return fmt.Errorf("%w: rowLimit must be at most %d", ErrInvalidArgument, MaxRowLimit)
	}
	if q.StartRow < 0 {
		return fmt.Errorf("%w: startRow must not be negative", ErrInvalidArgument)
	}
	return nil
}

// lastDays returns the range [today-days, today]
func (s *DashboardService) lastDays(days int) (string, string, error) {
	if days <= 0 {
		days = DefaultDays
	}
	if days > MaxDays {
		return "", "", fmt.Errorf("%w: days must be at most %d", ErrInvalidArgument, MaxDays)
	}
	return s.daysAgo(days), s.daysAgo(0), nil
}

func (s *DashboardService) daysAgo(n int) string {
	return s.now().UTC().AddDate(0, 0, -n).Format(dateLayout)
}

func nonNilRows(rows []metrics.MetricRow) []metrics.MetricRow {
	if rows == nil {
		return []metrics.MetricRow{}
	}
	return rows
}
