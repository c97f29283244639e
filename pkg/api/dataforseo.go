package api

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/valyala/fasthttp"
)

const (
	DefaultDataForSEOEndpoint = "https://api.dataforseo.com/v3"
	DefaultLocationCode       = 2158
	DefaultLanguageCode       = "zh"

	// dataForSEOOK is the status code DataForSEO uses for a successful task
	dataForSEOOK = 20000
)

// TaskError is a DataForSEO envelope or task that reported a non-success code
// inside an HTTP 200 answer
type TaskError struct {
	Code    int
	Message string
}

func (e *TaskError) Error() string {
	return fmt.Sprintf("dataforseo task failed with code %d: %s", e.Code, e.Message)
}

type dataForSEOTask struct {
	ID            string            `json:"id"`
	StatusCode    int               `json:"status_code"`
	StatusMessage string            `json:"status_message"`
	Cost          decimal.Decimal   `json:"cost"`
	Result        []json.RawMessage `json:"result"`
}

type dataForSEOEnvelope struct {
	StatusCode    int              `json:"status_code"`
	StatusMessage string           `json:"status_message"`
	Cost          decimal.Decimal  `json:"cost"`
	Tasks         []dataForSEOTask `json:"tasks"`
}

// TaskResult is the passthrough payload of one DataForSEO task
type TaskResult struct {
	Items []json.RawMessage `json:"items"`
	Cost  decimal.Decimal   `json:"cost"`
}

// Locale selects the DataForSEO market; zero values fall back to the client defaults
type Locale struct {
	LocationCode int    `json:"locationCode,omitempty"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type Balance struct {
	Amount   decimal.Decimal `json:"balance"`
	Currency string          `json:"currency"`
}

// DataForSEOClient calls the DataForSEO v3 live endpoints with basic auth
type DataForSEOClient struct {
	endpoint  string
	login     string
	password  string
	locale    Locale
	transport *Transport
}

func NewDataForSEOClient(endpoint, login, password string, defaults Locale, transport *Transport) *DataForSEOClient {
	if endpoint == "" {
		endpoint = DefaultDataForSEOEndpoint
	}
	if defaults.LocationCode == 0 {
		defaults.LocationCode = DefaultLocationCode
	}
	if defaults.LanguageCode == "" {
		defaults.LanguageCode = DefaultLanguageCode
	}
	return &DataForSEOClient{
		endpoint:  strings.TrimRight(endpoint, "/"),
		login:     login,
		password:  password,
		locale:    defaults,
		transport: transport,
	}
}

// Configured reports whether credentials are present
func (c *DataForSEOClient) Configured() bool {
	return c.login != "" && c.password != ""
}

func (c *DataForSEOClient) resolve(l Locale) Locale {
	if l.LocationCode == 0 {
		l.LocationCode = c.locale.LocationCode
	}
	if l.LanguageCode == "" {
		l.LanguageCode = c.locale.LanguageCode
	}
	return l
}

// SERPOrganic returns live Google organic results for keyword
func (c *DataForSEOClient) SERPOrganic(ctx context.Context, keyword string, l Locale) (*TaskResult, error) {
	l = c.resolve(l)
	task, err := c.post(ctx, "/serp/google/organic/live/advanced", map[string]any{
		"keyword":       keyword,
		"location_code": l.LocationCode,
		"language_code": l.LanguageCode,
		"device":        "desktop",
		"os":            "windows",
	})
	if err != nil {
		return nil, err
	}
	return &TaskResult{Items: nonNil(task.Result), Cost: task.Cost}, nil
}

// SearchVolume returns Google Ads search volume for keywords
func (c *DataForSEOClient) SearchVolume(ctx context.Context, keywords []string, l Locale) (*TaskResult, error) {
	l = c.resolve(l)
	task, err := c.post(ctx, "/keywords_data/google_ads/search_volume/live", map[string]any{
		"keywords":      keywords,
		"location_code": l.LocationCode,
		"language_code": l.LanguageCode,
	})
	if err != nil {
		return nil, err
	}
	return &TaskResult{Items: nonNil(task.Result), Cost: task.Cost}, nil
}

// DomainMetrics returns the labs domain overview for domain
func (c *DataForSEOClient) DomainMetrics(ctx context.Context, domain string, l Locale) (*TaskResult, error) {
	l = c.resolve(l)
	task, err := c.post(ctx, "/dataforseo_labs/google/domain_metrics_by_categories/live", map[string]any{
		"target":        domain,
		"location_code": l.LocationCode,
		"language_code": l.LanguageCode,
	})
	if err != nil {
		return nil, err
	}
	return &TaskResult{Items: nonNil(task.Result), Cost: task.Cost}, nil
}

// Competitors returns the items of the first competitors_domain result
func (c *DataForSEOClient) Competitors(ctx context.Context, domain string, limit int, l Locale) (*TaskResult, error) {
	if limit <= 0 {
		limit = 10
	}
	l = c.resolve(l)
	task, err := c.post(ctx, "/dataforseo_labs/google/competitors_domain/live", map[string]any{
		"target":        domain,
		"location_code": l.LocationCode,
		"language_code": l.LanguageCode,
		"limit":         limit,
	})
	if err != nil {
		return nil, err
	}

	out := &TaskResult{Items: []json.RawMessage{}, Cost: task.Cost}
	if len(task.Result) == 0 {
		return out, nil
	}
	var first struct {
		Items []json.RawMessage `json:"items"`
	}
	if err := json.Unmarshal(task.Result[0], &first); err != nil {
		return nil, fmt.Errorf("decode competitors: %w", err)
	}
	out.Items = nonNil(first.Items)
	return out, nil
}

// Backlinks returns the backlink summary of target as a single item
func (c *DataForSEOClient) Backlinks(ctx context.Context, target string) (*TaskResult, error) {
	task, err := c.post(ctx, "/backlinks/summary/live", map[string]any{
		"target":                target,
		"internal_list_limit":   10,
		"backlinks_status_type": "live",
	})
	if err != nil {
		return nil, err
	}

	out := &TaskResult{Items: []json.RawMessage{}, Cost: task.Cost}
	if len(task.Result) > 0 {
		out.Items = task.Result[:1]
	}
	return out, nil
}

// Balance returns the remaining account balance
func (c *DataForSEOClient) Balance(ctx context.Context) (*Balance, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var env dataForSEOEnvelope
	err := c.transport.DoJSON(ctx, Request{
		Method: fasthttp.MethodGet,
		URL:    c.endpoint + "/appendix/user_data",
		Header: BasicHeader(c.login, c.password),
	}, nil, &env)
	if err != nil {
		return nil, fmt.Errorf("dataforseo balance: %w", err)
	}

	task, err := firstTask(&env)
	if err != nil {
		return nil, err
	}

	balance := &Balance{Amount: decimal.Zero, Currency: "USD"}
	if len(task.Result) == 0 {
		return balance, nil
	}
	var data struct {
		Money struct {
			Balance decimal.Decimal `json:"balance"`
		} `json:"money"`
	}
	if err := json.Unmarshal(task.Result[0], &data); err != nil {
		return nil, fmt.Errorf("decode balance: %w", err)
	}
	balance.Amount = data.Money.Balance
	return balance, nil
}

func (c *DataForSEOClient) post(ctx context.Context, path string, task map[string]any) (*dataForSEOTask, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	var env dataForSEOEnvelope
	err := c.transport.DoJSON(ctx, Request{
		Method: fasthttp.MethodPost,
		URL:    c.endpoint + path,
		Header: BasicHeader(c.login, c.password),
	}, []map[string]any{task}, &env)
	if err != nil {
		return nil, fmt.Errorf("dataforseo %s: %w", path, err)
	}
	return firstTask(&env)
}

func firstTask(env *dataForSEOEnvelope) (*dataForSEOTask, error) {
	if env.StatusCode != 0 && env.StatusCode != dataForSEOOK {
		return nil, &TaskError{Code: env.StatusCode, Message: env.StatusMessage}
	}
	if len(env.Tasks) == 0 {
		return &dataForSEOTask{Cost: env.Cost}, nil
	}
	task := env.Tasks[0]
	if task.StatusCode != 0 && task.StatusCode != dataForSEOOK {
		return nil, &TaskError{Code: task.StatusCode, Message: task.StatusMessage}
	}
	if task.Cost.IsZero() {
		task.Cost = env.Cost
	}
	return &task, nil
}

func nonNil(items []json.RawMessage) []json.RawMessage {
	if items == nil {
		return []json.RawMessage{}
	}
	return items
}
