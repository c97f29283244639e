package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchConsoleQuery(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites/https:%2F%2Fexample.com%2F/searchAnalytics/query", r.URL.EscapedPath())
		assert.Equal(t, "Bearer access", r.Header.Get("Authorization"))

		var q SearchAnalyticsQuery
		require.NoError(t, json.NewDecoder(r.Body).Decode(&q))
		assert.Equal(t, []string{"query"}, q.Dimensions)
		assert.Equal(t, 20, q.RowLimit)

		_, _ = io.WriteString(w, `{"rows":[{"keys":["seo tools"],"clicks":12,"impressions":300,"ctr":0.04,"position":4.2}],"responseAggregationType":"byProperty"}`)
	}))
	defer srv.Close()

	client := NewSearchConsoleClient(srv.URL, testTransport("gsc", nil))
	resp, err := client.Query(context.Background(), "access", "https://example.com/", SearchAnalyticsQuery{
		StartDate:  "2024-01-01",
		EndDate:    "2024-01-28",
		Dimensions: []string{"query"},
		RowLimit:   20,
	})

	require.NoError(t, err)
	require.Len(t, resp.Rows, 1)
	assert.Equal(t, "byProperty", resp.ResponseAggregationType)
	assert.Equal(t, 12.0, resp.Rows[0].Clicks)
}

func TestSearchConsoleRequiresToken(t *testing.T) {
	client := NewSearchConsoleClient("http://127.0.0.1:1", testTransport("gsc", nil))

	_, err := client.ListSites(context.Background(), "")
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestSearchConsoleListSitesEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sites", r.URL.Path)
		_, _ = io.WriteString(w, `{}`)
	}))
	defer srv.Close()

	sites, err := NewSearchConsoleClient(srv.URL, testTransport("gsc", nil)).ListSites(context.Background(), "tok")
	require.NoError(t, err)
	assert.NotNil(t, sites)
	assert.Empty(t, sites)
}

func TestSearchConsoleSourceConvertsRows(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"rows":[{"keys":["2024-01-02"],"clicks":5,"impressions":50,"ctr":0.1,"position":3}]}`)
	}))
	defer srv.Close()

	source := NewSearchConsoleSource(NewSearchConsoleClient(srv.URL, testTransport("gsc", nil)), "tok")
	rows, err := source.FetchRows(context.Background(), RowQuery{SiteURL: "sc-domain:example.com", Dimension: "date"})

	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "2024-01-02", rows[0].DimensionKey)
	assert.Equal(t, int64(5), rows[0].Clicks)
}

func TestAnalyticsRunReport(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/properties/123:runReport", r.URL.Path)

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "10", body["limit"])

		_, _ = io.WriteString(w, `{
			"metricHeaders":[{"name":"sessions"},{"name":"bounceRate"}],
			"rows":[{"metricValues":[{"value":"120"},{"value":"0.42"}]}],
			"rowCount":1}`)
	}))
	defer srv.Close()

	client := NewAnalyticsDataClient(srv.URL, testTransport("ga4", nil))
	resp, err := client.RunReport(context.Background(), "tok", "123", ReportRequest{
		DateRanges: []DateRange{{StartDate: "28daysAgo", EndDate: "yesterday"}},
		Metrics:    []MetricSpec{{Name: "sessions"}, {Name: "bounceRate"}},
		Limit:      10,
	})

	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"sessions": 120, "bounceRate": 0.42}, resp.FirstRowMetrics())
}

func TestNormalizeProperty(t *testing.T) {
	assert.Equal(t, "properties/42", NormalizeProperty("42"))
	assert.Equal(t, "properties/42", NormalizeProperty("properties/42"))
}

func TestReportRowAccessorsTolerateGaps(t *testing.T) {
	row := ReportRow{MetricValues: []ReportValue{{Value: "not-a-number"}}}

	assert.Equal(t, 0.0, row.Metric(0))
	assert.Equal(t, 0.0, row.Metric(5))
	assert.Equal(t, "", row.Dimension(0))
}

func TestDataForSEOCompetitors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/dataforseo_labs/google/competitors_domain/live", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "login", user)
		assert.Equal(t, "secret", pass)

		var tasks []map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&tasks))
		require.Len(t, tasks, 1)
		assert.Equal(t, float64(2158), tasks[0]["location_code"])
		assert.Equal(t, "zh", tasks[0]["language_code"])
		assert.Equal(t, float64(10), tasks[0]["limit"])

		_, _ = io.WriteString(w, `{"status_code":20000,"cost":0.0125,"tasks":[{"status_code":20000,"cost":0.0125,
			"result":[{"items":[{"domain":"rival.com"},{"domain":"other.com"}]}]}]}`)
	}))
	defer srv.Close()

	client := NewDataForSEOClient(srv.URL, "login", "secret", Locale{}, testTransport("dataforseo", nil))
	res, err := client.Competitors(context.Background(), "example.com", 0, Locale{})

	require.NoError(t, err)
	assert.Len(t, res.Items, 2)
	assert.Equal(t, "0.0125", res.Cost.String())
}

func TestDataForSEOTaskError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"status_code":20000,"tasks":[{"status_code":40501,"status_message":"Invalid Field"}]}`)
	}))
	defer srv.Close()

	client := NewDataForSEOClient(srv.URL, "login", "secret", Locale{}, testTransport("dataforseo", nil))
	_, err := client.SERPOrganic(context.Background(), "seo", Locale{})

	var taskErr *TaskError
	require.ErrorAs(t, err, &taskErr)
	assert.Equal(t, 40501, taskErr.Code)
}

func TestDataForSEOBalance(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		_, _ = io.WriteString(w, `{"status_code":20000,"tasks":[{"status_code":20000,"result":[{"money":{"balance":41.37}}]}]}`)
	}))
	defer srv.Close()

	client := NewDataForSEOClient(srv.URL, "login", "secret", Locale{}, testTransport("dataforseo", nil))
	bal, err := client.Balance(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "41.37", bal.Amount.String())
	assert.Equal(t, "USD", bal.Currency)
}

func TestDataForSEONotConfigured(t *testing.T) {
	client := NewDataForSEOClient("", "", "", Locale{}, testTransport("dataforseo", nil))

	_, err := client.Backlinks(context.Background(), "example.com")
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGeminiGenerateContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/gemini-1.5-flash:generateContent", r.URL.Path)
		assert.Equal(t, "key", r.Header.Get("x-goog-api-key"))
		_, _ = io.WriteString(w, `{"candidates":[{"content":{"parts":[{"text":"[{\"title\":"},{"text":"\"a\"}]"}]}}]}`)
	}))
	defer srv.Close()

	text, err := NewGeminiClient(srv.URL, "key", "", testTransport("gemini", nil)).GenerateContent(context.Background(), "hi")

	require.NoError(t, err)
	assert.Equal(t, `[{"title":"a"}]`, text)
}

func TestGeminiEmptyCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	_, err := NewGeminiClient(srv.URL, "key", "", testTransport("gemini", nil)).GenerateContent(context.Background(), "hi")
	assert.ErrorIs(t, err, ErrEmptyCompletion)
}

func TestOAuthAuthCodeURL(t *testing.T) {
	client := NewOAuthClient(OAuthConfig{ClientID: "cid", ClientSecret: "cs", RedirectURL: "http://localhost/cb"}, nil)

	u, err := url.Parse(client.AuthCodeURL("state-1"))
	require.NoError(t, err)

	q := u.Query()
	assert.Equal(t, "accounts.google.com", u.Host)
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, "consent", q.Get("prompt"))
	assert.Equal(t, "state-1", q.Get("state"))
	assert.Contains(t, q.Get("scope"), "webmasters.readonly")
	assert.Contains(t, q.Get("scope"), "analytics.readonly")
}

func TestOAuthExchangeAndUserInfo(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "the-code", r.PostForm.Get("code"))
		assert.Equal(t, "cid", r.PostForm.Get("client_id"))
		_, _ = io.WriteString(w, `{"access_token":"at","refresh_token":"rt","expires_in":3599,"token_type":"Bearer"}`)
	})
	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.Header.Get("Authorization"), " at"))
		_, _ = io.WriteString(w, `{"id":"u1","email":"a@example.com","name":"A"}`)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewOAuthClient(OAuthConfig{
		ClientID:         "cid",
		ClientSecret:     "cs",
		TokenEndpoint:    srv.URL + "/token",
		UserInfoEndpoint: srv.URL + "/userinfo",
	}, testTransport("oauth", nil))

	tok, err := client.Exchange(context.Background(), "the-code")
	require.NoError(t, err)
	assert.Equal(t, "rt", tok.RefreshToken)

	info, err := client.UserInfo(context.Background(), tok.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "a@example.com", info.Email)
}

func TestOAuthRefreshKeepsRefreshToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"access_token":"new","expires_in":3599,"token_type":"Bearer"}`)
	}))
	defer srv.Close()

	client := NewOAuthClient(OAuthConfig{ClientID: "cid", ClientSecret: "cs", TokenEndpoint: srv.URL}, testTransport("oauth", nil))
	tok, err := client.Refresh(context.Background(), "old-refresh")

	require.NoError(t, err)
	assert.Equal(t, "new", tok.AccessToken)
	assert.Equal(t, "old-refresh", tok.RefreshToken)
}
