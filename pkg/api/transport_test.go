package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveUpstream(source, outcome string, d time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, source+":"+outcome)
}

func testTransport(source string, obs Observer) *Transport {
	return NewTransport(TransportConfig{
		Source:          source,
		Timeout:         2 * time.Second,
		MaxRetries:      2,
		RetryDelay:      5 * time.Millisecond,
		BreakerFailures: 10,
		BreakerReset:    time.Minute,
		Observer:        obs,
	})
}

func TestTransportRetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	tr := testTransport("test", obs)

	var out struct {
		OK bool `json:"ok"`
	}
	err := tr.DoJSON(context.Background(), Request{URL: srv.URL}, nil, &out)

	require.NoError(t, err)
	assert.True(t, out.OK)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"test:success"}, obs.outcomes)
}

func TestTransportDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	_, err := testTransport("gsc", obs).Do(context.Background(), Request{URL: srv.URL})

	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, StatusCodeOf(err))
	assert.Contains(t, err.Error(), "forbidden")
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Equal(t, []string{"gsc:client_error"}, obs.outcomes)
}

func TestTransportSendsBodyAndHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	err := testTransport("test", nil).DoJSON(context.Background(), Request{
		Method: http.MethodPost,
		URL:    srv.URL,
		Header: BearerHeader("tok"),
	}, map[string]int{"a": 1}, nil)

	require.NoError(t, err)
}

func TestTransportHonoursCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := testTransport("test", nil).Do(ctx, Request{URL: "http://127.0.0.1:1"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestBasicHeader(t *testing.T) {
	h := BasicHeader("user", "pass")
	assert.Equal(t, "Basic dXNlcjpwYXNz", h["Authorization"])
}
