package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/valyala/fasthttp"
	"golang.org/x/time/rate"

	"netfusion-go/pkg/logger"
)

// Observer receives one call per upstream request attempt chain
type Observer interface {
	ObserveUpstream(source, outcome string, d time.Duration)
}

// Upstream outcomes reported to an Observer
const (
	OutcomeSuccess     = "success"
	OutcomeClientError = "client_error"
	OutcomeServerError = "server_error"
	OutcomeCircuitOpen = "circuit_open"
	OutcomeCanceled    = "canceled"
	OutcomeTransport   = "transport_error"
)

// TransportConfig holds the outbound settings shared by every upstream client
type TransportConfig struct {
	Source          string
	Timeout         time.Duration
	MaxRetries      int
	RetryDelay      time.Duration
	BreakerFailures int
	BreakerReset    time.Duration
	// QPS <= 0 disables outbound rate limiting
	QPS      float64
	Observer Observer
}

// DefaultTransportConfig returns settings suitable for Google and DataForSEO APIs
func DefaultTransportConfig(source string) TransportConfig {
	return TransportConfig{
		Source:          source,
		Timeout:         30 * time.Second,
		MaxRetries:      2,
		RetryDelay:      500 * time.Millisecond,
		BreakerFailures: 5,
		BreakerReset:    30 * time.Second,
		QPS:             10,
	}
}

// Request describes a single upstream call
type Request struct {
	Method string
	URL    string
	Header map[string]string
	// Body is sent as-is; use JSON to encode a value
	Body []byte
}

// Transport executes upstream requests through a rate limiter, a retry loop
// and a circuit breaker. Non-2xx answers become *StatusError.
type Transport struct {
	source   string
	client   *fasthttp.Client
	limiter  *rate.Limiter
	retry    *SimpleRetry
	breaker  *CircuitBreaker
	timeout  time.Duration
	observer Observer
	log      *logger.Logger
}

func NewTransport(cfg TransportConfig) *Transport {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}

	t := &Transport{
		source: cfg.Source,
		client: &fasthttp.Client{
			Name:                "netfusion-go/1.0",
			MaxConnsPerHost:     100,
			MaxIdleConnDuration: 90 * time.Second,
			ReadTimeout:         cfg.Timeout,
			WriteTimeout:        cfg.Timeout,
			// %2F in path-escaped site URLs must reach Google intact
			DisablePathNormalizing: true,
		},
		retry:    NewSimpleRetry(cfg.MaxRetries, cfg.RetryDelay),
		breaker:  NewCircuitBreaker(cfg.BreakerFailures, cfg.BreakerReset),
		timeout:  cfg.Timeout,
		observer: cfg.Observer,
		log:      logger.GetLogger().WithField("component", "transport").WithField("source", cfg.Source),
	}

	if cfg.QPS > 0 {
		burst := int(cfg.QPS)
		if burst < 1 {
			burst = 1
		}
		t.limiter = rate.NewLimiter(rate.Limit(cfg.QPS), burst)
	}
	return t
}

// Source names the upstream this transport talks to
func (t *Transport) Source() string {
	return t.source
}

// BreakerState exposes the circuit state for health reporting
func (t *Transport) BreakerState() CircuitState {
	return t.breaker.State()
}

// Do runs req and returns the response body of a 2xx answer
func (t *Transport) Do(ctx context.Context, req Request) ([]byte, error) {
	start := time.Now()

	var body []byte
	err := t.retry.Execute(ctx, func() error {
		return t.breaker.Execute(func() error {
			b, err := t.attempt(ctx, req)
			if err != nil {
				return err
			}
			body = b
			return nil
		})
	})

	elapsed := time.Since(start)
	if t.observer != nil {
		t.observer.ObserveUpstream(t.source, outcomeOf(err), elapsed)
	}

	if err != nil {
		t.log.WithError(err).WithFields(map[string]interface{}{
			"method":      req.Method,
			"status":      StatusCodeOf(err),
			"duration_ms": elapsed.Milliseconds(),
		}).Warn("Upstream request failed")
		return nil, err
	}

	t.log.WithField("duration_ms", elapsed.Milliseconds()).Debug("Upstream request completed")
	return body, nil
}

// DoJSON encodes in (when non-nil) as the request body and decodes the answer into out
func (t *Transport) DoJSON(ctx context.Context, req Request, in, out any) error {
	if in != nil {
		payload, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", t.source, err)
		}
		req.Body = payload
		if req.Header == nil {
			req.Header = map[string]string{}
		}
		req.Header["Content-Type"] = "application/json"
	}

	body, err := t.Do(ctx, req)
	if err != nil {
		return err
	}

	if out == nil || len(body) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s response: %w", t.source, err)
	}
	return nil
}

func (t *Transport) attempt(ctx context.Context, r Request) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if t.limiter != nil {
		if err := t.limiter.Wait(ctx); err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			// the wait would outlive the caller's deadline
			return nil, fmt.Errorf("%s rate limit: %w: %v", t.source, context.DeadlineExceeded, err)
		}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	method := r.Method
	if method == "" {
		method = fasthttp.MethodGet
	}
	req.SetRequestURI(r.URL)
	req.Header.SetMethod(method)
	req.Header.Set("Accept", "application/json")
	for k, v := range r.Header {
		req.Header.Set(k, v)
	}
	if len(r.Body) > 0 {
		req.SetBody(r.Body)
	}

	deadline := time.Now().Add(t.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := t.client.DoDeadline(req, resp, deadline); err != nil {
		if errors.Is(err, fasthttp.ErrTimeout) && ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, fmt.Errorf("%s request failed: %w", t.source, err)
	}

	// resp is released on return, so the body must be copied out
	body := append([]byte(nil), resp.Body()...)

	status := resp.StatusCode()
	if status < 200 || status > 299 {
		return nil, &StatusError{Source: t.source, StatusCode: status, Body: string(body)}
	}
	return body, nil
}

// BearerHeader builds the Authorization header for an OAuth access token
func BearerHeader(token string) map[string]string {
	return map[string]string{"Authorization": "Bearer " + token}
}

// BasicHeader builds the Authorization header for HTTP basic auth
func BasicHeader(user, password string) map[string]string {
	creds := base64.StdEncoding.EncodeToString([]byte(user + ":" + password))
	return map[string]string{"Authorization": "Basic " + creds}
}

func outcomeOf(err error) string {
	if err == nil {
		return OutcomeSuccess
	}
	if errors.Is(err, ErrCircuitOpen) {
		return OutcomeCircuitOpen
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return OutcomeCanceled
	}
	if code := StatusCodeOf(err); code != 0 {
		if code >= 500 {
			return OutcomeServerError
		}
		return OutcomeClientError
	}
	return OutcomeTransport
}
