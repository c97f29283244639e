package api

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestSimpleRetryRecoversFromTransientFailure(t *testing.T) {
	retry := NewSimpleRetry(3, time.Millisecond)

	attempts := 0
	err := retry.Execute(context.Background(), func() error {
		attempts++
		if attempts < 2 {
			return errors.New("connection reset by peer")
		}
		return nil
	})

	if err != nil {
		t.Errorf("expected success, got %v", err)
	}
	if attempts != 2 {
		t.Errorf("expected 2 attempts, got %d", attempts)
	}
}

func TestSimpleRetryByUpstreamStatus(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		attempts int
	}{
		{name: "quota exceeded", err: &StatusError{Source: "search_console", StatusCode: 429}, attempts: 3},
		{name: "server error", err: &StatusError{Source: "analytics_data", StatusCode: 503}, attempts: 3},
		{name: "bad request", err: &StatusError{Source: "dataforseo", StatusCode: 400}, attempts: 1},
		{name: "revoked grant", err: &StatusError{Source: "search_console", StatusCode: 401}, attempts: 1},
		{name: "circuit open", err: ErrCircuitOpen, attempts: 1},
		{name: "no credentials", err: ErrNotConfigured, attempts: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			retry := NewSimpleRetry(2, time.Millisecond)

			attempts := 0
			err := retry.Execute(context.Background(), func() error {
				attempts++
				return tt.err
			})

			if !errors.Is(err, tt.err) {
				t.Errorf("expected %v back, got %v", tt.err, err)
			}
			if attempts != tt.attempts {
				t.Errorf("expected %d attempts, got %d", tt.attempts, attempts)
			}
		})
	}
}

func TestSimpleRetryBacksOffExponentially(t *testing.T) {
	const base = 20 * time.Millisecond
	retry := NewSimpleRetry(2, base)

	var stamps []time.Time
	_ = retry.Execute(context.Background(), func() error {
		stamps = append(stamps, time.Now())
		return &StatusError{Source: "gemini", StatusCode: 429}
	})

	if len(stamps) != 3 {
		t.Fatalf("expected 3 attempts, got %d", len(stamps))
	}
	if gap := stamps[1].Sub(stamps[0]); gap < base {
		t.Errorf("first retry after %v, want at least %v", gap, base)
	}
	if gap := stamps[2].Sub(stamps[1]); gap < 2*base {
		t.Errorf("second retry after %v, want at least %v", gap, 2*base)
	}
}

func TestSimpleRetryZeroRetriesRunsOnce(t *testing.T) {
	retry := NewSimpleRetry(-1, time.Millisecond)

	attempts := 0
	_ = retry.Execute(context.Background(), func() error {
		attempts++
		return &StatusError{StatusCode: 502}
	})

	if attempts != 1 {
		t.Errorf("expected a single attempt, got %d", attempts)
	}
}

func TestSimpleRetryStopsWhenContextCanceled(t *testing.T) {
	retry := NewSimpleRetry(3, 100*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	err := retry.Execute(ctx, func() error {
		return &StatusError{StatusCode: 500}
	})

	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}
