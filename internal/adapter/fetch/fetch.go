// Package fetch wraps outbound GET requests with the retry and circuit-breaker
// policy shared by every upstream adapter.
package fetch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/sony/gobreaker"
)

const (
	maxAttempts = 3
	baseBackoff = 300 * time.Millisecond
)

// StatusError reports a non-200 response. 4xx statuses are not retried; the
// request is malformed or unauthorized and repeating it cannot help.
type StatusError struct {
	Status int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("unexpected status %d: %s", e.Status, e.Body)
}

func (e *StatusError) retryable() bool {
	return e.Status >= 500
}

// NewBreaker returns a circuit breaker for one upstream host. It opens after
// five consecutive failures and probes again after 30 seconds.
func NewBreaker(name string, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state change",
				"breaker", name, "from", from.String(), "to", to.String())
		},
	})
}

// GetJSON issues a GET through the breaker and decodes the JSON response into
// out. Network errors and 5xx responses are retried with exponential backoff;
// 4xx responses and an open breaker fail immediately.
func GetJSON(ctx context.Context, client *http.Client, cb *gobreaker.CircuitBreaker, url string, header http.Header, out any, logger *slog.Logger) error {
	backoff := baseBackoff

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		body, err := cb.Execute(func() (any, error) {
			return doGet(ctx, client, url, header)
		})
		if err == nil {
			if err := json.Unmarshal(body.([]byte), out); err != nil {
				return fmt.Errorf("decode response: %w", err)
			}
			return nil
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return fmt.Errorf("upstream unavailable: %w", err)
		}
		var se *StatusError
		if errors.As(err, &se) && !se.retryable() {
			return err
		}

		lastErr = err
		if attempt < maxAttempts {
			logger.Warn("request failed, retrying",
				"url", url, "attempt", attempt, "backoff", backoff, "error", err)
			if !sleepWithContext(ctx, backoff) {
				return ctx.Err()
			}
			backoff *= 2
		}
	}

	return lastErr
}

func doGet(ctx context.Context, client *http.Client, url string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	for k, values := range header {
		for _, v := range values {
			req.Header.Add(k, v)
		}
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Status: resp.StatusCode, Body: snippet(body)}
	}
	return body, nil
}

// snippet truncates a response body for error messages and logs.
func snippet(body []byte) string {
	const max = 200
	if len(body) > max {
		return string(body[:max]) + "..."
	}
	return string(body)
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
