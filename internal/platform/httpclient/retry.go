package httpclient

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strconv"
	"time"

	"github.com/Aidzix/Monday/internal/platform/logging"
)

// jitterFraction is the maximum jitter as a fraction of the delay (±25%).
const jitterFraction = 0.25

// doWithRetry sends req, retrying transport errors and retryable statuses
// with jittered exponential backoff. Only idempotent methods are retried; a
// POST or PATCH gets exactly one attempt. A Retry-After header on a 429 or
// 503 replaces the computed delay, capped at the configured maximum.
//
// The result is written to resp rather than returned to keep the bodyclose
// linter quiet; the caller closes the body.
func (c *Client) doWithRetry(ctx context.Context, req *http.Request, resp **http.Response) error {
	if c.retry.maxAttempts <= 0 {
		return fmt.Errorf("httpclient: maxAttempts must be >= 1, got %d", c.retry.maxAttempts)
	}

	attempts := c.retry.maxAttempts
	if !idempotent(req.Method) {
		attempts = 1
	}

	bodyBytes, err := bufferRequestBody(req)
	if err != nil {
		return err
	}

	var (
		lastErr    error
		retryAfter time.Duration
	)

	for attempt := range attempts {
		if attempt > 0 {
			if err := c.waitForRetry(ctx, req, attempt, retryAfter, lastErr); err != nil {
				return err
			}
		}

		resetRequestBody(req, bodyBytes)

		r, err := c.http.Do(req)
		if err != nil {
			lastErr = err
			retryAfter = 0
			if !isRetryable(err) {
				return err
			}
			continue
		}

		if !isRetryableStatus(r.StatusCode) {
			*resp = r
			return nil
		}

		lastErr = fmt.Errorf("HTTP %d from %s", r.StatusCode, c.serviceName)
		retryAfter = parseRetryAfter(r.Header.Get("Retry-After"), time.Now())

		// The last response keeps its body for the caller.
		if attempt == attempts-1 {
			*resp = r
			return lastErr
		}

		drainResponseBody(r)
	}

	return lastErr
}

func idempotent(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions, http.MethodPut, http.MethodDelete:
		return true
	default:
		return false
	}
}

// bufferRequestBody reads and closes the request body so it can be replayed.
func bufferRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil {
		return nil, nil
	}

	bodyBytes, err := io.ReadAll(req.Body)
	if err != nil {
		return nil, fmt.Errorf("reading request body: %w", err)
	}
	_ = req.Body.Close()

	return bodyBytes, nil
}

func resetRequestBody(req *http.Request, bodyBytes []byte) {
	if bodyBytes == nil {
		return
	}
	req.Body = io.NopCloser(bytes.NewReader(bodyBytes))
	req.ContentLength = int64(len(bodyBytes))
}

// drainResponseBody discards the body so the connection can be reused.
func drainResponseBody(resp *http.Response) {
	_, _ = io.Copy(io.Discard, resp.Body)
	_ = resp.Body.Close()
}

func (c *Client) waitForRetry(ctx context.Context, req *http.Request, attempt int, retryAfter time.Duration, lastErr error) error {
	delay := backoff(attempt, c.retry)
	if retryAfter > 0 {
		delay = min(retryAfter, c.retry.maxInterval)
	}

	logging.FromContext(ctx).WarnContext(ctx, "retrying HTTP request",
		slog.String("method", req.Method),
		slog.String("url", req.URL.String()),
		slog.String("peer_service", c.serviceName),
		slog.Int("attempt", attempt+1),
		slog.Int("max_attempts", c.retry.maxAttempts),
		slog.Duration("backoff", delay),
		slog.Any("error", lastErr),
	)

	t := time.NewTimer(delay)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// backoff returns the delay before retry number attempt (1 is the first
// retry): initialInterval * multiplier^(attempt-1), capped at maxInterval,
// then jittered by ±25%.
func backoff(attempt int, cfg retryConfig) time.Duration {
	delay := float64(cfg.initialInterval) * math.Pow(cfg.multiplier, float64(attempt-1))
	delay = min(delay, float64(cfg.maxInterval))

	jitter := delay * jitterFraction
	delay += jitter * (2*rand.Float64() - 1)

	return time.Duration(max(delay, 0))
}

// parseRetryAfter reads a Retry-After value in either delta-seconds or
// HTTP-date form. Unparseable or past values yield zero.
func parseRetryAfter(v string, now time.Time) time.Duration {
	if v == "" {
		return 0
	}
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(max(secs, 0)) * time.Second
	}
	if at, err := http.ParseTime(v); err == nil && at.After(now) {
		return at.Sub(now)
	}
	return 0
}

// isRetryable reports whether a transport error is worth another attempt.
// Cancellation and deadline expiry never are.
func isRetryable(err error) bool {
	if err == nil {
		return false
	}
	return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
}

// isRetryableStatus reports whether the status signals a transient failure:
// 429 or any 5xx except 501.
func isRetryableStatus(statusCode int) bool {
	switch {
	case statusCode == http.StatusTooManyRequests:
		return true
	case statusCode == http.StatusNotImplemented:
		return false
	default:
		return statusCode >= http.StatusInternalServerError
	}
}
