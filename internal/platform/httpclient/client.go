// Package httpclient is the outbound HTTP client the engine uses to reach the
// identity service. Every call passes through, in order:
//
//	circuit breaker → rate limiter → ID headers → client span → retry → net/http
//
// Usage:
//
//	c := httpclient.New(&cfg.Client, "identity-api", metrics, logger)
//	req, _ := http.NewRequestWithContext(ctx, http.MethodGet, c.URL("/users/u1"), http.NoBody)
//	resp, err := c.Do(ctx, req)
//
// Request and correlation IDs reach outbound headers through the context; the
// inbound middleware stores them with WithRequestID and WithCorrelationID.
package httpclient

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/sony/gobreaker/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/Aidzix/Monday/internal/platform/breaker"
	"github.com/Aidzix/Monday/internal/platform/config"
	"github.com/Aidzix/Monday/internal/platform/telemetry"
)

const tracerName = "github.com/Aidzix/Monday/internal/platform/httpclient"

type (
	requestIDKey     struct{}
	correlationIDKey struct{}
)

// WithRequestID stores the inbound request ID for outbound X-Request-ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey{}, id)
}

// WithCorrelationID stores the correlation ID for outbound X-Correlation-ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey{}, id)
}

type retryConfig struct {
	maxAttempts     int
	initialInterval time.Duration
	maxInterval     time.Duration
	multiplier      float64
}

// Client is safe for concurrent use.
type Client struct {
	http        *http.Client
	baseURL     string
	serviceName string
	breaker     *gobreaker.CircuitBreaker[struct{}]
	limiter     *rate.Limiter // nil disables limiting
	retry       retryConfig
	metrics     *telemetry.Metrics
}

// New builds a client for the downstream service serviceName, which names the
// breaker, spans and metric series. metrics may be nil.
func New(cfg *config.ClientConfig, serviceName string, metrics *telemetry.Metrics, logger *slog.Logger) *Client {
	var limiter *rate.Limiter
	if cfg.RateLimit.RequestsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit.RequestsPerSecond), cfg.RateLimit.BurstSize)
	}

	return &Client{
		http:        &http.Client{Timeout: cfg.Timeout},
		baseURL:     strings.TrimRight(cfg.BaseURL, "/"),
		serviceName: serviceName,
		breaker:     breaker.New[struct{}](serviceName, cfg.CircuitBreaker, logger, callerGaveUp),
		limiter:     limiter,
		retry: retryConfig{
			maxAttempts:     cfg.Retry.MaxAttempts,
			initialInterval: cfg.Retry.InitialInterval,
			maxInterval:     cfg.Retry.MaxInterval,
			multiplier:      cfg.Retry.Multiplier,
		},
		metrics: metrics,
	}
}

// callerGaveUp keeps cancellations and expired deadlines from counting
// against the downstream service.
func callerGaveUp(err error) bool {
	return err == nil || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

// Do sends req. A non-nil response has an open body the caller must close;
// that includes the case where retries ran out on a retryable status, when
// both resp and err are set. Breaker rejections and transport failures return
// a nil response.
func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	start := time.Now()

	var resp *http.Response
	_, err := c.breaker.Execute(func() (struct{}, error) {
		if c.limiter != nil {
			if err := c.limiter.Wait(ctx); err != nil {
				return struct{}{}, err
			}
		}
		setIDHeaders(ctx, req.Header)

		spanCtx, span := c.startSpan(ctx, req)
		defer span.End()

		req = req.WithContext(spanCtx)
		err := c.doWithRetry(spanCtx, req, &resp)
		endSpan(span, resp, err)
		return struct{}{}, err
	})

	c.recordMetrics(ctx, req.Method, start, resp, err)
	return resp, err
}

// URL joins path onto the configured base URL.
func (c *Client) URL(path string) string {
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return c.baseURL + path
}

// Name identifies the downstream service. With HealthCheck it makes the
// client a ports.HealthChecker.
func (c *Client) Name() string {
	return c.serviceName
}

// HealthCheck reports the breaker state; it makes no network call. A failing
// identity service degrades role enrichment but does not stop the engine.
func (c *Client) HealthCheck(_ context.Context) error {
	return breaker.Health(c.breaker)
}

// CircuitBreakerState returns the current breaker state.
func (c *Client) CircuitBreakerState() gobreaker.State {
	return c.breaker.State()
}

func setIDHeaders(ctx context.Context, h http.Header) {
	if id, _ := ctx.Value(requestIDKey{}).(string); id != "" {
		h.Set("X-Request-ID", id)
	}
	if id, _ := ctx.Value(correlationIDKey{}).(string); id != "" {
		h.Set("X-Correlation-ID", id)
	}
}

// startSpan opens a client span and writes its W3C trace context into the
// request headers.
func (c *Client) startSpan(ctx context.Context, req *http.Request) (context.Context, trace.Span) {
	ctx, span := otel.Tracer(tracerName).Start(ctx, fmt.Sprintf("%s %s", req.Method, c.serviceName),
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("http.request.method", req.Method),
			attribute.String("url.full", req.URL.String()),
			attribute.String("server.address", req.URL.Hostname()),
			attribute.String("peer.service", c.serviceName),
		),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))
	return ctx, span
}

func endSpan(span trace.Span, resp *http.Response, err error) {
	if resp != nil {
		span.SetAttributes(attribute.Int("http.response.status_code", resp.StatusCode))
	}
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
}

// outcome buckets a call for the result metric attribute.
func outcome(resp *http.Response, err error) string {
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "circuit_open"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "canceled"
	case resp != nil && resp.StatusCode < http.StatusBadRequest:
		return "success"
	default:
		return "error"
	}
}

// recordMetrics runs outside the breaker so rejected calls are counted too.
func (c *Client) recordMetrics(ctx context.Context, method string, start time.Time, resp *http.Response, err error) {
	if c.metrics == nil {
		return
	}

	status := 0
	if resp != nil {
		status = resp.StatusCode
	}
	attrs := metric.WithAttributes(
		telemetry.AttrHTTPMethod.String(method),
		telemetry.AttrHTTPStatus.Int(status),
		telemetry.AttrPeerService.String(c.serviceName),
		telemetry.AttrResult.String(outcome(resp, err)),
	)
	c.metrics.ClientRequestDuration.Record(ctx, time.Since(start).Seconds(), attrs)
	c.metrics.ClientRequestTotal.Add(ctx, 1, attrs)
}
