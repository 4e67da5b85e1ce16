package acl

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/Aidzix/Monday/internal/platform/httpclient"
)

// Requester centralizes the HTTP request lifecycle for ACL clients:
// request creation, execution via httpclient.Client, response body cleanup,
// status code validation, error translation, and JSON decoding.
type Requester struct {
	client *httpclient.Client
	logger *slog.Logger
}

// NewRequester creates a Requester backed by the given HTTP client and logger.
func NewRequester(client *httpclient.Client, logger *slog.Logger) *Requester {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Requester{client: client, logger: logger}
}

// Get sends a GET for path relative to the base URL, checks that the status
// is wantStatus, and decodes the JSON body into respBody when it is non-nil.
// Any other status is passed to TranslateHTTPError.
func (r *Requester) Get(ctx context.Context, path string, wantStatus int, respBody any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.client.URL(path), http.NoBody)
	if err != nil {
		return fmt.Errorf("creating GET request for %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")

	return r.execute(req, wantStatus, respBody)
}

// Name returns the service name of the underlying HTTP client.
func (r *Requester) Name() string {
	return r.client.Name()
}

// HealthCheck reports the underlying client's circuit breaker state.
func (r *Requester) HealthCheck(ctx context.Context) error {
	return r.client.HealthCheck(ctx)
}

// closeBody is a helper that closes an HTTP response body and logs on failure.
func (r *Requester) closeBody(ctx context.Context, resp *http.Response) {
	if err := resp.Body.Close(); err != nil {
		r.logger.WarnContext(ctx, "failed to close response body",
			slog.String("error", err.Error()),
		)
	}
}

// execute sends the request, checks the status code, and optionally decodes
// the response body. It ensures resp.Body is always closed.
func (r *Requester) execute(req *http.Request, wantStatus int, respBody any) error {
	resp, err := r.client.Do(req.Context(), req)
	if err != nil {
		// httpclient.Do can return both resp and err when retries are exhausted
		// on a retryable status (e.g. 5xx). Translate the response in that case.
		if resp != nil {
			defer r.closeBody(req.Context(), resp)
			if resp.StatusCode != wantStatus {
				return TranslateHTTPError(resp)
			}
		}
		r.logger.ErrorContext(req.Context(), "request failed",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	defer r.closeBody(req.Context(), resp)

	if resp.StatusCode != wantStatus {
		translateErr := TranslateHTTPError(resp)
		r.logger.WarnContext(req.Context(), "unexpected status",
			slog.String("method", req.Method),
			slog.String("url", req.URL.String()),
			slog.Int("status", resp.StatusCode),
			slog.Int("want_status", wantStatus),
		)
		return translateErr
	}

	if respBody != nil {
		if err := json.NewDecoder(resp.Body).Decode(respBody); err != nil {
			return fmt.Errorf("decoding response from %s %s: %w", req.Method, req.URL.Path, err)
		}
	}

	return nil
}
