package middleware

import (
	"context"
	"net/http"

	"github.com/Aidzix/Monday/internal/platform/httpclient"
)

const headerCorrelationID = "X-Correlation-ID"

type correlationIDKey struct{}

// WithCorrelationID stores id in ctx, both for this service and for the
// outbound client so identity lookups carry the same X-Correlation-ID.
func WithCorrelationID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, correlationIDKey{}, id)
	return httpclient.WithCorrelationID(ctx, id)
}

// CorrelationIDFromContext returns the stored correlation ID, or "".
func CorrelationIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(correlationIDKey{}).(string); ok {
		return id
	}
	return ""
}

// CorrelationID reuses an incoming X-Correlation-ID when it is acceptable
// under the same rules as request IDs, and otherwise falls back to the
// request ID. It must run after RequestID.
func CorrelationID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerCorrelationID)
			if !acceptableRequestID(id) {
				id = RequestIDFromContext(r.Context())
			}
			w.Header().Set(headerCorrelationID, id)
			next.ServeHTTP(w, r.WithContext(WithCorrelationID(r.Context(), id)))
		})
	}
}
