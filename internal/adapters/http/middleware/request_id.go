package middleware

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/Aidzix/Monday/internal/platform/httpclient"
)

const headerRequestID = "X-Request-ID"

// maxRequestIDLen bounds client-supplied request IDs; longer values are
// replaced rather than copied into every log line.
const maxRequestIDLen = 128

// requestIDKey is the context key for storing request IDs within the middleware
// package. A separate key from httpclient's is used to avoid a dependency
// inversion (middleware reads its own key; httpclient reads its own key).
type requestIDKey struct{}

// WithRequestID returns a new context with the given request ID stored in it.
// It also stores the ID via httpclient.WithRequestID so that outbound calls to
// the identity service carry the X-Request-ID header.
func WithRequestID(ctx context.Context, id string) context.Context {
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	ctx = httpclient.WithRequestID(ctx, id)
	return ctx
}

// RequestIDFromContext extracts the request ID from the context.
// Returns an empty string if no request ID is stored.
func RequestIDFromContext(ctx context.Context) string {
	if id, ok := ctx.Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

// RequestID returns middleware that reuses a well-formed incoming X-Request-ID
// or generates a UUID v4. The ID is stored in the request context and echoed
// as a response header.
func RequestID() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(headerRequestID)
			if !acceptableRequestID(id) {
				id = uuid.NewString()
			}
			ctx := WithRequestID(r.Context(), id)
			w.Header().Set(headerRequestID, id)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// acceptableRequestID reports whether id is non-empty, bounded, and printable
// ASCII.
func acceptableRequestID(id string) bool {
	if id == "" || len(id) > maxRequestIDLen {
		return false
	}
	for i := range len(id) {
		if id[i] < 0x21 || id[i] > 0x7e {
			return false
		}
	}
	return true
}
