package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/Aidzix/Monday/internal/platform/logging"
)

// Logging stores a request-scoped logger carrying the request and
// correlation IDs in the context and logs each request's start and end.
// Completion is logged at ERROR for 5xx, WARN for 4xx and INFO otherwise;
// health checks log at DEBUG so they do not drown out API traffic.
func Logging(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := r.Context()

			child := logger.With(
				slog.String("request_id", RequestIDFromContext(ctx)),
				slog.String("correlation_id", CorrelationIDFromContext(ctx)),
			)
			ctx = logging.WithLogger(ctx, child)

			healthCheck := strings.HasPrefix(r.URL.Path, "/health/")
			startLevel := slog.LevelInfo
			if healthCheck {
				startLevel = slog.LevelDebug
			}
			child.Log(ctx, startLevel, "request started",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
			)

			if child.Enabled(ctx, slog.LevelDebug) {
				headerAttrs := RedactHeaders(r.Header)
				args := make([]any, 0, len(headerAttrs))
				for _, a := range headerAttrs {
					args = append(args, a)
				}
				child.DebugContext(ctx, "request headers", args...)
			}

			rw := newResponseWriter(w)
			next.ServeHTTP(rw, r.WithContext(ctx))

			child.Log(ctx, completionLevel(rw.statusCode, healthCheck), "request completed",
				slog.String("method", r.Method),
				slog.String("path", r.URL.Path),
				slog.String("route", routePattern(r)),
				slog.Int("status", rw.statusCode),
				slog.Int64("bytes", rw.written),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}

func completionLevel(status int, healthCheck bool) slog.Level {
	switch {
	case status >= http.StatusInternalServerError:
		return slog.LevelError
	case status >= http.StatusBadRequest:
		return slog.LevelWarn
	case healthCheck:
		return slog.LevelDebug
	default:
		return slog.LevelInfo
	}
}
