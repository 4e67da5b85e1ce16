package middleware

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/Aidzix/Monday/internal/adapters/http/dto"
)

// errInternalServer is what the client sees after a panic; the panic value
// and stack only go to the log.
var errInternalServer = errors.New("internal server error")

// Recovery turns a handler panic into a logged stack trace and a 500 problem
// response. Once headers are out only the log entry is written.
// http.ErrAbortHandler is re-raised so net/http can abort the connection
// quietly.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rw := newResponseWriter(w)

			defer func() {
				v := recover()
				if v == nil {
					return
				}
				if err, ok := v.(error); ok && errors.Is(err, http.ErrAbortHandler) {
					panic(v)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.String("panic", fmt.Sprint(v)),
					slog.String("stack", string(debug.Stack())),
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.String("request_id", RequestIDFromContext(r.Context())),
				)

				if !rw.headerWritten {
					dto.WriteErrorResponse(rw, r, errInternalServer)
				}
			}()

			next.ServeHTTP(rw, r)
		})
	}
}
