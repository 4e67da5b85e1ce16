// Package middleware provides HTTP middleware for the inbound request pipeline.
//
// The global chain runs in this order:
//
//	Recovery → RequestID → CorrelationID → OpenTelemetry → Logging
//
// and /api/v1 routes add Authenticate, then Timeout for everything except
// the change stream.
package middleware

import "net/http"

// responseWriter records the status and byte count of a response for the
// recovery, otel and logging middleware.
type responseWriter struct {
	http.ResponseWriter
	statusCode    int
	headerWritten bool
	written       int64
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}
}

// WriteHeader records code. Only the first call counts.
func (rw *responseWriter) WriteHeader(code int) {
	if rw.headerWritten {
		return
	}
	rw.statusCode = code
	rw.headerWritten = true
	rw.ResponseWriter.WriteHeader(code)
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	rw.headerWritten = true
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// Flush sends buffered data to the client. Flushing commits the headers, so
// a later panic can no longer produce an error response.
func (rw *responseWriter) Flush() {
	rw.headerWritten = true
	if f, ok := rw.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}

// Unwrap exposes the underlying writer to http.ResponseController.
func (rw *responseWriter) Unwrap() http.ResponseWriter {
	return rw.ResponseWriter
}
