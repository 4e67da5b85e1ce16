package middleware

import (
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/Aidzix/Monday/internal/platform/logging"
)

// RedactHeaders renders headers as log attributes sorted by name. Values of
// logging.SensitiveHeaders become "[REDACTED]" and repeated values are joined
// with a comma.
func RedactHeaders(headers http.Header) []slog.Attr {
	attrs := make([]slog.Attr, 0, len(headers))
	for _, key := range slices.Sorted(maps.Keys(headers)) {
		vals := headers[key]
		if logging.SensitiveHeaders[strings.ToLower(key)] {
			attrs = append(attrs, slog.String(key, "[REDACTED]"))
		} else {
			attrs = append(attrs, slog.String(key, strings.Join(vals, ",")))
		}
	}
	return attrs
}
