// Package logging builds the service's slog logger and carries request-scoped
// loggers through context.
//
//	logger := logging.New("info", "json", os.Stderr, slog.String("service", "board-engine"))
//	ctx = logging.WithLogger(ctx, logger.With(slog.String("request_id", id)))
//	logging.FromContext(ctx).InfoContext(ctx, "board created")
//
// Failures are logged with the operation name, the ids involved and the
// whole error chain:
//
//	logger.ErrorContext(ctx, "board mutation failed",
//	    slog.String("operation", "MoveItem"),
//	    slog.String("board_id", boardID),
//	    slog.Any("error", err),
//	)
//
// Every handler built here redacts credentials and personal data; see
// SensitiveHeaders and redactAttr.
package logging

import (
	"context"
	"io"
	"log/slog"
)

type contextKey struct{}

// New returns a logger writing to w. level accepts anything slog.Level
// parses ("debug", "WARN", "info+2"); anything else means info. format "text"
// selects the text handler and every other value JSON. Debug loggers include
// source locations. attrs are attached to every record.
func New(level, format string, w io.Writer, attrs ...slog.Attr) *slog.Logger {
	lvl := parseLevel(level)
	opts := &slog.HandlerOptions{
		Level:       lvl,
		AddSource:   lvl <= slog.LevelDebug,
		ReplaceAttr: redactAttr(),
	}

	var h slog.Handler = slog.NewJSONHandler(w, opts)
	if format == "text" {
		h = slog.NewTextHandler(w, opts)
	}
	if len(attrs) > 0 {
		h = h.WithAttrs(attrs)
	}
	return slog.New(h)
}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

func parseLevel(level string) slog.Level {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return lvl
}
