// Package logger provides structured logging and context-aware logger injection.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
)

type ctxKey struct{}

// L is the global default logger; initialize with Init or use FromContext for request-scoped loggers.
var (
	L      = slog.Default()
	logKey = ctxKey{}
)

// Init initializes the global logger on stdout with the given level and format (e.g. "debug", "json").
func Init(level, format string) {
	L = New(os.Stdout, level, format)
	slog.SetDefault(L)
}

// New builds a logger writing to w without touching the global one.
func New(w io.Writer, level, format string) *slog.Logger {
	opts := &slog.HandlerOptions{
		Level: parseLevel(level),
	}
	if strings.ToLower(format) == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// FromContext returns the logger from ctx, or the global logger if not set.
func FromContext(ctx context.Context) *slog.Logger {
	if l, ok := ctx.Value(logKey).(*slog.Logger); ok {
		return l
	}
	return L
}

// WithContext stores the logger in ctx and returns the new context.
func WithContext(ctx context.Context, l *slog.Logger) context.Context {
	return context.WithValue(ctx, logKey, l)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Error logs at error level with the global logger.
func Error(msg string, args ...any) { L.Error(msg, args...) }
