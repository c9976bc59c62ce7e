package logger

import (
	"context"
	"log/slog"
)

// loggerContextKey is an unexported type to avoid context key collisions.
type loggerContextKey struct{}

// WithLogger returns a new context carrying the provided logger.
// A nil logger is replaced with slog.Default.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	if logger == nil {
		logger = slog.Default()
	}
	return context.WithValue(ctx, loggerContextKey{}, logger)
}

// FromContext retrieves the logger carried by the context, falling back to
// slog.Default when none is present.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// FromContextOrDefault retrieves the logger carried by the context, falling
// back to the provided default instead of the global one. Stores use this so
// their component-scoped logger survives when the context carries nothing.
func FromContextOrDefault(ctx context.Context, def *slog.Logger) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerContextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	if def != nil {
		return def
	}
	return slog.Default()
}
