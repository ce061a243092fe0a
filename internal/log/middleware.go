package log

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"finsheets/internal/core"
)

// ContextKey type for context keys
type ContextKey string

const (
	// LoggerContextKey is the context key for the logger
	LoggerContextKey ContextKey = "logger"
)

// Middleware adds logger to the request context.
func Middleware(logger *Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(WithLogger(r.Context(), logger)))
		})
	}
}

func WithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, LoggerContextKey, logger)
}

// FromContext extracts a logger from the context, falling back to the default logger.
func FromContext(ctx context.Context) *Logger {
	if logger, ok := ctx.Value(LoggerContextKey).(*Logger); ok {
		return logger
	}
	return &Logger{
		Logger:    slog.Default(),
		component: "unknown",
	}
}

// ErrorType classifies err into one of the ErrorType constants. Typed
// errors win over the sentinels they wrap.
func ErrorType(err error) string {
	var (
		ve *core.ValidationError
		ce *core.CollaboratorError
		te *core.TransportError
	)
	switch {
	case errors.As(err, &ve):
		return ErrorTypeValidation
	case errors.As(err, &te):
		return ErrorTypeTransport
	case errors.As(err, &ce):
		return ErrorTypeCollaborator
	case errors.Is(err, core.ErrNotFound):
		return ErrorTypeNotFound
	default:
		return ErrorTypeInternal
	}
}
