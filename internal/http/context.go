package http

import (
	"context"
	"log/slog"

	"github.com/example/chamada/internal/logging"
)

type contextKey string

const (
	requestIDContextKey contextKey = "request_id"
	sessionIDContextKey contextKey = "session_id"
	studentRAContextKey contextKey = "student_ra"
)

// ContextWithLogger attaches a request scoped logger.
func ContextWithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return logging.ContextWithLogger(ctx, logger)
}

// LoggerFromContext returns the request scoped logger, if any.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	return logging.FromContext(ctx)
}

// ContextWithRequestID stores the request identifier assigned by RequestLogger.
func ContextWithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDContextKey, id)
}

// RequestIDFromContext extracts the request identifier.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDContextKey).(string)
	return id, ok
}

// ContextWithSessionID injects the session identifier resolved from the request path.
func ContextWithSessionID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, sessionIDContextKey, id)
}

// SessionIDFromContext extracts a session identifier previously associated with the context.
func SessionIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(sessionIDContextKey).(int64)
	return id, ok
}

// ContextWithStudentRA injects the RA resolved from the request path.
func ContextWithStudentRA(ctx context.Context, ra string) context.Context {
	return context.WithValue(ctx, studentRAContextKey, ra)
}

// StudentRAFromContext extracts an RA previously associated with the context.
func StudentRAFromContext(ctx context.Context) (string, bool) {
	ra, ok := ctx.Value(studentRAContextKey).(string)
	return ra, ok
}
