package http

import (
	"context"
	"log/slog"
)

func defaultLogger(logger *slog.Logger) *slog.Logger {
	if logger != nil {
		return logger
	}
	return slog.Default()
}

// handlerLogger scopes a logger to one handler operation. The request logger
// installed by RequestLogger wins over fallback; without it the request id is
// attached here. Path values resolved by the router (session id, RA) are
// added so handlers don't repeat them.
func handlerLogger(ctx context.Context, fallback *slog.Logger, handlerName, operation string, attrs ...any) *slog.Logger {
	pairs := make([]any, 0, 8+len(attrs))
	logger := LoggerFromContext(ctx)
	if logger == nil {
		logger = defaultLogger(fallback)
		if id, ok := RequestIDFromContext(ctx); ok {
			pairs = append(pairs, "request_id", id)
		}
	}

	pairs = append(pairs, "handler", handlerName)
	if operation != "" {
		pairs = append(pairs, "operation", operation)
	}
	if id, ok := SessionIDFromContext(ctx); ok {
		pairs = append(pairs, "session_id", id)
	}
	if ra, ok := StudentRAFromContext(ctx); ok {
		pairs = append(pairs, "ra", ra)
	}
	return logger.With(append(pairs, attrs...)...)
}
