// Package trace carries request IDs through context and onto outbound request headers.
package trace

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// contextKey is the type for context keys to avoid collisions
type contextKey string

const (
	requestIDKey contextKey = "request_id"

	// HeaderXRequestID is the standard header name for request tracing
	HeaderXRequestID = "X-Request-ID"
)

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request ID from context if present
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if id, ok := ctx.Value(requestIDKey).(string); ok && id != "" {
		return id, true
	}
	return "", false
}

// EnsureRequestID returns the context's request ID or a fresh UUID
func EnsureRequestID(ctx context.Context) string {
	if id, ok := RequestIDFromContext(ctx); ok {
		return id
	}
	return uuid.New().String()
}

// Stamp returns headers with header set to the context's request ID (or a new one).
// An existing value under any casing of header is preserved. headers is not mutated.
func Stamp(ctx context.Context, headers map[string]string, header string) map[string]string {
	if header == "" {
		header = HeaderXRequestID
	}
	for k := range headers {
		if strings.EqualFold(k, header) {
			return headers
		}
	}

	out := make(map[string]string, len(headers)+1)
	for k, v := range headers {
		out[k] = v
	}
	out[header] = EnsureRequestID(ctx)
	return out
}
