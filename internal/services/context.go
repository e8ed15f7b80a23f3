package services

import "context"

type contextKey string

const (
	nodeIDKey    contextKey = "node_id"
	scanIDKey    contextKey = "scan_id"
	requestIDKey contextKey = "request_id"
)

// WithNodeID annotates context with the resource node identifier.
func WithNodeID(ctx context.Context, id int) context.Context {
	return context.WithValue(ctx, nodeIDKey, id)
}

// NodeIDFromContext extracts the resource node identifier if present.
func NodeIDFromContext(ctx context.Context) (int, bool) {
	v := ctx.Value(nodeIDKey)
	if v == nil {
		return 0, false
	}
	switch val := v.(type) {
	case int:
		return val, true
	case int64:
		return int(val), true
	default:
		return 0, false
	}
}

// WithScanID annotates context with the library scan identifier.
func WithScanID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, scanIDKey, id)
}

// ScanIDFromContext returns the scan identifier if present.
func ScanIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(scanIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}

// WithRequestID annotates context with a correlation identifier.
func WithRequestID(ctx context.Context, id string) context.Context {
	if id == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts the correlation identifier if present.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	if v, ok := ctx.Value(requestIDKey).(string); ok && v != "" {
		return v, true
	}
	return "", false
}
