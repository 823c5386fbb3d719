package oteltrace

import (
	"go.opentelemetry.io/otel/attribute"
)

// Common attribute keys for consistent naming across instrumented services.
const (
	// HTTP attributes
	HTTPMethodKey     = "http.method"
	HTTPStatusCodeKey = "http.status_code"
	HTTPRouteKey      = "http.route"
	HTTPURLKey        = "http.url"

	// Span lifecycle attributes
	OperationKey  = "operation.name"
	DurationMSKey = "operation.duration_ms"

	// Error attributes
	ErrorKey     = "error"
	ErrorTypeKey = "error.type"
)

// HTTPAttributes creates common HTTP span attributes.
func HTTPAttributes(method, route, url string, statusCode int) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(HTTPMethodKey, method),
		attribute.String(HTTPRouteKey, route),
		attribute.String(HTTPURLKey, url),
		attribute.Int(HTTPStatusCodeKey, statusCode),
	}
}

// OperationAttributes creates span-lifecycle attributes.
func OperationAttributes(operation string, durationMS int64) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String(OperationKey, operation),
		attribute.Int64(DurationMSKey, durationMS),
	}
}

// ErrorAttributes creates error-related span attributes.
func ErrorAttributes(errorType string) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.Bool(ErrorKey, true),
		attribute.String(ErrorTypeKey, errorType),
	}
}
