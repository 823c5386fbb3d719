// Package tracing provides distributed tracing for TYL services.
//
// The package follows a ports-and-adapters layout: Tracer is the port,
// SimpleTracer is the in-memory adapter used during development and in
// tests, and package oteltrace carries the OpenTelemetry adapter used in
// production.
package tracing

// Tracer is the main tracing contract.
//
// Span IDs returned by StartSpan are opaque strings; EndSpan, FailSpan and
// SetAttribute reject unknown span IDs with an error that matches
// ErrSpanNotFound, and IDs of retained finished spans with one that
// matches ErrSpanFinished.
type Tracer interface {
	// StartSpan starts a new span. parentSpanID may be empty for a root span.
	StartSpan(operationName string, parentSpanID string) (string, error)

	// EndSpan finishes the span successfully.
	EndSpan(spanID string) error

	// FailSpan finishes the span with an error message.
	FailSpan(spanID string, message string) error

	// SetAttribute attaches metadata to an active span.
	SetAttribute(spanID string, key string, value any) error

	// CompletedSpans returns retained finished spans, oldest first.
	CompletedSpans() []Span

	// SetBaggage stores a key/value pair in the trace context.
	SetBaggage(key, value string)

	// Baggage looks up a key from the trace context.
	Baggage(key string) (string, bool)
}
