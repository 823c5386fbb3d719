package oteltrace

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/the-yaml-life/tyl-tracing"
)

// OTelTracer implements the tracing.Tracer port on top of the otel SDK.
// Spans are exported through the installed provider; a bounded in-process
// mirror keeps CompletedSpans working for inspection regardless of where
// the exporter ships them. Span and trace IDs are real W3C hex IDs.
type OTelTracer struct {
	tracer   trace.Tracer
	maxSpans int

	mu        sync.Mutex
	active    map[string]*handle
	completed []tracing.Span
	baggage   map[string]string
}

type handle struct {
	ctx    context.Context
	span   trace.Span
	mirror *tracing.Span
}

// NewTracer creates a port adapter over the named otel tracer. maxSpans
// bounds the completed-span mirror.
func NewTracer(name string, maxSpans int) *OTelTracer {
	if maxSpans <= 0 {
		maxSpans = 1000
	}
	return &OTelTracer{
		tracer:   TracerAPI(name),
		maxSpans: maxSpans,
		active:   make(map[string]*handle),
		baggage:  make(map[string]string),
	}
}

// StartSpan starts a new otel span. A span with an active parent becomes
// a child of the parent's span context.
func (t *OTelTracer) StartSpan(operationName string, parentSpanID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	ctx := context.Background()
	if parentSpanID != "" {
		if parent, ok := t.active[parentSpanID]; ok {
			ctx = parent.ctx
		}
	}

	ctx, span := t.tracer.Start(ctx, operationName)
	sc := span.SpanContext()
	spanID := sc.SpanID().String()
	traceID := sc.TraceID().String()
	if !sc.IsValid() {
		// Noop providers hand out zero IDs; synthesize unique ones so the
		// handle map and the mirror stay usable.
		spanID = tracing.NewSpanID()
		traceID = tracing.NewTraceID()
	}

	mirror := &tracing.Span{
		SpanID:        spanID,
		TraceID:       traceID,
		ParentSpanID:  parentSpanID,
		OperationName: operationName,
		Attributes:    make(map[string]any),
		Status:        tracing.StatusActive,
	}
	mirror.StartTime = nowMillis()

	t.active[spanID] = &handle{ctx: ctx, span: span, mirror: mirror}
	return spanID, nil
}

// EndSpan finishes the span successfully.
func (t *OTelTracer) EndSpan(spanID string) error {
	return t.finishSpan(spanID, "")
}

// FailSpan finishes the span with an error message.
func (t *OTelTracer) FailSpan(spanID string, message string) error {
	if message == "" {
		message = "unknown error"
	}
	return t.finishSpan(spanID, message)
}

func (t *OTelTracer) finishSpan(spanID, errMessage string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.active[spanID]
	if !ok {
		return t.finishedOrNotFoundLocked(spanID)
	}
	delete(t.active, spanID)

	if errMessage == "" {
		h.span.SetStatus(codes.Ok, "")
		h.mirror.Complete()
	} else {
		h.span.SetStatus(codes.Error, errMessage)
		h.mirror.Fail(errMessage)
	}
	h.span.End()

	t.completed = append(t.completed, *h.mirror)
	if len(t.completed) > t.maxSpans {
		t.completed = append([]tracing.Span(nil), t.completed[len(t.completed)-t.maxSpans:]...)
	}
	return nil
}

// SetAttribute attaches metadata to an active span.
func (t *OTelTracer) SetAttribute(spanID string, key string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	h, ok := t.active[spanID]
	if !ok {
		return t.finishedOrNotFoundLocked(spanID)
	}
	h.span.SetAttributes(toAttribute(key, value))
	h.mirror.Attributes[key] = value
	return nil
}

// TraceID returns the trace an active span belongs to.
func (t *OTelTracer) TraceID(spanID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.active[spanID]
	if !ok {
		return "", false
	}
	return h.mirror.TraceID, true
}

// finishedOrNotFoundLocked distinguishes spans that already ended from IDs
// the tracer never saw, bounded by the mirror retention. Callers hold t.mu.
func (t *OTelTracer) finishedOrNotFoundLocked(spanID string) error {
	for i := range t.completed {
		if t.completed[i].SpanID == spanID {
			return fmt.Errorf("%w: %s", tracing.ErrSpanFinished, spanID)
		}
	}
	return fmt.Errorf("%w: %s", tracing.ErrSpanNotFound, spanID)
}

// CompletedSpans returns the finished-span mirror, oldest first.
func (t *OTelTracer) CompletedSpans() []tracing.Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]tracing.Span, len(t.completed))
	copy(out, t.completed)
	return out
}

// SetBaggage stores a key/value pair in the trace context.
func (t *OTelTracer) SetBaggage(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baggage[key] = value
}

// Baggage looks up a key from the trace context.
func (t *OTelTracer) Baggage(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.baggage[key]
	return v, ok
}

// Context returns the context carrying an active span, for handing off to
// instrumented clients. The second return value is false for unknown IDs.
func (t *OTelTracer) Context(spanID string) (context.Context, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	h, ok := t.active[spanID]
	if !ok {
		return nil, false
	}
	return h.ctx, true
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}

// toAttribute maps an arbitrary value onto an otel attribute. Unsupported
// types fall back to their string representation.
func toAttribute(key string, value any) attribute.KeyValue {
	switch v := value.(type) {
	case string:
		return attribute.String(key, v)
	case bool:
		return attribute.Bool(key, v)
	case int:
		return attribute.Int(key, v)
	case int64:
		return attribute.Int64(key, v)
	case float64:
		return attribute.Float64(key, v)
	default:
		return attribute.String(key, fmt.Sprintf("%v", v))
	}
}

var _ tracing.Tracer = (*OTelTracer)(nil)
