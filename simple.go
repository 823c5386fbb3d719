package tracing

import (
	"sync"

	"github.com/rs/zerolog"

	"github.com/the-yaml-life/tyl-tracing/metrics"
	"github.com/the-yaml-life/tyl-tracing/tracelog"
)

// SimpleTracer is an in-memory Tracer for development and tests. Finished
// spans are retained up to MaxSpans (oldest evicted first) and can be
// inspected with CompletedSpans or handed to a spanstore.Archiver via
// DrainCompleted.
type SimpleTracer struct {
	mu        sync.Mutex
	cfg       TraceConfig
	sampler   Sampler
	active    map[string]*Span
	completed []Span
	baggage   map[string]string
	logger    zerolog.Logger
}

// NewSimpleTracer creates a tracer for the given config.
func NewSimpleTracer(cfg TraceConfig) *SimpleTracer {
	return &SimpleTracer{
		cfg:     cfg,
		sampler: NewSampler(cfg),
		active:  make(map[string]*Span),
		baggage: make(map[string]string),
		logger:  tracelog.WithComponent("tracer"),
	}
}

// NewDefaultTracer creates a tracer with development defaults.
func NewDefaultTracer() *SimpleTracer {
	return NewSimpleTracer(NewTraceConfig("default-service"))
}

// Config returns the tracer's current configuration.
func (t *SimpleTracer) Config() TraceConfig {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.cfg
}

// ApplyConfig swaps in a new configuration. Sampling and retention take
// effect immediately; already retained spans in excess of the new
// MaxSpans are evicted.
func (t *SimpleTracer) ApplyConfig(cfg TraceConfig) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cfg = cfg
	t.sampler = NewSampler(cfg)
	t.trimLocked()
}

// StartSpan starts a new span. A span with an active parent joins the
// parent's trace and inherits its sampling decision.
func (t *SimpleTracer) StartSpan(operationName string, parentSpanID string) (string, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	traceID := ""
	sampled := false
	decided := false
	if parentSpanID != "" {
		if parent, ok := t.active[parentSpanID]; ok {
			traceID = parent.TraceID
			sampled = parent.sampled
			decided = true
		}
	}
	if !decided {
		traceID = NewTraceID()
		sampled = t.sampler.ShouldSample(traceID)
	}

	span := NewSpan(operationName, parentSpanID, traceID)
	span.sampled = sampled
	t.active[span.SpanID] = span
	metrics.SpanStarted()

	t.logger.Debug().
		Str("operation", operationName).
		Str("trace_id", span.TraceID).
		Str("span_id", span.SpanID).
		Bool("sampled", sampled).
		Msg("span started")
	return span.SpanID, nil
}

// StartRemoteSpan starts a span that continues a trace received from
// another process, e.g. via a W3C traceparent header. The remote parent
// is not looked up locally; the sampler decides on the inherited trace ID
// so all participants of a trace agree.
func (t *SimpleTracer) StartRemoteSpan(operationName, traceID, parentSpanID string) (string, error) {
	if traceID == "" {
		return t.StartSpan(operationName, "")
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	span := NewSpan(operationName, parentSpanID, traceID)
	span.sampled = t.sampler.ShouldSample(traceID)
	t.active[span.SpanID] = span
	metrics.SpanStarted()

	t.logger.Debug().
		Str("operation", operationName).
		Str("trace_id", traceID).
		Str("span_id", span.SpanID).
		Str("remote_parent", parentSpanID).
		Bool("sampled", span.sampled).
		Msg("remote span started")
	return span.SpanID, nil
}

// EndSpan finishes the span successfully.
func (t *SimpleTracer) EndSpan(spanID string) error {
	return t.finishSpan(spanID, "")
}

// FailSpan finishes the span with an error message.
func (t *SimpleTracer) FailSpan(spanID string, message string) error {
	if message == "" {
		message = "unknown error"
	}
	return t.finishSpan(spanID, message)
}

func (t *SimpleTracer) finishSpan(spanID, errMessage string) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	span, ok := t.active[spanID]
	if !ok {
		return t.finishedOrNotFoundLocked(spanID)
	}
	delete(t.active, spanID)

	if errMessage == "" {
		span.Complete()
		metrics.SpanCompleted()
	} else {
		span.Fail(errMessage)
		metrics.SpanFailed()
	}

	if !span.sampled {
		metrics.SpanDropped("unsampled")
		return nil
	}

	t.completed = append(t.completed, *span)
	t.trimLocked()

	duration, _ := span.Duration()
	t.logger.Debug().
		Str("operation", span.OperationName).
		Str("trace_id", span.TraceID).
		Str("span_id", span.SpanID).
		Dur("duration", duration).
		Str("status", string(span.Status)).
		Msg("span finished")
	return nil
}

// SetAttribute attaches metadata to an active span.
func (t *SimpleTracer) SetAttribute(spanID string, key string, value any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	span, ok := t.active[spanID]
	if !ok {
		return t.finishedOrNotFoundLocked(spanID)
	}
	span.Attributes[key] = value
	return nil
}

// TraceID returns the trace an active span belongs to.
func (t *SimpleTracer) TraceID(spanID string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	span, ok := t.active[spanID]
	if !ok {
		return "", false
	}
	return span.TraceID, true
}

// finishedOrNotFoundLocked distinguishes spans that already ended from IDs
// the tracer never saw. Spans no longer retained (drained or unsampled)
// are indistinguishable from unknown IDs. Callers hold t.mu.
func (t *SimpleTracer) finishedOrNotFoundLocked(spanID string) error {
	for i := range t.completed {
		if t.completed[i].SpanID == spanID {
			return spanFinishedErr(spanID)
		}
	}
	return spanNotFoundErr(spanID)
}

// CompletedSpans returns retained finished spans, oldest first.
func (t *SimpleTracer) CompletedSpans() []Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Span, len(t.completed))
	copy(out, t.completed)
	return out
}

// DrainCompleted returns retained finished spans and clears the retention
// buffer. Used by archivers to persist spans exactly once.
func (t *SimpleTracer) DrainCompleted() []Span {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := t.completed
	t.completed = nil
	return out
}

// SetBaggage stores a key/value pair in the trace context.
func (t *SimpleTracer) SetBaggage(key, value string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.baggage[key] = value
}

// Baggage looks up a key from the trace context.
func (t *SimpleTracer) Baggage(key string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.baggage[key]
	return v, ok
}

// trimLocked enforces MaxSpans retention. Callers hold t.mu.
func (t *SimpleTracer) trimLocked() {
	maxSpans := t.cfg.MaxSpans
	if maxSpans <= 0 || len(t.completed) <= maxSpans {
		return
	}
	evicted := len(t.completed) - maxSpans
	t.completed = append([]Span(nil), t.completed[evicted:]...)
	for i := 0; i < evicted; i++ {
		metrics.SpanDropped("retention")
	}
}

var _ Tracer = (*SimpleTracer)(nil)
