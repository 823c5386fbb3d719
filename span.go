package tracing

import (
	"time"

	"github.com/google/uuid"
)

// SpanStatus describes where a span is in its lifecycle.
type SpanStatus string

const (
	// StatusActive marks a span that has started but not finished.
	StatusActive SpanStatus = "active"
	// StatusCompleted marks a span that finished successfully.
	StatusCompleted SpanStatus = "completed"
	// StatusError marks a span that finished with an error.
	StatusError SpanStatus = "error"
)

// Span is a single unit of work inside a trace. Timestamps are unix
// milliseconds; EndTime stays zero while the span is active.
type Span struct {
	SpanID        string         `json:"span_id"`
	TraceID       string         `json:"trace_id"`
	ParentSpanID  string         `json:"parent_span_id,omitempty"`
	OperationName string         `json:"operation_name"`
	StartTime     int64          `json:"start_time"`
	EndTime       int64          `json:"end_time,omitempty"`
	Attributes    map[string]any `json:"attributes,omitempty"`
	Status        SpanStatus     `json:"status"`
	StatusMessage string         `json:"status_message,omitempty"`

	sampled bool
}

// NewSpan creates an active span. An empty traceID starts a new trace.
func NewSpan(operationName, parentSpanID, traceID string) *Span {
	if traceID == "" {
		traceID = NewTraceID()
	}
	return &Span{
		SpanID:        NewSpanID(),
		TraceID:       traceID,
		ParentSpanID:  parentSpanID,
		OperationName: operationName,
		StartTime:     nowMillis(),
		Attributes:    make(map[string]any),
		Status:        StatusActive,
		sampled:       true,
	}
}

// IsActive reports whether the span has not finished yet.
func (s *Span) IsActive() bool {
	return s.Status == StatusActive
}

// Complete finishes the span successfully.
func (s *Span) Complete() {
	s.EndTime = nowMillis()
	s.Status = StatusCompleted
}

// Fail finishes the span with an error message.
func (s *Span) Fail(message string) {
	s.EndTime = nowMillis()
	s.Status = StatusError
	s.StatusMessage = message
}

// Duration returns the span duration. The second return value is false
// while the span is still active.
func (s *Span) Duration() (time.Duration, bool) {
	if s.EndTime == 0 {
		return 0, false
	}
	return time.Duration(s.EndTime-s.StartTime) * time.Millisecond, true
}

// NewSpanID generates a new span identifier.
func NewSpanID() string {
	return uuid.NewString()
}

// NewTraceID generates a new trace identifier.
func NewTraceID() string {
	return uuid.NewString()
}

func nowMillis() int64 {
	return time.Now().UnixMilli()
}
