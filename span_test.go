package tracing

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewSpan(t *testing.T) {
	span := NewSpan("test_operation", "", "")

	assert.Equal(t, "test_operation", span.OperationName)
	assert.True(t, span.IsActive())
	assert.Equal(t, StatusActive, span.Status)
	assert.Zero(t, span.EndTime)
	assert.NotEmpty(t, span.SpanID)
	assert.NotEmpty(t, span.TraceID)
	assert.Empty(t, span.ParentSpanID)

	_, finished := span.Duration()
	assert.False(t, finished)
}

func TestNewSpanInheritsTraceID(t *testing.T) {
	span := NewSpan("child", "parent-span", "trace-1")

	assert.Equal(t, "trace-1", span.TraceID)
	assert.Equal(t, "parent-span", span.ParentSpanID)
}

func TestSpanComplete(t *testing.T) {
	span := NewSpan("test_operation", "", "")
	span.Complete()

	assert.False(t, span.IsActive())
	assert.Equal(t, StatusCompleted, span.Status)
	assert.NotZero(t, span.EndTime)

	d, finished := span.Duration()
	assert.True(t, finished)
	assert.GreaterOrEqual(t, d, time.Duration(0))
}

func TestSpanFail(t *testing.T) {
	span := NewSpan("test_operation", "", "")
	span.Fail("connection refused")

	assert.False(t, span.IsActive())
	assert.Equal(t, StatusError, span.Status)
	assert.Equal(t, "connection refused", span.StatusMessage)
	assert.NotZero(t, span.EndTime)
}

func TestSpanJSONShape(t *testing.T) {
	span := NewSpan("op", "", "")
	span.Attributes["user_id"] = "user123"
	span.Complete()

	data, err := json.Marshal(span)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Contains(t, decoded, "span_id")
	assert.Contains(t, decoded, "trace_id")
	assert.Contains(t, decoded, "operation_name")
	assert.Equal(t, "completed", decoded["status"])
	assert.NotContains(t, decoded, "parent_span_id")
	assert.NotContains(t, decoded, "status_message")
}

func TestIDGeneration(t *testing.T) {
	a := NewSpanID()
	b := NewSpanID()
	assert.NotEmpty(t, a)
	assert.NotEqual(t, a, b)

	ta := NewTraceID()
	tb := NewTraceID()
	assert.NotEqual(t, ta, tb)
}
