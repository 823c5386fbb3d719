// Package middleware provides HTTP middleware that traces requests
// through the tracing port. Handlers stay framework neutral:
// func(http.Handler) http.Handler composes with any router.
package middleware

import (
	"net/http"
	"strings"

	"github.com/the-yaml-life/tyl-tracing"
	"github.com/the-yaml-life/tyl-tracing/tracelog"
)

// remoteSpanStarter is implemented by tracers that can continue a trace
// received from another process. SimpleTracer implements it.
type remoteSpanStarter interface {
	StartRemoteSpan(operationName, traceID, parentSpanID string) (string, error)
}

// traceIDLookup is implemented by tracers that can report the trace an
// active span belongs to. SimpleTracer and oteltrace.OTelTracer implement it.
type traceIDLookup interface {
	TraceID(spanID string) (string, bool)
}

// Tracing creates a middleware that traces every request through the
// given tracer. Inbound W3C traceparent headers join the remote trace
// when the tracer supports it; responses with status >= 500 mark the
// span as failed. Span and trace IDs are stored on the request context
// for log correlation (tracelog.SpanIDFromContext, TraceIDFromContext).
func Tracing(tracer tracing.Tracer) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			operation := r.Method + " " + r.URL.Path

			spanID, traceID, err := startServerSpan(tracer, operation, r.Header.Get("traceparent"))
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

			_ = tracer.SetAttribute(spanID, "http.method", r.Method)
			_ = tracer.SetAttribute(spanID, "http.route", r.URL.Path)
			_ = tracer.SetAttribute(spanID, "http.url", r.URL.String())

			// Expose span identity to downstream log statements.
			ctx := tracelog.ContextWithSpanID(r.Context(), spanID)
			if traceID != "" {
				ctx = tracelog.ContextWithTraceID(ctx, traceID)
			}

			next.ServeHTTP(rw, r.WithContext(ctx))

			_ = tracer.SetAttribute(spanID, "http.status_code", rw.statusCode)
			if rw.statusCode >= 500 {
				_ = tracer.FailSpan(spanID, http.StatusText(rw.statusCode))
			} else {
				_ = tracer.EndSpan(spanID)
			}
		})
	}
}

func startServerSpan(tracer tracing.Tracer, operation, traceparent string) (spanID, traceID string, err error) {
	remoteTraceID, parentSpanID, ok := parseTraceparent(traceparent)
	if ok {
		if remote, canJoin := tracer.(remoteSpanStarter); canJoin {
			spanID, err = remote.StartRemoteSpan(operation, remoteTraceID, parentSpanID)
			return spanID, remoteTraceID, err
		}
	}
	spanID, err = tracer.StartSpan(operation, "")
	if err != nil {
		return "", "", err
	}
	if lookup, canLookup := tracer.(traceIDLookup); canLookup {
		if tid, found := lookup.TraceID(spanID); found {
			traceID = tid
		}
	}
	return spanID, traceID, nil
}

// parseTraceparent extracts trace and parent span IDs from a W3C
// traceparent header (version-traceid-spanid-flags). All-zero trace or
// span IDs are invalid per the W3C spec and are rejected.
func parseTraceparent(header string) (traceID, parentSpanID string, ok bool) {
	parts := strings.Split(header, "-")
	if len(parts) != 4 {
		return "", "", false
	}
	if len(parts[1]) != 32 || len(parts[2]) != 16 {
		return "", "", false
	}
	if !isHex(parts[1]) || !isHex(parts[2]) {
		return "", "", false
	}
	if allZero(parts[1]) || allZero(parts[2]) {
		return "", "", false
	}
	return parts[1], parts[2], true
}

func isHex(s string) bool {
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		default:
			return false
		}
	}
	return true
}

func allZero(s string) bool {
	for _, r := range s {
		if r != '0' {
			return false
		}
	}
	return true
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

// WriteHeader captures the status code.
func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
	}
	rw.ResponseWriter.WriteHeader(statusCode)
}

// Write ensures WriteHeader is called with default status if not already written.
func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}
