// Package metrics exposes Prometheus metrics for span lifecycle, span
// archiving and configuration reloads.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	spansStarted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tyl_tracing_spans_started_total",
		Help: "Total number of spans started",
	})

	spansCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tyl_tracing_spans_completed_total",
		Help: "Total number of spans completed successfully",
	})

	spansFailed = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tyl_tracing_spans_failed_total",
		Help: "Total number of spans completed with error status",
	})

	spansDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tyl_tracing_spans_dropped_total",
		Help: "Total number of finished spans not retained",
	}, []string{"reason"}) // reason=unsampled|retention|archive_backlog

	activeSpans = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tyl_tracing_active_spans",
		Help: "Number of currently active spans",
	})

	archiveWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tyl_tracing_archive_writes_total",
		Help: "Span archive write attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure

	configReloads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tyl_tracing_config_reloads_total",
		Help: "Configuration reload attempts by outcome",
	}, []string{"outcome"}) // outcome=success|failure
)

// SpanStarted records a started span.
func SpanStarted() {
	spansStarted.Inc()
	activeSpans.Inc()
}

// SpanCompleted records a successfully finished span.
func SpanCompleted() {
	spansCompleted.Inc()
	activeSpans.Dec()
}

// SpanFailed records a span finished with error status.
func SpanFailed() {
	spansFailed.Inc()
	activeSpans.Dec()
}

// SpanDropped records a finished span that was not retained.
func SpanDropped(reason string) {
	spansDropped.WithLabelValues(reason).Inc()
}

// ArchiveWrite records one archive write attempt.
func ArchiveWrite(success bool) {
	archiveWrites.WithLabelValues(outcome(success)).Inc()
}

// ConfigReload records one configuration reload attempt.
func ConfigReload(success bool) {
	configReloads.WithLabelValues(outcome(success)).Inc()
}

func outcome(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
