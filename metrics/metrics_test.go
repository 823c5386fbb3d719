package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestSpanLifecycleMetrics(t *testing.T) {
	startedBefore := testutil.ToFloat64(spansStarted)
	completedBefore := testutil.ToFloat64(spansCompleted)
	failedBefore := testutil.ToFloat64(spansFailed)

	SpanStarted()
	SpanStarted()
	SpanCompleted()
	SpanFailed()

	assert.Equal(t, startedBefore+2, testutil.ToFloat64(spansStarted))
	assert.Equal(t, completedBefore+1, testutil.ToFloat64(spansCompleted))
	assert.Equal(t, failedBefore+1, testutil.ToFloat64(spansFailed))
}

func TestActiveSpansGauge(t *testing.T) {
	before := testutil.ToFloat64(activeSpans)

	SpanStarted()
	assert.Equal(t, before+1, testutil.ToFloat64(activeSpans))

	SpanCompleted()
	assert.Equal(t, before, testutil.ToFloat64(activeSpans))
}

func TestLabeledOutcomes(t *testing.T) {
	unsampledBefore := testutil.ToFloat64(spansDropped.WithLabelValues("unsampled"))
	SpanDropped("unsampled")
	assert.Equal(t, unsampledBefore+1, testutil.ToFloat64(spansDropped.WithLabelValues("unsampled")))

	successBefore := testutil.ToFloat64(archiveWrites.WithLabelValues("success"))
	failureBefore := testutil.ToFloat64(archiveWrites.WithLabelValues("failure"))
	ArchiveWrite(true)
	ArchiveWrite(false)
	assert.Equal(t, successBefore+1, testutil.ToFloat64(archiveWrites.WithLabelValues("success")))
	assert.Equal(t, failureBefore+1, testutil.ToFloat64(archiveWrites.WithLabelValues("failure")))

	reloadBefore := testutil.ToFloat64(configReloads.WithLabelValues("success"))
	ConfigReload(true)
	assert.Equal(t, reloadBefore+1, testutil.ToFloat64(configReloads.WithLabelValues("success")))
}
