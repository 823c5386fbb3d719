package spanstore

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/the-yaml-life/tyl-tracing"
	"github.com/the-yaml-life/tyl-tracing/metrics"
	"github.com/the-yaml-life/tyl-tracing/tracelog"
)

// maxPendingSpans bounds the batch kept across failed writes so a store
// outage cannot grow the retry buffer without limit.
const maxPendingSpans = 10000

// Archiver periodically drains a SimpleTracer's finished spans into a
// Store. The drain removes spans from the tracer's retention buffer; a
// batch whose write fails is kept and retried on the next drain, and
// span keys are deterministic, so a span that reaches the store is
// archived exactly once.
type Archiver struct {
	store    *Store
	tracer   *tracing.SimpleTracer
	interval time.Duration
	ttl      time.Duration
	logger   zerolog.Logger

	mu      sync.Mutex
	pending []tracing.Span
}

// ArchiverOption customises an Archiver.
type ArchiverOption func(*Archiver)

// WithInterval sets the drain interval (default 5s).
func WithInterval(d time.Duration) ArchiverOption {
	return func(a *Archiver) { a.interval = d }
}

// WithTTL expires archived spans after d. Zero keeps them forever.
func WithTTL(d time.Duration) ArchiverOption {
	return func(a *Archiver) { a.ttl = d }
}

// NewArchiver wires a tracer to a store.
func NewArchiver(store *Store, tracer *tracing.SimpleTracer, opts ...ArchiverOption) *Archiver {
	a := &Archiver{
		store:    store,
		tracer:   tracer,
		interval: 5 * time.Second,
		logger:   tracelog.WithComponent("archiver"),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Run drains the tracer until ctx is done, then performs a final drain so
// no finished span is lost on shutdown. Run blocks; call it from its own
// goroutine.
func (a *Archiver) Run(ctx context.Context) {
	ticker := time.NewTicker(a.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.drain(context.Background())
			return
		case <-ticker.C:
			a.drain(ctx)
		}
	}
}

// Flush drains once, outside the Run loop.
func (a *Archiver) Flush(ctx context.Context) error {
	return a.drainErr(ctx)
}

func (a *Archiver) drain(ctx context.Context) {
	if err := a.drainErr(ctx); err != nil {
		a.logger.Error().Err(err).Msg("failed to archive spans")
	}
}

func (a *Archiver) drainErr(ctx context.Context) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	spans := append(a.pending, a.tracer.DrainCompleted()...)
	if len(spans) == 0 {
		return nil
	}
	if err := a.store.PutBatch(ctx, spans, a.ttl); err != nil {
		a.pending = trimPending(spans)
		metrics.ArchiveWrite(false)
		return err
	}
	a.pending = nil
	metrics.ArchiveWrite(true)
	a.logger.Debug().Int("spans", len(spans)).Msg("archived spans")
	return nil
}

// trimPending caps the retry batch at maxPendingSpans, dropping the
// oldest spans and counting them as dropped.
func trimPending(spans []tracing.Span) []tracing.Span {
	if len(spans) <= maxPendingSpans {
		return spans
	}
	dropped := len(spans) - maxPendingSpans
	for i := 0; i < dropped; i++ {
		metrics.SpanDropped("archive_backlog")
	}
	return append([]tracing.Span(nil), spans[dropped:]...)
}
