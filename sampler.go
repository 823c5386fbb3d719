package tracing

import (
	"hash/fnv"
	"math"

	"golang.org/x/time/rate"
)

// Sampler decides at root-span start whether a trace is recorded.
type Sampler interface {
	ShouldSample(traceID string) bool
}

// NewSampler builds a sampler for the given config. The sampling rate
// selects always-on, always-off or trace-ID-ratio sampling; a positive
// RatePerSecond additionally caps sampled root spans per second.
func NewSampler(cfg TraceConfig) Sampler {
	var s Sampler
	switch {
	case cfg.SamplingRate >= 1.0:
		s = alwaysOnSampler{}
	case cfg.SamplingRate <= 0.0:
		s = alwaysOffSampler{}
	default:
		s = newRatioSampler(cfg.SamplingRate)
	}
	if cfg.RatePerSecond > 0 {
		s = &rateLimitedSampler{
			inner:   s,
			limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burstFor(cfg.RatePerSecond)),
		}
	}
	return s
}

type alwaysOnSampler struct{}

func (alwaysOnSampler) ShouldSample(string) bool { return true }

type alwaysOffSampler struct{}

func (alwaysOffSampler) ShouldSample(string) bool { return false }

// ratioSampler hashes the trace ID so every span of a trace gets the same
// decision, regardless of which process takes it.
type ratioSampler struct {
	threshold uint64
}

func newRatioSampler(fraction float64) ratioSampler {
	return ratioSampler{threshold: uint64(fraction * float64(math.MaxUint64))}
}

func (s ratioSampler) ShouldSample(traceID string) bool {
	h := fnv.New64a()
	_, _ = h.Write([]byte(traceID))
	return h.Sum64() < s.threshold
}

// rateLimitedSampler drops sampled traces that exceed the configured
// spans-per-second budget.
type rateLimitedSampler struct {
	inner   Sampler
	limiter *rate.Limiter
}

func (s *rateLimitedSampler) ShouldSample(traceID string) bool {
	if !s.inner.ShouldSample(traceID) {
		return false
	}
	return s.limiter.Allow()
}

func burstFor(perSecond float64) int {
	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}
	return burst
}
