package httpadapter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/qwed-ai/responseguard/internal/guard"
	"github.com/qwed-ai/responseguard/internal/verify"
)

// Metrics are the adapter's verification counters and latency histogram.
type Metrics struct {
	// Traffic: verifications by outcome (verified / failed).
	Verifications *prometheus.CounterVec

	// Errors: blocked responses by the guard that caused the block.
	Blocked *prometheus.CounterVec

	// Latency: full verification duration, normalization included.
	Duration prometheus.Histogram
}

// NewMetrics registers the adapter metrics on reg. A nil reg falls back to
// a local registry that is not wired anywhere, so callers can always
// observe without a conditional.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Metrics{
		Verifications: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "responseguard_verifications_total",
			Help: "Total number of verification runs by outcome.",
		}, []string{"outcome"}),

		Blocked: promauto.With(reg).NewCounterVec(prometheus.CounterOpts{
			Name: "responseguard_blocked_total",
			Help: "Total number of blocked responses by guard.",
		}, []string{"guard"}),

		Duration: promauto.With(reg).NewHistogram(prometheus.HistogramOpts{
			Name:    "responseguard_verification_duration_seconds",
			Help:    "Histogram of verification latencies.",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25},
		}),
	}
}

func (m *Metrics) observe(result verify.Result, seconds float64) {
	if m == nil {
		return
	}
	outcome := "verified"
	if !result.Verified {
		outcome = "failed"
	}
	m.Verifications.WithLabelValues(outcome).Inc()
	if result.Blocked {
		m.Blocked.WithLabelValues(blockingGuard(result)).Inc()
	}
	m.Duration.Observe(seconds)
}

// blockingGuard names the guard behind the first error-severity failure.
func blockingGuard(result verify.Result) string {
	for _, v := range result.Verdicts {
		if !v.Passed && v.Severity == guard.SeverityError {
			return v.GuardName
		}
	}
	return "unknown"
}
