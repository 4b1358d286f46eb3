package stats

import (
	"github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder wraps a Store and mirrors every recorded attempt into
// Prometheus counters/histograms, so an operator gets dashboards/alerts on
// top of the same journal the Estimate model reads from. Optional and off
// by default --- wrap a Store with this only when a *prometheus.Registry is
// available.
type PrometheusRecorder struct {
	inner Store

	attempts *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewPrometheusRecorder registers the engine's metrics on reg and returns a
// Store that forwards to inner after recording them.
func NewPrometheusRecorder(inner Store, reg prometheus.Registerer) *PrometheusRecorder {
	p := &PrometheusRecorder{
		inner: inner,
		attempts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "blockengine",
			Name:      "block_attempts_total",
			Help:      "Total block attempts recorded, partitioned by block and outcome.",
		}, []string{"block_name", "block_type", "success", "error_type"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "blockengine",
			Name:      "block_attempt_duration_ms",
			Help:      "Block attempt duration in milliseconds.",
			Buckets:   prometheus.ExponentialBuckets(10, 2, 12),
		}, []string{"block_name", "block_type"}),
	}
	reg.MustRegister(p.attempts, p.duration)
	return p
}

// RecordAttempt mirrors the record into the Prometheus instruments, then
// forwards to the wrapped Store. A metrics-emission failure never blocks the
// underlying store write, matching the "stats as best-effort" design note.
func (p *PrometheusRecorder) RecordAttempt(record BlockAttemptRecord) error {
	func() {
		defer func() { recover() }()
		p.attempts.WithLabelValues(
			record.BlockName,
			record.BlockType,
			boolLabel(record.Success),
			record.ErrorType,
		).Inc()
		p.duration.WithLabelValues(record.BlockName, record.BlockType).Observe(record.DurationMS)
	}()
	return p.inner.RecordAttempt(record)
}

// Estimate delegates to the wrapped Store --- Prometheus is a metrics
// mirror, not an estimation source.
func (p *PrometheusRecorder) Estimate(identity BlockStatsIdentity) Estimate {
	return p.inner.Estimate(identity)
}

func boolLabel(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

var _ Store = (*PrometheusRecorder)(nil)
