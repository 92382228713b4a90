package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Commit kinds recorded by CommitMetrics.
const (
	CommitSaleCreate      = "sale.create"
	CommitSaleUpdate      = "sale.update"
	CommitProductCreate   = "product.create"
	CommitProductUpdate   = "product.update"
	CommitProductDelete   = "product.delete"
	CommitPaymentQRUpdate = "payment_qr.update"
)

// CommitMetrics records outcome and latency of writes to the shared store.
type CommitMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
}

// NewCommitMetrics registers the commit metrics on the provided registerer.
func NewCommitMetrics(reg prometheus.Registerer) *CommitMetrics {
	if reg == nil {
		return &CommitMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "fairpos_commit_duration_seconds",
		Help:    "Duration of store commits in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"kind"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fairpos_commit_success_total",
		Help: "Successful store commits.",
	}, []string{"kind"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "fairpos_commit_failure_total",
		Help: "Failed store commits.",
	}, []string{"kind"})
	reg.MustRegister(duration, success, failure)
	return &CommitMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
	}
}

// Track runs fn and records its duration and outcome under kind.
func (c *CommitMetrics) Track(kind string, fn func() error) error {
	start := time.Now()
	err := fn()
	c.ObserveDuration(kind, time.Since(start))
	if err != nil {
		c.IncFailure(kind)
	} else {
		c.IncSuccess(kind)
	}
	return err
}

func (c *CommitMetrics) ObserveDuration(kind string, duration time.Duration) {
	if c == nil || c.duration == nil {
		return
	}
	c.duration.WithLabelValues(normalizeLabel(kind)).Observe(duration.Seconds())
}

func (c *CommitMetrics) IncSuccess(kind string) {
	if c == nil || c.success == nil {
		return
	}
	c.success.WithLabelValues(normalizeLabel(kind)).Inc()
}

func (c *CommitMetrics) IncFailure(kind string) {
	if c == nil || c.failure == nil {
		return
	}
	c.failure.WithLabelValues(normalizeLabel(kind)).Inc()
}

func normalizeLabel(v string) string {
	if v == "" {
		return "unknown"
	}
	return v
}
