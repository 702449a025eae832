// Package metrics exposes Prometheus instruments for vocabulary mutations
// and the relational mirror.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "skosgraph"

// Metrics contains the instruments recorded by the object model and the
// mirror. A nil *Metrics is valid and records nothing.
type Metrics struct {
	Mutations     *prometheus.CounterVec
	Rejections    *prometheus.CounterVec
	FlushDuration prometheus.Histogram
	PendingOps    prometheus.Gauge
	Triples       prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg. A nil
// registerer leaves them unregistered.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "mutations_total",
				Help:      "Total number of object model mutations by operation and outcome",
			},
			[]string{"op", "outcome"},
		),

		Rejections: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "model",
				Name:      "rejections_total",
				Help:      "Total number of mutations rejected by validation, by error kind",
			},
			[]string{"kind"},
		),

		FlushDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "mirror",
				Name:      "flush_duration_seconds",
				Help:      "Relational mirror flush duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
		),

		PendingOps: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "mirror",
				Name:      "pending_ops",
				Help:      "Number of staged operations not yet flushed to the mirror",
			},
		),

		Triples: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "store",
				Name:      "triples",
				Help:      "Number of triples in the graph",
			},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Mutations, m.Rejections, m.FlushDuration, m.PendingOps, m.Triples)
	}
	return m
}

// RecordMutation increments the mutation counter.
func (m *Metrics) RecordMutation(op, outcome string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(op, outcome).Inc()
}

// RecordRejection increments the rejection counter for a validation kind.
func (m *Metrics) RecordRejection(kind string) {
	if m == nil {
		return
	}
	m.Rejections.WithLabelValues(kind).Inc()
}

// RecordFlush records mirror flush time.
func (m *Metrics) RecordFlush(duration time.Duration) {
	if m == nil {
		return
	}
	m.FlushDuration.Observe(duration.Seconds())
}

// SetPending updates the pending operation gauge.
func (m *Metrics) SetPending(n int) {
	if m == nil {
		return
	}
	m.PendingOps.Set(float64(n))
}

// SetTriples updates the triple count gauge.
func (m *Metrics) SetTriples(n int) {
	if m == nil {
		return
	}
	m.Triples.Set(float64(n))
}
