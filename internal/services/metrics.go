package services

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the engine's Prometheus collectors.
type Metrics struct {
	Requests           *prometheus.CounterVec
	ComputeDuration    prometheus.Histogram
	OrderCounter       prometheus.Gauge
	Resets             *prometheus.CounterVec
	BestEffortFailures *prometheus.CounterVec
}

// NewMetrics creates the collectors and registers them with reg when it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendation_requests_total",
				Help: "Recommendation requests by result source",
			},
			[]string{"source"},
		),
		ComputeDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recommendation_compute_duration_seconds",
				Help:    "Time spent computing fresh hybrid recommendations",
				Buckets: prometheus.DefBuckets,
			},
		),
		OrderCounter: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "recommendation_order_counter",
				Help: "Completed orders since the last retraining reset",
			},
		),
		Resets: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendation_retraining_resets_total",
				Help: "Retraining resets by trigger",
			},
			[]string{"trigger"},
		),
		BestEffortFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recommendation_best_effort_failures_total",
				Help: "Swallowed failures in recommendation bookkeeping",
			},
			[]string{"operation"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.Requests, m.ComputeDuration, m.OrderCounter, m.Resets, m.BestEffortFailures)
	}
	return m
}
