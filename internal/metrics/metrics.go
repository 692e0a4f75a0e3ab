// Package metrics exposes the prometheus collectors recorded by the forecast pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "chronos"

// Outcome labels for a request
const (
	OutcomeSuccess       = "success"
	OutcomeInvalidUpload = "invalid_upload"
	OutcomeFitFailed     = "fit_failed"
)

type Metrics struct {
	Requests    *prometheus.CounterVec
	FitDuration prometheus.Histogram
	Horizon     prometheus.Histogram
	SeriesDays  prometheus.Histogram
}

// New registers the collectors on reg. A nil reg leaves them unregistered.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "requests_total",
			Help:      "Number of preview and forecast runs by operation and outcome.",
		}, []string{"operation", "outcome"}),
		FitDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "fit_duration_seconds",
			Help:      "Time spent fitting the SARIMA model.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 2, 12),
		}),
		Horizon: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "forecast_horizon_days",
			Help:      "Requested forecast horizon in days.",
			Buckets:   []float64{7, 14, 30, 60, 90},
		}),
		SeriesDays: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "series_length_days",
			Help:      "Number of daily observations after preparation.",
			Buckets:   prometheus.ExponentialBuckets(7, 2, 10),
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Requests, m.FitDuration, m.Horizon, m.SeriesDays)
	}
	return m
}

func (m *Metrics) ObserveRequest(operation, outcome string) {
	m.Requests.WithLabelValues(operation, outcome).Inc()
}

func (m *Metrics) ObserveFit(d time.Duration, horizon, days int) {
	m.FitDuration.Observe(d.Seconds())
	m.Horizon.Observe(float64(horizon))
	m.SeriesDays.Observe(float64(days))
}
