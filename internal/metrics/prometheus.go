package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "impulse"

// Prometheus holds the prometheus collectors of the service.
type Prometheus struct {
	Trainings        *prometheus.CounterVec
	TrainingDuration prometheus.Histogram
	Users            *prometheus.GaugeVec
	Queries          *prometheus.CounterVec
	Nudges           *prometheus.CounterVec
}

// NewPrometheusMetrics creates the prometheus collectors.
func NewPrometheusMetrics() Prometheus {
	return Prometheus{
		Trainings: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "trainings_total",
				Help:      "Training runs by outcome.",
			}, []string{"outcome"}),
		TrainingDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "training_duration_seconds",
				Help:      "Duration of completed training runs.",
				Buckets:   prometheus.ExponentialBuckets(0.01, 4, 8),
			}),
		Users: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "dataset_users",
				Help:      "Users of the trained datasets.",
			}, []string{"dataset"}),
		Queries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "queries_total",
				Help:      "Queries against trained datasets by operation and outcome.",
			}, []string{"operation", "outcome"}),
		Nudges: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "nudges_total",
				Help:      "Nudge requests by source and reason.",
			}, []string{"source", "reason"}),
	}
}

func (p Prometheus) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		p.Trainings,
		p.TrainingDuration,
		p.Users,
		p.Queries,
		p.Nudges,
	}
}
