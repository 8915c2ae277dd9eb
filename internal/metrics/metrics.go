package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	// Success marks a successful outcome.
	Success = "success"
	// Failure marks a failed outcome.
	Failure = "failure"
	// Discarded marks a training run whose result was superseded.
	Discarded = "discarded"
)

// Observer is the process wide metrics recorder.
var Observer = &Metrics{
	prometheus: NewPrometheusMetrics(),
}

func init() {
	prometheus.MustRegister(Observer.prometheus.collectors()...)
}

// Metrics records the service metrics.
type Metrics struct {
	prometheus Prometheus
}

// Trained records a completed training run.
func (m *Metrics) Trained(dataset string, outcome string, users int, duration time.Duration) {
	m.prometheus.Trainings.WithLabelValues(outcome).Inc()
	if outcome != Success {
		return
	}
	m.prometheus.TrainingDuration.Observe(duration.Seconds())
	m.prometheus.Users.WithLabelValues(dataset).Set(float64(users))
}

// Evicted drops the gauges of an evicted dataset.
func (m *Metrics) Evicted(dataset string) {
	m.prometheus.Users.DeleteLabelValues(dataset)
}

// Queried records a query against a dataset.
func (m *Metrics) Queried(operation string, err error) {
	outcome := Success
	if err != nil {
		outcome = Failure
	}
	m.prometheus.Queries.WithLabelValues(operation, outcome).Inc()
}

// Nudged records where the nudges of a request came from.
func (m *Metrics) Nudged(source string, reason string) {
	m.prometheus.Nudges.WithLabelValues(source, reason).Inc()
}

// Handler exposes the registered metrics.
func Handler() http.Handler {
	return promhttp.Handler()
}
