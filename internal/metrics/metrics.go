// Package metrics exposes Prometheus instrumentation for interview transitions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spigell/mock-interview/internal/interview"
)

const namespace = "interview"

// Recorder counts transitions by outcome and tracks their latency.
// It satisfies interview.Recorder.
type Recorder struct {
	registry    *prometheus.Registry
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewRecorder registers the transition collectors, plus the Go and process
// collectors, on a dedicated registry.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "transitions_total",
			Help:      "Session transitions by name and outcome kind.",
		}, []string{"transition", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "transition_duration_seconds",
			Help:      "Time spent in a session transition, generator calls included.",
			Buckets:   []float64{0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"transition"}),
	}

	r.registry.MustRegister(
		r.transitions,
		r.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return r
}

// ObserveTransition records one transition. The outcome label is the error kind, "ok" on success.
func (r *Recorder) ObserveTransition(transition string, elapsed time.Duration, err error) {
	r.transitions.WithLabelValues(transition, interview.Kind(err)).Inc()
	r.duration.WithLabelValues(transition).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}
