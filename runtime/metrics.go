// Package runtime - optional Prometheus instrumentation of solve runs.
package runtime

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics collects engine counters per algorithm family. The library
// never registers anything implicitly: construct with your registerer and
// attach via WithMetrics. One Metrics instance can serve many runs.
type Metrics struct {
	messages *prometheus.CounterVec
	rounds   *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics builds and registers the engine metrics on reg.
// Passing prometheus.DefaultRegisterer wires the default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "godcop",
			Name:      "messages_total",
			Help:      "Messages exchanged between computation nodes.",
		}, []string{"algorithm"}),
		rounds: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "godcop",
			Name:      "rounds_total",
			Help:      "Engine rounds executed.",
		}, []string{"algorithm"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "godcop",
			Name:      "solve_duration_seconds",
			Help:      "Wall-clock duration of solve runs.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}, []string{"algorithm"}),
	}
	reg.MustRegister(m.messages, m.rounds, m.duration)
	return m
}

func (m *Metrics) observeRound(algorithm string, messages int) {
	m.rounds.WithLabelValues(algorithm).Inc()
	m.messages.WithLabelValues(algorithm).Add(float64(messages))
}

func (m *Metrics) observeSolve(algorithm string, d time.Duration) {
	m.duration.WithLabelValues(algorithm).Observe(d.Seconds())
}
