package querycache

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Request results recorded by querycache_requests_total.
const (
	ResultHit         = "hit"
	ResultMiss        = "miss"
	ResultShared      = "shared"
	ResultPassThrough = "pass_through"
)

// Metrics holds the prometheus collectors shared by every CachingHandler it
// is passed to. A nil *Metrics records nothing.
type Metrics struct {
	requests    *prometheus.CounterVec
	storeErrors *prometheus.CounterVec
	executions  *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg. A nil reg
// skips registration.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querycache",
				Name:      "requests_total",
				Help:      "Handle calls by how they were served.",
			},
			[]string{"handler", "result"},
		),
		storeErrors: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querycache",
				Name:      "store_errors_total",
				Help:      "Store and codec failures absorbed as cache misses or skipped writes.",
			},
			[]string{"handler", "op"},
		),
		executions: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "querycache",
				Name:      "executions_total",
				Help:      "Inner handler executions by outcome.",
			},
			[]string{"handler", "outcome"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "querycache",
				Name:      "execution_duration_seconds",
				Help:      "Inner handler execution time.",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"handler"},
		),
	}

	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.requests, m.storeErrors, m.executions, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *Metrics) request(handler, result string) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(handler, result).Inc()
}

func (m *Metrics) storeError(handler, op string) {
	if m == nil {
		return
	}
	m.storeErrors.WithLabelValues(handler, op).Inc()
}

func (m *Metrics) execution(handler, outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.executions.WithLabelValues(handler, outcome).Inc()
	m.duration.WithLabelValues(handler).Observe(elapsed.Seconds())
}
