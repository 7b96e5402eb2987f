package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "stmadison"

// Metrics groups the service collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequests   *prometheus.CounterVec
	HTTPDuration   *prometheus.HistogramVec
	ConnectionWait prometheus.Histogram
	QueryDuration  *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"route", "method", "code"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ConnectionWait: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "db",
			Name:      "connection_wait_seconds",
			Help:      "Time spent waiting for the shared engine connection.",
			Buckets:   prometheus.ExponentialBuckets(0.0005, 4, 10),
		}),
		QueryDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "repository",
			Name:      "query_duration_seconds",
			Help:      "Repository call latency by repository, method and outcome.",
			Buckets:   []float64{.005, .01, .05, .1, .25, .5, 1, 2.5, 5, 10, 30},
		}, []string{"repository", "method", "outcome"}),
	}
	if reg != nil {
		reg.MustRegister(m.HTTPRequests, m.HTTPDuration, m.ConnectionWait, m.QueryDuration)
	}
	return m
}

// ObserveConnectionWait records time spent in Handle.Acquire.
func (m *Metrics) ObserveConnectionWait(d time.Duration) {
	if m == nil {
		return
	}
	m.ConnectionWait.Observe(d.Seconds())
}

// ObserveQuery records one repository call.
func (m *Metrics) ObserveQuery(repository, method, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.QueryDuration.WithLabelValues(repository, method, outcome).Observe(d.Seconds())
}

// ObserveHTTP counts a request and records its latency.
func (m *Metrics) ObserveHTTP(route, method, code string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequests.WithLabelValues(route, method, code).Inc()
	m.HTTPDuration.WithLabelValues(route, method).Observe(d.Seconds())
}
