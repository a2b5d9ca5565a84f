// Package metrics holds the prometheus collectors exported by the server.
package metrics

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "passkeeper"

// Metrics groups the server collectors. A nil *Metrics records nothing.
type Metrics struct {
	gatherer prometheus.Gatherer

	httpRequests  *prometheus.CounterVec
	httpDuration  *prometheus.HistogramVec
	httpInflight  *prometheus.GaugeVec
	emails        *prometheus.CounterVec
	rateLimited   *prometheus.CounterVec
	appendRetries prometheus.Counter
	registrations *prometheus.CounterVec
}

// New registers collectors in a fresh registry.
func New() (*Metrics, error) {
	reg := prometheus.NewRegistry()
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers collectors in reg and serves them from gatherer.
func NewWithRegistry(reg prometheus.Registerer, gatherer prometheus.Gatherer) (*Metrics, error) {
	m := &Metrics{
		gatherer: gatherer,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests processed",
		}, []string{"method", "path", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "path"}),
		httpInflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Name: "http_inflight_requests",
			Help: "HTTP requests in flight",
		}, []string{"method"}),
		emails: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "emails_total",
			Help:      "Account emails by kind and result",
		}, []string{"kind", "result"}),
		rateLimited: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rate_limited_total",
			Help:      "Requests rejected by the rate limiter",
		}, []string{"path"}),
		appendRetries: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "secret_append_retries_total",
			Help:      "Secret version appends retried after a concurrent write",
		}),
		registrations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Account registrations by outcome",
		}, []string{"outcome"}),
	}

	for _, c := range []prometheus.Collector{
		m.httpRequests, m.httpDuration, m.httpInflight,
		m.emails, m.rateLimited, m.appendRetries, m.registrations,
		collectors.NewGoCollector(),
	} {
		if err := registerCollector(reg, c); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// registerCollector registers c, ignoring duplicates.
func registerCollector(reg prometheus.Registerer, c prometheus.Collector) error {
	if err := reg.Register(c); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return nil
		}
		return err
	}
	return nil
}

// Handler serves the registered collectors.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// RequestStarted marks a request as in flight and returns a func that records
// its completion. path should be a route pattern, not a raw URL path.
func (m *Metrics) RequestStarted(method string) func(path string, status int) {
	if m == nil {
		return func(string, int) {}
	}

	start := time.Now()
	m.httpInflight.WithLabelValues(method).Inc()

	return func(path string, status int) {
		m.httpInflight.WithLabelValues(method).Dec()
		m.httpDuration.WithLabelValues(method, path).Observe(time.Since(start).Seconds())
		m.httpRequests.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
	}
}

// EmailDispatched counts one notifier call.
func (m *Metrics) EmailDispatched(kind string, err error) {
	if m == nil {
		return
	}
	result := "sent"
	if err != nil {
		result = "failed"
	}
	m.emails.WithLabelValues(kind, result).Inc()
}

func (m *Metrics) RateLimited(path string) {
	if m == nil {
		return
	}
	m.rateLimited.WithLabelValues(path).Inc()
}

func (m *Metrics) AppendRetried() {
	if m == nil {
		return
	}
	m.appendRetries.Inc()
}

// Registered counts a registration outcome: created, reclaimed or rejected.
func (m *Metrics) Registered(outcome string) {
	if m == nil {
		return
	}
	m.registrations.WithLabelValues(outcome).Inc()
}
