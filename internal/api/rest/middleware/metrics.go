package middleware

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dtroode/passkeeper-server/internal/metrics"
)

// unmatchedRoute labels requests no route matched.
const unmatchedRoute = "unmatched"

// Metrics records request counts and latency per chi route pattern.
type Metrics struct {
	metrics *metrics.Metrics
}

func NewMetrics(m *metrics.Metrics) *Metrics {
	return &Metrics{metrics: m}
}

func (m *Metrics) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		done := m.metrics.RequestStarted(r.Method)
		rec := recorderFrom(w)

		next.ServeHTTP(rec, r)

		done(routePattern(r), rec.status)
	})
}

func routePattern(r *http.Request) string {
	rctx := chi.RouteContext(r.Context())
	if rctx == nil {
		return unmatchedRoute
	}
	if pattern := rctx.RoutePattern(); pattern != "" {
		return pattern
	}
	return unmatchedRoute
}
