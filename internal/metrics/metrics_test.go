package metrics

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Recorders(t *testing.T) {
	m, err := New()
	require.NoError(t, err)

	done := m.RequestStarted(http.MethodPost)
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpInflight.WithLabelValues(http.MethodPost)))
	done("/api/users", http.StatusCreated)
	assert.Equal(t, float64(0), testutil.ToFloat64(m.httpInflight.WithLabelValues(http.MethodPost)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.httpRequests.WithLabelValues(http.MethodPost, "/api/users", "201")))

	m.EmailDispatched("verification", nil)
	m.EmailDispatched("verification", errors.New("smtp down"))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.emails.WithLabelValues("verification", "sent")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.emails.WithLabelValues("verification", "failed")))

	m.RateLimited("/api/login")
	m.AppendRetried()
	m.Registered("reclaimed")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.rateLimited.WithLabelValues("/api/login")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.appendRetries))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.registrations.WithLabelValues("reclaimed")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.RequestStarted(http.MethodGet)("/", http.StatusOK)
		m.EmailDispatched("verification", nil)
		m.RateLimited("/")
		m.AppendRetried()
		m.Registered("created")
	})
}

func TestMetrics_Handler(t *testing.T) {
	m, err := New()
	require.NoError(t, err)
	m.Registered("created")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `passkeeper_registrations_total{outcome="created"} 1`)
}

func TestNewWithRegistry_Duplicate(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewWithRegistry(reg, reg)
	require.NoError(t, err)

	// a second set of identical collectors is tolerated
	_, err = NewWithRegistry(reg, reg)
	require.NoError(t, err)
}
