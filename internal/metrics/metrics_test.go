package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObserveLookup(t *testing.T) {
	m := New()

	m.ObserveLookup("current", "ok", 120*time.Millisecond)
	m.ObserveLookup("current", "ok", 80*time.Millisecond)
	m.ObserveLookup("weekly_forecast", "transport", time.Second)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.lookups.WithLabelValues("current", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lookups.WithLabelValues("weekly_forecast", "transport")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveLookup("current", "ok", time.Second)
		m.CountInteraction("weather", "api")
	})
}

func TestHandlerExposesCounters(t *testing.T) {
	m := New()
	m.CountInteraction("today", "api")

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `weatherbot_interactions_total{command="today",source="api"} 1`)
}
