package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMetrics_RecordsTicksAndOccurrences(t *testing.T) {
	m := New()

	m.ObserveTick(TickOK, time.Second)
	m.ObserveTick(TickOK, time.Second)
	m.ObserveTick(TickSkipped, 0)
	m.AddOccurrences(3)
	m.AddOccurrences(0)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.ticks.WithLabelValues(TickOK)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ticks.WithLabelValues(TickSkipped)))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.occurrences))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/health", http.StatusOK, time.Millisecond)
		m.ObserveTick(TickError, time.Millisecond)
		m.AddOccurrences(1)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.ObserveRequest(http.MethodGet, "/api/tasks", http.StatusOK, time.Millisecond)

	resp := httptest.NewRecorder()
	m.Handler().ServeHTTP(resp, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, resp.Code)
	assert.Contains(t, resp.Body.String(), `tasktracker_http_requests_total{method="GET",route="/api/tasks",status="200"} 1`)
}
