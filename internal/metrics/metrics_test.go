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

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.ObserveRequest(http.MethodGet, "/api/v1/books", http.StatusOK, 5*time.Millisecond)
	m.ObserveRequest(http.MethodGet, "/api/v1/books", http.StatusOK, 5*time.Millisecond)
	m.SessionEvent(SessionLogin)
	m.CategoryAdjusted(1)
	m.CategoryAdjusted(-1)
	m.CategoryAdjusted(0)
	m.ContentStored(11)
	m.LockAcquired(true)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.httpRequests.WithLabelValues("GET", "/api/v1/books", "200")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sessions.WithLabelValues(SessionLogin)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.categoryAdjustments.WithLabelValues("increment")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.categoryAdjustments.WithLabelValues("decrement")))
	assert.Equal(t, 11.0, testutil.ToFloat64(m.contentBytes))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.lockWaits.WithLabelValues("busy")))
}

func TestMetrics_NilIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.SessionEvent(SessionLogout)
		m.CategoryAdjusted(1)
		m.ContentStored(1)
		m.LockAcquired(false)
	})
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.SessionEvent(SessionLogin)

	srv := httptest.NewServer(m.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), `alexander_session_events_total{event="login"} 1`)
}
