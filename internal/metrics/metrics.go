// Package metrics exposes Prometheus instrumentation for the library API.
// A nil *Metrics is valid and records nothing.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "alexander"

// Session events.
const (
	SessionLogin    = "login"
	SessionLogout   = "logout"
	SessionRejected = "rejected"
)

// Metrics holds the collectors registered on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests        *prometheus.CounterVec
	httpDuration        *prometheus.HistogramVec
	sessions            *prometheus.CounterVec
	categoryAdjustments *prometheus.CounterVec
	contentBytes        prometheus.Counter
	lockWaits           *prometheus.CounterVec
}

// New creates and registers all collectors.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "HTTP requests by method, route pattern and status code.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency by method and route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		sessions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "session_events_total",
			Help:      "Session logins, logouts and rejected tokens.",
		}, []string{"event"}),
		categoryAdjustments: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "category_book_count_adjustments_total",
			Help:      "Atomic category book counter adjustments by direction.",
		}, []string{"direction"}),
		contentBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "content_stored_bytes_total",
			Help:      "Bytes of book content accepted by the content store.",
		}),
		lockWaits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bookshelf_lock_acquisitions_total",
			Help:      "Bookshelf lock acquisitions by outcome.",
		}, []string{"outcome"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.httpRequests,
		m.httpDuration,
		m.sessions,
		m.categoryAdjustments,
		m.contentBytes,
		m.lockWaits,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveRequest records one finished HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

// SessionEvent counts a session event (SessionLogin, SessionLogout, SessionRejected).
func (m *Metrics) SessionEvent(event string) {
	if m == nil {
		return
	}
	m.sessions.WithLabelValues(event).Inc()
}

// CategoryAdjusted counts one book counter adjustment.
func (m *Metrics) CategoryAdjusted(delta int64) {
	if m == nil || delta == 0 {
		return
	}
	direction := "increment"
	if delta < 0 {
		direction = "decrement"
	}
	m.categoryAdjustments.WithLabelValues(direction).Inc()
}

// ContentStored adds n bytes to the stored content counter.
func (m *Metrics) ContentStored(n int64) {
	if m == nil || n <= 0 {
		return
	}
	m.contentBytes.Add(float64(n))
}

// LockAcquired counts a bookshelf lock attempt; busy is true when it timed out.
func (m *Metrics) LockAcquired(busy bool) {
	if m == nil {
		return
	}
	outcome := "acquired"
	if busy {
		outcome = "busy"
	}
	m.lockWaits.WithLabelValues(outcome).Inc()
}
