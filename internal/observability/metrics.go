package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics collects Prometheus metrics for the application.
type Metrics struct {
	registry        *prometheus.Registry
	handler         http.Handler
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec

	reconciliations  *prometheus.CounterVec
	unitsReconciled  *prometheus.CounterVec
	investigations   prometheus.Counter
	sessionsByStatus *prometheus.CounterVec
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "atlas_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	reconciliations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_reconciliations_total",
		Help: "Inventory validations by outcome.",
	}, []string{"outcome"})
	units := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_reconciled_units_total",
		Help: "Units corrected by reconciliation, by classification.",
	}, []string{"classification"})
	cases := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "atlas_investigations_opened_total",
		Help: "Investigation cases opened by reconciliation.",
	})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "atlas_inventory_transitions_total",
		Help: "Inventory session transitions by target status.",
	}, []string{"status"})
	registry.MustRegister(requests, duration, reconciliations, units, cases, sessions)
	return &Metrics{
		registry:         registry,
		handler:          promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:    requests,
		requestDuration:  duration,
		reconciliations:  reconciliations,
		unitsReconciled:  units,
		investigations:   cases,
		sessionsByStatus: sessions,
	}
}

// Handler returns the http.Handler for the /metrics endpoint.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, http.StatusText(http.StatusServiceUnavailable), http.StatusServiceUnavailable)
		})
	}
	return m.handler
}

// Middleware records metrics for every HTTP request.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	if m == nil {
		return next
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		recorder := statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(&recorder, r)
		route := routePattern(r)
		m.requestsTotal.WithLabelValues(route, strconv.Itoa(recorder.status)).Inc()
		m.requestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	})
}

// RecordReconciliation counts one validation by outcome ("ok" or "error").
func (m *Metrics) RecordReconciliation(outcome string) {
	if m == nil {
		return
	}
	m.reconciliations.WithLabelValues(outcome).Inc()
}

// RecordReconciledUnits counts corrected units by classification.
func (m *Metrics) RecordReconciledUnits(classification string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.unitsReconciled.WithLabelValues(classification).Add(float64(n))
}

// RecordInvestigationOpened counts one opened case.
func (m *Metrics) RecordInvestigationOpened() {
	if m == nil {
		return
	}
	m.investigations.Inc()
}

// RecordTransition counts one session transition by target status.
func (m *Metrics) RecordTransition(status string) {
	if m == nil {
		return
	}
	m.sessionsByStatus.WithLabelValues(status).Inc()
}

// Registerer exposes the registry for custom metric registration.
func (m *Metrics) Registerer() prometheus.Registerer {
	if m == nil {
		return prometheus.DefaultRegisterer
	}
	return m.registry
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func routePattern(r *http.Request) string {
	if routeCtx := chi.RouteContext(r.Context()); routeCtx != nil {
		if pattern := routeCtx.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return "unknown"
}
