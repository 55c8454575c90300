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

	movementsTotal  *prometheus.CounterVec
	txRetriesTotal  prometheus.Counter
	refreshFailures prometheus.Counter
}

// NewMetrics initialises the registry and base metrics.
func NewMetrics() *Metrics {
	registry := prometheus.NewRegistry()
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_http_requests_total",
		Help: "HTTP requests by route and status code.",
	}, []string{"route", "code"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "stockroom_http_request_duration_seconds",
		Help:    "HTTP request duration per route.",
		Buckets: prometheus.DefBuckets,
	}, []string{"route"})
	movements := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "stockroom_ledger_movements_total",
		Help: "Stock movements applied by kind and outcome.",
	}, []string{"kind", "outcome"})
	retries := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockroom_ledger_tx_retries_total",
		Help: "Optimistic-conflict retries performed by the ledger engine.",
	})
	refreshFailures := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "stockroom_registry_refresh_failures_total",
		Help: "Registry refreshes abandoned because a collection fetch failed.",
	})
	registry.MustRegister(requests, duration, movements, retries, refreshFailures)
	return &Metrics{
		registry:        registry,
		handler:         promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		requestsTotal:   requests,
		requestDuration: duration,
		movementsTotal:  movements,
		txRetriesTotal:  retries,
		refreshFailures: refreshFailures,
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

// ObserveMovement counts one applied (or rejected) stock movement.
func (m *Metrics) ObserveMovement(kind, outcome string) {
	if m == nil {
		return
	}
	m.movementsTotal.WithLabelValues(kind, outcome).Inc()
}

// ObserveTxRetry counts one optimistic-conflict retry.
func (m *Metrics) ObserveTxRetry() {
	if m == nil {
		return
	}
	m.txRetriesTotal.Inc()
}

// ObserveRefreshFailure counts one abandoned registry refresh.
func (m *Metrics) ObserveRefreshFailure() {
	if m == nil {
		return
	}
	m.refreshFailures.Inc()
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
