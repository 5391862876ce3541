package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Calculation outcomes
const (
	OutcomeOK           = "ok"
	OutcomeWithIssues   = "issues"
	OutcomeInvalid      = "invalid"
	OutcomeUnavailable  = "unavailable"
	OutcomeInternalFail = "error"
)

// Metrics holds the collectors exported on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry prometheus.Gatherer

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
	calculations *prometheus.CounterVec
	calcLatency  prometheus.Histogram
	issues       *prometheus.CounterVec
	unresolved   *prometheus.CounterVec
	imported     prometheus.Counter
}

// New creates the collectors and registers them on a fresh registry
// that also carries the Go runtime and process collectors
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return NewWithRegistry(reg, reg)
}

// NewWithRegistry registers the collectors on r and serves them from g
func NewWithRegistry(r prometheus.Registerer, g prometheus.Gatherer) *Metrics {
	m := &Metrics{
		registry: g,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dietcalc_http_requests_total",
			Help: "HTTP requests by method/route/status.",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "dietcalc_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds by method/route.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5},
		}, []string{"method", "route"}),
		calculations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dietcalc_calculations_total",
			Help: "Diet calculations by outcome.",
		}, []string{"outcome"}),
		calcLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "dietcalc_calculation_duration_seconds",
			Help:    "End-to-end diet calculation latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}),
		issues: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dietcalc_rule_issues_total",
			Help: "Composition rule violations by issue.",
		}, []string{"issue"}),
		unresolved: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "dietcalc_unresolved_ingredients_total",
			Help: "Selected ingredients excluded from totals by reason.",
		}, []string{"reason"}),
		imported: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "dietcalc_catalog_imported_profiles_total",
			Help: "Ingredient profiles written by catalog imports.",
		}),
	}

	r.MustRegister(
		m.httpRequests,
		m.httpLatency,
		m.calculations,
		m.calcLatency,
		m.issues,
		m.unresolved,
		m.imported,
	)
	return m
}

// Handler serves the registered collectors
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one served request
func (m *Metrics) ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCalculation records one calculation and its outcome
func (m *Metrics) ObserveCalculation(outcome string, elapsed time.Duration) {
	if m == nil {
		return
	}
	m.calculations.WithLabelValues(outcome).Inc()
	m.calcLatency.Observe(elapsed.Seconds())
}

// Issue counts a rule violation
func (m *Metrics) Issue(issue string) {
	if m == nil {
		return
	}
	m.issues.WithLabelValues(issue).Inc()
}

// Unresolved counts an ingredient left out of the totals
func (m *Metrics) Unresolved(reason string) {
	if m == nil {
		return
	}
	m.unresolved.WithLabelValues(reason).Inc()
}

// Imported counts profiles written by an import
func (m *Metrics) Imported(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.imported.Add(float64(n))
}
