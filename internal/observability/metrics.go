package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the prometheus collectors for the api and the worker.
type Metrics struct {
	reg prometheus.Gatherer

	apiRequests    *prometheus.CounterVec
	apiLatency     *prometheus.HistogramVec
	apiInflight    prometheus.Gauge
	classification *prometheus.CounterVec
	upstream       *prometheus.CounterVec
	jobs           *prometheus.CounterVec
}

// NewMetrics registers every collector on reg. Pass prometheus.NewRegistry()
// in tests to avoid duplicate registration.
func NewMetrics(reg *prometheus.Registry) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		apiRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mycally",
			Name:      "http_requests_total",
			Help:      "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		apiLatency: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "mycally",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		apiInflight: f.NewGauge(prometheus.GaugeOpts{
			Namespace: "mycally",
			Name:      "http_inflight_requests",
			Help:      "Requests currently being served.",
		}),
		classification: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mycally",
			Name:      "priority_classifications_total",
			Help:      "Priority classification outcomes.",
		}, []string{"outcome"}),
		upstream: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mycally",
			Name:      "upstream_requests_total",
			Help:      "Outbound calls to Canvas and Gemini.",
		}, []string{"service", "code", "method"}),
		jobs: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: "mycally",
			Name:      "worker_jobs_total",
			Help:      "Generation jobs by kind and final status.",
		}, []string{"kind", "status"}),
	}
}

// Handler serves the registry in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

func (m *Metrics) ApiInflightInc() { m.apiInflight.Inc() }
func (m *Metrics) ApiInflightDec() { m.apiInflight.Dec() }

func (m *Metrics) ObserveAPI(method, route string, status int, d time.Duration) {
	m.apiRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.apiLatency.WithLabelValues(method, route).Observe(d.Seconds())
}

// ObserveClassification counts classified or unavailable outcomes.
func (m *Metrics) ObserveClassification(outcome string) {
	m.classification.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveJob(kind, status string) {
	m.jobs.WithLabelValues(kind, status).Inc()
}

// Transport counts outbound requests to service through base.
func (m *Metrics) Transport(service string, base http.RoundTripper) http.RoundTripper {
	if base == nil {
		base = http.DefaultTransport
	}
	return promhttp.InstrumentRoundTripperCounter(m.upstream.MustCurryWith(prometheus.Labels{"service": service}), base)
}
