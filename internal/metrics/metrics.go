// Package metrics keeps request and sync metrics and serves them in the
// Prometheus exposition format.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

const namespace = "vaultgate"

// Registry owns the collectors of one server. Each Registry has its own
// prometheus.Registry so tests and servers never share series.
type Registry struct {
	reg       *prometheus.Registry
	requests  *prometheus.CounterVec
	durations *prometheus.HistogramVec
	syncs     *prometheus.CounterVec
}

// New creates a registry with all collectors registered.
func New() *Registry {
	r := &Registry{
		reg: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Requests served, by method, route and status.",
		}, []string{"method", "route", "status"}),
		durations: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Time spent serving requests, by route.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route"}),
		syncs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_outcomes_total",
			Help:      "UID syncs, by outcome.",
		}, []string{"outcome"}),
	}
	r.reg.MustRegister(r.requests, r.durations, r.syncs)
	return r
}

// ObserveRequest records one served request.
func (r *Registry) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	r.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	r.durations.WithLabelValues(route).Observe(elapsed.Seconds())
}

// ObserveSync records the outcome of one UID sync.
func (r *Registry) ObserveSync(outcome string) {
	r.syncs.WithLabelValues(outcome).Inc()
}

// Families gathers the current metric families, sorted by name.
func (r *Registry) Families() ([]*dto.MetricFamily, error) {
	return r.reg.Gather()
}

// ServeHTTP writes the exposition (GET /metrics).
func (r *Registry) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	promhttp.HandlerFor(r.reg, promhttp.HandlerOpts{}).ServeHTTP(w, req)
}
