// Package metrics exports solve, store and HTTP activity as Prometheus
// metrics by implementing the observability hook interfaces.
//
//	m := metrics.New(prometheus.NewRegistry())
//	m.Install()
//	http.Handle("/metrics", m.Handler())
package metrics

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/matzehuels/treeflow/pkg/errors"
	"github.com/matzehuels/treeflow/pkg/observability"
)

// Metrics holds every treeflow collector.
type Metrics struct {
	gatherer prometheus.Gatherer

	passes          *prometheus.CounterVec
	passDuration    *prometheus.HistogramVec
	pending         prometheus.Gauge
	componentSolves *prometheus.CounterVec
	componentTime   *prometheus.HistogramVec
	storeOps        *prometheus.CounterVec
	storeBytes      *prometheus.CounterVec
	requests        *prometheus.CounterVec
	requestTime     *prometheus.HistogramVec
}

// New creates the collectors and registers them with reg.
func New(reg *prometheus.Registry) *Metrics {
	m := &Metrics{
		gatherer: reg,
		passes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treeflow_solve_passes_total",
			Help: "Solve passes by mode and outcome.",
		}, []string{"mode", "outcome"}),
		passDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "treeflow_solve_pass_seconds",
			Help:    "Duration of solve passes.",
			Buckets: prometheus.DefBuckets,
		}, []string{"mode"}),
		pending: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "treeflow_solve_pending_components",
			Help: "Components scheduled by the most recent solve pass.",
		}),
		componentSolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treeflow_component_solves_total",
			Help: "Component solves by type and result.",
		}, []string{"type", "result"}),
		componentTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "treeflow_component_solve_seconds",
			Help:    "Duration of single component solves.",
			Buckets: prometheus.ExponentialBuckets(0.00001, 4, 10),
		}, []string{"type"}),
		storeOps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treeflow_store_ops_total",
			Help: "Store operations by backend and operation.",
		}, []string{"backend", "op"}),
		storeBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treeflow_store_written_bytes_total",
			Help: "Bytes written to the store.",
		}, []string{"backend"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "treeflow_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		requestTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "treeflow_http_request_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	reg.MustRegister(m.passes, m.passDuration, m.pending, m.componentSolves, m.componentTime,
		m.storeOps, m.storeBytes, m.requests, m.requestTime)
	return m
}

// Install registers m as the global solve, store and HTTP hooks.
func (m *Metrics) Install() {
	observability.SetSolveHooks(m)
	observability.SetStoreHooks(m)
	observability.SetHTTPHooks(m)
}

// Handler serves the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}

// OnPassStart implements observability.SolveHooks.
func (m *Metrics) OnPassStart(_ context.Context, _ string, pending int) {
	m.pending.Set(float64(pending))
}

// OnPassComplete implements observability.SolveHooks.
func (m *Metrics) OnPassComplete(_ context.Context, mode string, _, failed int, d time.Duration, err error) {
	m.passes.WithLabelValues(mode, passOutcome(failed, err)).Inc()
	m.passDuration.WithLabelValues(mode).Observe(d.Seconds())
}

// OnComponentSolve implements observability.SolveHooks.
func (m *Metrics) OnComponentSolve(_ context.Context, typ string, solved bool, d time.Duration, err error) {
	m.componentSolves.WithLabelValues(typ, solveResult(solved, err)).Inc()
	m.componentTime.WithLabelValues(typ).Observe(d.Seconds())
}

// OnStoreHit implements observability.StoreHooks.
func (m *Metrics) OnStoreHit(_ context.Context, backend string) {
	m.storeOps.WithLabelValues(backend, "hit").Inc()
}

// OnStoreMiss implements observability.StoreHooks.
func (m *Metrics) OnStoreMiss(_ context.Context, backend string) {
	m.storeOps.WithLabelValues(backend, "miss").Inc()
}

// OnStorePut implements observability.StoreHooks.
func (m *Metrics) OnStorePut(_ context.Context, backend string, size int) {
	m.storeOps.WithLabelValues(backend, "put").Inc()
	m.storeBytes.WithLabelValues(backend).Add(float64(size))
}

// OnStoreDelete implements observability.StoreHooks.
func (m *Metrics) OnStoreDelete(_ context.Context, backend string) {
	m.storeOps.WithLabelValues(backend, "delete").Inc()
}

// OnRequest implements observability.HTTPHooks.
func (m *Metrics) OnRequest(_ context.Context, method, route string, status int, d time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.requestTime.WithLabelValues(method, route).Observe(d.Seconds())
}

func passOutcome(failed int, err error) string {
	switch {
	case errors.Is(err, errors.ErrCodeCycleDetected):
		return "cycle"
	case err != nil:
		return "error"
	case failed > 0:
		return "partial"
	}
	return "ok"
}

// solveResult labels one LocalSolve. An unsolved component with no error
// had an empty input.
func solveResult(solved bool, err error) string {
	switch {
	case solved:
		return "solved"
	case err == nil:
		return "empty"
	case errors.Is(err, errors.ErrCodeInconsistentShape):
		return "inconsistent_shape"
	}
	return "failed"
}

var (
	_ observability.SolveHooks = (*Metrics)(nil)
	_ observability.StoreHooks = (*Metrics)(nil)
	_ observability.HTTPHooks  = (*Metrics)(nil)
)
