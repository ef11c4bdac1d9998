package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns a private registry so several instances can coexist in tests.
type Metrics struct {
	registry *prometheus.Registry

	Operations      *prometheus.CounterVec
	Overdraws       *prometheus.CounterVec
	SnapshotSaves   *prometheus.CounterVec
	InsightRequests *prometheus.CounterVec
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweetlive_ledger_operations_total",
			Help: "Ledger operations by name and outcome.",
		}, []string{"operation", "outcome"}),
		Overdraws: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweetlive_stock_overdraws_total",
			Help: "Stock withdrawals clamped at zero, by source.",
		}, []string{"source"}),
		SnapshotSaves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweetlive_snapshot_saves_total",
			Help: "Snapshot saves through the persistence gateway, by outcome.",
		}, []string{"outcome"}),
		InsightRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweetlive_insight_requests_total",
			Help: "Advisory insight requests by result (generated, cached, fallback).",
		}, []string{"result"}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sweetlive_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sweetlive_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.Operations,
		m.Overdraws,
		m.SnapshotSaves,
		m.InsightRequests,
		m.HTTPRequests,
		m.HTTPDuration,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}
