// Package metrics defines the Prometheus collectors for indexing and search
// runs and writes them to a node-exporter textfile when a run ends.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Query outcomes recorded by cranir_queries_total.
const (
	OutcomeOK     = "ok"
	OutcomeEmpty  = "empty"
	OutcomeFailed = "failed"
)

// Metrics holds the Prometheus collectors for one CLI run.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	DocumentsIndexed prometheus.Counter
	IndexDuration    prometheus.Gauge
	QueriesTotal     *prometheus.CounterVec
	QueryHits        prometheus.Histogram
	QueryDuration    prometheus.Histogram
	ModelFallbacks   prometheus.Counter
}

// New creates the collectors and registers them on a private registry.
func New() *Metrics {
	m := &Metrics{
		DocumentsIndexed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cranir_documents_indexed_total",
				Help: "Total documents submitted to the index.",
			},
		),
		IndexDuration: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "cranir_index_duration_seconds",
				Help: "Wall time of the last indexing run in seconds.",
			},
		),
		QueriesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "cranir_queries_total",
				Help: "Total queries processed by outcome (ok, empty, failed).",
			},
			[]string{"outcome"},
		),
		QueryHits: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cranir_query_hits",
				Help:    "Number of ranked hits returned per query.",
				Buckets: []float64{0, 1, 10, 50, 100, 250, 500, 1000},
			},
		),
		QueryDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "cranir_query_duration_seconds",
				Help:    "Search latency per query in seconds.",
				Buckets: []float64{0.0005, 0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
			},
		),
		ModelFallbacks: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "cranir_model_fallbacks_total",
				Help: "Ranking model requests that fell back to the default model.",
			},
		),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.DocumentsIndexed,
		m.IndexDuration,
		m.QueriesTotal,
		m.QueryHits,
		m.QueryDuration,
		m.ModelFallbacks,
	)

	return m
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// DocumentIndexed counts one submitted document.
func (m *Metrics) DocumentIndexed() {
	if m == nil {
		return
	}
	m.DocumentsIndexed.Inc()
}

// IndexFinished records the duration of an indexing run.
func (m *Metrics) IndexFinished(d time.Duration) {
	if m == nil {
		return
	}
	m.IndexDuration.Set(d.Seconds())
}

// ObserveQuery records one query outcome. Hits and latency are only
// observed for queries that reached the engine.
func (m *Metrics) ObserveQuery(outcome string, hits int, d time.Duration) {
	if m == nil {
		return
	}
	m.QueriesTotal.WithLabelValues(outcome).Inc()
	if outcome == OutcomeOK {
		m.QueryHits.Observe(float64(hits))
		m.QueryDuration.Observe(d.Seconds())
	}
}

// ModelFallback counts one ranking model fallback.
func (m *Metrics) ModelFallback() {
	if m == nil {
		return
	}
	m.ModelFallbacks.Inc()
}

// WriteToTextfile writes all collectors in the text exposition format to
// path, atomically, for the node-exporter textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
