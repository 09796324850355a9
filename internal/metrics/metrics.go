// Package metrics exposes Prometheus metrics for pipeline runs.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "slexa"

// Metrics holds all pipeline metrics. A nil *Metrics is valid and records
// nothing, so callers never need to check whether metrics are enabled.
type Metrics struct {
	// Counters
	FilesProcessed *prometheus.CounterVec
	IssuesTotal    *prometheus.CounterVec
	BundlesTotal   prometheus.Counter
	RunsTotal      *prometheus.CounterVec

	// Histograms
	StageDuration *prometheus.HistogramVec

	registry *prometheus.Registry
}

// New creates a metrics instance with its own registry.
func New() *Metrics {
	m := &Metrics{registry: prometheus.NewRegistry()}

	m.FilesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "files_processed_total",
			Help:      "Files processed by stage and outcome",
		},
		[]string{"stage", "status"}, // status: "ok", "failed"
	)

	m.IssuesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "issues_total",
			Help:      "Error log entries by code and severity",
		},
		[]string{"code", "severity"},
	)

	m.BundlesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "bundles_total",
			Help:      "Aggregated bundles written to processed artifacts",
		},
	)

	m.RunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Pipeline runs by outcome",
		},
		[]string{"status"},
	)

	m.StageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stage_duration_seconds",
			Help:      "Time spent in each pipeline stage",
			Buckets:   []float64{0.1, 0.5, 1.0, 2.5, 5.0, 10.0, 30.0, 60.0, 300.0},
		},
		[]string{"stage"},
	)

	m.registry.MustRegister(
		m.FilesProcessed,
		m.IssuesTotal,
		m.BundlesTotal,
		m.RunsTotal,
		m.StageDuration,
	)
	m.registry.MustRegister(prometheus.NewGoCollector())
	m.registry.MustRegister(prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))

	return m
}

// Handler returns an HTTP handler for the metrics registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordFile counts one file leaving a stage.
func (m *Metrics) RecordFile(stage string, ok bool) {
	if m == nil {
		return
	}
	status := "ok"
	if !ok {
		status = "failed"
	}
	m.FilesProcessed.WithLabelValues(stage, status).Inc()
}

// RecordIssue counts one error log entry.
func (m *Metrics) RecordIssue(code, severity string) {
	if m == nil {
		return
	}
	m.IssuesTotal.WithLabelValues(code, severity).Inc()
}

// RecordBundles adds aggregated bundles.
func (m *Metrics) RecordBundles(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.BundlesTotal.Add(float64(n))
}

// RecordRun counts a finished run.
func (m *Metrics) RecordRun(err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "error"
	}
	m.RunsTotal.WithLabelValues(status).Inc()
}

// ObserveStage records how long a stage took.
func (m *Metrics) ObserveStage(stage string, d time.Duration) {
	if m == nil {
		return
	}
	m.StageDuration.WithLabelValues(stage).Observe(d.Seconds())
}
