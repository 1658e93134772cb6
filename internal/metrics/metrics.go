// Package metrics exposes run counters for the collect and merge phases.
// Batch runs dump them to a node-exporter textfile at exit.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the collectors of one process. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	registry *prometheus.Registry

	fetches        *prometheus.CounterVec
	fetchDuration  prometheus.Histogram
	written        prometheus.Counter
	writeFailures  prometheus.Counter
	mergeRuns      *prometheus.CounterVec
	mergeTotal     *prometheus.GaugeVec
	mergeWatermark *prometheus.GaugeVec
}

// New registers every collector on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "rank_fetch_total",
				Help: "Ranking fetches by outcome status",
			},
			[]string{"status"},
		),
		fetchDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "rank_fetch_duration_seconds",
				Help:    "Duration of single ranking fetches in seconds",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 10),
			},
		),
		written: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "snapshot_artifacts_written_total",
				Help: "Country snapshot artifacts written",
			},
		),
		writeFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "snapshot_write_failures_total",
				Help: "Country snapshot artifacts that failed to write",
			},
		),
		mergeRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "merge_runs_total",
				Help: "Merge runs by target and status",
			},
			[]string{"target", "status"},
		),
		mergeTotal: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "merge_identifiers",
				Help: "Identifiers held by a merge target after its last run",
			},
			[]string{"target"},
		),
		mergeWatermark: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "merge_watermark_timestamp_seconds",
				Help: "Watermark date of a merge target as a unix timestamp",
			},
			[]string{"target"},
		),
	}
	m.registry.MustRegister(
		m.fetches,
		m.fetchDuration,
		m.written,
		m.writeFailures,
		m.mergeRuns,
		m.mergeTotal,
		m.mergeWatermark,
	)
	return m
}

// Registry returns the underlying registry, e.g. for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// ObserveFetch counts one fetch outcome.
func (m *Metrics) ObserveFetch(status string, d time.Duration) {
	if m == nil {
		return
	}
	m.fetches.WithLabelValues(status).Inc()
	m.fetchDuration.Observe(d.Seconds())
}

func (m *Metrics) SnapshotWritten() {
	if m == nil {
		return
	}
	m.written.Inc()
}

func (m *Metrics) SnapshotWriteFailed() {
	if m == nil {
		return
	}
	m.writeFailures.Inc()
}

// ObserveMerge records a merge run. watermark may be nil.
func (m *Metrics) ObserveMerge(target string, err error, total int, watermark *time.Time) {
	if m == nil {
		return
	}
	if err != nil {
		m.mergeRuns.WithLabelValues(target, "failed").Inc()
		return
	}
	m.mergeRuns.WithLabelValues(target, "ok").Inc()
	m.mergeTotal.WithLabelValues(target).Set(float64(total))
	if watermark != nil {
		m.mergeWatermark.WithLabelValues(target).Set(float64(watermark.Unix()))
	}
}

// WriteTextfile writes the registry in text exposition format to path.
// An empty path is a no-op.
func (m *Metrics) WriteTextfile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.registry)
}
