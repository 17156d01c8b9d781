package core

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics manages Prometheus instrumentation for the pipeline.
type Metrics struct {
	signalsNormalized *prometheus.CounterVec
	findingsByDisp    *prometheus.CounterVec
	purgeRowsDeleted  *prometheus.CounterVec
	stageDuration     *prometheus.HistogramVec
}

var (
	metricsInstance *Metrics
	metricsOnce     sync.Once
)

// GetMetrics returns the singleton pipeline metrics instance.
func GetMetrics() *Metrics {
	metricsOnce.Do(func() {
		metricsInstance = newMetrics()
	})
	return metricsInstance
}

func newMetrics() *Metrics {
	m := &Metrics{
		signalsNormalized: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sentinel",
				Subsystem: "pipeline",
				Name:      "signals_normalized_total",
				Help:      "Total signals normalized, by signal_type",
			},
			[]string{"signal_type"},
		),
		findingsByDisp: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sentinel",
				Subsystem: "pipeline",
				Name:      "findings_total",
				Help:      "Total findings escalated, by disposition",
			},
			[]string{"disposition"},
		),
		purgeRowsDeleted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: "sentinel",
				Subsystem: "store",
				Name:      "purge_rows_deleted_total",
				Help:      "Total rows deleted by retention purge, by table",
			},
			[]string{"table"},
		),
		stageDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: "sentinel",
				Subsystem: "pipeline",
				Name:      "stage_duration_seconds",
				Help:      "Duration of each pipeline stage",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"stage"},
		),
	}

	prometheus.MustRegister(
		m.signalsNormalized,
		m.findingsByDisp,
		m.purgeRowsDeleted,
		m.stageDuration,
	)

	return m
}

// RecordSignalNormalized records one normalized signal of the given type.
func (m *Metrics) RecordSignalNormalized(signalType SignalType) {
	m.signalsNormalized.WithLabelValues(string(signalType)).Inc()
}

// RecordFinding records one finding of the given disposition.
func (m *Metrics) RecordFinding(disposition FindingDisposition) {
	m.findingsByDisp.WithLabelValues(string(disposition)).Inc()
}

// RecordPurge records rows deleted from a table during retention purge.
func (m *Metrics) RecordPurge(table string, rows int64) {
	m.purgeRowsDeleted.WithLabelValues(table).Add(float64(rows))
}

// ObserveStageDuration records how long a named pipeline stage took.
func (m *Metrics) ObserveStageDuration(stage string, seconds float64) {
	m.stageDuration.WithLabelValues(stage).Observe(seconds)
}
