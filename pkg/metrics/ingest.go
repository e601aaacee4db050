package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// IngestMetrics contains Prometheus metrics for the reading pipeline.
type IngestMetrics struct {
	ReadingsProcessed prometheus.Counter
	EmptyReadings     prometheus.Counter
	RefreshFailures   prometheus.Counter
	ProcessDuration   prometheus.Histogram
	OverallTier       prometheus.Gauge
	ParameterTier     *prometheus.GaugeVec
	ActiveAlerts      prometheus.Gauge
}

// NewIngestMetrics creates and registers reading-pipeline metrics.
func NewIngestMetrics(namespace string) *IngestMetrics {
	m := &IngestMetrics{
		ReadingsProcessed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "readings_processed_total",
				Help:      "Total number of sensor readings processed",
			},
		),
		EmptyReadings: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "empty_readings_total",
				Help:      "Total number of nil or empty readings skipped",
			},
		),
		RefreshFailures: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "refresh_failures_total",
				Help:      "Total number of failed on-demand fetches",
			},
		),
		ProcessDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "process_duration_seconds",
				Help:      "Duration of reading processing",
				Buckets:   prometheus.DefBuckets,
			},
		),
		OverallTier: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "overall_tier",
				Help:      "Overall water quality tier rank (1=excellent .. 4=danger, 0=unknown)",
			},
		),
		ParameterTier: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "parameter_tier",
				Help:      "Per-parameter tier rank (1=excellent .. 4=danger)",
			},
			[]string{"parameter"},
		),
		ActiveAlerts: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "ingest",
				Name:      "active_alerts",
				Help:      "Number of alerts derived from the latest reading",
			},
		),
	}

	MustRegister(
		m.ReadingsProcessed,
		m.EmptyReadings,
		m.RefreshFailures,
		m.ProcessDuration,
		m.OverallTier,
		m.ParameterTier,
		m.ActiveAlerts,
	)

	return m
}
