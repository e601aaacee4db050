package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// SimulatorMetrics contains Prometheus metrics for the fleet simulator.
type SimulatorMetrics struct {
	ReadingsPublished  prometheus.Counter
	PublishFailures    *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	ActiveStations     prometheus.Gauge
	DroppedParameters  *prometheus.CounterVec
}

// NewSimulatorMetrics creates and registers simulator metrics.
func NewSimulatorMetrics(namespace string) *SimulatorMetrics {
	m := &SimulatorMetrics{
		ReadingsPublished: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "readings_published_total",
				Help:      "Total number of readings published",
			},
		),
		PublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "publish_failures_total",
				Help:      "Total number of publish failures",
			},
			[]string{"reason"}, // reason: marshal_error, publish_error
		),
		GenerationDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "generation_duration_seconds",
				Help:      "Duration of reading generation and publish",
				Buckets:   prometheus.DefBuckets,
			},
		),
		ActiveStations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "active_stations",
				Help:      "Number of currently running simulated stations",
			},
		),
		DroppedParameters: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "simulator",
				Name:      "dropped_parameters_total",
				Help:      "Total number of parameters omitted to simulate sensor outages",
			},
			[]string{"parameter"},
		),
	}

	MustRegister(
		m.ReadingsPublished,
		m.PublishFailures,
		m.GenerationDuration,
		m.ActiveStations,
		m.DroppedParameters,
	)

	return m
}
