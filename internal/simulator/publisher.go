// Package simulator runs a fleet of synthetic monitoring stations that
// publish water-quality readings to the message queue.
package simulator

import (
	"context"
	"encoding/json"
	"math/rand"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"aquaview.dev/monitor/pkg/generator"
	"aquaview.dev/monitor/pkg/metrics"
	"aquaview.dev/monitor/pkg/mq"
	"aquaview.dev/monitor/pkg/quality"
)

// Chance that a single parameter is omitted from a reading, simulating a
// sensor outage.
const dropChance = 0.02

// Publisher couples one simulated station to a message queue client.
type Publisher struct {
	MQClient mq.ClientInterface
	Station  *generator.Station
	gen      *generator.WaterGenerator
	metrics  *metrics.SimulatorMetrics // Optional metrics
}

// NewPublisher creates a publisher for a freshly generated station.
func NewPublisher(mqClient mq.ClientInterface) *Publisher {
	return &Publisher{
		MQClient: mqClient,
		Station:  generator.NewStation(),
		gen:      generator.NewWaterGenerator(),
	}
}

// SetMetrics sets the metrics collector for this publisher.
func (p *Publisher) SetMetrics(m *metrics.SimulatorMetrics) {
	p.metrics = m
}

// PublishReading generates one reading and pushes it to the queue.
func (p *Publisher) PublishReading(ctx context.Context) error {
	var timer *prometheus.Timer
	if p.metrics != nil {
		timer = prometheus.NewTimer(p.metrics.GenerationDuration)
		defer timer.ObserveDuration()
	}

	reading := p.gen.Generate(time.Now())
	p.dropParameters(reading)

	message, err := json.Marshal(reading)
	if err != nil {
		if p.metrics != nil {
			p.metrics.PublishFailures.WithLabelValues("marshal_error").Inc()
		}
		return err
	}

	if err := p.MQClient.Push(ctx, message); err != nil {
		if p.metrics != nil {
			p.metrics.PublishFailures.WithLabelValues("publish_error").Inc()
		}
		return err
	}

	if p.metrics != nil {
		p.metrics.ReadingsPublished.Inc()
	}
	return nil
}

// dropParameters occasionally nils out individual sensors. The monitor must
// tolerate partial readings, so the fleet produces some.
func (p *Publisher) dropParameters(reading *quality.RawReading) {
	drop := func(kind quality.ParameterKind, field **float64) {
		if rand.Float64() < dropChance { // #nosec G404 - weak random is acceptable for simulation
			*field = nil
			if p.metrics != nil {
				p.metrics.DroppedParameters.WithLabelValues(string(kind)).Inc()
			}
		}
	}

	drop(quality.KindTDS, &reading.TDS)
	drop(quality.KindTemperature, &reading.Temperature)
	drop(quality.KindTurbidity, &reading.Turbidity)
	drop(quality.KindPH, &reading.PH)
}
