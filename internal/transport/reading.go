// Package transport adapts message transports into reading sources for the
// ingest pipeline. Readings arrive as JSON payloads, either on a RabbitMQ
// queue fed by the fleet simulator or on an MQTT topic published by field
// stations.
package transport

import (
	"encoding/json"
	"fmt"

	"aquaview.dev/monitor/pkg/quality"
)

// decodeReading parses a raw transport payload into a reading. Fields absent
// from the payload stay nil and are excluded downstream.
func decodeReading(body []byte) (*quality.RawReading, error) {
	var reading quality.RawReading
	if err := json.Unmarshal(body, &reading); err != nil {
		return nil, fmt.Errorf("failed to unmarshal reading: %w", err)
	}
	return &reading, nil
}
