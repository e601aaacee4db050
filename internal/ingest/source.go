// Package ingest orchestrates the reading pipeline: it receives raw sensor
// readings from a transport source, classifies them, maintains per-parameter
// history, derives alerts, and publishes consolidated views to presentation
// consumers.
package ingest

import (
	"context"

	"aquaview.dev/monitor/pkg/quality"
)

// Source is the transport collaborator that delivers raw, unscaled sensor
// readings. Implementations live in internal/transport; tests use fakes.
type Source interface {
	// Subscribe registers a handler invoked for every pushed reading and
	// returns an unsubscribe handle. The handler may receive nil when the
	// transport delivers an empty snapshot.
	Subscribe(handler func(*quality.RawReading)) (unsubscribe func(), err error)

	// FetchOnce retrieves the current reading on demand. It returns
	// (nil, nil) when the source has no data and an error on transport
	// failure.
	FetchOnce(ctx context.Context) (*quality.RawReading, error)
}
