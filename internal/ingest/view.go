package ingest

import (
	"time"

	"aquaview.dev/monitor/pkg/quality"
)

// View is the consolidated result of processing one reading. It is published
// to presentation consumers (dashboard page, JSON API, websocket stream) on
// every successful reading and replaced wholesale by the next one. Consumers
// must treat a View as read-only.
type View struct {
	// UpdatedAt is when the reading was processed.
	UpdatedAt time.Time `json:"updated_at"`
	// Values holds the present parameter values, turbidity already in NTU.
	Values map[quality.ParameterKind]float64 `json:"values"`
	// Tiers holds the per-parameter classification for present parameters.
	Tiers map[quality.ParameterKind]quality.Tier `json:"tiers"`
	// Overall is the worst tier across the selected parameters, or the
	// unknown sentinel when nothing is selected.
	Overall quality.Tier `json:"overall"`
	// Alerts is the alert list derived from this reading alone.
	Alerts []quality.Alert `json:"alerts"`
	// History holds the sliding-window snapshots per parameter.
	History map[quality.ParameterKind][]quality.HistoryPoint `json:"history"`
	// Selected is the parameter subset participating in Overall.
	Selected []quality.ParameterKind `json:"selected"`
}
