package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"aquaview.dev/monitor/pkg/metrics"
	"aquaview.dev/monitor/pkg/quality"
)

var (
	errNotStarted     = errors.New("ingestor not started")
	errAlreadyStarted = errors.New("ingestor already started")
)

// Ingestor is the single-writer reading pipeline. It receives readings from
// the transport source, recomputes all derived state from scratch on each one
// (tiers, overall status, alerts, history), and publishes consolidated views
// to registered observers. All processing for one reading happens
// synchronously under one lock; there is exactly one logical writer.
type Ingestor struct {
	mu          sync.Mutex
	logger      *slog.Logger
	source      Source
	clock       func() time.Time
	metrics     *metrics.IngestMetrics
	history     map[quality.ParameterKind]*quality.HistoryBuffer
	selected    map[quality.ParameterKind]bool
	active      bool
	lastView    *View
	observers   map[int]func(View)
	nextObs     int
	unsubscribe func()
}

// Config holds the configuration for the Ingestor.
type Config struct {
	Logger *slog.Logger
	Source Source
	// Clock overrides the wall clock; nil means time.Now.
	Clock func() time.Time
	// Metrics is the optional Prometheus metrics collector.
	Metrics *metrics.IngestMetrics
	// Selected is the initial tracked-parameter subset; nil means all four.
	Selected []quality.ParameterKind
}

// NewIngestor creates a new Ingestor instance. History buffers for all four
// parameters are created up front and live for the session.
func NewIngestor(cfg *Config) (*Ingestor, error) {
	if cfg == nil {
		return nil, errors.New("ingestor config cannot be nil")
	}

	if cfg.Logger == nil {
		return nil, errors.New("logger cannot be nil")
	}

	if cfg.Source == nil {
		return nil, errors.New("source cannot be nil")
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	history := make(map[quality.ParameterKind]*quality.HistoryBuffer, 4)
	for _, kind := range quality.AllKinds() {
		history[kind] = quality.NewHistoryBuffer()
	}

	selected := make(map[quality.ParameterKind]bool, 4)
	if cfg.Selected == nil {
		for _, kind := range quality.AllKinds() {
			selected[kind] = true
		}
	} else {
		for _, kind := range cfg.Selected {
			if kind.Valid() {
				selected[kind] = true
			}
		}
	}

	return &Ingestor{
		logger:    cfg.Logger,
		source:    cfg.Source,
		clock:     clock,
		metrics:   cfg.Metrics,
		history:   history,
		selected:  selected,
		observers: make(map[int]func(View)),
	}, nil
}

// Start subscribes to the transport source. Pushed readings flow through
// Process until Stop is called.
func (i *Ingestor) Start() error {
	i.mu.Lock()
	if i.unsubscribe != nil {
		i.mu.Unlock()
		return errAlreadyStarted
	}
	i.mu.Unlock()

	unsubscribe, err := i.source.Subscribe(i.Process)
	if err != nil {
		return fmt.Errorf("failed to subscribe to source: %w", err)
	}

	i.mu.Lock()
	i.unsubscribe = unsubscribe
	i.mu.Unlock()

	i.logger.Info("ingestor started")
	return nil
}

// Stop unsubscribes from the transport source. The last published view
// remains available to readers.
func (i *Ingestor) Stop() error {
	i.mu.Lock()
	unsubscribe := i.unsubscribe
	i.unsubscribe = nil
	i.mu.Unlock()

	if unsubscribe == nil {
		return errNotStarted
	}

	unsubscribe()
	i.logger.Info("ingestor stopped")
	return nil
}

// Process runs the pipeline for one reading: scale, classify, append history,
// regenerate alerts, recompute overall status over the selected parameters,
// and publish the consolidated view. A nil or empty reading leaves all state
// untouched so consumers keep the previous, stale-but-valid view.
func (i *Ingestor) Process(reading *quality.RawReading) {
	if reading.Empty() {
		i.logger.Debug("skipping empty reading")
		if i.metrics != nil {
			i.metrics.EmptyReadings.Inc()
		}
		return
	}

	var timer *prometheus.Timer
	if i.metrics != nil {
		timer = prometheus.NewTimer(i.metrics.ProcessDuration)
	}

	i.mu.Lock()
	now := i.clock()
	values := reading.Values()

	tiers := make(map[quality.ParameterKind]quality.Tier, len(values))
	for kind, value := range values {
		tiers[kind] = quality.Classify(kind, value)
		i.history[kind].Append(quality.HistoryPoint{Timestamp: now, Value: value})
	}

	alerts := quality.GenerateAlerts(reading, now)

	view := View{
		UpdatedAt: now,
		Values:    values,
		Tiers:     tiers,
		Overall:   i.overallLocked(tiers),
		Alerts:    alerts,
		History:   i.snapshotsLocked(),
		Selected:  i.selectedLocked(),
	}

	if !i.active {
		i.active = true
		i.logger.Info("first reading received, pipeline active")
	}
	i.lastView = &view

	if i.metrics != nil {
		i.metrics.ReadingsProcessed.Inc()
		i.metrics.OverallTier.Set(float64(view.Overall.Rank()))
		i.metrics.ActiveAlerts.Set(float64(len(alerts)))
		for kind, tier := range tiers {
			i.metrics.ParameterTier.WithLabelValues(string(kind)).Set(float64(tier.Rank()))
		}
	}

	observers := i.observersLocked()
	i.mu.Unlock()

	if timer != nil {
		timer.ObserveDuration()
	}

	i.logger.Debug("reading processed",
		"overall", view.Overall.String(),
		"alerts", len(alerts),
		"parameters", len(values),
	)

	for _, notify := range observers {
		notify(view)
	}
}

// Refresh performs a manual on-demand fetch. A transport failure is surfaced
// to the caller without touching pipeline state; an empty result keeps the
// previous view in place.
func (i *Ingestor) Refresh(ctx context.Context) (*View, error) {
	reading, err := i.source.FetchOnce(ctx)
	if err != nil {
		if i.metrics != nil {
			i.metrics.RefreshFailures.Inc()
		}
		i.logger.Warn("manual refresh failed", "error", err)
		return nil, fmt.Errorf("refresh failed: %w", err)
	}

	i.Process(reading)

	view, _ := i.View()
	return view, nil
}

// View returns the latest consolidated view and whether the pipeline has
// processed at least one reading. The returned view must be treated as
// read-only.
func (i *Ingestor) View() (*View, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.lastView, i.active
}

// Active reports whether at least one reading has been processed.
func (i *Ingestor) Active() bool {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.active
}

// Selected returns the currently-selected parameter subset in display order.
func (i *Ingestor) Selected() []quality.ParameterKind {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.selectedLocked()
}

// SetSelected replaces the selected parameter subset. Unknown kinds are
// ignored. When a view exists its overall status is recomputed over the new
// subset and republished, so hiding a parameter takes effect immediately.
func (i *Ingestor) SetSelected(kinds []quality.ParameterKind) {
	i.mu.Lock()
	selected := make(map[quality.ParameterKind]bool, len(kinds))
	for _, kind := range kinds {
		if kind.Valid() {
			selected[kind] = true
		}
	}
	i.selected = selected

	var republished *View
	if i.lastView != nil {
		updated := *i.lastView
		updated.Overall = i.overallLocked(updated.Tiers)
		updated.Selected = i.selectedLocked()
		i.lastView = &updated
		republished = &updated

		if i.metrics != nil {
			i.metrics.OverallTier.Set(float64(updated.Overall.Rank()))
		}
	}
	observers := i.observersLocked()
	i.mu.Unlock()

	if republished != nil {
		for _, notify := range observers {
			notify(*republished)
		}
	}
}

// SubscribeViews registers an observer for published views and returns a
// removal handle. Observers are invoked synchronously after each processed
// reading, outside the pipeline lock.
func (i *Ingestor) SubscribeViews(fn func(View)) func() {
	i.mu.Lock()
	id := i.nextObs
	i.nextObs++
	i.observers[id] = fn
	i.mu.Unlock()

	return func() {
		i.mu.Lock()
		delete(i.observers, id)
		i.mu.Unlock()
	}
}

// overallLocked aggregates the tiers of the selected parameters only.
// Callers must hold i.mu.
func (i *Ingestor) overallLocked(tiers map[quality.ParameterKind]quality.Tier) quality.Tier {
	var included []quality.Tier
	for kind, tier := range tiers {
		if i.selected[kind] {
			included = append(included, tier)
		}
	}
	return quality.Overall(included)
}

// snapshotsLocked copies every parameter's history window. Callers must hold i.mu.
func (i *Ingestor) snapshotsLocked() map[quality.ParameterKind][]quality.HistoryPoint {
	out := make(map[quality.ParameterKind][]quality.HistoryPoint, len(i.history))
	for kind, buffer := range i.history {
		out[kind] = buffer.Snapshot()
	}
	return out
}

// selectedLocked returns the selected kinds in display order. Callers must hold i.mu.
func (i *Ingestor) selectedLocked() []quality.ParameterKind {
	out := make([]quality.ParameterKind, 0, len(i.selected))
	for _, kind := range quality.AllKinds() {
		if i.selected[kind] {
			out = append(out, kind)
		}
	}
	return out
}

// observersLocked snapshots the observer list. Callers must hold i.mu.
func (i *Ingestor) observersLocked() []func(View) {
	out := make([]func(View), 0, len(i.observers))
	for _, fn := range i.observers {
		out = append(out, fn)
	}
	return out
}
