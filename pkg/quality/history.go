package quality

import "time"

// HistoryCapacity is the fixed sliding-window size per tracked parameter.
const HistoryCapacity = 20

// HistoryPoint is one timestamped sample in a parameter's history.
type HistoryPoint struct {
	Timestamp time.Time `json:"timestamp"`
	Value     float64   `json:"value"`
}

// HistoryBuffer holds the most recent HistoryCapacity samples for one
// parameter in chronological order. Appending at capacity evicts the oldest
// sample. The buffer is not synchronized; mutation is confined to the single
// reading-processing path and readers receive copies via Snapshot.
type HistoryBuffer struct {
	points []HistoryPoint
}

// NewHistoryBuffer returns an empty buffer with the fixed capacity.
func NewHistoryBuffer() *HistoryBuffer {
	return &HistoryBuffer{
		points: make([]HistoryPoint, 0, HistoryCapacity),
	}
}

// Append adds a sample to the end of the window, evicting the oldest sample
// when the window is full. Repeated identical values are kept; there is no
// deduplication.
func (b *HistoryBuffer) Append(p HistoryPoint) {
	if len(b.points) >= HistoryCapacity {
		copy(b.points, b.points[1:])
		b.points = b.points[:len(b.points)-1]
	}
	b.points = append(b.points, p)
}

// Len returns the number of samples currently in the window.
func (b *HistoryBuffer) Len() int {
	return len(b.points)
}

// Snapshot returns a copy of the window in chronological order.
func (b *HistoryBuffer) Snapshot() []HistoryPoint {
	out := make([]HistoryPoint, len(b.points))
	copy(out, b.points)
	return out
}
