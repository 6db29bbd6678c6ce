package buffer

import (
	"sort"

	"github.com/Joshua-96/MVG-tracker/internal/models"
)

// Buffer accumulates validated departures between persistence flushes,
// deduplicated by departure id. It is owned by the poll scheduler and has
// exactly one writer, so it carries no locking.
type Buffer struct {
	byID map[string]models.Departure
}

// New returns an empty buffer.
func New() *Buffer {
	return &Buffer{byID: make(map[string]models.Departure)}
}

// Merge folds incoming departures into the buffer. Duplicate keys are
// resolved last-write-wins: the incoming record replaces the stored one
// entirely.
func (b *Buffer) Merge(incoming []models.Departure) {
	for _, dep := range incoming {
		b.byID[dep.DepartureID] = dep
	}
}

// Len reports the number of distinct departures held.
func (b *Buffer) Len() int {
	return len(b.byID)
}

// Snapshot returns the buffered departures ordered by planned time, then
// departure id for determinism.
func (b *Buffer) Snapshot() []models.Departure {
	out := make([]models.Departure, 0, len(b.byID))
	for _, dep := range b.byID {
		out = append(out, dep)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Planned.Equal(out[j].Planned) {
			return out[i].Planned.Before(out[j].Planned)
		}
		return out[i].DepartureID < out[j].DepartureID
	})
	return out
}

// Clear empties the buffer after a successful flush.
func (b *Buffer) Clear() {
	b.byID = make(map[string]models.Departure)
}
