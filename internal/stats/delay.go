package stats

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/Joshua-96/MVG-tracker/internal/models"
)

// welford holds running statistics using Welford's online algorithm, so
// mean and standard deviation update in O(1) without storing observations.
type welford struct {
	count int
	mean  float64
	m2    float64
}

func (w *welford) update(value float64) {
	w.count++
	delta := value - w.mean
	w.mean += delta / float64(w.count)
	w.m2 += delta * (value - w.mean)
}

// stddev returns the population standard deviation, 0 below 2 observations.
func (w *welford) stddev() float64 {
	if w.count < 2 {
		return 0
	}
	return math.Sqrt(w.m2 / float64(w.count))
}

// DelayStats accumulates running delay statistics per line across poll
// cycles. Owned by the scheduler; single writer, no locking.
type DelayStats struct {
	byLine map[string]*welford
}

// NewDelayStats returns an empty accumulator.
func NewDelayStats() *DelayStats {
	return &DelayStats{byLine: make(map[string]*welford)}
}

// Observe folds one batch of validated departures into the statistics.
func (s *DelayStats) Observe(departures []models.Departure) {
	for _, dep := range departures {
		w, ok := s.byLine[dep.Line.Label]
		if !ok {
			w = &welford{}
			s.byLine[dep.Line.Label] = w
		}
		w.update(float64(dep.DelayMinutes))
	}
}

// Summary renders the per-line statistics for logging, ordered by label.
// Empty when nothing has been observed yet.
func (s *DelayStats) Summary() string {
	if len(s.byLine) == 0 {
		return ""
	}
	labels := make([]string, 0, len(s.byLine))
	for label := range s.byLine {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	parts := make([]string, 0, len(labels))
	for _, label := range labels {
		w := s.byLine[label]
		parts = append(parts, fmt.Sprintf("%s n=%d mean=%.1f stddev=%.1f",
			label, w.count, w.mean, w.stddev()))
	}
	return strings.Join(parts, ", ")
}
