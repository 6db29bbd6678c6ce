package stats

import (
	"math"
	"strings"
	"testing"

	"github.com/Joshua-96/MVG-tracker/internal/models"
)

func dep(label string, delay int) models.Departure {
	return models.Departure{
		Line:         models.Line{ID: 8, Label: label},
		DelayMinutes: delay,
	}
}

func TestWelfordMatchesTwoPass(t *testing.T) {
	values := []float64{0, 2, 2, 5, 1, 3}

	w := &welford{}
	for _, v := range values {
		w.update(v)
	}

	var sum float64
	for _, v := range values {
		sum += v
	}
	mean := sum / float64(len(values))
	var sq float64
	for _, v := range values {
		sq += (v - mean) * (v - mean)
	}
	want := math.Sqrt(sq / float64(len(values)))

	if math.Abs(w.mean-mean) > 1e-9 {
		t.Errorf("mean = %f, want %f", w.mean, mean)
	}
	if math.Abs(w.stddev()-want) > 1e-9 {
		t.Errorf("stddev = %f, want %f", w.stddev(), want)
	}
}

func TestStddevBelowTwoObservations(t *testing.T) {
	w := &welford{}
	if got := w.stddev(); got != 0 {
		t.Errorf("stddev of empty = %f, want 0", got)
	}
	w.update(7)
	if got := w.stddev(); got != 0 {
		t.Errorf("stddev of single observation = %f, want 0", got)
	}
}

func TestObserveGroupsByLine(t *testing.T) {
	s := NewDelayStats()
	s.Observe([]models.Departure{dep("S8", 2), dep("S3", 0)})
	s.Observe([]models.Departure{dep("S8", 4)})

	summary := s.Summary()
	if !strings.Contains(summary, "S8 n=2 mean=3.0") {
		t.Errorf("summary missing S8 stats: %q", summary)
	}
	if !strings.Contains(summary, "S3 n=1 mean=0.0") {
		t.Errorf("summary missing S3 stats: %q", summary)
	}
	if !strings.HasPrefix(summary, "S3") {
		t.Errorf("summary not ordered by label: %q", summary)
	}
}

func TestSummaryEmpty(t *testing.T) {
	if got := NewDelayStats().Summary(); got != "" {
		t.Errorf("Summary() = %q, want empty", got)
	}
}
