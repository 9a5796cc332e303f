package derive

import (
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// window is a fixed backward time window over one metric. It keeps only
// samples where the metric was actually reported; a window that has not
// yet accumulated minSamples reports nil rather than backfilling zeros.
type window struct {
	span       time.Duration
	minSamples int

	times  []time.Time
	values []float64
}

func newWindow(span time.Duration, minSamples int) *window {
	return &window{span: span, minSamples: minSamples}
}

// advance moves the window to now, dropping samples older than now-span,
// and appends the new sample when present. The window covers [now-span, now].
func (w *window) advance(now time.Time, v *float64) {
	cutoff := now.Add(-w.span)
	drop := 0
	for drop < len(w.times) && w.times[drop].Before(cutoff) {
		drop++
	}
	if drop > 0 {
		w.times = append(w.times[:0], w.times[drop:]...)
		w.values = append(w.values[:0], w.values[drop:]...)
	}

	if v != nil {
		w.times = append(w.times, now)
		w.values = append(w.values, *v)
	}
}

func (w *window) ready() bool {
	return len(w.values) >= w.minSamples
}

func (w *window) sum() *float64 {
	if !w.ready() {
		return nil
	}
	s := floats.Sum(w.values)
	return &s
}

func (w *window) mean() *float64 {
	if !w.ready() {
		return nil
	}
	m := stat.Mean(w.values, nil)
	return &m
}

func (w *window) stddev() *float64 {
	if !w.ready() {
		return nil
	}
	s := stat.StdDev(w.values, nil)
	return &s
}

// delta is last minus first sample in the window.
func (w *window) delta() *float64 {
	if !w.ready() {
		return nil
	}
	d := w.values[len(w.values)-1] - w.values[0]
	return &d
}
