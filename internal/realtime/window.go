// Package realtime drives the client-side capture loop and maintains the
// rolling display state for real-time hemoglobin readings.
package realtime

import (
	"time"
)

// WindowSize is the bound on retained readings.
const WindowSize = 5

// Reading is one accepted estimate retained for display.
type Reading struct {
	GramsPerDL float64
	Status     string // health bucket name at the time of the reading
	At         time.Time
}

// Window is a bounded FIFO of the most recent accepted readings. Eviction
// is by arrival order, never by value. Not safe for concurrent use; the
// session serializes access.
type Window struct {
	capacity int
	entries  []Reading
}

// NewWindow creates a window with the given capacity (WindowSize when <= 0).
func NewWindow(capacity int) *Window {
	if capacity <= 0 {
		capacity = WindowSize
	}
	return &Window{capacity: capacity}
}

// Push appends a reading, evicting the oldest entry once the bound is
// exceeded.
func (w *Window) Push(r Reading) {
	w.entries = append(w.entries, r)
	if len(w.entries) > w.capacity {
		w.entries = w.entries[1:]
	}
}

// Len returns the number of retained readings.
func (w *Window) Len() int {
	return len(w.entries)
}

// Mean returns the arithmetic mean of exactly the retained readings,
// or 0 for an empty window.
func (w *Window) Mean() float64 {
	if len(w.entries) == 0 {
		return 0
	}
	var sum float64
	for _, r := range w.entries {
		sum += r.GramsPerDL
	}
	return sum / float64(len(w.entries))
}

// Snapshot returns a copy of the retained readings, oldest first.
func (w *Window) Snapshot() []Reading {
	out := make([]Reading, len(w.entries))
	copy(out, w.entries)
	return out
}

// Clear drops all retained readings.
func (w *Window) Clear() {
	w.entries = w.entries[:0]
}
