package buffer

import (
	"time"
)

// Window counts events within a sliding time window.
// Events must be pushed in chronological order.
type Window struct {
	size   time.Duration
	events []time.Time
	start  int
	max    int
}

// NewWindow creates a new sliding window of the given duration.
func NewWindow(size time.Duration) *Window {
	return &Window{
		size:   size,
		events: make([]time.Time, 0),
	}
}

// Push adds an event to the window and returns the number of events currently within it.
// An event is within the window if it happened at most size before the latest one.
func (w *Window) Push(t time.Time) int {
	w.events = append(w.events, t)
	for w.start < len(w.events) && t.Sub(w.events[w.start]) > w.size {
		w.start++
	}
	n := len(w.events) - w.start
	if n > w.max {
		w.max = n
	}
	return n
}

// Max returns the largest number of events seen within one window.
func (w *Window) Max() int {
	return w.max
}
