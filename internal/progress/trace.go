// Package progress captures the improvement events an anonymizer reports
// during a single run.
package progress

import (
	"sync"
	"time"
)

// NoSolution is recorded for discovery time and loss when a run reports no
// improvement.
const NoSolution = 0.0

// Listener receives an event every time the engine finds a transformation
// with lower information loss.
type Listener interface {
	TransformationFound(at time.Time, loss float64)
}

// ListenerFunc adapts a function to Listener.
type ListenerFunc func(at time.Time, loss float64)

// TransformationFound implements Listener.
func (f ListenerFunc) TransformationFound(at time.Time, loss float64) {
	f(at, loss)
}

// Point is one trace sample. The sentinel at index 0 has no loss.
type Point struct {
	At      time.Time
	Loss    float64
	HasLoss bool
}

// Trace is the time-ordered sample list of one run. It is seeded with a
// sentinel at the run start. Engines may report from their own goroutines.
type Trace struct {
	mu     sync.Mutex
	points []Point
}

// NewTrace creates a trace whose sentinel is start.
func NewTrace(start time.Time) *Trace {
	return &Trace{points: []Point{{At: start}}}
}

// TransformationFound implements Listener.
func (t *Trace) TransformationFound(at time.Time, loss float64) {
	t.mu.Lock()
	t.points = append(t.points, Point{At: at, Loss: loss, HasLoss: true})
	t.mu.Unlock()
}

// HasSolution reports whether at least one improvement was recorded.
func (t *Trace) HasSolution() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.points) > 1
}

// DiscoveryTime is the time between the sentinel and the last improvement,
// or zero without a solution.
func (t *Trace) DiscoveryTime() time.Duration {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.points) < 2 {
		return 0
	}
	return t.points[len(t.points)-1].At.Sub(t.points[0].At)
}

// DiscoveryMillis is DiscoveryTime in milliseconds, NoSolution without a solution.
func (t *Trace) DiscoveryMillis() float64 {
	if !t.HasSolution() {
		return NoSolution
	}
	return float64(t.DiscoveryTime()) / float64(time.Millisecond)
}

// BestLoss is the loss of the last improvement, NoSolution without one.
func (t *Trace) BestLoss() float64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.points) < 2 {
		return NoSolution
	}
	return t.points[len(t.points)-1].Loss
}

// Points returns a copy of the samples, sentinel first.
func (t *Trace) Points() []Point {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]Point(nil), t.points...)
}

// Multi fans events out to several listeners.
func Multi(listeners ...Listener) Listener {
	return ListenerFunc(func(at time.Time, loss float64) {
		for _, l := range listeners {
			if l != nil {
				l.TransformationFound(at, loss)
			}
		}
	})
}
