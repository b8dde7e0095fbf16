// Package recorder accumulates per-run measurements into buckets keyed by the
// experiment point, aggregates repeated runs and persists the bucket table as
// a ';'-delimited result file.
package recorder

import (
	"fmt"
	"math"
	"sync"
	"time"
)

// Measure identifies a measure registered with AddMeasure.
type Measure int

// Clock returns the current time. Tests inject a fake one.
type Clock func() time.Time

// Option configures a Benchmark.
type Option func(*Benchmark)

// WithClock sets the clock used by the timers.
func WithClock(c Clock) Option {
	return func(b *Benchmark) { b.clock = c }
}

// Benchmark is the recording context of one result file. It is created at
// sweep start and closed at sweep end.
type Benchmark struct {
	mu      sync.Mutex
	path    string
	results *Results
	active  *bucket
	current *bucket
	timers  map[Measure]time.Time
	clock   Clock
	closed  bool
}

// New creates a Benchmark writing to path with the given key variables.
func New(path string, variables []string, opts ...Option) *Benchmark {
	b := &Benchmark{
		path:    path,
		results: newResults(variables),
		timers:  make(map[Measure]time.Time),
		clock:   time.Now,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Path returns the result file path.
func (b *Benchmark) Path() string {
	return b.path
}

// AddMeasure registers a measure column and returns its handle.
func (b *Benchmark) AddMeasure(name string) Measure {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.results.measures = append(b.results.measures, name)
	b.results.factories = append(b.results.factories, nil)
	return Measure(len(b.results.measures) - 1)
}

// AddAnalyzer attaches an analyzer to measure m. Every bucket gets its own instance.
func (b *Benchmark) AddAnalyzer(m Measure, f AnalyzerFactory) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if err := b.checkMeasure(m); err != nil {
		return err
	}
	b.results.factories[m] = append(b.results.factories[m], f)
	return nil
}

// AddRun opens the bucket for key, or reopens it if it exists, and makes it
// the target of subsequent values.
func (b *Benchmark) AddRun(key []string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return fmt.Errorf("benchmark %s is closed", b.path)
	}
	if len(key) != len(b.results.variables) {
		return fmt.Errorf("run key has %d fields, expected %d", len(key), len(b.results.variables))
	}
	b.active = b.results.open(key)
	b.current = b.active
	b.timers = make(map[Measure]time.Time)
	return nil
}

// AddValue feeds one sample of m into the active bucket.
func (b *Benchmark) AddValue(m Measure, v float64) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.addValue(m, v)
}

func (b *Benchmark) addValue(m Measure, v float64) error {
	if err := b.checkMeasure(m); err != nil {
		return err
	}
	if b.active == nil {
		return fmt.Errorf("no active run for measure %q", b.results.measures[m])
	}
	b.results.sync(b.active)
	for _, a := range b.active.analyzers[m] {
		a.Add(v)
	}
	return nil
}

// StartTimer starts timing measure m.
func (b *Benchmark) StartTimer(m Measure) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.timers[m] = b.clock()
}

// StopTimer records the nanoseconds elapsed since StartTimer as a sample of m.
func (b *Benchmark) StopTimer(m Measure) (time.Duration, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	start, ok := b.timers[m]
	if !ok {
		return 0, fmt.Errorf("timer for measure %d was not started", m)
	}
	delete(b.timers, m)
	elapsed := b.clock().Sub(start)
	return elapsed, b.addValue(m, float64(elapsed.Nanoseconds()))
}

// Last returns the first analyzer's value of m in the bucket of the latest
// AddRun, which may be a reopened one. It still answers after Close.
func (b *Benchmark) Last(m Measure) (float64, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.checkMeasure(m) != nil {
		return math.NaN(), false
	}
	if b.current == nil {
		return math.NaN(), false
	}
	cur := b.results.sync(b.current)
	if len(cur.analyzers[m]) == 0 {
		return math.NaN(), false
	}
	v := cur.analyzers[m][0].Value()
	return v, !math.IsNaN(v)
}

// Results returns the bucket table.
func (b *Benchmark) Results() *Results {
	return b.results
}

// Flush rewrites the result file with everything recorded so far.
func (b *Benchmark) Flush() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.results.Write(b.path)
}

// Close flushes the result file and rejects further runs.
func (b *Benchmark) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	b.active = nil
	return b.results.Write(b.path)
}

func (b *Benchmark) checkMeasure(m Measure) error {
	if m < 0 || int(m) >= len(b.results.measures) {
		return fmt.Errorf("unknown measure %d", m)
	}
	return nil
}
