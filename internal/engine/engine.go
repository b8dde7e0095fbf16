// Package engine defines the contract between the benchmark harness and the
// anonymization engine it measures.
package engine

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/catalog"
	"github.com/dbsmedya/riskbench/internal/experiment"
	"github.com/dbsmedya/riskbench/internal/progress"
)

// Configuration is everything the engine needs besides the data.
type Configuration struct {
	Criteria    []experiment.Criterion
	Metric      experiment.Metric
	MaxOutliers float64
	Algorithm   experiment.Algorithm
}

// NewConfiguration builds the engine configuration for a point.
func NewConfiguration(p experiment.Point) Configuration {
	return Configuration{
		Criteria:    []experiment.Criterion{p.Criterion},
		Metric:      p.Metric,
		MaxOutliers: p.Suppression,
		Algorithm:   p.Algorithm,
	}
}

// TimeLimit returns the heuristic time limit, if any.
func (c Configuration) TimeLimit() (time.Duration, bool) {
	if c.Algorithm.TimeLimit == nil {
		return 0, false
	}
	return *c.Algorithm.TimeLimit, true
}

// Node is one transformation in the search lattice.
type Node struct {
	Transformation  []int
	Checked         bool
	Anonymous       bool
	InformationLoss float64
}

// Lattice groups nodes by level, the sum of their transformation vector.
type Lattice struct {
	Levels [][]*Node
}

// Size returns the number of nodes.
func (l Lattice) Size() int {
	n := 0
	for _, level := range l.Levels {
		n += len(level)
	}
	return n
}

// Checked returns the number of nodes the search evaluated.
func (l Lattice) Checked() int {
	n := 0
	for _, level := range l.Levels {
		for _, node := range level {
			if node.Checked {
				n++
			}
		}
	}
	return n
}

// Row is one output record. Outliers are suppressed.
type Row struct {
	Values  []string
	Outlier bool
}

// Result is what an anonymization run returns.
type Result struct {
	Output  []Row
	Lattice Lattice
	Optimum *Node
}

// Anonymizer runs one anonymization. Implementations report every
// improvement to the listener. The call blocks until the search finishes;
// a bounded heuristic stops once its time limit has elapsed.
type Anonymizer interface {
	Anonymize(ctx context.Context, ds *catalog.Dataset, cfg Configuration, listener progress.Listener) (*Result, error)
}

// Factory creates an Anonymizer.
type Factory func() Anonymizer

// Registry maps engine names to factories.
type Registry struct {
	mu        sync.RWMutex
	factories map[string]Factory
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{factories: make(map[string]Factory)}
}

// Register adds or replaces a factory.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// New creates the named engine.
func (r *Registry) New(name string) (Anonymizer, error) {
	r.mu.RLock()
	f, ok := r.factories[name]
	r.mu.RUnlock()
	if !ok {
		return nil, bencherr.Config("engine.New", name, "unknown engine")
	}
	return f(), nil
}

// Names lists registered engines, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
