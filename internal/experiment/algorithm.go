package experiment

import "time"

// AlgorithmKind tags the search strategy.
type AlgorithmKind int

const (
	// Flash is the exhaustive search.
	Flash AlgorithmKind = iota
	// Heurakles is the heuristic search, optionally bounded by a time limit.
	Heurakles
)

// Algorithm selects the search strategy for one run.
type Algorithm struct {
	Kind      AlgorithmKind
	TimeLimit *time.Duration
}

// NewFlash returns the exhaustive algorithm.
func NewFlash() Algorithm {
	return Algorithm{Kind: Flash}
}

// NewHeurakles returns the heuristic algorithm bounded by limit.
func NewHeurakles(limit time.Duration) Algorithm {
	return Algorithm{Kind: Heurakles, TimeLimit: &limit}
}

// NewUnboundedHeurakles returns the heuristic algorithm without a time limit,
// which makes it examine the complete lattice.
func NewUnboundedHeurakles() Algorithm {
	return Algorithm{Kind: Heurakles}
}

// String returns "Flash" or "Heurakles". The time limit is not part of the label.
func (a Algorithm) String() string {
	switch a.Kind {
	case Flash:
		return "Flash"
	case Heurakles:
		return "Heurakles"
	default:
		return "Unknown"
	}
}

// Bounded reports whether a time limit is set.
func (a Algorithm) Bounded() bool {
	return a.TimeLimit != nil
}
