// Package budget turns the repeated execution times of an exhaustive run into
// the time limit of the next comparable heuristic run.
package budget

import (
	"math"
	"strings"
	"time"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// Policy selects how repeated times are aggregated.
type Policy string

const (
	Arithmetic Policy = "arithmetic"
	Geometric  Policy = "geometric"
)

// ParsePolicy resolves a policy name, case-insensitively.
func ParsePolicy(s string) (Policy, error) {
	switch p := Policy(strings.ToLower(strings.TrimSpace(s))); p {
	case Arithmetic, Geometric:
		return p, nil
	}
	return "", bencherr.Config("budget.ParsePolicy", s, "unknown mean policy (want arithmetic or geometric)")
}

// ArithmeticMean returns sum/N. It returns NaN for an empty slice.
func ArithmeticMean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, x := range xs {
		sum += x
	}
	return sum / float64(len(xs))
}

// GeometricMean returns (Π xᵢ)^(1/N) rounded to the nearest integer. It is
// computed in log space so long sequences of large durations do not overflow.
// It returns NaN for an empty slice or any non-positive value.
func GeometricMean(xs []float64) float64 {
	if len(xs) == 0 {
		return math.NaN()
	}
	var logSum float64
	for _, x := range xs {
		if x <= 0 {
			return math.NaN()
		}
		logSum += math.Log(x)
	}
	return math.Round(math.Exp(logSum / float64(len(xs))))
}

// Propagator aggregates repeated execution times into a budget.
type Propagator struct {
	Policy Policy
}

// New returns a Propagator for p.
func New(p Policy) *Propagator {
	return &Propagator{Policy: p}
}

// MinMeasurable replaces execution times the clock could not resolve.
const MinMeasurable = time.Nanosecond

// Propagate aggregates times under the configured policy. A single time is
// returned unchanged. Times at or below zero are counted as MinMeasurable.
func (p *Propagator) Propagate(times []time.Duration) (time.Duration, error) {
	if len(times) == 0 {
		return 0, bencherr.Config("budget.Propagate", "", "no execution times to aggregate")
	}
	clamped := make([]time.Duration, len(times))
	for i, t := range times {
		clamped[i] = max(t, MinMeasurable)
	}
	times = clamped
	if len(times) == 1 {
		return times[0], nil
	}

	switch p.Policy {
	case Arithmetic:
		var sum time.Duration
		for _, t := range times {
			sum += t
		}
		return sum / time.Duration(len(times)), nil
	case Geometric:
		xs := make([]float64, len(times))
		for i, t := range times {
			xs[i] = float64(t)
		}
		return time.Duration(GeometricMean(xs)), nil
	}
	return 0, bencherr.Config("budget.Propagate", string(p.Policy), "unknown mean policy")
}

// Millis truncates d to whole milliseconds, the unit of the heuristic time limit.
func Millis(d time.Duration) time.Duration {
	return d.Truncate(time.Millisecond)
}
