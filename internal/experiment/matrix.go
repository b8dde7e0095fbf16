package experiment

import (
	"strconv"
	"strings"
	"time"

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/dataset"
)

// DefaultSelfTimeLimit bounds every self-comparison run.
const DefaultSelfTimeLimit = 600000 * time.Millisecond

// Cell is one innermost tuple of a suite; the runner chooses the algorithms.
type Cell struct {
	Criterion   Criterion
	Dataset     dataset.Config
	Metric      Metric
	Suppression float64
}

// Point completes the cell with an algorithm.
func (c Cell) Point(a Algorithm) Point {
	return Point{
		Criterion:   c.Criterion,
		Dataset:     c.Dataset,
		Metric:      c.Metric,
		Suppression: c.Suppression,
		Algorithm:   a,
	}
}

// Matrix holds the sweep parameters of both suites.
type Matrix struct {
	Criteria    []Criterion
	Metrics     []Metric
	Suppression []float64

	// FlashDatafiles are swept by the Flash comparison. ACS13 is truncated to
	// FlashACSQICount QIs; other datafiles use their full QI list.
	FlashDatafiles  []dataset.Datafile
	FlashACSQICount int

	SelfDatafiles []dataset.Datafile
	SelfQICounts  []int
	SelfTimeLimit time.Duration
}

// DefaultMatrix returns the benchmark's standard sweep.
func DefaultMatrix() Matrix {
	return Matrix{
		Criteria:        DefaultCriteria(),
		Metrics:         DefaultMetrics(),
		Suppression:     []float64{0.0, 1.0},
		FlashDatafiles:  dataset.All(),
		FlashACSQICount: 9,
		SelfDatafiles:   []dataset.Datafile{dataset.ACS13},
		SelfQICounts:    []int{5, 6, 7, 8},
		SelfTimeLimit:   DefaultSelfTimeLimit,
	}
}

// Validate checks every parameter list.
func (m Matrix) Validate() error {
	for _, c := range m.Criteria {
		if err := c.Validate(); err != nil {
			return err
		}
	}
	for _, s := range m.Suppression {
		if s < 0 || s > 1 {
			return bencherr.Config("experiment.Matrix", FormatSuppression(s), "suppression must be in [0,1]")
		}
	}
	for _, d := range m.FlashDatafiles {
		if err := m.flashConfig(d).Validate(); err != nil {
			return err
		}
	}
	for _, d := range m.SelfDatafiles {
		for _, n := range m.SelfQICounts {
			if err := dataset.WithQICount(d, n).Validate(); err != nil {
				return err
			}
		}
	}
	if len(m.SelfQICounts) > 0 && m.SelfTimeLimit <= 0 {
		return bencherr.Config("experiment.Matrix", m.SelfTimeLimit.String(), "self comparison time limit must be positive")
	}
	if err := distinctKeys(m.FlashComparison()); err != nil {
		return err
	}
	return distinctKeys(m.SelfComparison())
}

// distinctKeys rejects cells that would be recorded under the same result
// row, e.g. two Loss aggregates or two uniqueness regions with one threshold.
func distinctKeys(cells []Cell) error {
	seen := make(map[string]bool, len(cells))
	for _, c := range cells {
		label := strings.Join(c.Point(NewFlash()).Key(), " / ")
		if seen[label] {
			return bencherr.Config("experiment.Matrix", label, "parameters produce duplicate result rows")
		}
		seen[label] = true
	}
	return nil
}

func (m Matrix) flashConfig(d dataset.Datafile) dataset.Config {
	if d == dataset.ACS13 {
		return dataset.WithQICount(d, m.FlashACSQICount)
	}
	return dataset.NewConfig(d)
}

// FlashComparison enumerates criterion, datafile, metric, suppression.
func (m Matrix) FlashComparison() []Cell {
	cells := make([]Cell, 0, m.FlashCardinality())
	for _, c := range m.Criteria {
		for _, d := range m.FlashDatafiles {
			ds := m.flashConfig(d)
			for _, metric := range m.Metrics {
				for _, s := range m.Suppression {
					cells = append(cells, Cell{Criterion: c, Dataset: ds, Metric: metric, Suppression: s})
				}
			}
		}
	}
	return cells
}

// SelfComparison enumerates criterion, datafile, metric, suppression, QI count.
func (m Matrix) SelfComparison() []Cell {
	cells := make([]Cell, 0, m.SelfCardinality())
	for _, c := range m.Criteria {
		for _, d := range m.SelfDatafiles {
			for _, metric := range m.Metrics {
				for _, s := range m.Suppression {
					for _, n := range m.SelfQICounts {
						cells = append(cells, Cell{
							Criterion:   c,
							Dataset:     dataset.WithQICount(d, n),
							Metric:      metric,
							Suppression: s,
						})
					}
				}
			}
		}
	}
	return cells
}

// FlashCardinality is the number of Flash comparison cells.
func (m Matrix) FlashCardinality() int {
	return len(m.Criteria) * len(m.FlashDatafiles) * len(m.Metrics) * len(m.Suppression)
}

// SelfCardinality is the number of self comparison cells.
func (m Matrix) SelfCardinality() int {
	return len(m.Criteria) * len(m.SelfDatafiles) * len(m.Metrics) * len(m.Suppression) * len(m.SelfQICounts)
}

// Describe returns a one-line summary of the sweep sizes.
func (m Matrix) Describe() string {
	return "flash=" + strconv.Itoa(m.FlashCardinality()) + " self=" + strconv.Itoa(m.SelfCardinality())
}
