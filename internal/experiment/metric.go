package experiment

import (
	"strings"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// MetricKind tags a utility metric variant.
type MetricKind int

const (
	// AECS is the average equivalence class size.
	AECS MetricKind = iota
	// Loss is the generalization loss aggregated over attributes.
	Loss
)

// AggregateFunction combines per-attribute loss values.
type AggregateFunction string

const (
	AggregateSum            AggregateFunction = "sum"
	AggregateMaximum        AggregateFunction = "maximum"
	AggregateArithmeticMean AggregateFunction = "arithmetic_mean"
	AggregateGeometricMean  AggregateFunction = "geometric_mean"
)

// Metric is a utility metric handed to the anonymizer.
type Metric struct {
	Kind      MetricKind
	Aggregate AggregateFunction
}

// NewAECS returns the average equivalence class size metric.
func NewAECS() Metric {
	return Metric{Kind: AECS}
}

// NewLoss returns the loss metric with the given aggregate function.
func NewLoss(agg AggregateFunction) Metric {
	return Metric{Kind: Loss, Aggregate: agg}
}

// DefaultMetrics returns Loss (geometric mean) followed by AECS.
func DefaultMetrics() []Metric {
	return []Metric{NewLoss(AggregateGeometricMean), NewAECS()}
}

// String returns the label written to result files.
func (m Metric) String() string {
	switch m.Kind {
	case AECS:
		return "AECS"
	case Loss:
		return "Loss"
	default:
		return "Unknown"
	}
}

// ParseMetric accepts "AECS", "Loss" or "Loss:<aggregate>". Loss defaults to
// the geometric mean.
func ParseMetric(s string) (Metric, error) {
	name, agg, _ := strings.Cut(strings.TrimSpace(s), ":")
	switch strings.ToLower(name) {
	case "aecs":
		if agg != "" {
			return Metric{}, bencherr.Config("experiment.ParseMetric", s, "AECS takes no aggregate function")
		}
		return NewAECS(), nil
	case "loss":
		if agg == "" {
			return NewLoss(AggregateGeometricMean), nil
		}
		f := AggregateFunction(strings.ToLower(agg))
		switch f {
		case AggregateSum, AggregateMaximum, AggregateArithmeticMean, AggregateGeometricMean:
			return NewLoss(f), nil
		}
		return Metric{}, bencherr.Config("experiment.ParseMetric", s, "unknown aggregate function")
	}
	return Metric{}, bencherr.Config("experiment.ParseMetric", s, "unknown metric")
}
