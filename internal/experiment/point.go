package experiment

import (
	"strconv"
	"strings"

	"github.com/dbsmedya/riskbench/internal/dataset"
)

// Variables are the key columns of every result file, in order.
var Variables = []string{"Criterium", "Dataset", "CustomQIs", "Metric", "Suppression", "Algorithm"}

// Point is the full parameter tuple of one benchmarked configuration.
type Point struct {
	Criterion   Criterion
	Dataset     dataset.Config
	Metric      Metric
	Suppression float64
	Algorithm   Algorithm
}

// Key returns the point's fields rendered in Variables order. Two points with
// equal keys share a result bucket.
func (p Point) Key() []string {
	return []string{
		p.Criterion.String(),
		p.Dataset.Datafile.String(),
		p.Dataset.QICountLabel(),
		p.Metric.String(),
		FormatSuppression(p.Suppression),
		p.Algorithm.String(),
	}
}

// String renders the point as printed before each run.
func (p Point) String() string {
	qis := p.Dataset.QICountLabel()
	if qis == "" {
		qis = "-"
	}
	return strings.Join([]string{
		p.Algorithm.String(),
		p.Criterion.String(),
		p.Dataset.Datafile.String(),
		qis,
		p.Metric.String(),
		FormatSuppression(p.Suppression),
	}, " / ")
}

// FormatSuppression always renders a decimal point ("0.0", "1.0", "0.05").
func FormatSuppression(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
