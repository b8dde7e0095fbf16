// Package experiment holds the benchmark parameter model (criteria, metrics,
// algorithms, experiment points) and the matrix that enumerates them.
package experiment

import (
	"strconv"
	"strings"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// CriterionKind tags a privacy criterion variant.
type CriterionKind int

const (
	KAnonymity CriterionKind = iota
	PopulationUniqueness
)

// DefaultRegion is the population model used when none is given.
const DefaultRegion = "USA"

// Criterion is a privacy criterion handed to the anonymizer.
type Criterion struct {
	Kind      CriterionKind
	K         int
	Threshold float64
	Region    string
}

// NewKAnonymity returns a k-anonymity criterion.
func NewKAnonymity(k int) Criterion {
	return Criterion{Kind: KAnonymity, K: k}
}

// NewUniqueness returns a population uniqueness criterion.
func NewUniqueness(threshold float64, region string) Criterion {
	return Criterion{Kind: PopulationUniqueness, Threshold: threshold, Region: region}
}

// DefaultCriteria returns 5-anonymity and 0.01-uniqueness (USA).
func DefaultCriteria() []Criterion {
	return []Criterion{NewKAnonymity(5), NewUniqueness(0.01, DefaultRegion)}
}

// String returns the label written to result files, e.g. "(5)-Anonymity".
func (c Criterion) String() string {
	switch c.Kind {
	case KAnonymity:
		return "(" + strconv.Itoa(c.K) + ")-Anonymity"
	case PopulationUniqueness:
		return "(" + strconv.FormatFloat(c.Threshold, 'f', -1, 64) + ")-Uniqueness"
	default:
		return "(?)-Unknown"
	}
}

// Validate checks the criterion parameters.
func (c Criterion) Validate() error {
	switch c.Kind {
	case KAnonymity:
		if c.K < 1 {
			return bencherr.Config("experiment.Criterion", c.String(), "k must be at least 1")
		}
	case PopulationUniqueness:
		if c.Threshold <= 0 || c.Threshold > 1 {
			return bencherr.Config("experiment.Criterion", c.String(), "uniqueness threshold must be in (0,1]")
		}
		if c.Region == "" {
			return bencherr.Config("experiment.Criterion", c.String(), "population region is required")
		}
	default:
		return bencherr.Config("experiment.Criterion", strconv.Itoa(int(c.Kind)), "unknown criterion")
	}
	return nil
}

// ParseCriterion accepts "k-anonymity:<k>", "uniqueness:<t>[:<region>]" or a
// display label such as "(5)-Anonymity".
func ParseCriterion(s string) (Criterion, error) {
	in := strings.TrimSpace(s)
	lower := strings.ToLower(in)

	var c Criterion
	switch {
	case strings.HasPrefix(lower, "k-anonymity:"):
		k, err := strconv.Atoi(in[len("k-anonymity:"):])
		if err != nil {
			return Criterion{}, bencherr.Config("experiment.ParseCriterion", s, "invalid k")
		}
		c = NewKAnonymity(k)
	case strings.HasPrefix(lower, "uniqueness:"):
		parts := strings.Split(in[len("uniqueness:"):], ":")
		t, err := strconv.ParseFloat(parts[0], 64)
		if err != nil || len(parts) > 2 {
			return Criterion{}, bencherr.Config("experiment.ParseCriterion", s, "invalid uniqueness threshold")
		}
		region := DefaultRegion
		if len(parts) == 2 {
			region = strings.ToUpper(parts[1])
		}
		c = NewUniqueness(t, region)
	case strings.HasPrefix(in, "(") && strings.HasSuffix(lower, ")-anonymity"):
		k, err := strconv.Atoi(in[1 : len(in)-len(")-anonymity")])
		if err != nil {
			return Criterion{}, bencherr.Config("experiment.ParseCriterion", s, "invalid k")
		}
		c = NewKAnonymity(k)
	case strings.HasPrefix(in, "(") && strings.HasSuffix(lower, ")-uniqueness"):
		t, err := strconv.ParseFloat(in[1:len(in)-len(")-uniqueness")], 64)
		if err != nil {
			return Criterion{}, bencherr.Config("experiment.ParseCriterion", s, "invalid uniqueness threshold")
		}
		c = NewUniqueness(t, DefaultRegion)
	default:
		return Criterion{}, bencherr.Config("experiment.ParseCriterion", s, "unknown criterion")
	}

	if err := c.Validate(); err != nil {
		return Criterion{}, err
	}
	return c, nil
}
