package dataset

import (
	"strconv"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// Config selects a datafile and optionally truncates its QI list.
type Config struct {
	Datafile      Datafile
	CustomQICount *int
}

// NewConfig creates a Config using the full QI list.
func NewConfig(d Datafile) Config {
	return Config{Datafile: d}
}

// WithQICount creates a Config using the first n QIs.
func WithQICount(d Datafile, n int) Config {
	return Config{Datafile: d, CustomQICount: &n}
}

// Validate checks the datafile and QI count.
func (c Config) Validate() error {
	if !c.Datafile.Valid() {
		return bencherr.Config("dataset.Config", strconv.Itoa(int(c.Datafile)), "unknown datafile")
	}
	if c.CustomQICount != nil {
		n := *c.CustomQICount
		if n < 1 || n > len(c.Datafile.QIs()) {
			return bencherr.Config("dataset.Config", strconv.Itoa(n),
				"custom QI count for %s must be between 1 and %d", c.Datafile, len(c.Datafile.QIs()))
		}
	}
	return nil
}

// ActiveQIs returns the prefix of the datafile's QIs selected by the config.
func (c Config) ActiveQIs() []string {
	qis := c.Datafile.QIs()
	if c.CustomQICount == nil {
		return qis
	}
	n := *c.CustomQICount
	if n > len(qis) {
		n = len(qis)
	}
	if n < 0 {
		n = 0
	}
	return qis[:n]
}

// QICountLabel renders the custom QI count, empty when absent.
func (c Config) QICountLabel() string {
	if c.CustomQICount == nil {
		return ""
	}
	return strconv.Itoa(*c.CustomQICount)
}

// String renders "Dataset" or "Dataset/<n>".
func (c Config) String() string {
	if c.CustomQICount == nil {
		return c.Datafile.String()
	}
	return c.Datafile.String() + "/" + c.QICountLabel()
}
