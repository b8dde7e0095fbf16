// Package hierarchy provides generalization hierarchies for quasi-identifiers:
// explicit order-based tables loaded verbatim and interval-based hierarchies
// built from a template plus the distinct values observed in the data.
package hierarchy

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// Delimiter separates columns in hierarchy and data files.
const Delimiter = ';'

// Hierarchy is an explicit generalization table. Each row maps one input value
// (column 0) to progressively coarser categories, one column per level.
type Hierarchy struct {
	rows  [][]string
	index map[string]int
}

// New creates a Hierarchy from rows. All rows must have the same length.
func New(rows [][]string) (*Hierarchy, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("hierarchy has no rows")
	}
	width := len(rows[0])
	if width == 0 {
		return nil, fmt.Errorf("hierarchy row 0 is empty")
	}

	h := &Hierarchy{
		rows:  make([][]string, len(rows)),
		index: make(map[string]int, len(rows)),
	}
	for i, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("hierarchy row %d has %d levels, expected %d", i, len(row), width)
		}
		if _, dup := h.index[row[0]]; dup {
			return nil, fmt.Errorf("hierarchy value %q appears twice", row[0])
		}
		h.rows[i] = append([]string(nil), row...)
		h.index[row[0]] = i
	}
	return h, nil
}

// LoadCSV reads an explicit ';'-delimited generalization table.
func LoadCSV(path string) (*Hierarchy, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bencherr.IO("hierarchy.LoadCSV", path, err)
	}
	defer f.Close()

	rows, err := readRows(f)
	if err != nil {
		return nil, bencherr.Malformed("hierarchy.LoadCSV", path, "%v", err)
	}

	h, err := New(rows)
	if err != nil {
		return nil, bencherr.Malformed("hierarchy.LoadCSV", path, "%v", err)
	}
	return h, nil
}

func readRows(r io.Reader) ([][]string, error) {
	cr := csv.NewReader(r)
	cr.Comma = Delimiter
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	var rows [][]string
	for {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
	return rows, nil
}

// Levels returns the number of generalization levels including level 0.
func (h *Hierarchy) Levels() int {
	return len(h.rows[0])
}

// Height is the highest generalization level index.
func (h *Hierarchy) Height() int {
	return h.Levels() - 1
}

// Size returns the number of input values covered.
func (h *Hierarchy) Size() int {
	return len(h.rows)
}

// Generalize maps value to its category at level.
func (h *Hierarchy) Generalize(value string, level int) (string, error) {
	if level < 0 || level >= h.Levels() {
		return "", fmt.Errorf("level %d out of range [0,%d]", level, h.Height())
	}
	i, ok := h.index[value]
	if !ok {
		return "", fmt.Errorf("value %q not covered by hierarchy", value)
	}
	return h.rows[i][level], nil
}

// Rows returns a copy of the table.
func (h *Hierarchy) Rows() [][]string {
	out := make([][]string, len(h.rows))
	for i, row := range h.rows {
		out[i] = append([]string(nil), row...)
	}
	return out
}

// Equal reports whether both hierarchies hold the same rows in the same order.
func (h *Hierarchy) Equal(other *Hierarchy) bool {
	if h == nil || other == nil {
		return h == other
	}
	if len(h.rows) != len(other.rows) {
		return false
	}
	for i := range h.rows {
		if len(h.rows[i]) != len(other.rows[i]) {
			return false
		}
		for j := range h.rows[i] {
			if h.rows[i][j] != other.rows[i][j] {
				return false
			}
		}
	}
	return true
}
