package recorder

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/elliotchance/orderedmap/v2"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// Delimiter separates columns in result files.
const Delimiter = ';'

const keySep = "\x1f"

type bucket struct {
	key       []string
	analyzers [][]Analyzer // indexed by measure
}

// Results is the bucket table of a benchmark in insertion order.
type Results struct {
	variables []string
	measures  []string
	factories [][]AnalyzerFactory
	buckets   *orderedmap.OrderedMap[string, *bucket]
}

func newResults(variables []string) *Results {
	return &Results{
		variables: append([]string(nil), variables...),
		buckets:   orderedmap.NewOrderedMap[string, *bucket](),
	}
}

// Len returns the number of buckets.
func (r *Results) Len() int {
	return r.buckets.Len()
}

// Header returns the variable columns followed by one column per analyzer.
func (r *Results) Header() []string {
	header := append([]string(nil), r.variables...)
	for m, name := range r.measures {
		for _, f := range r.factories[m] {
			header = append(header, name+" ("+f().Name()+")")
		}
	}
	return header
}

// Rows renders every bucket. Analyzers without samples render empty.
func (r *Results) Rows() [][]string {
	rows := make([][]string, 0, r.buckets.Len())
	for el := r.buckets.Front(); el != nil; el = el.Next() {
		b := r.sync(el.Value)
		row := append([]string(nil), b.key...)
		for m := range r.measures {
			for _, a := range b.analyzers[m] {
				row = append(row, formatValue(a.Value()))
			}
		}
		rows = append(rows, row)
	}
	return rows
}

func (r *Results) open(key []string) *bucket {
	id := strings.Join(key, keySep)
	if b, ok := r.buckets.Get(id); ok {
		return r.sync(b)
	}
	b := r.sync(&bucket{key: append([]string(nil), key...)})
	r.buckets.Set(id, b)
	return b
}

// sync gives b an analyzer for every measure and analyzer registered since
// the bucket was opened.
func (r *Results) sync(b *bucket) *bucket {
	for len(b.analyzers) < len(r.measures) {
		b.analyzers = append(b.analyzers, nil)
	}
	for m := range r.measures {
		for i := len(b.analyzers[m]); i < len(r.factories[m]); i++ {
			b.analyzers[m] = append(b.analyzers[m], r.factories[m][i]())
		}
	}
	return b
}

// Write rewrites path with a complete snapshot of the table. The file is
// written to a temporary sibling first and renamed into place.
func (r *Results) Write(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return bencherr.IO("recorder.Write", path, err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return bencherr.IO("recorder.Write", path, err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	w.Comma = Delimiter
	if err := w.Write(r.Header()); err != nil {
		tmp.Close()
		return bencherr.IO("recorder.Write", path, err)
	}
	if err := w.WriteAll(r.Rows()); err != nil {
		tmp.Close()
		return bencherr.IO("recorder.Write", path, err)
	}
	if err := tmp.Close(); err != nil {
		return bencherr.IO("recorder.Write", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return bencherr.IO("recorder.Write", path, err)
	}
	return nil
}

func formatValue(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Table is a result file read back from disk.
type Table struct {
	Header []string
	Rows   [][]string
}

// ReadTable parses a result file written by Write.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bencherr.IO("recorder.ReadTable", path, err)
	}
	defer f.Close()

	cr := csv.NewReader(f)
	cr.Comma = Delimiter
	records, err := cr.ReadAll()
	if err != nil {
		return nil, bencherr.Malformed("recorder.ReadTable", path, "%v", err)
	}
	if len(records) == 0 {
		return nil, bencherr.Malformed("recorder.ReadTable", path, "missing header")
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// Column returns the index of the named column.
func (t *Table) Column(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, fmt.Errorf("no column %q", name)
}

// Float parses the cell at (row, col). Empty cells are NaN.
func (t *Table) Float(row, col int) (float64, error) {
	s := t.Rows[row][col]
	if s == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(s, 64)
}
