package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// Delimiter separates columns in data files.
const Delimiter = ';'

var bom = []byte{0xef, 0xbb, 0xbf}

// Table is a materialised ';'-delimited data file: a header and data rows.
type Table struct {
	Path   string
	Header []string
	Rows   [][]string
}

// ColumnIndex returns the position of the named column.
func (t *Table) ColumnIndex(name string) (int, error) {
	for i, h := range t.Header {
		if h == name {
			return i, nil
		}
	}
	return -1, bencherr.Malformed("dataset.ColumnIndex", t.Path, "no column %q", name)
}

// Column returns all values of column col.
func (t *Table) Column(col int) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[col]
	}
	return out
}

// DistinctValues returns the distinct values of column col in first-seen order.
func (t *Table) DistinctValues(col int) []string {
	seen := make(map[string]struct{})
	var out []string
	for _, row := range t.Rows {
		v := row[col]
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}

// DataPath returns the plain CSV path for a datafile under dir.
func DataPath(dir string, d Datafile) string {
	return filepath.Join(dir, d.Stem()+".csv")
}

// LoadTable reads the datafile from dir. When the plain ".csv" is absent a
// ".csv.zst" or ".csv.gz" sibling is used instead.
func LoadTable(dir string, d Datafile) (*Table, error) {
	path := DataPath(dir, d)
	for _, candidate := range []string{path, path + ".zst", path + ".gz"} {
		if _, err := os.Stat(candidate); err == nil {
			return ReadTable(candidate)
		}
	}
	return nil, bencherr.IO("dataset.LoadTable", path, fs.ErrNotExist)
}

// ReadTable reads a ';'-delimited table with a header row, decompressing by
// file extension.
func ReadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, bencherr.IO("dataset.ReadTable", path, err)
	}
	defer f.Close()

	r, closer, err := decompress(path, f)
	if err != nil {
		return nil, bencherr.IO("dataset.ReadTable", path, err)
	}
	defer closer()

	t, err := parse(r)
	if err != nil {
		return nil, bencherr.Malformed("dataset.ReadTable", path, "%v", err)
	}
	t.Path = path
	return t, nil
}

func decompress(path string, r io.Reader) (io.Reader, func(), error) {
	switch filepath.Ext(path) {
	case ".zst", ".zstd":
		dec, err := zstd.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return dec, dec.Close, nil
	case ".gz", ".gzip":
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, nil, err
		}
		return gr, func() { gr.Close() }, nil
	}
	return r, func() {}, nil
}

func parse(r io.Reader) (*Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	data = bytes.TrimPrefix(data, bom)
	data = bytes.ReplaceAll(data, []byte("\r\n"), []byte("\n"))
	data = bytes.ReplaceAll(data, []byte("\r"), []byte("\n"))

	cr := csv.NewReader(bytes.NewReader(data))
	cr.Comma = Delimiter
	cr.LazyQuotes = true

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("empty file")
	}
	if err != nil {
		return nil, err
	}

	t := &Table{Header: header}
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		t.Rows = append(t.Rows, record)
	}
	return t, nil
}
