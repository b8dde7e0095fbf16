package hierarchy

import (
	"context"
	"path/filepath"

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/dataset"
)

// TableSource supplies materialised data tables for interval hierarchies.
type TableSource interface {
	Table(ctx context.Context, d dataset.Datafile) (*dataset.Table, error)
}

// TableSourceFunc adapts a function to TableSource.
type TableSourceFunc func(ctx context.Context, d dataset.Datafile) (*dataset.Table, error)

// Table implements TableSource.
func (f TableSourceFunc) Table(ctx context.Context, d dataset.Datafile) (*dataset.Table, error) {
	return f(ctx, d)
}

// Resolver maps (datafile, attribute) to a generalization hierarchy.
type Resolver struct {
	dir    string
	tables TableSource
}

// NewResolver creates a Resolver reading hierarchy files from dir.
func NewResolver(dir string, tables TableSource) *Resolver {
	return &Resolver{dir: dir, tables: tables}
}

// Path returns the hierarchy file the resolver would read for attr.
func (r *Resolver) Path(d dataset.Datafile, attr string) (string, error) {
	if d != dataset.ACS13 {
		return filepath.Join(r.dir, d.Stem()+"_hierarchy_"+attr+".csv"), nil
	}
	qi, err := dataset.LookupSemanticQI(attr)
	if err != nil {
		return "", err
	}
	stem := filepath.Join(r.dir, d.Stem()+"_hierarchy_"+qi.FileBaseName())
	if qi.Type == dataset.Interval {
		return stem + ".ahs", nil
	}
	return stem + ".csv", nil
}

// Resolve produces the hierarchy for attr. Explicit tables are loaded
// verbatim; ACS13 interval attributes are built from their template and the
// distinct values of the attribute's column.
func (r *Resolver) Resolve(ctx context.Context, d dataset.Datafile, attr string) (*Hierarchy, error) {
	if !d.Valid() {
		return nil, bencherr.Config("hierarchy.Resolve", d.Name(), "unknown datafile")
	}
	path, err := r.Path(d, attr)
	if err != nil {
		return nil, err
	}
	if filepath.Ext(path) != ".ahs" {
		return LoadCSV(path)
	}
	return r.buildInterval(ctx, d, attr, path)
}

func (r *Resolver) buildInterval(ctx context.Context, d dataset.Datafile, attr, path string) (*Hierarchy, error) {
	spec, err := LoadIntervalSpec(path)
	if err != nil {
		return nil, err
	}

	table, err := r.tables.Table(ctx, d)
	if err != nil {
		return nil, err
	}
	col, err := table.ColumnIndex(attr)
	if err != nil {
		return nil, err
	}

	spec.Prepare(table.DistinctValues(col))
	h, err := spec.Build()
	if err != nil {
		return nil, bencherr.Malformed("hierarchy.Resolve", path, "%v", err)
	}
	return h, nil
}
