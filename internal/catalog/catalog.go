// Package catalog resolves a dataset configuration into a loaded table with a
// generalization hierarchy attached to every active quasi-identifier.
package catalog

import (
	"context"
	"sync"

	"github.com/dbsmedya/riskbench/internal/dataset"
	"github.com/dbsmedya/riskbench/internal/hierarchy"
)

// Dataset is a resolved dataset ready to hand to an anonymizer.
type Dataset struct {
	Config      dataset.Config
	Table       *dataset.Table
	ActiveQIs   []string
	Hierarchies map[string]*hierarchy.Hierarchy
}

// Hierarchy returns the hierarchy attached to attr, or nil.
func (d *Dataset) Hierarchy(attr string) *hierarchy.Hierarchy {
	return d.Hierarchies[attr]
}

// Catalog loads datafiles and their hierarchies. Parsed tables are cached by
// datafile; Resolve always hands out a fresh copy of the rows.
type Catalog struct {
	dataDir  string
	resolver *hierarchy.Resolver

	mu     sync.Mutex
	tables map[dataset.Datafile]*dataset.Table
}

// New creates a Catalog reading data files from dataDir and hierarchy files
// from hierarchyDir.
func New(dataDir, hierarchyDir string) *Catalog {
	c := &Catalog{
		dataDir: dataDir,
		tables:  make(map[dataset.Datafile]*dataset.Table),
	}
	c.resolver = hierarchy.NewResolver(hierarchyDir, c)
	return c
}

// Table returns the cached table for d, loading it on first use.
func (c *Catalog) Table(ctx context.Context, d dataset.Datafile) (*dataset.Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.tables[d]; ok {
		return t, nil
	}
	t, err := dataset.LoadTable(c.dataDir, d)
	if err != nil {
		return nil, err
	}
	c.tables[d] = t
	return t, nil
}

// Resolve loads the datafile selected by cfg, computes the active QIs and
// attaches one hierarchy per active QI.
func (c *Catalog) Resolve(ctx context.Context, cfg dataset.Config) (*Dataset, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	table, err := c.Table(ctx, cfg.Datafile)
	if err != nil {
		return nil, err
	}

	active := cfg.ActiveQIs()
	for _, qi := range active {
		if _, err := table.ColumnIndex(qi); err != nil {
			return nil, err
		}
	}

	hierarchies := make(map[string]*hierarchy.Hierarchy, len(active))
	for _, qi := range active {
		h, err := c.resolver.Resolve(ctx, cfg.Datafile, qi)
		if err != nil {
			return nil, err
		}
		hierarchies[qi] = h
	}

	return &Dataset{
		Config:      cfg,
		Table:       copyTable(table),
		ActiveQIs:   active,
		Hierarchies: hierarchies,
	}, nil
}

// Reset drops every cached table.
func (c *Catalog) Reset() {
	c.mu.Lock()
	c.tables = make(map[dataset.Datafile]*dataset.Table)
	c.mu.Unlock()
}

func copyTable(t *dataset.Table) *dataset.Table {
	rows := make([][]string, len(t.Rows))
	for i, row := range t.Rows {
		rows[i] = append([]string(nil), row...)
	}
	return &dataset.Table{
		Path:   t.Path,
		Header: append([]string(nil), t.Header...),
		Rows:   rows,
	}
}
