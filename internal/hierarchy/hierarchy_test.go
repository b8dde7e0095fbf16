package hierarchy

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/dataset"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

const sexHierarchy = "Male;*\nFemale;*\n"

func TestLoadCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "adult_hierarchy_sex.csv")
	writeFile(t, path, sexHierarchy)

	h, err := LoadCSV(path)
	require.NoError(t, err)

	assert.Equal(t, 2, h.Levels())
	assert.Equal(t, 1, h.Height())
	assert.Equal(t, 2, h.Size())

	got, err := h.Generalize("Female", 1)
	require.NoError(t, err)
	assert.Equal(t, "*", got)

	_, err = h.Generalize("Other", 0)
	assert.Error(t, err)
	_, err = h.Generalize("Male", 2)
	assert.Error(t, err)
}

func TestLoadCSVErrors(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCSV(filepath.Join(dir, "absent.csv"))
		assert.True(t, bencherr.IsIO(err))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("ragged rows", func(t *testing.T) {
		path := filepath.Join(dir, "ragged.csv")
		writeFile(t, path, "a;b;*\nc;*\n")
		_, err := LoadCSV(path)
		assert.True(t, bencherr.IsIO(err))
		assert.Contains(t, err.Error(), "levels")
	})

	t.Run("duplicate value", func(t *testing.T) {
		path := filepath.Join(dir, "dup.csv")
		writeFile(t, path, "a;*\na;*\n")
		_, err := LoadCSV(path)
		assert.True(t, bencherr.IsIO(err))
	})

	t.Run("empty", func(t *testing.T) {
		path := filepath.Join(dir, "empty.csv")
		writeFile(t, path, "")
		_, err := LoadCSV(path)
		assert.Error(t, err)
	})
}

func TestRowsReturnsCopy(t *testing.T) {
	h, err := New([][]string{{"a", "*"}})
	require.NoError(t, err)

	rows := h.Rows()
	rows[0][0] = "b"
	assert.Equal(t, "a", h.Rows()[0][0])
}

const ageTemplate = `
kind = "interval"
datatype = "integer"
missing = ["NA"]

[range]
min = 0
max = 100

[[intervals]]
min = 0
max = 10
label = "child"

[[intervals]]
min = 10
max = 20

[[intervals]]
min = 20
max = 30

[[intervals]]
min = 30
max = 40

[[levels]]
group = 2
`

func TestIntervalBuild(t *testing.T) {
	path := filepath.Join(t.TempDir(), "age.ahs")
	writeFile(t, path, ageTemplate)

	spec, err := LoadIntervalSpec(path)
	require.NoError(t, err)

	spec.Prepare([]string{"35", "5", "NA", "45", "-3", "150", "5"})
	h, err := spec.Build()
	require.NoError(t, err)

	assert.Equal(t, [][]string{
		{"-3", "<0", "<0", "*"},
		{"5", "child", "[0, 20[", "*"},
		{"35", "[30, 40[", "[20, 40[", "*"},
		{"45", ">=40", ">=40", "*"},
		{"150", ">=100", ">=100", "*"},
		{"NA", "*", "*", "*"},
	}, h.Rows())
}

func TestIntervalRepeat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "income.ahs")
	writeFile(t, path, `
kind = "interval"
datatype = "integer"
repeat = true

[range]
min = 0
max = 1000

[[intervals]]
min = 0
max = 10

[[intervals]]
min = 10
max = 20

[[levels]]
group = 2
`)

	spec, err := LoadIntervalSpec(path)
	require.NoError(t, err)
	spec.Prepare([]string{"25"})

	h, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"25", "[20, 30[", "[20, 40[", "*"}}, h.Rows())
}

func TestIntervalBuildIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "age.ahs")
	writeFile(t, path, ageTemplate)

	spec, err := LoadIntervalSpec(path)
	require.NoError(t, err)

	values := []string{"12", "7", "33", "21"}
	spec.Prepare(values)
	first, err := spec.Build()
	require.NoError(t, err)

	spec.Prepare(values)
	second, err := spec.Build()
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
}

func TestIntervalBuildErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "age.ahs")
	writeFile(t, path, ageTemplate)

	spec, err := LoadIntervalSpec(path)
	require.NoError(t, err)

	_, err = spec.Build()
	assert.ErrorContains(t, err, "before prepare")

	spec.Prepare([]string{"abc"})
	_, err = spec.Build()
	assert.ErrorContains(t, err, "not numeric")

	spec.Prepare([]string{"1.5"})
	_, err = spec.Build()
	assert.ErrorContains(t, err, "not an integer")
}

func TestIntervalWithoutDatatypeIsInteger(t *testing.T) {
	dir := t.TempDir()

	fractional := filepath.Join(dir, "fractional.ahs")
	writeFile(t, fractional, `
kind = "interval"
[range]
min = 0
max = 2
[[intervals]]
min = 0
max = 0.3
[[intervals]]
min = 0.3
max = 0.6
[[intervals]]
min = 0.6
max = 2
`)
	_, err := LoadIntervalSpec(fractional)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fractional")

	whole := filepath.Join(dir, "whole.ahs")
	writeFile(t, whole, `
kind = "interval"
[range]
min = 0
max = 20
[[intervals]]
min = 0
max = 10
[[intervals]]
min = 10
max = 20
`)
	spec, err := LoadIntervalSpec(whole)
	require.NoError(t, err)

	spec.Prepare([]string{"0.2"})
	_, err = spec.Build()
	assert.ErrorContains(t, err, "not an integer")

	spec.Prepare([]string{"4", "12"})
	h, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"4", "[0, 10[", "*"},
		{"12", "[10, 20[", "*"},
	}, h.Rows())
}

func TestIntervalDecimalKeepsFractionalBounds(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratio.ahs")
	writeFile(t, path, `
kind = "interval"
datatype = "decimal"
[range]
min = 0
max = 2
[[intervals]]
min = 0
max = 0.3
[[intervals]]
min = 0.3
max = 0.6
[[intervals]]
min = 0.6
max = 2
`)
	spec, err := LoadIntervalSpec(path)
	require.NoError(t, err)

	spec.Prepare([]string{"0.2", "0.4", "1.2"})
	h, err := spec.Build()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"0.2", "[0, 0.3[", "*"},
		{"0.4", "[0.3, 0.6[", "*"},
		{"1.2", "[0.6, 2[", "*"},
	}, h.Rows())
	assert.NotEqual(t, h.Rows()[0][1], h.Rows()[1][1])
}

func TestLoadIntervalSpecKindMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "order.ahs")
	writeFile(t, path, `kind = "order"`)

	_, err := LoadIntervalSpec(path)
	assert.True(t, bencherr.IsConfiguration(err))
	assert.Contains(t, err.Error(), "inconsistent hierarchy types")
}

func TestLoadIntervalSpecInvalid(t *testing.T) {
	dir := t.TempDir()

	gap := filepath.Join(dir, "gap.ahs")
	writeFile(t, gap, `
kind = "interval"
[range]
min = 0
max = 10
[[intervals]]
min = 0
max = 2
[[intervals]]
min = 3
max = 4
`)
	_, err := LoadIntervalSpec(gap)
	assert.True(t, bencherr.IsIO(err))

	_, err = LoadIntervalSpec(filepath.Join(dir, "absent.ahs"))
	assert.True(t, bencherr.IsIO(err))
}

func fixedTable(table *dataset.Table) TableSource {
	return TableSourceFunc(func(context.Context, dataset.Datafile) (*dataset.Table, error) {
		return table, nil
	})
}

func TestResolverPath(t *testing.T) {
	r := NewResolver("hierarchies", nil)

	tests := []struct {
		datafile dataset.Datafile
		attr     string
		want     string
	}{
		{dataset.Adult, "age", filepath.Join("hierarchies", "adult_hierarchy_age.csv")},
		{dataset.ACS13, "AGEP", filepath.Join("hierarchies", "ss13acs_hierarchy_i_AGEP.ahs")},
		{dataset.ACS13, "SEX", filepath.Join("hierarchies", "ss13acs_hierarchy_o_SEX.csv")},
	}
	for _, tt := range tests {
		t.Run(tt.attr, func(t *testing.T) {
			got, err := r.Path(tt.datafile, tt.attr)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := r.Path(dataset.ACS13, "NOPE")
	assert.True(t, bencherr.IsConfiguration(err))
}

func TestResolverResolve(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "adult_hierarchy_sex.csv"), sexHierarchy)
	writeFile(t, filepath.Join(dir, "ss13acs_hierarchy_o_SEX.csv"), "1;*\n2;*\n")
	writeFile(t, filepath.Join(dir, "ss13acs_hierarchy_i_AGEP.ahs"), ageTemplate)

	table := &dataset.Table{
		Header: []string{"AGEP", "SEX"},
		Rows:   [][]string{{"35", "1"}, {"5", "2"}, {"35", "2"}},
	}
	r := NewResolver(dir, fixedTable(table))
	ctx := context.Background()

	h, err := r.Resolve(ctx, dataset.Adult, "sex")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Size())

	h, err = r.Resolve(ctx, dataset.ACS13, "SEX")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Levels())

	h, err = r.Resolve(ctx, dataset.ACS13, "AGEP")
	require.NoError(t, err)
	assert.Equal(t, 2, h.Size())
	got, err := h.Generalize("35", 2)
	require.NoError(t, err)
	assert.Equal(t, "[20, 40[", got)

	_, err = r.Resolve(ctx, dataset.Fars, "iage")
	assert.True(t, bencherr.IsIO(err))

	_, err = r.Resolve(ctx, dataset.ACS13, "BOGUS")
	assert.True(t, bencherr.IsConfiguration(err))
}

func TestResolverIntervalMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "ss13acs_hierarchy_i_INTP.ahs"), ageTemplate)

	table := &dataset.Table{Header: []string{"AGEP"}, Rows: [][]string{{"1"}}}
	r := NewResolver(dir, fixedTable(table))

	_, err := r.Resolve(context.Background(), dataset.ACS13, "INTP")
	assert.True(t, bencherr.IsIO(err))
}
