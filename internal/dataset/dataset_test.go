package dataset

import (
	"bytes"
	"compress/gzip"
	"os"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

func TestParseDatafile(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Datafile
		wantErr bool
	}{
		{name: "enum name", input: "ADULT", want: Adult},
		{name: "display name", input: "Fars", want: Fars},
		{name: "lower case", input: "acs13", want: ACS13},
		{name: "unknown", input: "CENSUS", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDatafile(tt.input)
			if tt.wantErr {
				assert.True(t, bencherr.IsConfiguration(err))
				assert.Contains(t, err.Error(), tt.input)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDatafileMetadata(t *testing.T) {
	assert.Equal(t, "ss13acs", ACS13.Stem())
	assert.Equal(t, "ACS13", ACS13.String())
	assert.Equal(t, "Adult", Adult.String())
	assert.Equal(t, "adult", Adult.Stem())
	assert.Len(t, Adult.QIs(), 9)
	assert.Len(t, Cup.QIs(), 8)
	assert.Len(t, ACS13.QIs(), len(SemanticQIs()))
	assert.Equal(t, "AGEP", ACS13.QIs()[0])
	assert.False(t, Datafile(42).Valid())
}

func TestQIsReturnsCopy(t *testing.T) {
	qis := Adult.QIs()
	qis[0] = "mutated"
	assert.Equal(t, "age", Adult.QIs()[0])
}

func TestSemanticQIFileBaseName(t *testing.T) {
	for _, q := range SemanticQIs() {
		switch q.Type {
		case Interval:
			assert.Equal(t, "i_"+q.Name, q.FileBaseName())
		case Order:
			assert.Equal(t, "o_"+q.Name, q.FileBaseName())
		}
	}

	agep, err := LookupSemanticQI("AGEP")
	require.NoError(t, err)
	assert.Equal(t, Interval, agep.Type)

	_, err = LookupSemanticQI("agep")
	assert.True(t, bencherr.IsConfiguration(err))
}

func TestConfigActiveQIs(t *testing.T) {
	assert.Equal(t, Adult.QIs(), NewConfig(Adult).ActiveQIs())
	assert.Equal(t, []string{"age", "education", "marital-status"}, WithQICount(Adult, 3).ActiveQIs())
	assert.Equal(t, "", NewConfig(Adult).QICountLabel())
	assert.Equal(t, "ACS13/9", WithQICount(ACS13, 9).String())
}

func TestConfigValidate(t *testing.T) {
	assert.NoError(t, NewConfig(Fars).Validate())
	assert.NoError(t, WithQICount(Fars, 8).Validate())
	assert.Error(t, WithQICount(Fars, 9).Validate())
	assert.Error(t, WithQICount(Fars, 0).Validate())
	assert.Error(t, Config{Datafile: Datafile(99)}.Validate())
}

func TestProperty_ActiveQIsIsPrefix(t *testing.T) {
	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 200
	properties := gopter.NewProperties(parameters)

	properties.Property("custom QI count selects a prefix of the datafile QIs", prop.ForAll(
		func(idx, k int) bool {
			d := All()[idx]
			qis := d.QIs()
			if k > len(qis) {
				k = len(qis)
			}
			active := WithQICount(d, k).ActiveQIs()
			if len(active) != k {
				return false
			}
			for i := range active {
				if active[i] != qis[i] {
					return false
				}
			}
			return true
		},
		gen.IntRange(0, len(All())-1),
		gen.IntRange(1, 30),
	))

	properties.TestingRun(t)
}

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

const adultCSV = "age;education;sex\r\n39;Bachelors;Male\r\n50;Bachelors;Female\r\n39;HS-grad;Male\r\n"

func TestLoadTable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "adult.csv"), append(append([]byte{}, bom...), adultCSV...))

	table, err := LoadTable(dir, Adult)
	require.NoError(t, err)

	assert.Equal(t, []string{"age", "education", "sex"}, table.Header)
	assert.Len(t, table.Rows, 3)

	col, err := table.ColumnIndex("age")
	require.NoError(t, err)
	assert.Equal(t, []string{"39", "50"}, table.DistinctValues(col))
	assert.Equal(t, []string{"39", "50", "39"}, table.Column(col))

	_, err = table.ColumnIndex("salary-class")
	assert.True(t, bencherr.IsIO(err))
}

func TestDistinctValuesIsStable(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "adult.csv"), []byte(adultCSV))

	table, err := LoadTable(dir, Adult)
	require.NoError(t, err)

	assert.Equal(t, table.DistinctValues(1), table.DistinctValues(1))
}

func TestLoadTableCompressed(t *testing.T) {
	t.Run("zstd", func(t *testing.T) {
		dir := t.TempDir()
		enc, err := zstd.NewWriter(nil)
		require.NoError(t, err)
		writeFile(t, filepath.Join(dir, "fars.csv.zst"), enc.EncodeAll([]byte(adultCSV), nil))
		require.NoError(t, enc.Close())

		table, err := LoadTable(dir, Fars)
		require.NoError(t, err)
		assert.Len(t, table.Rows, 3)
	})

	t.Run("gzip", func(t *testing.T) {
		dir := t.TempDir()
		var buf bytes.Buffer
		gw := gzip.NewWriter(&buf)
		_, err := gw.Write([]byte(adultCSV))
		require.NoError(t, err)
		require.NoError(t, gw.Close())
		writeFile(t, filepath.Join(dir, "ihis.csv.gz"), buf.Bytes())

		table, err := LoadTable(dir, Ihis)
		require.NoError(t, err)
		assert.Equal(t, "Bachelors", table.Rows[1][1])
	})
}

func TestLoadTableMissing(t *testing.T) {
	_, err := LoadTable(t.TempDir(), Cup)
	assert.True(t, bencherr.IsIO(err))
	assert.Contains(t, err.Error(), "cup.csv")
}

func TestReadTableEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "atus.csv")
	writeFile(t, path, nil)

	_, err := ReadTable(path)
	assert.True(t, bencherr.IsIO(err))
}
