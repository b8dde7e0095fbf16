package report

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/riskbench/internal/dataset"
	"github.com/dbsmedya/riskbench/internal/experiment"
	"github.com/dbsmedya/riskbench/internal/recorder"
)

func TestPrinterPlain(t *testing.T) {
	var buf bytes.Buffer
	p := NewPrinter(&buf, false)

	p.Suite("Flash comparison")
	p.Run(experiment.Point{
		Criterion:   experiment.NewKAnonymity(5),
		Dataset:     dataset.NewConfig(dataset.Adult),
		Metric:      experiment.NewLoss(experiment.AggregateGeometricMean),
		Suppression: 0,
		Algorithm:   experiment.NewFlash(),
	})
	p.Suite("self comparison")
	p.Run(experiment.Point{
		Criterion:   experiment.NewUniqueness(0.01, "USA"),
		Dataset:     dataset.WithQICount(dataset.ACS13, 5),
		Metric:      experiment.NewAECS(),
		Suppression: 1,
		Algorithm:   experiment.NewHeurakles(experiment.DefaultSelfTimeLimit),
	})
	p.Done()

	want := strings.Join([]string{
		"Starting Flash comparison",
		"Benchmarking (Flash / (5)-Anonymity / Adult / - / Loss / 0.0)",
		"",
		"Starting self comparison",
		"Benchmarking (Heurakles / (0.01)-Uniqueness / ACS13 / 5 / AECS / 1.0)",
		"",
		"done.",
		"",
	}, "\n")
	assert.Equal(t, want, buf.String())
}

func sampleTable() *recorder.Table {
	return &recorder.Table{
		Header: []string{"Dataset", "Algorithm", "Execution time (mean)"},
		Rows: [][]string{
			{"Adult", "Flash", "110000000"},
			{"ACS13", "Heurakles", ""},
		},
	}
}

func TestSummaryAlignment(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Summary(&buf, sampleTable(), SummaryOptions{}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Len(t, lines, 4)

	assert.Equal(t, "Dataset  Algorithm  Execution time (mean)", lines[0])
	assert.Equal(t, "-------  ---------  ---------------------", lines[1])
	// numeric cells are right aligned
	assert.True(t, strings.HasSuffix(lines[2], " 110000000"), lines[2])
	assert.Equal(t, runewidth.StringWidth(lines[0]), runewidth.StringWidth(lines[2]))
	assert.Equal(t, "ACS13    Heurakles", lines[3])
}

func TestSummaryTruncatesWideCells(t *testing.T) {
	var buf bytes.Buffer
	tbl := &recorder.Table{
		Header: []string{"Criterium"},
		Rows:   [][]string{{"(0.01)-Uniqueness"}},
	}
	require.NoError(t, Summary(&buf, tbl, SummaryOptions{MaxWidth: 8}))

	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		assert.LessOrEqual(t, runewidth.StringWidth(line), 8, line)
	}
	assert.Contains(t, buf.String(), "…")
}

func TestSummaryShortRows(t *testing.T) {
	var buf bytes.Buffer
	tbl := &recorder.Table{
		Header: []string{"A", "B"},
		Rows:   [][]string{{"x"}},
	}
	require.NoError(t, Summary(&buf, tbl, SummaryOptions{}))
	assert.Contains(t, buf.String(), "x")
}
