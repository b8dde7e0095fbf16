package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gookit/color"
	"github.com/mattn/go-runewidth"

	"github.com/dbsmedya/riskbench/internal/recorder"
)

const columnGap = "  "

// SummaryOptions controls table rendering.
type SummaryOptions struct {
	// MaxWidth truncates cells wider than this many columns. Zero disables it.
	MaxWidth int
	// Colored renders the header in bold.
	Colored bool
}

// Summary writes t as an aligned table. Numeric cells are right aligned.
func Summary(w io.Writer, t *recorder.Table, opts SummaryOptions) error {
	header := make([]string, len(t.Header))
	for i, h := range t.Header {
		header[i] = fit(h, opts.MaxWidth)
	}
	rows := make([][]string, len(t.Rows))
	for r, row := range t.Rows {
		rows[r] = make([]string, len(header))
		for c := range header {
			if c < len(row) {
				rows[r][c] = fit(row[c], opts.MaxWidth)
			}
		}
	}

	widths := make([]int, len(header))
	for c, h := range header {
		widths[c] = runewidth.StringWidth(h)
	}
	for _, row := range rows {
		for c, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[c] {
				widths[c] = n
			}
		}
	}

	cells := make([]string, len(header))
	for c, h := range header {
		cells[c] = runewidth.FillRight(h, widths[c])
	}
	line := strings.TrimRight(strings.Join(cells, columnGap), " ")
	if opts.Colored {
		line = color.OpBold.Sprint(line)
	}
	if _, err := fmt.Fprintln(w, line); err != nil {
		return err
	}

	for c := range header {
		cells[c] = strings.Repeat("-", widths[c])
	}
	if _, err := fmt.Fprintln(w, strings.Join(cells, columnGap)); err != nil {
		return err
	}

	for _, row := range rows {
		for c, cell := range row {
			if numeric(cell) {
				cells[c] = runewidth.FillLeft(cell, widths[c])
			} else {
				cells[c] = runewidth.FillRight(cell, widths[c])
			}
		}
		if _, err := fmt.Fprintln(w, strings.TrimRight(strings.Join(cells, columnGap), " ")); err != nil {
			return err
		}
	}
	return nil
}

func fit(s string, max int) string {
	if max <= 0 || runewidth.StringWidth(s) <= max {
		return s
	}
	return runewidth.Truncate(s, max, "…")
}

func numeric(s string) bool {
	if s == "" {
		return false
	}
	_, err := strconv.ParseFloat(s, 64)
	return err == nil
}
