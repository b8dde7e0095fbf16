// Package report renders benchmark progress on the console and result files
// as aligned tables.
package report

import (
	"fmt"
	"io"
	"sync"

	"github.com/gookit/color"

	"github.com/dbsmedya/riskbench/internal/experiment"
)

var (
	suiteStyle = color.Style{color.FgGreen, color.OpBold}
	runStyle   = color.Style{color.FgCyan}
	doneStyle  = color.Style{color.FgGreen}
)

// Printer writes the progress lines of a sweep.
type Printer struct {
	mu      sync.Mutex
	w       io.Writer
	colored bool
	suites  int
}

// NewPrinter creates a Printer. When colored is false the output is plain text.
func NewPrinter(w io.Writer, colored bool) *Printer {
	return &Printer{w: w, colored: colored}
}

func (p *Printer) paint(s color.Style, text string) string {
	if !p.colored {
		return text
	}
	return s.Sprint(text)
}

// Suite announces a suite, e.g. "Starting Flash comparison". Every suite after
// the first is separated by a blank line.
func (p *Printer) Suite(title string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.suites > 0 {
		fmt.Fprintln(p.w)
	}
	p.suites++
	fmt.Fprintln(p.w, p.paint(suiteStyle, "Starting "+title))
}

// Run announces a benchmark run before it starts.
func (p *Printer) Run(pt experiment.Point) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintf(p.w, "%s (%s)\n", p.paint(runStyle, "Benchmarking"), pt.String())
}

// Done prints the end-of-sweep marker.
func (p *Printer) Done() {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprintln(p.w)
	fmt.Fprintln(p.w, p.paint(doneStyle, "done."))
}
