package recorder

import "math"

// Analyzer aggregates the samples of one measure inside one bucket.
type Analyzer interface {
	Name() string
	Add(v float64)
	Value() float64
}

// AnalyzerFactory creates a fresh analyzer for every bucket.
type AnalyzerFactory func() Analyzer

// BufferedArithmeticMean keeps the last n samples and reports their mean.
type BufferedArithmeticMean struct {
	size int
	buf  []float64
}

// NewBufferedArithmeticMean returns a factory of analyzers buffering n samples.
func NewBufferedArithmeticMean(n int) AnalyzerFactory {
	if n < 1 {
		n = 1
	}
	return func() Analyzer {
		return &BufferedArithmeticMean{size: n, buf: make([]float64, 0, n)}
	}
}

// Name implements Analyzer.
func (a *BufferedArithmeticMean) Name() string { return "mean" }

// Add implements Analyzer. The oldest sample is dropped once the buffer is full.
func (a *BufferedArithmeticMean) Add(v float64) {
	if len(a.buf) == a.size {
		copy(a.buf, a.buf[1:])
		a.buf = a.buf[:a.size-1]
	}
	a.buf = append(a.buf, v)
}

// Value returns the mean of the buffered samples, NaN when empty.
func (a *BufferedArithmeticMean) Value() float64 {
	if len(a.buf) == 0 {
		return math.NaN()
	}
	var sum float64
	for _, v := range a.buf {
		sum += v
	}
	return sum / float64(len(a.buf))
}

// Count returns the number of buffered samples.
func (a *BufferedArithmeticMean) Count() int {
	return len(a.buf)
}
