// Package lattice is a small full-domain generalization engine. It searches
// the lattice of per-attribute generalization levels either exhaustively
// (Flash) or best-first until a time limit expires (Heurakles).
package lattice

import (
	"container/heap"
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/dbsmedya/riskbench/internal/catalog"
	"github.com/dbsmedya/riskbench/internal/engine"
	"github.com/dbsmedya/riskbench/internal/experiment"
	"github.com/dbsmedya/riskbench/internal/hierarchy"
	"github.com/dbsmedya/riskbench/internal/progress"
)

// Name is the registry name of this engine.
const Name = "lattice"

// Register adds the engine to r.
func Register(r *engine.Registry) {
	r.Register(Name, func() engine.Anonymizer { return New() })
}

// Engine implements engine.Anonymizer.
type Engine struct {
	clock func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock sets the clock used for progress timestamps and the time limit.
func WithClock(c func() time.Time) Option {
	return func(e *Engine) { e.clock = c }
}

// New creates an Engine.
func New(opts ...Option) *Engine {
	e := &Engine{clock: time.Now}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Anonymize implements engine.Anonymizer.
func (e *Engine) Anonymize(ctx context.Context, ds *catalog.Dataset, cfg engine.Configuration, listener progress.Listener) (*engine.Result, error) {
	p, err := newProblem(ds, cfg)
	if err != nil {
		return nil, err
	}

	s := &search{problem: p, clock: e.clock, listener: listener}
	switch cfg.Algorithm.Kind {
	case experiment.Flash:
		err = s.exhaustive(ctx)
	case experiment.Heurakles:
		limit, bounded := cfg.TimeLimit()
		err = s.bestFirst(ctx, limit, bounded)
	default:
		err = fmt.Errorf("unsupported algorithm %s", cfg.Algorithm)
	}
	if err != nil {
		return nil, err
	}

	return &engine.Result{
		Output:  p.output(s.best),
		Lattice: p.lattice(),
		Optimum: s.best,
	}, nil
}

type problem struct {
	cfg     engine.Configuration
	heights []int
	// labels[q][row][level] is the generalized value of QI q in row.
	labels [][][]string
	rows   [][]string
	cols   []int
	nodes  map[string]*engine.Node
}

func newProblem(ds *catalog.Dataset, cfg engine.Configuration) (*problem, error) {
	p := &problem{
		cfg:   cfg,
		rows:  ds.Table.Rows,
		nodes: make(map[string]*engine.Node),
	}
	for _, qi := range ds.ActiveQIs {
		col, err := ds.Table.ColumnIndex(qi)
		if err != nil {
			return nil, err
		}
		h := ds.Hierarchy(qi)
		if h == nil {
			return nil, fmt.Errorf("no hierarchy for %s", qi)
		}
		labels, err := generalizeColumn(ds.Table.Rows, col, h)
		if err != nil {
			return nil, fmt.Errorf("attribute %s: %w", qi, err)
		}
		p.cols = append(p.cols, col)
		p.heights = append(p.heights, h.Height())
		p.labels = append(p.labels, labels)
	}
	return p, nil
}

func generalizeColumn(rows [][]string, col int, h *hierarchy.Hierarchy) ([][]string, error) {
	out := make([][]string, len(rows))
	cache := make(map[string][]string)
	for i, row := range rows {
		v := row[col]
		if levels, ok := cache[v]; ok {
			out[i] = levels
			continue
		}
		levels := make([]string, h.Levels())
		for l := range levels {
			g, err := h.Generalize(v, l)
			if err != nil {
				return nil, err
			}
			levels[l] = g
		}
		cache[v] = levels
		out[i] = levels
	}
	return out, nil
}

func vectorKey(t []int) string {
	var sb strings.Builder
	for i, l := range t {
		if i > 0 {
			sb.WriteByte(',')
		}
		fmt.Fprintf(&sb, "%d", l)
	}
	return sb.String()
}

// node returns the evaluated node for t, evaluating it on first use.
func (p *problem) node(t []int) *engine.Node {
	key := vectorKey(t)
	if n, ok := p.nodes[key]; ok {
		return n
	}
	n := &engine.Node{Transformation: append([]int(nil), t...)}
	p.evaluate(n)
	p.nodes[key] = n
	return n
}

type classes struct {
	keys    []string
	sizes   map[string]int
	outlier map[string]bool
}

func (p *problem) classify(t []int) classes {
	c := classes{
		keys:    make([]string, len(p.rows)),
		sizes:   make(map[string]int),
		outlier: make(map[string]bool),
	}
	var sb strings.Builder
	for i := range p.rows {
		sb.Reset()
		for q, level := range t {
			sb.WriteString(p.labels[q][i][level])
			sb.WriteByte(0x1f)
		}
		k := sb.String()
		c.keys[i] = k
		c.sizes[k]++
	}

	n := len(p.rows)
	for _, crit := range p.cfg.Criteria {
		switch crit.Kind {
		case experiment.KAnonymity:
			for k, size := range c.sizes {
				if size < crit.K {
					c.outlier[k] = true
				}
			}
		case experiment.PopulationUniqueness:
			uniques := 0
			for _, size := range c.sizes {
				if size == 1 {
					uniques++
				}
			}
			if n > 0 && float64(uniques)/float64(n) > crit.Threshold {
				for k, size := range c.sizes {
					if size == 1 {
						c.outlier[k] = true
					}
				}
			}
		}
	}
	return c
}

func (p *problem) evaluate(n *engine.Node) {
	n.Checked = true
	total := len(p.rows)
	if total == 0 {
		n.Anonymous = true
		return
	}

	c := p.classify(n.Transformation)
	suppressed := 0
	for k := range c.outlier {
		suppressed += c.sizes[k]
	}
	n.Anonymous = float64(suppressed) <= p.cfg.MaxOutliers*float64(total)
	n.InformationLoss = p.loss(n.Transformation, c, suppressed, total)
}

func (p *problem) loss(t []int, c classes, suppressed, total int) float64 {
	frac := float64(suppressed) / float64(total)

	if p.cfg.Metric.Kind == experiment.AECS {
		count := len(c.sizes) - len(c.outlier)
		if suppressed > 0 {
			count++
		}
		if count == 0 {
			return 0
		}
		return float64(total) / float64(count)
	}

	losses := make([]float64, len(t))
	for q, level := range t {
		var l float64
		if p.heights[q] > 0 {
			l = float64(level) / float64(p.heights[q])
		}
		losses[q] = l*(1-frac) + frac
	}
	return aggregate(p.cfg.Metric.Aggregate, losses)
}

func aggregate(f experiment.AggregateFunction, xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	switch f {
	case experiment.AggregateSum:
		var s float64
		for _, x := range xs {
			s += x
		}
		return s
	case experiment.AggregateMaximum:
		m := xs[0]
		for _, x := range xs[1:] {
			m = math.Max(m, x)
		}
		return m
	case experiment.AggregateArithmeticMean:
		var s float64
		for _, x := range xs {
			s += x
		}
		return s / float64(len(xs))
	default:
		var s float64
		for _, x := range xs {
			s += math.Log1p(x)
		}
		return math.Expm1(s / float64(len(xs)))
	}
}

// successors returns the vectors one level above t.
func (p *problem) successors(t []int) [][]int {
	var out [][]int
	for q := range t {
		if t[q] < p.heights[q] {
			next := append([]int(nil), t...)
			next[q]++
			out = append(out, next)
		}
	}
	return out
}

// lattice materialises every transformation, flagging those the search checked.
func (p *problem) lattice() engine.Lattice {
	maxLevel := 0
	for _, h := range p.heights {
		maxLevel += h
	}
	levels := make([][]*engine.Node, maxLevel+1)

	t := make([]int, len(p.heights))
	for {
		level := 0
		for _, l := range t {
			level += l
		}
		n, ok := p.nodes[vectorKey(t)]
		if !ok {
			n = &engine.Node{Transformation: append([]int(nil), t...)}
		}
		levels[level] = append(levels[level], n)

		q := 0
		for q < len(t) {
			t[q]++
			if t[q] <= p.heights[q] {
				break
			}
			t[q] = 0
			q++
		}
		if q == len(t) {
			break
		}
	}
	return engine.Lattice{Levels: levels}
}

func (p *problem) output(best *engine.Node) []engine.Row {
	if best == nil {
		return nil
	}
	c := p.classify(best.Transformation)
	out := make([]engine.Row, len(p.rows))
	for i, row := range p.rows {
		values := append([]string(nil), row...)
		outlier := c.outlier[c.keys[i]]
		for q, col := range p.cols {
			if outlier {
				values[col] = hierarchy.Suppressed
				continue
			}
			values[col] = p.labels[q][i][best.Transformation[q]]
		}
		out[i] = engine.Row{Values: values, Outlier: outlier}
	}
	return out
}

type search struct {
	*problem
	clock    func() time.Time
	listener progress.Listener
	best     *engine.Node
}

func (s *search) consider(n *engine.Node) {
	if !n.Anonymous {
		return
	}
	if s.best != nil && n.InformationLoss >= s.best.InformationLoss {
		return
	}
	s.best = n
	if s.listener != nil {
		s.listener.TransformationFound(s.clock(), n.InformationLoss)
	}
}

// exhaustive evaluates every node level by level.
func (s *search) exhaustive(ctx context.Context) error {
	for _, level := range s.lattice().Levels {
		for _, n := range level {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.consider(s.node(n.Transformation))
		}
	}
	return nil
}

// bestFirst expands the cheapest unexpanded node first. Anonymous nodes are
// not expanded since their successors only lose more information.
func (s *search) bestFirst(ctx context.Context, limit time.Duration, bounded bool) error {
	start := s.clock()
	expired := func() bool {
		return bounded && s.clock().Sub(start) >= limit
	}

	bottom := s.node(make([]int, len(s.heights)))
	queue := &nodeQueue{bottom}
	queued := map[string]bool{vectorKey(bottom.Transformation): true}

	for queue.Len() > 0 && !expired() {
		if err := ctx.Err(); err != nil {
			return err
		}
		n := heap.Pop(queue).(*engine.Node)
		s.consider(n)
		if n.Anonymous {
			continue
		}
		for _, t := range s.successors(n.Transformation) {
			key := vectorKey(t)
			if queued[key] {
				continue
			}
			queued[key] = true
			heap.Push(queue, s.node(t))
		}
	}
	return nil
}

type nodeQueue []*engine.Node

func (q nodeQueue) Len() int { return len(q) }

func (q nodeQueue) Less(i, j int) bool {
	return q[i].InformationLoss < q[j].InformationLoss
}

func (q nodeQueue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *nodeQueue) Push(x any) { *q = append(*q, x.(*engine.Node)) }

func (q *nodeQueue) Pop() any {
	old := *q
	n := old[len(old)-1]
	*q = old[:len(old)-1]
	return n
}
