package hierarchy

import (
	"errors"
	"fmt"
	"io/fs"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/dbsmedya/riskbench/internal/bencherr"
)

// Kind is the declared type of a hierarchy template.
type Kind string

const (
	KindInterval Kind = "interval"
	KindOrder    Kind = "order"
)

// Suppressed is the label of the topmost level.
const Suppressed = "*"

// Interval is one base interval [Min, Max).
type Interval struct {
	Min   float64 `toml:"min"`
	Max   float64 `toml:"max"`
	Label string  `toml:"label"`
}

// Range bounds the domain. Values below Min or at/above Max are bottom/top coded.
type Range struct {
	Min float64 `toml:"min"`
	Max float64 `toml:"max"`
}

// Level merges Group consecutive intervals of the level below.
type Level struct {
	Group int `toml:"group"`
}

// IntervalSpec is a partially built interval-based hierarchy. It declares the
// interval shape; the concrete endpoints come from the data via Prepare.
type IntervalSpec struct {
	Kind      Kind       `toml:"kind"`
	Datatype  string     `toml:"datatype"`
	Range     Range      `toml:"range"`
	Intervals []Interval `toml:"intervals"`
	Repeat    bool       `toml:"repeat"`
	Levels    []Level    `toml:"levels"`
	Missing   []string   `toml:"missing"`

	prepared []string
	ready    bool
	path     string
}

// LoadIntervalSpec reads a TOML interval template (".ahs"). The declared kind
// must be interval-based.
func LoadIntervalSpec(path string) (*IntervalSpec, error) {
	spec := &IntervalSpec{path: path}
	if _, err := toml.DecodeFile(path, spec); err != nil {
		if isNotExist(err) {
			return nil, bencherr.IO("hierarchy.LoadIntervalSpec", path, err)
		}
		return nil, bencherr.Malformed("hierarchy.LoadIntervalSpec", path, "%v", err)
	}
	if spec.Kind != KindInterval {
		return nil, bencherr.Config("hierarchy.LoadIntervalSpec", string(spec.Kind),
			"inconsistent hierarchy types: expected %s, found %s", KindInterval, spec.Kind)
	}
	if err := spec.validate(); err != nil {
		return nil, bencherr.Malformed("hierarchy.LoadIntervalSpec", path, "%v", err)
	}
	return spec, nil
}

func (s *IntervalSpec) validate() error {
	if len(s.Intervals) == 0 {
		return fmt.Errorf("no intervals declared")
	}
	for i, iv := range s.Intervals {
		if iv.Max <= iv.Min {
			return fmt.Errorf("interval %d: max %v must exceed min %v", i, iv.Max, iv.Min)
		}
		if i > 0 && iv.Min != s.Intervals[i-1].Max {
			return fmt.Errorf("interval %d does not start where interval %d ends", i, i-1)
		}
	}
	if s.Range.Max <= s.Range.Min {
		return fmt.Errorf("range max %v must exceed min %v", s.Range.Max, s.Range.Min)
	}
	for i, l := range s.Levels {
		if l.Group < 1 {
			return fmt.Errorf("level %d: group must be positive", i)
		}
	}
	switch s.Datatype {
	case "", "integer", "decimal":
	default:
		return fmt.Errorf("unsupported datatype %q", s.Datatype)
	}
	if s.integer() {
		if !integral(s.Range.Min) || !integral(s.Range.Max) {
			return fmt.Errorf("integer range [%v, %v) has a fractional bound", s.Range.Min, s.Range.Max)
		}
		for i, iv := range s.Intervals {
			if !integral(iv.Min) || !integral(iv.Max) {
				return fmt.Errorf("interval %d: integer bounds [%v, %v) are fractional", i, iv.Min, iv.Max)
			}
		}
	}
	return nil
}

// integer reports whether values and bounds are integers. A template without
// a datatype is integer-valued.
func (s *IntervalSpec) integer() bool {
	return s.Datatype != "decimal"
}

func integral(v float64) bool {
	return v == math.Trunc(v)
}

// Prepare supplies the distinct values observed in the column. It replaces any
// previously prepared values.
func (s *IntervalSpec) Prepare(values []string) {
	s.prepared = append([]string(nil), values...)
	s.ready = true
}

// Build materialises the hierarchy for the prepared values. Rows are sorted by
// numeric value; missing markers follow in declaration order.
func (s *IntervalSpec) Build() (*Hierarchy, error) {
	if !s.ready {
		return nil, fmt.Errorf("interval hierarchy %s built before prepare", s.path)
	}

	missing := make(map[string]bool, len(s.Missing))
	for _, m := range s.Missing {
		missing[m] = true
	}

	type entry struct {
		raw string
		num float64
	}
	var numeric []entry
	var absent []string
	seen := make(map[string]bool, len(s.prepared))
	for _, v := range s.prepared {
		if seen[v] {
			continue
		}
		seen[v] = true
		if missing[v] {
			absent = append(absent, v)
			continue
		}
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return nil, fmt.Errorf("value %q is not numeric", v)
		}
		if s.integer() && !integral(n) {
			return nil, fmt.Errorf("value %q is not an integer", v)
		}
		numeric = append(numeric, entry{raw: v, num: n})
	}
	sort.SliceStable(numeric, func(i, j int) bool { return numeric[i].num < numeric[j].num })

	height := 2 + len(s.Levels)
	rows := make([][]string, 0, len(numeric)+len(absent))
	for _, e := range numeric {
		row := make([]string, height+1)
		row[0] = e.raw
		base, idx := s.locate(e.num)
		row[1] = base
		for l, level := range s.Levels {
			if idx < 0 {
				row[2+l] = base
				continue
			}
			idx = idx / level.Group
			row[2+l] = s.groupLabel(l, idx)
		}
		row[height] = Suppressed
		rows = append(rows, row)
	}
	for _, v := range absent {
		row := make([]string, height+1)
		row[0] = v
		for l := 1; l <= height; l++ {
			row[l] = Suppressed
		}
		rows = append(rows, row)
	}
	return New(rows)
}

// locate returns the label of the base interval containing v and its index in
// the (possibly repeated) interval sequence. Bottom/top coded values return -1.
func (s *IntervalSpec) locate(v float64) (string, int) {
	if v < s.Range.Min {
		return "<" + s.format(s.Range.Min), -1
	}
	if v >= s.Range.Max {
		return ">=" + s.format(s.Range.Max), -1
	}

	first := s.Intervals[0].Min
	last := s.Intervals[len(s.Intervals)-1].Max
	width := last - first
	if v < first {
		return "<" + s.format(first), -1
	}
	offset := 0
	if v >= last {
		if !s.Repeat {
			return ">=" + s.format(last), -1
		}
		offset = int(math.Floor((v - first) / width))
	}

	shift := float64(offset) * width
	for i, iv := range s.Intervals {
		lo, hi := iv.Min+shift, iv.Max+shift
		if v >= lo && v < hi {
			idx := offset*len(s.Intervals) + i
			if iv.Label != "" && offset == 0 {
				return iv.Label, idx
			}
			return s.bracket(lo, hi), idx
		}
	}
	return ">=" + s.format(last), -1
}

// groupLabel returns the label of group idx at the given merge level.
func (s *IntervalSpec) groupLabel(level, idx int) string {
	span := 1
	for l := 0; l <= level; l++ {
		span *= s.Levels[l].Group
	}
	lo := s.boundary(idx * span)
	hi := s.boundary((idx + 1) * span)
	return s.bracket(lo, hi)
}

// boundary returns the lower bound of the base interval at position n.
func (s *IntervalSpec) boundary(n int) float64 {
	k := len(s.Intervals)
	first := s.Intervals[0].Min
	width := s.Intervals[k-1].Max - first
	period := int(math.Floor(float64(n) / float64(k)))
	rem := n - period*k
	return s.Intervals[rem].Min + float64(period)*width
}

func (s *IntervalSpec) bracket(lo, hi float64) string {
	return "[" + s.format(lo) + ", " + s.format(hi) + "["
}

func (s *IntervalSpec) format(v float64) string {
	if s.integer() {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
