package engine

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/catalog"
	"github.com/dbsmedya/riskbench/internal/dataset"
	"github.com/dbsmedya/riskbench/internal/experiment"
	"github.com/dbsmedya/riskbench/internal/progress"
)

type stubAnonymizer struct{}

func (stubAnonymizer) Anonymize(context.Context, *catalog.Dataset, Configuration, progress.Listener) (*Result, error) {
	return &Result{}, nil
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()
	r.Register("stub", func() Anonymizer { return stubAnonymizer{} })
	r.Register("another", func() Anonymizer { return stubAnonymizer{} })

	assert.Equal(t, []string{"another", "stub"}, r.Names())

	a, err := r.New("stub")
	require.NoError(t, err)
	assert.NotNil(t, a)

	_, err = r.New("arx")
	assert.True(t, bencherr.IsConfiguration(err))
}

func TestNewConfiguration(t *testing.T) {
	p := experiment.Point{
		Criterion:   experiment.NewKAnonymity(5),
		Dataset:     dataset.NewConfig(dataset.Adult),
		Metric:      experiment.NewAECS(),
		Suppression: 1,
		Algorithm:   experiment.NewHeurakles(110 * time.Millisecond),
	}

	cfg := NewConfiguration(p)
	assert.Equal(t, []experiment.Criterion{experiment.NewKAnonymity(5)}, cfg.Criteria)
	assert.Equal(t, 1.0, cfg.MaxOutliers)

	limit, ok := cfg.TimeLimit()
	assert.True(t, ok)
	assert.Equal(t, 110*time.Millisecond, limit)

	cfg.Algorithm = experiment.NewFlash()
	_, ok = cfg.TimeLimit()
	assert.False(t, ok)
}

func TestLatticeCounts(t *testing.T) {
	l := Lattice{Levels: [][]*Node{
		{{Checked: true}},
		{{Checked: false}, {Checked: true}},
	}}
	assert.Equal(t, 3, l.Size())
	assert.Equal(t, 2, l.Checked())
}
