// Package runner drives the benchmark sweeps: it walks the experiment matrix,
// runs the engine for every point, records the measurements and keeps the
// result files, the results database and the published copies up to date.
package runner

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/dbsmedya/riskbench/internal/bencherr"
	"github.com/dbsmedya/riskbench/internal/budget"
	"github.com/dbsmedya/riskbench/internal/catalog"
	"github.com/dbsmedya/riskbench/internal/dataset"
	"github.com/dbsmedya/riskbench/internal/engine"
	"github.com/dbsmedya/riskbench/internal/experiment"
	"github.com/dbsmedya/riskbench/internal/logger"
	"github.com/dbsmedya/riskbench/internal/metrics"
	"github.com/dbsmedya/riskbench/internal/progress"
	"github.com/dbsmedya/riskbench/internal/recorder"
	"github.com/dbsmedya/riskbench/internal/report"
)

// Measure names as they appear in result file headers.
const (
	MeasureExecutionTime = "Execution time"
	MeasureDiscoveryTime = "Solution discovery time"
	MeasureLossMinimum   = "Information loss minimum"
)

// Suite names used in logs and metrics.
const (
	SuiteFlash = "flash"
	SuiteSelf  = "self"
)

// Clock returns the current time.
type Clock func() time.Time

// DatasetResolver loads a dataset configuration with its hierarchies.
type DatasetResolver interface {
	Resolve(ctx context.Context, cfg dataset.Config) (*catalog.Dataset, error)
}

// ResultSink receives a snapshot of a result file after every rewrite.
type ResultSink interface {
	Save(ctx context.Context, suite string, header []string, rows [][]string) error
}

// Publisher copies finished result files elsewhere.
type Publisher interface {
	Publish(ctx context.Context, paths ...string) error
}

// Options describes the sweep.
type Options struct {
	Matrix              experiment.Matrix
	Repetitions         int
	Policy              budget.Policy
	FlashPath           string
	SelfPath            string
	ExhaustivePath      string
	HeuraklesExhaustive bool
	MetricsTextfile     string
}

// SuiteResult summarises a finished suite.
type SuiteResult struct {
	Name        string
	Files       []string
	Runs        int
	StartedAt   time.Time
	CompletedAt time.Time
	Duration    time.Duration
}

// Runner executes the Flash and self comparisons. It is sequential: one
// engine call at a time.
type Runner struct {
	opts       Options
	datasets   DatasetResolver
	engine     engine.Anonymizer
	propagator *budget.Propagator

	clock     Clock
	logger    *logger.Logger
	printer   *report.Printer
	sink      ResultSink
	publisher Publisher
	metrics   *metrics.Recorder
	sweepID   string
}

// Option configures a Runner.
type Option func(*Runner)

// WithClock sets the clock used for timing runs.
func WithClock(c Clock) Option { return func(r *Runner) { r.clock = c } }

// WithLogger sets the structured logger.
func WithLogger(l *logger.Logger) Option { return func(r *Runner) { r.logger = l } }

// WithPrinter sets the progress printer.
func WithPrinter(p *report.Printer) Option { return func(r *Runner) { r.printer = p } }

// WithSink mirrors every result file rewrite into s.
func WithSink(s ResultSink) Option { return func(r *Runner) { r.sink = s } }

// WithPublisher publishes the result files after each suite.
func WithPublisher(p Publisher) Option { return func(r *Runner) { r.publisher = p } }

// WithMetrics records run metrics into m.
func WithMetrics(m *metrics.Recorder) Option { return func(r *Runner) { r.metrics = m } }

// WithSweepID tags logs with the sweep identifier.
func WithSweepID(id string) Option { return func(r *Runner) { r.sweepID = id } }

// New creates a Runner.
func New(opts Options, datasets DatasetResolver, eng engine.Anonymizer, options ...Option) (*Runner, error) {
	if datasets == nil {
		return nil, bencherr.Config("runner.New", "", "dataset resolver is nil")
	}
	if eng == nil {
		return nil, bencherr.Config("runner.New", "", "engine is nil")
	}
	if opts.Repetitions < 1 {
		return nil, bencherr.Config("runner.New", "", "repetitions must be at least 1, got %d", opts.Repetitions)
	}
	if _, err := budget.ParsePolicy(string(opts.Policy)); err != nil {
		return nil, err
	}
	if err := opts.Matrix.Validate(); err != nil {
		return nil, err
	}

	r := &Runner{
		opts:       opts,
		datasets:   datasets,
		engine:     eng,
		propagator: budget.New(opts.Policy),
		clock:      time.Now,
		logger:     logger.NewNop(),
		printer:    report.NewPrinter(io.Discard, false),
	}
	for _, o := range options {
		o(r)
	}
	if r.sweepID != "" {
		r.logger = r.logger.WithSweep(r.sweepID)
	}
	return r, nil
}

// Run performs the Flash comparison followed by the self comparison. Any
// error aborts the sweep.
func (r *Runner) Run(ctx context.Context) ([]*SuiteResult, error) {
	r.printer.Suite("Flash comparison")
	flash, err := r.RunFlashComparison(ctx)
	if err != nil {
		return nil, err
	}

	r.printer.Suite("self comparison")
	self, err := r.RunSelfComparison(ctx)
	if err != nil {
		return []*SuiteResult{flash}, err
	}

	r.printer.Done()
	return []*SuiteResult{flash, self}, nil
}

// suite is one result file being recorded.
type suite struct {
	*recorder.Benchmark
	exec      recorder.Measure
	discovery recorder.Measure
	loss      recorder.Measure
}

func (r *Runner) newSuite(path string) (*suite, error) {
	b := recorder.New(path, experiment.Variables, recorder.WithClock(recorder.Clock(r.clock)))
	s := &suite{
		Benchmark: b,
		exec:      b.AddMeasure(MeasureExecutionTime),
		discovery: b.AddMeasure(MeasureDiscoveryTime),
		loss:      b.AddMeasure(MeasureLossMinimum),
	}
	for _, m := range []recorder.Measure{s.exec, s.discovery, s.loss} {
		if err := b.AddAnalyzer(m, recorder.NewBufferedArithmeticMean(r.opts.Repetitions)); err != nil {
			return nil, err
		}
	}
	return s, nil
}

// RunFlashComparison runs Flash on every cell, then Heurakles bounded by the
// propagated Flash execution time and, if enabled, an unbounded Heurakles
// whose results go to their own file.
func (r *Runner) RunFlashComparison(ctx context.Context) (*SuiteResult, error) {
	log := r.logger.WithSuite(SuiteFlash)
	res := r.startSuite(SuiteFlash)

	flash, err := r.newSuite(r.opts.FlashPath)
	if err != nil {
		return nil, err
	}
	suites := []*suite{flash}
	var exhaustive *suite
	if r.opts.HeuraklesExhaustive {
		if exhaustive, err = r.newSuite(r.opts.ExhaustivePath); err != nil {
			return nil, err
		}
		suites = append(suites, exhaustive)
	}

	log.Infow("Starting Flash comparison",
		"cells", r.opts.Matrix.FlashCardinality(),
		"repetitions", r.opts.Repetitions,
		"mean_policy", r.opts.Policy,
		"exhaustive", r.opts.HeuraklesExhaustive,
	)

	err = func() error {
		for _, cell := range r.opts.Matrix.FlashComparison() {
			times, err := r.runAndRecord(ctx, SuiteFlash, flash, cell.Point(experiment.NewFlash()))
			if err != nil {
				return err
			}
			res.Runs += len(times)

			limit, err := r.propagator.Propagate(times)
			if err != nil {
				return err
			}
			limit = budget.Millis(limit)
			r.metrics.SetBudget(limit)
			mean, _ := flash.Last(flash.exec)
			log.Debugw("Propagated Flash execution time",
				"dataset", cell.Dataset.String(),
				"budget_ms", limit.Milliseconds(),
				"recorded_mean_ns", mean,
			)

			n, err := r.runAndRecord(ctx, SuiteFlash, flash, cell.Point(experiment.NewHeurakles(limit)))
			if err != nil {
				return err
			}
			res.Runs += len(n)

			if exhaustive != nil {
				n, err := r.runAndRecord(ctx, SuiteFlash, exhaustive, cell.Point(experiment.NewUnboundedHeurakles()))
				if err != nil {
					return err
				}
				res.Runs += len(n)
			}
		}
		return nil
	}()

	return r.finishSuite(ctx, log, res, suites, err)
}

// RunSelfComparison runs Heurakles with the self-comparison time limit on
// every cell.
func (r *Runner) RunSelfComparison(ctx context.Context) (*SuiteResult, error) {
	log := r.logger.WithSuite(SuiteSelf)
	res := r.startSuite(SuiteSelf)

	self, err := r.newSuite(r.opts.SelfPath)
	if err != nil {
		return nil, err
	}

	log.Infow("Starting self comparison",
		"cells", r.opts.Matrix.SelfCardinality(),
		"repetitions", r.opts.Repetitions,
		"time_limit", r.opts.Matrix.SelfTimeLimit,
	)

	err = func() error {
		algo := experiment.NewHeurakles(r.opts.Matrix.SelfTimeLimit)
		for _, cell := range r.opts.Matrix.SelfComparison() {
			times, err := r.runAndRecord(ctx, SuiteSelf, self, cell.Point(algo))
			if err != nil {
				return err
			}
			res.Runs += len(times)
		}
		return nil
	}()

	return r.finishSuite(ctx, log, res, []*suite{self}, err)
}

func (r *Runner) startSuite(name string) *SuiteResult {
	return &SuiteResult{Name: name, StartedAt: r.clock()}
}

// finishSuite closes the result files, writes metrics and publishes the
// files. The first error wins.
func (r *Runner) finishSuite(ctx context.Context, log *logger.Logger, res *SuiteResult, suites []*suite, err error) (*SuiteResult, error) {
	for _, s := range suites {
		if closeErr := s.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
		res.Files = append(res.Files, s.Path())
	}
	if r.opts.MetricsTextfile != "" {
		if mErr := r.metrics.WriteTextfile(r.opts.MetricsTextfile); mErr != nil && err == nil {
			err = mErr
		}
	}
	if err != nil {
		log.Errorw("Suite aborted", "runs", res.Runs, "error", err)
		return nil, err
	}

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, res.Files...); err != nil {
			return nil, err
		}
		log.Infow("Published result files", "files", res.Files)
	}

	res.CompletedAt = r.clock()
	res.Duration = res.CompletedAt.Sub(res.StartedAt)
	log.Infow("Suite completed", "runs", res.Runs, "duration", res.Duration)
	return res, nil
}

// runAndRecord runs p Repetitions times into s and rewrites the result file.
// It returns the measured execution times.
func (r *Runner) runAndRecord(ctx context.Context, suiteName string, s *suite, p experiment.Point) ([]time.Duration, error) {
	r.printer.Run(p)
	log := r.logger.WithSuite(suiteName).WithPoint(p)

	cfg := engine.NewConfiguration(p)
	if err := s.AddRun(p.Key()); err != nil {
		return nil, err
	}

	times := make([]time.Duration, 0, r.opts.Repetitions)
	for i := 0; i < r.opts.Repetitions; i++ {
		// Cancellation is honoured between runs only.
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		// The engine may modify its input, so every repetition gets a fresh copy.
		ds, err := r.datasets.Resolve(ctx, p.Dataset)
		if err != nil {
			return nil, err
		}

		trace := progress.NewTrace(r.clock())
		s.StartTimer(s.exec)
		_, runErr := r.engine.Anonymize(context.WithoutCancel(ctx), ds, cfg, trace)
		elapsed, err := s.StopTimer(s.exec)
		if runErr != nil {
			return nil, runErr
		}
		if err != nil {
			return nil, err
		}

		if err := s.AddValue(s.discovery, trace.DiscoveryMillis()); err != nil {
			return nil, err
		}
		if err := s.AddValue(s.loss, trace.BestLoss()); err != nil {
			return nil, err
		}

		times = append(times, elapsed)
		r.metrics.ObserveRun(suiteName, p.Algorithm.String(), elapsed)
		log.WithRepetition(i+1, r.opts.Repetitions).Debugw("Run finished",
			"elapsed", elapsed,
			"solution", trace.HasSolution(),
			"discovery_ms", trace.DiscoveryMillis(),
			"loss", trace.BestLoss(),
		)
	}

	if err := s.Flush(); err != nil {
		return nil, err
	}
	if r.sink != nil {
		res := s.Results()
		if err := r.sink.Save(ctx, filepath.Base(s.Path()), res.Header(), res.Rows()); err != nil {
			return nil, err
		}
	}
	return times, nil
}
