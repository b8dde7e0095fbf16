package cmd

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dbsmedya/riskbench/internal/catalog"
	"github.com/dbsmedya/riskbench/internal/config"
	"github.com/dbsmedya/riskbench/internal/engine"
	"github.com/dbsmedya/riskbench/internal/engine/lattice"
	"github.com/dbsmedya/riskbench/internal/lock"
	"github.com/dbsmedya/riskbench/internal/logger"
	"github.com/dbsmedya/riskbench/internal/metrics"
	"github.com/dbsmedya/riskbench/internal/publish"
	"github.com/dbsmedya/riskbench/internal/report"
	"github.com/dbsmedya/riskbench/internal/runner"
	"github.com/dbsmedya/riskbench/internal/store"
)

// session holds everything a benchmark command needs for one sweep.
type session struct {
	ctx     context.Context
	log     *logger.Logger
	printer *report.Printer
	runner  *runner.Runner
}

// commandContext returns the command's context, or Background when the
// command was not started through Execute.
func commandContext(cmd *cobra.Command) context.Context {
	if ctx := cmd.Context(); ctx != nil {
		return ctx
	}
	return context.Background()
}

// loadConfig reads the config file, applies CLI overrides and validates.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	explicit := false
	if f := cmd.Flag("config"); f != nil {
		explicit = f.Changed
	}

	cfg, err := config.LoadOrDefault(GetConfigFile(), explicit)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	overrides := GetCLIOverrides()
	cfg.ApplyOverrides(overrides.LogLevel, overrides.LogFormat,
		overrides.Repetitions, overrides.MeanPolicy, overrides.Engine)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// newEngine looks up the configured engine in the registry.
func newEngine(name string) (engine.Anonymizer, error) {
	reg := engine.NewRegistry()
	lattice.Register(reg)
	return reg.New(name)
}

// runnerOptions translates the config into sweep options.
func runnerOptions(cfg *config.Config) (runner.Options, error) {
	matrix, err := cfg.Matrix()
	if err != nil {
		return runner.Options{}, err
	}
	policy, err := cfg.Policy()
	if err != nil {
		return runner.Options{}, err
	}

	opts := runner.Options{
		Matrix:              matrix,
		Repetitions:         cfg.Benchmark.Repetitions,
		Policy:              policy,
		FlashPath:           cfg.FlashPath(),
		SelfPath:            cfg.SelfPath(),
		ExhaustivePath:      cfg.HeuraklesExhaustivePath(),
		HeuraklesExhaustive: cfg.Benchmark.HeuraklesExhaustive,
	}
	if cfg.Metrics.Enabled {
		opts.MetricsTextfile = cfg.Metrics.Textfile
	}
	return opts, nil
}

// runSweep builds a session and calls fn with it. When the results database
// is MySQL, fn runs under the sweep's advisory lock.
func runSweep(cmd *cobra.Command, fn func(s *session) error) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	log, err := logger.New(&cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Sync()

	sweepID := uuid.NewString()
	sweepLog := log.WithSweep(sweepID)

	ctx, stop := signalContext(commandContext(cmd), sweepLog)
	defer stop()

	opts, err := runnerOptions(cfg)
	if err != nil {
		return err
	}

	eng, err := newEngine(cfg.Engine.Name)
	if err != nil {
		return err
	}

	printer := report.NewPrinter(cmd.OutOrStdout(), !noColor)
	runnerOpts := []runner.Option{
		runner.WithLogger(log),
		runner.WithSweepID(sweepID),
		runner.WithPrinter(printer),
	}

	var db *sql.DB
	if cfg.ResultsDB.Enabled {
		db, err = store.Open(ctx, &cfg.ResultsDB)
		if err != nil {
			return err
		}
		defer db.Close()

		sink, err := store.NewSink(db, cfg.ResultsDB.Table, sweepID)
		if err != nil {
			return err
		}
		if err := sink.EnsureSchema(ctx); err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, runner.WithSink(sink))
	}

	if cfg.Publish.Enabled {
		pub, err := publish.FromConfig(ctx, cfg.Publish, sweepID)
		if err != nil {
			return err
		}
		runnerOpts = append(runnerOpts, runner.WithPublisher(pub))
	}

	if cfg.Metrics.Enabled {
		runnerOpts = append(runnerOpts, runner.WithMetrics(metrics.New()))
	}

	r, err := runner.New(opts, catalog.New(cfg.Paths.DataDir, cfg.Paths.HierarchyDir), eng, runnerOpts...)
	if err != nil {
		return err
	}

	s := &session{
		ctx:     ctx,
		log:     sweepLog,
		printer: printer,
		runner:  r,
	}

	sweepLog.Infow("Starting sweep",
		"engine", cfg.Engine.Name,
		"repetitions", cfg.Benchmark.Repetitions,
		"mean_policy", cfg.Benchmark.MeanPolicy,
		"cells", opts.Matrix.Describe(),
	)

	if db != nil && cfg.ResultsDB.Driver == store.DriverMySQL {
		sweepLock := lock.NewSweepLock(db, cfg.ResultsDB.Table)
		sweepLog.Debugw("Acquiring sweep lock", "lock", sweepLock.LockName())
		return sweepLock.WithLock(ctx, cfg.ResultsDB.LockTimeoutSeconds, func() error {
			return fn(s)
		})
	}
	return fn(s)
}
