package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags at build time)
var (
	Version = "0.0.1-dev"
	Commit  = "unknown"
)

// CLI flags that override config file values
var (
	cfgFile     string
	logLevel    string
	logFormat   string
	repetitions int
	meanPolicy  string
	engineName  string
	noColor     bool
)

var rootCmd = &cobra.Command{
	Use:   "riskbench",
	Short: "Flash vs. Heurakles anonymization benchmark",
	Long: `A benchmark harness that compares an exhaustive anonymization search
(Flash) against a time-bounded heuristic search (Heurakles).

Without a subcommand the full sweep runs: the Flash comparison followed by
the self comparison. Results are rewritten after every run.

Features:
  - Experiment matrix over criteria, datasets, metrics and suppression limits
  - Heurakles time budget propagated from the mean Flash execution time
  - Buffered-mean aggregation over repetitions
  - Optional results database, publishing and Prometheus textfile metrics

Example:
  riskbench
  riskbench --config riskbench.yaml --repetitions 5`,
	Version:       Version,
	SilenceErrors: true,
	SilenceUsage:  true,
	Args:          cobra.NoArgs,
	RunE:          runAll,
}

// Execute runs the root command. Errors are printed with their stack trace.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %+v\n", err)
		os.Exit(1)
	}
}

func init() {
	// Config file flag
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "riskbench.yaml",
		"Path to configuration file")

	// Logging overrides
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Override log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "",
		"Override log format (json, text)")

	// Sweep overrides
	rootCmd.PersistentFlags().IntVar(&repetitions, "repetitions", 0,
		"Override number of repetitions per experiment point")
	rootCmd.PersistentFlags().StringVar(&meanPolicy, "mean-policy", "",
		"Override budget mean policy (arithmetic, geometric)")
	rootCmd.PersistentFlags().StringVar(&engineName, "engine", "",
		"Override anonymization engine")

	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false,
		"Disable coloured console output")
}

// GetConfigFile returns the config file path
func GetConfigFile() string {
	return cfgFile
}

// CLIOverrides contains flag values that override config file settings
type CLIOverrides struct {
	LogLevel    string
	LogFormat   string
	Repetitions int
	MeanPolicy  string
	Engine      string
}

// GetCLIOverrides returns the CLI flag override values
func GetCLIOverrides() CLIOverrides {
	return CLIOverrides{
		LogLevel:    logLevel,
		LogFormat:   logFormat,
		Repetitions: repetitions,
		MeanPolicy:  meanPolicy,
		Engine:      engineName,
	}
}

func runAll(cmd *cobra.Command, args []string) error {
	return runSweep(cmd, func(s *session) error {
		results, err := s.runner.Run(s.ctx)
		if err != nil {
			return err
		}

		runs := 0
		files := []string{}
		for _, res := range results {
			runs += res.Runs
			files = append(files, res.Files...)
		}
		s.log.Infow("Sweep complete", "runs", runs, "files", files)
		return nil
	})
}
