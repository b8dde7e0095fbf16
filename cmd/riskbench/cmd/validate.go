package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/riskbench/internal/catalog"
	"github.com/dbsmedya/riskbench/internal/dataset"
	"github.com/dbsmedya/riskbench/internal/experiment"
	"github.com/dbsmedya/riskbench/internal/store"
)

var validateSkipData bool

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate configuration and benchmark inputs",
	Long: `Validate checks the configuration file and runs preflight checks
against the benchmark inputs so that a sweep does not fail halfway.

Checks performed:
  - Configuration syntax and required fields
  - Experiment matrix (criteria, metrics, datafiles, QI counts)
  - Engine registration
  - Data files and hierarchies of every dataset configuration
  - Results database connectivity, when enabled

Example:
  riskbench validate --config riskbench.yaml
  riskbench validate --skip-data`,
	Args: cobra.NoArgs,
	RunE: runValidate,
}

func init() {
	validateCmd.Flags().BoolVar(&validateSkipData, "skip-data", false,
		"Skip loading data files and hierarchies")

	rootCmd.AddCommand(validateCmd)
}

func runValidate(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	ctx := commandContext(cmd)

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "\n=== Configuration Validation ===\n")
	fmt.Fprintf(out, "Config file: %s\n", GetConfigFile())

	opts, err := runnerOptions(cfg)
	if err != nil {
		fmt.Fprintf(out, "❌ Experiment matrix: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "Cells: %s\n", opts.Matrix.Describe())
	fmt.Fprintf(out, "Repetitions: %d, mean policy: %s\n\n", opts.Repetitions, opts.Policy)

	if _, err := newEngine(cfg.Engine.Name); err != nil {
		fmt.Fprintf(out, "❌ Engine: %v\n", err)
		return err
	}
	fmt.Fprintf(out, "✅ Engine: %s\n", cfg.Engine.Name)

	hasErrors := false
	if !validateSkipData {
		cat := catalog.New(cfg.Paths.DataDir, cfg.Paths.HierarchyDir)
		for _, dc := range datasetConfigs(opts.Matrix.FlashComparison(), opts.Matrix.SelfComparison()) {
			if _, err := cat.Resolve(ctx, dc); err != nil {
				fmt.Fprintf(out, "❌ Dataset %s: %v\n", dc, err)
				hasErrors = true
				continue
			}
			fmt.Fprintf(out, "✅ Dataset %s\n", dc)
		}
	}

	if cfg.ResultsDB.Enabled {
		db, err := store.Open(ctx, &cfg.ResultsDB)
		if err != nil {
			fmt.Fprintf(out, "❌ Results database: %v\n", err)
			hasErrors = true
		} else {
			db.Close()
			fmt.Fprintf(out, "✅ Results database: %s\n", cfg.ResultsDB.Driver)
		}
	}

	if hasErrors {
		return fmt.Errorf("validation failed")
	}

	fmt.Fprintln(out, "\n=== Validation Complete ===")
	fmt.Fprintln(out, "✅ Configuration validated successfully")
	return nil
}

// datasetConfigs returns the distinct dataset configurations used by the
// given cell lists, in first-seen order.
func datasetConfigs(lists ...[]experiment.Cell) []dataset.Config {
	seen := make(map[string]bool)
	var out []dataset.Config
	for _, cells := range lists {
		for _, c := range cells {
			dc := c.Dataset
			if seen[dc.String()] {
				continue
			}
			seen[dc.String()] = true
			out = append(out, dc)
		}
	}
	return out
}
