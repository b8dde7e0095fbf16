package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/riskbench/internal/recorder"
	"github.com/dbsmedya/riskbench/internal/report"
)

var summaryMaxWidth int

var summaryCmd = &cobra.Command{
	Use:   "summary [result-file...]",
	Short: "Print result files as aligned tables",
	Long: `Summary reads result files written by a sweep and prints them as
aligned tables. Without arguments the configured Flash and self comparison
files are shown.

Example:
  riskbench summary
  riskbench summary resultFlashCompare.csv --max-width 24`,
	RunE: runSummary,
}

func init() {
	summaryCmd.Flags().IntVar(&summaryMaxWidth, "max-width", 32,
		"Truncate cells wider than this many columns (0 disables)")

	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, args []string) error {
	paths := args
	if len(paths) == 0 {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		paths = []string{cfg.FlashPath(), cfg.SelfPath()}
	}

	out := cmd.OutOrStdout()
	opts := report.SummaryOptions{MaxWidth: summaryMaxWidth, Colored: !noColor}
	for i, path := range paths {
		table, err := recorder.ReadTable(path)
		if err != nil {
			return err
		}
		if i > 0 {
			fmt.Fprintln(out)
		}
		fmt.Fprintf(out, "%s (%d rows)\n", path, len(table.Rows))
		if err := report.Summary(out, table, opts); err != nil {
			return err
		}
	}
	return nil
}
