package cmd

import (
	"github.com/spf13/cobra"
)

var flashCmd = &cobra.Command{
	Use:   "flash",
	Short: "Run only the Flash comparison",
	Long: `Flash runs Flash on every cell of the Flash comparison matrix, then
Heurakles bounded by the mean Flash execution time of the same cell.

When benchmark.heurakles_exhaustive is set, an unbounded Heurakles run is
recorded into its own result file as a reference.

Example:
  riskbench flash --config riskbench.yaml
  riskbench flash --mean-policy geometric`,
	Args: cobra.NoArgs,
	RunE: runFlash,
}

func init() {
	rootCmd.AddCommand(flashCmd)
}

func runFlash(cmd *cobra.Command, args []string) error {
	return runSweep(cmd, func(s *session) error {
		s.printer.Suite("Flash comparison")
		if _, err := s.runner.RunFlashComparison(s.ctx); err != nil {
			return err
		}
		s.printer.Done()
		return nil
	})
}
