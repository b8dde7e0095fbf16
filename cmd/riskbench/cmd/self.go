package cmd

import (
	"github.com/spf13/cobra"
)

var selfCmd = &cobra.Command{
	Use:   "self",
	Short: "Run only the self comparison",
	Long: `Self runs Heurakles with a fixed time limit on ACS13 truncated to each
configured QI count.

Example:
  riskbench self --config riskbench.yaml
  riskbench self --repetitions 1`,
	Args: cobra.NoArgs,
	RunE: runSelf,
}

func init() {
	rootCmd.AddCommand(selfCmd)
}

func runSelf(cmd *cobra.Command, args []string) error {
	return runSweep(cmd, func(s *session) error {
		s.printer.Suite("self comparison")
		if _, err := s.runner.RunSelfComparison(s.ctx); err != nil {
			return err
		}
		s.printer.Done()
		return nil
	})
}
