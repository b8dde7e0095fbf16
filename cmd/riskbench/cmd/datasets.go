package cmd

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dbsmedya/riskbench/internal/catalog"
	"github.com/dbsmedya/riskbench/internal/dataset"
	"github.com/dbsmedya/riskbench/internal/recorder"
	"github.com/dbsmedya/riskbench/internal/report"
)

var datasetsQIs string

var datasetsCmd = &cobra.Command{
	Use:   "datasets",
	Short: "List the benchmark datasets",
	Long: `Datasets lists every known datafile with its file stem, its number of
quasi-identifiers and the number of rows found under paths.data_dir.

With --qis the quasi-identifiers of one datafile are listed in order. For
ACS13 the hierarchy type and hierarchy file name of each attribute is shown.

Example:
  riskbench datasets
  riskbench datasets --qis ACS13`,
	Args: cobra.NoArgs,
	RunE: runDatasets,
}

func init() {
	datasetsCmd.Flags().StringVar(&datasetsQIs, "qis", "",
		"List the quasi-identifiers of one datafile")

	rootCmd.AddCommand(datasetsCmd)
}

func runDatasets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	var table *recorder.Table
	if datasetsQIs != "" {
		d, err := dataset.ParseDatafile(datasetsQIs)
		if err != nil {
			return err
		}
		table = qiTable(d)
	} else {
		table = datafileTable(cmd, catalog.New(cfg.Paths.DataDir, cfg.Paths.HierarchyDir))
	}

	return report.Summary(cmd.OutOrStdout(), table, report.SummaryOptions{Colored: !noColor})
}

func datafileTable(cmd *cobra.Command, c *catalog.Catalog) *recorder.Table {
	t := &recorder.Table{Header: []string{"Dataset", "Stem", "QIs", "Rows"}}
	for _, d := range dataset.All() {
		rows := "missing"
		if data, err := c.Table(commandContext(cmd), d); err == nil {
			rows = strconv.Itoa(len(data.Rows))
		}
		t.Rows = append(t.Rows, []string{d.String(), d.Stem(), strconv.Itoa(len(d.QIs())), rows})
	}
	return t
}

func qiTable(d dataset.Datafile) *recorder.Table {
	if d == dataset.ACS13 {
		t := &recorder.Table{Header: []string{"#", "QI", "Type", "Hierarchy"}}
		for i, qi := range dataset.SemanticQIs() {
			t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), qi.Name, qi.Type.String(), qi.FileBaseName()})
		}
		return t
	}

	t := &recorder.Table{Header: []string{"#", "QI"}}
	for i, qi := range d.QIs() {
		t.Rows = append(t.Rows, []string{strconv.Itoa(i + 1), qi})
	}
	return t
}
