package cmd

import (
	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/output"
)

// reportCmd represents the report command
var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Print the normalized coverage report",
	Long: `Discover, parse, and normalize the coverage report, then print the
per-file summary. No correlation or gating happens; this is the raw
view of what the test run measured, with paths canonicalized and the
overall figure recomputed from line data.

Examples:
  covgap report                         # Discovered report as a table
  covgap report -o json                 # Machine-readable summary
  covgap report --coverage-file lcov.info --coverage-format lcov`,
	Args: cobra.NoArgs,
	RunE: runReport,
}

var (
	reportCoverageFile string
	reportFormat       string
)

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVar(&reportCoverageFile, "coverage-file", "", "Path to the coverage report (default: discover)")
	reportCmd.Flags().StringVar(&reportFormat, "coverage-format", "", "Report format (default: sniff the content)")
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root := projectRoot()

	res, det, err := resolveReport(cfg, root, reportCoverageFile, reportFormat)
	if err != nil {
		return err
	}
	reportDiagnostics(det, res)

	return render(cmd, output.NewReportSummary(res.Report))
}
