package cmd

import (
	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/coverage"
	"github.com/covgap/covgap/internal/output"
	"github.com/covgap/covgap/internal/threshold"
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Gate on coverage threshold and baseline increase",
	Long: `Evaluate the coverage report against the configured gates and exit
accordingly. This is the command to wire into CI.

Two gates apply: overall coverage must meet the threshold, and when a
baseline is stored the coverage delta must meet the minimum increase.
A missing baseline disables the increase gate rather than failing it.

Exit codes:
  0 = both gates met
  1 = threshold or minimum-increase gate failed
  2 = no coverage report found
  3 = unreadable report or invalid configuration

Examples:
  covgap check                       # Gates from .covgap/config.yaml
  covgap check --threshold 85        # Override the threshold
  covgap check --baseline 72.5       # Compare against a pinned percentage
  covgap check -o json               # Verdict as JSON for tooling`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

var (
	checkCoverageFile string
	checkFormat       string
	checkThreshold    float64
	checkMinIncrease  float64
	checkBaseline     float64
)

func init() {
	rootCmd.AddCommand(checkCmd)

	checkCmd.Flags().StringVar(&checkCoverageFile, "coverage-file", "", "Path to the coverage report (default: discover)")
	checkCmd.Flags().StringVar(&checkFormat, "coverage-format", "", "Report format (default: sniff the content)")
	checkCmd.Flags().Float64Var(&checkThreshold, "threshold", 80, "Minimum acceptable overall coverage percent")
	checkCmd.Flags().Float64Var(&checkMinIncrease, "min-increase", 5, "Required coverage gain over the baseline")
	checkCmd.Flags().Float64Var(&checkBaseline, "baseline", 0, "Compare against this percentage instead of the stored baseline")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root := projectRoot()

	res, det, err := resolveReport(cfg, root, checkCoverageFile, checkFormat)
	if err != nil {
		return err
	}
	reportDiagnostics(det, res)

	thresholdVal := float64(cfg.CoverageThreshold)
	if cmd.Flags().Changed("threshold") {
		thresholdVal = checkThreshold
	}
	minIncrease := float64(cfg.MinCoverageIncrease)
	if cmd.Flags().Changed("min-increase") {
		minIncrease = checkMinIncrease
	}

	var baseline *coverage.CoverageReport
	if cmd.Flags().Changed("baseline") {
		baseline = &coverage.CoverageReport{OverallCoverage: checkBaseline}
	} else if baseline, err = loadBaseline(root); err != nil {
		return err
	}

	verdict := buildVerdict(res.Report, thresholdVal, minIncrease, baseline)
	if err := render(cmd, verdict); err != nil {
		return err
	}
	if !verdict.Passed {
		return errGateFailed
	}
	return nil
}

// buildVerdict evaluates both gates and fills the renderable verdict.
func buildVerdict(report *coverage.CoverageReport, thresholdVal, minIncrease float64, baseline *coverage.CoverageReport) *output.VerdictOutput {
	v := threshold.Evaluate(report, thresholdVal, baseline)
	meetsIncrease := threshold.MeetsIncrease(v, minIncrease)
	return &output.VerdictOutput{
		OverallCoverage: report.OverallCoverage,
		Threshold:       thresholdVal,
		MeetsThreshold:  v.MeetsThreshold,
		Delta:           v.Delta,
		MinIncrease:     minIncrease,
		MeetsIncrease:   meetsIncrease,
		Passed:          v.MeetsThreshold && meetsIncrease,
	}
}
