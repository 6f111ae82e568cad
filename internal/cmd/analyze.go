package cmd

import (
	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/correlate"
	"github.com/covgap/covgap/internal/coverage"
	"github.com/covgap/covgap/internal/output"
	"github.com/covgap/covgap/internal/prioritize"
)

// analyzeCmd represents the analyze command
var analyzeCmd = &cobra.Command{
	Use:   "analyze [paths...]",
	Short: "Run the full coverage analysis pipeline",
	Long: `Discover the coverage report, normalize it, attribute uncovered lines
to functions, rank the gaps, and evaluate the coverage gates.

With paths, only those files and directories are correlated; typical
use is passing the files changed in a branch or pull request. Without
paths, every file the report mentions that exists on disk is analyzed.

The verdict compares overall coverage against the threshold and, when a
baseline exists, the coverage delta against the minimum increase. The
baseline comes from the store ('covgap baseline save') unless
--baseline pins an explicit percentage.

Exit code is 1 when a gate fails, 2 when no report is found.

Examples:
  covgap analyze                          # Whole report, default gates
  covgap analyze src/auth/ src/api.py     # Changed paths only
  covgap analyze --threshold 90 --limit 5 # Strict gate, top 5 gaps
  covgap analyze --coverage-file cov.xml  # Skip discovery
  covgap analyze --save-baseline          # Record this run for next time`,
	RunE: runAnalyze,
}

var (
	analyzeCoverageFile string
	analyzeFormat       string
	analyzeThreshold    float64
	analyzeMinIncrease  float64
	analyzeBaseline     float64
	analyzeLimit        int
	analyzeSave         bool
)

func init() {
	rootCmd.AddCommand(analyzeCmd)

	analyzeCmd.Flags().StringVar(&analyzeCoverageFile, "coverage-file", "", "Path to the coverage report (default: discover)")
	analyzeCmd.Flags().StringVar(&analyzeFormat, "coverage-format", "", "Report format (default: sniff the content)")
	analyzeCmd.Flags().Float64Var(&analyzeThreshold, "threshold", 80, "Minimum acceptable overall coverage percent")
	analyzeCmd.Flags().Float64Var(&analyzeMinIncrease, "min-increase", 5, "Required coverage gain over the baseline")
	analyzeCmd.Flags().Float64Var(&analyzeBaseline, "baseline", 0, "Compare against this percentage instead of the stored baseline")
	analyzeCmd.Flags().IntVar(&analyzeLimit, "limit", 0, "Show at most this many uncovered areas (0 = all)")
	analyzeCmd.Flags().BoolVar(&analyzeSave, "save-baseline", false, "Record this run as the new baseline")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root := projectRoot()

	res, det, err := resolveReport(cfg, root, analyzeCoverageFile, analyzeFormat)
	if err != nil {
		return err
	}
	reportDiagnostics(det, res)

	sources, err := collectSources(cfg, root, args, res.Report)
	if err != nil {
		return err
	}

	areas, err := correlate.Correlate(res.Report, sources)
	if err != nil {
		return err
	}
	ranked := prioritize.Prioritize(areas)
	if analyzeLimit > 0 && len(ranked) > analyzeLimit {
		ranked = ranked[:analyzeLimit]
	}

	thresholdVal := float64(cfg.CoverageThreshold)
	if cmd.Flags().Changed("threshold") {
		thresholdVal = analyzeThreshold
	}
	minIncrease := float64(cfg.MinCoverageIncrease)
	if cmd.Flags().Changed("min-increase") {
		minIncrease = analyzeMinIncrease
	}

	var baseline *coverage.CoverageReport
	if cmd.Flags().Changed("baseline") {
		baseline = &coverage.CoverageReport{OverallCoverage: analyzeBaseline}
	} else if baseline, err = loadBaseline(root); err != nil {
		return err
	}

	out := &output.AnalyzeOutput{
		Report:  output.NewReportSummary(res.Report),
		Areas:   ranked,
		Verdict: buildVerdict(res.Report, thresholdVal, minIncrease, baseline),
	}

	// Record the run only after it was compared against the previous
	// baseline.
	if analyzeSave {
		if err := saveBaseline(root, res.Report); err != nil {
			return err
		}
	}

	if err := render(cmd, out); err != nil {
		return err
	}
	if !out.Verdict.Passed {
		return errGateFailed
	}
	return nil
}
