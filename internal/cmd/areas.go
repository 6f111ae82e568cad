package cmd

import (
	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/correlate"
	"github.com/covgap/covgap/internal/output"
	"github.com/covgap/covgap/internal/prioritize"
)

// areasCmd represents the areas command
var areasCmd = &cobra.Command{
	Use:   "areas [paths...]",
	Short: "Rank uncovered functions, methods, and classes",
	Long: `Attribute the report's uncovered lines to the code units containing
them and print the ranked list. No gates are evaluated.

Priority blends the uncovered share of the unit, its branch complexity,
and its size, so a large untested function with branching outranks a
short straight-line one. Ranking is deterministic: equal scores fall
back to missing-line count, then path, then start line.

With paths, only those files and directories are inspected. Without
paths, every file the report mentions that exists on disk is.

Examples:
  covgap areas                       # All gaps, highest priority first
  covgap areas --limit 10            # Top ten only
  covgap areas src/parser/           # Gaps in one subtree
  covgap areas -o yaml               # Full records for tooling`,
	RunE: runAreas,
}

var (
	areasCoverageFile string
	areasFormat       string
	areasLimit        int
)

func init() {
	rootCmd.AddCommand(areasCmd)

	areasCmd.Flags().StringVar(&areasCoverageFile, "coverage-file", "", "Path to the coverage report (default: discover)")
	areasCmd.Flags().StringVar(&areasFormat, "coverage-format", "", "Report format (default: sniff the content)")
	areasCmd.Flags().IntVar(&areasLimit, "limit", 0, "Show at most this many uncovered areas (0 = all)")
}

func runAreas(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root := projectRoot()

	res, det, err := resolveReport(cfg, root, areasCoverageFile, areasFormat)
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
	if areasLimit > 0 && len(ranked) > areasLimit {
		ranked = ranked[:areasLimit]
	}

	return render(cmd, output.NewAreaList(ranked))
}
