package cmd

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/coverage"
	"github.com/covgap/covgap/internal/output"
	"github.com/covgap/covgap/internal/store"
)

var baselineCmd = &cobra.Command{
	Use:   "baseline",
	Short: "Manage stored coverage baselines",
	Long: `Commands for the baseline store at .covgap/baselines.db.

A baseline is a snapshot of a normalized coverage report. The newest
baseline feeds the minimum-increase gate of 'covgap analyze' and
'covgap check': a run must beat the stored figure by the configured
margin. Records accumulate per project; prune keeps the history short.`,
}

var baselineSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Record the current coverage report as the baseline",
	Long: `Parse the coverage report and store its normalized form as the newest
baseline for this project. Creates .covgap/ if needed.

Examples:
  covgap baseline save                        # Discovered report
  covgap baseline save --coverage-file c.xml  # Explicit report`,
	Args: cobra.NoArgs,
	RunE: runBaselineSave,
}

var baselineShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the newest stored baseline",
	Args:  cobra.NoArgs,
	RunE:  runBaselineShow,
}

var baselineListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored baselines, newest first",
	Args:  cobra.NoArgs,
	RunE:  runBaselineList,
}

var baselinePruneCmd = &cobra.Command{
	Use:   "prune",
	Short: "Delete old baselines, keeping the most recent",
	Args:  cobra.NoArgs,
	RunE:  runBaselinePrune,
}

var (
	baselineCoverageFile string
	baselineFormat       string
	baselineListLimit    int
	baselinePruneKeep    int
)

func init() {
	rootCmd.AddCommand(baselineCmd)
	baselineCmd.AddCommand(baselineSaveCmd)
	baselineCmd.AddCommand(baselineShowCmd)
	baselineCmd.AddCommand(baselineListCmd)
	baselineCmd.AddCommand(baselinePruneCmd)

	baselineSaveCmd.Flags().StringVar(&baselineCoverageFile, "coverage-file", "", "Path to the coverage report (default: discover)")
	baselineSaveCmd.Flags().StringVar(&baselineFormat, "coverage-format", "", "Report format (default: sniff the content)")
	baselineListCmd.Flags().IntVar(&baselineListLimit, "limit", 0, "Show at most this many records (0 = all)")
	baselinePruneCmd.Flags().IntVar(&baselinePruneKeep, "keep", 10, "Number of recent baselines to keep")
}

// BaselineOutput is the renderable shape of one stored baseline.
type BaselineOutput struct {
	ID           int64   `yaml:"id" json:"id"`
	Project      string  `yaml:"project" json:"project"`
	RecordedAt   string  `yaml:"recorded_at" json:"recorded_at"`
	Overall      float64 `yaml:"overall_coverage" json:"overall_coverage"`
	SourceFormat string  `yaml:"source_format" json:"source_format"`
	Files        int     `yaml:"files" json:"files"`
}

func baselineOutputFrom(rec *store.BaselineRecord) BaselineOutput {
	out := BaselineOutput{
		ID:           rec.ID,
		Project:      rec.Project,
		RecordedAt:   rec.RecordedAt.Format(time.RFC3339),
		Overall:      rec.Overall,
		SourceFormat: rec.SourceFormat,
	}
	if rec.Report != nil {
		out.Files = len(rec.Report.Files)
	}
	return out
}

// saveBaseline records a normalized report as the project's newest
// baseline, creating the store if needed.
func saveBaseline(root string, report *coverage.CoverageReport) error {
	db, err := openBaselineStore(true)
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Save(projectName(root), report)
}

func runBaselineSave(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	root := projectRoot()

	res, det, err := resolveReport(cfg, root, baselineCoverageFile, baselineFormat)
	if err != nil {
		return err
	}
	reportDiagnostics(det, res)

	if err := saveBaseline(root, res.Report); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Saved baseline for %s: %.1f%% (%s)\n",
		projectName(root), res.Report.OverallCoverage, res.Report.SourceFormat)
	return nil
}

func runBaselineShow(cmd *cobra.Command, args []string) error {
	db, err := openBaselineStore(false)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("no baseline store: run 'covgap baseline save' first")
	}
	defer db.Close()

	root := projectRoot()
	rec, err := db.Latest(projectName(root))
	if errors.Is(err, store.ErrNoBaseline) {
		return fmt.Errorf("no baseline recorded for %s: run 'covgap baseline save' first", projectName(root))
	}
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	info := baselineOutputFrom(rec)
	if format != output.FormatText {
		return render(cmd, info)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Project:       %s\n", info.Project)
	fmt.Fprintf(out, "Recorded:      %s\n", info.RecordedAt)
	fmt.Fprintf(out, "Coverage:      %.1f%%\n", info.Overall)
	fmt.Fprintf(out, "Source format: %s\n", info.SourceFormat)
	fmt.Fprintf(out, "Files:         %d\n", info.Files)
	return nil
}

func runBaselineList(cmd *cobra.Command, args []string) error {
	db, err := openBaselineStore(false)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("no baseline store: run 'covgap baseline save' first")
	}
	defer db.Close()

	root := projectRoot()
	records, err := db.History(projectName(root), baselineListLimit)
	if err != nil {
		return err
	}

	format, err := output.ParseFormat(outputFormat)
	if err != nil {
		return err
	}
	if format != output.FormatText {
		rows := make([]BaselineOutput, 0, len(records))
		for i := range records {
			rows = append(rows, baselineOutputFrom(&records[i]))
		}
		return render(cmd, rows)
	}

	out := cmd.OutOrStdout()
	if len(records) == 0 {
		fmt.Fprintf(out, "No baselines recorded for %s\n", projectName(root))
		return nil
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tRECORDED\tCOVER\tFORMAT")
	for i := range records {
		info := baselineOutputFrom(&records[i])
		fmt.Fprintf(w, "%d\t%s\t%.1f%%\t%s\n", info.ID, info.RecordedAt, info.Overall, info.SourceFormat)
	}
	w.Flush()
	fmt.Fprintf(out, "\n%d baselines\n", len(records))
	return nil
}

func runBaselinePrune(cmd *cobra.Command, args []string) error {
	db, err := openBaselineStore(false)
	if err != nil {
		return err
	}
	if db == nil {
		return fmt.Errorf("no baseline store: nothing to prune")
	}
	defer db.Close()

	root := projectRoot()
	pruned, err := db.Prune(projectName(root), baselinePruneKeep)
	if err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Pruned %d baselines (kept %d most recent)\n", pruned, baselinePruneKeep)
	return nil
}
