package output

import (
	"sort"

	"github.com/covgap/covgap/internal/coverage"
	"github.com/covgap/covgap/internal/correlate"
)

// FileSummary is one per-file row of a report summary.
type FileSummary struct {
	Path           string  `json:"path" yaml:"path"`
	PercentCovered float64 `json:"percent_covered" yaml:"percent_covered"`
	Covered        int     `json:"covered" yaml:"covered"`
	Missing        int     `json:"missing" yaml:"missing"`
	Partial        int     `json:"partial" yaml:"partial"`
}

// ReportSummary is the renderable shape of a normalized report.
type ReportSummary struct {
	OverallCoverage float64       `json:"overall_coverage" yaml:"overall_coverage"`
	SourceFormat    string        `json:"source_format" yaml:"source_format"`
	Files           []FileSummary `json:"files" yaml:"files"`
}

// NewReportSummary flattens a normalized report into per-file rows
// sorted by path.
func NewReportSummary(report *coverage.CoverageReport) *ReportSummary {
	summary := &ReportSummary{}
	if report == nil {
		return summary
	}

	summary.OverallCoverage = report.OverallCoverage
	summary.SourceFormat = string(report.SourceFormat)
	for path, fc := range report.Files {
		summary.Files = append(summary.Files, FileSummary{
			Path:           path,
			PercentCovered: fc.PercentCovered,
			Covered:        fc.CoveredLines.Len(),
			Missing:        fc.MissingLines.Len(),
			Partial:        fc.PartialLines.Len(),
		})
	}
	sort.Slice(summary.Files, func(i, j int) bool {
		return summary.Files[i].Path < summary.Files[j].Path
	})
	return summary
}

// AreaList wraps ranked uncovered areas for rendering, highest priority
// first.
type AreaList struct {
	Count int                       `json:"count" yaml:"count"`
	Areas []correlate.UncoveredArea `json:"uncovered_areas" yaml:"uncovered_areas"`
}

// NewAreaList wraps an already-ranked area slice.
func NewAreaList(areas []correlate.UncoveredArea) *AreaList {
	return &AreaList{Count: len(areas), Areas: areas}
}

// VerdictOutput is the renderable shape of a threshold verdict.
// Passed folds the threshold and minimum-increase gates into the single
// answer the exit code is derived from.
type VerdictOutput struct {
	OverallCoverage float64  `json:"overall_coverage" yaml:"overall_coverage"`
	Threshold       float64  `json:"threshold" yaml:"threshold"`
	MeetsThreshold  bool     `json:"meets_threshold" yaml:"meets_threshold"`
	Delta           *float64 `json:"delta,omitempty" yaml:"delta,omitempty"`
	MinIncrease     float64  `json:"min_increase" yaml:"min_increase"`
	MeetsIncrease   bool     `json:"meets_increase" yaml:"meets_increase"`
	Passed          bool     `json:"passed" yaml:"passed"`
}

// AnalyzeOutput is the combined result of a full analysis run.
type AnalyzeOutput struct {
	Report  *ReportSummary            `json:"report" yaml:"report"`
	Areas   []correlate.UncoveredArea `json:"uncovered_areas" yaml:"uncovered_areas"`
	Verdict *VerdictOutput            `json:"verdict,omitempty" yaml:"verdict,omitempty"`
}

// FormatInfo describes one supported report format for covgap formats.
type FormatInfo struct {
	Name      string   `json:"name" yaml:"name"`
	Aliases   []string `json:"aliases,omitempty" yaml:"aliases,omitempty"`
	Probe     string   `json:"probe" yaml:"probe"`
	Locations []string `json:"conventional_locations,omitempty" yaml:"conventional_locations,omitempty"`
}
