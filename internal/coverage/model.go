// Package coverage normalizes heterogeneous code coverage reports into one
// canonical model. It detects the report format by structure, parses Cobertura
// XML, coverage.py JSON, Istanbul/NYC JSON, LCOV tracefiles, and Go cover
// profiles, and post-processes the result: path canonicalization, percentage
// recomputation, and merging of multi-module reports.
package coverage

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// Format identifies the source format of a coverage report. The set of
// formats is closed; parsing dispatches through one exhaustive switch.
type Format string

const (
	// FormatCobertura is Cobertura XML, also emitted by coverage.py,
	// gcovr, and the .NET coverlet toolchain.
	FormatCobertura Format = "cobertura"
	// FormatPytestJSON is the coverage.py JSON report (pytest-cov).
	FormatPytestJSON Format = "pytest_json"
	// FormatIstanbul is the Istanbul/NYC statement-map JSON report.
	FormatIstanbul Format = "istanbul"
	// FormatLCOV is the LCOV tracefile format. Support is best-effort:
	// DA and BRDA records are honored, everything else is ignored.
	FormatLCOV Format = "lcov"
	// FormatGoCover is the Go cover profile (coverage.out).
	FormatGoCover Format = "gocover"
)

// Formats returns all supported formats in a stable order.
func Formats() []Format {
	return []Format{FormatCobertura, FormatPytestJSON, FormatIstanbul, FormatLCOV, FormatGoCover}
}

// ParseFormatName converts a user-supplied format name to a Format.
// Matching is case-insensitive and tolerates the common aliases.
func ParseFormatName(name string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "cobertura", "xml":
		return FormatCobertura, nil
	case "pytest_json", "pytest-json", "pytest", "coveragepy", "coverage.py":
		return FormatPytestJSON, nil
	case "istanbul", "nyc":
		return FormatIstanbul, nil
	case "lcov":
		return FormatLCOV, nil
	case "gocover", "go", "coverprofile":
		return FormatGoCover, nil
	default:
		return "", fmt.Errorf("unknown coverage format %q (valid: cobertura, pytest_json, istanbul, lcov, gocover)", name)
	}
}

// LineSet is a set of 1-indexed line numbers. It serializes to a sorted
// JSON array so equal sets always produce identical bytes.
type LineSet map[int]bool

// NewLineSet builds a set from the given line numbers.
func NewLineSet(lines ...int) LineSet {
	s := make(LineSet, len(lines))
	for _, n := range lines {
		s[n] = true
	}
	return s
}

// Add inserts a line number into the set.
func (s LineSet) Add(n int) { s[n] = true }

// Remove deletes a line number from the set.
func (s LineSet) Remove(n int) { delete(s, n) }

// Has reports whether the set contains n.
func (s LineSet) Has(n int) bool { return s[n] }

// Len returns the number of lines in the set.
func (s LineSet) Len() int { return len(s) }

// Sorted returns the line numbers in ascending order.
func (s LineSet) Sorted() []int {
	lines := make([]int, 0, len(s))
	for n := range s {
		lines = append(lines, n)
	}
	sort.Ints(lines)
	return lines
}

// Clone returns an independent copy of the set.
func (s LineSet) Clone() LineSet {
	out := make(LineSet, len(s))
	for n := range s {
		out[n] = true
	}
	return out
}

// MarshalJSON encodes the set as a sorted array of line numbers.
func (s LineSet) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Sorted())
}

// UnmarshalJSON decodes a JSON array of line numbers into the set.
func (s *LineSet) UnmarshalJSON(data []byte) error {
	var lines []int
	if err := json.Unmarshal(data, &lines); err != nil {
		return err
	}
	*s = NewLineSet(lines...)
	return nil
}

// ConditionCoverage records how many branch outcomes on a line were
// exercised, e.g. taken=1 total=2 for "50% (1/2)".
type ConditionCoverage struct {
	Taken int `json:"taken"`
	Total int `json:"total"`
}

// Full reports whether every branch outcome was exercised.
func (c ConditionCoverage) Full() bool { return c.Taken >= c.Total }

// LineDetail holds per-line execution detail. It is always present for
// partial and branch lines; formats that report hit counts keep it for
// every line so reports can be merged by summing hits.
type LineDetail struct {
	Hits              int                `json:"hits"`
	IsBranch          bool               `json:"is_branch"`
	ConditionCoverage *ConditionCoverage `json:"condition_coverage,omitempty"`
}

// FileCoverage holds line coverage for a single source file. The three
// line sets are pairwise disjoint; their union need not cover every
// physical line because non-executable lines appear in none of them.
type FileCoverage struct {
	Path           string             `json:"path"`
	PercentCovered float64            `json:"percent_covered"`
	CoveredLines   LineSet            `json:"covered_lines"`
	MissingLines   LineSet            `json:"missing_lines"`
	PartialLines   LineSet            `json:"partial_lines"`
	LineDetails    map[int]LineDetail `json:"line_details,omitempty"`
}

// NewFileCoverage returns an empty FileCoverage for the given path.
func NewFileCoverage(path string) *FileCoverage {
	return &FileCoverage{
		Path:         path,
		CoveredLines: LineSet{},
		MissingLines: LineSet{},
		PartialLines: LineSet{},
		LineDetails:  map[int]LineDetail{},
	}
}

// Clone returns an independent deep copy.
func (fc *FileCoverage) Clone() *FileCoverage {
	out := &FileCoverage{
		Path:           fc.Path,
		PercentCovered: fc.PercentCovered,
		CoveredLines:   fc.CoveredLines.Clone(),
		MissingLines:   fc.MissingLines.Clone(),
		PartialLines:   fc.PartialLines.Clone(),
	}
	if fc.LineDetails != nil {
		out.LineDetails = make(map[int]LineDetail, len(fc.LineDetails))
		for n, d := range fc.LineDetails {
			if d.ConditionCoverage != nil {
				cc := *d.ConditionCoverage
				d.ConditionCoverage = &cc
			}
			out.LineDetails[n] = d
		}
	}
	return out
}

// recomputePercent recalculates PercentCovered from the line sets.
// Partial lines are excluded from the ratio on both sides.
func (fc *FileCoverage) recomputePercent() {
	fc.PercentCovered = percentCovered(fc.CoveredLines.Len(), fc.MissingLines.Len())
}

// foldLine records one observation of a line, summing hits with any
// previous observation of the same line and reclassifying it. Repeated
// observations happen for inner classes sharing a Cobertura filename and
// for repeated LCOV sections of one source file.
func (fc *FileCoverage) foldLine(number, hits int, isBranch bool, cond *ConditionCoverage, rawCond string) {
	if prev, ok := fc.LineDetails[number]; ok {
		hits += prev.Hits
		isBranch = isBranch || prev.IsBranch
		if cond == nil {
			cond = prev.ConditionCoverage
		}
		fc.CoveredLines.Remove(number)
		fc.MissingLines.Remove(number)
		fc.PartialLines.Remove(number)
	}
	fc.LineDetails[number] = LineDetail{Hits: hits, IsBranch: isBranch, ConditionCoverage: cond}
	switch {
	case hits == 0:
		fc.MissingLines.Add(number)
	case isBranch && partialCondition(cond, rawCond):
		fc.PartialLines.Add(number)
	default:
		fc.CoveredLines.Add(number)
	}
}

// percentCovered returns 100*covered/(covered+missing), or 100.0 when
// there are no executable lines.
func percentCovered(covered, missing int) float64 {
	total := covered + missing
	if total == 0 {
		return 100.0
	}
	return 100 * float64(covered) / float64(total)
}

// CoverageReport is the canonical model every parser produces. The
// overall figure is always recomputed from the per-file line sets; the
// self-reported summaries of the source formats are never trusted.
type CoverageReport struct {
	OverallCoverage float64                  `json:"overall_coverage"`
	SourceFormat    Format                   `json:"source_format"`
	Files           map[string]*FileCoverage `json:"files"`
	Metadata        map[string]string        `json:"metadata,omitempty"`
}

// NewCoverageReport returns an empty report for the given format.
func NewCoverageReport(format Format) *CoverageReport {
	return &CoverageReport{
		SourceFormat: format,
		Files:        map[string]*FileCoverage{},
		Metadata:     map[string]string{},
	}
}

// File returns the coverage entry for path, creating it when absent.
func (r *CoverageReport) File(path string) *FileCoverage {
	fc, ok := r.Files[path]
	if !ok {
		fc = NewFileCoverage(path)
		r.Files[path] = fc
	}
	return fc
}

// Clone returns an independent deep copy.
func (r *CoverageReport) Clone() *CoverageReport {
	out := &CoverageReport{
		OverallCoverage: r.OverallCoverage,
		SourceFormat:    r.SourceFormat,
		Files:           make(map[string]*FileCoverage, len(r.Files)),
	}
	for path, fc := range r.Files {
		out.Files[path] = fc.Clone()
	}
	if r.Metadata != nil {
		out.Metadata = make(map[string]string, len(r.Metadata))
		for k, v := range r.Metadata {
			out.Metadata[k] = v
		}
	}
	return out
}

// RecomputeTotals recalculates every per-file percentage and the overall
// figure. The overall figure is the line-weighted ratio across all files,
// 100.0 when no file has executable lines.
func (r *CoverageReport) RecomputeTotals() {
	var covered, total int
	for _, fc := range r.Files {
		fc.recomputePercent()
		covered += fc.CoveredLines.Len()
		total += fc.CoveredLines.Len() + fc.MissingLines.Len()
	}
	if total == 0 {
		r.OverallCoverage = 100.0
		return
	}
	r.OverallCoverage = 100 * float64(covered) / float64(total)
}

// Result pairs a parsed report with the record-level warnings collected
// while producing it. Warnings are accumulated, never fatal; a document
// too malformed to interpret fails with a ParseError instead.
type Result struct {
	Report *CoverageReport
	// SourceRoots are build-tool source directories recorded in the
	// report (Cobertura <source> elements). Normalize consumes them.
	SourceRoots []string
	Warnings    []Warning
}

// Clone returns an independent deep copy.
func (res *Result) Clone() *Result {
	out := &Result{Report: res.Report.Clone()}
	out.SourceRoots = append(out.SourceRoots, res.SourceRoots...)
	out.Warnings = append(out.Warnings, res.Warnings...)
	return out
}

// warnf appends a formatted record-level warning to the result.
func (res *Result) warnf(kind WarningKind, path string, line int, format string, args ...interface{}) {
	res.Warnings = append(res.Warnings, Warning{
		Kind:   kind,
		Path:   path,
		Line:   line,
		Detail: fmt.Sprintf(format, args...),
	})
}
