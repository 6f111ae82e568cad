// Package threshold compares coverage reports against configured gates.
// Evaluation is a pure comparison; callers decide what to do with a
// failed verdict.
package threshold

import "github.com/covgap/covgap/internal/coverage"

// Verdict is the outcome of a threshold evaluation. Delta is the change
// in overall coverage against the baseline, nil when no baseline was
// supplied.
type Verdict struct {
	MeetsThreshold bool     `json:"meets_threshold"`
	Delta          *float64 `json:"delta,omitempty"`
}

// Evaluate compares a report's overall coverage against the threshold
// and, when a baseline is given, computes the coverage delta. A nil
// report never meets the threshold.
func Evaluate(report *coverage.CoverageReport, threshold float64, baseline *coverage.CoverageReport) Verdict {
	var v Verdict
	if report == nil {
		return v
	}
	v.MeetsThreshold = report.OverallCoverage >= threshold
	if baseline != nil {
		d := report.OverallCoverage - baseline.OverallCoverage
		v.Delta = &d
	}
	return v
}

// MeetsIncrease reports whether the verdict satisfies a minimum coverage
// increase. A verdict without a delta passes; the gate applies only when
// a baseline produced one.
func MeetsIncrease(v Verdict, minIncrease float64) bool {
	if v.Delta == nil {
		return true
	}
	return *v.Delta >= minIncrease
}
