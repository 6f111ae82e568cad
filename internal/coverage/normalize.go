package coverage

import (
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// Normalize returns a copy of res with every file path rewritten to
// forward-slash form relative to repoRoot. Source-root prefixes recorded
// by the build tool (Cobertura <source> elements) are stripped, as are
// leading ./ and ../ segments. The source roots are consumed: they are
// recorded in the report metadata and cleared from the returned result,
// which makes Normalize idempotent. Two raw paths that collapse to the
// same canonical path are merged like two reports of the same file.
func Normalize(res *Result, repoRoot string) *Result {
	out := &Result{Report: NewCoverageReport(res.Report.SourceFormat)}
	out.Warnings = append(out.Warnings, res.Warnings...)
	for k, v := range res.Report.Metadata {
		out.Report.Metadata[k] = v
	}
	if len(res.SourceRoots) > 0 {
		out.Report.Metadata["source_roots"] = strings.Join(res.SourceRoots, ":")
	}

	for _, rawPath := range sortedFileKeys(res.Report.Files) {
		canonical := canonicalPath(rawPath, repoRoot, res.SourceRoots)
		if canonical == "" {
			out.warnf(WarnNormalize, rawPath, 0, "dropping entry with degenerate path")
			continue
		}
		entry := res.Report.Files[rawPath].Clone()
		entry.Path = canonical
		if existing, ok := out.Report.Files[canonical]; ok {
			out.Warnings = append(out.Warnings, mergeFileInto(existing, entry)...)
		} else {
			out.Report.Files[canonical] = entry
		}
	}

	out.Report.RecomputeTotals()
	return out
}

// Merge combines several results covering a multi-module build into one.
// File sets are unioned; entries for the same path are reconciled by
// summing hit-level detail. A contradiction that cannot be reconciled is
// surfaced as a warning and the later result wins, so the caller-supplied
// order is the deterministic tie-break. The merged report keeps the first
// result's source format.
func Merge(results []*Result) *Result {
	if len(results) == 0 {
		return &Result{Report: NewCoverageReport("")}
	}
	out := results[0].Clone()
	if out.Report.Metadata == nil {
		out.Report.Metadata = map[string]string{}
	}

	formats := map[Format]bool{out.Report.SourceFormat: true}
	for _, res := range results[1:] {
		formats[res.Report.SourceFormat] = true
		for k, v := range res.Report.Metadata {
			out.Report.Metadata[k] = v
		}
		for _, root := range res.SourceRoots {
			if !containsString(out.SourceRoots, root) {
				out.SourceRoots = append(out.SourceRoots, root)
			}
		}
		out.Warnings = append(out.Warnings, res.Warnings...)

		for _, p := range sortedFileKeys(res.Report.Files) {
			entry := res.Report.Files[p]
			if existing, ok := out.Report.Files[p]; ok {
				out.Warnings = append(out.Warnings, mergeFileInto(existing, entry)...)
			} else {
				out.Report.Files[p] = entry.Clone()
			}
		}
	}
	if len(formats) > 1 {
		names := make([]string, 0, len(formats))
		for f := range formats {
			names = append(names, string(f))
		}
		sort.Strings(names)
		out.Report.Metadata["merged_formats"] = strings.Join(names, ",")
	}

	out.Report.RecomputeTotals()
	return out
}

// canonicalPath rewrites one report path to forward-slash repo-relative
// form. Returns "" for paths that normalize to nothing. Backslashes are
// treated as separators no matter the host platform: Windows build agents
// write them into reports that are analyzed on Linux.
func canonicalPath(p, repoRoot string, sourceRoots []string) string {
	p = strings.TrimSpace(toSlash(p))
	if p == "" {
		return ""
	}
	p = stripDrivePrefix(p)
	for _, sr := range sourceRoots {
		sr = stripDrivePrefix(strings.TrimRight(strings.TrimSpace(toSlash(sr)), "/"))
		if sr == "" || sr == "." || sr == "/" {
			continue
		}
		if rest, ok := strings.CutPrefix(p, sr+"/"); ok {
			p = rest
			break
		}
	}
	if root := strings.TrimRight(toSlash(repoRoot), "/"); root != "" && root != "." {
		if rest, ok := strings.CutPrefix(p, root+"/"); ok {
			p = rest
		}
	}
	p = path.Clean(p)
	for {
		rest, ok := strings.CutPrefix(p, "../")
		if !ok {
			break
		}
		p = rest
	}
	p = strings.TrimPrefix(p, "/")
	if p == "" || p == "." || p == ".." {
		return ""
	}
	return p
}

// toSlash converts both native and Windows separators to forward slashes.
func toSlash(p string) string {
	return strings.ReplaceAll(filepath.ToSlash(p), `\`, "/")
}

// stripDrivePrefix removes a Windows drive letter such as "C:/".
func stripDrivePrefix(p string) string {
	if len(p) >= 2 && p[1] == ':' &&
		(('a' <= p[0] && p[0] <= 'z') || ('A' <= p[0] && p[0] <= 'Z')) {
		return strings.TrimPrefix(p[2:], "/")
	}
	return p
}

// lineState is the classification of one line within a file.
type lineState int

const (
	lineAbsent lineState = iota
	lineCovered
	lineMissing
	linePartial
)

func lineStateOf(fc *FileCoverage, n int) lineState {
	switch {
	case fc.CoveredLines.Has(n):
		return lineCovered
	case fc.MissingLines.Has(n):
		return lineMissing
	case fc.PartialLines.Has(n):
		return linePartial
	default:
		return lineAbsent
	}
}

func classifyDetail(d LineDetail) lineState {
	switch {
	case d.Hits == 0:
		return lineMissing
	case d.IsBranch && d.ConditionCoverage != nil && !d.ConditionCoverage.Full():
		return linePartial
	default:
		return lineCovered
	}
}

// mergeFileInto folds src into dst line by line and returns the conflict
// warnings. When both sides carry hit detail the hits are summed and the
// line reclassified; when neither side can arbitrate a contradiction, the
// src side (the later report) wins and a warning records the override.
func mergeFileInto(dst, src *FileCoverage) []Warning {
	var warnings []Warning

	lines := map[int]bool{}
	for _, set := range []LineSet{dst.CoveredLines, dst.MissingLines, dst.PartialLines, src.CoveredLines, src.MissingLines, src.PartialLines} {
		for n := range set {
			lines[n] = true
		}
	}
	for n := range dst.LineDetails {
		lines[n] = true
	}
	for n := range src.LineDetails {
		lines[n] = true
	}

	ordered := make([]int, 0, len(lines))
	for n := range lines {
		ordered = append(ordered, n)
	}
	sort.Ints(ordered)

	covered, missing, partial := LineSet{}, LineSet{}, LineSet{}
	details := map[int]LineDetail{}

	for _, n := range ordered {
		a := lineStateOf(dst, n)
		b := lineStateOf(src, n)
		da, hasDa := dst.LineDetails[n]
		db, hasDb := src.LineDetails[n]

		var detail LineDetail
		hasDetail := hasDa || hasDb
		switch {
		case hasDa && hasDb:
			detail = LineDetail{
				Hits:     da.Hits + db.Hits,
				IsBranch: da.IsBranch || db.IsBranch,
			}
			detail.ConditionCoverage = mergeConditions(da.ConditionCoverage, db.ConditionCoverage, dst.Path, n, &warnings)
		case hasDa:
			detail = da
			detail.ConditionCoverage = copyCondition(da.ConditionCoverage)
		case hasDb:
			detail = db
			detail.ConditionCoverage = copyCondition(db.ConditionCoverage)
		}

		var state lineState
		switch {
		case a == lineAbsent && b == lineAbsent:
			// Branch detail without a line record on either side.
			state = lineAbsent
		case hasDa && hasDb:
			state = classifyDetail(detail)
		case a == lineAbsent:
			state = b
		case b == lineAbsent:
			state = a
		case a == b:
			state = a
		default:
			warnings = append(warnings, Warning{
				Kind:   WarnNormalize,
				Path:   dst.Path,
				Line:   n,
				Detail: "contradictory coverage with no hit detail to reconcile; later report wins",
			})
			state = b
		}

		switch state {
		case lineCovered:
			covered.Add(n)
		case lineMissing:
			missing.Add(n)
		case linePartial:
			partial.Add(n)
		}
		if hasDetail {
			details[n] = detail
		}
	}

	dst.CoveredLines = covered
	dst.MissingLines = missing
	dst.PartialLines = partial
	dst.LineDetails = details
	dst.recomputePercent()
	return warnings
}

// mergeConditions combines two condition-coverage observations of the
// same line. Equal totals take the larger taken count; disagreeing totals
// cannot be reconciled, so the later observation wins with a warning.
func mergeConditions(a, b *ConditionCoverage, path string, line int, warnings *[]Warning) *ConditionCoverage {
	switch {
	case a == nil && b == nil:
		return nil
	case a == nil:
		return copyCondition(b)
	case b == nil:
		return copyCondition(a)
	}
	if a.Total == b.Total {
		taken := a.Taken
		if b.Taken > taken {
			taken = b.Taken
		}
		return &ConditionCoverage{Taken: taken, Total: a.Total}
	}
	*warnings = append(*warnings, Warning{
		Kind:   WarnNormalize,
		Path:   path,
		Line:   line,
		Detail: "branch outcome totals disagree; later report wins",
	})
	return copyCondition(b)
}

func copyCondition(c *ConditionCoverage) *ConditionCoverage {
	if c == nil {
		return nil
	}
	out := *c
	return &out
}

func sortedFileKeys(files map[string]*FileCoverage) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func containsString(list []string, s string) bool {
	for _, item := range list {
		if item == s {
			return true
		}
	}
	return false
}
