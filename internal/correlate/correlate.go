// Package correlate locates function, method, and class boundaries in
// changed source files and attributes uncovered lines to them, turning a
// normalized coverage report into UncoveredArea records. The caller
// supplies source text; the package performs no I/O.
package correlate

import (
	"sort"
	"strings"

	"github.com/covgap/covgap/internal/coverage"
	"github.com/covgap/covgap/internal/lang"
)

// SourceFile is one changed file handed to the correlator.
type SourceFile struct {
	Path   string
	Source []byte
}

// Correlate maps the missing and partial lines of each source file onto
// the innermost code unit enclosing them. Units with no uncovered lines
// are excluded; lines outside any unit are dropped. Files in an
// unrecognized language are skipped. Output is ordered by file path,
// then start line.
func Correlate(report *coverage.CoverageReport, sources []SourceFile) ([]UncoveredArea, error) {
	if report == nil {
		return nil, nil
	}
	var areas []UncoveredArea
	for _, src := range sources {
		fc := matchFile(report, src.Path)
		if fc == nil {
			continue
		}
		language := lang.FromPath(src.Path)
		if language == "" {
			continue
		}
		fileAreas, err := correlateFile(src, fc, language)
		if err != nil {
			// an unparseable file yields no areas, not a failed run
			continue
		}
		areas = append(areas, fileAreas...)
	}
	sort.SliceStable(areas, func(i, j int) bool {
		if areas[i].FilePath != areas[j].FilePath {
			return areas[i].FilePath < areas[j].FilePath
		}
		if areas[i].LineStart != areas[j].LineStart {
			return areas[i].LineStart < areas[j].LineStart
		}
		return areas[i].LineEnd < areas[j].LineEnd
	})
	return areas, nil
}

// correlateFile extracts units from one file and attributes its missing
// and partial lines.
func correlateFile(src SourceFile, fc *coverage.FileCoverage, language lang.Language) ([]UncoveredArea, error) {
	p, err := lang.NewParser(language)
	if err != nil {
		return nil, err
	}
	defer p.Close()

	res, err := p.Parse(src.Source)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	units := extractUnits(res)
	if len(units) == 0 {
		return nil, nil
	}

	missingByUnit := attribute(units, fc.MissingLines)
	partialByUnit := attribute(units, fc.PartialLines)

	var areas []UncoveredArea
	for i, u := range units {
		missing := missingByUnit[i]
		partial := partialByUnit[i]
		if len(missing) == 0 && len(partial) == 0 {
			continue
		}
		if missing == nil {
			missing = []int{}
		}
		areas = append(areas, UncoveredArea{
			FilePath:     src.Path,
			FunctionName: u.name,
			FunctionType: u.kind,
			LineStart:    u.startLine,
			LineEnd:      u.endLine,
			Signature:    u.signature,
			Docstring:    u.docstring,
			Complexity:   complexityFor(len(partial), u.startLine, u.endLine),
			MissingLines: missing,
		})
	}
	return areas, nil
}

// attribute assigns each line to the innermost unit that encloses it.
// Lines arrive sorted, so per-unit slices come out ascending.
func attribute(units []unit, lines coverage.LineSet) map[int][]int {
	byUnit := make(map[int][]int)
	for _, line := range lines.Sorted() {
		best := -1
		for i := range units {
			if line < units[i].startLine || line > units[i].endLine {
				continue
			}
			if best == -1 || units[i].depth > units[best].depth {
				best = i
			}
		}
		if best >= 0 {
			byUnit[best] = append(byUnit[best], line)
		}
	}
	return byUnit
}

// matchFile finds the report entry for a source path. Exact match first;
// otherwise the report key and the source path may disagree on a layout
// prefix the normalizer could not strip (Cobertura package-relative
// filenames, monorepo subdirectories), so fall back to matching one as a
// path suffix of the other. The longest, lexicographically smallest key
// wins so the choice is deterministic.
func matchFile(report *coverage.CoverageReport, path string) *coverage.FileCoverage {
	if fc, ok := report.Files[path]; ok {
		return fc
	}
	var best *coverage.FileCoverage
	bestKey := ""
	for key, fc := range report.Files {
		if !pathSuffixMatch(key, path) {
			continue
		}
		if best == nil || len(key) > len(bestKey) || (len(key) == len(bestKey) && key < bestKey) {
			best, bestKey = fc, key
		}
	}
	return best
}

// pathSuffixMatch reports whether one path is a whole-segment suffix of
// the other.
func pathSuffixMatch(a, b string) bool {
	if a == b {
		return true
	}
	return strings.HasSuffix(a, "/"+b) || strings.HasSuffix(b, "/"+a)
}
