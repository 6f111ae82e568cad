package coverage

import (
	"encoding/json"
	"strings"
)

// Istanbul/NYC coverage-final.json layout. The document is a map from file
// path to per-file coverage; entries are decoded individually so one
// malformed entry skips that file only.
type istanbulFile struct {
	Path         string                    `json:"path"`
	StatementMap map[string]istanbulRange  `json:"statementMap"`
	S            map[string]int            `json:"s"`
	BranchMap    map[string]istanbulBranch `json:"branchMap"`
	B            map[string][]int          `json:"b"`
}

type istanbulRange struct {
	Start istanbulPos `json:"start"`
	End   istanbulPos `json:"end"`
}

type istanbulPos struct {
	Line   int `json:"line"`
	Column int `json:"column"`
}

type istanbulBranch struct {
	Line int            `json:"line"`
	Loc  *istanbulRange `json:"loc"`
	Type string         `json:"type"`
}

// parseIstanbul parses an Istanbul/NYC JSON report. Coverage is statement
// based, so a line is only covered when every statement starting on it was
// executed: all counts nonzero is covered, all zero is missing, a mix is
// partial. One physical line frequently carries several statements and
// each one votes.
func parseIstanbul(data []byte) (*Result, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, parseErrorf(FormatIstanbul, err, "malformed JSON document")
	}

	res := &Result{Report: NewCoverageReport(FormatIstanbul)}
	for key, raw := range doc {
		var entry istanbulFile
		if err := json.Unmarshal(raw, &entry); err != nil {
			res.warnf(WarnParse, key, 0, "skipping malformed file entry: %v", err)
			continue
		}
		if len(entry.StatementMap) == 0 && len(entry.S) == 0 {
			res.warnf(WarnParse, key, 0, "skipping entry without a statement map")
			continue
		}

		path := strings.TrimSpace(entry.Path)
		if path == "" {
			path = key
		}
		addIstanbulFile(res.Report.File(path), entry)
	}

	if len(res.Report.Files) == 0 && len(res.Warnings) == 0 {
		return nil, parseErrorf(FormatIstanbul, nil, "no file entries with statement maps")
	}

	res.Report.RecomputeTotals()
	return res, nil
}

// addIstanbulFile folds one file entry into fc.
func addIstanbulFile(fc *FileCoverage, entry istanbulFile) {
	// Collect every statement count per starting line. Statement IDs
	// missing from the counts map count as never executed.
	counts := map[int][]int{}
	for id, stmt := range entry.StatementMap {
		line := stmt.Start.Line
		if line <= 0 {
			continue
		}
		counts[line] = append(counts[line], entry.S[id])
	}

	for line, stmtCounts := range counts {
		executed, zero := 0, 0
		maxHits := 0
		for _, c := range stmtCounts {
			if c > 0 {
				executed++
				if c > maxHits {
					maxHits = c
				}
			} else {
				zero++
			}
		}
		switch {
		case zero == 0:
			fc.CoveredLines.Add(line)
		case executed == 0:
			fc.MissingLines.Add(line)
		default:
			fc.PartialLines.Add(line)
		}
		fc.LineDetails[line] = LineDetail{Hits: maxHits}
	}

	// Branch maps refine branch lines with condition coverage. An
	// outcome is taken when its count is nonzero; several branches on
	// the same line pool their outcomes.
	conds := map[int]*ConditionCoverage{}
	for id, br := range entry.BranchMap {
		line := br.Line
		if line <= 0 && br.Loc != nil {
			line = br.Loc.Start.Line
		}
		if line <= 0 {
			continue
		}
		outcomes := entry.B[id]
		if len(outcomes) == 0 {
			continue
		}
		cond := conds[line]
		if cond == nil {
			cond = &ConditionCoverage{}
			conds[line] = cond
		}
		for _, c := range outcomes {
			cond.Total++
			if c > 0 {
				cond.Taken++
			}
		}
	}
	for line, cond := range conds {
		detail := fc.LineDetails[line]
		detail.IsBranch = true
		detail.ConditionCoverage = cond
		fc.LineDetails[line] = detail
	}
}
