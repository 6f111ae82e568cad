package coverage

import (
	"encoding/json"
)

// coverage.py JSON layout (pytest-cov --cov-report=json). File entries are
// decoded individually so one malformed entry skips that file only.
type coveragePyDoc struct {
	Meta   coveragePyMeta             `json:"meta"`
	Files  map[string]json.RawMessage `json:"files"`
	Totals json.RawMessage            `json:"totals"`
}

type coveragePyMeta struct {
	Version   string `json:"version"`
	Timestamp string `json:"timestamp"`
}

type coveragePyFile struct {
	ExecutedLines []int `json:"executed_lines"`
	MissingLines  []int `json:"missing_lines"`
	ExcludedLines []int `json:"excluded_lines"`
	Summary       struct {
		PercentCovered float64 `json:"percent_covered"`
	} `json:"summary"`
}

// parsePytestJSON parses a coverage.py JSON report. Covered lines are the
// executed lines minus the missing lines; when a line appears in both,
// missing wins. Percentages are recomputed, the summary block is ignored.
func parsePytestJSON(data []byte) (*Result, error) {
	var doc coveragePyDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, parseErrorf(FormatPytestJSON, err, "malformed JSON document")
	}
	if doc.Files == nil {
		return nil, parseErrorf(FormatPytestJSON, nil, "missing files section")
	}

	res := &Result{Report: NewCoverageReport(FormatPytestJSON)}
	if doc.Meta.Version != "" {
		res.Report.Metadata["version"] = doc.Meta.Version
	}
	if doc.Meta.Timestamp != "" {
		res.Report.Metadata["timestamp"] = doc.Meta.Timestamp
	}

	for path, raw := range doc.Files {
		var entry coveragePyFile
		if err := json.Unmarshal(raw, &entry); err != nil {
			res.warnf(WarnParse, path, 0, "skipping malformed file entry: %v", err)
			continue
		}
		fc := res.Report.File(path)
		for _, n := range entry.MissingLines {
			fc.MissingLines.Add(n)
		}
		for _, n := range entry.ExecutedLines {
			if !fc.MissingLines.Has(n) {
				fc.CoveredLines.Add(n)
			}
		}
	}

	res.Report.RecomputeTotals()
	return res, nil
}
