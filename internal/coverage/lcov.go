package coverage

import (
	"bufio"
	"bytes"
	"strconv"
	"strings"
)

// lcovSection accumulates the records of one SF..end_of_record block.
type lcovSection struct {
	path  string
	hits  map[int]int
	conds map[int]*ConditionCoverage
}

// parseLCOV parses an LCOV tracefile. Support is best-effort by design:
// DA records decide covered and missing lines, BRDA records contribute
// condition coverage, and every other record type is ignored. A section
// missing its trailing end_of_record is still flushed at EOF.
func parseLCOV(data []byte) (*Result, error) {
	res := &Result{Report: NewCoverageReport(FormatLCOV)}

	var (
		sec      *lcovSection
		sections int
		records  int
	)
	flush := func() {
		if sec == nil {
			return
		}
		flushLCOVSection(res.Report, sec)
		sections++
		sec = nil
	}

	scanner := bufio.NewScanner(bytes.NewReader(data))
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "end_of_record" {
			flush()
			continue
		}

		directive, value, found := strings.Cut(line, ":")
		if !found {
			res.warnf(WarnParse, "", lineNo, "skipping unrecognized record %q", line)
			continue
		}

		switch directive {
		case "SF":
			flush()
			path := strings.TrimSpace(value)
			if path == "" {
				res.warnf(WarnParse, "", lineNo, "skipping section with empty source file path")
				continue
			}
			sec = &lcovSection{path: path, hits: map[int]int{}, conds: map[int]*ConditionCoverage{}}
		case "DA":
			if sec == nil {
				res.warnf(WarnParse, "", lineNo, "skipping DA record outside a source file section")
				continue
			}
			number, hits, ok := parseLCOVLineData(value)
			if !ok {
				res.warnf(WarnParse, sec.path, lineNo, "skipping malformed DA record %q", value)
				continue
			}
			sec.hits[number] += hits
			records++
		case "BRDA":
			if sec == nil {
				res.warnf(WarnParse, "", lineNo, "skipping BRDA record outside a source file section")
				continue
			}
			number, taken, ok := parseLCOVBranchData(value)
			if !ok {
				res.warnf(WarnParse, sec.path, lineNo, "skipping malformed BRDA record %q", value)
				continue
			}
			cond := sec.conds[number]
			if cond == nil {
				cond = &ConditionCoverage{}
				sec.conds[number] = cond
			}
			cond.Total++
			if taken > 0 {
				cond.Taken++
			}
			records++
		default:
			// TN, FN, FNDA, FNF, FNH, LF, LH, BRF, BRH and any
			// extension records carry nothing the model needs.
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, parseErrorf(FormatLCOV, err, "unreadable tracefile")
	}
	flush()

	if sections == 0 && records == 0 {
		return nil, parseErrorf(FormatLCOV, nil, "no tracefile records found")
	}

	res.Report.RecomputeTotals()
	return res, nil
}

// flushLCOVSection folds one section into the report. Lines that only
// appear in BRDA records keep their branch detail but stay out of the
// covered/missing/partial sets; DA records alone decide membership.
func flushLCOVSection(report *CoverageReport, sec *lcovSection) {
	fc := report.File(sec.path)
	for number, hits := range sec.hits {
		cond := sec.conds[number]
		fc.foldLine(number, hits, cond != nil, cond, "")
	}
	for number, cond := range sec.conds {
		if _, ok := sec.hits[number]; ok {
			continue
		}
		detail := fc.LineDetails[number]
		detail.IsBranch = true
		detail.ConditionCoverage = cond
		fc.LineDetails[number] = detail
	}
}

// parseLCOVLineData extracts line number and hit count from a DA value
// of the form "<line>,<hits>[,<checksum>]".
func parseLCOVLineData(value string) (number, hits int, ok bool) {
	parts := strings.Split(value, ",")
	if len(parts) < 2 {
		return 0, 0, false
	}
	number, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || number <= 0 {
		return 0, 0, false
	}
	hits, err = strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil || hits < 0 {
		return 0, 0, false
	}
	return number, hits, true
}

// parseLCOVBranchData extracts line number and taken count from a BRDA
// value of the form "<line>,<block>,<branch>,<taken>". A taken field of
// "-" means the branch condition was never evaluated.
func parseLCOVBranchData(value string) (number, taken int, ok bool) {
	parts := strings.Split(value, ",")
	if len(parts) != 4 {
		return 0, 0, false
	}
	number, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil || number <= 0 {
		return 0, 0, false
	}
	takenField := strings.TrimSpace(parts[3])
	if takenField == "-" {
		return number, 0, true
	}
	taken, err = strconv.Atoi(takenField)
	if err != nil || taken < 0 {
		return 0, 0, false
	}
	return number, taken, true
}
