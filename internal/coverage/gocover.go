package coverage

import (
	"bytes"

	"golang.org/x/tools/cover"
)

// parseGoCover parses a Go cover profile (go test -coverprofile). Profile
// blocks are projected onto lines: a line covered only by executed blocks
// is covered, only by unexecuted blocks is missing, and by both is
// partial. Blocks with no statements are skipped.
func parseGoCover(data []byte) (*Result, error) {
	profiles, err := cover.ParseProfilesFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, parseErrorf(FormatGoCover, err, "malformed cover profile")
	}
	if len(profiles) == 0 {
		return nil, parseErrorf(FormatGoCover, nil, "cover profile has no blocks")
	}

	res := &Result{Report: NewCoverageReport(FormatGoCover)}
	if profiles[0].Mode != "" {
		res.Report.Metadata["mode"] = profiles[0].Mode
	}

	for _, profile := range profiles {
		fc := res.Report.File(profile.FileName)

		// One line can belong to several blocks; collect every count
		// before classifying.
		executed := map[int]int{}
		unexecuted := map[int]bool{}
		for _, block := range profile.Blocks {
			if block.NumStmt == 0 {
				continue
			}
			for line := block.StartLine; line <= block.EndLine; line++ {
				if block.Count > 0 {
					if block.Count > executed[line] {
						executed[line] = block.Count
					}
				} else {
					unexecuted[line] = true
				}
			}
		}

		for line, hits := range executed {
			if unexecuted[line] {
				fc.PartialLines.Add(line)
			} else {
				fc.CoveredLines.Add(line)
			}
			fc.LineDetails[line] = LineDetail{Hits: hits}
		}
		for line := range unexecuted {
			if _, ok := executed[line]; ok {
				continue
			}
			fc.MissingLines.Add(line)
			fc.LineDetails[line] = LineDetail{Hits: 0}
		}
	}

	res.Report.RecomputeTotals()
	return res, nil
}
