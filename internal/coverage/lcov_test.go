package coverage

import (
	"errors"
	"testing"
)

const lcovFixture = `TN:
SF:src/main.c
FN:3,main
FNDA:1,main
FNF:1
FNH:1
DA:3,1
DA:4,1
DA:6,0
BRDA:4,0,0,1
BRDA:4,0,1,-
BRF:2
BRH:1
LF:3
LH:2
end_of_record
SF:src/util.c
DA:1,5
DA:2,0
`

func TestParseLCOV(t *testing.T) {
	res, err := parseLCOV([]byte(lcovFixture))
	if err != nil {
		t.Fatalf("parseLCOV failed: %v", err)
	}
	if len(res.Warnings) != 0 {
		t.Fatalf("expected no warnings, got %v", res.Warnings)
	}
	if len(res.Report.Files) != 2 {
		t.Fatalf("expected 2 files, got %d", len(res.Report.Files))
	}

	main := res.Report.Files["src/main.c"]
	if main == nil {
		t.Fatal("expected entry for src/main.c")
	}
	assertLines(t, "covered", main.CoveredLines, []int{3})
	assertLines(t, "missing", main.MissingLines, []int{6})
	assertLines(t, "partial", main.PartialLines, []int{4})

	// The LH/LF summary records claim 2 of 3; the recomputed figure is 1
	// covered of 2 countable lines, the partial line excluded.
	if main.PercentCovered != 50.0 {
		t.Errorf("expected percent recomputed to 50.0, got %.2f", main.PercentCovered)
	}

	detail := main.LineDetails[4]
	if !detail.IsBranch {
		t.Error("line 4 should be a branch line")
	}
	if detail.ConditionCoverage == nil || detail.ConditionCoverage.Taken != 1 || detail.ConditionCoverage.Total != 2 {
		t.Errorf("expected condition coverage 1/2 on line 4, got %+v", detail.ConditionCoverage)
	}

	// The final section has no end_of_record and still flushes at EOF.
	util := res.Report.Files["src/util.c"]
	if util == nil {
		t.Fatal("expected entry for src/util.c")
	}
	assertLines(t, "covered", util.CoveredLines, []int{1})
	assertLines(t, "missing", util.MissingLines, []int{2})
	if got := util.LineDetails[1].Hits; got != 5 {
		t.Errorf("expected 5 hits on line 1, got %d", got)
	}

	if got := res.Report.OverallCoverage; got != 50.0 {
		t.Errorf("expected overall 50.0 across both files, got %.2f", got)
	}
}

func TestParseLCOVLineDataOnly(t *testing.T) {
	// A tracefile with only DA records carries no branch information at
	// all; every condition-coverage field stays unset.
	doc := `SF:lib/a.rb
DA:1,1
DA:2,0
DA:3,4
end_of_record
`
	res, err := parseLCOV([]byte(doc))
	if err != nil {
		t.Fatalf("parseLCOV failed: %v", err)
	}
	fc := res.Report.Files["lib/a.rb"]
	if fc == nil {
		t.Fatal("expected entry for lib/a.rb")
	}
	if fc.PartialLines.Len() != 0 {
		t.Errorf("expected no partial lines, got %v", fc.PartialLines.Sorted())
	}
	for n, detail := range fc.LineDetails {
		if detail.ConditionCoverage != nil {
			t.Errorf("line %d: expected no condition coverage, got %+v", n, detail.ConditionCoverage)
		}
		if detail.IsBranch {
			t.Errorf("line %d: expected no branch flag", n)
		}
	}
}

func TestParseLCOVRepeatedLineRecords(t *testing.T) {
	// Hit counts for a repeated line sum, as when a template is
	// instantiated twice in one section.
	doc := `SF:a.cpp
DA:10,2
DA:10,3
end_of_record
`
	res, err := parseLCOV([]byte(doc))
	if err != nil {
		t.Fatalf("parseLCOV failed: %v", err)
	}
	if got := res.Report.Files["a.cpp"].LineDetails[10].Hits; got != 5 {
		t.Errorf("expected summed hits 5, got %d", got)
	}
}

func TestParseLCOVRepeatedSections(t *testing.T) {
	// The same source file can open several sections (one per test
	// binary); they fold into one entry.
	doc := `SF:a.c
DA:1,1
DA:2,0
end_of_record
SF:a.c
DA:2,3
end_of_record
`
	res, err := parseLCOV([]byte(doc))
	if err != nil {
		t.Fatalf("parseLCOV failed: %v", err)
	}
	if len(res.Report.Files) != 1 {
		t.Fatalf("expected 1 file, got %d", len(res.Report.Files))
	}
	fc := res.Report.Files["a.c"]
	assertLines(t, "covered", fc.CoveredLines, []int{1, 2})
	if fc.MissingLines.Len() != 0 {
		t.Errorf("line 2 was hit in the second section, got missing %v", fc.MissingLines.Sorted())
	}
}

func TestParseLCOVBranchOnlyLine(t *testing.T) {
	// A line with BRDA records but no DA record keeps its branch detail
	// without joining any line set.
	doc := `SF:a.c
DA:1,1
BRDA:5,0,0,1
BRDA:5,0,1,0
end_of_record
`
	res, err := parseLCOV([]byte(doc))
	if err != nil {
		t.Fatalf("parseLCOV failed: %v", err)
	}
	fc := res.Report.Files["a.c"]
	for name, set := range map[string]LineSet{"covered": fc.CoveredLines, "missing": fc.MissingLines, "partial": fc.PartialLines} {
		if set.Has(5) {
			t.Errorf("line 5 must not be in the %s set", name)
		}
	}
	detail, ok := fc.LineDetails[5]
	if !ok {
		t.Fatal("expected branch detail for line 5")
	}
	if !detail.IsBranch || detail.ConditionCoverage == nil || detail.ConditionCoverage.Taken != 1 || detail.ConditionCoverage.Total != 2 {
		t.Errorf("expected branch detail 1/2 on line 5, got %+v", detail)
	}
}

func TestParseLCOVRecordWarnings(t *testing.T) {
	doc := `DA:1,1
SF:a.c
DA:not-a-line,1
BRDA:3,0
no colon here
DA:4,1
end_of_record
`
	res, err := parseLCOV([]byte(doc))
	if err != nil {
		t.Fatalf("bad records must not fail the document: %v", err)
	}
	// Orphan DA, malformed DA, malformed BRDA, record without a colon.
	if len(res.Warnings) != 4 {
		t.Fatalf("expected 4 warnings, got %d: %v", len(res.Warnings), res.Warnings)
	}
	fc := res.Report.Files["a.c"]
	if fc == nil {
		t.Fatal("expected entry for a.c")
	}
	assertLines(t, "covered", fc.CoveredLines, []int{4})
}

func TestParseLCOVEmptyInput(t *testing.T) {
	for name, doc := range map[string]string{
		"empty":      "",
		"whitespace": "\n\n  \n",
		"no records": "some random text file\nwith more text\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := parseLCOV([]byte(doc))
			if err == nil {
				t.Fatal("expected error for input without tracefile records")
			}
			var perr *ParseError
			if !errors.As(err, &perr) {
				t.Fatalf("expected ParseError, got %T: %v", err, err)
			}
			if perr.Format != FormatLCOV {
				t.Errorf("expected lcov format in error, got %q", perr.Format)
			}
		})
	}
}
