package coverage

import (
	"encoding/json"
	"testing"
)

func TestLineSetJSON(t *testing.T) {
	set := NewLineSet(12, 3, 7, 3)
	data, err := json.Marshal(set)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "[3,7,12]" {
		t.Errorf("expected sorted array [3,7,12], got %s", data)
	}

	var back LineSet
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if back.Len() != 3 || !back.Has(3) || !back.Has(7) || !back.Has(12) {
		t.Errorf("expected {3,7,12}, got %v", back.Sorted())
	}

	empty := LineSet{}
	data, err = json.Marshal(empty)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if string(data) != "[]" {
		t.Errorf("expected [] for empty set, got %s", data)
	}
}

func TestPercentCovered(t *testing.T) {
	tests := []struct {
		covered, missing int
		want             float64
	}{
		{6, 1, 100.0 * 6 / 7},
		{0, 10, 0.0},
		{10, 0, 100.0},
		{0, 0, 100.0},
	}
	for _, tt := range tests {
		if got := percentCovered(tt.covered, tt.missing); got != tt.want {
			t.Errorf("percentCovered(%d, %d): expected %v, got %v", tt.covered, tt.missing, tt.want, got)
		}
	}
}

func TestParseFormatName(t *testing.T) {
	tests := []struct {
		input   string
		want    Format
		wantErr bool
	}{
		{"cobertura", FormatCobertura, false},
		{"XML", FormatCobertura, false},
		{"pytest_json", FormatPytestJSON, false},
		{"pytest", FormatPytestJSON, false},
		{"coverage.py", FormatPytestJSON, false},
		{"istanbul", FormatIstanbul, false},
		{"nyc", FormatIstanbul, false},
		{"LCOV", FormatLCOV, false},
		{"gocover", FormatGoCover, false},
		{"coverprofile", FormatGoCover, false},
		{" lcov ", FormatLCOV, false},
		{"jacoco", "", true},
		{"", "", true},
	}
	for _, tt := range tests {
		got, err := ParseFormatName(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParseFormatName(%q): expected error, got %q", tt.input, got)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseFormatName(%q): unexpected error %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseFormatName(%q): expected %q, got %q", tt.input, tt.want, got)
		}
	}
}

func TestFoldLineReclassifies(t *testing.T) {
	fc := NewFileCoverage("a.kt")

	fc.foldLine(9, 0, false, nil, "")
	if !fc.MissingLines.Has(9) {
		t.Fatal("expected line 9 missing after first fold")
	}

	// A later observation with hits moves the line out of missing.
	fc.foldLine(9, 3, false, nil, "")
	if !fc.CoveredLines.Has(9) || fc.MissingLines.Has(9) {
		t.Errorf("expected line 9 covered, got covered=%v missing=%v", fc.CoveredLines.Sorted(), fc.MissingLines.Sorted())
	}
	if got := fc.LineDetails[9].Hits; got != 3 {
		t.Errorf("expected summed hits 3, got %d", got)
	}

	// Branch detail carried by an earlier fold survives a later plain one.
	fc.foldLine(12, 1, true, &ConditionCoverage{Taken: 1, Total: 2}, "50% (1/2)")
	fc.foldLine(12, 2, false, nil, "")
	detail := fc.LineDetails[12]
	if !detail.IsBranch || detail.ConditionCoverage == nil {
		t.Errorf("expected branch detail retained, got %+v", detail)
	}
	if !fc.PartialLines.Has(12) {
		t.Error("expected line 12 to stay partial while its condition coverage is incomplete")
	}
	assertDisjoint(t, fc)
}

func TestReportClone(t *testing.T) {
	res, err := parseCobertura([]byte(coberturaFixture))
	if err != nil {
		t.Fatalf("parseCobertura failed: %v", err)
	}

	clone := res.Report.Clone()
	clone.Files["app/service.py"].CoveredLines.Add(999)
	clone.Metadata["extra"] = "x"

	if res.Report.Files["app/service.py"].CoveredLines.Has(999) {
		t.Error("mutating the clone must not touch the original line sets")
	}
	if _, ok := res.Report.Metadata["extra"]; ok {
		t.Error("mutating the clone must not touch the original metadata")
	}
}
