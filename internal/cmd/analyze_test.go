package cmd

import (
	"encoding/json"
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/covgap/covgap/internal/output"
)

func TestAnalyzeCommand(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdirInto(t, dir)

	t.Run("gate pass", func(t *testing.T) {
		out, err := runCommand(t, "analyze", "--threshold", "40")
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		for _, want := range []string{
			"Overall coverage: 42.9% (lcov)",
			"farewell",
			"greet",
			"2 uncovered areas",
			"PASS",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("gate fail", func(t *testing.T) {
		out, err := runCommand(t, "analyze", "--threshold", "90")
		if !errors.Is(err, errGateFailed) {
			t.Fatalf("expected gate failure, got %v", err)
		}
		if !strings.Contains(out, "FAIL") {
			t.Errorf("expected FAIL in output:\n%s", out)
		}
		if !strings.Contains(out, "below the threshold") {
			t.Errorf("expected threshold failure line:\n%s", out)
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCommand(t, "analyze", "--threshold", "40", "-o", "json")
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}

		var decoded output.AnalyzeOutput
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v\n%s", err, out)
		}
		if decoded.Verdict == nil || !decoded.Verdict.Passed {
			t.Fatalf("expected passing verdict, got %+v", decoded.Verdict)
		}
		if decoded.Verdict.Delta != nil {
			t.Errorf("expected nil delta without a baseline, got %v", *decoded.Verdict.Delta)
		}
		if math.Abs(decoded.Report.OverallCoverage-3.0/7.0*100) > 0.01 {
			t.Errorf("overall = %f", decoded.Report.OverallCoverage)
		}
		if len(decoded.Areas) != 2 {
			t.Fatalf("expected 2 areas, got %d", len(decoded.Areas))
		}
		if decoded.Areas[0].FunctionName != "farewell" {
			t.Errorf("top area = %q, want farewell", decoded.Areas[0].FunctionName)
		}
		if decoded.Areas[0].Priority <= decoded.Areas[1].Priority {
			t.Errorf("areas not ranked: %d then %d", decoded.Areas[0].Priority, decoded.Areas[1].Priority)
		}
	})

	t.Run("limit", func(t *testing.T) {
		out, err := runCommand(t, "analyze", "--threshold", "40", "--limit", "1", "-o", "json")
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}

		var decoded output.AnalyzeOutput
		if err := json.Unmarshal([]byte(out), &decoded); err != nil {
			t.Fatalf("output is not valid JSON: %v", err)
		}
		if len(decoded.Areas) != 1 {
			t.Fatalf("expected 1 area, got %d", len(decoded.Areas))
		}
		if decoded.Areas[0].FunctionName != "farewell" {
			t.Errorf("kept area = %q, want farewell", decoded.Areas[0].FunctionName)
		}
	})

	t.Run("path arguments", func(t *testing.T) {
		out, err := runCommand(t, "analyze", "src", "--threshold", "40")
		if err != nil {
			t.Fatalf("analyze: %v", err)
		}
		if !strings.Contains(out, "farewell") {
			t.Errorf("expected areas from src:\n%s", out)
		}
	})
}

func TestAnalyzeSaveBaseline(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdirInto(t, dir)

	// First run records the baseline after its own verdict.
	if _, err := runCommand(t, "analyze", "--threshold", "40", "--save-baseline"); err != nil {
		t.Fatalf("first analyze: %v", err)
	}
	if _, err := os.Stat(filepath.Join(".covgap", "baselines.db")); err != nil {
		t.Fatalf("baseline store not created: %v", err)
	}

	// Second run with identical coverage gains nothing over the stored
	// baseline, which trips the default minimum-increase gate.
	out, err := runCommand(t, "analyze", "--threshold", "40")
	if !errors.Is(err, errGateFailed) {
		t.Fatalf("expected gate failure, got %v", err)
	}
	for _, want := range []string{"Delta vs baseline: +0.0%", "below the required increase"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	// A zero minimum increase accepts a flat delta.
	if _, err := runCommand(t, "analyze", "--threshold", "40", "--min-increase", "0"); err != nil {
		t.Fatalf("flat delta with zero gate: %v", err)
	}
}

func TestAnalyzePinnedBaseline(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdirInto(t, dir)

	out, err := runCommand(t, "analyze", "--threshold", "40", "--baseline", "40", "--min-increase", "2")
	if err != nil {
		t.Fatalf("analyze: %v", err)
	}
	if !strings.Contains(out, "Delta vs baseline: +2.9%") {
		t.Errorf("expected delta against pinned baseline:\n%s", out)
	}

	if _, err := runCommand(t, "analyze", "--threshold", "40", "--baseline", "40", "--min-increase", "5"); !errors.Is(err, errGateFailed) {
		t.Fatalf("expected gate failure, got %v", err)
	}
}
