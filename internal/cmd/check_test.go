package cmd

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/covgap/covgap/internal/output"
)

func TestCheckCommand(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdirInto(t, dir)

	t.Run("threshold pass", func(t *testing.T) {
		out, err := runCommand(t, "check", "--threshold", "40")
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if !strings.Contains(out, "PASS: coverage 42.9% against threshold 40%") {
			t.Errorf("unexpected verdict:\n%s", out)
		}
	})

	t.Run("threshold fail", func(t *testing.T) {
		out, err := runCommand(t, "check", "--threshold", "50")
		if !errors.Is(err, errGateFailed) {
			t.Fatalf("expected gate failure, got %v", err)
		}
		for _, want := range []string{"FAIL", "below the threshold"} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("pinned baseline pass", func(t *testing.T) {
		out, err := runCommand(t, "check", "--threshold", "40", "--baseline", "40", "--min-increase", "2")
		if err != nil {
			t.Fatalf("check: %v", err)
		}
		if !strings.Contains(out, "Delta vs baseline: +2.9%") {
			t.Errorf("expected delta line:\n%s", out)
		}
	})

	t.Run("pinned baseline fail", func(t *testing.T) {
		out, err := runCommand(t, "check", "--threshold", "40", "--baseline", "40", "--min-increase", "5")
		if !errors.Is(err, errGateFailed) {
			t.Fatalf("expected gate failure, got %v", err)
		}
		if !strings.Contains(out, "below the required increase") {
			t.Errorf("expected increase failure line:\n%s", out)
		}
	})

	t.Run("json verdict", func(t *testing.T) {
		out, err := runCommand(t, "check", "--threshold", "40", "-o", "json")
		if err != nil {
			t.Fatalf("check: %v", err)
		}

		var v output.VerdictOutput
		if err := json.Unmarshal([]byte(out), &v); err != nil {
			t.Fatalf("output is not valid JSON: %v\n%s", err, out)
		}
		if !v.Passed || !v.MeetsThreshold || !v.MeetsIncrease {
			t.Errorf("unexpected verdict: %+v", v)
		}
		if v.Delta != nil {
			t.Errorf("expected nil delta without a baseline, got %v", *v.Delta)
		}
		if v.Threshold != 40 {
			t.Errorf("threshold = %f, want 40", v.Threshold)
		}
	})
}
