package cmd

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/covgap/covgap/internal/config"
	"github.com/covgap/covgap/internal/coverage"
)

// lcovFixture covers greet partially (line 2 missing) and leaves the
// body of farewell untested entirely.
const lcovFixture = `SF:src/app.py
DA:1,1
DA:2,0
DA:3,1
DA:6,1
DA:7,0
DA:8,0
DA:9,0
end_of_record
`

const pythonFixture = `def greet(name):
    print(name)
    return name


def farewell(name):
    if name:
        print(name)
    return None
`

// writeProject lays out a minimal analyzable project: an LCOV report at
// a conventional location and the Python source it refers to.
func writeProject(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Join(dir, "src"), 0755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "lcov.info"), []byte(lcovFixture), 0644); err != nil {
		t.Fatalf("write report: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "src", "app.py"), []byte(pythonFixture), 0644); err != nil {
		t.Fatalf("write source: %v", err)
	}
}

// chdirInto moves the test into dir and restores the working directory
// on cleanup, before the temp dir itself is removed.
func chdirInto(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatalf("getwd: %v", err)
	}
	t.Cleanup(func() { os.Chdir(old) })
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("chdir: %v", err)
	}
}

// resetCommandState restores every flag in the command tree to its
// default. pflag keeps values and Changed bits across Execute calls on
// the same commands, so each test invocation has to start clean.
func resetCommandState() {
	var reset func(c *cobra.Command)
	reset = func(c *cobra.Command) {
		for _, fs := range []*pflag.FlagSet{c.Flags(), c.PersistentFlags()} {
			fs.VisitAll(func(f *pflag.Flag) {
				if f.Changed {
					f.Value.Set(f.DefValue)
					f.Changed = false
				}
			})
		}
		for _, sub := range c.Commands() {
			reset(sub)
		}
	}
	reset(rootCmd)
}

// runCommand executes one covgap command line against the real command
// tree and returns what it wrote to stdout.
func runCommand(t *testing.T, args ...string) (string, error) {
	t.Helper()
	resetCommandState()
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return buf.String(), err
}

func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"nil", nil, exitOK},
		{"gate failed", errGateFailed, exitGate},
		{"gate failed wrapped", fmt.Errorf("analyze: %w", errGateFailed), exitGate},
		{"no report", coverage.ErrNoReport, exitNoReport},
		{"no report wrapped", fmt.Errorf("lcov.info: %w", coverage.ErrNoReport), exitNoReport},
		{"parse error", &coverage.ParseError{Format: coverage.FormatLCOV, Reason: "no tracefile records found"}, exitBadInput},
		{"parse error wrapped", fmt.Errorf("report: %w", &coverage.ParseError{Format: coverage.FormatCobertura, Reason: "bad xml"}), exitBadInput},
		{"invalid config", fmt.Errorf("%w: coverage_threshold must be between 0 and 100", config.ErrInvalidConfig), exitBadInput},
		{"generic error", errors.New("boom"), exitGate},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := exitCodeFor(tt.err); got != tt.want {
				t.Errorf("exitCodeFor(%v) = %d, want %d", tt.err, got, tt.want)
			}
		})
	}
}

func TestNoReportFound(t *testing.T) {
	chdirInto(t, t.TempDir())

	_, err := runCommand(t, "report")
	if !errors.Is(err, coverage.ErrNoReport) {
		t.Fatalf("expected ErrNoReport, got %v", err)
	}
	if code := exitCodeFor(err); code != exitNoReport {
		t.Errorf("exit code = %d, want %d", code, exitNoReport)
	}
}

func TestUnknownOutputFormat(t *testing.T) {
	dir := t.TempDir()
	writeProject(t, dir)
	chdirInto(t, dir)

	if _, err := runCommand(t, "report", "-o", "csv"); err == nil {
		t.Fatal("expected error for unknown output format")
	}
}
