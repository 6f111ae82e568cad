// Package cmd contains all CLI commands for covgap.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/config"
	"github.com/covgap/covgap/internal/coverage"
)

var (
	// Version is the current version of covgap
	Version = "0.1.0"

	// Global flags
	verbose      bool
	configPath   string
	outputFormat string
	baselineDB   string
)

// Process exit codes. Gate failures and missing reports are distinct
// outcomes so CI scripts can tell "coverage too low" from "nothing to
// measure" without parsing output.
const (
	exitOK       = 0
	exitGate     = 1
	exitNoReport = 2
	exitBadInput = 3
)

// errGateFailed signals a failed coverage gate after the verdict has
// already been rendered. Execute maps it to exitGate without reprinting.
var errGateFailed = errors.New("coverage gate not met")

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "covgap",
	Short: "Normalize coverage reports and rank uncovered code",
	Long: `covgap reads the coverage report a test run left behind, normalizes it
into one canonical model, and ranks the uncovered functions, methods,
and classes so the biggest gaps surface first.

It understands Cobertura XML, coverage.py JSON, Istanbul JSON, LCOV,
and Go cover profiles. Reports are found by probing conventional
locations, so most projects need no configuration at all.

Output Format:
  All commands print a human-readable table by default.
  Use --output json or --output yaml for machine consumption.

Main capabilities:
  - Discover and sniff coverage reports without being told the format
  - Normalize file paths and recompute totals from raw line data
  - Attribute uncovered lines to the functions that contain them
  - Rank uncovered areas by missing share, complexity, and size
  - Gate on a coverage threshold or a minimum gain over a baseline
  - Persist baselines across runs for trend enforcement

Exit codes:
  0 = coverage gates met (or no gate requested)
  1 = threshold or minimum-increase gate failed
  2 = no coverage report found
  3 = unreadable report or invalid configuration

Examples:
  covgap analyze                     # Full analysis of the current repo
  covgap analyze src/auth/           # Rank gaps in changed paths only
  covgap report                      # Just the normalized report
  covgap check --threshold 80        # Gate for CI
  covgap baseline save               # Record today's coverage

See 'covgap <command> --help' for command-specific options.`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errGateFailed) {
			fmt.Fprintln(os.Stderr, "covgap:", err)
		}
		os.Exit(exitCodeFor(err))
	}
}

// exitCodeFor maps an error from a command to the documented exit codes.
func exitCodeFor(err error) int {
	if err == nil {
		return exitOK
	}
	if errors.Is(err, errGateFailed) {
		return exitGate
	}
	if errors.Is(err, coverage.ErrNoReport) {
		return exitNoReport
	}
	var parseErr *coverage.ParseError
	if errors.As(err, &parseErr) {
		return exitBadInput
	}
	if errors.Is(err, config.ErrInvalidConfig) {
		return exitBadInput
	}
	return exitGate
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to config file (default: .covgap/config.yaml)")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "Output format (text|json|yaml)")
	rootCmd.PersistentFlags().StringVar(&baselineDB, "baseline-db", "", "Path to baseline database (default: .covgap/baselines.db)")
}
