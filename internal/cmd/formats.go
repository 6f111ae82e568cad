package cmd

import (
	"github.com/spf13/cobra"

	"github.com/covgap/covgap/internal/output"
)

// formatsCmd represents the formats command
var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported coverage formats and how they are detected",
	Long: `List every coverage format covgap can parse, the names it answers to
in --coverage-format and config, the content probe that identifies it,
and the conventional file locations discovery checks.

Detection is structural: covgap looks at the document's shape, never
the filename, so a renamed report is still recognized.`,
	Args: cobra.NoArgs,
	RunE: runFormats,
}

func init() {
	rootCmd.AddCommand(formatsCmd)
}

// formatCatalog mirrors the sniffing rules in internal/coverage. The
// probe strings describe Probe(); the locations are the conventional
// search paths for each format.
var formatCatalog = []output.FormatInfo{
	{
		Name:    "cobertura",
		Aliases: []string{"xml"},
		Probe:   "XML document whose root element is <coverage>",
		Locations: []string{
			"coverage.xml",
			"cobertura-coverage.xml",
			"cobertura.xml",
			"target/site/cobertura/coverage.xml",
			"build/reports/cobertura/coverage.xml",
			"coverage/cobertura-coverage.xml",
			"coverage.cobertura.xml",
			"TestResults/**/coverage.cobertura.xml",
		},
	},
	{
		Name:    "pytest_json",
		Aliases: []string{"pytest-json", "pytest", "coveragepy", "coverage.py"},
		Probe:   "JSON object with a \"files\" map next to \"totals\" or \"meta\"",
		Locations: []string{
			"coverage.json",
			".coverage.json",
		},
	},
	{
		Name:    "istanbul",
		Aliases: []string{"nyc"},
		Probe:   "JSON object keyed by file path whose entries carry a statementMap",
		Locations: []string{
			"coverage/coverage-final.json",
		},
	},
	{
		Name:    "lcov",
		Aliases: nil,
		Probe:   "text tracefile opening with SF: or DA: records",
		Locations: []string{
			"coverage/lcov.info",
			"lcov.info",
		},
	},
	{
		Name:    "gocover",
		Aliases: []string{"go", "coverprofile"},
		Probe:   "first line is \"mode: set\", \"mode: count\", or \"mode: atomic\"",
		Locations: []string{
			"coverage.out",
			"cover.out",
		},
	},
}

func runFormats(cmd *cobra.Command, args []string) error {
	return render(cmd, formatCatalog)
}
