package cmd

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/covgap/covgap/internal/coverage"
	"github.com/covgap/covgap/internal/output"
)

func TestFormatsCommand(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := runCommand(t, "formats")
		if err != nil {
			t.Fatalf("formats: %v", err)
		}
		for _, want := range []string{
			"cobertura (aliases: xml)",
			"pytest_json",
			"istanbul",
			"lcov",
			"gocover",
			"probe:",
			"locations:",
		} {
			if !strings.Contains(out, want) {
				t.Errorf("output missing %q:\n%s", want, out)
			}
		}
	})

	t.Run("json", func(t *testing.T) {
		out, err := runCommand(t, "formats", "-o", "json")
		if err != nil {
			t.Fatalf("formats: %v", err)
		}

		var infos []output.FormatInfo
		if err := json.Unmarshal([]byte(out), &infos); err != nil {
			t.Fatalf("output is not valid JSON: %v\n%s", err, out)
		}
		if len(infos) != 5 {
			t.Fatalf("expected 5 formats, got %d", len(infos))
		}
		for _, info := range infos {
			if info.Probe == "" {
				t.Errorf("format %s has no probe description", info.Name)
			}
		}
	})
}

// TestFormatCatalogMatchesParsers pins the catalog to the formats the
// parser actually accepts, so neither can drift without failing here.
func TestFormatCatalogMatchesParsers(t *testing.T) {
	for _, info := range formatCatalog {
		format, err := coverage.ParseFormatName(info.Name)
		if err != nil {
			t.Errorf("catalog name %q is not a parseable format: %v", info.Name, err)
			continue
		}
		if string(format) != info.Name {
			t.Errorf("catalog name %q resolves to %q", info.Name, format)
		}
		for _, alias := range info.Aliases {
			resolved, err := coverage.ParseFormatName(alias)
			if err != nil {
				t.Errorf("alias %q of %s: %v", alias, info.Name, err)
				continue
			}
			if resolved != format {
				t.Errorf("alias %q resolves to %q, want %q", alias, resolved, format)
			}
		}
		for _, loc := range info.Locations {
			if !containsLocation(coverage.ConventionalLocations(), loc) {
				t.Errorf("catalog location %q for %s is not in the discovery list", loc, info.Name)
			}
		}
	}
}

func containsLocation(locations []string, want string) bool {
	for _, loc := range locations {
		if loc == want {
			return true
		}
	}
	return false
}
