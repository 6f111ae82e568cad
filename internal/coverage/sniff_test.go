package coverage

import (
	"errors"
	"testing"
)

func TestProbe(t *testing.T) {
	tests := []struct {
		name string
		data string
		want Format
		ok   bool
	}{
		{
			name: "cobertura xml",
			data: `<?xml version="1.0"?><coverage line-rate="0.5"><packages/></coverage>`,
			want: FormatCobertura,
			ok:   true,
		},
		{
			name: "cobertura with bom",
			data: "\xef\xbb\xbf<?xml version=\"1.0\"?><coverage><packages/></coverage>",
			want: FormatCobertura,
			ok:   true,
		},
		{
			name: "jacoco xml root is not recognized",
			data: `<?xml version="1.0"?><report name="app"><counter/></report>`,
			ok:   false,
		},
		{
			name: "coverage.py json",
			data: `{"meta": {"version": "7.4.1"}, "files": {}, "totals": {}}`,
			want: FormatPytestJSON,
			ok:   true,
		},
		{
			name: "coverage.py json without totals",
			data: `{"meta": {"version": "7.4.1"}, "files": {}}`,
			want: FormatPytestJSON,
			ok:   true,
		},
		{
			name: "istanbul json",
			data: `{"src/a.js": {"path": "src/a.js", "statementMap": {}, "s": {}}}`,
			want: FormatIstanbul,
			ok:   true,
		},
		{
			name: "unrelated json",
			data: `{"name": "covgap", "version": "1.0.0"}`,
			ok:   false,
		},
		{
			name: "lcov tracefile",
			data: "TN:\nSF:src/a.c\nDA:1,1\nend_of_record\n",
			want: FormatLCOV,
			ok:   true,
		},
		{
			name: "go cover profile",
			data: "mode: atomic\nexample.com/a.go:1.1,2.2 1 1\n",
			want: FormatGoCover,
			ok:   true,
		},
		{
			name: "unknown mode word",
			data: "mode: turbo\n",
			ok:   false,
		},
		{
			name: "plain text",
			data: "just some notes\nnothing to see\n",
			ok:   false,
		},
		{
			name: "empty",
			data: "",
			ok:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Probe([]byte(tt.data))
			if ok != tt.ok {
				t.Fatalf("expected ok=%v, got ok=%v (format %q)", tt.ok, ok, got)
			}
			if ok && got != tt.want {
				t.Errorf("expected format %q, got %q", tt.want, got)
			}
		})
	}
}

func TestSniffPrefersConventionalOrder(t *testing.T) {
	// Caller order offers the LCOV file first, but coverage.xml sits
	// earlier in the conventional-location order and wins.
	candidates := []Candidate{
		{Path: "lcov.info", Data: []byte("SF:a.c\nDA:1,1\nend_of_record\n")},
		{Path: "coverage.xml", Data: []byte(`<coverage><packages/></coverage>`)},
	}
	det, err := Sniff(candidates)
	if err != nil {
		t.Fatalf("Sniff failed: %v", err)
	}
	if det.Path != "coverage.xml" {
		t.Errorf("expected coverage.xml to win, got %s", det.Path)
	}
	if det.Format != FormatCobertura {
		t.Errorf("expected cobertura, got %q", det.Format)
	}
}

func TestSniffContentDecides(t *testing.T) {
	// The file at the conventional Cobertura location does not probe as a
	// report, so the unconventional candidate wins on content.
	candidates := []Candidate{
		{Path: "coverage.xml", Data: []byte(`<html><body>404</body></html>`)},
		{Path: "build/out/report.xml", Data: []byte(`<coverage><packages/></coverage>`)},
	}
	det, err := Sniff(candidates)
	if err != nil {
		t.Fatalf("Sniff failed: %v", err)
	}
	if det.Path != "build/out/report.xml" {
		t.Errorf("expected content probe to pick build/out/report.xml, got %s", det.Path)
	}
}

func TestSniffRenamedReport(t *testing.T) {
	// A coverage.py report parked at an unconventional name is still
	// classified by structure.
	candidates := []Candidate{
		{Path: "artifacts/py-cov.json", Data: []byte(`{"meta": {}, "files": {}, "totals": {}}`)},
	}
	det, err := Sniff(candidates)
	if err != nil {
		t.Fatalf("Sniff failed: %v", err)
	}
	if det.Format != FormatPytestJSON {
		t.Errorf("expected pytest_json, got %q", det.Format)
	}
}

func TestSniffNoReport(t *testing.T) {
	candidates := []Candidate{
		{Path: "readme.md", Data: []byte("# hello\n")},
		{Path: "coverage.xml", Data: []byte("not xml at all")},
	}
	_, err := Sniff(candidates)
	if !errors.Is(err, ErrNoReport) {
		t.Fatalf("expected ErrNoReport, got %v", err)
	}

	if _, err := Sniff(nil); !errors.Is(err, ErrNoReport) {
		t.Fatalf("expected ErrNoReport for no candidates, got %v", err)
	}
}

func TestMatchLocation(t *testing.T) {
	tests := []struct {
		path     string
		location string
		want     bool
	}{
		{"coverage.xml", "coverage.xml", true},
		{"./coverage.xml", "coverage.xml", true},
		{"sub/coverage.xml", "coverage.xml", true},
		{"coverage.xml.bak", "coverage.xml", false},
		{"target/site/cobertura/coverage.xml", "target/site/cobertura/coverage.xml", true},
		{"TestResults/1234/coverage.cobertura.xml", "TestResults/**/coverage.cobertura.xml", true},
		{"TestResults/a/b/coverage.cobertura.xml", "TestResults/**/coverage.cobertura.xml", true},
		{"TestResults/coverage.cobertura.xml", "TestResults/**/coverage.cobertura.xml", true},
		{"Elsewhere/1234/coverage.cobertura.xml", "TestResults/**/coverage.cobertura.xml", false},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			if got := matchLocation(tt.path, tt.location); got != tt.want {
				t.Errorf("matchLocation(%q, %q): expected %v, got %v", tt.path, tt.location, tt.want, got)
			}
		})
	}
}
