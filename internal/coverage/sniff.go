package coverage

import (
	"bufio"
	"bytes"
	"encoding/json"
	"encoding/xml"
	"io"
	"strings"
)

// Candidate is a report file offered to the sniffer: its path relative to
// the project root and its raw bytes. Callers perform all file I/O.
type Candidate struct {
	Path string
	Data []byte
}

// Detection names the candidate that won and the format its content
// matched.
type Detection struct {
	Path   string
	Format Format
}

// conventionalLocations is the ordered list of places coverage tools
// drop their reports. Earlier entries win when several candidates probe
// successfully.
var conventionalLocations = []string{
	// Cobertura XML
	"coverage.xml",
	"cobertura-coverage.xml",
	"cobertura.xml",
	"target/site/cobertura/coverage.xml",
	"build/reports/cobertura/coverage.xml",
	"coverage/cobertura-coverage.xml",

	// JSON formats
	"coverage.json",
	".coverage.json",
	"coverage/coverage-final.json",

	// LCOV
	"coverage/lcov.info",
	"lcov.info",

	// JaCoCo (probed but unrecognized; kept so a renamed Cobertura
	// file at these paths is still found)
	"target/site/jacoco/jacoco.xml",
	"build/reports/jacoco/test/jacocoTestReport.xml",

	// .NET
	"coverage.cobertura.xml",
	"TestResults/**/coverage.cobertura.xml",

	// Go
	"coverage.out",
	"cover.out",
}

// ConventionalLocations returns the search order for report discovery.
func ConventionalLocations() []string {
	out := make([]string, len(conventionalLocations))
	copy(out, conventionalLocations)
	return out
}

// Sniff picks the report to parse from a set of candidates. Candidates at
// conventional locations are tried first, in location order; the rest are
// probed in caller order as a fallback. Filenames alone never decide: a
// candidate only wins when its content probes as a known format. Returns
// ErrNoReport when nothing matches.
func Sniff(candidates []Candidate) (*Detection, error) {
	probed := make([]Format, len(candidates))
	for i, c := range candidates {
		format, ok := Probe(c.Data)
		if !ok {
			probed[i] = ""
			continue
		}
		probed[i] = format
	}

	for _, location := range conventionalLocations {
		for i, c := range candidates {
			if probed[i] == "" || !matchLocation(c.Path, location) {
				continue
			}
			return &Detection{Path: c.Path, Format: probed[i]}, nil
		}
	}
	for i, c := range candidates {
		if probed[i] != "" {
			return &Detection{Path: c.Path, Format: probed[i]}, nil
		}
	}
	return nil, ErrNoReport
}

// matchLocation reports whether path sits at the given conventional
// location. A location may contain one "**" segment matching zero or
// more directories.
func matchLocation(path, location string) bool {
	path = strings.TrimPrefix(strings.TrimSpace(path), "./")
	star := strings.Index(location, "**")
	if star < 0 {
		return path == location || strings.HasSuffix(path, "/"+location)
	}
	prefix := strings.TrimSuffix(location[:star], "/")
	suffix := strings.TrimPrefix(location[star+2:], "/")
	if path == prefix+"/"+suffix {
		return true
	}
	if !strings.HasPrefix(path, prefix+"/") && !strings.Contains(path, "/"+prefix+"/") {
		return false
	}
	return strings.HasSuffix(path, "/"+suffix)
}

// Probe inspects report bytes and identifies their format structurally.
// It looks at the document's root shape, never the file extension, so a
// renamed report is still classified correctly.
func Probe(data []byte) (Format, bool) {
	trimmed := bytes.TrimLeft(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")), " \t\r\n")
	if len(trimmed) == 0 {
		return "", false
	}

	switch trimmed[0] {
	case '<':
		if probeXMLRoot(trimmed, "coverage") {
			return FormatCobertura, true
		}
		return "", false
	case '{':
		return probeJSON(trimmed)
	}

	if probeGoCoverMode(trimmed) {
		return FormatGoCover, true
	}
	if probeLCOV(trimmed) {
		return FormatLCOV, true
	}
	return "", false
}

// probeXMLRoot reports whether the document's root element has the given
// local name. Only the prolog is scanned.
func probeXMLRoot(data []byte, name string) bool {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if err != nil {
			return false
		}
		if start, ok := tok.(xml.StartElement); ok {
			return start.Name.Local == name
		}
	}
}

// probeJSON distinguishes the coverage.py report (files plus totals/meta
// sections) from the Istanbul shape (a map whose values carry statement
// maps).
func probeJSON(data []byte) (Format, bool) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return "", false
	}
	if _, ok := top["files"]; ok {
		if _, ok := top["totals"]; ok {
			return FormatPytestJSON, true
		}
		if _, ok := top["meta"]; ok {
			return FormatPytestJSON, true
		}
	}
	for _, raw := range top {
		var entry struct {
			StatementMap json.RawMessage `json:"statementMap"`
		}
		if err := json.Unmarshal(raw, &entry); err == nil && entry.StatementMap != nil {
			return FormatIstanbul, true
		}
	}
	return "", false
}

// probeGoCoverMode reports whether the first line is a cover profile mode
// header.
func probeGoCoverMode(data []byte) bool {
	line, _, _ := bytes.Cut(data, []byte("\n"))
	mode, ok := bytes.CutPrefix(bytes.TrimSpace(line), []byte("mode:"))
	if !ok {
		return false
	}
	switch string(bytes.TrimSpace(mode)) {
	case "set", "count", "atomic":
		return true
	}
	return false
}

// probeLCOV scans the leading records for SF or DA directives.
func probeLCOV(data []byte) bool {
	scanner := bufio.NewScanner(io.LimitReader(bytes.NewReader(data), 64*1024))
	seen := 0
	for scanner.Scan() && seen < 50 {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		seen++
		if strings.HasPrefix(line, "SF:") || strings.HasPrefix(line, "DA:") {
			return true
		}
		if !strings.Contains(line, ":") && line != "end_of_record" {
			return false
		}
	}
	return false
}
