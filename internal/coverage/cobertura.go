package coverage

import (
	"bytes"
	"encoding/xml"
	"errors"
	"io"
	"regexp"
	"strconv"
	"strings"
)

// Cobertura XML layout. Attribute values are kept as strings and converted
// per record so one malformed attribute skips that record instead of
// failing the whole document.
type coberturaXML struct {
	XMLName   xml.Name           `xml:"coverage"`
	Version   string             `xml:"version,attr"`
	Timestamp string             `xml:"timestamp,attr"`
	Sources   []string           `xml:"sources>source"`
	Packages  []coberturaPackage `xml:"packages>package"`
}

type coberturaPackage struct {
	Name    string           `xml:"name,attr"`
	Classes []coberturaClass `xml:"classes>class"`
}

type coberturaClass struct {
	Name     string          `xml:"name,attr"`
	FileName string          `xml:"filename,attr"`
	Lines    []coberturaLine `xml:"lines>line"`
}

type coberturaLine struct {
	Number            string `xml:"number,attr"`
	Hits              string `xml:"hits,attr"`
	Branch            string `xml:"branch,attr"`
	ConditionCoverage string `xml:"condition-coverage,attr"`
}

// conditionRe matches condition-coverage strings of the form "50% (1/2)".
var conditionRe = regexp.MustCompile(`^\s*\d+(?:\.\d+)?%\s*\((\d+)/(\d+)\)\s*$`)

// parseCobertura parses a Cobertura XML document. Coverage files can
// originate from untrusted branches, so the decoder runs with no entity
// table and any document carrying a DTD is rejected outright before
// decoding; both conditions fail fast instead of expanding attacker
// content.
func parseCobertura(data []byte) (*Result, error) {
	if err := rejectDTD(data); err != nil {
		return nil, err
	}

	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = true
	dec.Entity = map[string]string{}

	var doc coberturaXML
	if err := dec.Decode(&doc); err != nil {
		return nil, parseErrorf(FormatCobertura, err, "malformed XML document")
	}

	res := &Result{Report: NewCoverageReport(FormatCobertura)}
	for _, src := range doc.Sources {
		if s := strings.TrimSpace(src); s != "" {
			res.SourceRoots = append(res.SourceRoots, s)
		}
	}
	if doc.Version != "" {
		res.Report.Metadata["version"] = doc.Version
	}
	if doc.Timestamp != "" {
		res.Report.Metadata["timestamp"] = doc.Timestamp
	}
	if len(res.SourceRoots) > 0 {
		res.Report.Metadata["source_roots"] = strings.Join(res.SourceRoots, ":")
	}

	for _, pkg := range doc.Packages {
		for _, cls := range pkg.Classes {
			fileName := strings.TrimSpace(cls.FileName)
			if fileName == "" {
				res.warnf(WarnParse, pkg.Name, 0, "class %q has no filename attribute", cls.Name)
				continue
			}
			fc := res.Report.File(fileName)
			for _, line := range cls.Lines {
				addCoberturaLine(res, fc, line)
			}
		}
	}

	res.Report.RecomputeTotals()
	return res, nil
}

// addCoberturaLine classifies one <line> record: hits=0 is missing,
// a hit branch with less-than-full condition coverage is partial,
// everything else hit is covered.
func addCoberturaLine(res *Result, fc *FileCoverage, line coberturaLine) {
	number, err := strconv.Atoi(strings.TrimSpace(line.Number))
	if err != nil || number <= 0 {
		res.warnf(WarnParse, fc.Path, 0, "skipping line with bad number attribute %q", line.Number)
		return
	}
	hits, err := strconv.Atoi(strings.TrimSpace(line.Hits))
	if err != nil || hits < 0 {
		res.warnf(WarnParse, fc.Path, number, "skipping line with bad hits attribute %q", line.Hits)
		return
	}

	isBranch := strings.EqualFold(strings.TrimSpace(line.Branch), "true")
	cond := parseConditionCoverage(line.ConditionCoverage)
	fc.foldLine(number, hits, isBranch, cond, line.ConditionCoverage)
}

// parseConditionCoverage extracts the (taken, total) pair from a
// condition-coverage attribute such as "50% (1/2)". Malformed strings
// yield nil rather than an error.
func parseConditionCoverage(s string) *ConditionCoverage {
	m := conditionRe.FindStringSubmatch(s)
	if m == nil {
		return nil
	}
	taken, err1 := strconv.Atoi(m[1])
	total, err2 := strconv.Atoi(m[2])
	if err1 != nil || err2 != nil || total <= 0 || taken > total {
		return nil
	}
	return &ConditionCoverage{Taken: taken, Total: total}
}

// partialCondition reports whether a condition-coverage attribute marks a
// hit branch line as partially covered. The parsed pair decides when the
// attribute was well-formed; otherwise any non-empty attribute that does
// not claim "100%" counts as partial.
func partialCondition(cond *ConditionCoverage, raw string) bool {
	if cond != nil {
		return !cond.Full()
	}
	raw = strings.TrimSpace(raw)
	return raw != "" && !strings.Contains(raw, "100%")
}

// rejectDTD scans the prolog and fails on any <!DOCTYPE ...> directive.
// Coverage reports never legitimately carry a DTD, and entity definitions
// are the vehicle for expansion and external-resolution attacks. The scan
// stops at the first start element, so it touches only the prolog.
func rejectDTD(data []byte) error {
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Strict = false
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			// Let the strict decode report the malformation.
			return nil
		}
		switch t := tok.(type) {
		case xml.Directive:
			if bytes.HasPrefix(bytes.TrimSpace(t), []byte("DOCTYPE")) {
				return parseErrorf(FormatCobertura, nil, "document type definitions are not allowed")
			}
		case xml.StartElement:
			return nil
		}
	}
}
