package output

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"
)

// Renderer writes analysis results to a writer in one output format.
type Renderer interface {
	Render(w io.Writer, v interface{}) error
}

// NewRenderer returns a renderer for the specified format.
func NewRenderer(format Format) (Renderer, error) {
	switch format {
	case FormatText:
		return &TextRenderer{}, nil
	case FormatJSON:
		return &JSONRenderer{}, nil
	case FormatYAML:
		return &YAMLRenderer{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}

// JSONRenderer renders values as indented JSON.
type JSONRenderer struct{}

// Render writes v as JSON.
func (r *JSONRenderer) Render(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// YAMLRenderer renders values as YAML.
type YAMLRenderer struct{}

// Render writes v as YAML.
func (r *YAMLRenderer) Render(w io.Writer, v interface{}) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer enc.Close()
	return enc.Encode(v)
}

// TextRenderer renders values as human-readable tables.
type TextRenderer struct{}

// Render writes v as text. Returns an error for value types the text
// renderer has no table layout for.
func (r *TextRenderer) Render(w io.Writer, v interface{}) error {
	switch t := v.(type) {
	case *ReportSummary:
		return r.renderReport(w, t)
	case *AreaList:
		return r.renderAreas(w, t)
	case *VerdictOutput:
		return r.renderVerdict(w, t)
	case *AnalyzeOutput:
		return r.renderAnalyze(w, t)
	case []FormatInfo:
		return r.renderFormats(w, t)
	default:
		return fmt.Errorf("text renderer does not support type %T", v)
	}
}

func (r *TextRenderer) renderReport(w io.Writer, s *ReportSummary) error {
	fmt.Fprintf(w, "Overall coverage: %.1f%% (%s)\n", s.OverallCoverage, s.SourceFormat)

	if len(s.Files) == 0 {
		fmt.Fprintln(w, "No files in report")
		return nil
	}
	fmt.Fprintln(w)

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "FILE\tCOVER\tMISSING\tPARTIAL")
	totalMissing := 0
	for _, f := range s.Files {
		fmt.Fprintf(tw, "%s\t%.1f%%\t%d\t%d\n", f.Path, f.PercentCovered, f.Missing, f.Partial)
		totalMissing += f.Missing
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d files, %d missing lines\n", len(s.Files), totalMissing)
	return nil
}

func (r *TextRenderer) renderAreas(w io.Writer, list *AreaList) error {
	if list.Count == 0 {
		fmt.Fprintln(w, "No uncovered areas")
		return nil
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "RANK\tPRI\tLOCATION\tUNIT\tTYPE\tCOMPLEXITY\tMISSING")
	for i, a := range list.Areas {
		fmt.Fprintf(tw, "%d\t%d\t%s:%d-%d\t%s\t%s\t%s\t%s\n",
			i+1, a.Priority, a.FilePath, a.LineStart, a.LineEnd,
			a.FunctionName, a.FunctionType, a.Complexity, missingPreview(a.MissingLines))
	}
	tw.Flush()

	fmt.Fprintf(w, "\n%d uncovered areas\n", list.Count)
	return nil
}

func (r *TextRenderer) renderVerdict(w io.Writer, v *VerdictOutput) error {
	status := "PASS"
	if !v.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(w, "%s: coverage %.1f%% against threshold %.0f%%\n",
		status, v.OverallCoverage, v.Threshold)

	if v.Delta != nil {
		fmt.Fprintf(w, "Delta vs baseline: %+.1f%% (required increase %.0f%%)\n",
			*v.Delta, v.MinIncrease)
	}
	if !v.MeetsThreshold {
		fmt.Fprintln(w, "Coverage is below the threshold")
	}
	if v.Delta != nil && !v.MeetsIncrease {
		fmt.Fprintln(w, "Coverage gain is below the required increase")
	}
	return nil
}

func (r *TextRenderer) renderAnalyze(w io.Writer, a *AnalyzeOutput) error {
	if a.Report != nil {
		if err := r.renderReport(w, a.Report); err != nil {
			return err
		}
		fmt.Fprintln(w)
	}
	if err := r.renderAreas(w, NewAreaList(a.Areas)); err != nil {
		return err
	}
	if a.Verdict != nil {
		fmt.Fprintln(w)
		if err := r.renderVerdict(w, a.Verdict); err != nil {
			return err
		}
	}
	return nil
}

func (r *TextRenderer) renderFormats(w io.Writer, infos []FormatInfo) error {
	for i, fi := range infos {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprint(w, fi.Name)
		if len(fi.Aliases) > 0 {
			fmt.Fprintf(w, " (aliases: %s)", strings.Join(fi.Aliases, ", "))
		}
		fmt.Fprintln(w)
		fmt.Fprintf(w, "  probe: %s\n", fi.Probe)
		if len(fi.Locations) > 0 {
			fmt.Fprintf(w, "  locations: %s\n", strings.Join(fi.Locations, ", "))
		}
	}
	return nil
}

// missingPreview shortens a missing-line list to its first few entries.
func missingPreview(lines []int) string {
	const maxShown = 4
	if len(lines) == 0 {
		return "-"
	}

	parts := make([]string, 0, maxShown)
	for i, n := range lines {
		if i == maxShown {
			break
		}
		parts = append(parts, strconv.Itoa(n))
	}
	preview := strings.Join(parts, ",")
	if len(lines) > maxShown {
		preview += fmt.Sprintf(" (+%d more)", len(lines)-maxShown)
	}
	return preview
}
