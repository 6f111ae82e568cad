package correlate

// Complexity is a coarse proxy for how hard a unit is to cover, derived
// from the density of partially-covered branch lines inside it.
type Complexity string

const (
	ComplexityLow    Complexity = "low"
	ComplexityMedium Complexity = "medium"
	ComplexityHigh   Complexity = "high"
)

// complexityFor classifies partial-line density over a unit's span.
func complexityFor(partialLines, lineStart, lineEnd int) Complexity {
	span := lineEnd - lineStart + 1
	if span < 1 {
		span = 1
	}
	density := float64(partialLines) / float64(span)
	switch {
	case density > 0.3:
		return ComplexityHigh
	case density > 0.1:
		return ComplexityMedium
	default:
		return ComplexityLow
	}
}

// UncoveredArea is one code unit with uncovered lines, the record handed
// to downstream consumers. The serialized field names are a stable
// contract; external tooling keys off them verbatim.
type UncoveredArea struct {
	FilePath     string     `json:"file_path" yaml:"file_path"`
	FunctionName string     `json:"function_name" yaml:"function_name"`
	FunctionType string     `json:"function_type" yaml:"function_type"`
	LineStart    int        `json:"line_start" yaml:"line_start"`
	LineEnd      int        `json:"line_end" yaml:"line_end"`
	Signature    string     `json:"signature" yaml:"signature"`
	Docstring    string     `json:"docstring" yaml:"docstring"`
	Complexity   Complexity `json:"complexity" yaml:"complexity"`
	MissingLines []int      `json:"missing_lines" yaml:"missing_lines"`
	Priority     int        `json:"priority" yaml:"priority"`
}
