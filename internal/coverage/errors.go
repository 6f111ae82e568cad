package coverage

import (
	"errors"
	"fmt"
)

// ErrNoReport is returned when no coverage report could be located or
// recognized. It is an expected outcome, not a failure: callers skip
// coverage analysis and continue.
var ErrNoReport = errors.New("no coverage report found")

// ParseError reports a document too malformed to interpret. Record-level
// problems never produce a ParseError; they are skipped and accumulated
// as Warnings on the Result.
type ParseError struct {
	Format Format
	Reason string
	Err    error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("parse %s report: %s: %v", e.Format, e.Reason, e.Err)
	}
	return fmt.Sprintf("parse %s report: %s", e.Format, e.Reason)
}

// Unwrap returns the underlying error, if any.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// parseErrorf builds a ParseError with a formatted reason.
func parseErrorf(format Format, err error, reason string, args ...interface{}) *ParseError {
	return &ParseError{Format: format, Reason: fmt.Sprintf(reason, args...), Err: err}
}

// WarningKind distinguishes where a warning was raised.
type WarningKind string

const (
	// WarnParse marks a skipped malformed record inside an otherwise
	// well-formed document.
	WarnParse WarningKind = "parse"
	// WarnNormalize marks a merge conflict resolved by letting the
	// later report win.
	WarnNormalize WarningKind = "normalize"
)

// Warning records a non-fatal problem encountered while parsing or
// normalizing. Warnings ride alongside successful output and are never
// silently dropped.
type Warning struct {
	Kind   WarningKind `json:"kind"`
	Path   string      `json:"path,omitempty"`
	Line   int         `json:"line,omitempty"`
	Detail string      `json:"detail"`
}

// String renders the warning for diagnostics.
func (w Warning) String() string {
	switch {
	case w.Path != "" && w.Line > 0:
		return fmt.Sprintf("%s: %s:%d: %s", w.Kind, w.Path, w.Line, w.Detail)
	case w.Path != "":
		return fmt.Sprintf("%s: %s: %s", w.Kind, w.Path, w.Detail)
	default:
		return fmt.Sprintf("%s: %s", w.Kind, w.Detail)
	}
}
