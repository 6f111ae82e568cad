package lang

import "fmt"

// ParseError represents a parsing failure.
type ParseError struct {
	Message string
	File    string
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	if e.File != "" {
		return fmt.Sprintf("%s: %s", e.File, e.Message)
	}
	return e.Message
}

// UnsupportedLanguageError is returned when no grammar is bound for a
// language.
type UnsupportedLanguageError struct {
	Language string
}

// Error implements the error interface.
func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf("unsupported language: %s", e.Language)
}
