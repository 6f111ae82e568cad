package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// newPythonParser creates a tree-sitter parser configured for Python.
func newPythonParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(python.GetLanguage())
	return parser
}

// PythonUnitTypes maps tree-sitter node types to the unit kind they
// declare. A function_definition nested in a class body is reclassified
// as a method by the correlator.
var PythonUnitTypes = map[string]string{
	"function_definition": "function",
	"class_definition":    "class",
}
