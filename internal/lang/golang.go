package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
)

// newGoParser creates a tree-sitter parser configured for Go.
func newGoParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(golang.GetLanguage())
	return parser
}

// GoUnitTypes maps tree-sitter node types to the unit kind they declare.
var GoUnitTypes = map[string]string{
	"function_declaration": "function",
	"method_declaration":   "method",
}
