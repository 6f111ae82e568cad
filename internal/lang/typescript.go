package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// newTypeScriptParser creates a tree-sitter parser configured for
// TypeScript.
func newTypeScriptParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(typescript.GetLanguage())
	return parser
}

// newJavaScriptParser creates a tree-sitter parser configured for
// JavaScript.
func newJavaScriptParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(javascript.GetLanguage())
	return parser
}

// JavaScriptUnitTypes maps tree-sitter node types to the unit kind they
// declare. Arrow functions bound to a const are recognized separately by
// the correlator through their variable_declarator.
var JavaScriptUnitTypes = map[string]string{
	"function_declaration":           "function",
	"generator_function_declaration": "function",
	"method_definition":              "method",
	"class_declaration":              "class",
}

// TypeScriptUnitTypes maps tree-sitter node types to the unit kind they
// declare. Interface and type-alias declarations carry no executable
// lines and are not units.
var TypeScriptUnitTypes = map[string]string{
	"function_declaration":           "function",
	"generator_function_declaration": "function",
	"method_definition":              "method",
	"class_declaration":              "class",
	"abstract_class_declaration":     "class",
}
