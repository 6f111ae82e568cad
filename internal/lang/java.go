package lang

import (
	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/java"
)

// newJavaParser creates a tree-sitter parser configured for Java.
func newJavaParser() *sitter.Parser {
	parser := sitter.NewParser()
	parser.SetLanguage(java.GetLanguage())
	return parser
}

// JavaUnitTypes maps tree-sitter node types to the unit kind they
// declare. Enums and records are classes for coverage purposes: both can
// hold executable method bodies.
var JavaUnitTypes = map[string]string{
	"method_declaration":      "method",
	"constructor_declaration": "method",
	"class_declaration":       "class",
	"enum_declaration":        "class",
	"record_declaration":      "class",
}
