// Package lang provides tree-sitter based source parsing for the
// languages the correlator understands. It binds one grammar per
// language and exposes a unified interface over the parse tree plus the
// per-language tables that classify which AST nodes are code units.
package lang

import (
	"context"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
)

// Language identifies a supported programming language.
type Language string

const (
	// Go is the Go programming language.
	Go Language = "go"
	// Python is the Python programming language.
	Python Language = "python"
	// JavaScript is the JavaScript programming language.
	JavaScript Language = "javascript"
	// TypeScript is the TypeScript programming language.
	TypeScript Language = "typescript"
	// Java is the Java programming language.
	Java Language = "java"
)

// Supported returns all supported languages in a stable order.
func Supported() []Language {
	return []Language{Go, Python, JavaScript, TypeScript, Java}
}

// Parser wraps a tree-sitter parser configured for one language.
type Parser struct {
	parser *sitter.Parser
	lang   Language
}

// ParseResult holds the parse tree and the source it came from.
type ParseResult struct {
	Tree     *sitter.Tree
	Root     *sitter.Node
	Source   []byte
	Language Language
}

// NewParser creates a parser for the given language. Returns an
// UnsupportedLanguageError for languages without a grammar binding.
func NewParser(lang Language) (*Parser, error) {
	var p *sitter.Parser
	switch lang {
	case Go:
		p = newGoParser()
	case Python:
		p = newPythonParser()
	case JavaScript:
		p = newJavaScriptParser()
	case TypeScript:
		p = newTypeScriptParser()
	case Java:
		p = newJavaParser()
	default:
		return nil, &UnsupportedLanguageError{Language: string(lang)}
	}
	return &Parser{parser: p, lang: lang}, nil
}

// Parse parses source code and returns the AST.
func (p *Parser) Parse(source []byte) (*ParseResult, error) {
	tree, err := p.parser.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, &ParseError{Message: err.Error()}
	}
	return &ParseResult{
		Tree:     tree,
		Root:     tree.RootNode(),
		Source:   source,
		Language: p.lang,
	}, nil
}

// Language returns the language this parser is configured for.
func (p *Parser) Language() Language {
	return p.lang
}

// Close releases parser resources. The parser must not be used after.
func (p *Parser) Close() {
	if p.parser != nil {
		p.parser.Close()
		p.parser = nil
	}
}

// Close releases the parse tree resources.
func (r *ParseResult) Close() {
	if r.Tree != nil {
		r.Tree.Close()
		r.Tree = nil
		r.Root = nil
	}
}

// HasErrors reports whether the parse tree contains syntax errors.
func (r *ParseResult) HasErrors() bool {
	return r.Root != nil && r.Root.HasError()
}

// NodeText returns the source text for a node.
func (r *ParseResult) NodeText(node *sitter.Node) string {
	if node == nil || r.Source == nil {
		return ""
	}
	return node.Content(r.Source)
}

// WalkNodes traverses the AST depth-first, calling the visitor for each
// node. Returning false from the visitor prunes that subtree.
func (r *ParseResult) WalkNodes(visitor func(*sitter.Node) bool) {
	if r.Root == nil {
		return
	}
	walkNode(r.Root, visitor)
}

func walkNode(node *sitter.Node, visitor func(*sitter.Node) bool) {
	if !visitor(node) {
		return
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		walkNode(node.Child(int(i)), visitor)
	}
}

// LineRange returns the 1-indexed inclusive line span of a node.
func LineRange(node *sitter.Node) (start, end int) {
	if node == nil {
		return 0, 0
	}
	return int(node.StartPoint().Row) + 1, int(node.EndPoint().Row) + 1
}

// ChildByField returns the child for a tree-sitter field name.
func ChildByField(node *sitter.Node, field string) *sitter.Node {
	if node == nil {
		return nil
	}
	return node.ChildByFieldName(field)
}

// ChildByType returns the first direct child of the given node type.
func ChildByType(node *sitter.Node, nodeType string) *sitter.Node {
	if node == nil {
		return nil
	}
	for i := uint32(0); i < node.ChildCount(); i++ {
		child := node.Child(int(i))
		if child.Type() == nodeType {
			return child
		}
	}
	return nil
}

// UnitTypes returns the node-type table for a language: tree-sitter node
// types mapped to the unit kind they declare ("function", "method", or
// "class").
func UnitTypes(lang Language) map[string]string {
	switch lang {
	case Go:
		return GoUnitTypes
	case Python:
		return PythonUnitTypes
	case JavaScript:
		return JavaScriptUnitTypes
	case TypeScript:
		return TypeScriptUnitTypes
	case Java:
		return JavaUnitTypes
	default:
		return nil
	}
}

// FromPath returns the language for a file path based on its extension.
// Returns empty string for unrecognized extensions.
func FromPath(path string) Language {
	return FromExtension(filepath.Ext(path))
}

// FromExtension returns the language for a file extension.
func FromExtension(ext string) Language {
	switch ext {
	case ".go":
		return Go
	case ".py", ".pyi":
		return Python
	case ".js", ".jsx", ".mjs", ".cjs":
		return JavaScript
	case ".ts", ".tsx", ".mts", ".cts":
		return TypeScript
	case ".java":
		return Java
	default:
		return ""
	}
}

// SupportedExtensions returns all file extensions recognized by FromPath.
func SupportedExtensions() []string {
	return []string{
		".go",
		".py", ".pyi",
		".js", ".jsx", ".mjs", ".cjs",
		".ts", ".tsx", ".mts", ".cts",
		".java",
	}
}
