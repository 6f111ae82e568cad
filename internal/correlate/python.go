package correlate

import (
	"strings"

	"github.com/covgap/covgap/internal/lang"
	sitter "github.com/smacker/go-tree-sitter"
)

// buildPythonUnit extracts a Python def or class. A def whose nearest
// enclosing definition is a class becomes a method named Class.name;
// defs nested inside functions stay plain functions. Decorators sit
// outside the definition node, so the line span starts at the def or
// class line proper.
func buildPythonUnit(res *lang.ParseResult, node *sitter.Node, kind string, depth int) (unit, bool) {
	nameNode := lang.ChildByField(node, "name")
	if nameNode == nil {
		return unit{}, false
	}
	name := res.NodeText(nameNode)
	if kind == "function" {
		if class := enclosingPythonClassName(res, node); class != "" {
			kind = "method"
			name = class + "." + name
		}
	}
	start, end := lang.LineRange(node)
	body := lang.ChildByField(node, "body")
	return unit{
		name:      name,
		kind:      kind,
		startLine: start,
		endLine:   end,
		signature: headerText(res, node, body),
		docstring: pythonDocstring(res, body),
		depth:     depth,
	}, true
}

// enclosingPythonClassName returns the class a definition belongs to, or
// "" when the nearest enclosing definition is a function.
func enclosingPythonClassName(res *lang.ParseResult, node *sitter.Node) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "function_definition":
			return ""
		case "class_definition":
			if nameNode := lang.ChildByField(p, "name"); nameNode != nil {
				return res.NodeText(nameNode)
			}
			return ""
		}
	}
	return ""
}

// pythonDocstring returns the docstring literal opening a definition
// body, quote delimiters stripped.
func pythonDocstring(res *lang.ParseResult, body *sitter.Node) string {
	if body == nil || body.ChildCount() == 0 {
		return ""
	}
	first := body.Child(0)
	if first == nil || first.Type() != "expression_statement" {
		return ""
	}
	str := lang.ChildByType(first, "string")
	if str == nil {
		return ""
	}
	return stripPythonQuotes(res.NodeText(str))
}

// stripPythonQuotes removes the quote delimiters and any r/b/u/f prefix
// from a Python string literal.
func stripPythonQuotes(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, "'''", `"`, "'"} {
		if strings.HasPrefix(s, q) && strings.HasSuffix(s, q) && len(s) >= 2*len(q) {
			return strings.TrimSpace(s[len(q) : len(s)-len(q)])
		}
	}
	return strings.TrimSpace(s)
}
