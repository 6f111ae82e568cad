package correlate

import (
	"github.com/covgap/covgap/internal/lang"
	sitter "github.com/smacker/go-tree-sitter"
)

var scriptCommentTypes = map[string]bool{"comment": true}

// buildScriptUnit extracts a JavaScript or TypeScript declaration found
// through the unit-type table: function and generator declarations,
// class methods, and classes. Anonymous declarations (default exports,
// class expressions) are skipped; arrow functions are handled separately
// through their variable declarators.
func buildScriptUnit(res *lang.ParseResult, node *sitter.Node, kind string, depth int) (unit, bool) {
	nameNode := lang.ChildByField(node, "name")
	if nameNode == nil {
		return unit{}, false
	}
	name := res.NodeText(nameNode)
	if kind == "method" {
		if class := enclosingScriptClassName(res, node); class != "" {
			name = class + "." + name
		}
	}
	start, end := lang.LineRange(node)
	doc := node
	if p := node.Parent(); p != nil && p.Type() == "export_statement" {
		doc = p
	}
	return unit{
		name:      name,
		kind:      kind,
		startLine: start,
		endLine:   end,
		signature: headerText(res, node, lang.ChildByField(node, "body")),
		docstring: precedingComments(res, doc, scriptCommentTypes),
		depth:     depth,
	}, true
}

// buildBoundFunction extracts an arrow function or function expression
// bound to a name through a variable declarator. The unit starts on the
// declaration line and ends where the function body ends.
func buildBoundFunction(res *lang.ParseResult, node *sitter.Node, depth int) (unit, bool) {
	if res.Language != lang.JavaScript && res.Language != lang.TypeScript {
		return unit{}, false
	}
	if node.Type() != "variable_declarator" {
		return unit{}, false
	}
	value := lang.ChildByField(node, "value")
	if value == nil {
		return unit{}, false
	}
	switch value.Type() {
	case "arrow_function", "function_expression", "function", "generator_function":
	default:
		return unit{}, false
	}
	nameNode := lang.ChildByField(node, "name")
	if nameNode == nil {
		return unit{}, false
	}

	// climb to the statement so the header and any leading comment
	// include the const/let keyword and the export wrapper
	stmt := node
	for p := stmt.Parent(); p != nil; p = p.Parent() {
		t := p.Type()
		if t != "lexical_declaration" && t != "variable_declaration" && t != "export_statement" {
			break
		}
		stmt = p
	}

	start, _ := lang.LineRange(node)
	_, end := lang.LineRange(value)
	return unit{
		name:      res.NodeText(nameNode),
		kind:      "function",
		startLine: start,
		endLine:   end,
		signature: headerText(res, stmt, lang.ChildByField(value, "body")),
		docstring: precedingComments(res, stmt, scriptCommentTypes),
		depth:     depth,
	}, true
}

// enclosingScriptClassName returns the name of the class a method
// belongs to, or "" for object-literal methods.
func enclosingScriptClassName(res *lang.ParseResult, node *sitter.Node) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_declaration", "abstract_class_declaration", "class":
			if nameNode := lang.ChildByField(p, "name"); nameNode != nil {
				return res.NodeText(nameNode)
			}
			return ""
		}
	}
	return ""
}
