package correlate

import (
	"github.com/covgap/covgap/internal/lang"
	sitter "github.com/smacker/go-tree-sitter"
)

// The Java grammar has shipped both a unified comment node and the
// line/block split; accept either.
var javaCommentTypes = map[string]bool{
	"comment":       true,
	"line_comment":  true,
	"block_comment": true,
}

// buildJavaUnit extracts a Java method, constructor, class, enum, or
// record. Methods are named Class.name; constructors already carry the
// class name and are not prefixed.
func buildJavaUnit(res *lang.ParseResult, node *sitter.Node, kind string, depth int) (unit, bool) {
	nameNode := lang.ChildByField(node, "name")
	if nameNode == nil {
		return unit{}, false
	}
	name := res.NodeText(nameNode)
	if node.Type() == "method_declaration" {
		if class := enclosingJavaTypeName(res, node); class != "" {
			name = class + "." + name
		}
	}
	start, end := lang.LineRange(node)
	return unit{
		name:      name,
		kind:      kind,
		startLine: start,
		endLine:   end,
		signature: headerText(res, node, lang.ChildByField(node, "body")),
		docstring: precedingComments(res, node, javaCommentTypes),
		depth:     depth,
	}, true
}

// enclosingJavaTypeName returns the name of the type declaration a
// member belongs to.
func enclosingJavaTypeName(res *lang.ParseResult, node *sitter.Node) string {
	for p := node.Parent(); p != nil; p = p.Parent() {
		switch p.Type() {
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			if nameNode := lang.ChildByField(p, "name"); nameNode != nil {
				return res.NodeText(nameNode)
			}
			return ""
		}
	}
	return ""
}
