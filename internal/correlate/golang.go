package correlate

import (
	"strings"

	"github.com/covgap/covgap/internal/lang"
	sitter "github.com/smacker/go-tree-sitter"
)

var goCommentTypes = map[string]bool{"comment": true}

// buildGoUnit extracts a Go function or method declaration. Methods are
// named Receiver.Name with the pointer star dropped.
func buildGoUnit(res *lang.ParseResult, node *sitter.Node, kind string, depth int) (unit, bool) {
	nameNode := lang.ChildByField(node, "name")
	if nameNode == nil {
		return unit{}, false
	}
	name := res.NodeText(nameNode)
	if kind == "method" {
		if recv := goReceiverType(res, node); recv != "" {
			name = recv + "." + name
		}
	}
	start, end := lang.LineRange(node)
	return unit{
		name:      name,
		kind:      kind,
		startLine: start,
		endLine:   end,
		signature: headerText(res, node, lang.ChildByField(node, "body")),
		docstring: precedingComments(res, node, goCommentTypes),
		depth:     depth,
	}, true
}

// goReceiverType returns the bare receiver type name of a method.
func goReceiverType(res *lang.ParseResult, node *sitter.Node) string {
	recv := lang.ChildByField(node, "receiver")
	if recv == nil {
		return ""
	}
	decl := lang.ChildByType(recv, "parameter_declaration")
	if decl == nil {
		return ""
	}
	typeNode := lang.ChildByField(decl, "type")
	if typeNode == nil {
		return ""
	}
	return strings.TrimPrefix(res.NodeText(typeNode), "*")
}
