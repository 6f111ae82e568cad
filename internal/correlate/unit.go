package correlate

import (
	"strings"

	"github.com/covgap/covgap/internal/lang"
	sitter "github.com/smacker/go-tree-sitter"
)

// unit is a structural boundary found in a source file: a function,
// method, or class with its 1-indexed inclusive line span. depth records
// how many enclosing units surround it so attribution can pick the
// innermost unit for a line.
type unit struct {
	name      string
	kind      string
	startLine int
	endLine   int
	signature string
	docstring string
	depth     int
}

// extractUnits walks the parse tree and collects every unit the language
// declares, nested units included. Units appear in document order.
func extractUnits(res *lang.ParseResult) []unit {
	types := lang.UnitTypes(res.Language)
	var units []unit

	var walk func(node *sitter.Node, depth int)
	walk = func(node *sitter.Node, depth int) {
		childDepth := depth
		if kind, ok := types[node.Type()]; ok {
			if u, ok := buildUnit(res, node, kind, depth); ok {
				units = append(units, u)
			}
			childDepth++
		} else if u, ok := buildBoundFunction(res, node, depth); ok {
			units = append(units, u)
			childDepth++
		}
		for i := uint32(0); i < node.ChildCount(); i++ {
			walk(node.Child(int(i)), childDepth)
		}
	}
	walk(res.Root, 0)
	return units
}

// buildUnit dispatches to the language-specific builder.
func buildUnit(res *lang.ParseResult, node *sitter.Node, kind string, depth int) (unit, bool) {
	switch res.Language {
	case lang.Go:
		return buildGoUnit(res, node, kind, depth)
	case lang.Python:
		return buildPythonUnit(res, node, kind, depth)
	case lang.JavaScript, lang.TypeScript:
		return buildScriptUnit(res, node, kind, depth)
	case lang.Java:
		return buildJavaUnit(res, node, kind, depth)
	}
	return unit{}, false
}

// headerText returns the declaration header: the node's text up to its
// body, collapsed to one line with the trailing brace, colon, or
// semicolon removed.
func headerText(res *lang.ParseResult, node, body *sitter.Node) string {
	if node == nil {
		return ""
	}
	start := int(node.StartByte())
	end := int(node.EndByte())
	if body != nil {
		end = int(body.StartByte())
	}
	src := res.Source
	if start > len(src) {
		start = len(src)
	}
	if end > len(src) {
		end = len(src)
	}
	if end < start {
		end = start
	}
	text := strings.Join(strings.Fields(string(src[start:end])), " ")
	text = strings.TrimSuffix(text, "{")
	text = strings.TrimSuffix(text, ":")
	text = strings.TrimSuffix(text, ";")
	return strings.TrimSpace(text)
}

// precedingComments collects the comment block that immediately precedes
// a declaration, walking backwards over comment siblings.
func precedingComments(res *lang.ParseResult, node *sitter.Node, commentTypes map[string]bool) string {
	if node == nil {
		return ""
	}
	var comments []string
	prev := node.PrevSibling()
	for prev != nil {
		t := prev.Type()
		if commentTypes[t] {
			comments = append([]string{res.NodeText(prev)}, comments...)
			prev = prev.PrevSibling()
			continue
		}
		if t != "\n" && t != "" {
			break
		}
		prev = prev.PrevSibling()
	}
	return strings.Join(comments, "\n")
}
