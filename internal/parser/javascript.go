package parser

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// walkJS handles JavaScript, TypeScript, and TSX, which share node types
// for everything extracted here.
func walkJS(n *sitter.Node, src []byte, acc *accumulator) {
	switch n.Type() {
	case "import_statement":
		if source := n.ChildByFieldName("source"); source != nil {
			acc.addImport(unquote(source.Content(src)))
		}
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if name := n.ChildByFieldName("name"); name != nil {
			acc.addDef(name.Content(src))
		}
	case "method_definition":
		if name := n.ChildByFieldName("name"); name != nil {
			acc.addDef(name.Content(src))
		}
	case "variable_declarator":
		// const f = () => {} / const g = function () {}
		value := n.ChildByFieldName("value")
		name := n.ChildByFieldName("name")
		if value != nil && name != nil && name.Type() == "identifier" {
			switch value.Type() {
			case "arrow_function", "function_expression", "function":
				acc.addDef(name.Content(src))
			}
		}
	case "call_expression":
		if fn := n.ChildByFieldName("function"); fn != nil {
			switch fn.Type() {
			case "identifier":
				acc.addCall(fn.Content(src))
			case "member_expression":
				if prop := fn.ChildByFieldName("property"); prop != nil {
					acc.addCall(prop.Content(src))
				}
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkJS(n.NamedChild(i), src, acc)
	}
}

func unquote(s string) string {
	s = strings.TrimSpace(s)
	if len(s) >= 2 {
		if (s[0] == '"' && s[len(s)-1] == '"') ||
			(s[0] == '\'' && s[len(s)-1] == '\'') ||
			(s[0] == '`' && s[len(s)-1] == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}
