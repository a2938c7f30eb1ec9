package parser

import sitter "github.com/smacker/go-tree-sitter"

// walkPython visits every node and records imports, top-level definitions
// (functions and classes, including methods), and call names.
func walkPython(n *sitter.Node, src []byte, acc *accumulator) {
	switch n.Type() {
	case "import_statement":
		// import a.b, c as d
		for i := 0; i < int(n.NamedChildCount()); i++ {
			c := n.NamedChild(i)
			switch c.Type() {
			case "dotted_name":
				acc.addImport(c.Content(src))
			case "aliased_import":
				if name := c.ChildByFieldName("name"); name != nil {
					acc.addImport(name.Content(src))
				}
			}
		}
	case "import_from_statement":
		// from a.b import x / from . import y: module_name carries the
		// dotted or relative module path.
		if mod := n.ChildByFieldName("module_name"); mod != nil {
			acc.addImport(mod.Content(src))
		}
	case "function_definition", "class_definition":
		if name := n.ChildByFieldName("name"); name != nil {
			acc.addDef(name.Content(src))
		}
	case "call":
		if fn := n.ChildByFieldName("function"); fn != nil {
			switch fn.Type() {
			case "identifier":
				acc.addCall(fn.Content(src))
			case "attribute":
				if attr := fn.ChildByFieldName("attribute"); attr != nil {
					acc.addCall(attr.Content(src))
				}
			}
		}
	}
	for i := 0; i < int(n.NamedChildCount()); i++ {
		walkPython(n.NamedChild(i), src, acc)
	}
}
