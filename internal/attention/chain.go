package attention

import "strings"

// chainText renders an expression as a dotted access chain. Calls inside
// the chain are shown as "()" without their arguments; parentheses and
// non-null assertions are dropped. Expressions that are not chains render
// as "".
func (w *walker) chainText(i int) string {
	var b strings.Builder
	w.writeChain(&b, i)
	return b.String()
}

func (w *walker) writeChain(b *strings.Builder, i int) {
	if i < 0 {
		return
	}
	n := w.nodes[i]
	switch n.Kind {
	case "identifier", "property_identifier", "private_property_identifier",
		"type_identifier", "jsx_identifier", "shorthand_property_identifier",
		"this", "super", "import":
		b.WriteString(w.tree.Span(i))
	case "member_expression", "nested_identifier", "nested_type_identifier", "jsx_namespace_name":
		for _, c := range w.tree.Children(i) {
			switch w.nodes[c].Kind {
			case ".", ":":
				b.WriteString(w.nodes[c].Kind)
			case "?.", "optional_chain":
				b.WriteString("?.")
			default:
				w.writeChain(b, c)
			}
		}
	case "call_expression":
		w.writeChain(b, w.callee(i))
		if w.hasChildKind(i, "optional_chain", "?.") {
			b.WriteString("?.")
		}
		b.WriteString("()")
	case "parenthesized_expression", "non_null_expression", "as_expression",
		"satisfies_expression", "await_expression":
		for _, c := range w.tree.Children(i) {
			if w.nodes[c].Named {
				w.writeChain(b, c)
				return
			}
		}
	case "subscript_expression":
		obj := w.tree.ChildByField(i, "object")
		if obj < 0 {
			obj = w.firstNamedChild(i)
		}
		w.writeChain(b, obj)
		b.WriteString("[]")
	case "string":
		b.WriteString(w.stringValue(i))
	}
}

// callee returns the function child of a call or the constructor of a new
// expression.
func (w *walker) callee(call int) int {
	for _, f := range []string{"function", "constructor"} {
		if c := w.tree.ChildByField(call, f); c >= 0 {
			return c
		}
	}
	return w.firstNamedChild(call)
}

func (w *walker) firstNamedChild(i int) int {
	for _, c := range w.tree.Children(i) {
		if w.nodes[c].Named && w.nodes[c].Kind != "comment" {
			return c
		}
	}
	return -1
}
