package attention

import (
	"fmt"
	"strings"
)

// concern is a bit set of the things a node has been claimed for.
type concern uint16

const (
	concernImport concern = 1 << iota
	concernName
	concernClass
	concernCall
	concernJSX
	concernProperty
	concernParameter
	concernPunctuation
	concernObject
	concernExport
	concernBlock
	concernComment
)

// rule tags nodes whose ancestor path matches pattern. apply returns false
// when a guard rejects the node, letting the next rule in the group try.
type rule struct {
	pattern pattern
	apply   func(w *walker, i int) bool
}

type ruleGroup struct {
	name    string
	concern concern
	rules   []rule
}

var (
	functionKinds = []string{
		"function_declaration", "generator_function_declaration",
		"function_expression", "function", "method_definition",
	}
	jsxNameKinds = []string{
		"identifier", "jsx_identifier", "member_expression",
		"nested_identifier", "jsx_namespace_name",
	}
	paramKinds = []string{"required_parameter", "optional_parameter"}
)

// returnPrefixes are the ancestor paths under which a JSX element counts
// as the value returned by a declaration.
var returnPrefixes = [][]step{
	// function App() { return <X/> }
	{kind(functionKinds...), kind("statement_block"), kind("return_statement"), opt(kind("parenthesized_expression"))},
	// const App = () => <X/>
	{kind("variable_declarator"), kind("arrow_function"), opt(kind("parenthesized_expression"))},
	// const App = () => { return <X/> }
	{kind("variable_declarator"), kind("arrow_function", "function_expression", "function"), kind("statement_block"), kind("return_statement"), opt(kind("parenthesized_expression"))},
}

// ruleGroups is evaluated in order at every node.
var ruleGroups = []ruleGroup{
	{name: "import", concern: concernImport, rules: []rule{
		{pattern{kind("import_statement")}, tagText(CategoryImport, "import-declaration", "import")},
		{pattern{kind("import_clause"), kind("identifier")}, tagImportName("import-default")},
		{pattern{kind("import_specifier"), kind("identifier")}, tagImportSpecifier},
		{pattern{kind("namespace_import"), kind("identifier")}, tagImportName("import-namespace")},
		{pattern{kind("import_require_clause"), kind("identifier")}, tagImportName("import-default")},
		{pattern{kind("import_statement"), kind("string")}, tagImportPath("import-path")},
		{pattern{kind("import_require_clause"), kind("string")}, tagImportPath("import-path")},
		{pattern{kind("export_statement"), kind("string")}, tagImportPath("reexport-path")},
		{pattern{kind("call_expression"), kind("arguments"), kind("string")}, tagRequirePath},
	}},
	{name: "name", concern: concernName, rules: []rule{
		{pattern{kind("variable_declarator"), kind("identifier")}, firstNamed(tagDeclName(CategoryVariable, "variable"))},
		{pattern{kind("variable_declarator"), kind("object_pattern", "array_pattern"), kind("identifier", "shorthand_property_identifier_pattern")}, tagSpan(CategoryVariable, "destructured")},
		{pattern{kind("variable_declarator"), kind("object_pattern"), kind("pair_pattern"), kind("identifier")}, tagSpan(CategoryVariable, "destructured")},
		{pattern{kind("variable_declarator"), kind("object_pattern"), kind("object_assignment_pattern"), kind("shorthand_property_identifier_pattern")}, tagSpan(CategoryVariable, "destructured")},
		{pattern{kind("function_declaration", "generator_function_declaration"), kind("identifier")}, firstNamed(tagDeclName(CategoryFunction, "function"))},
		{pattern{kind("class_body"), kind("method_definition"), kind("property_identifier", "private_property_identifier")}, firstNamed(tagDeclName(CategoryFunction, "method"))},
	}},
	{name: "class", concern: concernClass, rules: []rule{
		{pattern{kind("class_declaration", "abstract_class_declaration", "class"), kind("type_identifier", "identifier")}, tagDeclName(CategoryClass, "class")},
	}},
	{name: "call", concern: concernCall, rules: []rule{
		{pattern{kind("call_expression")}, tagCall("call")},
		{pattern{kind("new_expression")}, tagCall("new")},
	}},
	{name: "jsx-return", concern: concernJSX, rules: returnRules()},
	{name: "jsx", concern: concernJSX, rules: []rule{
		{pattern{kind("jsx_opening_element"), kind(jsxNameKinds...)}, tagJSXName("jsx-open")},
		{pattern{kind("jsx_closing_element"), kind(jsxNameKinds...)}, tagJSXName("jsx-close")},
		{pattern{kind("jsx_self_closing_element"), kind(jsxNameKinds...)}, tagJSXName("jsx-self")},
		{pattern{kind("jsx_opening_element")}, tagFragment("<>", "jsx-fragment-open")},
		{pattern{kind("jsx_closing_element")}, tagFragment("</>", "jsx-fragment-close")},
	}},
	{name: "property", concern: concernProperty, rules: []rule{
		{pattern{kind("member_expression")}, tagPropertyAccess},
	}},
	{name: "parameter", concern: concernParameter, rules: []rule{
		{pattern{kind("formal_parameters"), kind(paramKinds...), kind("identifier")}, firstNamed(tagSpan(CategoryParameter, "param"))},
		{pattern{kind("formal_parameters"), kind("identifier")}, tagSpan(CategoryParameter, "param")},
		{pattern{kind("formal_parameters"), kind("assignment_pattern"), kind("identifier")}, firstNamed(tagSpan(CategoryParameter, "param"))},
		{pattern{kind("formal_parameters"), opt(kind(paramKinds...)), kind("rest_pattern"), kind("identifier")}, tagSpan(CategoryParameter, "param")},
		{pattern{kind("arrow_function"), kind("identifier")}, firstNamed(tagSpan(CategoryParameter, "param"))},
		{pattern{kind("formal_parameters"), opt(kind(paramKinds...)), kind("object_pattern"), kind("shorthand_property_identifier_pattern")}, tagDestructuredParam},
		{pattern{kind("formal_parameters"), opt(kind(paramKinds...)), kind("object_pattern"), kind("pair_pattern"), kind("property_identifier")}, firstNamed(tagDestructuredParam)},
		{pattern{kind("formal_parameters"), opt(kind(paramKinds...)), kind("object_pattern"), kind("object_assignment_pattern"), kind("shorthand_property_identifier_pattern")}, firstNamed(tagDestructuredParam)},
	}},
	{name: "punctuation", concern: concernPunctuation, rules: []rule{
		{pattern{kind("arrow_function"), kind("formal_parameters"), kind("(")}, tagText(CategoryParen, "arrow-paren-open", "(")},
		{pattern{kind("arrow_function"), kind("formal_parameters"), kind(")")}, tagText(CategoryParen, "arrow-paren-close", ")")},
		{pattern{kind("arrow_function"), kind("=>")}, tagText(CategoryArrow, "arrow", "=>")},
		{pattern{kind("call_expression"), kind("arguments"), kind("(")}, withArrowArgument(tagText(CategoryParen, "call-paren-open", "("))},
		{pattern{kind("call_expression"), kind("arguments"), kind(")")}, withArrowArgument(tagText(CategoryParen, "call-paren-close", ")"))},
		{pattern{kind("variable_declarator"), kind("arrow_function")}, bindDeclarator("arrow-bound")},
		{pattern{kind("variable_declarator"), kind("function_expression", "function")}, bindDeclarator("function-bound")},
	}},
	{name: "object", concern: concernObject, rules: []rule{
		{pattern{kind("object"), kind("{")}, tagText(CategoryObject, "object-open", "{")},
		{pattern{kind("object"), kind("}")}, tagText(CategoryObject, "object-close", "}")},
		{pattern{kind("object"), kind("pair"), kind("property_identifier")}, firstNamed(tagSpan(CategoryProperty, "object-prop"))},
		{pattern{kind("object"), kind("pair"), kind("string")}, firstNamed(tagString(CategoryProperty, "object-prop"))},
		{pattern{kind("object"), kind("shorthand_property_identifier")}, tagSpan(CategoryProperty, "object-prop")},
		{pattern{kind("object"), kind("method_definition"), kind("property_identifier")}, firstNamed(tagSpan(CategoryProperty, "object-prop"))},
	}},
	{name: "export", concern: concernExport, rules: []rule{
		{pattern{kind("export_statement"), kind("export")}, exportFrom(-2, "export", "export")},
		{pattern{kind("export_statement"), kind("default")}, exportFrom(-2, "export-default", "default")},
		{pattern{kind("export_statement"), kind("=")}, exportFrom(-2, "export-assignment", "=")},
		{pattern{kind("export_statement"), kind("export_clause"), kind("export_specifier"), kind("identifier")}, firstNamed(tagExportName("export-name"))},
		{pattern{kind("export_statement"), kind("identifier")}, tagExportTarget},
	}},
	{name: "block", concern: concernBlock, rules: []rule{
		{pattern{kind("statement_block"), kind("{")}, tagText(CategoryBlock, "block-open", "{")},
		{pattern{kind("statement_block"), kind("}")}, tagText(CategoryBlock, "block-close", "}")},
		{pattern{kind("class_body"), kind("{")}, tagText(CategoryBlock, "class-open", "{")},
		{pattern{kind("class_body"), kind("}")}, tagText(CategoryBlock, "class-close", "}")},
	}},
	{name: "comment", concern: concernComment, rules: []rule{
		{pattern{kind("comment")}, tagComment},
	}},
}

// returnRules crosses every return prefix with the three element shapes.
func returnRules() []rule {
	var rules []rule
	for _, prefix := range returnPrefixes {
		rules = append(rules,
			rule{seq(prefix, []step{kind("jsx_self_closing_element"), kind(jsxNameKinds...)}), tagReturned("jsx-self")},
			rule{seq(prefix, []step{kind("jsx_element"), kind("jsx_opening_element"), kind(jsxNameKinds...)}), tagReturned("jsx-open-return")},
			rule{seq(prefix, []step{kind("jsx_element"), kind("jsx_opening_element")}), tagReturnedFragment},
		)
	}
	return rules
}

type applyFunc = func(w *walker, i int) bool

func tagText(cat Category, note, display string) applyFunc {
	return func(w *walker, i int) bool {
		w.tag(i, cat, note, display)
		return true
	}
}

func tagSpan(cat Category, note string) applyFunc {
	return func(w *walker, i int) bool {
		w.tag(i, cat, note, w.tree.Span(i))
		return true
	}
}

func tagString(cat Category, note string) applyFunc {
	return func(w *walker, i int) bool {
		w.tag(i, cat, note, w.stringValue(i))
		return true
	}
}

// firstNamed only applies next to the first named child of the parent.
func firstNamed(next applyFunc) applyFunc {
	return func(w *walker, i int) bool {
		if !w.isFirstNamedChild(i) {
			return false
		}
		return next(w, i)
	}
}

// tagDeclName tags a declaration's name and links the declaration to it.
func tagDeclName(cat Category, note string) applyFunc {
	return func(w *walker, i int) bool {
		w.tag(i, cat, note, w.tree.Span(i))
		if decl := w.ancestor(1); decl >= 0 {
			w.nodes[decl].Linked = i
		}
		return true
	}
}

func tagImportName(note string) applyFunc {
	return func(w *walker, i int) bool {
		w.tag(i, CategoryImport, note, w.tree.Span(i))
		if decl := w.nearest("import_statement"); decl >= 0 && w.nodes[decl].Linked == NoLink {
			w.nodes[decl].Linked = i
		}
		return true
	}
}

// tagImportSpecifier tags the local binding of `{ a }` or `{ a as b }`.
func tagImportSpecifier(w *walker, i int) bool {
	spec := w.ancestor(1)
	last := -1
	for _, c := range w.tree.Children(spec) {
		if w.nodes[c].Kind == "identifier" {
			last = c
		}
	}
	if last != i {
		return false
	}
	return tagImportName("import-name")(w, i)
}

func tagImportPath(note string) applyFunc {
	return func(w *walker, i int) bool {
		spec := w.stringValue(i)
		w.tag(i, CategoryImport, note, spec)
		w.nodes[i].ResolvedImportPath = w.resolveImport(spec)
		return true
	}
}

// tagRequirePath tags the literal argument of require() and import().
func tagRequirePath(w *walker, i int) bool {
	call := w.ancestor(2)
	switch w.chainText(w.callee(call)) {
	case "require", "import":
	default:
		return false
	}
	return tagImportPath("require-path")(w, i)
}

func tagCall(note string) applyFunc {
	return func(w *walker, i int) bool {
		display := w.chainText(w.callee(i))
		if display == "" {
			return false
		}
		w.tag(i, CategoryCall, note, display)
		return true
	}
}

func tagJSXName(note string) applyFunc {
	return func(w *walker, i int) bool {
		w.tag(i, CategoryComponent, note, w.chainText(i))
		return true
	}
}

// tagFragment tags an opening or closing element that has no tag name.
func tagFragment(display, note string) applyFunc {
	return func(w *walker, i int) bool {
		if w.hasChildKind(i, jsxNameKinds...) {
			return false
		}
		w.tag(i, CategoryComponent, note, display)
		return true
	}
}

func tagReturned(note string) applyFunc {
	return func(w *walker, i int) bool {
		w.tag(i, CategoryComponent, note, w.chainText(i))
		w.linkReturn(i)
		return true
	}
}

func tagReturnedFragment(w *walker, i int) bool {
	if w.hasChildKind(i, jsxNameKinds...) {
		return false
	}
	w.tag(i, CategoryComponent, "jsx-fragment-open-return", "<>")
	w.linkReturn(i)
	return true
}

// linkReturn links a returned tag and the nearest named declaration below it.
func (w *walker) linkReturn(i int) {
	for j := len(w.stack) - 2; j >= 0; j-- {
		decl := w.stack[j]
		switch w.nodes[decl].Kind {
		case "variable_declarator", "function_declaration", "generator_function_declaration",
			"function_expression", "function", "method_definition":
		default:
			continue
		}
		name := w.nodes[decl].Linked
		if name == NoLink {
			continue
		}
		w.nodes[i].ReturnOf = name
		w.nodes[name].Linked = i
		return
	}
}

func tagPropertyAccess(w *walker, i int) bool {
	parent := w.ancestor(1)
	switch w.kindAt(parent) {
	case "member_expression", "nested_identifier", "jsx_opening_element",
		"jsx_closing_element", "jsx_self_closing_element":
		return false
	case "call_expression", "new_expression":
		if w.callee(parent) == i {
			return false
		}
	case "parenthesized_expression", "non_null_expression":
		if w.kindAt(w.ancestor(2)) == "member_expression" {
			return false
		}
	}
	display := w.chainText(i)
	if display == "" {
		return false
	}
	w.tag(i, CategoryProperty, "property-access", display)
	return true
}

// tagDestructuredParam renders a destructured parameter field as
// Binding.field, where Binding is the declared type name or argN.
func tagDestructuredParam(w *walker, i int) bool {
	w.tag(i, CategoryParameter, "param-destructured", w.paramBinding()+"."+w.tree.Span(i))
	return true
}

// paramBinding names the parameter enclosing the current node.
func (w *walker) paramBinding() string {
	params, param := -1, -1
	for j := len(w.stack) - 2; j >= 0; j-- {
		if w.nodes[w.stack[j]].Kind == "formal_parameters" {
			params, param = w.stack[j], w.stack[j+1]
			break
		}
	}
	if params < 0 {
		return "arg0"
	}
	if ann := w.tree.ChildByKind(param, "type_annotation"); ann >= 0 {
		if t := w.firstNamedChild(ann); t >= 0 {
			switch w.nodes[t].Kind {
			case "type_identifier", "nested_type_identifier", "generic_type":
				name := stripSpace(w.tree.Span(t))
				if cut := strings.IndexByte(name, '<'); cut >= 0 {
					name = name[:cut]
				}
				return name
			}
		}
	}
	return fmt.Sprintf("arg%d", w.namedIndex(params, param))
}

// withArrowArgument only applies when the call passes an arrow function.
func withArrowArgument(next applyFunc) applyFunc {
	return func(w *walker, i int) bool {
		if !w.hasChildKind(w.ancestor(1), "arrow_function") {
			return false
		}
		return next(w, i)
	}
}

// bindDeclarator relabels the name of a declarator whose value is a function.
func bindDeclarator(note string) applyFunc {
	return func(w *walker, i int) bool {
		decl := w.ancestor(1)
		name := w.nodes[decl].Linked
		if name == NoLink {
			return false
		}
		w.nodes[name].Note = note
		if w.exportedAbove() {
			w.nodes[name].IsExported = true
		}
		return true
	}
}

// exportFrom marks the stack from offset upward as exported and tags the keyword.
func exportFrom(offset int, note, display string) applyFunc {
	return func(w *walker, i int) bool {
		w.markExported(offset)
		w.tag(i, CategoryExport, note, display)
		return true
	}
}

func tagExportName(note string) applyFunc {
	return func(w *walker, i int) bool {
		w.tag(i, CategoryExport, note, w.tree.Span(i))
		w.nodes[i].IsExported = true
		return true
	}
}

// tagExportTarget tags the identifier of `export default foo` or `export = foo`.
func tagExportTarget(w *walker, i int) bool {
	note := "export-default"
	if w.hasChildKind(w.ancestor(1), "=") {
		note = "export-assignment"
	}
	return tagExportName(note)(w, i)
}

func tagComment(w *walker, i int) bool {
	text := w.tree.Span(i)
	note := "line-comment"
	switch {
	case strings.HasPrefix(text, "/**"):
		note = "doc-comment"
	case strings.HasPrefix(text, "/*"):
		note = "block-comment"
	}
	w.tag(i, CategoryComment, note, text)
	return true
}
