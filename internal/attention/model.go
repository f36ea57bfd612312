// Package attention turns a flattened syntax tree into an annotated list of
// points of interest: declarations, JSX usage, calls, exports, comments and
// the punctuation that drives report indentation.
//
// Analyze walks the flat node list once with an explicit ancestor stack
// rebuilt from node depths. At every node it tests the stack's kind path
// against an ordered table of suffix patterns; matching rules tag the node
// (and sometimes an ancestor or an earlier node) with a category, a note
// and links to related nodes. Links are indices into Result.Nodes.
package attention

import (
	"sort"

	"github.com/Benny93/tsmap/internal/parsers"
)

// Category is the closed set of tags a node can receive.
type Category string

const (
	CategoryNone      Category = ""
	CategoryImport    Category = "import"
	CategoryVariable  Category = "variable"
	CategoryFunction  Category = "function"
	CategoryClass     Category = "class"
	CategoryCall      Category = "call"
	CategoryComponent Category = "component"
	CategoryComment   Category = "comment"
	CategoryProperty  Category = "property"
	CategoryObject    Category = "object"
	CategoryBlock     Category = "block"
	CategoryParameter Category = "parameter"
	CategoryExport    Category = "export"
	CategoryArrow     Category = "arrow"
	CategoryParen     Category = "paren"
)

// Categories lists every category in report order.
var Categories = []Category{
	CategoryImport, CategoryVariable, CategoryFunction, CategoryClass,
	CategoryCall, CategoryComponent, CategoryComment, CategoryProperty,
	CategoryObject, CategoryBlock, CategoryParameter, CategoryExport,
	CategoryArrow, CategoryParen,
}

// NoLink marks an absent node link.
const NoLink = -1

// Node is a flat node plus everything the rules found out about it.
type Node struct {
	parsers.FlatNode

	Category Category `json:"category,omitempty"`
	Note     string   `json:"note,omitempty"`

	// Display is the reconstructed text shown in reports. Code text has
	// whitespace removed; comment text is kept verbatim.
	Display string `json:"display,omitempty"`

	// ResolvedImportPath is set on import path literals that resolved to a file.
	ResolvedImportPath string `json:"resolvedImportPath,omitempty"`

	// Linked points from a declaration to its name node, or from a
	// component's name to the JSX tag it returns.
	Linked int `json:"linked"`

	// ReturnOf points from a returned JSX tag back to the declaration name.
	ReturnOf int `json:"returnOf"`

	IsExported    bool `json:"isExported"`
	SequenceIndex int  `json:"sequenceIndex"`

	// Path is the ancestor kind path at the time the node was tagged.
	Path string `json:"path,omitempty"`

	concerns concern
}

// Tagged reports whether any rule categorized the node.
func (n *Node) Tagged() bool {
	return n.Category != CategoryNone
}

// Result is the annotated arena for one file.
type Result struct {
	Tree  *parsers.FlatTree
	Nodes []Node
}

// Attention returns the tagged nodes with non-empty display text, in
// pre-order sequence.
func (r *Result) Attention() []Node {
	var out []Node
	for i := range r.Nodes {
		n := r.Nodes[i]
		if n.Tagged() && n.Display != "" {
			out = append(out, n)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].SequenceIndex < out[j].SequenceIndex
	})
	return out
}

// ComponentReturn pairs a declaration name with the JSX tag it returns.
type ComponentReturn struct {
	Name Node
	Tag  Node
}

// ComponentReturns lists every declaration found returning JSX, in source order.
func (r *Result) ComponentReturns() []ComponentReturn {
	var out []ComponentReturn
	for i := range r.Nodes {
		tag := r.Nodes[i]
		if tag.ReturnOf == NoLink {
			continue
		}
		out = append(out, ComponentReturn{Name: r.Nodes[tag.ReturnOf], Tag: tag})
	}
	return out
}
