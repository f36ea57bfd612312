// Package parsers parses TypeScript and JavaScript sources with tree-sitter
// and flattens the resulting syntax trees into pre-order node lists.
package parsers

import (
	"context"
	"encoding/json"
	"strings"
)

// KindComment is the node kind tree-sitter uses for every comment form.
const KindComment = "comment"

// FlatNode is one syntax-tree node in pre-order.
//
// Depth is the node's nesting level (0 for the root); a child's depth is
// its parent's depth plus one. Kind is the tree-sitter node type; anonymous
// tokens use their literal text such as "(" or "=>". Field is the name
// under which the parent holds this node, if any.
type FlatNode struct {
	Depth       int    `json:"depth"`
	Kind        string `json:"kind"`
	Field       string `json:"field,omitempty"`
	Text        string `json:"text,omitempty"` // leaves only
	StartLine   int    `json:"startLine"`
	EndLine     int    `json:"endLine"`
	StartByte   int    `json:"startByte"`
	EndByte     int    `json:"endByte"`
	HasChildren bool   `json:"hasChildren"`
	Named       bool   `json:"named"`
}

// FlatTree is a flattened parse of one source file.
type FlatTree struct {
	Path     string
	Language string
	Source   []byte
	Nodes    []FlatNode

	// HasError is set when tree-sitter had to recover from syntax errors.
	HasError bool

	ends []int
}

// Span returns the full source text covered by node i.
func (t *FlatTree) Span(i int) string {
	n := t.Nodes[i]
	if n.StartByte < 0 || n.EndByte > len(t.Source) || n.StartByte > n.EndByte {
		return ""
	}
	return string(t.Source[n.StartByte:n.EndByte])
}

// SubtreeEnd returns the index one past the last descendant of node i.
func (t *FlatTree) SubtreeEnd(i int) int {
	if t.ends == nil {
		t.ends = subtreeEnds(t.Nodes)
	}
	return t.ends[i]
}

// Children returns the indices of node i's direct children in source order.
func (t *FlatTree) Children(i int) []int {
	var out []int
	end := t.SubtreeEnd(i)
	for c := i + 1; c < end; c = t.SubtreeEnd(c) {
		out = append(out, c)
	}
	return out
}

// ChildByField returns the index of the child of node i held under field, or -1.
func (t *FlatTree) ChildByField(i int, field string) int {
	for _, c := range t.Children(i) {
		if t.Nodes[c].Field == field {
			return c
		}
	}
	return -1
}

// ChildByKind returns the index of the first direct child of node i with kind, or -1.
func (t *FlatTree) ChildByKind(i int, kind string) int {
	for _, c := range t.Children(i) {
		if t.Nodes[c].Kind == kind {
			return c
		}
	}
	return -1
}

// Leaves returns the concatenated text of every leaf under node i, joined by sep.
func (t *FlatTree) Leaves(i int, sep string) string {
	var parts []string
	for c := i; c < t.SubtreeEnd(i); c++ {
		if !t.Nodes[c].HasChildren && t.Nodes[c].Text != "" {
			parts = append(parts, t.Nodes[c].Text)
		}
	}
	return strings.Join(parts, sep)
}

// MarshalJSON writes the node list only.
func (t *FlatTree) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.Nodes)
}

// subtreeEnds computes, for every node, the index just past its subtree.
func subtreeEnds(nodes []FlatNode) []int {
	ends := make([]int, len(nodes))
	var open []int
	for i, n := range nodes {
		for len(open) > 0 && nodes[open[len(open)-1]].Depth >= n.Depth {
			ends[open[len(open)-1]] = i
			open = open[:len(open)-1]
		}
		open = append(open, i)
	}
	for _, i := range open {
		ends[i] = len(nodes)
	}
	return ends
}

// Parser turns source code into a flat tree.
type Parser interface {
	// Parse parses content and flattens the syntax tree.
	Parse(ctx context.Context, filePath string, content []byte) (*FlatTree, error)

	// Language returns the grammar this parser uses for filePath.
	Language(filePath string) string
}
