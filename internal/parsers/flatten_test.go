package parsers

import (
	"context"
	"strings"
	"testing"
	"unicode"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseTSX(t *testing.T, src string) *FlatTree {
	t.Helper()
	tree, err := NewTypeScriptParser().Parse(context.Background(), "test.tsx", []byte(src))
	require.NoError(t, err)
	return tree
}

func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func findKind(tree *FlatTree, kind string) int {
	for i, n := range tree.Nodes {
		if n.Kind == kind {
			return i
		}
	}
	return -1
}

const sampleComponent = `import React, { useState } from 'react';
// Counter shows a number.
export function Counter({ start }: Props) {
  const [n, setN] = useState(start);
  return (
    <div className="counter">
      <Button onClick={() => setN(n + 1)}>add</Button>
    </div>
  );
}
`

func TestFlatten_DepthInvariants(t *testing.T) {
	t.Parallel()

	tree := parseTSX(t, sampleComponent)
	require.NotEmpty(t, tree.Nodes)
	assert.False(t, tree.HasError)

	assert.Equal(t, 0, tree.Nodes[0].Depth)
	assert.Equal(t, "program", tree.Nodes[0].Kind)
	for i := 1; i < len(tree.Nodes); i++ {
		assert.Greater(t, tree.Nodes[i].Depth, 0, "only the root has depth 0")
		assert.LessOrEqual(t, tree.Nodes[i].Depth, tree.Nodes[i-1].Depth+1, "node %d jumps more than one level", i)
	}
}

func TestFlatten_RoundTrip(t *testing.T) {
	t.Parallel()

	tree := parseTSX(t, sampleComponent)

	var leaves strings.Builder
	for _, n := range tree.Nodes {
		if !n.HasChildren {
			leaves.WriteString(n.Text)
		}
	}
	assert.Equal(t, stripSpace(sampleComponent), stripSpace(leaves.String()))
}

func TestFlatten_Comments(t *testing.T) {
	t.Parallel()

	tree := parseTSX(t, "// first\n/** doc */\nconst a = 1;\n")

	require.GreaterOrEqual(t, len(tree.Nodes), 3)
	assert.Equal(t, KindComment, tree.Nodes[1].Kind)
	assert.Equal(t, "// first", tree.Nodes[1].Text)
	assert.Equal(t, 1, tree.Nodes[1].Depth)
	assert.False(t, tree.Nodes[1].HasChildren)

	assert.Equal(t, KindComment, tree.Nodes[2].Kind)
	assert.Equal(t, "/** doc */", tree.Nodes[2].Text)

	decl := findKind(tree, "lexical_declaration")
	require.NotEqual(t, -1, decl)
	assert.Equal(t, 1, tree.Nodes[decl].Depth, "comment shares the depth of the node it precedes")
	assert.Greater(t, decl, 2)

	comments := 0
	for _, n := range tree.Nodes {
		if n.Kind == KindComment {
			comments++
		}
	}
	assert.Equal(t, 2, comments, "each comment is emitted once")
}

func TestFlatten_FieldsAndLines(t *testing.T) {
	t.Parallel()

	tree := parseTSX(t, "\nconst answer = 42;\n")

	decl := findKind(tree, "variable_declarator")
	require.NotEqual(t, -1, decl)

	name := tree.ChildByField(decl, "name")
	require.NotEqual(t, -1, name)
	assert.Equal(t, "identifier", tree.Nodes[name].Kind)
	assert.Equal(t, "answer", tree.Nodes[name].Text)
	assert.Equal(t, 2, tree.Nodes[name].StartLine)
	assert.True(t, tree.Nodes[name].Named)

	value := tree.ChildByField(decl, "value")
	require.NotEqual(t, -1, value)
	assert.Equal(t, "number", tree.Nodes[value].Kind)

	eq := tree.ChildByKind(decl, "=")
	require.NotEqual(t, -1, eq)
	assert.False(t, tree.Nodes[eq].Named)
	assert.Equal(t, "", tree.Nodes[eq].Field)

	assert.Equal(t, "const answer = 42;", tree.Span(findKind(tree, "lexical_declaration")))
}

func TestFlatten_Nil(t *testing.T) {
	t.Parallel()
	assert.Nil(t, Flatten(nil, nil))
}

func TestFlatTree_Navigation(t *testing.T) {
	t.Parallel()

	// a
	//   b
	//     c
	//   d
	// e is a sibling of a's children at depth 1
	tree := &FlatTree{Nodes: []FlatNode{
		{Depth: 0, Kind: "a", HasChildren: true},
		{Depth: 1, Kind: "b", HasChildren: true, Field: "left"},
		{Depth: 2, Kind: "c", Text: "x"},
		{Depth: 1, Kind: "d", Text: "y", Field: "right"},
		{Depth: 1, Kind: "e", Text: "z"},
	}}

	assert.Equal(t, 5, tree.SubtreeEnd(0))
	assert.Equal(t, 3, tree.SubtreeEnd(1))
	assert.Equal(t, 3, tree.SubtreeEnd(2))
	assert.Equal(t, []int{1, 3, 4}, tree.Children(0))
	assert.Equal(t, []int{2}, tree.Children(1))
	assert.Nil(t, tree.Children(2))
	assert.Equal(t, 3, tree.ChildByField(0, "right"))
	assert.Equal(t, -1, tree.ChildByField(0, "missing"))
	assert.Equal(t, 4, tree.ChildByKind(0, "e"))
	assert.Equal(t, "x.y.z", tree.Leaves(0, "."))
}

func TestTypeScriptParser_Language(t *testing.T) {
	t.Parallel()

	p := NewTypeScriptParser()
	assert.Equal(t, GrammarTypeScript, p.Language("a.ts"))
	assert.Equal(t, GrammarTypeScript, p.Language("a.mts"))
	assert.Equal(t, GrammarTSX, p.Language("a.tsx"))
	assert.Equal(t, GrammarTSX, p.Language("a.jsx"))
	assert.Equal(t, GrammarTSX, p.Language("a.js"))

	assert.True(t, IsSourceFile("Button.TSX"))
	assert.False(t, IsSourceFile("README.md"))
}

func TestTypeScriptParser_TypeAssertion(t *testing.T) {
	t.Parallel()

	tree, err := NewTypeScriptParser().Parse(context.Background(), "cast.ts", []byte("const n = <number>value;\n"))
	require.NoError(t, err)
	assert.False(t, tree.HasError)
	assert.NotEqual(t, -1, findKind(tree, "type_assertion"))
}
