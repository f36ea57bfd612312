package parsers

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Flatten walks a syntax tree in pre-order and returns one FlatNode per node.
//
// tree-sitter keeps comments as ordinary children, so each comment is
// emitted once, in source position, at the depth of the node it precedes.
// Comment nodes are never descended into. Field names are looked up with
// ChildByFieldName for the fields in trackedFields. The walk uses an explicit stack
// so that deeply nested sources cannot exhaust the goroutine stack.
func Flatten(root *sitter.Node, src []byte) []FlatNode {
	if root == nil {
		return nil
	}

	type frame struct {
		node  *sitter.Node
		depth int
		field string
	}

	var out []FlatNode
	stack := []frame{{node: root}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n := f.node

		count := int(n.ChildCount())
		leaf := count == 0 || n.Type() == KindComment

		flat := FlatNode{
			Depth:       f.depth,
			Kind:        n.Type(),
			Field:       f.field,
			StartLine:   int(n.StartPoint().Row) + 1,
			EndLine:     int(n.EndPoint().Row) + 1,
			StartByte:   int(n.StartByte()),
			EndByte:     int(n.EndByte()),
			HasChildren: !leaf,
			Named:       n.IsNamed(),
		}
		if leaf {
			flat.Text = n.Content(src)
		}
		out = append(out, flat)

		if leaf {
			continue
		}
		fields := childFields(n)
		for i := count - 1; i >= 0; i-- {
			child := n.Child(i)
			if child == nil {
				continue
			}
			stack = append(stack, frame{node: child, depth: f.depth + 1, field: fields[keyOf(child)]})
		}
	}
	return out
}

// trackedFields are the grammar field names the attention rules look at.
var trackedFields = []string{
	"name", "value", "body", "function", "arguments", "object", "property",
	"parameters", "parameter", "pattern", "source", "open_tag", "close_tag",
	"key", "left", "type", "declaration", "constructor", "return_type",
	"alias",
}

type nodeKey struct {
	start, end uint32
	kind       string
}

func keyOf(n *sitter.Node) nodeKey {
	return nodeKey{start: n.StartByte(), end: n.EndByte(), kind: n.Type()}
}

// childFields maps each field-held child of n to its field name.
func childFields(n *sitter.Node) map[nodeKey]string {
	fields := make(map[nodeKey]string)
	for _, name := range trackedFields {
		c := n.ChildByFieldName(name)
		if c == nil {
			continue
		}
		if _, taken := fields[keyOf(c)]; !taken {
			fields[keyOf(c)] = name
		}
	}
	return fields
}
