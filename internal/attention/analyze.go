package attention

import (
	"path/filepath"
	"strings"
	"unicode"

	"github.com/Benny93/tsmap/internal/logging"
	"github.com/Benny93/tsmap/internal/parsers"
)

// ImportResolver maps an import specifier to a file path.
type ImportResolver interface {
	Resolve(fromDir, baseDir, specifier string) (string, bool)
}

// Options configures one analysis.
type Options struct {
	// Resolver resolves import path literals. Nil leaves them unresolved.
	Resolver ImportResolver

	// FromDir is the directory of the analyzed file.
	FromDir string

	// BaseDir is the project root. Resolved paths are reported relative to it.
	BaseDir string

	// Debug logs the ancestor path and matching rule of every tagged node.
	Debug  bool
	Logger *logging.Logger
}

// Analyze runs the rule table over every node of tree.
func Analyze(tree *parsers.FlatTree, opts Options) *Result {
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	w := &walker{
		tree:  tree,
		opts:  opts,
		nodes: make([]Node, len(tree.Nodes)),
	}
	for i, fn := range tree.Nodes {
		w.nodes[i] = Node{FlatNode: fn, Linked: NoLink, ReturnOf: NoLink, SequenceIndex: i}
	}

	for i := range w.nodes {
		w.push(i)
		w.match(i)
	}
	return &Result{Tree: tree, Nodes: w.nodes}
}

// walker holds the ancestor stack while the rules run.
type walker struct {
	tree   *parsers.FlatTree
	opts   Options
	nodes  []Node
	stack  []int
	frames []frame
}

// push pops every entry at or below node i's depth, then pushes i.
// A depth jump of more than one is treated as a direct child of the top.
func (w *walker) push(i int) {
	depth := w.nodes[i].Depth
	if depth < 0 {
		depth = 0
	}
	if depth > len(w.stack) {
		depth = len(w.stack)
	}
	w.stack = w.stack[:depth]
	w.frames = w.frames[:depth]
	w.stack = append(w.stack, i)
	w.frames = append(w.frames, frame{kind: w.nodes[i].Kind, field: w.nodes[i].Field})
}

// match applies each rule group to the current node. Within a group the
// first applying rule wins; groups sharing a concern skip nodes that an
// earlier group already claimed.
func (w *walker) match(i int) {
	for gi := range ruleGroups {
		g := &ruleGroups[gi]
		if w.nodes[i].concerns&g.concern != 0 {
			continue
		}
		for ri := range g.rules {
			r := &g.rules[ri]
			if !r.pattern.matches(w.frames) {
				continue
			}
			if !r.apply(w, i) {
				continue
			}
			w.nodes[i].concerns |= g.concern
			if w.opts.Debug && w.nodes[i].Tagged() {
				w.opts.Logger.Debug("%d %s [%s] %s", w.nodes[i].StartLine, w.nodes[i].Path, g.name, r.pattern)
			}
			break
		}
	}
}

// ancestor returns the stack entry up levels above the current node, or -1.
func (w *walker) ancestor(up int) int {
	j := len(w.stack) - 1 - up
	if j < 0 {
		return -1
	}
	return w.stack[j]
}

func (w *walker) kindAt(i int) string {
	if i < 0 {
		return ""
	}
	return w.nodes[i].Kind
}

// tag categorizes node i. Exported status is inherited from the stack.
func (w *walker) tag(i int, cat Category, note, display string) {
	n := &w.nodes[i]
	n.Category = cat
	n.Note = note
	if cat == CategoryComment {
		n.Display = display
	} else {
		n.Display = stripSpace(display)
	}
	if w.exportedAbove() {
		n.IsExported = true
	}
	if len(w.stack) > 0 && w.stack[len(w.stack)-1] == i {
		n.Path = pathString(w.frames)
	}
}

// exportedAbove reports whether any node on the stack is exported.
func (w *walker) exportedAbove() bool {
	for _, j := range w.stack {
		if w.nodes[j].IsExported {
			return true
		}
	}
	return false
}

// markExported flags the stack entries from offset (relative to the stack
// length) to the top as exported.
func (w *walker) markExported(offset int) {
	start := len(w.stack) + offset
	if start < 0 {
		start = 0
	}
	for _, j := range w.stack[start:] {
		w.nodes[j].IsExported = true
	}
}

// nearest returns the closest stack entry with one of kinds, or -1.
func (w *walker) nearest(kinds ...string) int {
	for j := len(w.stack) - 1; j >= 0; j-- {
		k := w.nodes[w.stack[j]].Kind
		for _, want := range kinds {
			if k == want {
				return w.stack[j]
			}
		}
	}
	return -1
}

// isFirstNamedChild reports whether i is the first named child of its parent.
func (w *walker) isFirstNamedChild(i int) bool {
	parent := w.ancestor(1)
	if parent < 0 {
		return false
	}
	for _, c := range w.tree.Children(parent) {
		if w.nodes[c].Named {
			return c == i
		}
	}
	return false
}

// namedIndex returns the position of i among its parent's named children.
func (w *walker) namedIndex(parent, i int) int {
	n := 0
	for _, c := range w.tree.Children(parent) {
		if c == i {
			return n
		}
		if w.nodes[c].Named {
			n++
		}
	}
	return n
}

// hasChildKind reports whether node i has a direct child of kind.
func (w *walker) hasChildKind(i int, kinds ...string) bool {
	for _, c := range w.tree.Children(i) {
		for _, k := range kinds {
			if w.nodes[c].Kind == k {
				return true
			}
		}
	}
	return false
}

// resolveImport resolves an import literal, reporting the result relative
// to BaseDir when one is set.
func (w *walker) resolveImport(spec string) string {
	if w.opts.Resolver == nil {
		return ""
	}
	p, ok := w.opts.Resolver.Resolve(w.opts.FromDir, w.opts.BaseDir, spec)
	if !ok {
		return ""
	}
	if w.opts.BaseDir == "" {
		return filepath.ToSlash(p)
	}
	base, err := filepath.Abs(w.opts.BaseDir)
	if err != nil {
		return filepath.ToSlash(p)
	}
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}

// stringValue returns the unquoted contents of a string literal node.
func (w *walker) stringValue(i int) string {
	return strings.Trim(w.tree.Span(i), "'\"`")
}

func stripSpace(s string) string {
	if !strings.ContainsFunc(s, unicode.IsSpace) {
		return s
	}
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}
