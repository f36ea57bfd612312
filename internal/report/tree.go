package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Benny93/tsmap/internal/attention"
	"github.com/Benny93/tsmap/internal/parsers"
)

// Tree dump modes.
const (
	TreeModeTree         = "tree"
	TreeModeJSON         = "json"
	TreeModeElement      = "element"
	TreeModeSource       = "src"
	TreeModeJSXComponent = "jsx-component"
	TreeModeJSXElement   = "jsx-element"
)

// TreeModes lists every mode WriteTree accepts.
var TreeModes = []string{
	TreeModeTree, TreeModeJSON, TreeModeElement,
	TreeModeSource, TreeModeJSXComponent, TreeModeJSXElement,
}

// WriteTree dumps one parsed file. The jsx modes need the analysis result;
// the others only read the tree.
func WriteTree(w io.Writer, mode string, tree *parsers.FlatTree, res *attention.Result) error {
	if mode == TreeModeJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(tree)
	}

	bw := bufio.NewWriter(w)
	switch mode {
	case TreeModeTree:
		writeIndentedTree(bw, tree)
	case TreeModeElement:
		writeElements(bw, tree)
	case TreeModeSource:
		bw.WriteString(ReconstructSource(tree))
		bw.WriteString("\n")
	case TreeModeJSXComponent:
		if res == nil {
			res = attention.Analyze(tree, attention.Options{})
		}
		for _, cr := range res.ComponentReturns() {
			fmt.Fprintf(bw, "%s -> %s\n", cr.Name.Display, DisplayText(cr.Tag))
		}
	case TreeModeJSXElement:
		if res == nil {
			res = attention.Analyze(tree, attention.Options{})
		}
		var jsx []attention.Node
		for _, n := range res.Attention() {
			if n.Category == attention.CategoryComponent {
				jsx = append(jsx, n)
			}
		}
		for _, row := range Rows(jsx) {
			fmt.Fprintf(bw, "%5d %s%s\n", row.Line, strings.Repeat("  ", row.Indent), row.Text)
		}
	default:
		return fmt.Errorf("%w: tree %q", ErrUnknownMode, mode)
	}
	return bw.Flush()
}

func writeIndentedTree(w io.Writer, tree *parsers.FlatTree) {
	for _, n := range tree.Nodes {
		fmt.Fprintf(w, "%s%s", strings.Repeat("  ", n.Depth), n.Kind)
		if n.Field != "" {
			fmt.Fprintf(w, " [%s]", n.Field)
		}
		if !n.HasChildren && n.Named && n.Text != "" {
			fmt.Fprintf(w, " %q", n.Text)
		}
		fmt.Fprintln(w)
	}
}

// writeElements lists named nodes with their line ranges.
func writeElements(w io.Writer, tree *parsers.FlatTree) {
	for _, n := range tree.Nodes {
		if !n.Named {
			continue
		}
		fmt.Fprintf(w, "%sL%d-%d %s\n", strings.Repeat("  ", n.Depth), n.StartLine, n.EndLine, n.Kind)
	}
}

// ReconstructSource joins the tree's leaves, separating them by a newline
// where the original had one and by a space where it had other whitespace.
func ReconstructSource(tree *parsers.FlatTree) string {
	var b strings.Builder
	prevEnd := -1
	for _, n := range tree.Nodes {
		if n.HasChildren || n.Text == "" {
			continue
		}
		if prevEnd >= 0 && n.StartByte > prevEnd && n.StartByte <= len(tree.Source) {
			gap := string(tree.Source[prevEnd:n.StartByte])
			switch {
			case strings.Contains(gap, "\n"):
				b.WriteString("\n")
			case gap != "":
				b.WriteString(" ")
			}
		}
		b.WriteString(n.Text)
		prevEnd = n.EndByte
	}
	return b.String()
}
