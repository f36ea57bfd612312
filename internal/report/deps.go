package report

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/Benny93/tsmap/internal/graph"
)

// ErrUnknownMode is returned for an output mode no writer supports.
var ErrUnknownMode = errors.New("unknown output mode")

// DiagramMode selects how WriteDepsDiagram lays out components.
type DiagramMode string

const (
	// DiagramDir nests files in packages by folder.
	DiagramDir DiagramMode = "dir"
	// DiagramFile lists files flat.
	DiagramFile DiagramMode = "file"
)

// WriteDepsCSV writes one `source,import` row per edge, and a row with an
// empty import column for files that import nothing.
func WriteDepsCSV(w io.Writer, edges []graph.ImportEdge) error {
	records := []Record{Row("source", "import")}
	for _, edge := range edges {
		if len(edge.Imports) == 0 {
			records = append(records, Row(edge.Source, ""))
			continue
		}
		for _, imp := range edge.Imports {
			records = append(records, Row(edge.Source, imp))
		}
	}
	_, err := io.WriteString(w, FormatDelimited(records, ',')+"\n")
	return err
}

// WriteDepsDiagram writes the import graph as PlantUML component diagram text.
func WriteDepsDiagram(w io.Writer, g *graph.ImportGraph, mode DiagramMode) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintln(bw, "@startuml")
	switch mode {
	case DiagramDir:
		writeFolder(bw, g, graph.RootFolder, 0)
	case DiagramFile:
		for _, file := range g.GetNodesByLabel(graph.NodeFile) {
			fmt.Fprintf(bw, "[%s]\n", file.Path)
		}
	default:
		return fmt.Errorf("%w: diagram %q", ErrUnknownMode, mode)
	}

	for _, file := range g.GetNodesByLabel(graph.NodeFile) {
		for _, imp := range g.Imports(file.Path) {
			fmt.Fprintf(bw, "[%s] --> [%s]\n", file.Path, imp)
		}
	}
	fmt.Fprintln(bw, "@enduml")
	return bw.Flush()
}

// writeFolder writes a folder's children, recursing into subfolders as
// nested packages.
func writeFolder(w io.Writer, g *graph.ImportGraph, folder string, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, child := range g.Children(folder) {
		if child.Label == graph.NodeFolder {
			fmt.Fprintf(w, "%spackage %q {\n", indent, child.Name)
			writeFolder(w, g, child.Path, depth+1)
			fmt.Fprintf(w, "%s}\n", indent)
			continue
		}
		fmt.Fprintf(w, "%s[%s]\n", indent, child.Path)
	}
}
