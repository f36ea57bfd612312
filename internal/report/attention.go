package report

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/fatih/color"

	"github.com/Benny93/tsmap/internal/attention"
)

// FileAttention is the attention listing of one scanned file.
type FileAttention struct {
	// Source is the file path relative to Base.
	Source string
	Base   string
	Nodes  []attention.Node
}

// AttentionRow is one rendered attention node.
type AttentionRow struct {
	Line   int    `json:"line"`
	Kind   string `json:"kind"`
	Text   string `json:"text"`
	Indent int    `json:"indent"`
	Export bool   `json:"export"`
	Path   string `json:"path"`
	Note   string `json:"note"`
	Depth  int    `json:"-"`
}

// Rows renders nodes in order, tracking the open/close indentation counter:
// a note containing "close" dedents before its row, one containing "open"
// indents the rows after it. The counter never goes below zero.
func Rows(nodes []attention.Node) []AttentionRow {
	rows := make([]AttentionRow, 0, len(nodes))
	indent := 0
	for _, n := range nodes {
		if strings.Contains(n.Note, "close") && indent > 0 {
			indent--
		}
		rows = append(rows, AttentionRow{
			Line:   n.StartLine,
			Kind:   string(n.Category),
			Text:   DisplayText(n),
			Indent: indent,
			Export: n.IsExported,
			Path:   n.ResolvedImportPath,
			Note:   n.Note,
			Depth:  n.Depth,
		})
		if strings.Contains(n.Note, "open") {
			indent++
		}
	}
	return rows
}

// DisplayText renders a node for reports. JSX tag names become tags;
// everything else is shown as matched.
func DisplayText(n attention.Node) string {
	if n.Category != attention.CategoryComponent {
		return n.Display
	}
	switch n.Note {
	case "jsx-open", "jsx-open-return":
		return "<" + n.Display + ">"
	case "jsx-close":
		return "</" + n.Display + ">"
	case "jsx-self":
		return "<" + n.Display + " />"
	}
	return n.Display
}

// WriteAttentionCSV writes one block per file: a `# source` line, a header
// and one row per node with the display text indented.
func WriteAttentionCSV(w io.Writer, files []FileAttention) error {
	bw := bufio.NewWriter(w)
	for i, file := range files {
		if i > 0 {
			bw.WriteString("\n")
		}
		fmt.Fprintf(bw, "# %s\n", file.Source)

		records := []Record{Row("line", "kind", "text", "export", "path")}
		for _, row := range Rows(file.Nodes) {
			export := ""
			if row.Export {
				export = "export"
			}
			records = append(records, Row(
				strconv.Itoa(row.Line),
				row.Kind,
				strings.Repeat("  ", row.Indent)+row.Text,
				export,
				row.Path,
			))
		}
		bw.WriteString(FormatDelimited(records, ','))
		bw.WriteString("\n")
	}
	return bw.Flush()
}

type attentionDocument struct {
	Source string         `json:"source"`
	Base   string         `json:"base"`
	Nodes  []AttentionRow `json:"nodes"`
}

// WriteAttentionJSON writes every file as one JSON array.
func WriteAttentionJSON(w io.Writer, files []FileAttention) error {
	docs := make([]attentionDocument, 0, len(files))
	for _, file := range files {
		docs = append(docs, attentionDocument{
			Source: file.Source,
			Base:   file.Base,
			Nodes:  Rows(file.Nodes),
		})
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(docs)
}

var categoryColors = map[attention.Category]*color.Color{
	attention.CategoryImport:    color.New(color.FgMagenta),
	attention.CategoryVariable:  color.New(color.FgCyan),
	attention.CategoryFunction:  color.New(color.FgGreen, color.Bold),
	attention.CategoryClass:     color.New(color.FgGreen, color.Bold),
	attention.CategoryCall:      color.New(color.FgBlue),
	attention.CategoryComponent: color.New(color.FgYellow),
	attention.CategoryComment:   color.New(color.FgHiBlack),
	attention.CategoryExport:    color.New(color.FgRed),
}

var plain = color.New(color.Reset)

// WriteAttentionLog writes a colored listing: line, ancestor depth,
// category, indented text and the note.
func WriteAttentionLog(w io.Writer, files []FileAttention) error {
	bw := bufio.NewWriter(w)
	header := color.New(color.Bold)
	dim := color.New(color.FgHiBlack)

	for _, file := range files {
		header.Fprintf(bw, "== %s\n", file.Source)
		for _, row := range Rows(file.Nodes) {
			c, ok := categoryColors[attention.Category(row.Kind)]
			if !ok {
				c = plain
			}
			export := " "
			if row.Export {
				export = "*"
			}
			fmt.Fprintf(bw, "%5d %3d %s %s%s", row.Line, row.Depth, export,
				strings.Repeat("  ", row.Indent), c.Sprintf("%-9s %s", row.Kind, row.Text))
			dim.Fprintf(bw, "  %s", row.Note)
			if row.Path != "" {
				dim.Fprintf(bw, " -> %s", row.Path)
			}
			bw.WriteString("\n")
		}
	}
	return bw.Flush()
}
