// Package graph provides the module import graph for tsmap.
//
// Files and the folders that contain them are nodes; "imports" and
// "contains" are the relationships between them. The scanner produces a
// flat list of ImportEdge records which BuildImportGraph turns into a graph
// that the diagram emitters and cycle detection walk.
package graph

// NodeLabel represents the type of a graph node.
type NodeLabel string

const (
	NodeFile   NodeLabel = "file"
	NodeFolder NodeLabel = "folder"
)

// RelType represents the type of relationship between graph nodes.
type RelType string

const (
	RelContains RelType = "contains"
	RelImports  RelType = "imports"
)

// ImportEdge is one scanned source file and the files it imports.
//
// Paths are relative to the scan's base directory and use forward slashes.
// Imports hold only specifiers that resolved to an existing file.
type ImportEdge struct {
	Source  string   `json:"source"`
	Imports []string `json:"imports"`
}

// GraphNode represents a file or folder in the import graph.
type GraphNode struct {
	// ID is the unique identifier for the node.
	// Format: {label}:{path}
	ID string

	Label NodeLabel

	// Name is the last path element.
	Name string

	// Path is the slash-separated path relative to the base directory.
	// The root folder has Path ".".
	Path string

	// Order is the position of a file in scan order; folders use -1.
	Order int
}

// GraphRelationship represents a directed edge in the import graph.
type GraphRelationship struct {
	ID     string
	Type   RelType
	Source string
	Target string
}

// GenerateID creates a deterministic node ID from label and path.
func GenerateID(label NodeLabel, path string) string {
	return string(label) + ":" + path
}

// relID creates a deterministic relationship ID.
func relID(relType RelType, source, target string) string {
	return string(relType) + ":" + source + "->" + target
}
