package graph

import (
	"path"
	"sort"
	"sync"
)

// RootFolder is the path of the folder node representing the base directory.
const RootFolder = "."

// ImportGraph is an in-memory directed graph of files, folders and the
// imports between files.
//
// Nodes are keyed by their ID string; relationships are keyed likewise.
// Lookups by label, relationship type or adjacency go through secondary
// indexes so they are O(result) rather than O(graph).
type ImportGraph struct {
	mu            sync.RWMutex
	nodes         map[string]*GraphNode
	relationships map[string]*GraphRelationship

	byLabel   map[NodeLabel]map[string]*GraphNode
	byRelType map[RelType]map[string]*GraphRelationship
	outgoing  map[string]map[string]*GraphRelationship
	incoming  map[string]map[string]*GraphRelationship
}

// NewImportGraph creates a new empty import graph.
func NewImportGraph() *ImportGraph {
	return &ImportGraph{
		nodes:         make(map[string]*GraphNode),
		relationships: make(map[string]*GraphRelationship),
		byLabel:       make(map[NodeLabel]map[string]*GraphNode),
		byRelType:     make(map[RelType]map[string]*GraphRelationship),
		outgoing:      make(map[string]map[string]*GraphRelationship),
		incoming:      make(map[string]map[string]*GraphRelationship),
	}
}

// BuildImportGraph creates a graph from scanner edges.
//
// Every source and every import target becomes a file node, every directory
// on their paths becomes a folder node linked by contains relationships,
// and each import becomes an imports relationship.
func BuildImportGraph(edges []ImportEdge) *ImportGraph {
	g := NewImportGraph()
	g.AddNode(&GraphNode{
		ID:    GenerateID(NodeFolder, RootFolder),
		Label: NodeFolder,
		Name:  RootFolder,
		Path:  RootFolder,
		Order: -1,
	})

	for _, edge := range edges {
		g.addFile(edge.Source)
		for _, imp := range edge.Imports {
			g.addFile(imp)
		}
	}

	for _, edge := range edges {
		src := GenerateID(NodeFile, edge.Source)
		for _, imp := range edge.Imports {
			dst := GenerateID(NodeFile, imp)
			g.AddRelationship(&GraphRelationship{
				ID:     relID(RelImports, src, dst),
				Type:   RelImports,
				Source: src,
				Target: dst,
			})
		}
	}
	return g
}

// addFile adds a file node plus its folder chain, keeping the first Order seen.
func (g *ImportGraph) addFile(filePath string) {
	id := GenerateID(NodeFile, filePath)
	if g.GetNode(id) != nil {
		return
	}
	g.AddNode(&GraphNode{
		ID:    id,
		Label: NodeFile,
		Name:  path.Base(filePath),
		Path:  filePath,
		Order: g.CountNodesByLabel(NodeFile),
	})

	child := id
	dir := path.Dir(filePath)
	for {
		folderID := GenerateID(NodeFolder, dir)
		if g.GetNode(folderID) == nil {
			g.AddNode(&GraphNode{
				ID:    folderID,
				Label: NodeFolder,
				Name:  path.Base(dir),
				Path:  dir,
				Order: -1,
			})
		}
		g.AddRelationship(&GraphRelationship{
			ID:     relID(RelContains, folderID, child),
			Type:   RelContains,
			Source: folderID,
			Target: child,
		})
		if dir == RootFolder || dir == "/" {
			return
		}
		child = folderID
		dir = path.Dir(dir)
	}
}

// NodeCount returns the number of nodes without list materialization.
func (g *ImportGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// RelationshipCount returns the number of relationships without list materialization.
func (g *ImportGraph) RelationshipCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.relationships)
}

// CountNodesByLabel returns the count of nodes with the given label.
func (g *ImportGraph) CountNodesByLabel(label NodeLabel) int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.byLabel[label])
}

// AddNode adds a node to the graph, replacing any existing node with the same ID.
func (g *ImportGraph) AddNode(node *GraphNode) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.nodes[node.ID]; ok && old.Label != node.Label {
		delete(g.byLabel[old.Label], node.ID)
	}

	g.nodes[node.ID] = node

	if g.byLabel[node.Label] == nil {
		g.byLabel[node.Label] = make(map[string]*GraphNode)
	}
	g.byLabel[node.Label][node.ID] = node
}

// GetNode returns the node with the given ID, or nil if it does not exist.
func (g *ImportGraph) GetNode(nodeID string) *GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.nodes[nodeID]
}

// AddRelationship adds a relationship, replacing any existing one with the same ID.
func (g *ImportGraph) AddRelationship(rel *GraphRelationship) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if old, ok := g.relationships[rel.ID]; ok {
		delete(g.byRelType[old.Type], rel.ID)
		delete(g.outgoing[old.Source], rel.ID)
		delete(g.incoming[old.Target], rel.ID)
	}

	g.relationships[rel.ID] = rel

	if g.byRelType[rel.Type] == nil {
		g.byRelType[rel.Type] = make(map[string]*GraphRelationship)
	}
	g.byRelType[rel.Type][rel.ID] = rel

	if g.outgoing[rel.Source] == nil {
		g.outgoing[rel.Source] = make(map[string]*GraphRelationship)
	}
	g.outgoing[rel.Source][rel.ID] = rel

	if g.incoming[rel.Target] == nil {
		g.incoming[rel.Target] = make(map[string]*GraphRelationship)
	}
	g.incoming[rel.Target][rel.ID] = rel
}

// GetNodesByLabel returns all nodes with the given label.
// Files come back in scan order, folders sorted by path.
func (g *ImportGraph) GetNodesByLabel(label NodeLabel) []*GraphNode {
	g.mu.RLock()
	defer g.mu.RUnlock()

	nodes := g.byLabel[label]
	result := make([]*GraphNode, 0, len(nodes))
	for _, node := range nodes {
		result = append(result, node)
	}
	sortNodes(result)
	return result
}

// GetRelationshipsByType returns all relationships with the given type, sorted by ID.
func (g *ImportGraph) GetRelationshipsByType(relType RelType) []*GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()

	rels := g.byRelType[relType]
	result := make([]*GraphRelationship, 0, len(rels))
	for _, rel := range rels {
		result = append(result, rel)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

// GetOutgoing returns relationships originating from the given node ID.
// If relType is provided, only relationships of that type are returned.
func (g *ImportGraph) GetOutgoing(nodeID string, relType ...RelType) []*GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return filterRels(g.outgoing[nodeID], relType)
}

// GetIncoming returns relationships targeting the given node ID.
// If relType is provided, only relationships of that type are returned.
func (g *ImportGraph) GetIncoming(nodeID string, relType ...RelType) []*GraphRelationship {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return filterRels(g.incoming[nodeID], relType)
}

// Children returns the nodes a folder directly contains: folders first, then files.
func (g *ImportGraph) Children(folderPath string) []*GraphNode {
	rels := g.GetOutgoing(GenerateID(NodeFolder, folderPath), RelContains)

	g.mu.RLock()
	defer g.mu.RUnlock()

	var folders, files []*GraphNode
	for _, rel := range rels {
		node, ok := g.nodes[rel.Target]
		if !ok {
			continue
		}
		if node.Label == NodeFolder {
			folders = append(folders, node)
		} else {
			files = append(files, node)
		}
	}
	sortNodes(folders)
	sortNodes(files)
	return append(folders, files...)
}

// Imports returns the paths a file imports, sorted.
func (g *ImportGraph) Imports(filePath string) []string {
	rels := g.GetOutgoing(GenerateID(NodeFile, filePath), RelImports)

	g.mu.RLock()
	defer g.mu.RUnlock()

	result := make([]string, 0, len(rels))
	for _, rel := range rels {
		if node, ok := g.nodes[rel.Target]; ok {
			result = append(result, node.Path)
		}
	}
	sort.Strings(result)
	return result
}

// Stats returns a summary of graph size.
func (g *ImportGraph) Stats() map[string]int {
	g.mu.RLock()
	defer g.mu.RUnlock()

	return map[string]int{
		"files":   len(g.byLabel[NodeFile]),
		"folders": len(g.byLabel[NodeFolder]),
		"imports": len(g.byRelType[RelImports]),
	}
}

func filterRels(rels map[string]*GraphRelationship, relType []RelType) []*GraphRelationship {
	result := make([]*GraphRelationship, 0, len(rels))
	for _, rel := range rels {
		if len(relType) > 0 && relType[0] != "" && rel.Type != relType[0] {
			continue
		}
		result = append(result, rel)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result
}

func sortNodes(nodes []*GraphNode) {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Order != nodes[j].Order {
			return nodes[i].Order < nodes[j].Order
		}
		return nodes[i].Path < nodes[j].Path
	})
}
