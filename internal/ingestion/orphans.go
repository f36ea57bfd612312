package ingestion

import (
	"path"
	"strings"

	"github.com/Benny93/tsmap/internal/graph"
)

// FindOrphans lists the source files under base that the scanned import
// graph never reaches, as slash paths relative to base.
//
// Detection runs in two passes:
//  1. flag every walked source that is not a file node of g
//  2. un-flag files that are entry points by convention: tests, stories,
//     config files and type declarations
func FindOrphans(base string, g *graph.ImportGraph) ([]string, error) {
	files, err := WalkSources(base)
	if err != nil {
		return nil, err
	}

	var orphans []string
	for _, file := range files {
		rel := relPath(base, file)
		if g.GetNode(graph.GenerateID(graph.NodeFile, rel)) != nil {
			continue
		}
		if isOrphanExempt(rel) {
			continue
		}
		orphans = append(orphans, rel)
	}
	return orphans, nil
}

// isOrphanExempt checks if a file is loaded by tooling rather than imported.
func isOrphanExempt(rel string) bool {
	name := path.Base(rel)
	for _, marker := range []string{".test.", ".spec.", ".stories.", ".config.", ".setup."} {
		if strings.Contains(name, marker) {
			return true
		}
	}
	for _, dir := range strings.Split(path.Dir(rel), "/") {
		if dir == "__tests__" || dir == "__mocks__" {
			return true
		}
	}
	return false
}
