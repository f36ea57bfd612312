package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/Benny93/tsmap/internal/graph"
	"github.com/Benny93/tsmap/internal/logging"
	"github.com/Benny93/tsmap/internal/storage"
)

// Scanner discovers the transitive import closure of an entry file.
//
// A Scanner is one scan session: its store remembers every file visited,
// so a file reached through a cycle or a diamond is read once. Create a new
// Scanner (and store) for every independent scan.
type Scanner struct {
	resolver *Resolver
	store    storage.SessionStore
	readFile func(string) ([]byte, error)
	log      *logging.Logger
	order    []string
}

// NewScanner creates a scanner over the given session store.
func NewScanner(store storage.SessionStore, resolver *Resolver) *Scanner {
	if resolver == nil {
		resolver = NewResolver()
	}
	return &Scanner{
		resolver: resolver,
		store:    store,
		readFile: os.ReadFile,
		log:      logging.Default(),
	}
}

// SetLogger replaces the logger used for unreadable files.
func (s *Scanner) SetLogger(l *logging.Logger) {
	s.log = l
}

// Scan walks imports depth-first from entryFile and returns one edge per
// visited file, relative to baseDir. An empty baseDir means the entry
// file's directory.
//
// Unresolvable imports are dropped and unreadable files are logged and
// skipped. Only context cancellation or a store failure produce an error.
func (s *Scanner) Scan(ctx context.Context, entryFile, baseDir string) ([]graph.ImportEdge, error) {
	entry, err := filepath.Abs(entryFile)
	if err != nil {
		return nil, fmt.Errorf("resolving entry %s: %w", entryFile, err)
	}
	if baseDir == "" {
		baseDir = filepath.Dir(entry)
	}
	base, err := filepath.Abs(baseDir)
	if err != nil {
		return nil, fmt.Errorf("resolving base %s: %w", baseDir, err)
	}

	if err := s.visit(ctx, entry, base); err != nil {
		return nil, err
	}

	edges, err := s.store.Edges(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading scan edges: %w", err)
	}
	return relativizeEdges(edges, base), nil
}

// Files returns the absolute paths of every readable visited file in visit order.
func (s *Scanner) Files() []string {
	return append([]string(nil), s.order...)
}

// visit processes one file and recurses into its resolved imports.
//
// The explicit work stack keeps very deep import chains off the goroutine
// stack; pushing imports in reverse keeps the visit order depth-first in
// source order.
func (s *Scanner) visit(ctx context.Context, entry, base string) error {
	stack := []string{entry}
	for len(stack) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}

		file := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		first, err := s.store.MarkVisited(ctx, file)
		if err != nil {
			return err
		}
		if !first {
			continue
		}

		content, err := s.readFile(file)
		if err != nil {
			s.log.Error("reading %s: %v", file, err)
			continue
		}
		s.order = append(s.order, file)

		imports := s.resolveAll(filepath.Dir(file), base, ExtractImports(content))
		s.log.Debug("%s: %d imports", file, len(imports))

		if err := s.store.AppendEdge(ctx, graph.ImportEdge{Source: file, Imports: imports}); err != nil {
			return err
		}

		for i := len(imports) - 1; i >= 0; i-- {
			visited, err := s.store.IsVisited(ctx, imports[i])
			if err != nil {
				return err
			}
			if !visited {
				stack = append(stack, imports[i])
			}
		}
	}
	return nil
}

// resolveAll resolves specifiers, dropping misses and duplicates.
func (s *Scanner) resolveAll(fromDir, base string, specs []string) []string {
	seen := make(map[string]bool, len(specs))
	var resolved []string
	for _, spec := range specs {
		p, ok := s.resolver.Resolve(fromDir, base, spec)
		if !ok || seen[p] {
			continue
		}
		seen[p] = true
		resolved = append(resolved, p)
	}
	return resolved
}

func relativizeEdges(edges []graph.ImportEdge, base string) []graph.ImportEdge {
	out := make([]graph.ImportEdge, len(edges))
	for i, edge := range edges {
		out[i].Source = relPath(base, edge.Source)
		if len(edge.Imports) > 0 {
			out[i].Imports = make([]string, len(edge.Imports))
			for j, imp := range edge.Imports {
				out[i].Imports[j] = relPath(base, imp)
			}
		}
	}
	return out
}

// relPath returns p relative to base with forward slashes, or p itself if
// no relative path exists.
func relPath(base, p string) string {
	rel, err := filepath.Rel(base, p)
	if err != nil {
		return filepath.ToSlash(p)
	}
	return filepath.ToSlash(rel)
}
