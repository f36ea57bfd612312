package storage

import (
	"context"
	"sync"

	"github.com/Benny93/tsmap/internal/graph"
)

// MemoryBackend is a map-backed SessionStore. It is the default store.
type MemoryBackend struct {
	mu      sync.RWMutex
	visited map[string]struct{}
	edges   []graph.ImportEdge
}

// NewMemoryBackend creates a new in-memory session store.
func NewMemoryBackend() *MemoryBackend {
	return &MemoryBackend{}
}

// Initialize implements SessionStore.
func (m *MemoryBackend) Initialize() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visited = make(map[string]struct{})
	m.edges = nil
	return nil
}

// Close implements SessionStore.
func (m *MemoryBackend) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.visited = nil
	m.edges = nil
	return nil
}

// MarkVisited implements SessionStore.
func (m *MemoryBackend) MarkVisited(_ context.Context, absPath string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.visited == nil {
		return false, ErrNotInitialized
	}
	if _, ok := m.visited[absPath]; ok {
		return false, nil
	}
	m.visited[absPath] = struct{}{}
	return true, nil
}

// IsVisited implements SessionStore.
func (m *MemoryBackend) IsVisited(_ context.Context, absPath string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.visited == nil {
		return false, ErrNotInitialized
	}
	_, ok := m.visited[absPath]
	return ok, nil
}

// AppendEdge implements SessionStore.
func (m *MemoryBackend) AppendEdge(_ context.Context, edge graph.ImportEdge) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.visited == nil {
		return ErrNotInitialized
	}
	edge.Imports = append([]string(nil), edge.Imports...)
	m.edges = append(m.edges, edge)
	return nil
}

// Edges implements SessionStore.
func (m *MemoryBackend) Edges(_ context.Context) ([]graph.ImportEdge, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.visited == nil {
		return nil, ErrNotInitialized
	}
	result := make([]graph.ImportEdge, len(m.edges))
	copy(result, m.edges)
	return result, nil
}

// VisitedCount implements SessionStore.
func (m *MemoryBackend) VisitedCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.visited)
}
