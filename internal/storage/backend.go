// Package storage provides the scan session stores for tsmap.
//
// A session store remembers which files a scan has already visited and the
// import edges recorded so far. It lives for exactly one scan; nothing is
// written to disk.
package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/Benny93/tsmap/internal/graph"
)

// Store kinds accepted by NewSessionStore.
const (
	KindMemory = "memory"
	KindBadger = "badger"
)

// ErrNotInitialized is returned when a store is used before Initialize or after Close.
var ErrNotInitialized = errors.New("session store not initialized")

// SessionStore defines the interface for scan session storage.
//
// Implementations must be safe for concurrent use, although the scanner
// itself drives a store from a single goroutine.
type SessionStore interface {
	// Initialize prepares the store for use.
	Initialize() error

	// Close releases all resources held by the store.
	Close() error

	// MarkVisited records a file path. It returns true if the path was not
	// visited before, false if it had already been marked.
	MarkVisited(ctx context.Context, absPath string) (bool, error)

	// IsVisited reports whether a path has been marked.
	IsVisited(ctx context.Context, absPath string) (bool, error)

	// AppendEdge records an import edge; edges keep their append order.
	AppendEdge(ctx context.Context, edge graph.ImportEdge) error

	// Edges returns every recorded edge in append order.
	Edges(ctx context.Context) ([]graph.ImportEdge, error)

	// VisitedCount returns the number of distinct visited paths.
	VisitedCount() int
}

// NewSessionStore creates and initializes a store of the given kind.
func NewSessionStore(kind string) (SessionStore, error) {
	var store SessionStore
	switch kind {
	case "", KindMemory:
		store = NewMemoryBackend()
	case KindBadger:
		store = NewBadgerBackend()
	default:
		return nil, fmt.Errorf("unknown session store %q (want %s or %s)", kind, KindMemory, KindBadger)
	}

	if err := store.Initialize(); err != nil {
		return nil, fmt.Errorf("initializing %s store: %w", kind, err)
	}
	return store, nil
}
