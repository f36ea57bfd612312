package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dgraph-io/badger/v4"

	"github.com/Benny93/tsmap/internal/graph"
)

// Key prefixes for different data types
const (
	prefixVisited = "v:" // visited file marker
	prefixEdge    = "e:" // import edge, keyed by zero-padded sequence
)

// BadgerBackend is a SessionStore on an in-memory BadgerDB instance.
//
// The database is opened with WithInMemory so a session never touches disk.
type BadgerBackend struct {
	db           *badger.DB
	mu           sync.RWMutex
	visitedCount int
	edgeSeq      uint64
}

// NewBadgerBackend creates a new BadgerDB session store.
func NewBadgerBackend() *BadgerBackend {
	return &BadgerBackend{}
}

// Initialize opens the in-memory database.
func (b *BadgerBackend) Initialize() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithNumCompactors(2).
		WithLoggingLevel(badger.ERROR)

	db, err := badger.Open(opts)
	if err != nil {
		return fmt.Errorf("opening badger DB: %w", err)
	}
	b.db = db
	b.visitedCount = 0
	b.edgeSeq = 0
	return nil
}

// Close releases all resources held by the store.
func (b *BadgerBackend) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return nil
	}

	err := b.db.Close()
	b.db = nil
	return err
}

// MarkVisited implements SessionStore.
func (b *BadgerBackend) MarkVisited(_ context.Context, absPath string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return false, ErrNotInitialized
	}

	first := false
	err := b.db.Update(func(txn *badger.Txn) error {
		key := visitedKey(absPath)
		_, err := txn.Get(key)
		if err == nil {
			return nil
		}
		if err != badger.ErrKeyNotFound {
			return err
		}
		first = true
		return txn.Set(key, []byte{1})
	})
	if err != nil {
		return false, fmt.Errorf("marking %s visited: %w", absPath, err)
	}
	if first {
		b.visitedCount++
	}
	return first, nil
}

// IsVisited implements SessionStore.
func (b *BadgerBackend) IsVisited(_ context.Context, absPath string) (bool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return false, ErrNotInitialized
	}

	found := false
	err := b.db.View(func(txn *badger.Txn) error {
		_, err := txn.Get(visitedKey(absPath))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("checking %s: %w", absPath, err)
	}
	return found, nil
}

// AppendEdge implements SessionStore.
func (b *BadgerBackend) AppendEdge(_ context.Context, edge graph.ImportEdge) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.db == nil {
		return ErrNotInitialized
	}

	data, err := json.Marshal(edge)
	if err != nil {
		return fmt.Errorf("marshaling edge: %w", err)
	}

	key := edgeKey(b.edgeSeq)
	if err := b.db.Update(func(txn *badger.Txn) error {
		return txn.Set(key, data)
	}); err != nil {
		return fmt.Errorf("storing edge for %s: %w", edge.Source, err)
	}
	b.edgeSeq++
	return nil
}

// Edges implements SessionStore.
func (b *BadgerBackend) Edges(_ context.Context) ([]graph.ImportEdge, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.db == nil {
		return nil, ErrNotInitialized
	}

	edges := make([]graph.ImportEdge, 0, b.edgeSeq)
	err := b.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = []byte(prefixEdge)
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Rewind(); it.Valid(); it.Next() {
			var edge graph.ImportEdge
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &edge)
			}); err != nil {
				return err
			}
			edges = append(edges, edge)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("reading edges: %w", err)
	}
	return edges, nil
}

// VisitedCount implements SessionStore.
func (b *BadgerBackend) VisitedCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.visitedCount
}

func visitedKey(absPath string) []byte {
	return []byte(prefixVisited + absPath)
}

// edgeKey zero-pads the sequence so key order equals append order.
func edgeKey(seq uint64) []byte {
	return []byte(fmt.Sprintf("%s%020d", prefixEdge, seq))
}
