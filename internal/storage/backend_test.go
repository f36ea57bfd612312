package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/tsmap/internal/graph"
)

// storeKinds runs every contract test against both stores.
var storeKinds = []string{KindMemory, KindBadger}

func newTestStore(t *testing.T, kind string) SessionStore {
	t.Helper()
	store, err := NewSessionStore(kind)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSessionStore_MarkVisited(t *testing.T) {
	t.Parallel()

	for _, kind := range storeKinds {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := newTestStore(t, kind)

			first, err := store.MarkVisited(ctx, "/repo/a.ts")
			require.NoError(t, err)
			assert.True(t, first)

			again, err := store.MarkVisited(ctx, "/repo/a.ts")
			require.NoError(t, err)
			assert.False(t, again)

			visited, err := store.IsVisited(ctx, "/repo/a.ts")
			require.NoError(t, err)
			assert.True(t, visited)

			visited, err = store.IsVisited(ctx, "/repo/b.ts")
			require.NoError(t, err)
			assert.False(t, visited)

			assert.Equal(t, 1, store.VisitedCount())
		})
	}
}

func TestSessionStore_Edges(t *testing.T) {
	t.Parallel()

	for _, kind := range storeKinds {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store := newTestStore(t, kind)

			// More than ten edges so lexical key order would break an unpadded sequence.
			var want []graph.ImportEdge
			for i := 0; i < 12; i++ {
				edge := graph.ImportEdge{Source: string(rune('a'+i)) + ".ts"}
				if i%2 == 0 {
					edge.Imports = []string{"shared.ts"}
				}
				require.NoError(t, store.AppendEdge(ctx, edge))
				want = append(want, edge)
			}

			got, err := store.Edges(ctx)
			require.NoError(t, err)
			require.Len(t, got, len(want))
			for i := range want {
				assert.Equal(t, want[i].Source, got[i].Source)
				assert.ElementsMatch(t, want[i].Imports, got[i].Imports)
			}
		})
	}
}

func TestSessionStore_Closed(t *testing.T) {
	t.Parallel()

	for _, kind := range storeKinds {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()
			ctx := context.Background()
			store, err := NewSessionStore(kind)
			require.NoError(t, err)
			require.NoError(t, store.Close())

			_, err = store.MarkVisited(ctx, "/repo/a.ts")
			assert.ErrorIs(t, err, ErrNotInitialized)

			_, err = store.Edges(ctx)
			assert.ErrorIs(t, err, ErrNotInitialized)

			// Closing twice is harmless.
			assert.NoError(t, store.Close())
		})
	}
}

func TestNewSessionStore_UnknownKind(t *testing.T) {
	t.Parallel()

	store, err := NewSessionStore("redis")
	assert.Error(t, err)
	assert.Nil(t, store)
}

func TestMemoryBackend_AppendEdgeCopiesImports(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := NewMemoryBackend()
	require.NoError(t, store.Initialize())

	imports := []string{"b.ts"}
	require.NoError(t, store.AppendEdge(ctx, graph.ImportEdge{Source: "a.ts", Imports: imports}))
	imports[0] = "mutated.ts"

	edges, err := store.Edges(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b.ts"}, edges[0].Imports)
}
