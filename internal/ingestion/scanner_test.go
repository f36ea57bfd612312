package ingestion

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Benny93/tsmap/internal/graph"
	"github.com/Benny93/tsmap/internal/logging"
	"github.com/Benny93/tsmap/internal/storage"
)

func init() {
	color.NoColor = true
}

func newTestScanner(t *testing.T, kind string) *Scanner {
	t.Helper()
	store, err := storage.NewSessionStore(kind)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	s := NewScanner(store, nil)
	s.SetLogger(logging.New(&bytes.Buffer{}))
	return s
}

func TestScanner_TwoFileProject(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"index.ts":  `import { a } from './libs/a.ts';`,
		"libs/a.ts": `export const a = 1;`,
	})

	edges, err := newTestScanner(t, storage.KindMemory).Scan(context.Background(), filepath.Join(root, "index.ts"), root)
	require.NoError(t, err)

	assert.Equal(t, []graph.ImportEdge{
		{Source: "index.ts", Imports: []string{"libs/a.ts"}},
		{Source: "libs/a.ts"},
	}, edges)
}

func TestScanner_Cycle(t *testing.T) {
	t.Parallel()

	for _, kind := range []string{storage.KindMemory, storage.KindBadger} {
		t.Run(kind, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			writeProject(t, root, map[string]string{
				"a.ts": `import { b } from './b';`,
				"b.ts": `import { a } from './a';`,
			})

			edges, err := newTestScanner(t, kind).Scan(context.Background(), filepath.Join(root, "a.ts"), root)
			require.NoError(t, err)

			assert.Equal(t, []graph.ImportEdge{
				{Source: "a.ts", Imports: []string{"b.ts"}},
				{Source: "b.ts", Imports: []string{"a.ts"}},
			}, edges)
		})
	}
}

func TestScanner_DiamondVisitsOnce(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"index.ts":        "import './left';\nimport './right';",
		"left.ts":         "import { s } from './shared';",
		"right.ts":        "import { s } from './shared';\nimport { s as t } from './shared';",
		"shared/index.ts": "export const s = 1;",
	})

	s := newTestScanner(t, storage.KindMemory)
	reads := map[string]int{}
	s.readFile = func(p string) ([]byte, error) {
		reads[p]++
		return os.ReadFile(p)
	}

	edges, err := s.Scan(context.Background(), filepath.Join(root, "index.ts"), "")
	require.NoError(t, err)

	sources := make([]string, 0, len(edges))
	for _, e := range edges {
		sources = append(sources, e.Source)
	}
	assert.Equal(t, []string{"index.ts", "left.ts", "shared/index.ts", "right.ts"}, sources)
	assert.Equal(t, []string{"shared/index.ts"}, edges[3].Imports, "duplicate imports collapse")
	for p, n := range reads {
		assert.Equal(t, 1, n, p)
	}
	assert.Len(t, s.Files(), 4)
}

func TestScanner_UnreadableFileIsSkipped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"index.ts":  "import './broken';\nimport './ok';",
		"broken.ts": "",
		"ok.ts":     "",
	})

	var logs bytes.Buffer
	s := newTestScanner(t, storage.KindMemory)
	s.SetLogger(logging.New(&logs))
	s.readFile = func(p string) ([]byte, error) {
		if filepath.Base(p) == "broken.ts" {
			return nil, errors.New("permission denied")
		}
		return os.ReadFile(p)
	}

	edges, err := s.Scan(context.Background(), filepath.Join(root, "index.ts"), root)
	require.NoError(t, err)

	assert.Equal(t, []graph.ImportEdge{
		{Source: "index.ts", Imports: []string{"broken.ts", "ok.ts"}},
		{Source: "ok.ts"},
	}, edges)
	assert.Contains(t, logs.String(), "permission denied")
}

func TestScanner_UnresolvedImportsDropped(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"index.ts": "import React from 'react';\nimport x from '/abs/path';\nimport './missing';",
	})

	edges, err := newTestScanner(t, storage.KindMemory).Scan(context.Background(), filepath.Join(root, "index.ts"), root)
	require.NoError(t, err)
	assert.Equal(t, []graph.ImportEdge{{Source: "index.ts"}}, edges)
}

func TestScanner_Cancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProject(t, root, map[string]string{"index.ts": ""})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestScanner(t, storage.KindMemory).Scan(ctx, filepath.Join(root, "index.ts"), root)
	assert.ErrorIs(t, err, context.Canceled)
}
