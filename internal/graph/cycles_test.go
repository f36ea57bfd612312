package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDetectCycles(t *testing.T) {
	t.Parallel()

	t.Run("NoCycles", func(t *testing.T) {
		t.Parallel()
		g := BuildImportGraph([]ImportEdge{
			{Source: "a.ts", Imports: []string{"b.ts", "c.ts"}},
			{Source: "b.ts", Imports: []string{"c.ts"}},
			{Source: "c.ts"},
		})
		assert.Empty(t, g.DetectCycles())
	})

	t.Run("TwoFileCycle", func(t *testing.T) {
		t.Parallel()
		g := BuildImportGraph([]ImportEdge{
			{Source: "b.ts", Imports: []string{"a.ts"}},
			{Source: "a.ts", Imports: []string{"b.ts"}},
		})
		assert.Equal(t, [][]string{{"a.ts", "b.ts"}}, g.DetectCycles())
	})

	t.Run("SelfImport", func(t *testing.T) {
		t.Parallel()
		g := BuildImportGraph([]ImportEdge{
			{Source: "a.ts", Imports: []string{"a.ts"}},
		})
		assert.Equal(t, [][]string{{"a.ts"}}, g.DetectCycles())
	})

	t.Run("TwoSeparateCycles", func(t *testing.T) {
		t.Parallel()
		g := BuildImportGraph([]ImportEdge{
			{Source: "index.ts", Imports: []string{"x/a.ts", "y/c.ts"}},
			{Source: "x/a.ts", Imports: []string{"x/b.ts"}},
			{Source: "x/b.ts", Imports: []string{"x/a.ts"}},
			{Source: "y/c.ts", Imports: []string{"y/d.ts"}},
			{Source: "y/d.ts", Imports: []string{"y/e.ts"}},
			{Source: "y/e.ts", Imports: []string{"y/c.ts"}},
		})
		cycles := g.DetectCycles()
		assert.Equal(t, [][]string{
			{"x/a.ts", "x/b.ts"},
			{"y/c.ts", "y/d.ts", "y/e.ts"},
		}, cycles)
	})
}

func TestCanonicalCycle(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, canonicalCycle([]string{"b", "c", "a"}))
	assert.Equal(t, []string{"a"}, canonicalCycle([]string{"a"}))
}
