package ingestion

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func relAll(t *testing.T, root string, paths []string) []string {
	t.Helper()
	out := make([]string, len(paths))
	for i, p := range paths {
		rel, err := filepath.Rel(root, p)
		require.NoError(t, err)
		out[i] = filepath.ToSlash(rel)
	}
	return out
}

func TestWalkSources(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"index.ts":                    "",
		"src/app.tsx":                 "",
		"src/legacy.js":               "",
		"src/types.d.ts":              "",
		"src/lib/util.mjs":            "",
		"README.md":                   "# README",
		"styles.css":                  "",
		"node_modules/react/index.js": "",
		"dist/bundle.js":              "",
		"generated/api.ts":            "",
		"scratch.tmp.ts":              "",
		".gitignore":                  "generated/\n# comment\n*.tmp.ts\n",
	})

	files, err := WalkSources(root)
	require.NoError(t, err)

	assert.Equal(t, []string{
		"index.ts",
		"src/app.tsx",
		"src/legacy.js",
		"src/lib/util.mjs",
	}, relAll(t, root, files))
}

func TestWalkSources_NoGitignore(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProject(t, root, map[string]string{
		"a.ts":     "",
		"b/c.jsx":  "",
		"b/d.json": "{}",
	})

	files, err := WalkSources(root)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.ts", "b/c.jsx"}, relAll(t, root, files))
}

func TestWalkSources_MissingRoot(t *testing.T) {
	t.Parallel()

	_, err := WalkSources(filepath.Join(t.TempDir(), "absent"))
	assert.Error(t, err)
}

func TestIsWatchedSource(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writeProject(t, root, map[string]string{".gitignore": "out/\n"})
	matcher, err := loadIgnoreMatcher(root)
	require.NoError(t, err)

	tests := []struct {
		path string
		want bool
	}{
		{"main.ts", true},
		{"src/Button.TSX", true},
		{"notes.md", false},
		{"out/main.js", false},
		{"node_modules/x/index.js", false},
	}
	for _, tt := range tests {
		got := isWatchedSource(filepath.Join(root, filepath.FromSlash(tt.path)), root, matcher)
		assert.Equal(t, tt.want, got, tt.path)
	}

	assert.False(t, isWatchedSource(filepath.Join(filepath.Dir(root), "elsewhere.ts"), root, matcher))
}
