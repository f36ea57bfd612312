package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testCLI struct {
	Store   string   `default:"memory"`
	Verbose bool     `short:"v"`
	Exclude []string `name:"exclude"`

	Deps struct {
		Mode     string `default:"csv"`
		BaseDir  string `name:"base-dir"`
		Debounce string `default:"300ms"`
	} `cmd:""`
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "tsmap.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func parse(t *testing.T, configPath string, args ...string) *testCLI {
	t.Helper()
	var cli testCLI
	parser, err := kong.New(&cli, kong.Configuration(YAML, configPath))
	require.NoError(t, err)
	_, err = parser.Parse(args)
	require.NoError(t, err)
	return &cli
}

func TestYAML_FeedsFlags(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, `
store: badger
verbose: true
exclude: [dist, build]
base_dir: /srv/app
deps:
  mode: dir
`)
	cli := parse(t, path, "deps")

	assert.Equal(t, "badger", cli.Store)
	assert.True(t, cli.Verbose)
	assert.Equal(t, []string{"dist", "build"}, cli.Exclude)
	assert.Equal(t, "dir", cli.Deps.Mode)
	assert.Equal(t, "/srv/app", cli.Deps.BaseDir)
	assert.Equal(t, "300ms", cli.Deps.Debounce)
}

func TestYAML_FlagsWin(t *testing.T) {
	t.Parallel()

	path := writeConfig(t, "store: badger\ndeps:\n  mode: dir\n")
	cli := parse(t, path, "--store", "memory", "deps", "--mode", "file")

	assert.Equal(t, "memory", cli.Store)
	assert.Equal(t, "file", cli.Deps.Mode)
}

func TestYAML_EmptyAndMissingFiles(t *testing.T) {
	t.Parallel()

	cli := parse(t, writeConfig(t, ""), "deps")
	assert.Equal(t, "memory", cli.Store)
	assert.Equal(t, "csv", cli.Deps.Mode)

	cli = parse(t, filepath.Join(t.TempDir(), "absent.yaml"), "deps")
	assert.Equal(t, "memory", cli.Store)
}

func TestYAML_Malformed(t *testing.T) {
	t.Parallel()

	_, err := YAML(strings.NewReader("store: [unclosed"))
	assert.Error(t, err)
}

func TestLookup(t *testing.T) {
	t.Parallel()

	values := map[string]any{
		"max_depth": 3,
		"nested":    map[string]any{"key": "v"},
		"empty":     nil,
	}

	v, ok := lookup(values, "max-depth")
	assert.True(t, ok)
	assert.Equal(t, "3", v)

	v, ok = lookup(values, "nested.key")
	assert.True(t, ok)
	assert.Equal(t, "v", v)

	_, ok = lookup(values, "nested")
	assert.False(t, ok)

	v, ok = lookup(values, "empty")
	assert.True(t, ok)
	assert.Equal(t, "", v)

	_, ok = lookup(values, "missing")
	assert.False(t, ok)
}
