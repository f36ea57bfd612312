package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func readConfig(t *testing.T, path string) map[string]any {
	t.Helper()
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	var cfg map[string]any
	require.NoError(t, json.Unmarshal(content, &cfg))
	return cfg
}

func tsmapServer(t *testing.T, cfg map[string]any) map[string]any {
	t.Helper()
	servers, ok := cfg["mcpServers"].(map[string]any)
	require.True(t, ok)
	server, ok := servers["tsmap"].(map[string]any)
	require.True(t, ok)
	return server
}

func TestSetupCmd_Run(t *testing.T) {
	t.Run("Local", func(t *testing.T) {
		t.Parallel()
		dir := t.TempDir()
		g := &Globals{Quiet: true}

		cmd := &SetupCmd{Claude: true, Cursor: true, Qwen: true, Dir: dir, Format: "json"}
		require.NoError(t, cmd.Run(g))

		for _, path := range []string{
			filepath.Join(dir, ".mcp.json"),
			filepath.Join(dir, ".cursor", "mcp.json"),
			filepath.Join(dir, ".qwen", "mcp.json"),
		} {
			server := tsmapServer(t, readConfig(t, path))
			assert.Equal(t, "tsmap", server["command"])
			assert.Equal(t, []any{"mcp"}, server["args"])
		}
	})

	t.Run("Global", func(t *testing.T) {
		home := t.TempDir()
		t.Setenv("HOME", home)

		cmd := &SetupCmd{Claude: true, Global: true, Dir: ".", Format: "json"}
		require.NoError(t, cmd.Run(&Globals{Quiet: true}))

		_, err := os.Stat(filepath.Join(home, ".claude", "mcp.json"))
		assert.NoError(t, err)
	})

	t.Run("PrintsJSONSnippet", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		cmd := &SetupCmd{Format: "json", Dir: ".", Out: &out}
		require.NoError(t, cmd.Run(&Globals{}))

		var cfg map[string]any
		require.NoError(t, json.Unmarshal(out.Bytes(), &cfg))
		assert.Equal(t, "tsmap", tsmapServer(t, cfg)["command"])
	})

	t.Run("PrintsYAMLSnippet", func(t *testing.T) {
		t.Parallel()
		var out bytes.Buffer
		cmd := &SetupCmd{Format: "yaml", Dir: ".", Out: &out}
		require.NoError(t, cmd.Run(&Globals{}))

		var cfg map[string]any
		require.NoError(t, yaml.Unmarshal(out.Bytes(), &cfg))
		assert.Equal(t, "tsmap", tsmapServer(t, cfg)["command"])
	})
}
