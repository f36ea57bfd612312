package ingestion

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// touchUntil rewrites path until a batch arrives, since the watcher
// registers its directories asynchronously.
func touchUntil(t *testing.T, path string, batches <-chan []string) []string {
	t.Helper()
	deadline := time.After(5 * time.Second)
	tick := time.NewTicker(100 * time.Millisecond)
	defer tick.Stop()
	for {
		require.NoError(t, os.WriteFile(path, []byte("export const x = 1;\n"), 0o644))
		select {
		case batch := <-batches:
			return batch
		case <-tick.C:
		case <-deadline:
			t.Fatalf("no change batch for %s", path)
			return nil
		}
	}
}

func TestWatchTree(t *testing.T) {
	t.Parallel()

	t.Run("ReportsChangedSources", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeProject(t, root, map[string]string{
			"src/index.ts": "",
			".gitignore":   "ignored/\n",
			"ignored/a.ts": "",
		})

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		batches := make(chan []string, 16)
		done := make(chan error, 1)
		go func() {
			done <- WatchTree(ctx, root, 20*time.Millisecond, func(changed []string) error {
				batches <- changed
				return nil
			})
		}()

		// Ignored and non-source files never show up in a batch.
		require.NoError(t, os.WriteFile(filepath.Join(root, "ignored", "a.ts"), []byte("x"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(root, "notes.md"), []byte("x"), 0o644))

		target := filepath.Join(root, "src", "index.ts")
		batch := touchUntil(t, target, batches)
		assert.Contains(t, batch, target)
		for _, p := range batch {
			assert.Equal(t, target, p)
		}

		cancel()
		select {
		case err := <-done:
			assert.ErrorIs(t, err, context.Canceled)
		case <-time.After(5 * time.Second):
			t.Fatal("watcher did not stop")
		}
	})

	t.Run("KeepsWatchingAfterCallbackError", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeProject(t, root, map[string]string{"a.ts": ""})

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		batches := make(chan []string, 16)
		go func() {
			_ = WatchTree(ctx, root, 20*time.Millisecond, func(changed []string) error {
				batches <- changed
				return errors.New("report failed")
			})
		}()

		target := filepath.Join(root, "a.ts")
		touchUntil(t, target, batches)
		batch := touchUntil(t, target, batches)
		assert.Equal(t, []string{target}, batch)
	})

	t.Run("WatchesNewDirectories", func(t *testing.T) {
		t.Parallel()

		root := t.TempDir()
		writeProject(t, root, map[string]string{"a.ts": ""})

		ctx, cancel := context.WithCancel(t.Context())
		defer cancel()

		batches := make(chan []string, 16)
		go func() {
			_ = WatchTree(ctx, root, 20*time.Millisecond, func(changed []string) error {
				batches <- changed
				return nil
			})
		}()

		// Wait until the watcher is live before creating the directory.
		touchUntil(t, filepath.Join(root, "a.ts"), batches)

		dir := filepath.Join(root, "feature")
		require.NoError(t, os.MkdirAll(dir, 0o755))
		target := filepath.Join(dir, "b.ts")

		var got []string
		deadline := time.After(5 * time.Second)
		for !contains(got, target) {
			require.NoError(t, os.WriteFile(target, []byte("x"), 0o644))
			select {
			case got = <-batches:
			case <-time.After(100 * time.Millisecond):
			case <-deadline:
				t.Fatal("new directory was not watched")
			}
		}
	})
}

func TestWatchTree_MissingRoot(t *testing.T) {
	t.Parallel()

	err := WatchTree(t.Context(), filepath.Join(t.TempDir(), "absent"), 0, func([]string) error { return nil })
	assert.Error(t, err)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
