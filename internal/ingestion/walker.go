// Package ingestion discovers TS/JS sources and runs the dependency and
// attention pipelines over them.
package ingestion

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5/plumbing/format/gitignore"

	"github.com/Benny93/tsmap/internal/parsers"
)

// Default patterns to ignore (in addition to .gitignore).
var defaultIgnorePatterns = []string{
	".git/",
	"node_modules/",
	"bower_components/",
	"dist/",
	"build/",
	"coverage/",
	".next/",
	".turbo/",
	".cache/",
	"*.min.js",
	"*.d.ts",
	".DS_Store",
}

// WalkSources returns the absolute paths of every TS/JS source file under
// root, skipping default ignores and anything root's .gitignore excludes.
// Paths are in lexical walk order.
func WalkSources(root string) ([]string, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}
	matcher, err := loadIgnoreMatcher(root)
	if err != nil {
		return nil, err
	}

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if path != root && shouldSkipDir(d.Name(), path, root, matcher) {
				return filepath.SkipDir
			}
			return nil
		}
		if isWatchedSource(path, root, matcher) {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// loadIgnoreMatcher combines the default patterns with root's .gitignore.
func loadIgnoreMatcher(root string) (gitignore.Matcher, error) {
	patterns := make([]gitignore.Pattern, 0, len(defaultIgnorePatterns))
	for _, p := range defaultIgnorePatterns {
		patterns = append(patterns, gitignore.ParsePattern(p, nil))
	}

	content, err := os.ReadFile(filepath.Join(root, ".gitignore"))
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, err
	default:
		for _, line := range strings.Split(string(content), "\n") {
			line = strings.TrimSpace(line)
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			patterns = append(patterns, gitignore.ParsePattern(line, nil))
		}
	}
	return gitignore.NewMatcher(patterns), nil
}

// shouldSkipDir checks if a directory should be skipped.
func shouldSkipDir(name, path, root string, matcher gitignore.Matcher) bool {
	if name == ".git" {
		return true
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return matcher.Match(splitPath(rel), true)
}

// isWatchedSource reports whether path is an analyzable source file that
// the ignore rules keep.
func isWatchedSource(path, root string, matcher gitignore.Matcher) bool {
	if !parsers.IsSourceFile(path) {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil || strings.HasPrefix(rel, "..") {
		return false
	}
	return !matcher.Match(splitPath(rel), false)
}

// splitPath splits a path into its components.
func splitPath(path string) []string {
	return strings.Split(path, string(filepath.Separator))
}
