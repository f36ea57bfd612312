package ingestion

import (
	"os"
	"path/filepath"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Extensions is the ordered list of suffixes tried when resolving a specifier.
var Extensions = []string{"", ".ts", ".js", ".jsx", ".tsx"}

// defaultStatCacheSize bounds the number of remembered existence checks.
const defaultStatCacheSize = 4096

// Resolver maps import specifiers to files on disk.
//
// Only relative and base-directory-relative paths are followed; absolute
// specifiers and package names that do not exist as files resolve to nothing.
type Resolver struct {
	stat  func(string) (os.FileInfo, error)
	cache *lru.Cache[string, bool]
}

// NewResolver creates a resolver with a fresh existence cache.
func NewResolver() *Resolver {
	cache, _ := lru.New[string, bool](defaultStatCacheSize)
	return &Resolver{stat: os.Stat, cache: cache}
}

// Resolve returns the absolute path of the file that specifier refers to
// when imported from a file in fromDir, and false if nothing matches.
func (r *Resolver) Resolve(fromDir, baseDir, specifier string) (string, bool) {
	if specifier == "" || strings.HasPrefix(specifier, "/") || filepath.IsAbs(specifier) {
		return "", false
	}

	fromDir = absDir(fromDir)

	if specifier == "." {
		for _, ext := range Extensions {
			if p := filepath.Join(fromDir, "index"+ext); r.isFile(p) {
				return p, true
			}
		}
		return "", false
	}

	tried := make(map[string]bool)
	try := func(p string) bool {
		if tried[p] {
			return false
		}
		tried[p] = true
		return r.isFile(p)
	}

	// Literal specifier, then extensions, then index files, rooted at fromDir.
	literal := filepath.Join(fromDir, specifier)
	if try(literal) {
		return literal, true
	}
	if p, ok := r.tryRoot(literal, try); ok {
		return p, true
	}

	if baseDir == "" {
		return "", false
	}
	if p, ok := r.tryRoot(filepath.Join(absDir(baseDir), specifier), try); ok {
		return p, true
	}
	return "", false
}

// tryRoot tries root+ext and root/index+ext for every extension.
func (r *Resolver) tryRoot(root string, try func(string) bool) (string, bool) {
	for _, ext := range Extensions {
		if p := root + ext; try(p) {
			return p, true
		}
	}
	for _, ext := range Extensions {
		if p := filepath.Join(root, "index"+ext); try(p) {
			return p, true
		}
	}
	return "", false
}

// isFile reports whether p exists and is not a directory.
func (r *Resolver) isFile(p string) bool {
	if ok, hit := r.cache.Get(p); hit {
		return ok
	}
	info, err := r.stat(p)
	ok := err == nil && !info.IsDir()
	r.cache.Add(p, ok)
	return ok
}

func absDir(dir string) string {
	if dir == "" {
		dir = "."
	}
	if abs, err := filepath.Abs(dir); err == nil {
		return abs
	}
	return filepath.Clean(dir)
}
