package ingestion

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/Benny93/tsmap/internal/attention"
	"github.com/Benny93/tsmap/internal/graph"
	"github.com/Benny93/tsmap/internal/logging"
	"github.com/Benny93/tsmap/internal/parsers"
	"github.com/Benny93/tsmap/internal/report"
	"github.com/Benny93/tsmap/internal/storage"
)

// ProgressCallback is called with phase name and progress (0.0-1.0).
type ProgressCallback func(phase string, progress float64)

// Options configures a pipeline run.
type Options struct {
	// Entry is the file the import scan starts from.
	Entry string

	// BaseDir is the project root; empty means the entry file's directory.
	BaseDir string

	// Files, when set, are analyzed instead of the entry's import closure.
	Files []string

	// Store is the session store kind (storage.KindMemory or storage.KindBadger).
	Store string

	// Debug logs the ancestor path of every tagged node.
	Debug bool

	Logger   *logging.Logger
	Progress ProgressCallback
}

func (o *Options) logger() *logging.Logger {
	if o.Logger == nil {
		return logging.Default()
	}
	return o.Logger
}

func (o *Options) progress(phase string, p float64) {
	if o.Progress != nil {
		o.Progress(phase, p)
	}
}

// DepsResult is the outcome of a dependency scan.
type DepsResult struct {
	BaseDir      string
	Edges        []graph.ImportEdge
	Graph        *graph.ImportGraph
	Cycles       [][]string
	DurationSecs float64
}

// RunDeps scans the import closure of opts.Entry and builds its graph.
func RunDeps(ctx context.Context, opts Options) (*DepsResult, error) {
	start := time.Now()
	base, err := baseDir(opts.Entry, opts.BaseDir)
	if err != nil {
		return nil, err
	}

	opts.progress("Scanning imports", 0.0)
	edges, _, err := scanImports(ctx, &opts, base)
	if err != nil {
		return nil, err
	}
	opts.progress("Scanning imports", 1.0)

	opts.progress("Building graph", 0.0)
	g := graph.BuildImportGraph(edges)
	cycles := g.DetectCycles()
	opts.progress("Building graph", 1.0)

	return &DepsResult{
		BaseDir:      base,
		Edges:        edges,
		Graph:        g,
		Cycles:       cycles,
		DurationSecs: time.Since(start).Seconds(),
	}, nil
}

// AttentionResult is the outcome of an attention scan.
type AttentionResult struct {
	BaseDir      string
	Files        []report.FileAttention
	Failed       int
	DurationSecs float64
}

// RunAttention analyzes every file reached from opts.Entry (or opts.Files)
// and collects each file's attention nodes. Unreadable or unparsable files
// are logged, counted and skipped.
func RunAttention(ctx context.Context, opts Options) (*AttentionResult, error) {
	start := time.Now()
	entry := opts.Entry
	if entry == "" && len(opts.Files) > 0 {
		entry = opts.Files[0]
	}
	base, err := baseDir(entry, opts.BaseDir)
	if err != nil {
		return nil, err
	}

	files := opts.Files
	if len(files) == 0 {
		opts.progress("Scanning imports", 0.0)
		if _, files, err = scanImports(ctx, &opts, base); err != nil {
			return nil, err
		}
		opts.progress("Scanning imports", 1.0)
	}

	result := &AttentionResult{BaseDir: base}
	resolver := NewResolver()
	parser := parsers.NewTypeScriptParser()
	log := opts.logger()

	for i, file := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		opts.progress("Analyzing files", float64(i)/float64(len(files)))

		abs, err := filepath.Abs(file)
		if err != nil {
			return nil, fmt.Errorf("resolving %s: %w", file, err)
		}
		res, err := analyzeFile(ctx, parser, abs, base, resolver, opts.Debug, log)
		if err != nil {
			log.Error("%v", err)
			result.Failed++
			continue
		}
		result.Files = append(result.Files, report.FileAttention{
			Source: relPath(base, abs),
			Base:   base,
			Nodes:  res.Attention(),
		})
	}
	opts.progress("Analyzing files", 1.0)

	result.DurationSecs = time.Since(start).Seconds()
	return result, nil
}

// AnalyzeFile parses one file and runs the matcher over it. Import paths
// resolve against base, or the file's directory if base is empty.
func AnalyzeFile(ctx context.Context, path, base string, debug bool, log *logging.Logger) (*attention.Result, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	root, err := baseDir(abs, base)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = logging.Default()
	}
	return analyzeFile(ctx, parsers.NewTypeScriptParser(), abs, root, NewResolver(), debug, log)
}

func analyzeFile(ctx context.Context, parser parsers.Parser, file, base string, resolver *Resolver, debug bool, log *logging.Logger) (*attention.Result, error) {
	content, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", file, err)
	}
	tree, err := parser.Parse(ctx, file, content)
	if err != nil {
		return nil, err
	}
	if tree.HasError {
		log.Warn("%s: syntax errors, results may be incomplete", file)
	}
	return attention.Analyze(tree, attention.Options{
		Resolver: resolver,
		FromDir:  filepath.Dir(file),
		BaseDir:  base,
		Debug:    debug,
		Logger:   log,
	}), nil
}

// scanImports runs one scan session and returns its edges plus the
// absolute paths of the visited files.
func scanImports(ctx context.Context, opts *Options, base string) ([]graph.ImportEdge, []string, error) {
	store, err := storage.NewSessionStore(opts.Store)
	if err != nil {
		return nil, nil, err
	}
	defer store.Close()

	scanner := NewScanner(store, NewResolver())
	scanner.SetLogger(opts.logger())
	edges, err := scanner.Scan(ctx, opts.Entry, base)
	if err != nil {
		return nil, nil, fmt.Errorf("scanning %s: %w", opts.Entry, err)
	}
	return edges, scanner.Files(), nil
}

// baseDir returns the absolute base directory, defaulting to entry's directory.
func baseDir(entry, base string) (string, error) {
	if base == "" {
		if entry == "" {
			return "", fmt.Errorf("no entry file or base directory")
		}
		base = filepath.Dir(entry)
	}
	abs, err := filepath.Abs(base)
	if err != nil {
		return "", fmt.Errorf("resolving base %s: %w", base, err)
	}
	return abs, nil
}
