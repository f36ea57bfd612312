// Package cmd provides CLI command implementations for tsmap.
package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"slices"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/Benny93/tsmap/internal/config"
	"github.com/Benny93/tsmap/internal/ingestion"
	"github.com/Benny93/tsmap/internal/logging"
	"github.com/Benny93/tsmap/internal/report"
	"github.com/Benny93/tsmap/mcp"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Globals are the flags shared by every command.
type Globals struct {
	Version kong.VersionFlag `help:"Show version information"`
	Verbose bool             `short:"v" help:"Enable verbose output"`
	Quiet   bool             `short:"q" help:"Suppress non-essential output"`
	Store   string           `help:"Scan session store (memory|badger)" enum:"memory,badger" default:"memory" env:"TSMAP_STORE"`

	Log *logging.Logger `kong:"-"`
}

func (g *Globals) logger() *logging.Logger {
	if g.Log == nil {
		g.Log = logging.Default()
		g.Log.SetVerbose(g.Verbose)
		g.Log.SetQuiet(g.Quiet)
	}
	return g.Log
}

func (g *Globals) progress() ingestion.ProgressCallback {
	log := g.logger()
	return func(phase string, pct float64) {
		log.Debug("%s (%.0f%%)", phase, pct*100)
	}
}

func writerOr(w io.Writer) io.Writer {
	if w == nil {
		return os.Stdout
	}
	return w
}

// DepsCmd reports the import graph of an entry file.
type DepsCmd struct {
	Entry   string `arg:"" help:"Entry file" type:"existingfile"`
	Base    string `help:"Project root; defaults to the entry file's directory"`
	Mode    string `help:"Output format (csv|dir|file)" enum:"csv,dir,file" default:"csv"`
	Cycles  bool   `help:"Warn about import cycles"`
	Orphans bool   `help:"Also list source files the entry never reaches"`

	Out io.Writer `kong:"-"`
}

// Run executes the deps command.
func (c *DepsCmd) Run(g *Globals) error {
	return c.run(context.Background(), g)
}

func (c *DepsCmd) run(ctx context.Context, g *Globals) error {
	log := g.logger()
	res, err := ingestion.RunDeps(ctx, ingestion.Options{
		Entry:    c.Entry,
		BaseDir:  c.Base,
		Store:    g.Store,
		Logger:   log,
		Progress: g.progress(),
	})
	if err != nil {
		return err
	}

	out := writerOr(c.Out)
	switch c.Mode {
	case "csv":
		err = report.WriteDepsCSV(out, res.Edges)
	default:
		err = report.WriteDepsDiagram(out, res.Graph, report.DiagramMode(c.Mode))
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if c.Cycles {
		for _, cycle := range res.Cycles {
			log.Warn("import cycle: %s", strings.Join(cycle, " -> "))
		}
	}

	if c.Orphans {
		orphans, err := ingestion.FindOrphans(res.BaseDir, res.Graph)
		if err != nil {
			return fmt.Errorf("finding orphans: %w", err)
		}
		for _, o := range orphans {
			log.Warn("orphan: %s", o)
		}
	}

	stats := res.Graph.Stats()
	log.Info("%d files, %d imports in %.2fs", stats["files"], stats["imports"], res.DurationSecs)
	return nil
}

// ScanCmd reports the attention nodes of every file an entry reaches.
type ScanCmd struct {
	Entry string `arg:"" help:"Entry file" type:"existingfile"`
	Base  string `help:"Project root; defaults to the entry file's directory"`
	Mode  string `help:"Output format (csv|json|log)" enum:"csv,json,log" default:"csv"`
	Debug bool   `help:"Log the ancestor path of every tagged node"`
	All   bool   `help:"Scan every source file under the project root, not only the entry's imports"`

	Out io.Writer `kong:"-"`
}

// Run executes the scan command.
func (c *ScanCmd) Run(g *Globals) error {
	return c.run(context.Background(), g)
}

func (c *ScanCmd) run(ctx context.Context, g *Globals) error {
	opts := ingestion.Options{
		Entry:    c.Entry,
		BaseDir:  c.Base,
		Store:    g.Store,
		Debug:    c.Debug,
		Logger:   g.logger(),
		Progress: g.progress(),
	}
	if c.All {
		root := c.Base
		if root == "" {
			root = filepath.Dir(c.Entry)
		}
		files, err := ingestion.WalkSources(root)
		if err != nil {
			return fmt.Errorf("walking %s: %w", root, err)
		}
		opts.BaseDir = root
		opts.Files = files
	}

	res, err := ingestion.RunAttention(ctx, opts)
	if err != nil {
		return err
	}

	out := writerOr(c.Out)
	switch c.Mode {
	case "json":
		err = report.WriteAttentionJSON(out, res.Files)
	case "log":
		err = report.WriteAttentionLog(out, res.Files)
	default:
		err = report.WriteAttentionCSV(out, res.Files)
	}
	if err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if res.Failed > 0 {
		g.logger().Warn("%d file(s) could not be analyzed", res.Failed)
	}
	g.logger().Info("%d files in %.2fs", len(res.Files), res.DurationSecs)
	return nil
}

// TreeCmd dumps the syntax tree of one file.
type TreeCmd struct {
	File  string `arg:"" help:"File to parse" type:"existingfile"`
	Base  string `help:"Directory import paths resolve against; defaults to the file's directory"`
	Mode  string `help:"Dump format (tree|json|element|src|jsx-component|jsx-element)" enum:"tree,json,element,src,jsx-component,jsx-element" default:"tree"`
	Debug bool   `help:"Log the ancestor path of every tagged node"`

	Out io.Writer `kong:"-"`
}

// Run executes the tree command.
func (c *TreeCmd) Run(g *Globals) error {
	res, err := ingestion.AnalyzeFile(context.Background(), c.File, c.Base, c.Debug, g.logger())
	if err != nil {
		return err
	}
	return report.WriteTree(writerOr(c.Out), c.Mode, res.Tree, res)
}

// WatchCmd re-runs a report whenever a source file changes.
type WatchCmd struct {
	Entry    string        `arg:"" help:"Entry file" type:"existingfile"`
	Base     string        `help:"Project root; defaults to the entry file's directory"`
	Report   string        `help:"Report to re-run (deps|scan)" enum:"deps,scan" default:"deps"`
	Mode     string        `help:"Output format of the report; defaults to csv"`
	Debounce time.Duration `help:"Quiet period before a change batch is reported" default:"300ms"`

	Out io.Writer `kong:"-"`
}

// Run executes the watch command.
func (c *WatchCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := c.run(ctx, g)
	if errors.Is(err, context.Canceled) {
		g.logger().Info("watch mode stopped")
		return nil
	}
	return err
}

// watchModes lists the output modes each report accepts.
var watchModes = map[string][]string{
	"deps": {"csv", "dir", "file"},
	"scan": {"csv", "json", "log"},
}

// Validate rejects a mode the chosen report cannot write. Kong calls it
// after parsing, before any report runs.
func (c *WatchCmd) Validate() error {
	name := c.Report
	if name == "" {
		name = "deps"
	}
	if c.Mode == "" {
		return nil
	}
	if !slices.Contains(watchModes[name], c.Mode) {
		return fmt.Errorf("%w: %s for %s report (want one of %s)",
			report.ErrUnknownMode, c.Mode, name, strings.Join(watchModes[name], ", "))
	}
	return nil
}

func (c *WatchCmd) run(ctx context.Context, g *Globals) error {
	if err := c.Validate(); err != nil {
		return err
	}
	log := g.logger()
	root := c.Base
	if root == "" {
		root = filepath.Dir(c.Entry)
	}

	runReport := c.reporter(g)
	if err := runReport(ctx); err != nil {
		return err
	}

	log.Info("watching %s for changes (Ctrl+C to stop)", root)
	return ingestion.WatchTree(ctx, root, c.Debounce, func(changed []string) error {
		for _, p := range changed {
			log.Debug("changed: %s", p)
		}
		return runReport(ctx)
	})
}

func (c *WatchCmd) reporter(g *Globals) func(context.Context) error {
	mode := c.Mode
	if mode == "" {
		mode = "csv"
	}
	if c.Report == "scan" {
		scan := &ScanCmd{Entry: c.Entry, Base: c.Base, Mode: mode, Out: c.Out}
		return func(ctx context.Context) error { return scan.run(ctx, g) }
	}
	deps := &DepsCmd{Entry: c.Entry, Base: c.Base, Mode: mode, Out: c.Out}
	return func(ctx context.Context) error { return deps.run(ctx, g) }
}

// MCPCmd starts the MCP server.
type MCPCmd struct {
	SDK bool `help:"Serve through the MCP SDK transport instead of the line loop"`
}

// Run executes the mcp command.
func (c *MCPCmd) Run(g *Globals) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// stdout carries JSON-RPC only; diagnostics stay on stderr.
	server := mcp.NewServer(g.Store, g.logger())
	var err error
	if c.SDK {
		err = server.RunSDK(ctx)
	} else {
		err = server.Run(ctx, os.Stdin, os.Stdout)
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// SetupCmd writes MCP client configuration that launches `tsmap mcp`.
type SetupCmd struct {
	Claude bool      `help:"Configure for Claude Code"`
	Cursor bool      `help:"Configure for Cursor"`
	Qwen   bool      `help:"Configure for Qwen CLI"`
	Global bool      `help:"Write to the home directory instead of the project"`
	Dir    string    `help:"Project directory for local configuration" default:"."`
	Format string    `help:"Output format (json|yaml)" enum:"json,yaml" default:"json"`
	Out    io.Writer `kong:"-"`
}

// Run executes the setup command.
func (c *SetupCmd) Run(g *Globals) error {
	cfg := serverConfig()

	clients := map[string]bool{"claude": c.Claude, "cursor": c.Cursor, "qwen": c.Qwen}
	wrote := false
	for _, name := range []string{"claude", "cursor", "qwen"} {
		if !clients[name] {
			continue
		}
		wrote = true
		path, err := c.configPath(name)
		if err != nil {
			return err
		}
		if err := writeConfig(path, cfg); err != nil {
			return err
		}
		if !g.Quiet {
			color.Green("✓ Wrote %s MCP config to %s", name, path)
		}
	}
	if wrote {
		return nil
	}

	// No client selected: print the snippet instead.
	content, err := marshalConfig(cfg, c.Format)
	if err != nil {
		return err
	}
	_, err = writerOr(c.Out).Write(content)
	return err
}

func (c *SetupCmd) configPath(client string) (string, error) {
	base := c.Dir
	if c.Global {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		base = home
	}
	if client == "claude" && !c.Global {
		// Claude Code reads project servers from .mcp.json at the root.
		return filepath.Join(base, ".mcp.json"), nil
	}
	return filepath.Join(base, "."+client, "mcp.json"), nil
}

func serverConfig() map[string]any {
	return map[string]any{
		"mcpServers": map[string]any{
			"tsmap": map[string]any{
				"command": "tsmap",
				"args":    []string{"mcp"},
			},
		},
	}
}

func marshalConfig(cfg map[string]any, format string) ([]byte, error) {
	if format == "yaml" {
		return config.Marshal(cfg)
	}
	content, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling JSON: %w", err)
	}
	return append(content, '\n'), nil
}

func writeConfig(path string, cfg map[string]any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating directory: %w", err)
	}
	content, err := marshalConfig(cfg, "json")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// CLI is the root Kong command structure.
type CLI struct {
	Globals

	// Commands
	Deps  DepsCmd  `cmd:"" help:"Report the import graph of an entry file"`
	Scan  ScanCmd  `cmd:"" help:"Report attention nodes of every file an entry reaches"`
	Tree  TreeCmd  `cmd:"" help:"Dump the syntax tree of one file"`
	Watch WatchCmd `cmd:"" help:"Re-run a report whenever sources change"`
	MCP   MCPCmd   `cmd:"" help:"Start MCP server (stdio transport)"`
	Setup SetupCmd `cmd:"" help:"Configure MCP for Claude Code / Cursor / Qwen"`
}

// NewCLI creates a new CLI instance.
func NewCLI() *CLI {
	return &CLI{}
}

func (c *CLI) parser(options ...kong.Option) (*kong.Kong, error) {
	options = append([]kong.Option{
		kong.Name("tsmap"),
		kong.Description("Import graphs and attention maps for TypeScript and JavaScript projects"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact:             true,
			NoExpandSubcommands: true,
		}),
		kong.Configuration(config.YAML, config.Paths...),
		kong.Bind(&c.Globals),
		kong.Vars{
			"version": Version,
		},
	}, options...)
	return kong.New(c, options...)
}

// Execute parses command-line arguments and executes the selected command.
// Malformed arguments print usage help before the error is returned.
func (c *CLI) Execute(args []string, options ...kong.Option) error {
	parser, err := c.parser(options...)
	if err != nil {
		return err
	}
	kongCtx, err := parser.Parse(args)
	if err != nil {
		var parseErr *kong.ParseError
		if errors.As(err, &parseErr) && parseErr.Context != nil {
			_ = parseErr.Context.PrintUsage(false)
		}
		return err
	}
	return kongCtx.Run()
}
