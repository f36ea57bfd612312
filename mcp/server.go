// Package mcp provides the MCP (Model Context Protocol) server for tsmap.
package mcp

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Benny93/tsmap/internal/attention"
	"github.com/Benny93/tsmap/internal/ingestion"
	"github.com/Benny93/tsmap/internal/logging"
	"github.com/Benny93/tsmap/internal/report"
)

const (
	serverName    = "tsmap"
	serverVersion = "0.1.0"

	categoriesURI = "tsmap://categories"
	treeModesURI  = "tsmap://tree-modes"
)

// Server represents the MCP server.
type Server struct {
	store  string
	log    *logging.Logger
	server *mcp.Server
}

// Tool represents an MCP tool.
type Tool struct {
	Name        string
	Description string
	InputSchema *jsonschema.Schema
}

// Resource represents an MCP resource.
type Resource struct {
	URI         string
	Name        string
	Description string
	MimeType    string
}

// NewServer creates a new MCP server. store selects the scan session store
// used by the deps and attention tools; log may be nil.
func NewServer(store string, log *logging.Logger) *Server {
	if log == nil {
		log = logging.Default()
	}
	s := &Server{
		store: store,
		log:   log,
	}

	s.server = mcp.NewServer(&mcp.Implementation{
		Name:    serverName,
		Version: serverVersion,
	}, nil)

	s.registerTools()
	s.registerResources()

	return s
}

func stringProp(description string, enum ...string) *jsonschema.Schema {
	schema := &jsonschema.Schema{Type: "string", Description: description}
	for _, v := range enum {
		schema.Enum = append(schema.Enum, v)
	}
	return schema
}

// ListTools returns all registered tools.
func (s *Server) ListTools() []Tool {
	return []Tool{
		{
			Name:        "tsmap_deps",
			Description: "Follow the imports of an entry file and report the dependency graph as CSV or PlantUML.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"entry": stringProp("Path of the entry file"),
					"base":  stringProp("Project root; defaults to the entry file's directory"),
					"mode":  stringProp("Output format", "csv", "dir", "file"),
				},
				Required: []string{"entry"},
			},
		},
		{
			Name:        "tsmap_attention",
			Description: "Extract the attention nodes (imports, declarations, calls, JSX, exports) of every file reachable from an entry file.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"entry": stringProp("Path of the entry file"),
					"base":  stringProp("Project root; defaults to the entry file's directory"),
					"mode":  stringProp("Output format", "csv", "json"),
				},
				Required: []string{"entry"},
			},
		},
		{
			Name:        "tsmap_tree",
			Description: "Dump the syntax tree of a single file.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"file": stringProp("Path of the file to parse"),
					"mode": stringProp("Dump format", report.TreeModes...),
				},
				Required: []string{"file"},
			},
		},
		{
			Name:        "tsmap_orphans",
			Description: "List source files under a project root that no import from the entry file reaches.",
			InputSchema: &jsonschema.Schema{
				Type: "object",
				Properties: map[string]*jsonschema.Schema{
					"entry": stringProp("Path of the entry file"),
					"base":  stringProp("Project root; defaults to the entry file's directory"),
				},
				Required: []string{"entry"},
			},
		},
	}
}

// ListResources returns all registered resources.
func (s *Server) ListResources() []Resource {
	return []Resource{
		{
			URI:         categoriesURI,
			Name:        "Attention Categories",
			Description: "Categories an attention node can be tagged with",
			MimeType:    "text/plain",
		},
		{
			URI:         treeModesURI,
			Name:        "Tree Modes",
			Description: "Formats accepted by tsmap_tree",
			MimeType:    "text/plain",
		},
	}
}

// CallTool executes a tool with the given arguments.
func (s *Server) CallTool(ctx context.Context, name string, args map[string]any) (string, error) {
	str := func(key, def string) string {
		if v, ok := args[key].(string); ok && v != "" {
			return v
		}
		return def
	}

	switch name {
	case "tsmap_deps":
		return s.handleDeps(ctx, str("entry", ""), str("base", ""), str("mode", "csv"))
	case "tsmap_attention":
		return s.handleAttention(ctx, str("entry", ""), str("base", ""), str("mode", "csv"))
	case "tsmap_tree":
		return s.handleTree(ctx, str("file", ""), str("mode", report.TreeModeTree))
	case "tsmap_orphans":
		return s.handleOrphans(ctx, str("entry", ""), str("base", ""))
	default:
		return "", fmt.Errorf("unknown tool: %s", name)
	}
}

// ReadResource reads a resource by URI.
func (s *Server) ReadResource(ctx context.Context, uri string) (string, error) {
	switch uri {
	case categoriesURI:
		var sb strings.Builder
		for _, c := range attention.Categories {
			sb.WriteString(string(c))
			sb.WriteString("\n")
		}
		return sb.String(), nil
	case treeModesURI:
		return strings.Join(report.TreeModes, "\n") + "\n", nil
	default:
		return "", fmt.Errorf("unknown resource: %s", uri)
	}
}

// Run starts the MCP server with stdio transport.
func (s *Server) Run(ctx context.Context, stdin io.Reader, stdout io.Writer) error {
	if stdin == nil || stdout == nil {
		return fmt.Errorf("stdin and stdout must not be nil")
	}

	reader := bufio.NewReader(stdin)
	// MCP stdio framing is one compact JSON message per line.
	encoder := json.NewEncoder(stdout)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		var req map[string]any
		if err := json.Unmarshal(line, &req); err != nil {
			s.log.Debug("mcp: dropping malformed message: %v", err)
			continue
		}

		// Notifications carry no id and get no response.
		if _, ok := req["id"]; !ok {
			continue
		}

		resp := s.handleRequest(ctx, req)
		if err := encoder.Encode(resp); err != nil {
			return err
		}
	}
}

func (s *Server) handleRequest(ctx context.Context, req map[string]any) map[string]any {
	method, _ := req["method"].(string)
	id := req["id"]

	switch method {
	case "initialize":
		return s.handleInitialize(id)
	case "ping":
		return map[string]any{"jsonrpc": "2.0", "id": id, "result": map[string]any{}}
	case "tools/list":
		return s.handleToolsList(id)
	case "tools/call":
		return s.handleToolsCall(ctx, id, req)
	case "resources/list":
		return s.handleResourcesList(id)
	case "resources/read":
		return s.handleResourcesRead(ctx, id, req)
	default:
		return errorResponse(id, -32601, "Method not found: "+method)
	}
}

func (s *Server) handleInitialize(id any) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"protocolVersion": "2024-11-05",
			"serverInfo": map[string]any{
				"name":    serverName,
				"version": serverVersion,
			},
			"capabilities": map[string]any{
				"tools": map[string]any{
					"listChanged": false,
				},
				"resources": map[string]any{
					"listChanged": false,
				},
			},
		},
	}
}

func (s *Server) handleToolsList(id any) map[string]any {
	tools := s.ListTools()
	toolList := make([]map[string]any, len(tools))
	for i, tool := range tools {
		schema, _ := json.Marshal(tool.InputSchema)
		var schemaMap map[string]any
		_ = json.Unmarshal(schema, &schemaMap)

		toolList[i] = map[string]any{
			"name":        tool.Name,
			"description": tool.Description,
			"inputSchema": schemaMap,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"tools": toolList,
		},
	}
}

func (s *Server) handleToolsCall(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	name, _ := params["name"].(string)
	args, _ := params["arguments"].(map[string]any)

	result, err := s.CallTool(ctx, name, args)
	if err != nil {
		// Tool failures are results the client shows to the model, not
		// protocol errors.
		return map[string]any{
			"jsonrpc": "2.0",
			"id":      id,
			"result": map[string]any{
				"content": []map[string]any{{"type": "text", "text": err.Error()}},
				"isError": true,
			},
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"content": []map[string]any{
				{
					"type": "text",
					"text": result,
				},
			},
		},
	}
}

func (s *Server) handleResourcesList(id any) map[string]any {
	resources := s.ListResources()
	resourceList := make([]map[string]any, len(resources))
	for i, res := range resources {
		resourceList[i] = map[string]any{
			"uri":         res.URI,
			"name":        res.Name,
			"description": res.Description,
			"mimeType":    res.MimeType,
		}
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"resources": resourceList,
		},
	}
}

func (s *Server) handleResourcesRead(ctx context.Context, id any, req map[string]any) map[string]any {
	params, _ := req["params"].(map[string]any)
	if params == nil {
		return errorResponse(id, -32602, "Invalid params")
	}

	uri, _ := params["uri"].(string)
	content, err := s.ReadResource(ctx, uri)
	if err != nil {
		return errorResponse(id, -32002, err.Error())
	}

	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"result": map[string]any{
			"contents": []map[string]any{
				{
					"uri":      uri,
					"mimeType": "text/plain",
					"text":     content,
				},
			},
		},
	}
}

// Tool Handlers

func (s *Server) handleDeps(ctx context.Context, entry, base, mode string) (string, error) {
	if entry == "" {
		return "", fmt.Errorf("entry is required")
	}
	res, err := ingestion.RunDeps(ctx, ingestion.Options{
		Entry:   entry,
		BaseDir: base,
		Store:   s.store,
		Logger:  s.log,
	})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	switch mode {
	case "csv":
		err = report.WriteDepsCSV(&buf, res.Edges)
	case string(report.DiagramDir), string(report.DiagramFile):
		err = report.WriteDepsDiagram(&buf, res.Graph, report.DiagramMode(mode))
	default:
		return "", fmt.Errorf("%w: %s", report.ErrUnknownMode, mode)
	}
	if err != nil {
		return "", err
	}

	for _, cycle := range res.Cycles {
		fmt.Fprintf(&buf, "# cycle: %s\n", strings.Join(cycle, " -> "))
	}
	return buf.String(), nil
}

func (s *Server) handleAttention(ctx context.Context, entry, base, mode string) (string, error) {
	if entry == "" {
		return "", fmt.Errorf("entry is required")
	}
	if mode != "csv" && mode != "json" {
		return "", fmt.Errorf("%w: %s", report.ErrUnknownMode, mode)
	}
	res, err := ingestion.RunAttention(ctx, ingestion.Options{
		Entry:   entry,
		BaseDir: base,
		Store:   s.store,
		Logger:  s.log,
	})
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if mode == "json" {
		err = report.WriteAttentionJSON(&buf, res.Files)
	} else {
		err = report.WriteAttentionCSV(&buf, res.Files)
	}
	if err != nil {
		return "", err
	}
	if res.Failed > 0 {
		fmt.Fprintf(&buf, "\n%d file(s) could not be analyzed\n", res.Failed)
	}
	return buf.String(), nil
}

func (s *Server) handleTree(ctx context.Context, file, mode string) (string, error) {
	if file == "" {
		return "", fmt.Errorf("file is required")
	}
	if !slices.Contains(report.TreeModes, mode) {
		return "", fmt.Errorf("%w: %s", report.ErrUnknownMode, mode)
	}

	res, err := ingestion.AnalyzeFile(ctx, file, "", false, s.log)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := report.WriteTree(&buf, mode, res.Tree, res); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (s *Server) handleOrphans(ctx context.Context, entry, base string) (string, error) {
	if entry == "" {
		return "", fmt.Errorf("entry is required")
	}
	res, err := ingestion.RunDeps(ctx, ingestion.Options{
		Entry:   entry,
		BaseDir: base,
		Store:   s.store,
		Logger:  s.log,
	})
	if err != nil {
		return "", err
	}

	orphans, err := ingestion.FindOrphans(res.BaseDir, res.Graph)
	if err != nil {
		return "", err
	}
	if len(orphans) == 0 {
		return "No orphan files found.", nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d orphan file(s):\n\n", len(orphans))
	for _, o := range orphans {
		fmt.Fprintf(&sb, "- %s\n", o)
	}
	return sb.String(), nil
}

// Helper functions

func errorResponse(id any, code int, message string) map[string]any {
	return map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
}

// registerTools registers tools with the MCP server.
func (s *Server) registerTools() {
	for _, tool := range s.ListTools() {
		name := tool.Name
		s.server.AddTool(&mcp.Tool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.InputSchema,
		}, func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			var args map[string]any
			if len(req.Params.Arguments) > 0 {
				if err := json.Unmarshal(req.Params.Arguments, &args); err != nil {
					return nil, err
				}
			}
			text, err := s.CallTool(ctx, name, args)
			if err != nil {
				return &mcp.CallToolResult{
					Content: []mcp.Content{&mcp.TextContent{Text: err.Error()}},
					IsError: true,
				}, nil
			}
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: text}},
			}, nil
		})
	}
}

// registerResources registers resources with the MCP server.
func (s *Server) registerResources() {
	for _, res := range s.ListResources() {
		s.server.AddResource(&mcp.Resource{
			URI:         res.URI,
			Name:        res.Name,
			Description: res.Description,
			MIMEType:    res.MimeType,
		}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			text, err := s.ReadResource(ctx, req.Params.URI)
			if err != nil {
				return nil, err
			}
			return &mcp.ReadResourceResult{
				Contents: []*mcp.ResourceContents{{URI: req.Params.URI, MIMEType: "text/plain", Text: text}},
			}, nil
		})
	}
}

// RunSDK serves the same tools and resources through the SDK's stdio
// transport instead of the line loop in Run.
func (s *Server) RunSDK(ctx context.Context) error {
	return s.server.Run(ctx, &mcp.StdioTransport{})
}
