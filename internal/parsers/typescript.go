package parsers

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Grammar names reported by TypeScriptParser.Language.
const (
	GrammarTSX        = "tsx"
	GrammarTypeScript = "typescript"
)

// SourceExtensions lists the file extensions tsmap analyzes.
var SourceExtensions = map[string]bool{
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
	".js":  true,
	".jsx": true,
	".mjs": true,
	".cjs": true,
}

// IsSourceFile reports whether name has an analyzable extension.
func IsSourceFile(name string) bool {
	return SourceExtensions[strings.ToLower(filepath.Ext(name))]
}

// TypeScriptParser parses TS/JS/TSX/JSX with the tree-sitter TypeScript grammars.
//
// Plain TypeScript files use the typescript grammar so that `<T>expr`
// assertions parse; everything else uses tsx, which also covers JavaScript
// with JSX.
type TypeScriptParser struct{}

// NewTypeScriptParser creates a new TypeScript parser.
func NewTypeScriptParser() *TypeScriptParser {
	return &TypeScriptParser{}
}

// Language returns the grammar used for filePath.
func (p *TypeScriptParser) Language(filePath string) string {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".ts", ".mts", ".cts":
		return GrammarTypeScript
	default:
		return GrammarTSX
	}
}

// Parse parses content and returns its flattened syntax tree.
func (p *TypeScriptParser) Parse(ctx context.Context, filePath string, content []byte) (*FlatTree, error) {
	parser := sitter.NewParser()
	defer parser.Close()

	grammar := p.Language(filePath)
	if grammar == GrammarTypeScript {
		parser.SetLanguage(typescript.GetLanguage())
	} else {
		parser.SetLanguage(tsx.GetLanguage())
	}

	tree, err := parser.ParseCtx(ctx, nil, content)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	root := tree.RootNode()
	return &FlatTree{
		Path:     filePath,
		Language: grammar,
		Source:   content,
		Nodes:    Flatten(root, content),
		HasError: root.HasError(),
	}, nil
}
