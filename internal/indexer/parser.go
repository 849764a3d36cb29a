package indexer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/mvp-joe/archextract/internal/indexer/parsers"
	"github.com/mvp-joe/archextract/internal/syntax"
)

// multiLanguageParser routes files to the tree-sitter parser of their language.
type multiLanguageParser struct {
	tsParser   parsers.Parser
	tsxParser  parsers.Parser
	jsParser   parsers.Parser
	javaParser parsers.Parser
}

// NewParser creates a parser for TypeScript, JavaScript and Java sources.
func NewParser() Parser {
	return &multiLanguageParser{
		tsParser:   parsers.NewTypeScriptParser(),
		tsxParser:  parsers.NewTSXParser(),
		jsParser:   parsers.NewJavaScriptParser(),
		javaParser: parsers.NewJavaParser(),
	}
}

// ParseFile reads and parses the file at rootDir/relPath. Files in an
// unsupported language yield nil without error.
func (p *multiLanguageParser) ParseFile(ctx context.Context, rootDir, relPath string) (*syntax.File, error) {
	parser := p.parserFor(relPath)
	if parser == nil {
		return nil, nil
	}

	source, err := os.ReadFile(filepath.Join(rootDir, filepath.FromSlash(relPath)))
	if err != nil {
		return nil, err
	}
	return parser.Parse(ctx, relPath, source)
}

// SupportsLanguage checks if this parser supports the given language.
func (p *multiLanguageParser) SupportsLanguage(language string) bool {
	switch language {
	case "typescript", "javascript", "java":
		return true
	}
	return false
}

func (p *multiLanguageParser) parserFor(path string) parsers.Parser {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".ts", ".mts", ".cts":
		return p.tsParser
	case ".tsx":
		return p.tsxParser
	case ".js", ".jsx", ".mjs", ".cjs":
		return p.jsParser
	case ".java":
		return p.javaParser
	}
	return nil
}

// SupportsExtension reports whether NewParser handles files with ext,
// given with its leading dot.
func SupportsExtension(ext string) bool {
	return detectLanguage("file"+ext) != "unknown"
}

// detectLanguage detects the programming language based on file extension.
func detectLanguage(filePath string) string {
	ext := strings.ToLower(filepath.Ext(filePath))
	switch ext {
	case ".ts", ".tsx", ".mts", ".cts":
		return "typescript"
	case ".js", ".jsx", ".mjs", ".cjs":
		return "javascript"
	case ".java":
		return "java"
	default:
		return "unknown"
	}
}
