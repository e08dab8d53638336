// Package parser parses JavaScript and TypeScript modules with tree-sitter.
package parser

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
)

// Language is a module dialect, which selects the grammar.
type Language string

const (
	LangTypeScript Language = "typescript"
	LangJavaScript Language = "javascript"
	LangTSX        Language = "tsx"
	LangUnknown    Language = "unknown"
)

var grammars = map[Language]func() *sitter.Language{
	LangTypeScript: typescript.GetLanguage,
	LangTSX:        tsx.GetLanguage,
	LangJavaScript: javascript.GetLanguage,
}

// .jsx goes through the TSX grammar, which accepts all of JSX.
var extensions = map[string]Language{
	".ts":  LangTypeScript,
	".mts": LangTypeScript,
	".cts": LangTypeScript,
	".tsx": LangTSX,
	".jsx": LangTSX,
	".js":  LangJavaScript,
	".mjs": LangJavaScript,
	".cjs": LangJavaScript,
}

// DetectLanguage maps a file extension to its dialect.
func DetectLanguage(path string) Language {
	if lang, ok := extensions[strings.ToLower(filepath.Ext(path))]; ok {
		return lang
	}
	return LangUnknown
}

// IsSupported reports whether path has a module extension the parser handles.
func IsSupported(path string) bool {
	return DetectLanguage(path) != LangUnknown
}

// Grammar returns the tree-sitter grammar for lang.
func Grammar(lang Language) (*sitter.Language, error) {
	get, ok := grammars[lang]
	if !ok {
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
	return get(), nil
}

// Parser owns a tree-sitter parser. It is not safe for concurrent use.
type Parser struct {
	parser *sitter.Parser
}

// ParseResult is a parsed module. The caller closes Tree.
type ParseResult struct {
	Tree     *sitter.Tree
	Language Language
	Source   []byte
	Path     string
}

// Root returns the program node.
func (r *ParseResult) Root() *sitter.Node {
	return r.Tree.RootNode()
}

// Text returns the source text of node.
func (r *ParseResult) Text(node *sitter.Node) string {
	return GetNodeText(node, r.Source)
}

func New() *Parser {
	return &Parser{parser: sitter.NewParser()}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.parser.Close()
}

// ParseFile reads and parses the module at path.
func (p *Parser) ParseFile(path string) (*ParseResult, error) {
	lang := DetectLanguage(path)
	if lang == LangUnknown {
		return nil, fmt.Errorf("unsupported language for file: %s", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return p.Parse(source, lang, path)
}

func (p *Parser) Parse(source []byte, lang Language, path string) (*ParseResult, error) {
	return p.ParseCtx(context.Background(), source, lang, path)
}

// ParseCtx parses source as lang. Parsing stops early if ctx is cancelled.
func (p *Parser) ParseCtx(ctx context.Context, source []byte, lang Language, path string) (*ParseResult, error) {
	grammar, err := Grammar(lang)
	if err != nil {
		return nil, err
	}
	p.parser.SetLanguage(grammar)
	tree, err := p.parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}
	return &ParseResult{Tree: tree, Language: lang, Source: source, Path: path}, nil
}

// TypedNodeVisitor is called for each node with its type already fetched.
// Returning false skips the node's children.
type TypedNodeVisitor func(node *sitter.Node, nodeType string, source []byte) bool

// WalkTyped visits node and its descendants in document order.
func WalkTyped(node *sitter.Node, source []byte, visitor TypedNodeVisitor) {
	if node == nil {
		return
	}
	cursor := sitter.NewTreeCursor(node)
	defer cursor.Close()

	for {
		current := cursor.CurrentNode()
		if visitor(current, current.Type(), source) && cursor.GoToFirstChild() {
			continue
		}
		// climb until a sibling exists; the cursor cannot leave node
		for !cursor.GoToNextSibling() {
			if !cursor.GoToParent() {
				return
			}
		}
	}
}

// NamedChildren returns the named children of node in source order.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	n := int(node.NamedChildCount())
	out := make([]*sitter.Node, 0, n)
	for i := range n {
		out = append(out, node.NamedChild(i))
	}
	return out
}

// GetNodeText returns the source text of node, or "" for a nil node or a
// range outside source.
func GetNodeText(node *sitter.Node, source []byte) string {
	if node == nil {
		return ""
	}
	start, end := node.StartByte(), node.EndByte()
	if start > end || end > uint32(len(source)) {
		return ""
	}
	return string(source[start:end])
}

// SyntaxError locates the first malformed region of a tree.
type SyntaxError struct {
	Line   uint32
	Column uint32
	Text   string
}

const syntaxSnippet = 40

// FirstSyntaxError returns the first ERROR or MISSING node in document
// order, or nil if the tree parsed cleanly.
func FirstSyntaxError(result *ParseResult) *SyntaxError {
	root := result.Root()
	if root == nil || !root.HasError() {
		return nil
	}

	var found *SyntaxError
	WalkTyped(root, result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		if found != nil {
			return false
		}
		if nodeType != "ERROR" && !node.IsMissing() {
			return node.HasError()
		}
		text := GetNodeText(node, source)
		if len(text) > syntaxSnippet {
			text = text[:syntaxSnippet]
		}
		found = &SyntaxError{
			Line:   node.StartPoint().Row + 1,
			Column: node.StartPoint().Column + 1,
			Text:   text,
		}
		return false
	})
	if found == nil {
		found = &SyntaxError{Line: root.StartPoint().Row + 1, Column: 1}
	}
	return found
}
