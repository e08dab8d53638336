package prune

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/clientprune/pkg/parser"
)

// DefaultDirective is the directive that marks a client module.
const DefaultDirective = "use client"

// Prologue returns the directive statements at the head of the module: the
// leading run of expression statements consisting of a single string literal.
// Comments may appear between them.
func Prologue(result *parser.ParseResult) []*sitter.Node {
	var out []*sitter.Node
	root := result.Root()
loop:
	for i := range int(root.NamedChildCount()) {
		child := root.NamedChild(i)
		switch child.Type() {
		case "comment", "hash_bang_line":
		case "expression_statement":
			if !isStringStatement(child) {
				break loop
			}
			out = append(out, child)
		default:
			break loop
		}
	}
	return out
}

// HasDirective reports the first prologue directive matching one of names.
// Matching is exact: `'use client'` matches but `'use  client'` does not.
func HasDirective(result *parser.ParseResult, names []string) (string, bool) {
	for _, stmt := range Prologue(result) {
		value := directiveValue(stmt, result.Source)
		for _, name := range names {
			if value == name {
				return name, true
			}
		}
	}
	return "", false
}

func isStringStatement(stmt *sitter.Node) bool {
	return stmt.NamedChildCount() == 1 && stmt.NamedChild(0).Type() == "string"
}

// directiveValue returns the unquoted string of a directive statement.
func directiveValue(stmt *sitter.Node, source []byte) string {
	if !isStringStatement(stmt) {
		return ""
	}
	text := parser.GetNodeText(stmt.NamedChild(0), source)
	if len(text) < 2 {
		return ""
	}
	return text[1 : len(text)-1]
}
