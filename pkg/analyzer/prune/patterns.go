package prune

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/clientprune/pkg/parser"
)

// patternNames returns the names bound by a binding pattern, parameter or
// parameter list.
func patternNames(node *sitter.Node, source []byte) []string {
	var names []string
	collectPatternNames(node, source, &names)
	return names
}

func collectPatternNames(node *sitter.Node, source []byte, names *[]string) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "identifier", "shorthand_property_identifier_pattern":
		*names = append(*names, parser.GetNodeText(node, source))
	case "object_pattern", "array_pattern", "formal_parameters", "rest_pattern":
		for _, child := range parser.NamedChildren(node) {
			collectPatternNames(child, source, names)
		}
	case "pair_pattern":
		collectPatternNames(node.ChildByFieldName("value"), source, names)
	case "assignment_pattern", "object_assignment_pattern":
		collectPatternNames(node.ChildByFieldName("left"), source, names)
	case "required_parameter", "optional_parameter":
		collectPatternNames(node.ChildByFieldName("pattern"), source, names)
	}
}

// declaratorNames returns the names bound by every declarator of a
// lexical_declaration or variable_declaration.
func declaratorNames(decl *sitter.Node, source []byte) []string {
	var names []string
	for _, child := range parser.NamedChildren(decl) {
		if child.Type() == "variable_declarator" {
			collectPatternNames(child.ChildByFieldName("name"), source, &names)
		}
	}
	return names
}

// declaredName returns the text of the name field, if present.
func declaredName(node *sitter.Node, source []byte) string {
	return parser.GetNodeText(node.ChildByFieldName("name"), source)
}

// hasToken reports whether node has a direct anonymous child with the given text.
func hasToken(node *sitter.Node, token string) bool {
	for i := range int(node.ChildCount()) {
		child := node.Child(i)
		if !child.IsNamed() && child.Type() == token {
			return true
		}
	}
	return false
}

// firstNamedOfType returns the first direct named child of the given type.
func firstNamedOfType(node *sitter.Node, typ string) *sitter.Node {
	for _, child := range parser.NamedChildren(node) {
		if child.Type() == typ {
			return child
		}
	}
	return nil
}

// unquote strips the delimiters of a string literal node.
func unquote(node *sitter.Node, source []byte) string {
	text := parser.GetNodeText(node, source)
	if len(text) < 2 {
		return text
	}
	return text[1 : len(text)-1]
}

func isFunctionNode(typ string) bool {
	switch typ {
	case "function", "function_expression", "generator_function", "arrow_function":
		return true
	}
	return false
}
