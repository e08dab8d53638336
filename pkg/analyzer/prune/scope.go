package prune

import (
	"unicode"
	"unicode/utf8"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/clientprune/pkg/parser"
)

// Span is a half-open byte range of the source.
type Span struct {
	Start uint32
	End   uint32
}

func (s Span) covers(node *sitter.Node) bool {
	return s.Start <= node.StartByte() && node.EndByte() <= s.End && s.Start < s.End
}

// scope is one lexical frame of names declared inside a top-level span.
type scope map[string]struct{}

func (s scope) add(names ...string) {
	for _, n := range names {
		if n != "" {
			s[n] = struct{}{}
		}
	}
}

// refScanner finds identifiers that resolve to module top level. It keeps an
// explicit stack of nested scopes; an identifier declared by any frame on the
// stack is local and ignored. When a construct is not understood the
// identifier is treated as free, which can only retain more code.
type refScanner struct {
	source []byte
	masks  []Span
	stack  []scope
	onRef  func(name string)
}

func newRefScanner(source []byte, masks []Span, onRef func(string)) *refScanner {
	return &refScanner{source: source, masks: masks, onRef: onRef}
}

// scan reports every free identifier below node.
func (s *refScanner) scan(node *sitter.Node) {
	s.stack = s.stack[:0]
	s.visit(node)
}

func (s *refScanner) masked(node *sitter.Node) bool {
	for _, m := range s.masks {
		if m.covers(node) {
			return true
		}
	}
	return false
}

func (s *refScanner) declared(name string) bool {
	for i := len(s.stack) - 1; i >= 0; i-- {
		if _, ok := s.stack[i][name]; ok {
			return true
		}
	}
	return false
}

func (s *refScanner) visit(node *sitter.Node) {
	if node == nil || s.masked(node) {
		return
	}

	switch node.Type() {
	case "identifier", "type_identifier", "shorthand_property_identifier":
		if isIntrinsicTag(node, s.source) {
			return
		}
		name := parser.GetNodeText(node, s.source)
		if !s.declared(name) {
			s.onRef(name)
		}
		return
	case "property_identifier", "private_property_identifier", "statement_identifier",
		"comment", "string", "regex", "number":
		return
	case "nested_identifier":
		// only the leftmost segment names a binding
		s.visit(node.NamedChild(0))
		return
	case "nested_type_identifier":
		s.visit(node.ChildByFieldName("module"))
		return
	}

	if frame := s.frameFor(node); frame != nil {
		s.stack = append(s.stack, frame)
		defer func() { s.stack = s.stack[:len(s.stack)-1] }()
	}

	for i := range int(node.ChildCount()) {
		s.visit(node.Child(i))
	}
}

// isIntrinsicTag reports lowercase JSX tag names such as <div>, which are
// not variable references.
func isIntrinsicTag(node *sitter.Node, source []byte) bool {
	parent := node.Parent()
	if parent == nil {
		return false
	}
	switch parent.Type() {
	case "jsx_opening_element", "jsx_closing_element", "jsx_self_closing_element":
	default:
		return false
	}
	r, _ := utf8.DecodeRune(source[node.StartByte():node.EndByte()])
	return unicode.IsLower(r)
}

// frameFor returns the names a node declares for its own subtree, or nil if
// the node does not open a scope.
func (s *refScanner) frameFor(node *sitter.Node) scope {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration", "function", "function_expression",
		"generator_function", "arrow_function", "method_definition", "function_signature",
		"method_signature", "abstract_method_signature", "function_type", "call_signature",
		"construct_signature":
		return s.functionFrame(node)
	case "class", "class_declaration", "abstract_class_declaration":
		frame := scope{}
		if node.Type() == "class" {
			frame.add(declaredName(node, s.source))
		}
		s.addTypeParameters(node, frame)
		return frame
	case "statement_block", "class_static_block":
		return s.blockFrame(parser.NamedChildren(node))
	case "switch_body":
		var stmts []*sitter.Node
		for _, c := range parser.NamedChildren(node) {
			stmts = append(stmts, parser.NamedChildren(c)...)
		}
		return s.blockFrame(stmts)
	case "for_statement":
		frame := scope{}
		if init := node.ChildByFieldName("initializer"); init != nil {
			frame.add(declaratorNames(init, s.source)...)
		}
		return frame
	case "for_in_statement":
		frame := scope{}
		if hasToken(node, "let") || hasToken(node, "const") || hasToken(node, "var") {
			frame.add(patternNames(node.ChildByFieldName("left"), s.source)...)
		}
		return frame
	case "catch_clause":
		frame := scope{}
		frame.add(patternNames(node.ChildByFieldName("parameter"), s.source)...)
		return frame
	}
	return nil
}

func (s *refScanner) functionFrame(node *sitter.Node) scope {
	frame := scope{}
	switch node.Type() {
	case "function", "function_expression", "generator_function":
		frame.add(declaredName(node, s.source))
	}
	s.addTypeParameters(node, frame)
	if params := node.ChildByFieldName("parameters"); params != nil {
		frame.add(patternNames(params, s.source)...)
	}
	if param := node.ChildByFieldName("parameter"); param != nil {
		frame.add(patternNames(param, s.source)...)
	}
	if body := node.ChildByFieldName("body"); body != nil && body.Type() == "statement_block" {
		s.addHoisted(body, frame)
	}
	return frame
}

func (s *refScanner) addTypeParameters(node *sitter.Node, frame scope) {
	tps := node.ChildByFieldName("type_parameters")
	if tps == nil {
		return
	}
	for _, tp := range parser.NamedChildren(tps) {
		if tp.Type() == "type_parameter" {
			frame.add(declaredName(tp, s.source))
		}
	}
}

// addHoisted adds `var` declarations anywhere in a function body, without
// crossing into nested functions.
func (s *refScanner) addHoisted(body *sitter.Node, frame scope) {
	parser.WalkTyped(body, s.source, func(node *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "variable_declaration":
			frame.add(declaratorNames(node, source)...)
		case "for_in_statement":
			if hasToken(node, "var") {
				frame.add(patternNames(node.ChildByFieldName("left"), source)...)
			}
		case "function_declaration", "generator_function_declaration", "function", "function_expression",
			"generator_function", "arrow_function", "method_definition", "class", "class_declaration":
			return false
		}
		return true
	})
}

func (s *refScanner) blockFrame(stmts []*sitter.Node) scope {
	frame := scope{}
	for _, stmt := range stmts {
		switch stmt.Type() {
		case "lexical_declaration", "variable_declaration":
			frame.add(declaratorNames(stmt, s.source)...)
		case "function_declaration", "generator_function_declaration", "class_declaration",
			"abstract_class_declaration", "enum_declaration", "interface_declaration",
			"type_alias_declaration":
			frame.add(declaredName(stmt, s.source))
		}
	}
	return frame
}
