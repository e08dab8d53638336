package prune

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/clientprune/pkg/parser"
	"github.com/panbanda/clientprune/pkg/printer"
)

const (
	nullBody  = "{ return null; }"
	nullValue = "null"
	nullArrow = "() => null"
)

// rewrite is a set of replacements plus the spans they hide from reference
// scanning.
type rewrite struct {
	edits []printer.Edit
	masks []Span
	names []string
}

func (r *rewrite) replace(node *sitter.Node, source []byte, text string) {
	r.masks = append(r.masks, Span{Start: node.StartByte(), End: node.EndByte()})
	if parser.GetNodeText(node, source) == text {
		return
	}
	r.edits = append(r.edits, printer.Replace(node.StartByte(), node.EndByte(), text))
}

// planStubs replaces the implementation of every exported function and
// variable with a null placeholder: function bodies return null, function
// valued variables become `() => null` and other variables become `null`.
// Classes, enums and destructuring declarators are left intact.
func planStubs(result *parser.ParseResult, catalog *Catalog) rewrite {
	var r rewrite
	src := result.Source

	for _, b := range catalog.Roots() {
		stubbed := false
		for _, d := range b.Declarations() {
			switch d.Node.Type() {
			case "function_declaration", "generator_function_declaration":
				if body := d.Node.ChildByFieldName("body"); body != nil {
					r.replace(body, src, nullBody)
					stubbed = true
				}
			case "variable_declarator":
				name := d.Node.ChildByFieldName("name")
				if name == nil || name.Type() != "identifier" {
					continue
				}
				value := d.Node.ChildByFieldName("value")
				switch {
				case value == nil:
					if d.List != nil && hasToken(d.List, "const") {
						continue
					}
					r.edits = append(r.edits, printer.Replace(d.Node.EndByte(), d.Node.EndByte(), " = "+nullValue))
				case isFunctionNode(value.Type()):
					r.replace(value, src, nullArrow)
				default:
					r.replace(value, src, nullValue)
				}
				stubbed = true
			}
		}
		if stubbed {
			r.names = append(r.names, b.Name)
		}
	}

	for _, rec := range catalog.Exports {
		if rec.Kind != ExportDefault || rec.DefaultValue == nil || !isFunctionNode(rec.DefaultValue.Type()) {
			continue
		}
		body := rec.DefaultValue.ChildByFieldName("body")
		if body == nil {
			continue
		}
		if body.Type() == "statement_block" {
			r.replace(body, src, nullBody)
		} else {
			r.replace(body, src, nullValue)
		}
		r.names = append(r.names, "default")
	}
	return r
}
