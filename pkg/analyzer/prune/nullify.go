package prune

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/clientprune/pkg/parser"
)

const nullArgs = "(null)"

// planNullCalls rewrites `key: Callee(args)` object properties so that calls
// to the named identifier receive a single null argument. Arguments of a
// rewritten call are not searched further.
func planNullCalls(result *parser.ParseResult, callee string) (rewrite, int) {
	var r rewrite
	if callee == "" {
		return r, 0
	}

	count := 0
	replaced := make(map[uint32]bool)
	parser.WalkTyped(result.Root(), result.Source, func(node *sitter.Node, nodeType string, source []byte) bool {
		switch nodeType {
		case "arguments":
			return !replaced[node.StartByte()]
		case "pair":
		default:
			return true
		}

		call := node.ChildByFieldName("value")
		if call == nil || call.Type() != "call_expression" {
			return true
		}
		fn := call.ChildByFieldName("function")
		args := call.ChildByFieldName("arguments")
		if fn == nil || args == nil || fn.Type() != "identifier" || parser.GetNodeText(fn, source) != callee {
			return true
		}
		if args.Type() != "arguments" {
			// tagged template call
			return true
		}

		replaced[args.StartByte()] = true
		if parser.GetNodeText(args, source) != nullArgs {
			count++
		}
		r.replace(args, source, nullArgs)
		return true
	})
	return r, count
}
