package prune

import (
	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/clientprune/pkg/parser"
	"github.com/panbanda/clientprune/pkg/printer"
)

// Prune computes the deletions that drop every dead declaration from the
// module. Directives, side-effect imports, re-exports and anything that is
// not a value declaration or import are kept verbatim.
func Prune(result *parser.ParseResult, catalog *Catalog, live *LiveSet) ([]printer.Edit, []RemovedBinding, error) {
	for _, rec := range catalog.Exports {
		if rec.Kind != ExportNamed || rec.HasSource {
			continue
		}
		for _, spec := range rec.Specifiers {
			if b, ok := catalog.Lookup(spec.Local); ok && !live.Contains(b.ID) {
				return nil, nil, &InconsistencyError{Path: catalog.Path, Name: spec.Local}
			}
		}
	}

	// a unit survives if any binding it introduces is live
	unitLive := make(map[*Declaration]bool)
	byStmt := make(map[uint32][]*Declaration)
	for _, b := range catalog.Bindings {
		isLive := live.Contains(b.ID)
		for _, d := range b.Declarations() {
			if _, seen := unitLive[d]; !seen {
				key := d.Stmt.StartByte()
				byStmt[key] = append(byStmt[key], d)
			}
			unitLive[d] = unitLive[d] || isLive
		}
	}

	p := &pruner{source: result.Source, unitLive: unitLive}
	for _, stmt := range catalog.Statements {
		units := byStmt[stmt.Node.StartByte()]
		if len(units) == 0 {
			continue
		}
		switch stmt.Role {
		case RoleImport:
			p.pruneImport(stmt.Node, units)
		case RoleDeclaration:
			p.pruneDeclaration(stmt.Node, units)
		}
	}

	var removed []RemovedBinding
	for _, b := range catalog.Bindings {
		gone := true
		for _, d := range b.Declarations() {
			if unitLive[d] {
				gone = false
				break
			}
		}
		if gone {
			removed = append(removed, RemovedBinding{Name: b.Name, Kind: b.Kind, Line: b.Decl.Line})
		}
	}
	return p.edits, removed, nil
}

type pruner struct {
	source   []byte
	unitLive map[*Declaration]bool
	edits    []printer.Edit
}

func (p *pruner) isLive(units []*Declaration, node *sitter.Node) bool {
	for _, d := range units {
		if sameNode(d.Node, node) {
			return p.unitLive[d]
		}
	}
	// declarators that bind nothing are kept
	return true
}

func (p *pruner) allDead(units []*Declaration) bool {
	for _, d := range units {
		if p.unitLive[d] {
			return false
		}
	}
	return true
}

func (p *pruner) pruneDeclaration(stmt *sitter.Node, units []*Declaration) {
	list := units[0].List
	if list == nil {
		if p.allDead(units) {
			p.deleteStatement(stmt)
		}
		return
	}

	var items []*sitter.Node
	for _, child := range parser.NamedChildren(list) {
		if child.Type() == "variable_declarator" {
			items = append(items, child)
		}
	}
	if !p.removeFromList(items, units) {
		p.deleteStatement(stmt)
	}
}

// removeFromList deletes the dead items of a comma separated list together
// with their separators. It reports false when every item is dead and the
// caller must remove the enclosing construct instead.
func (p *pruner) removeFromList(items []*sitter.Node, units []*Declaration) bool {
	alive := make([]bool, len(items))
	kept := false
	for i, item := range items {
		alive[i] = p.isLive(units, item)
		kept = kept || alive[i]
	}
	if !kept {
		return false
	}

	for i := 0; i < len(items); {
		if alive[i] {
			i++
			continue
		}
		j := i
		for j+1 < len(items) && !alive[j+1] {
			j++
		}
		if i > 0 {
			// `, dead` after a kept item
			p.edits = append(p.edits, printer.Delete(items[i-1].EndByte(), items[j].EndByte()))
		} else {
			// `dead, ` before the first kept item
			p.edits = append(p.edits, printer.Delete(items[i].StartByte(), items[j+1].StartByte()))
		}
		i = j + 1
	}
	return true
}

func (p *pruner) pruneImport(stmt *sitter.Node, units []*Declaration) {
	if p.allDead(units) {
		p.deleteStatement(stmt)
		return
	}

	clause := firstNamedOfType(stmt, "import_clause")
	if clause == nil {
		return
	}

	var def, ns, named *sitter.Node
	for _, child := range parser.NamedChildren(clause) {
		switch child.Type() {
		case "identifier":
			def = child
		case "namespace_import":
			ns = child
		case "named_imports":
			named = child
		}
	}

	if named != nil {
		var specs []*sitter.Node
		for _, child := range parser.NamedChildren(named) {
			if child.Type() == "import_specifier" {
				specs = append(specs, child)
			}
		}
		if len(specs) > 0 && !p.removeFromList(specs, units) && def != nil {
			// `D, { dead }` becomes `D`
			p.edits = append(p.edits, printer.Delete(def.EndByte(), named.EndByte()))
		}
	}

	if ns != nil && !p.isLive(units, ns) && def != nil {
		p.edits = append(p.edits, printer.Delete(def.EndByte(), ns.EndByte()))
	}

	if def != nil && !p.isLive(units, def) {
		next := def.NextNamedSibling()
		if next != nil {
			p.edits = append(p.edits, printer.Delete(def.StartByte(), next.StartByte()))
		}
	}
}

// deleteStatement removes a top-level statement, a trailing comment on the
// same line, and the line itself when nothing else remains on it.
func (p *pruner) deleteStatement(stmt *sitter.Node) {
	start, end := stmt.StartByte(), stmt.EndByte()
	if next := stmt.NextSibling(); next != nil && next.Type() == "comment" &&
		next.StartPoint().Row == stmt.EndPoint().Row {
		end = next.EndByte()
	}
	start, end = expandToLine(p.source, start, end)
	p.edits = append(p.edits, printer.Delete(start, end))
}

// expandToLine widens [start, end) to whole lines when the range is alone on
// its lines, and swallows one blank line when that would otherwise leave two
// in a row.
func expandToLine(src []byte, start, end uint32) (uint32, uint32) {
	ls := start
	for ls > 0 && (src[ls-1] == ' ' || src[ls-1] == '\t') {
		ls--
	}
	if ls > 0 && src[ls-1] != '\n' {
		return start, end
	}

	le := end
	for int(le) < len(src) && (src[le] == ' ' || src[le] == '\t' || src[le] == '\r') {
		le++
	}
	if int(le) < len(src) && src[le] != '\n' {
		return start, end
	}
	if int(le) < len(src) {
		le++
	}

	if blankBefore(src, ls) {
		if next, ok := blankLineAt(src, le); ok {
			le = next
		}
	}
	return ls, le
}

// blankBefore reports whether the line preceding offset is empty or offset
// is the start of the file.
func blankBefore(src []byte, offset uint32) bool {
	if offset == 0 {
		return true
	}
	i := int(offset) - 1 // the '\n' ending the previous line
	for i > 0 && (src[i-1] == ' ' || src[i-1] == '\t' || src[i-1] == '\r') {
		i--
	}
	return i == 0 || src[i-1] == '\n'
}

// blankLineAt returns the offset after the line starting at offset if that
// line is empty.
func blankLineAt(src []byte, offset uint32) (uint32, bool) {
	i := int(offset)
	for i < len(src) && (src[i] == ' ' || src[i] == '\t' || src[i] == '\r') {
		i++
	}
	if i < len(src) && src[i] == '\n' {
		return uint32(i + 1), true
	}
	return 0, false
}
