package prune

import (
	"fmt"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/clientprune/pkg/parser"
)

// Anchor is a retained span whose references are roots of the graph.
type Anchor struct {
	Label string
	Node  *sitter.Node
}

// Catalog is the set of top-level bindings, export records and statement
// classifications of one module.
type Catalog struct {
	Path       string
	Bindings   []*Binding
	Exports    []*ExportRecord
	Statements []Statement
	Anchors    []Anchor

	byName map[string]*Binding
	opaque map[string]struct{}
	roots  []*Binding
	source []byte
}

// BuildCatalog walks the program's direct children and records every
// top-level binding. Nested scopes are not entered.
func BuildCatalog(result *parser.ParseResult) (*Catalog, error) {
	c := &Catalog{
		Path:   result.Path,
		byName: make(map[string]*Binding),
		opaque: make(map[string]struct{}),
		source: result.Source,
	}

	directives := make(map[uint32]bool)
	for _, d := range Prologue(result) {
		directives[d.StartByte()] = true
	}

	root := result.Root()
	for i := range int(root.NamedChildCount()) {
		stmt := root.NamedChild(i)
		if directives[stmt.StartByte()] {
			c.Statements = append(c.Statements, Statement{Node: stmt, Role: RoleDirective})
			continue
		}
		role, err := c.addStatement(stmt)
		if err != nil {
			return nil, err
		}
		c.Statements = append(c.Statements, Statement{Node: stmt, Role: role})
	}

	if err := c.resolveRoots(); err != nil {
		return nil, err
	}
	return c, nil
}

// Lookup returns the binding for name.
func (c *Catalog) Lookup(name string) (*Binding, bool) {
	b, ok := c.byName[name]
	return b, ok
}

// IsOpaque reports whether name is declared only in type space.
func (c *Catalog) IsOpaque(name string) bool {
	_, ok := c.opaque[name]
	return ok
}

// Roots returns the bindings that are part of the module's export surface.
func (c *Catalog) Roots() []*Binding {
	return c.roots
}

func (c *Catalog) addStatement(stmt *sitter.Node) (Role, error) {
	switch stmt.Type() {
	case "comment", "hash_bang_line":
		return RoleComment, nil
	case "import_statement":
		return c.addImport(stmt)
	case "export_statement":
		return c.addExport(stmt)
	case "expression_statement":
		if ns := firstNamedOfType(stmt, "internal_module"); ns != nil {
			c.addOpaque(declaredName(ns, c.source))
			c.anchor(stmt)
			return RoleOpaque, nil
		}
	}

	opaque, err := c.addDeclaration(stmt, stmt, false)
	if err != nil {
		return RoleOther, err
	}
	switch {
	case opaque:
		return RoleOpaque, nil
	case isValueDeclaration(stmt.Type()):
		return RoleDeclaration, nil
	}
	c.anchor(stmt)
	return RoleOther, nil
}

func isValueDeclaration(typ string) bool {
	switch typ {
	case "function_declaration", "generator_function_declaration", "function_signature",
		"class_declaration", "abstract_class_declaration", "enum_declaration",
		"lexical_declaration", "variable_declaration":
		return true
	}
	return false
}

// addDeclaration records the bindings of a declaration node. It reports
// whether the declaration lives in type space and was anchored as opaque.
// Declarations that are neither are left for the caller to anchor.
func (c *Catalog) addDeclaration(decl, stmt *sitter.Node, exported bool) (bool, error) {
	line := decl.StartPoint().Row + 1
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "function_signature":
		return false, c.declare(declaredName(decl, c.source), KindFunction,
			&Declaration{Node: decl, Stmt: stmt, Line: line}, exported)
	case "class_declaration", "abstract_class_declaration":
		return false, c.declare(declaredName(decl, c.source), KindClass,
			&Declaration{Node: decl, Stmt: stmt, Line: line}, exported)
	case "enum_declaration":
		return false, c.declare(declaredName(decl, c.source), KindEnum,
			&Declaration{Node: decl, Stmt: stmt, Line: line}, exported)
	case "lexical_declaration", "variable_declaration":
		for _, declarator := range parser.NamedChildren(decl) {
			if declarator.Type() != "variable_declarator" {
				continue
			}
			names := patternNames(declarator.ChildByFieldName("name"), c.source)
			if len(names) == 0 {
				c.anchor(declarator)
				continue
			}
			d := &Declaration{Node: declarator, Stmt: stmt, List: decl, Line: declarator.StartPoint().Row + 1}
			for _, name := range names {
				if err := c.declare(name, KindVariable, d, exported); err != nil {
					return false, err
				}
			}
		}
		return false, nil
	case "interface_declaration", "type_alias_declaration", "module", "internal_module", "import_alias":
		c.addOpaque(declaredName(decl, c.source))
		c.anchor(stmt)
		return true, nil
	case "ambient_declaration":
		for _, inner := range parser.NamedChildren(decl) {
			switch inner.Type() {
			case "lexical_declaration", "variable_declaration":
				for _, name := range declaratorNames(inner, c.source) {
					c.addOpaque(name)
				}
			default:
				c.addOpaque(declaredName(inner, c.source))
			}
		}
		c.anchor(stmt)
		return true, nil
	}
	return false, nil
}

func (c *Catalog) addImport(stmt *sitter.Node) (Role, error) {
	origin := unquote(stmt.ChildByFieldName("source"), c.source)
	line := stmt.StartPoint().Row + 1

	if req := firstNamedOfType(stmt, "import_require_clause"); req != nil {
		if str := firstNamedOfType(req, "string"); str != nil {
			origin = unquote(str, c.source)
		}
		id := firstNamedOfType(req, "identifier")
		if id == nil {
			c.anchor(stmt)
			return RoleOther, nil
		}
		b, err := c.declareImport(parser.GetNodeText(id, c.source), KindImportDefault,
			&Declaration{Node: stmt, Stmt: stmt, Line: line})
		if err != nil {
			return RoleImport, err
		}
		b.Origin, b.Imported = origin, "default"
		return RoleImport, nil
	}

	clause := firstNamedOfType(stmt, "import_clause")
	if clause == nil {
		return RoleSideEffectImport, nil
	}

	units := 0
	for _, child := range parser.NamedChildren(clause) {
		switch child.Type() {
		case "identifier":
			b, err := c.declareImport(parser.GetNodeText(child, c.source), KindImportDefault,
				&Declaration{Node: child, Stmt: stmt, List: clause, Line: line})
			if err != nil {
				return RoleImport, err
			}
			b.Origin, b.Imported = origin, "default"
			units++
		case "namespace_import":
			id := firstNamedOfType(child, "identifier")
			if id == nil {
				continue
			}
			b, err := c.declareImport(parser.GetNodeText(id, c.source), KindImportNamespace,
				&Declaration{Node: child, Stmt: stmt, List: clause, Line: line})
			if err != nil {
				return RoleImport, err
			}
			b.Origin, b.Imported = origin, "*"
			units++
		case "named_imports":
			for _, spec := range parser.NamedChildren(child) {
				if spec.Type() != "import_specifier" {
					continue
				}
				imported := parser.GetNodeText(spec.ChildByFieldName("name"), c.source)
				local := imported
				if alias := spec.ChildByFieldName("alias"); alias != nil {
					local = parser.GetNodeText(alias, c.source)
				}
				b, err := c.declareImport(local, KindImport,
					&Declaration{Node: spec, Stmt: stmt, List: child, Line: spec.StartPoint().Row + 1})
				if err != nil {
					return RoleImport, err
				}
				b.Origin, b.Imported = origin, imported
				units++
			}
		}
	}

	if units == 0 {
		return RoleSideEffectImport, nil
	}
	return RoleImport, nil
}

func (c *Catalog) declareImport(name string, kind Kind, decl *Declaration) (*Binding, error) {
	if err := c.declare(name, kind, decl, false); err != nil {
		return nil, err
	}
	return c.byName[name], nil
}

func (c *Catalog) addExport(stmt *sitter.Node) (Role, error) {
	rec := &ExportRecord{Node: stmt, TypeOnly: hasToken(stmt, "type")}
	if src := stmt.ChildByFieldName("source"); src != nil {
		rec.HasSource = true
		rec.Source = unquote(src, c.source)
	}
	isDefault := hasToken(stmt, "default")
	c.Exports = append(c.Exports, rec)

	for _, child := range parser.NamedChildren(stmt) {
		if child.Type() == "decorator" {
			c.anchor(child)
		}
	}

	if decl := stmt.ChildByFieldName("declaration"); decl != nil {
		rec.Kind = ExportDeclaration
		if isDefault {
			rec.Kind = ExportDefault
			rec.DefaultName = declaredName(decl, c.source)
		}
		opaque, err := c.addDeclaration(decl, stmt, true)
		if err != nil {
			return RoleDeclaration, err
		}
		if opaque {
			return RoleOpaque, nil
		}
		if !isValueDeclaration(decl.Type()) {
			c.anchor(stmt)
			return RoleOther, nil
		}
		if rec.DefaultName == "" && isDefault {
			rec.DefaultValue = decl
			c.anchor(decl)
			return RoleExportDefault, nil
		}
		for _, b := range c.Bindings {
			if sameNode(b.Decl.Stmt, stmt) {
				rec.Declared = append(rec.Declared, b.Name)
			}
		}
		return RoleDeclaration, nil
	}

	if clause := firstNamedOfType(stmt, "export_clause"); clause != nil {
		rec.Kind = ExportNamed
		for _, spec := range parser.NamedChildren(clause) {
			if spec.Type() != "export_specifier" {
				continue
			}
			local := exportName(spec.ChildByFieldName("name"), c.source)
			exported := local
			if alias := spec.ChildByFieldName("alias"); alias != nil {
				exported = exportName(alias, c.source)
			}
			rec.Specifiers = append(rec.Specifiers, ExportSpecifier{
				Local:    local,
				Exported: exported,
				Node:     spec,
				TypeOnly: hasToken(spec, "type"),
			})
		}
		if rec.HasSource {
			return RoleReExport, nil
		}
		return RoleExportClause, nil
	}

	if rec.HasSource {
		rec.Kind = ExportAll
		return RoleReExport, nil
	}

	if isDefault {
		rec.Kind = ExportDefault
		value := stmt.ChildByFieldName("value")
		if value != nil && value.Type() == "identifier" {
			rec.DefaultName = parser.GetNodeText(value, c.source)
			return RoleExportDefault, nil
		}
		rec.DefaultValue = value
		c.anchor(stmt)
		return RoleExportDefault, nil
	}

	// export = x, export as namespace X
	c.anchor(stmt)
	return RoleOther, nil
}

// exportName returns the text of an export specifier name, unquoting
// string-literal module export names.
func exportName(node *sitter.Node, source []byte) string {
	if node != nil && node.Type() == "string" {
		return unquote(node, source)
	}
	return parser.GetNodeText(node, source)
}

func (c *Catalog) declare(name string, kind Kind, decl *Declaration, exported bool) error {
	if name == "" {
		return nil
	}
	if prev, ok := c.byName[name]; ok {
		if prev.Kind != kind {
			return &NameCollisionError{
				Path:   c.Path,
				Name:   name,
				First:  prev.Kind,
				Second: kind,
				Line:   decl.Line,
			}
		}
		if prev.Decl != decl {
			prev.Shadowed = append(prev.Shadowed, prev.Decl)
			prev.Decl = decl
		}
		prev.Exported = prev.Exported || exported
		return nil
	}

	b := &Binding{
		ID:       uint32(len(c.Bindings)),
		Name:     name,
		Kind:     kind,
		Decl:     decl,
		Exported: exported,
	}
	c.Bindings = append(c.Bindings, b)
	c.byName[name] = b
	return nil
}

func (c *Catalog) addOpaque(name string) {
	if name != "" {
		c.opaque[name] = struct{}{}
	}
}

func (c *Catalog) anchor(node *sitter.Node) {
	c.Anchors = append(c.Anchors, Anchor{
		Label: anchorLabel(node),
		Node:  node,
	})
}

func anchorLabel(node *sitter.Node) string {
	return fmt.Sprintf("<%s:%d>", node.Type(), node.StartPoint().Row+1)
}

// sameNode reports whether a and b denote the same syntax node.
func sameNode(a, b *sitter.Node) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.StartByte() == b.StartByte() && a.EndByte() == b.EndByte() && a.Type() == b.Type()
}

// resolveRoots collects the export surface once every statement is known,
// since exports may precede the declarations they name.
func (c *Catalog) resolveRoots() error {
	seen := make(map[uint32]bool)
	add := func(b *Binding) {
		if !seen[b.ID] {
			seen[b.ID] = true
			c.roots = append(c.roots, b)
		}
	}

	for _, b := range c.Bindings {
		if b.Exported {
			add(b)
		}
	}

	for _, rec := range c.Exports {
		switch rec.Kind {
		case ExportNamed:
			if rec.HasSource {
				continue
			}
			for _, spec := range rec.Specifiers {
				if b, ok := c.byName[spec.Local]; ok {
					add(b)
					continue
				}
				if c.IsOpaque(spec.Local) || rec.TypeOnly || spec.TypeOnly {
					continue
				}
				return &StaticNameError{
					Path: c.Path,
					Name: spec.Local,
					Line: spec.Node.StartPoint().Row + 1,
				}
			}
		case ExportDefault:
			if b, ok := c.byName[rec.DefaultName]; ok && rec.DefaultName != "" {
				add(b)
			}
		}
	}
	return nil
}
