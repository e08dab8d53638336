package prune

import (
	sitter "github.com/smacker/go-tree-sitter"
)

// Kind classifies a top-level binding.
type Kind string

const (
	KindFunction        Kind = "function"
	KindClass           Kind = "class"
	KindEnum            Kind = "enum"
	KindVariable        Kind = "variable"
	KindImport          Kind = "import"
	KindImportDefault   Kind = "import_default"
	KindImportNamespace Kind = "import_namespace"
)

// String returns the string representation.
func (k Kind) String() string {
	return string(k)
}

// IsImport reports whether the binding was introduced by an import statement.
func (k Kind) IsImport() bool {
	return k == KindImport || k == KindImportDefault || k == KindImportNamespace
}

// Declaration is the smallest deletable unit that introduces one or more
// bindings: a variable declarator, a function or class statement, or a
// single import specifier.
type Declaration struct {
	// Node is the unit removed when every binding it introduces is dead.
	Node *sitter.Node
	// Stmt is the top-level statement containing Node.
	Stmt *sitter.Node
	// List is the declaration node holding sibling declarators, if any.
	List *sitter.Node
	Line uint32
}

// Binding is a name introduced at module top level.
type Binding struct {
	ID   uint32
	Name string
	Kind Kind
	// Decl is the authoritative (last) declaration.
	Decl *Declaration
	// Shadowed holds earlier same-kind declarations of the name. They share
	// the fate of Decl.
	Shadowed []*Declaration
	// Origin is the module specifier for import bindings.
	Origin string
	// Imported is the exported name on the origin side for named imports.
	Imported string
	// Exported is set for inline exported declarations.
	Exported bool
}

// Declarations returns every span of the binding, earliest first.
func (b *Binding) Declarations() []*Declaration {
	out := make([]*Declaration, 0, len(b.Shadowed)+1)
	out = append(out, b.Shadowed...)
	return append(out, b.Decl)
}

// ExportKind classifies export statements.
type ExportKind string

const (
	ExportDeclaration ExportKind = "declaration"
	ExportNamed       ExportKind = "named"
	ExportDefault     ExportKind = "default"
	ExportAll         ExportKind = "all"
)

// ExportSpecifier maps a local name to its exported name.
type ExportSpecifier struct {
	Local    string
	Exported string
	TypeOnly bool
	Node     *sitter.Node
}

// ExportRecord is one export statement of the module.
type ExportRecord struct {
	Kind       ExportKind
	Node       *sitter.Node
	Specifiers []ExportSpecifier
	Source     string
	HasSource  bool
	// TypeOnly marks `export type { ... }` clauses.
	TypeOnly bool
	// DefaultName is the identifier of `export default <identifier>`.
	DefaultName string
	// DefaultValue is the exported expression or anonymous declaration.
	DefaultValue *sitter.Node
	// Declared lists bindings introduced by an inline exported declaration.
	Declared []string
}

// Role classifies a top-level statement for pruning.
type Role int

const (
	// RoleOther is any statement kept verbatim whose references are roots.
	RoleOther Role = iota
	RoleDirective
	RoleComment
	RoleImport
	// RoleSideEffectImport is an import with no specifiers.
	RoleSideEffectImport
	RoleDeclaration
	// RoleReExport is an export with a from clause.
	RoleReExport
	RoleExportClause
	// RoleExportDefault is `export default <expression>` or an anonymous
	// default declaration.
	RoleExportDefault
	// RoleOpaque is a type-space declaration retained verbatim.
	RoleOpaque
)

// Statement is a classified child of the program node.
type Statement struct {
	Node *sitter.Node
	Role Role
}

// ReferenceEdge records that From's span mentions To at top-level scope.
type ReferenceEdge struct {
	From string `json:"from" toon:"from"`
	To   string `json:"to" toon:"to"`
}

// SkipReason explains why a module was passed through unchanged.
type SkipReason string

const (
	SkipNone        SkipReason = ""
	SkipNoDirective SkipReason = "no_directive"
)

// RemovedBinding describes a binding deleted from the output.
type RemovedBinding struct {
	Name string `json:"name" toon:"name"`
	Kind Kind   `json:"kind" toon:"kind"`
	Line uint32 `json:"line" toon:"line"`
}

// Result is the outcome of pruning one module.
type Result struct {
	Path        string           `json:"path" toon:"path"`
	Directive   string           `json:"directive,omitempty" toon:"directive,omitempty"`
	Skipped     SkipReason       `json:"skipped,omitempty" toon:"skipped,omitempty"`
	Changed     bool             `json:"changed" toon:"changed"`
	Removed     []RemovedBinding `json:"removed" toon:"removed"`
	Live        []string         `json:"live" toon:"live"`
	Stubbed     []string         `json:"stubbed,omitempty" toon:"stubbed,omitempty"`
	NulledCalls int              `json:"nulled_calls,omitempty" toon:"nulled_calls,omitempty"`
	BytesBefore int              `json:"bytes_before" toon:"bytes_before"`
	BytesAfter  int              `json:"bytes_after" toon:"bytes_after"`
	Output      []byte           `json:"-" toon:"-"`
}

// Reduction returns the fraction of bytes removed, in [0, 1].
func (r *Result) Reduction() float64 {
	if r.BytesBefore == 0 || r.BytesAfter >= r.BytesBefore {
		return 0
	}
	return float64(r.BytesBefore-r.BytesAfter) / float64(r.BytesBefore)
}
