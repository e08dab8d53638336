package prune

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/panbanda/clientprune/pkg/parser"
)

// Graph is the reference graph of one module. Node IDs below
// len(catalog.Bindings) are bindings; the rest are anchors, which are
// always roots.
type Graph struct {
	catalog *Catalog
	labels  []string
	adj     [][]uint32
	roots   []uint32
	edges   map[[2]uint32]struct{}
}

// BuildGraph adds an edge from each binding to every top-level binding its
// spans mention. Identifiers inside masked spans are ignored.
func BuildGraph(result *parser.ParseResult, catalog *Catalog, masks []Span) *Graph {
	n := len(catalog.Bindings) + len(catalog.Anchors)
	g := &Graph{
		catalog: catalog,
		labels:  make([]string, 0, n),
		adj:     make([][]uint32, n),
		edges:   make(map[[2]uint32]struct{}),
	}
	for _, b := range catalog.Bindings {
		g.labels = append(g.labels, b.Name)
	}
	for _, a := range catalog.Anchors {
		g.labels = append(g.labels, a.Label)
	}

	var from uint32
	scanner := newRefScanner(result.Source, masks, func(name string) {
		if to, ok := catalog.Lookup(name); ok {
			g.addEdge(from, to.ID)
		}
	})

	for _, b := range catalog.Bindings {
		from = b.ID
		for _, d := range b.Declarations() {
			for _, node := range spanNodes(b, d) {
				scanner.scan(node)
			}
		}
	}

	base := uint32(len(catalog.Bindings))
	for i, a := range catalog.Anchors {
		from = base + uint32(i)
		g.roots = append(g.roots, from)
		scanner.scan(a.Node)
	}

	for _, b := range catalog.Roots() {
		g.roots = append(g.roots, b.ID)
	}
	return g
}

// spanNodes returns the syntax scanned for a declaration's references.
// Import bindings have no body.
func spanNodes(b *Binding, d *Declaration) []*sitter.Node {
	if b.Kind.IsImport() {
		return nil
	}
	return []*sitter.Node{d.Node}
}

func (g *Graph) addEdge(from, to uint32) {
	if from == to {
		return
	}
	key := [2]uint32{from, to}
	if _, ok := g.edges[key]; ok {
		return
	}
	g.edges[key] = struct{}{}
	g.adj[from] = append(g.adj[from], to)
}

// Len returns the number of graph nodes.
func (g *Graph) Len() int {
	return len(g.labels)
}

// Roots returns the root node IDs.
func (g *Graph) Roots() []uint32 {
	return g.roots
}

// Outgoing returns the targets of from's edges.
func (g *Graph) Outgoing(from uint32) []uint32 {
	if int(from) >= len(g.adj) {
		return nil
	}
	return g.adj[from]
}

// Label returns the binding name or anchor label of a node.
func (g *Graph) Label(id uint32) string {
	return g.labels[id]
}

// Edges returns every reference edge ordered by source then target.
func (g *Graph) Edges() []ReferenceEdge {
	keys := make([][2]uint32, 0, len(g.edges))
	for k := range g.edges {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i][0] != keys[j][0] {
			return keys[i][0] < keys[j][0]
		}
		return keys[i][1] < keys[j][1]
	})

	out := make([]ReferenceEdge, len(keys))
	for i, k := range keys {
		out[i] = ReferenceEdge{From: g.labels[k[0]], To: g.labels[k[1]]}
	}
	return out
}

// Catalog returns the catalog the graph was built from.
func (g *Graph) Catalog() *Catalog {
	return g.catalog
}
