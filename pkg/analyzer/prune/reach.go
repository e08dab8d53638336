package prune

import (
	"github.com/RoaringBitmap/roaring/v2"
)

// LiveSet is the set of graph nodes reachable from the roots.
type LiveSet struct {
	bitmap *roaring.Bitmap
	graph  *Graph
}

// Reachable marks every node reachable from the graph's roots. It is a
// breadth-first worklist over a Roaring bitmap; a node is marked before it is
// expanded so cycles terminate.
func Reachable(g *Graph) *LiveSet {
	live := &LiveSet{bitmap: roaring.New(), graph: g}

	roots := g.Roots()
	queue := make([]uint32, 0, len(roots)*2)
	for _, r := range roots {
		if live.bitmap.CheckedAdd(r) {
			queue = append(queue, r)
		}
	}

	// index-based queue avoids reslicing
	for head := 0; head < len(queue); head++ {
		for _, to := range g.Outgoing(queue[head]) {
			if live.bitmap.CheckedAdd(to) {
				queue = append(queue, to)
			}
		}
	}
	return live
}

// Contains reports whether node id is live.
func (l *LiveSet) Contains(id uint32) bool {
	return l.bitmap.Contains(id)
}

// IsLive reports whether the named binding is live.
func (l *LiveSet) IsLive(name string) bool {
	b, ok := l.graph.catalog.Lookup(name)
	return ok && l.Contains(b.ID)
}

// Count returns the number of live nodes, anchors included.
func (l *LiveSet) Count() uint64 {
	return l.bitmap.GetCardinality()
}

// Names returns the live binding names in declaration order.
func (l *LiveSet) Names() []string {
	var names []string
	for _, b := range l.graph.catalog.Bindings {
		if l.Contains(b.ID) {
			names = append(names, b.Name)
		}
	}
	return names
}

// Dead returns the bindings that are not live, in declaration order.
func (l *LiveSet) Dead() []*Binding {
	var dead []*Binding
	for _, b := range l.graph.catalog.Bindings {
		if !l.Contains(b.ID) {
			dead = append(dead, b)
		}
	}
	return dead
}
