package scene

import (
	"sort"

	"github.com/chazu/mapcore/pkg/geom"
	"github.com/dhconnelly/rtreego"
)

const defaultIndexMaxChildren = 16

// rectPadding keeps flat boxes valid and makes touching boxes overlap.
const rectPadding = 1e-3

// indexEntry is the value stored in the tree. Its rect is fixed at insertion so
// the tree can locate it again on removal.
type indexEntry struct {
	handle Handle
	rect   rtreego.Rect
}

func (e *indexEntry) Bounds() rtreego.Rect { return e.rect }

var _ rtreego.Spatial = (*indexEntry)(nil)

// SpatialIndex is an R-tree over the logical bounds of the attached nodes that
// ShouldAddToSpatialIndex. Entries whose bounds were invalidated are refreshed
// lazily before the next search.
type SpatialIndex struct {
	tree    *rtreego.Rtree
	entries map[Handle]*indexEntry
	dirty   map[Handle]struct{}
}

func newSpatialIndex(maxChildren int) *SpatialIndex {
	if maxChildren < 4 {
		maxChildren = defaultIndexMaxChildren
	}
	return &SpatialIndex{
		tree:    rtreego.NewTree(3, maxChildren/2, maxChildren),
		entries: make(map[Handle]*indexEntry),
		dirty:   make(map[Handle]struct{}),
	}
}

func toRect(bb geom.BBox) rtreego.Rect {
	bb = bb.Expand(rectPadding)
	r, err := rtreego.NewRectFromPoints(
		rtreego.Point{bb.Min.X, bb.Min.Y, bb.Min.Z},
		rtreego.Point{bb.Max.X, bb.Max.Y, bb.Max.Z},
	)
	if err != nil {
		panic("scene: " + err.Error())
	}
	return r
}

func (x *SpatialIndex) markDirty(n *Node) {
	if n.ShouldAddToSpatialIndex() {
		x.dirty[n.handle] = struct{}{}
	}
}

func (x *SpatialIndex) remove(h Handle) {
	if e, ok := x.entries[h]; ok {
		x.tree.Delete(e)
		delete(x.entries, h)
	}
	delete(x.dirty, h)
}

// refresh reinserts every dirty node that is still attached.
func (x *SpatialIndex) refresh(s *Scene) {
	for h := range x.dirty {
		if e, ok := x.entries[h]; ok {
			x.tree.Delete(e)
			delete(x.entries, h)
		}
		n := s.Node(h)
		if n == nil || !n.Attached() {
			continue
		}
		e := &indexEntry{handle: h, rect: toRect(n.LogicalBounds())}
		x.tree.Insert(e)
		x.entries[h] = e
		s.stats.IndexUpdates++
	}
	clear(x.dirty)
}

// search returns the nodes whose padded bounds overlap bb, ordered by handle.
func (x *SpatialIndex) search(s *Scene, bb geom.BBox) []*Node {
	x.refresh(s)
	hits := x.tree.SearchIntersect(toRect(bb))
	out := make([]*Node, 0, len(hits))
	for _, h := range hits {
		out = append(out, s.nodes[h.(*indexEntry).handle])
	}
	sort.Slice(out, func(i, j int) bool { return out[i].handle < out[j].handle })
	return out
}

// IndexedCount returns the number of nodes in the spatial index.
func (s *Scene) IndexedCount() int {
	s.index.refresh(s)
	return s.index.tree.Size()
}
