package scene

import (
	"github.com/chazu/mapcore/pkg/geom"
)

// Contains reports whether target lies entirely inside n. Worlds and layers
// neither contain nor are contained by anything. Brushes test exactly, groups
// and entities use their logical bounds, and patches contain nothing.
func (n *Node) Contains(target *Node) bool {
	if target.kind == KindWorld || target.kind == KindLayer {
		return false
	}
	switch n.kind {
	case KindWorld, KindLayer, KindPatch:
		return false
	case KindGroup, KindEntity:
		return n.LogicalBounds().Contains(target.LogicalBounds())
	case KindBrush:
		b := n.brushData().Brush
		switch target.kind {
		case KindBrush:
			return b.ContainsBrush(target.brushData().Brush)
		case KindPatch:
			return b.ContainsGrid(target.Grid())
		default:
			return b.ContainsBounds(target.LogicalBounds())
		}
	default:
		panic("scene: unknown node kind")
	}
}

// Intersects reports whether target and n share a point, with the same
// per-kind rules as Contains. Patches intersect brushes through their grid.
func (n *Node) Intersects(target *Node) bool {
	if target.kind == KindWorld || target.kind == KindLayer {
		return false
	}
	switch n.kind {
	case KindWorld, KindLayer:
		return false
	case KindGroup, KindEntity:
		return n.LogicalBounds().Intersects(target.LogicalBounds())
	case KindBrush:
		b := n.brushData().Brush
		switch target.kind {
		case KindBrush:
			return b.IntersectsBrush(target.brushData().Brush)
		case KindPatch:
			return b.IntersectsGrid(target.Grid())
		default:
			return b.IntersectsBounds(target.LogicalBounds())
		}
	case KindPatch:
		if target.kind == KindBrush {
			return target.brushData().Brush.IntersectsGrid(n.Grid())
		}
		return n.LogicalBounds().Intersects(target.LogicalBounds())
	default:
		panic("scene: unknown node kind")
	}
}

// FindNodesContaining returns the leaf nodes below n whose geometry contains
// p, in tree order.
func (n *Node) FindNodesContaining(p geom.Vec) []*Node {
	var out []*Node
	n.walk(func(c *Node) bool {
		switch c.kind {
		case KindWorld, KindLayer:
			return true
		case KindGroup:
			return c.LogicalBounds().ContainsPoint(p)
		case KindEntity:
			if c.HasChildren() {
				return true
			}
			if c.LogicalBounds().ContainsPoint(p) {
				out = append(out, c)
			}
			return false
		case KindBrush:
			if c.brushData().Brush.ContainsPoint(p) {
				out = append(out, c)
			}
			return false
		case KindPatch:
			if c.LogicalBounds().ContainsPoint(p) {
				out = append(out, c)
			}
			return false
		default:
			panic("scene: unknown node kind")
		}
	})
	return out
}

// FindNodesContaining searches the whole scene.
func (s *Scene) FindNodesContaining(p geom.Vec) []*Node {
	return s.World().FindNodesContaining(p)
}

// NodesTouching returns the indexed nodes other than n that n intersects,
// ordered by handle.
func (s *Scene) NodesTouching(n *Node) []*Node {
	return s.query(n.LogicalBounds(), func(c *Node) bool {
		return c != n && !c.isAncestorOf(n) && !n.isAncestorOf(c) && n.Intersects(c)
	})
}

// NodesInside returns the indexed nodes other than n that n contains, ordered
// by handle.
func (s *Scene) NodesInside(n *Node) []*Node {
	return s.query(n.LogicalBounds(), func(c *Node) bool {
		return c != n && !c.isAncestorOf(n) && !n.isAncestorOf(c) && n.Contains(c)
	})
}

// NodesInBounds returns the indexed nodes whose logical bounds intersect bb,
// ordered by handle.
func (s *Scene) NodesInBounds(bb geom.BBox) []*Node {
	return s.query(bb, func(c *Node) bool { return c.LogicalBounds().Intersects(bb) })
}

func (s *Scene) query(bb geom.BBox, keep func(*Node) bool) []*Node {
	var out []*Node
	for _, c := range s.index.search(s, bb) {
		if keep(c) {
			out = append(out, c)
		}
	}
	return out
}
