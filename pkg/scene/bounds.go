package scene

import (
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/samber/lo"
)

// boundsCache holds a node's bounds. The three boxes are computed together.
type boundsCache struct {
	model    geom.BBox
	logical  geom.BBox
	physical geom.BBox
}

// LogicalBounds returns the box used for selection and placement.
func (n *Node) LogicalBounds() geom.BBox { return n.validBounds().logical }

// PhysicalBounds returns the logical bounds extended by attached models.
func (n *Node) PhysicalBounds() geom.BBox { return n.validBounds().physical }

func (n *Node) validBounds() *boundsCache {
	if n.bounds == nil {
		n.bounds = n.computeBounds()
		n.scene.stats.BoundsRecomputes++
	}
	return n.bounds
}

// invalidateBounds drops the cached bounds of n and of every ancestor. The walk
// stops at the first ancestor that is already dirty, since its own ancestors
// were dirtied when it was.
func (n *Node) invalidateBounds() {
	n.dropBounds()
	for p := n.Parent(); p != nil && p.bounds != nil; p = p.Parent() {
		p.dropBounds()
	}
}

func (n *Node) dropBounds() {
	n.bounds = nil
	n.scene.index.markDirty(n)
}

func unionOf(children []*Node, pick func(*Node) geom.BBox) geom.BBox {
	return geom.MergeAll(lo.Map(children, func(c *Node, _ int) geom.BBox { return pick(c) }), geom.BBox{})
}

func (n *Node) computeBounds() *boundsCache {
	containerBounds := func(*Node) *boundsCache {
		children := n.Children()
		logical := unionOf(children, (*Node).LogicalBounds)
		physical := unionOf(children, (*Node).PhysicalBounds)
		return &boundsCache{logical: logical, physical: physical}
	}
	return Visit(n, Visitor[*boundsCache]{
		World: func(*Node, *WorldData) *boundsCache { return containerBounds(n) },
		Layer: func(*Node, *LayerData) *boundsCache { return containerBounds(n) },
		Group: func(*Node, *GroupData) *boundsCache { return containerBounds(n) },
		Entity: func(_ *Node, d *EntityData) *boundsCache {
			c := containerBounds(n)
			c.model = n.modelBounds(d)
			if !n.HasChildren() {
				c.logical = n.definitionBounds(d)
				c.physical = c.logical
				if d.Model != nil {
					c.physical = c.physical.Merge(c.model)
				}
			}
			return c
		},
		Brush: func(_ *Node, d *BrushData) *boundsCache {
			b := d.Brush.Bounds()
			return &boundsCache{logical: b, physical: b}
		},
		Patch: func(_ *Node, d *PatchData) *boundsCache {
			return &boundsCache{logical: d.Grid.Bounds, physical: d.Grid.Bounds}
		},
	})
}

// ProjectedArea returns an estimate of the node's area seen along axis.
// Brushes sum the projected areas of their faces; entities and patches use
// their physical bounds.
func (n *Node) ProjectedArea(axis geom.Axis) float64 {
	boxArea := func() float64 {
		size := n.PhysicalBounds().Size()
		switch axis {
		case geom.AxisX:
			return size.Y * size.Z
		case geom.AxisY:
			return size.X * size.Z
		default:
			return size.X * size.Y
		}
	}
	switch n.kind {
	case KindBrush:
		return n.data.(*BrushData).Brush.ProjectedArea(axis)
	case KindEntity, KindPatch:
		return boxArea()
	case KindWorld, KindLayer, KindGroup:
		return 0
	default:
		panic("scene: unknown node kind")
	}
}
