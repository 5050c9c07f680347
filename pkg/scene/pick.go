package scene

import (
	"fmt"
	"math"
	"sort"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
)

// EditorContext decides which nodes the user can currently see.
type EditorContext interface {
	Visible(n *Node) bool
}

// AllVisible is an EditorContext that shows every node.
type AllVisible struct{}

func (AllVisible) Visible(*Node) bool { return true }

// HitType identifies what a hit refers to.
type HitType int

const (
	BrushHit HitType = iota
	EntityHit
	PatchHit
)

func (t HitType) String() string {
	switch t {
	case BrushHit:
		return "brush"
	case EntityHit:
		return "entity"
	case PatchHit:
		return "patch"
	default:
		return fmt.Sprintf("HitType(%d)", int(t))
	}
}

// Hit is one ray intersection. FaceIndex is only meaningful for brush hits.
type Hit struct {
	Type      HitType
	Node      *Node
	Distance  float64
	Point     geom.Vec
	FaceIndex int
}

// PickResult accumulates hits in the order they were added.
type PickResult struct {
	hits []Hit
}

// AddHit appends a hit.
func (r *PickResult) AddHit(h Hit) {
	r.hits = append(r.hits, h)
}

// Hits returns the hits in insertion order.
func (r *PickResult) Hits() []Hit { return r.hits }

// Len returns the number of hits.
func (r *PickResult) Len() int { return len(r.hits) }

// Sorted returns the hits ordered by distance. Equal distances keep insertion
// order.
func (r *PickResult) Sorted() []Hit {
	out := append([]Hit(nil), r.hits...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Distance < out[j].Distance })
	return out
}

// First returns the nearest hit.
func (r *PickResult) First() (Hit, bool) {
	if len(r.hits) == 0 {
		return Hit{}, false
	}
	return r.Sorted()[0], true
}

// Pick tests every node of the scene against the ray.
func (s *Scene) Pick(r geom.Ray, ctx EditorContext) *PickResult {
	result := &PickResult{}
	s.Walk(func(n *Node) bool {
		n.Pick(r, ctx, result)
		return true
	})
	return result
}

// Pick adds at most one hit for n to result when n is visible and its geometry
// intersects the ray. Children are not visited.
func (n *Node) Pick(r geom.Ray, ctx EditorContext, result *PickResult) {
	switch n.kind {
	case KindWorld, KindLayer, KindGroup:
		return
	case KindBrush:
		n.pickBrush(r, ctx, result)
	case KindEntity:
		n.pickEntity(r, ctx, result)
	case KindPatch:
		n.pickPatch(r, ctx, result)
	default:
		panic("scene: unknown node kind")
	}
}

func (n *Node) pickBrush(r geom.Ray, ctx EditorContext, result *PickResult) {
	if !ctx.Visible(n) {
		return
	}
	face, d, ok := n.brushData().Brush.FindFaceHit(r)
	if !ok {
		return
	}
	if math.IsNaN(d) {
		panic(fmt.Sprintf("scene: brush %d hit at undefined distance", n.handle))
	}
	result.AddHit(Hit{Type: BrushHit, Node: n, Distance: d, Point: r.PointAt(d), FaceIndex: face})
}

// pickEntity tests the logical bounds first. Only when the bounds are missed,
// or the ray starts inside them, is the attached model tested in model space.
func (n *Node) pickEntity(r geom.Ray, ctx EditorContext, result *PickResult) {
	if n.HasChildren() || !ctx.Visible(n) {
		return
	}
	bounds := n.LogicalBounds()
	if !bounds.ContainsPoint(r.Origin) {
		if d, ok := geom.IntersectRayBBox(r, bounds); ok {
			result.AddHit(Hit{Type: EntityHit, Node: n, Distance: d, Point: r.PointAt(d)})
			return
		}
	}

	model := n.ModelFrame()
	if model == nil {
		return
	}
	transform := n.ModelTransform()
	inverse, ok := geom.Invert(transform)
	if !ok {
		return
	}
	local := asset.Ray32From(r.Transform(inverse))
	t, ok := model.Intersect(local)
	if !ok {
		return
	}
	point := transform.MulPosition(asset.VecFrom(local.PointAt(t)))
	d := point.Sub(r.Origin).Dot(r.Direction) / r.Direction.Dot(r.Direction)
	result.AddHit(Hit{Type: EntityHit, Node: n, Distance: d, Point: point})
}

func (n *Node) pickPatch(r geom.Ray, ctx EditorContext, result *PickResult) {
	if !ctx.Visible(n) {
		return
	}
	if d, ok := n.Grid().IntersectWithRay(r); ok {
		result.AddHit(Hit{Type: PatchHit, Node: n, Distance: d, Point: r.PointAt(d)})
	}
}
