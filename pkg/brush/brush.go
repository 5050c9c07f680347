// Package brush implements convex polyhedra built from oriented planar faces
// and the geometric predicates the scene uses to test them against points,
// boxes, other brushes and patch grids.
//
// A Brush is replaced wholesale rather than edited in place while it may be
// shared. The owning scene node is the only code that flips face selection or
// texture fields.
package brush

import (
	"errors"
	"fmt"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/patch"
	"github.com/chazu/mapcore/pkg/tag"
	"github.com/samber/lo"
)

var (
	// ErrTooFewFaces is returned for face sets that cannot close a volume.
	ErrTooFewFaces = errors.New("brush needs at least 4 faces")
	// ErrNotConvex is returned when a vertex lies above some face plane.
	ErrNotConvex = errors.New("faces do not bound a convex volume")
)

// Brush is a closed convex polyhedron.
type Brush struct {
	faces    []Face
	vertices []geom.Vec
	edges    [][2]geom.Vec
	bounds   geom.BBox
}

// New builds a brush from its faces. The faces keep their order, which
// decides which face FindFaceHit reports when a ray enters through an edge.
func New(faces []Face) (*Brush, error) {
	if len(faces) < 4 {
		return nil, fmt.Errorf("brush: %d faces: %w", len(faces), ErrTooFewFaces)
	}
	b := &Brush{faces: append([]Face(nil), faces...)}
	b.buildTopology()

	for i := range b.faces {
		p := b.faces[i].plane
		for _, v := range b.vertices {
			if p.PointStatus(v, geom.PointStatusEpsilon) == geom.Above {
				return nil, fmt.Errorf("brush: vertex %v above face %d: %w", v, i, ErrNotConvex)
			}
		}
	}
	return b, nil
}

// Cuboid returns an axis aligned box brush. Faces are ordered -X, +X, -Y, +Y,
// -Z, +Z.
func Cuboid(bounds geom.BBox, texture *asset.Texture) (*Brush, error) {
	if bounds.IsDegenerate() {
		return nil, fmt.Errorf("brush: cuboid %v has no volume: %w", bounds, ErrDegenerateFace)
	}
	x0, y0, z0 := bounds.Min.X, bounds.Min.Y, bounds.Min.Z
	x1, y1, z1 := bounds.Max.X, bounds.Max.Y, bounds.Max.Z
	v := func(x, y, z float64) geom.Vec { return geom.Vec{X: x, Y: y, Z: z} }

	loops := [][]geom.Vec{
		{v(x0, y0, z0), v(x0, y0, z1), v(x0, y1, z1), v(x0, y1, z0)},
		{v(x1, y0, z0), v(x1, y1, z0), v(x1, y1, z1), v(x1, y0, z1)},
		{v(x0, y0, z0), v(x1, y0, z0), v(x1, y0, z1), v(x0, y0, z1)},
		{v(x0, y1, z0), v(x0, y1, z1), v(x1, y1, z1), v(x1, y1, z0)},
		{v(x0, y0, z0), v(x0, y1, z0), v(x1, y1, z0), v(x1, y0, z0)},
		{v(x0, y0, z1), v(x1, y0, z1), v(x1, y1, z1), v(x0, y1, z1)},
	}
	faces := make([]Face, 0, len(loops))
	for _, loop := range loops {
		f, err := NewFace(loop, texture)
		if err != nil {
			return nil, err
		}
		faces = append(faces, f)
	}
	return New(faces)
}

// buildTopology collects the unique vertices and undirected edges of all faces
// and the bounds around them.
func (b *Brush) buildTopology() {
	index := func(v geom.Vec) int {
		for i, u := range b.vertices {
			if geom.Equal(u, v, 1e-9) {
				return i
			}
		}
		b.vertices = append(b.vertices, v)
		return len(b.vertices) - 1
	}

	seen := make(map[[2]int]bool)
	for i := range b.faces {
		vs := b.faces[i].vertices
		for j := range vs {
			a, c := index(vs[j]), index(vs[(j+1)%len(vs)])
			if a > c {
				a, c = c, a
			}
			if a == c || seen[[2]int{a, c}] {
				continue
			}
			seen[[2]int{a, c}] = true
			b.edges = append(b.edges, [2]geom.Vec{b.vertices[a], b.vertices[c]})
		}
	}
	b.bounds = geom.BBoxOf(b.vertices...)
}

// Clone returns a deep copy of b. Face selection and tags are copied.
func (b *Brush) Clone() *Brush {
	return &Brush{
		faces:    append([]Face(nil), b.faces...),
		vertices: b.vertices,
		edges:    b.edges,
		bounds:   b.bounds,
	}
}

// Bounds returns the tight box around the brush vertices.
func (b *Brush) Bounds() geom.BBox { return b.bounds }

// FaceCount returns the number of faces.
func (b *Brush) FaceCount() int { return len(b.faces) }

// Face returns the face at index i. It panics when i is out of range.
func (b *Brush) Face(i int) *Face {
	if i < 0 || i >= len(b.faces) {
		panic(fmt.Sprintf("brush: face index %d out of range [0,%d)", i, len(b.faces)))
	}
	return &b.faces[i]
}

// Faces returns pointers to all faces in stored order.
func (b *Brush) Faces() []*Face {
	out := make([]*Face, len(b.faces))
	for i := range b.faces {
		out[i] = &b.faces[i]
	}
	return out
}

// Vertices returns the unique brush vertices. The slice must not be modified.
func (b *Brush) Vertices() []geom.Vec { return b.vertices }

// SelectedFaceCount scans the faces and counts the selected ones.
func (b *Brush) SelectedFaceCount() int {
	return lo.CountBy(b.faces, func(f Face) bool { return f.selected })
}

// ContainsPoint reports whether p is inside or on the boundary of every face
// half-space.
func (b *Brush) ContainsPoint(p geom.Vec) bool {
	if !b.bounds.Expand(geom.PointStatusEpsilon).ContainsPoint(p) {
		return false
	}
	for i := range b.faces {
		if b.faces[i].plane.PointStatus(p, geom.PointStatusEpsilon) == geom.Above {
			return false
		}
	}
	return true
}

func (b *Brush) containsAll(points []geom.Vec) bool {
	return lo.EveryBy(points, b.ContainsPoint)
}

// ContainsBounds reports whether the box lies entirely inside the brush.
func (b *Brush) ContainsBounds(bb geom.BBox) bool {
	if !b.bounds.Expand(geom.PointStatusEpsilon).Contains(bb) {
		return false
	}
	corners := bb.Vertices()
	return b.containsAll(corners[:])
}

// ContainsBrush reports whether o lies entirely inside b.
func (b *Brush) ContainsBrush(o *Brush) bool {
	if !b.bounds.Expand(geom.PointStatusEpsilon).Contains(o.bounds) {
		return false
	}
	return b.containsAll(o.vertices)
}

// ContainsGrid reports whether every grid sample lies inside the brush.
func (b *Brush) ContainsGrid(g patch.Grid) bool {
	if !b.bounds.Expand(geom.PointStatusEpsilon).Contains(g.Bounds) {
		return false
	}
	for _, p := range g.Points {
		if !b.ContainsPoint(p.Position) {
			return false
		}
	}
	return true
}

// IntersectsBounds reports whether the box and the brush share a point.
func (b *Brush) IntersectsBounds(bb geom.BBox) bool {
	if !b.bounds.Intersects(bb) {
		return false
	}
	box, err := Cuboid(bb, nil)
	if err != nil {
		// flat boxes have no faces to cross; fall back to vertex containment
		corners := bb.Vertices()
		return lo.SomeBy(corners[:], b.ContainsPoint) ||
			lo.SomeBy(b.vertices, bb.ContainsPoint)
	}
	return b.IntersectsBrush(box)
}

// IntersectsBrush reports whether b and o share a point.
func (b *Brush) IntersectsBrush(o *Brush) bool {
	if !b.bounds.Intersects(o.bounds) {
		return false
	}
	if lo.SomeBy(o.vertices, b.ContainsPoint) || lo.SomeBy(b.vertices, o.ContainsPoint) {
		return true
	}
	return b.edgesCrossFaces(o) || o.edgesCrossFaces(b)
}

// edgesCrossFaces reports whether any edge of b enters a face of o.
func (b *Brush) edgesCrossFaces(o *Brush) bool {
	for _, e := range b.edges {
		for i := range o.faces {
			if o.faces[i].intersectsSegment(e[0], e[1]) {
				return true
			}
		}
	}
	return false
}

// IntersectsGrid reports whether the brush touches the sampled surface: either
// a sample lies inside the brush or a segment between adjacent samples crosses
// a face.
func (b *Brush) IntersectsGrid(g patch.Grid) bool {
	if !b.bounds.Intersects(g.Bounds) {
		return false
	}
	for _, p := range g.Points {
		if b.ContainsPoint(p.Position) {
			return true
		}
	}
	for i := range b.faces {
		f := &b.faces[i]
		for row := 0; row < g.PointRowCount; row++ {
			for col := 0; col < g.PointColumnCount-1; col++ {
				if f.intersectsSegment(g.Point(row, col).Position, g.Point(row, col+1).Position) {
					return true
				}
			}
		}
		for col := 0; col < g.PointColumnCount; col++ {
			for row := 0; row < g.PointRowCount-1; row++ {
				if f.intersectsSegment(g.Point(row, col).Position, g.Point(row+1, col).Position) {
					return true
				}
			}
		}
	}
	return false
}

// FindFaceHit returns the first face, in stored order, that the ray enters
// and the distance to it. Rays that miss the bounds test no faces. This is not
// a nearest-hit search; on a convex brush at most one face is entered except
// where the ray passes through a shared edge or vertex.
func (b *Brush) FindFaceHit(r geom.Ray) (int, float64, bool) {
	if _, ok := geom.IntersectRayBBox(r, b.bounds); !ok {
		return 0, 0, false
	}
	for i := range b.faces {
		if d, ok := b.faces[i].IntersectWithRay(r); ok {
			return i, d, true
		}
	}
	return 0, 0, false
}

// ProjectedArea sums the projected area of the faces whose normal points along
// the positive axis.
func (b *Brush) ProjectedArea(axis geom.Axis) float64 {
	unit := axis.Unit()
	var area float64
	for i := range b.faces {
		if b.faces[i].plane.Normal.Dot(unit) > 0 {
			area += b.faces[i].ProjectedArea(axis)
		}
	}
	return area
}

// Equal reports whether both brushes have equal faces in the same order.
func (b *Brush) Equal(o *Brush) bool {
	if len(b.faces) != len(o.faces) {
		return false
	}
	for i := range b.faces {
		if !b.faces[i].Equal(&o.faces[i]) {
			return false
		}
	}
	return true
}

// ---------------------------------------------------------------------------
// Tags
// ---------------------------------------------------------------------------

// InitializeTags initializes every face's tags in stored order.
func (b *Brush) InitializeTags(m *tag.Manager) {
	for i := range b.faces {
		b.faces[i].InitializeTags(m, &b.faces[i])
	}
}

// UpdateTags recomputes every face's tags in stored order.
func (b *Brush) UpdateTags(m *tag.Manager) {
	for i := range b.faces {
		b.faces[i].UpdateTags(m, &b.faces[i])
	}
}

// ClearTags removes all face tags.
func (b *Brush) ClearTags() {
	for i := range b.faces {
		b.faces[i].ClearTags()
	}
}

func (b *Brush) faceMasks() []tag.Type {
	return lo.Map(b.faces, func(f Face, _ int) tag.Type { return f.TagMask() })
}

// SharedFaceTags returns the tags carried by every face.
func (b *Brush) SharedFaceTags() tag.Type { return tag.Shared(b.faceMasks()) }

// CombinedFaceTags returns the tags carried by at least one face.
func (b *Brush) CombinedFaceTags() tag.Type { return tag.Combined(b.faceMasks()) }

// AnyFaceHasAnyTag reports whether some face carries a tag.
func (b *Brush) AnyFaceHasAnyTag() bool {
	return b.CombinedFaceTags() != tag.NoType
}

// AllFacesHaveAnyTagInMask reports whether some tag in mask is carried by
// every face.
func (b *Brush) AllFacesHaveAnyTagInMask(mask tag.Type) bool {
	return b.SharedFaceTags()&mask != tag.NoType
}

// AnyFacesHaveAnyTagInMask reports whether some face carries a tag in mask.
func (b *Brush) AnyFacesHaveAnyTagInMask(mask tag.Type) bool {
	return b.CombinedFaceTags()&mask != tag.NoType
}
