package brush

import (
	"errors"
	"fmt"
	"path"
	"sync/atomic"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/tag"
)

var (
	// ErrTooFewVertices is returned for faces with fewer than three vertices.
	ErrTooFewVertices = errors.New("face needs at least 3 vertices")
	// ErrDegenerateFace is returned when the face vertices do not span a plane.
	ErrDegenerateFace = errors.New("face vertices are collinear")
)

// faceRayTests counts calls to Face.IntersectWithRay.
var faceRayTests atomic.Int64

// FaceRayTests returns the number of face ray tests performed since the last
// reset.
func FaceRayTests() int64 { return faceRayTests.Load() }

// ResetFaceRayTests zeroes the face ray test counter.
func ResetFaceRayTests() { faceRayTests.Store(0) }

// Face is one planar boundary of a brush. The vertices wind counter-clockwise
// when viewed from outside the brush, so the plane normal points outward.
type Face struct {
	plane    geom.Plane
	vertices []geom.Vec
	selected bool
	texture  *asset.Texture
	tag.Taggable
}

// NewFace builds a face from its boundary polygon.
func NewFace(vertices []geom.Vec, texture *asset.Texture) (Face, error) {
	if len(vertices) < 3 {
		return Face{}, fmt.Errorf("brush: face with %d vertices: %w", len(vertices), ErrTooFewVertices)
	}
	p, ok := geom.PlaneFromPolygon(vertices)
	if !ok {
		return Face{}, fmt.Errorf("brush: %w", ErrDegenerateFace)
	}
	return Face{
		plane:    p,
		vertices: append([]geom.Vec(nil), vertices...),
		texture:  texture,
	}, nil
}

// Plane returns the face's boundary plane.
func (f *Face) Plane() geom.Plane { return f.plane }

// Normal returns the outward face normal.
func (f *Face) Normal() geom.Vec { return f.plane.Normal }

// Vertices returns the boundary polygon. The slice must not be modified.
func (f *Face) Vertices() []geom.Vec { return f.vertices }

// Texture returns the assigned texture, or nil.
func (f *Face) Texture() *asset.Texture { return f.texture }

// TextureName returns the assigned texture's name, or "".
func (f *Face) TextureName() string {
	if f.texture == nil {
		return ""
	}
	return f.texture.Name
}

// SetTexture assigns a texture to the face.
func (f *Face) SetTexture(t *asset.Texture) { f.texture = t }

// Selected reports the face selection flag.
func (f *Face) Selected() bool { return f.selected }

// Select sets the selection flag.
func (f *Face) Select() { f.selected = true }

// Deselect clears the selection flag.
func (f *Face) Deselect() { f.selected = false }

// IntersectWithRay returns the distance along r to the face polygon. Rays
// travelling in the direction of the normal never hit.
func (f *Face) IntersectWithRay(r geom.Ray) (float64, bool) {
	faceRayTests.Add(1)
	if f.plane.Normal.Dot(r.Direction) >= 0 {
		return 0, false
	}
	return geom.IntersectRayPolygon(r, f.plane, f.vertices)
}

// intersectsSegment reports whether the segment from p0 to p1 enters the
// face.
func (f *Face) intersectsSegment(p0, p1 geom.Vec) bool {
	d, ok := f.IntersectWithRay(geom.Ray{Origin: p0, Direction: p1.Sub(p0)})
	return ok && d >= 0 && d <= 1
}

// ProjectedArea returns the area of the face projected along axis.
func (f *Face) ProjectedArea(axis geom.Axis) float64 {
	return geom.ProjectedPolygonArea(f.vertices, axis)
}

// Equal reports whether f and o have the same boundary and texture.
func (f *Face) Equal(o *Face) bool {
	if f.texture != o.texture || len(f.vertices) != len(o.vertices) {
		return false
	}
	for i := range f.vertices {
		if !geom.Equal(f.vertices[i], o.vertices[i], geom.PointStatusEpsilon) {
			return false
		}
	}
	return true
}

// TextureNameMatcher returns a tag matcher accepting faces whose texture name
// matches the glob pattern.
func TextureNameMatcher(pattern string) tag.Matcher {
	return func(subject any) bool {
		f, ok := subject.(*Face)
		if !ok {
			return false
		}
		matched, err := path.Match(pattern, f.TextureName())
		return err == nil && matched
	}
}
