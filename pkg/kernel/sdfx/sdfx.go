// Package sdfx implements kernel.Kernel with the github.com/deadsy/sdfx
// SDF library. Solids are picked by sphere tracing their distance field.
package sdfx

import (
	"errors"
	"fmt"
	"math"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/kernel"
	"github.com/deadsy/sdfx/render"
	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

var _ kernel.Kernel = (*SdfxKernel)(nil)

// ErrEmptyMesh is returned when marching cubes produces no triangles.
var ErrEmptyMesh = errors.New("no triangles produced")

// DefaultMeshCells is the marching cubes resolution along the longest axis.
const DefaultMeshCells = 64

const (
	maxMarchSteps = 256
	hitEpsilon    = 1e-4
)

// solid wraps an sdf.SDF3 to implement kernel.Solid.
type solid struct {
	s sdf.SDF3
}

var _ kernel.Solid = (*solid)(nil)

// Bounds returns the model-space bounding box.
func (s *solid) Bounds() asset.Bounds32 {
	bb := s.s.BoundingBox()
	return asset.Bounds32{Min: asset.Vec3From(bb.Min), Max: asset.Vec3From(bb.Max)}
}

// Intersect sphere traces the distance field from where r enters the bounding
// box. The result is in multiples of r.Direction.
func (s *solid) Intersect(r asset.Ray32) (float32, bool) {
	ray := geom.Ray{Origin: asset.VecFrom(r.Origin), Direction: asset.VecFrom(r.Direction)}
	speed := ray.Direction.Length()
	if speed == 0 {
		return 0, false
	}
	bb := geom.FromBox3(s.s.BoundingBox())
	enter, ok := geom.IntersectRayBBox(ray, bb)
	if !ok {
		return 0, false
	}
	exit := enter + bb.Size().Length()/speed

	t := enter
	for i := 0; i < maxMarchSteps && t <= exit; i++ {
		d := s.s.Evaluate(ray.PointAt(t))
		if d < hitEpsilon {
			return float32(t), true
		}
		t += d / speed
	}
	return 0, false
}

// SdfxKernel implements kernel.Kernel using sdfx.
type SdfxKernel struct {
	cells int
}

// New returns a kernel meshing with the given marching cubes resolution. A
// non-positive value selects DefaultMeshCells.
func New(cells int) *SdfxKernel {
	if cells <= 0 {
		cells = DefaultMeshCells
	}
	return &SdfxKernel{cells: cells}
}

// MeshCells returns the marching cubes resolution.
func (k *SdfxKernel) MeshCells() int { return k.cells }

func unwrap(s kernel.Solid) (sdf.SDF3, bool) {
	sd, ok := s.(*solid)
	if !ok {
		return nil, false
	}
	return sd.s, true
}

// mustUnwrap unwraps the operand of a kernel operation.
func mustUnwrap(op string, s kernel.Solid) sdf.SDF3 {
	sd, ok := unwrap(s)
	if !ok {
		panic(fmt.Sprintf("sdfx: %s: %T: %v", op, s, kernel.ErrForeignSolid))
	}
	return sd
}

func wrap(s sdf.SDF3) kernel.Solid {
	return &solid{s: s}
}

// Box creates a box with the given dimensions centred on the origin.
func (k *SdfxKernel) Box(x, y, z float64) kernel.Solid {
	s, err := sdf.Box3D(v3.Vec{X: x, Y: y, Z: z}, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx: box: %v", err))
	}
	return wrap(s)
}

// Cylinder creates a cylinder along Z centred on the origin.
func (k *SdfxKernel) Cylinder(height, radius float64) kernel.Solid {
	s, err := sdf.Cylinder3D(height, radius, 0)
	if err != nil {
		panic(fmt.Sprintf("sdfx: cylinder: %v", err))
	}
	return wrap(s)
}

// Union returns the union of two solids.
func (k *SdfxKernel) Union(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Union3D(mustUnwrap("union", a), mustUnwrap("union", b)))
}

// Difference returns the difference a - b.
func (k *SdfxKernel) Difference(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Difference3D(mustUnwrap("difference", a), mustUnwrap("difference", b)))
}

// Intersection returns the intersection of two solids.
func (k *SdfxKernel) Intersection(a, b kernel.Solid) kernel.Solid {
	return wrap(sdf.Intersect3D(mustUnwrap("intersection", a), mustUnwrap("intersection", b)))
}

// Translate moves a solid by (x, y, z).
func (k *SdfxKernel) Translate(s kernel.Solid, x, y, z float64) kernel.Solid {
	m := sdf.Translate3d(v3.Vec{X: x, Y: y, Z: z})
	return wrap(sdf.Transform3D(mustUnwrap("translate", s), m))
}

// Rotate rotates a solid by Euler angles (degrees) around X, Y, Z axes.
func (k *SdfxKernel) Rotate(s kernel.Solid, x, y, z float64) kernel.Solid {
	rad := func(d float64) float64 { return d * math.Pi / 180.0 }
	m := sdf.RotateZ(rad(z)).Mul(sdf.RotateY(rad(y))).Mul(sdf.RotateX(rad(x)))
	return wrap(sdf.Transform3D(mustUnwrap("rotate", s), m))
}

// ToMesh converts a solid to a triangle mesh using marching cubes. Each
// triangle gets its own three vertices carrying the face normal.
func (k *SdfxKernel) ToMesh(s kernel.Solid) (*kernel.Mesh, error) {
	sd, ok := unwrap(s)
	if !ok {
		return nil, fmt.Errorf("sdfx: mesh: %T: %w", s, kernel.ErrForeignSolid)
	}
	renderer := render.NewMarchingCubesUniform(k.cells)
	triangles := render.ToTriangles(sd, renderer)
	if len(triangles) == 0 {
		return nil, fmt.Errorf("sdfx: mesh: %w", ErrEmptyMesh)
	}

	mesh := &kernel.Mesh{
		Vertices: make([]float32, 0, len(triangles)*9),
		Normals:  make([]float32, 0, len(triangles)*9),
		Indices:  make([]uint32, 0, len(triangles)*3),
	}
	for _, tri := range triangles {
		n := tri.Normal()
		a := mesh.AddVertex(tri[0], n)
		b := mesh.AddVertex(tri[1], n)
		c := mesh.AddVertex(tri[2], n)
		mesh.AddTriangle(a, b, c)
	}
	return mesh, nil
}
