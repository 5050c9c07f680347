package sdfx

import (
	"errors"
	"math"
	"testing"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/kernel"
)

func bounds(s kernel.Solid) geom.BBox { return s.Bounds().BBox() }

func checkBounds(t *testing.T, got geom.BBox, min, max geom.Vec, tol float64) {
	t.Helper()
	if !geom.Equal(got.Min, min, tol) || !geom.Equal(got.Max, max, tol) {
		t.Errorf("bounds = %v, want %v..%v", got, min, max)
	}
}

func TestBox(t *testing.T) {
	k := New(0)
	if k.MeshCells() != DefaultMeshCells {
		t.Fatalf("MeshCells() = %d, want %d", k.MeshCells(), DefaultMeshCells)
	}
	box := k.Box(100, 50, 25)
	checkBounds(t, bounds(box), geom.Vec{X: -50, Y: -25, Z: -12.5}, geom.Vec{X: 50, Y: 25, Z: 12.5}, 0.01)

	mesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh failed: %v", err)
	}
	if mesh.IsEmpty() || mesh.TriangleCount() == 0 {
		t.Fatal("mesh is empty")
	}
	if len(mesh.Vertices) != len(mesh.Normals) {
		t.Fatalf("vertices length %d != normals length %d", len(mesh.Vertices), len(mesh.Normals))
	}
	if len(mesh.Indices) != mesh.TriangleCount()*3 {
		t.Fatalf("indices length %d != triangles*3", len(mesh.Indices))
	}
	// marching cubes stays within a cell of the surface
	cell := 100.0 / DefaultMeshCells
	checkBounds(t, mesh.Bounds(), geom.Vec{X: -50, Y: -25, Z: -12.5}, geom.Vec{X: 50, Y: 25, Z: 12.5}, 2*cell)
}

func TestDifferenceHasMoreTriangles(t *testing.T) {
	k := New(32)
	box := k.Box(100, 100, 100)
	boxMesh, err := k.ToMesh(box)
	if err != nil {
		t.Fatalf("ToMesh(box) failed: %v", err)
	}
	diff := k.Difference(box, k.Cylinder(120, 20))
	diffMesh, err := k.ToMesh(diff)
	if err != nil {
		t.Fatalf("ToMesh(diff) failed: %v", err)
	}
	if diffMesh.TriangleCount() <= boxMesh.TriangleCount() {
		t.Fatalf("difference (%d triangles) should have more triangles than box (%d triangles)",
			diffMesh.TriangleCount(), boxMesh.TriangleCount())
	}
}

func TestTransforms(t *testing.T) {
	k := New(0)
	tests := []struct {
		name     string
		solid    kernel.Solid
		min, max geom.Vec
	}{
		{
			"translate",
			k.Translate(k.Box(10, 10, 10), 100, 200, 300),
			geom.Vec{X: 95, Y: 195, Z: 295}, geom.Vec{X: 105, Y: 205, Z: 305},
		},
		{
			"rotate about z",
			k.Rotate(k.Box(100, 10, 10), 0, 0, 90),
			geom.Vec{X: -5, Y: -50, Z: -5}, geom.Vec{X: 5, Y: 50, Z: 5},
		},
		{
			"union",
			k.Union(k.Box(10, 10, 10), k.Translate(k.Box(10, 10, 10), 20, 0, 0)),
			geom.Vec{X: -5, Y: -5, Z: -5}, geom.Vec{X: 25, Y: 5, Z: 5},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			checkBounds(t, bounds(tt.solid), tt.min, tt.max, 0.5)
		})
	}
}

func TestIntersect(t *testing.T) {
	k := New(0)
	model := k.Translate(k.Box(4, 2, 2), 4, 0, 0) // [2,6] x [-1,1] x [-1,1]
	ring := k.Difference(k.Cylinder(2, 5), k.Cylinder(4, 2))

	tests := []struct {
		name   string
		solid  kernel.Solid
		origin geom.Vec
		dir    geom.Vec
		want   float64
		hit    bool
	}{
		{"front face", model, geom.Vec{}, geom.Vec{X: 1}, 2, true},
		{"scaled direction", model, geom.Vec{}, geom.Vec{X: 2}, 1, true},
		{"from above", model, geom.Vec{X: 4, Z: 10}, geom.Vec{Z: -1}, 9, true},
		{"miss", model, geom.Vec{Y: 5}, geom.Vec{X: 1}, 0, false},
		{"pointing away", model, geom.Vec{}, geom.Vec{X: -1}, 0, false},
		{"through the hole", ring, geom.Vec{Z: 10}, geom.Vec{Z: -1}, 0, false},
		{"into the rim", ring, geom.Vec{X: 3, Z: 10}, geom.Vec{Z: -1}, 9, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, ok := tt.solid.Intersect(asset.Ray32From(geom.Ray{Origin: tt.origin, Direction: tt.dir}))
			if ok != tt.hit {
				t.Fatalf("Intersect() hit = %v, want %v", ok, tt.hit)
			}
			if ok && math.Abs(float64(d)-tt.want) > 1e-2 {
				t.Errorf("Intersect() = %f, want %f", d, tt.want)
			}
		})
	}
}

type foreignSolid struct{}

func (foreignSolid) Bounds() asset.Bounds32                { return asset.Bounds32{} }
func (foreignSolid) Intersect(asset.Ray32) (float32, bool) { return 0, false }

func TestForeignSolid(t *testing.T) {
	k := New(16)
	if _, err := k.ToMesh(foreignSolid{}); !errors.Is(err, kernel.ErrForeignSolid) {
		t.Fatalf("ToMesh(foreign) error = %v, want ErrForeignSolid", err)
	}

	defer func() {
		if recover() == nil {
			t.Error("expected Union with a foreign solid to panic")
		}
	}()
	k.Union(k.Box(1, 1, 1), foreignSolid{})
}
