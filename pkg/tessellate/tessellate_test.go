package tessellate_test

import (
	"math"
	"testing"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/brush"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/kernel"
	"github.com/chazu/mapcore/pkg/kernel/sdfx"
	"github.com/chazu/mapcore/pkg/patch"
	"github.com/chazu/mapcore/pkg/scene"
	"github.com/chazu/mapcore/pkg/tessellate"
)

// newKernel returns a coarse sdfx kernel for testing.
func newKernel() kernel.Kernel {
	return sdfx.New(32)
}

func vec(x, y, z float64) geom.Vec { return geom.Vec{X: x, Y: y, Z: z} }

// addCuboid adds an axis aligned brush under parent.
func addCuboid(t *testing.T, parent *scene.Node, min, max geom.Vec) *scene.Node {
	t.Helper()
	b, err := brush.Cuboid(geom.NewBBox(min, max), nil)
	if err != nil {
		t.Fatalf("Cuboid: %v", err)
	}
	n := parent.Scene().NewBrush(b)
	parent.AddChild(n)
	return n
}

// addEntity adds a point entity with the given origin under parent.
func addEntity(parent *scene.Node, classname string, origin geom.Vec) *scene.Node {
	e := parent.Scene().NewEntity(scene.Properties{
		{Key: scene.PropClassname, Value: classname},
		{Key: scene.PropOrigin, Value: scene.FormatVec(origin)},
	})
	parent.AddChild(e)
	return e
}

// flatPatch returns a 3x3 control net spanning [0,8] x [0,8] at height z.
func flatPatch(t *testing.T, s *scene.Scene, z float64) *scene.Node {
	t.Helper()
	var control []geom.Vec
	for r := 0; r < 3; r++ {
		for c := 0; c < 3; c++ {
			control = append(control, vec(float64(c)*4, float64(r)*4, z))
		}
	}
	surface, err := patch.NewSurface(3, 3, control, nil)
	if err != nil {
		t.Fatalf("NewSurface: %v", err)
	}
	return s.NewPatch(surface, 2)
}

func TestNilScene(t *testing.T) {
	meshes, err := tessellate.Tessellate(nil, newKernel())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if meshes != nil {
		t.Fatalf("expected nil meshes, got %d", len(meshes))
	}
}

func TestSingleBrush(t *testing.T) {
	s := scene.New()
	n := addCuboid(t, s.DefaultLayer(), vec(0, 0, 0), vec(2, 3, 4))

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if m.VertexCount() != 24 {
		t.Errorf("vertex count = %d, want 24", m.VertexCount())
	}
	if m.TriangleCount() != 12 {
		t.Errorf("triangle count = %d, want 12", m.TriangleCount())
	}
	if m.Name != "brush#2" {
		t.Errorf("mesh name = %q, want brush#2", m.Name)
	}
	if !m.Bounds().Equal(n.LogicalBounds(), 1e-6) {
		t.Errorf("mesh bounds = %v, want %v", m.Bounds(), n.LogicalBounds())
	}
}

func TestBrushNormalsFollowFaces(t *testing.T) {
	b, err := brush.Cuboid(geom.NewBBox(vec(0, 0, 0), vec(1, 1, 1)), nil)
	if err != nil {
		t.Fatalf("Cuboid: %v", err)
	}
	m := tessellate.BrushMesh(b)
	for i := 0; i < b.FaceCount(); i++ {
		want := b.Face(i).Normal()
		for j := 0; j < 4; j++ {
			v := 4*i + j
			got := vec(float64(m.Normals[3*v]), float64(m.Normals[3*v+1]), float64(m.Normals[3*v+2]))
			if !geom.Equal(got, want, 1e-6) {
				t.Fatalf("face %d vertex %d normal = %v, want %v", i, j, got, want)
			}
		}
	}
}

func TestPatchMesh(t *testing.T) {
	s := scene.New()
	p := flatPatch(t, s, 5)
	s.DefaultLayer().AddChild(p)

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 1 {
		t.Fatalf("expected 1 mesh, got %d", len(meshes))
	}
	m := meshes[0]
	if got, want := m.TriangleCount(), 2*p.Grid().QuadCount(); got != want {
		t.Errorf("triangle count = %d, want %d", got, want)
	}
	if m.TriangleCount() != 32 {
		t.Errorf("triangle count = %d, want 32", m.TriangleCount())
	}
	for i := 0; i < m.VertexCount(); i++ {
		if m.Normals[3*i+2] != 1 {
			t.Fatalf("vertex %d normal z = %f, want 1", i, m.Normals[3*i+2])
		}
	}
}

func TestEntityModels(t *testing.T) {
	k := newKernel()
	s := scene.New()
	layer := s.DefaultLayer()

	modelled := addEntity(layer, "misc_model", vec(10, 0, 0))
	modelled.SetModelFrame(k.Box(2, 2, 2))

	// no model, and a model that is not a kernel solid
	addEntity(layer, "info_null", vec(0, 0, 0))
	foreign := addEntity(layer, "misc_gamemodel", vec(0, 0, 0))
	foreign.SetModelFrame(foreignModel{})

	brushEntity := addEntity(layer, "func_wall", vec(0, 0, 0))
	addCuboid(t, brushEntity, vec(0, 0, 0), vec(1, 1, 1))

	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 2 {
		t.Fatalf("expected 2 meshes, got %d", len(meshes))
	}

	model := meshes[0]
	if model.Name != "misc_model#2" {
		t.Errorf("model mesh name = %q", model.Name)
	}
	bb := model.Bounds()
	const tol = 0.25
	want := geom.NewBBox(vec(9, -1, -1), vec(11, 1, 1))
	if !bb.Equal(want, tol) {
		t.Errorf("model mesh bounds = %v, want ~%v", bb, want)
	}
	if math.Abs(bb.Center().X-10) > 0.1 {
		t.Errorf("model mesh not moved to the origin: centre %v", bb.Center())
	}
	if meshes[1].TriangleCount() != 12 {
		t.Errorf("brush entity child triangles = %d, want 12", meshes[1].TriangleCount())
	}
}

type foreignModel struct{}

func (foreignModel) Bounds() asset.Bounds32                { return asset.Bounds32{} }
func (foreignModel) Intersect(asset.Ray32) (float32, bool) { return 0, false }

func TestForeignModelIsSkipped(t *testing.T) {
	s := scene.New()
	e := addEntity(s.DefaultLayer(), "misc_gamemodel", vec(0, 0, 0))
	e.SetModelFrame(foreignModel{})

	meshes, err := tessellate.Tessellate(s, newKernel())
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if len(meshes) != 0 {
		t.Errorf("expected no meshes for a model the kernel did not build, got %d", len(meshes))
	}
}

func TestBrushCache(t *testing.T) {
	s := scene.New()
	n := addCuboid(t, s.DefaultLayer(), vec(0, 0, 0), vec(1, 1, 1))
	c := tessellate.AttachBrushCache(n)
	k := newKernel()

	for i := 0; i < 3; i++ {
		if _, err := tessellate.Tessellate(s, k); err != nil {
			t.Fatalf("Tessellate: %v", err)
		}
	}
	if c.Builds() != 1 {
		t.Fatalf("builds = %d, want 1", c.Builds())
	}

	b, err := brush.Cuboid(geom.NewBBox(vec(0, 0, 0), vec(5, 5, 5)), nil)
	if err != nil {
		t.Fatalf("Cuboid: %v", err)
	}
	n.SetBrush(b)
	meshes, err := tessellate.Tessellate(s, k)
	if err != nil {
		t.Fatalf("Tessellate: %v", err)
	}
	if c.Builds() != 2 {
		t.Errorf("builds after SetBrush = %d, want 2", c.Builds())
	}
	if got := meshes[0].Bounds().Max; !geom.Equal(got, vec(5, 5, 5), 1e-6) {
		t.Errorf("cached mesh max = %v, want (5, 5, 5)", got)
	}

	n.SetFaceTexture(0, &asset.Texture{Name: "base/wall"})
	c.Mesh()
	if c.Builds() != 3 {
		t.Errorf("builds after SetFaceTexture = %d, want 3", c.Builds())
	}
}
