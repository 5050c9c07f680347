// Package tessellate turns a scene into triangle meshes: brush faces are fan
// triangulated, patch grids split into two triangles per cell and modelled
// point entities meshed by a geometry kernel. One mesh is produced per node.
package tessellate

import (
	"errors"
	"fmt"

	"github.com/chazu/mapcore/pkg/brush"
	"github.com/chazu/mapcore/pkg/kernel"
	"github.com/chazu/mapcore/pkg/patch"
	"github.com/chazu/mapcore/pkg/scene"
)

// Tessellate walks the scene and produces one mesh per brush, patch and
// point entity whose model is a kernel solid. Brushes with a BrushCache
// attached reuse the cached mesh. The scene is not modified.
func Tessellate(s *scene.Scene, k kernel.Kernel) ([]*kernel.Mesh, error) {
	if s == nil {
		return nil, nil
	}
	return walkNode(s.World(), k)
}

// walkNode recursively traverses a node and its children, collecting meshes.
func walkNode(n *scene.Node, k kernel.Kernel) ([]*kernel.Mesh, error) {
	switch n.Kind() {
	case scene.KindWorld, scene.KindLayer, scene.KindGroup:
		return walkChildren(n, k)

	case scene.KindEntity:
		if n.HasChildren() {
			return walkChildren(n, k)
		}
		return handleEntity(n, k)

	case scene.KindBrush:
		return []*kernel.Mesh{brushMesh(n)}, nil

	case scene.KindPatch:
		m := PatchMesh(n.Grid())
		m.Name = meshName(n)
		return []*kernel.Mesh{m}, nil

	default:
		return nil, fmt.Errorf("tessellate: unknown node kind: %v", n.Kind())
	}
}

func walkChildren(n *scene.Node, k kernel.Kernel) ([]*kernel.Mesh, error) {
	var meshes []*kernel.Mesh
	for _, child := range n.Children() {
		collected, err := walkNode(child, k)
		if err != nil {
			return nil, err
		}
		meshes = append(meshes, collected...)
	}
	return meshes, nil
}

// handleEntity meshes the entity model in model space and moves the result
// into the world with the model transform.
func handleEntity(n *scene.Node, k kernel.Kernel) ([]*kernel.Mesh, error) {
	solid, ok := n.ModelFrame().(kernel.Solid)
	if !ok || k == nil {
		return nil, nil
	}
	mesh, err := k.ToMesh(solid)
	if errors.Is(err, kernel.ErrForeignSolid) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("tessellate: ToMesh failed for entity %d: %w", n.Handle(), err)
	}
	out := mesh.Transform(n.ModelTransform())
	out.Name = meshName(n)
	return []*kernel.Mesh{out}, nil
}

func brushMesh(n *scene.Node) *kernel.Mesh {
	if c, ok := n.Data().(*scene.BrushData).VertexCache.(*BrushCache); ok && c.node == n {
		return c.Mesh()
	}
	m := BrushMesh(n.Brush())
	m.Name = meshName(n)
	return m
}

func meshName(n *scene.Node) string {
	return fmt.Sprintf("%s#%d", n.Name(), n.Handle())
}

// BrushMesh fan triangulates every face of b. Faces keep their own vertices
// so that each carries its face normal.
func BrushMesh(b *brush.Brush) *kernel.Mesh {
	m := &kernel.Mesh{}
	for i := 0; i < b.FaceCount(); i++ {
		f := b.Face(i)
		vs := f.Vertices()
		first := m.AddVertex(vs[0], f.Normal())
		for _, v := range vs[1:] {
			m.AddVertex(v, f.Normal())
		}
		for j := 1; j+1 < len(vs); j++ {
			m.AddTriangle(first, first+uint32(j), first+uint32(j+1))
		}
	}
	return m
}

// PatchMesh emits two triangles per grid cell. Cells whose corners collapse to
// a line get a zero normal.
func PatchMesh(g patch.Grid) *kernel.Mesh {
	m := &kernel.Mesh{}
	for row := 0; row < g.PointRowCount-1; row++ {
		for col := 0; col < g.PointColumnCount-1; col++ {
			q := g.Quad(row, col)
			n := q[2].Sub(q[0]).Cross(q[3].Sub(q[1]))
			if l := n.Length(); l > 0 {
				n = n.DivScalar(l)
			}
			a := m.AddVertex(q[0], n)
			b := m.AddVertex(q[1], n)
			c := m.AddVertex(q[2], n)
			d := m.AddVertex(q[3], n)
			m.AddTriangle(a, b, c)
			m.AddTriangle(a, c, d)
		}
	}
	return m
}
