package kernel

import "github.com/chazu/mapcore/pkg/geom"

// Mesh is a flat triangle mesh. Vertices and Normals hold 3 floats per
// vertex, Indices 3 entries per triangle.
type Mesh struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"` // node the mesh was built from
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices) / 3
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Indices) / 3
}

// IsEmpty returns true if the mesh has no geometry.
func (m *Mesh) IsEmpty() bool {
	return len(m.Vertices) == 0
}

// AddVertex appends a vertex and returns its index.
func (m *Mesh) AddVertex(p, n geom.Vec) uint32 {
	i := uint32(m.VertexCount())
	m.Vertices = append(m.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
	m.Normals = append(m.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	return i
}

// AddTriangle appends a triangle over existing vertex indices.
func (m *Mesh) AddTriangle(a, b, c uint32) {
	m.Indices = append(m.Indices, a, b, c)
}

// Vertex returns vertex i.
func (m *Mesh) Vertex(i int) geom.Vec {
	return geom.Vec{X: float64(m.Vertices[3*i]), Y: float64(m.Vertices[3*i+1]), Z: float64(m.Vertices[3*i+2])}
}

func (m *Mesh) normal(i int) geom.Vec {
	return geom.Vec{X: float64(m.Normals[3*i]), Y: float64(m.Normals[3*i+1]), Z: float64(m.Normals[3*i+2])}
}

// Bounds returns the box enclosing every vertex. An empty mesh has a zero box.
func (m *Mesh) Bounds() geom.BBox {
	points := make([]geom.Vec, m.VertexCount())
	for i := range points {
		points[i] = m.Vertex(i)
	}
	return geom.BBoxOf(points...)
}

// Transform returns a copy of m with positions and normals mapped by t.
func (m *Mesh) Transform(t geom.Mat) *Mesh {
	out := &Mesh{
		Vertices: make([]float32, 0, len(m.Vertices)),
		Normals:  make([]float32, 0, len(m.Normals)),
		Indices:  append([]uint32(nil), m.Indices...),
		Name:     m.Name,
	}
	for i := 0; i < m.VertexCount(); i++ {
		p := t.MulPosition(m.Vertex(i))
		n := geom.TransformDirection(t, m.normal(i))
		if l := n.Length(); l > 0 {
			n = n.DivScalar(l)
		}
		out.Vertices = append(out.Vertices, float32(p.X), float32(p.Y), float32(p.Z))
		out.Normals = append(out.Normals, float32(n.X), float32(n.Y), float32(n.Z))
	}
	return out
}
