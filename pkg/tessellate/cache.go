package tessellate

import (
	"github.com/chazu/mapcore/pkg/kernel"
	"github.com/chazu/mapcore/pkg/scene"
)

// BrushCache holds the triangulated mesh of one brush node. The scene drops
// the mesh whenever the brush geometry or a face texture changes, and the next
// Mesh call rebuilds it.
type BrushCache struct {
	node   *scene.Node
	mesh   *kernel.Mesh
	builds int
}

var _ scene.VertexCache = (*BrushCache)(nil)

// AttachBrushCache creates a cache for the brush node n and registers it as
// the node's vertex cache.
func AttachBrushCache(n *scene.Node) *BrushCache {
	c := &BrushCache{node: n}
	n.SetVertexCache(c)
	return c
}

// InvalidateVertexCache drops the cached mesh.
func (c *BrushCache) InvalidateVertexCache() {
	c.mesh = nil
}

// Mesh returns the cached mesh, building it when missing.
func (c *BrushCache) Mesh() *kernel.Mesh {
	if c.mesh == nil {
		c.mesh = BrushMesh(c.node.Brush())
		c.mesh.Name = meshName(c.node)
		c.builds++
	}
	return c.mesh
}

// Builds returns how many times the mesh was built.
func (c *BrushCache) Builds() int { return c.builds }
