package scene

import (
	"fmt"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/brush"
	"github.com/chazu/mapcore/pkg/patch"
	"github.com/chazu/mapcore/pkg/tag"
)

func (n *Node) brushData() *BrushData {
	d, ok := n.data.(*BrushData)
	if !ok {
		panic(fmt.Sprintf("scene: %s %d is not a brush", n.kind, n.handle))
	}
	return d
}

// Brush returns the brush of a brush node, or nil for other kinds.
func (n *Node) Brush() *brush.Brush {
	if d, ok := n.data.(*BrushData); ok {
		return d.Brush
	}
	return nil
}

// SetBrush replaces the brush and returns the previous one. The selected face
// count is rescanned from the new brush.
func (n *Node) SetBrush(b *brush.Brush) *brush.Brush {
	d := n.brushData()
	old := d.Brush
	d.Brush = b
	d.selectedFaces = b.SelectedFaceCount()
	n.invalidateBounds()
	n.invalidateIssues()
	n.invalidateVertexCache()
	n.logger().Debug("brush set")
	return old
}

// SetVertexCache attaches the renderer cache notified on geometry changes.
func (n *Node) SetVertexCache(c VertexCache) {
	n.brushData().VertexCache = c
}

func (n *Node) invalidateVertexCache() {
	if c := n.brushData().VertexCache; c != nil {
		c.InvalidateVertexCache()
	}
}

// SelectFace selects the face at index. Selecting a selected face is a no-op.
func (n *Node) SelectFace(index int) {
	d := n.brushData()
	f := d.Brush.Face(index)
	if f.Selected() {
		return
	}
	f.Select()
	d.selectedFaces++
}

// DeselectFace deselects the face at index.
func (n *Node) DeselectFace(index int) {
	d := n.brushData()
	f := d.Brush.Face(index)
	if !f.Selected() {
		return
	}
	f.Deselect()
	d.selectedFaces--
}

// HasSelectedFaces reports whether any face of the brush is selected.
func (n *Node) HasSelectedFaces() bool { return n.brushData().selectedFaces > 0 }

// SelectedFaceCount returns the tracked number of selected faces.
func (n *Node) SelectedFaceCount() int { return n.brushData().selectedFaces }

// SetFaceTexture assigns a texture to the face at index.
func (n *Node) SetFaceTexture(index int, t *asset.Texture) {
	d := n.brushData()
	d.Brush.Face(index).SetTexture(t)
	n.invalidateBounds()
	n.invalidateIssues()
	n.invalidateVertexCache()
}

// UpdateFaceTags recomputes the tags of the face at index.
func (n *Node) UpdateFaceTags(index int, m *tag.Manager) {
	f := n.brushData().Brush.Face(index)
	f.UpdateTags(m, f)
}

// Grid returns the sampled grid of a patch node.
func (n *Node) Grid() patch.Grid {
	d, ok := n.data.(*PatchData)
	if !ok {
		panic(fmt.Sprintf("scene: %s %d is not a patch", n.kind, n.handle))
	}
	return d.Grid
}

// SetSurface replaces the surface of a patch node, resampling its grid at the
// given subdivision level, and returns the previous surface.
func (n *Node) SetSurface(s patch.Surface, subdivisions int) patch.Surface {
	d, ok := n.data.(*PatchData)
	if !ok {
		panic(fmt.Sprintf("scene: %s %d is not a patch", n.kind, n.handle))
	}
	old := d.Surface
	d.Surface = s
	d.Grid = s.Evaluate(subdivisions)
	n.invalidateBounds()
	n.logger().Debug("surface set")
	return old
}

// Equal reports whether two brush nodes hold equal brushes. Nodes of other
// kinds are never equal.
func (n *Node) Equal(o *Node) bool {
	a, b := n.Brush(), o.Brush()
	return a != nil && b != nil && a.Equal(b)
}
