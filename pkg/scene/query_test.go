package scene

import (
	"testing"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type queryFixture struct {
	s     *Scene
	layer *Node
	big   *Node
	small *Node
	ent   *Node
	group *Node
	flat  *Node
}

// newQueryFixture builds a layer holding a large brush, a group around a small
// brush, a point entity and a flat patch at z=5.
func newQueryFixture(t *testing.T) queryFixture {
	t.Helper()
	s := New()
	layer := s.DefaultLayer()
	f := queryFixture{s: s, layer: layer}
	f.big = addBrush(t, layer, vec(0, 0, 0), vec(20, 20, 20))
	f.group = s.NewGroup("g")
	layer.AddChild(f.group)
	f.small = addBrush(t, f.group, vec(2, 2, 2), vec(4, 4, 4))
	f.ent = addEntity(t, layer, "light", vec(10, 10, 10))
	f.ent.SetDefinition(&asset.PointEntityDefinition{Name: "light", Bounds: geom.CubeBBox(2)})
	f.flat = flatPatch(t, s, 5)
	layer.AddChild(f.flat)
	return f
}

func TestContainsDispatch(t *testing.T) {
	f := newQueryFixture(t)
	tests := []struct {
		name           string
		a, b           *Node
		contains, hits bool
	}{
		{"brush/brush", f.big, f.small, true, true},
		{"brush/brush reversed", f.small, f.big, false, true},
		{"brush/entity", f.big, f.ent, true, true},
		{"brush/patch", f.big, f.flat, true, true},
		{"small brush/patch", f.small, f.flat, false, false},
		{"brush/group", f.big, f.group, true, true},
		{"group/brush", f.group, f.small, true, true},
		{"entity/brush", f.ent, f.small, false, false},
		{"entity/big brush", f.ent, f.big, false, true},
		{"patch/brush", f.flat, f.big, false, true},
		{"patch/small brush", f.flat, f.small, false, false},
		{"patch/entity", f.flat, f.ent, false, false},
		{"brush/world", f.big, f.s.World(), false, false},
		{"brush/layer", f.big, f.layer, false, false},
		{"world/brush", f.s.World(), f.big, false, false},
		{"layer/brush", f.layer, f.big, false, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.contains, tt.a.Contains(tt.b), "contains")
			assert.Equal(t, tt.hits, tt.a.Intersects(tt.b), "intersects")
		})
	}
}

func TestFindNodesContaining(t *testing.T) {
	f := newQueryFixture(t)
	tests := []struct {
		name string
		p    geom.Vec
		want []*Node
	}{
		{"inside both brushes", vec(3, 3, 3), []*Node{f.big, f.small}},
		{"entity", vec(10, 10, 10), []*Node{f.big, f.ent}},
		{"patch", vec(4, 4, 5), []*Node{f.big, f.flat}},
		{"nothing", vec(50, 50, 50), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, f.s.FindNodesContaining(tt.p))
		})
	}

	e := addEntity(t, f.layer, "func_door", vec(0, 0, 0))
	b := addBrush(t, e, vec(40, 40, 40), vec(42, 42, 42))
	assert.Equal(t, []*Node{b}, f.s.FindNodesContaining(vec(41, 41, 41)))
}

func TestSpatialQueries(t *testing.T) {
	f := newQueryFixture(t)
	s := f.s
	assert.Equal(t, 4, s.IndexedCount())

	assert.Equal(t, []*Node{f.big}, s.NodesTouching(f.small))
	assert.Equal(t, []*Node{f.small, f.ent, f.flat}, s.NodesInside(f.big))

	updates := s.Stats().IndexUpdates
	f.small.SetBrush(cuboid(t, vec(30, 30, 30), vec(32, 32, 32)))
	assert.Equal(t, []*Node{f.ent, f.flat}, s.NodesInside(f.big))
	assert.Empty(t, s.NodesTouching(f.small))
	assert.Equal(t, []*Node{f.small}, s.NodesInBounds(geom.NewBBox(vec(29, 29, 29), vec(33, 33, 33))))
	assert.Equal(t, updates+1, s.Stats().IndexUpdates, "only the moved brush is reinserted")

	// detached nodes leave the index
	f.layer.RemoveChild(f.flat)
	assert.Equal(t, []*Node{f.ent}, s.NodesInside(f.big))
	assert.Equal(t, 3, s.IndexedCount())
}

func TestIndexIgnoresDetachedNodes(t *testing.T) {
	s := New()
	g := s.NewGroup("detached")
	addBrush(t, g, vec(0, 0, 0), vec(1, 1, 1))
	assert.Equal(t, 0, s.IndexedCount())

	s.DefaultLayer().AddChild(g)
	assert.Equal(t, 1, s.IndexedCount())
	require.Len(t, s.NodesInBounds(geom.CubeBBox(1)), 1)
}
