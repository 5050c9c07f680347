package scene

import (
	"testing"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// boxModel is a model frame shaped like an axis aligned box.
type boxModel struct {
	b geom.BBox
}

func (m boxModel) Bounds() asset.Bounds32 {
	return asset.Bounds32{Min: asset.Vec3From(m.b.Min), Max: asset.Vec3From(m.b.Max)}
}

func (m boxModel) Intersect(r asset.Ray32) (float32, bool) {
	wide := geom.Ray{Origin: asset.VecFrom(r.Origin), Direction: asset.VecFrom(r.Direction)}
	d, ok := geom.IntersectRayBBox(wide, m.b)
	return float32(d), ok
}

var _ asset.ModelFrame = boxModel{}

type hideNode struct {
	hidden *Node
}

func (h hideNode) Visible(n *Node) bool { return n != h.hidden }

func TestPickBrushes(t *testing.T) {
	s := New()
	layer := s.DefaultLayer()
	near := addBrush(t, layer, vec(0, 0, 0), vec(10, 10, 10))
	far := addBrush(t, layer, vec(20, 0, 0), vec(30, 10, 10))
	r := geom.Ray{Origin: vec(-10, 5, 5), Direction: vec(1, 0, 0)}

	result := s.Pick(r, AllVisible{})
	require.Equal(t, 2, result.Len())
	first, ok := result.First()
	require.True(t, ok)
	assert.Equal(t, BrushHit, first.Type)
	assert.Same(t, near, first.Node)
	assert.InDelta(t, 10, first.Distance, 1e-9)
	assert.Equal(t, 0, first.FaceIndex)
	assert.True(t, geom.Equal(vec(0, 5, 5), first.Point, 1e-9))

	sorted := result.Sorted()
	assert.Same(t, far, sorted[1].Node)
	assert.InDelta(t, 30, sorted[1].Distance, 1e-9)

	hidden := s.Pick(r, hideNode{hidden: near})
	require.Equal(t, 1, hidden.Len())
	assert.Same(t, far, hidden.Hits()[0].Node)

	miss := s.Pick(geom.Ray{Origin: vec(-10, 50, 5), Direction: vec(1, 0, 0)}, AllVisible{})
	_, ok = miss.First()
	assert.False(t, ok)
}

func TestPickEntityModel(t *testing.T) {
	newEntity := func(t *testing.T, extra ...Property) *Node {
		t.Helper()
		s := New()
		e := addEntity(t, s.DefaultLayer(), "misc_model", vec(0, 0, 0))
		for _, p := range extra {
			e.SetProperty(p.Key, p.Value)
		}
		e.SetDefinition(&asset.PointEntityDefinition{Name: "misc_model", Bounds: geom.CubeBBox(1)})
		e.SetModelFrame(boxModel{b: geom.NewBBox(vec(2, -1, -1), vec(6, 1, 1))})
		return e
	}

	tests := []struct {
		name      string
		extra     []Property
		ray       geom.Ray
		wantHit   bool
		wantDist  float64
		wantPoint geom.Vec
	}{
		{
			name:      "origin inside bounds tests the model",
			ray:       geom.Ray{Origin: vec(0, 0, 0), Direction: vec(1, 0, 0)},
			wantHit:   true,
			wantDist:  2,
			wantPoint: vec(2, 0, 0),
		},
		{
			name:      "rotated model",
			extra:     []Property{{Key: PropAngle, Value: "90"}},
			ray:       geom.Ray{Origin: vec(0, 0, 0), Direction: vec(0, 1, 0)},
			wantHit:   true,
			wantDist:  2,
			wantPoint: vec(0, 2, 0),
		},
		{
			name:      "scaled model reports world distance",
			extra:     []Property{{Key: PropModelScale, Value: "2"}},
			ray:       geom.Ray{Origin: vec(0, 0, 0), Direction: vec(1, 0, 0)},
			wantHit:   true,
			wantDist:  4,
			wantPoint: vec(4, 0, 0),
		},
		{
			name:  "singular transform is skipped",
			extra: []Property{{Key: PropModelScale, Value: "0"}},
			ray:   geom.Ray{Origin: vec(0, 0, 0), Direction: vec(1, 0, 0)},
		},
		{
			name:      "bounds missed, model hit",
			ray:       geom.Ray{Origin: vec(4, 0, 10), Direction: vec(0, 0, -1)},
			wantHit:   true,
			wantDist:  9,
			wantPoint: vec(4, 0, 1),
		},
		{
			name:      "bounds hit",
			ray:       geom.Ray{Origin: vec(-10, 0, 0), Direction: vec(1, 0, 0)},
			wantHit:   true,
			wantDist:  9,
			wantPoint: vec(-1, 0, 0),
		},
		{
			name: "miss",
			ray:  geom.Ray{Origin: vec(-10, 20, 0), Direction: vec(1, 0, 0)},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEntity(t, tt.extra...)
			result := &PickResult{}
			e.Pick(tt.ray, AllVisible{}, result)
			if !tt.wantHit {
				assert.Zero(t, result.Len())
				return
			}
			require.Equal(t, 1, result.Len())
			hit := result.Hits()[0]
			assert.Equal(t, EntityHit, hit.Type)
			assert.Same(t, e, hit.Node)
			assert.InDelta(t, tt.wantDist, hit.Distance, 1e-4)
			assert.True(t, geom.Equal(tt.wantPoint, hit.Point, 1e-4), "point %v", hit.Point)
		})
	}

	e := newEntity(t)
	assert.True(t, geom.NewBBox(vec(-1, -1, -1), vec(6, 1, 1)).Equal(e.PhysicalBounds(), 1e-6))
	assert.True(t, geom.CubeBBox(1).Equal(e.LogicalBounds(), 1e-9))
}

func TestPickSkipsBrushEntities(t *testing.T) {
	s := New()
	e := addEntity(t, s.DefaultLayer(), "func_wall", vec(0, 0, 0))
	b := addBrush(t, e, vec(0, 0, 0), vec(4, 4, 4))

	result := s.Pick(geom.Ray{Origin: vec(2, 2, 10), Direction: vec(0, 0, -1)}, AllVisible{})
	require.Equal(t, 1, result.Len())
	assert.Same(t, b, result.Hits()[0].Node)
	assert.InDelta(t, 6, result.Hits()[0].Distance, 1e-9)
}

func TestPickPatch(t *testing.T) {
	s := New()
	p := flatPatch(t, s, 5)
	s.DefaultLayer().AddChild(p)

	result := s.Pick(geom.Ray{Origin: vec(2.5, 3.1, 20), Direction: vec(0, 0, -1)}, AllVisible{})
	hit, ok := result.First()
	require.True(t, ok)
	assert.Equal(t, PatchHit, hit.Type)
	assert.Same(t, p, hit.Node)
	assert.InDelta(t, 15, hit.Distance, 1e-9)

	result = s.Pick(geom.Ray{Origin: vec(2.5, 3.1, 20), Direction: vec(0, 0, -1)}, hideNode{hidden: p})
	assert.Zero(t, result.Len())
}
