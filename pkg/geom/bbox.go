package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
)

// BBox is an axis-aligned bounding box. Min is component-wise <= Max for every
// box produced by this package.
type BBox struct {
	Min Vec
	Max Vec
}

// NewBBox returns the box spanned by two corner points in any order.
func NewBBox(a, b Vec) BBox {
	return BBox{Min: a.Min(b), Max: a.Max(b)}
}

// CubeBBox returns the cube [-half, half] on every axis.
func CubeBBox(half float64) BBox {
	return BBox{
		Min: Vec{X: -half, Y: -half, Z: -half},
		Max: Vec{X: half, Y: half, Z: half},
	}
}

// BBoxOf returns the tight box around the given points. The zero box is
// returned when no points are given.
func BBoxOf(points ...Vec) BBox {
	if len(points) == 0 {
		return BBox{}
	}
	b := BBox{Min: points[0], Max: points[0]}
	for _, p := range points[1:] {
		b.Min = b.Min.Min(p)
		b.Max = b.Max.Max(p)
	}
	return b
}

// FromBox3 converts an sdfx box.
func FromBox3(b sdf.Box3) BBox {
	return BBox{Min: b.Min, Max: b.Max}
}

// Box3 converts the box to its sdfx form.
func (b BBox) Box3() sdf.Box3 {
	return sdf.Box3{Min: b.Min, Max: b.Max}
}

// Size returns the extent of the box on every axis.
func (b BBox) Size() Vec {
	return b.Max.Sub(b.Min)
}

// Center returns the midpoint of the box.
func (b BBox) Center() Vec {
	return b.Min.Add(b.Max).MulScalar(0.5)
}

// ContainsPoint reports whether p lies inside or on the boundary of b.
func (b BBox) ContainsPoint(p Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Contains reports whether o lies entirely inside b. Touching boundaries count.
func (b BBox) Contains(o BBox) bool {
	return o.Min.X >= b.Min.X && o.Max.X <= b.Max.X &&
		o.Min.Y >= b.Min.Y && o.Max.Y <= b.Max.Y &&
		o.Min.Z >= b.Min.Z && o.Max.Z <= b.Max.Z
}

// Intersects reports whether b and o overlap. Touching boundaries count.
func (b BBox) Intersects(o BBox) bool {
	return !(o.Max.X < b.Min.X || o.Min.X > b.Max.X ||
		o.Max.Y < b.Min.Y || o.Min.Y > b.Max.Y ||
		o.Max.Z < b.Min.Z || o.Min.Z > b.Max.Z)
}

// Merge returns the smallest box containing both b and o.
func (b BBox) Merge(o BBox) BBox {
	return FromBox3(b.Box3().Extend(o.Box3()))
}

// Translate returns b moved by v.
func (b BBox) Translate(v Vec) BBox {
	return FromBox3(b.Box3().Translate(v))
}

// Expand grows the box by d on every side.
func (b BBox) Expand(d float64) BBox {
	delta := Vec{X: d, Y: d, Z: d}
	return BBox{Min: b.Min.Sub(delta), Max: b.Max.Add(delta)}
}

// IsDegenerate reports whether the box has zero extent on some axis.
func (b BBox) IsDegenerate() bool {
	s := b.Size()
	return s.X <= 0 || s.Y <= 0 || s.Z <= 0
}

// Transform returns the box enclosing b after transformation by m.
func (b BBox) Transform(m Mat) BBox {
	return FromBox3(m.MulBox(b.Box3()))
}

// Vertices returns the eight corners of the box.
func (b BBox) Vertices() [8]Vec {
	return [8]Vec{
		{X: b.Min.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Min.Z},
		{X: b.Min.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Min.Y, Z: b.Max.Z},
		{X: b.Min.X, Y: b.Max.Y, Z: b.Max.Z},
		{X: b.Max.X, Y: b.Max.Y, Z: b.Max.Z},
	}
}

// Equal reports whether both corners of b and o are within eps.
func (b BBox) Equal(o BBox, eps float64) bool {
	return Equal(b.Min, o.Min, eps) && Equal(b.Max, o.Max, eps)
}

// MergeAll folds boxes together, returning def when the list is empty.
func MergeAll(boxes []BBox, def BBox) BBox {
	if len(boxes) == 0 {
		return def
	}
	out := boxes[0]
	for _, b := range boxes[1:] {
		out = out.Merge(b)
	}
	return out
}

// IntersectRayBBox returns the distance along r at which it enters b. A ray
// whose origin is inside the box hits at distance zero.
func IntersectRayBBox(r Ray, b BBox) (float64, bool) {
	tMin := math.Inf(-1)
	tMax := math.Inf(1)
	origin := [3]float64{r.Origin.X, r.Origin.Y, r.Origin.Z}
	dir := [3]float64{r.Direction.X, r.Direction.Y, r.Direction.Z}
	lo := [3]float64{b.Min.X, b.Min.Y, b.Min.Z}
	hi := [3]float64{b.Max.X, b.Max.Y, b.Max.Z}

	for i := 0; i < 3; i++ {
		if dir[i] == 0 {
			if origin[i] < lo[i] || origin[i] > hi[i] {
				return 0, false
			}
			continue
		}
		t1 := (lo[i] - origin[i]) / dir[i]
		t2 := (hi[i] - origin[i]) / dir[i]
		if t1 > t2 {
			t1, t2 = t2, t1
		}
		tMin = math.Max(tMin, t1)
		tMax = math.Min(tMax, t2)
		if tMin > tMax {
			return 0, false
		}
	}
	if tMax < 0 {
		return 0, false
	}
	if tMin < 0 {
		return 0, true
	}
	return tMin, true
}
