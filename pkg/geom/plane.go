package geom

import "math"

// Ray is a half-line. Direction need not be normalized; distances returned by
// intersection routines are measured in multiples of Direction.
type Ray struct {
	Origin    Vec
	Direction Vec
}

// PointAt returns the point at distance t along the ray.
func (r Ray) PointAt(t float64) Vec {
	return r.Origin.Add(r.Direction.MulScalar(t))
}

// Transform returns the ray transformed by m.
func (r Ray) Transform(m Mat) Ray {
	return Ray{
		Origin:    m.MulPosition(r.Origin),
		Direction: TransformDirection(m, r.Direction),
	}
}

// PointStatus classifies a point relative to a plane.
type PointStatus int

const (
	Below PointStatus = iota
	Inside
	Above
)

// Plane is the set of points p with Normal·p == Distance. Normal is unit length
// and points to the "above" side.
type Plane struct {
	Normal   Vec
	Distance float64
}

// PlaneFromPolygon computes the plane of a planar polygon using Newell's
// method. The normal follows the counter-clockwise winding of the vertices.
func PlaneFromPolygon(vertices []Vec) (Plane, bool) {
	if len(vertices) < 3 {
		return Plane{}, false
	}
	var n Vec
	var centroid Vec
	for i, cur := range vertices {
		next := vertices[(i+1)%len(vertices)]
		n.X += (cur.Y - next.Y) * (cur.Z + next.Z)
		n.Y += (cur.Z - next.Z) * (cur.X + next.X)
		n.Z += (cur.X - next.X) * (cur.Y + next.Y)
		centroid = centroid.Add(cur)
	}
	length := n.Length()
	if length < 1e-12 {
		return Plane{}, false
	}
	n = n.DivScalar(length)
	centroid = centroid.DivScalar(float64(len(vertices)))
	return Plane{Normal: n, Distance: n.Dot(centroid)}, true
}

// PointDistance returns the signed distance of p above the plane.
func (p Plane) PointDistance(v Vec) float64 {
	return p.Normal.Dot(v) - p.Distance
}

// PointStatus classifies v using the given tolerance.
func (p Plane) PointStatus(v Vec, eps float64) PointStatus {
	d := p.PointDistance(v)
	switch {
	case d > eps:
		return Above
	case d < -eps:
		return Below
	default:
		return Inside
	}
}

// IntersectRay returns the distance along r at which it crosses the plane.
// Rays parallel to the plane and crossings behind the origin report no hit.
func (p Plane) IntersectRay(r Ray) (float64, bool) {
	d := p.Normal.Dot(r.Direction)
	if math.Abs(d) < 1e-12 {
		return 0, false
	}
	t := (p.Distance - p.Normal.Dot(r.Origin)) / d
	if t < 0 {
		return 0, false
	}
	return t, true
}

// PolygonContainsPoint reports whether v, assumed to lie on the polygon's
// plane, is inside or on the boundary of the convex polygon.
func PolygonContainsPoint(normal Vec, vertices []Vec, v Vec, eps float64) bool {
	for i, cur := range vertices {
		next := vertices[(i+1)%len(vertices)]
		edge := next.Sub(cur)
		if edge.Cross(v.Sub(cur)).Dot(normal) < -eps*edge.Length() {
			return false
		}
	}
	return true
}

// IntersectRayPolygon returns the distance along r to the convex polygon.
func IntersectRayPolygon(r Ray, plane Plane, vertices []Vec) (float64, bool) {
	t, ok := plane.IntersectRay(r)
	if !ok {
		return 0, false
	}
	if !PolygonContainsPoint(plane.Normal, vertices, r.PointAt(t), PointStatusEpsilon) {
		return 0, false
	}
	return t, true
}

// IntersectRayTriangle returns the distance along r to the triangle (a, b, c)
// using the Möller–Trumbore test. Both sides of the triangle are hit.
func IntersectRayTriangle(r Ray, a, b, c Vec) (float64, bool) {
	e1 := b.Sub(a)
	e2 := c.Sub(a)
	pv := r.Direction.Cross(e2)
	det := e1.Dot(pv)
	if math.Abs(det) < 1e-12 {
		return 0, false
	}
	inv := 1.0 / det
	tv := r.Origin.Sub(a)
	u := tv.Dot(pv) * inv
	if u < 0 || u > 1 {
		return 0, false
	}
	qv := tv.Cross(e1)
	v := r.Direction.Dot(qv) * inv
	if v < 0 || u+v > 1 {
		return 0, false
	}
	t := e2.Dot(qv) * inv
	if t < 0 {
		return 0, false
	}
	return t, true
}

// ProjectedPolygonArea returns the area of the polygon projected onto the
// plane orthogonal to the axis.
func ProjectedPolygonArea(vertices []Vec, axis Axis) float64 {
	var sum Vec
	for i, cur := range vertices {
		next := vertices[(i+1)%len(vertices)]
		sum = sum.Add(cur.Cross(next))
	}
	return math.Abs(Component(sum, axis)) / 2
}
