// Package geom holds the small set of vector, box, plane and ray primitives
// shared by the brush, patch and scene packages. Vectors and 4x4 matrices are
// the sdfx types so that models built by the sdfx kernel can be placed into
// the scene without conversion.
package geom

import (
	"math"

	"github.com/deadsy/sdfx/sdf"
	v3 "github.com/deadsy/sdfx/vec/v3"
)

// PointStatusEpsilon is the tolerance used when classifying a point against
// a plane or a box boundary.
const PointStatusEpsilon = 1e-3

// Vec is a point or direction in world space.
type Vec = v3.Vec

// Mat is an affine transformation in world space.
type Mat = sdf.M44

// Axis names one of the three coordinate axes.
type Axis int

const (
	AxisX Axis = iota
	AxisY
	AxisZ
)

func (a Axis) String() string {
	switch a {
	case AxisX:
		return "x"
	case AxisY:
		return "y"
	case AxisZ:
		return "z"
	default:
		return "unknown"
	}
}

// Unit returns the positive unit vector along the axis.
func (a Axis) Unit() Vec {
	switch a {
	case AxisX:
		return Vec{X: 1}
	case AxisY:
		return Vec{Y: 1}
	case AxisZ:
		return Vec{Z: 1}
	}
	panic("geom: invalid axis")
}

// Component returns the coordinate of v along the axis.
func Component(v Vec, a Axis) float64 {
	switch a {
	case AxisX:
		return v.X
	case AxisY:
		return v.Y
	case AxisZ:
		return v.Z
	}
	panic("geom: invalid axis")
}

// Equal reports whether a and b are within eps of each other on every axis.
func Equal(a, b Vec, eps float64) bool {
	return math.Abs(a.X-b.X) <= eps &&
		math.Abs(a.Y-b.Y) <= eps &&
		math.Abs(a.Z-b.Z) <= eps
}

// IsNaN reports whether any component of v is NaN.
func IsNaN(v Vec) bool {
	return math.IsNaN(v.X) || math.IsNaN(v.Y) || math.IsNaN(v.Z)
}

// Identity returns the identity transform.
func Identity() Mat {
	return sdf.Identity3d()
}

// Translation returns a transform that moves points by v.
func Translation(v Vec) Mat {
	return sdf.Translate3d(v)
}

// Scaling returns a uniform scale about the origin.
func Scaling(f float64) Mat {
	return sdf.Scale3d(Vec{X: f, Y: f, Z: f})
}

// RotationZ returns a rotation about the Z axis by the given angle in degrees.
func RotationZ(degrees float64) Mat {
	return sdf.RotateZ(degrees * math.Pi / 180.0)
}

// Invert returns the inverse of m. The second result is false when m is
// singular, in which case the returned matrix must not be used.
func Invert(m Mat) (Mat, bool) {
	det := m.Determinant()
	if math.Abs(det) < 1e-12 || math.IsNaN(det) {
		return Mat{}, false
	}
	return m.Inverse(), true
}

// TransformDirection applies the linear part of m to d.
func TransformDirection(m Mat, d Vec) Vec {
	return m.MulPosition(d).Sub(m.MulPosition(Vec{}))
}
