// Package asset defines the narrow types the scene core consumes from the
// asset system: texture references, entity definitions and visual model
// frames. Loading and rendering these assets happens elsewhere.
package asset

import (
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/go-gl/mathgl/mgl32"
)

// Texture is a reference to a loaded texture. Faces hold a pointer so that a
// texture shared by many faces is compared by identity.
type Texture struct {
	Name   string
	Width  int
	Height int
}

// EntityDefinition describes an entity class from the game configuration.
type EntityDefinition interface {
	DefinitionName() string
	entityDefinition() // marker method restricting implementations to this package
}

// PointEntityDefinition is the definition of an entity without brushes. Its
// bounds are relative to the entity origin.
type PointEntityDefinition struct {
	Name   string
	Bounds geom.BBox
}

func (d *PointEntityDefinition) DefinitionName() string { return d.Name }
func (*PointEntityDefinition) entityDefinition()        {}

// BrushEntityDefinition is the definition of an entity made of brushes.
type BrushEntityDefinition struct {
	Name string
}

func (d *BrushEntityDefinition) DefinitionName() string { return d.Name }
func (*BrushEntityDefinition) entityDefinition()        {}

// Ray32 is a single precision ray in model space.
type Ray32 struct {
	Origin    mgl32.Vec3
	Direction mgl32.Vec3
}

// PointAt returns the point at distance t along the ray.
func (r Ray32) PointAt(t float32) mgl32.Vec3 {
	return r.Origin.Add(r.Direction.Mul(t))
}

// Ray32From narrows a world-space ray to single precision.
func Ray32From(r geom.Ray) Ray32 {
	return Ray32{Origin: Vec3From(r.Origin), Direction: Vec3From(r.Direction)}
}

// Vec3From narrows a world-space vector.
func Vec3From(v geom.Vec) mgl32.Vec3 {
	return mgl32.Vec3{float32(v.X), float32(v.Y), float32(v.Z)}
}

// VecFrom widens a model-space vector.
func VecFrom(v mgl32.Vec3) geom.Vec {
	return geom.Vec{X: float64(v[0]), Y: float64(v[1]), Z: float64(v[2])}
}

// Bounds32 is a model-space bounding box.
type Bounds32 struct {
	Min mgl32.Vec3
	Max mgl32.Vec3
}

// BBox widens the bounds to world precision.
func (b Bounds32) BBox() geom.BBox {
	return geom.BBox{Min: VecFrom(b.Min), Max: VecFrom(b.Max)}
}

// ModelFrame is one frame of a visual model, in model space.
type ModelFrame interface {
	// Bounds returns the model-space bounding box of the frame.
	Bounds() Bounds32
	// Intersect returns the distance along r at which it hits the frame.
	Intersect(r Ray32) (float32, bool)
}
