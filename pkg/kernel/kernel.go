// Package kernel defines the solid modelling interface used to build visual
// models for point entities. A Solid is also an asset.ModelFrame, so a solid
// built by a kernel can be attached to an entity and picked directly.
package kernel

import (
	"errors"

	"github.com/chazu/mapcore/pkg/asset"
)

// ErrForeignSolid is returned when a kernel is handed a model frame it did
// not build.
var ErrForeignSolid = errors.New("solid was not built by this kernel")

// Solid is an opaque handle to a kernel solid in model space.
type Solid interface {
	asset.ModelFrame
}

// Kernel builds and combines solids.
type Kernel interface {
	// Primitives, centred on the model origin.
	Box(x, y, z float64) Solid
	Cylinder(height, radius float64) Solid

	// Boolean operations and transforms panic on solids from another kernel.
	Union(a, b Solid) Solid
	Difference(a, b Solid) Solid
	Intersection(a, b Solid) Solid

	Translate(s Solid, x, y, z float64) Solid
	Rotate(s Solid, x, y, z float64) Solid // Euler angles in degrees

	// Mesh output. Foreign solids give ErrForeignSolid.
	ToMesh(s Solid) (*Mesh, error)
}
