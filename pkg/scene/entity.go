package scene

import (
	"fmt"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/geom"
)

func (n *Node) entityData() *EntityData {
	d, ok := n.data.(*EntityData)
	if !ok {
		panic(fmt.Sprintf("scene: %s %d is not an entity", n.kind, n.handle))
	}
	return d
}

// Properties returns the properties of an entity or of the world. The list
// must not be modified; use SetProperty.
func (n *Node) Properties() Properties {
	switch d := n.data.(type) {
	case *EntityData:
		return d.Properties
	case *WorldData:
		return d.Properties
	default:
		return nil
	}
}

// SetProperty sets a property of an entity or of the world.
func (n *Node) SetProperty(key, value string) {
	switch d := n.data.(type) {
	case *EntityData:
		d.Properties = d.Properties.Set(key, value)
		n.invalidateBounds()
	case *WorldData:
		d.Properties = d.Properties.Set(key, value)
	default:
		panic(fmt.Sprintf("scene: %s %d has no properties", n.kind, n.handle))
	}
	n.invalidateIssues()
	n.logger().WithField("key", key).Debug("property set")
}

// Classname returns the classname property, or "".
func (n *Node) Classname() string {
	c, _ := n.Properties().Get(PropClassname)
	return c
}

// IsPointEntity reports whether the entity has no children.
func (n *Node) IsPointEntity() bool { return n.entityData().pointEntity }

// Origin returns the entity origin.
func (n *Node) Origin() geom.Vec {
	return n.entityData().Properties.vecProperty(PropOrigin)
}

// SetOrigin stores the origin property.
func (n *Node) SetOrigin(v geom.Vec) { n.SetProperty(PropOrigin, FormatVec(v)) }

// ModelScale returns the modelscale property, 1 when unset.
func (n *Node) ModelScale() float64 {
	props := n.entityData().Properties
	if _, ok := props.Get(PropModelScale); !ok {
		return 1
	}
	return props.floatProperty(PropModelScale)
}

// ModelTransform maps model space to world space: the model scale, then a
// rotation about Z by the angle property, then a translation to the origin.
func (n *Node) ModelTransform() geom.Mat {
	d := n.entityData()
	t := geom.Translation(d.Properties.vecProperty(PropOrigin))
	r := geom.RotationZ(d.Properties.floatProperty(PropAngle))
	return t.Mul(r).Mul(geom.Scaling(n.ModelScale()))
}

// ModelFrame returns the attached model frame, or nil.
func (n *Node) ModelFrame() asset.ModelFrame { return n.entityData().Model }

// SetModelFrame attaches a model frame and returns the previous one.
func (n *Node) SetModelFrame(frame asset.ModelFrame) asset.ModelFrame {
	d := n.entityData()
	old := d.Model
	d.Model = frame
	n.invalidateBounds()
	n.logger().WithField("model", frame != nil).Debug("model frame set")
	return old
}

// Definition returns the entity definition, or nil.
func (n *Node) Definition() asset.EntityDefinition { return n.entityData().Definition }

// SetDefinition assigns the entity definition and returns the previous one.
func (n *Node) SetDefinition(def asset.EntityDefinition) asset.EntityDefinition {
	d := n.entityData()
	old := d.Definition
	d.Definition = def
	n.invalidateBounds()
	n.invalidateIssues()
	return old
}

// ModelBounds returns the world-space box of the attached model, or of the
// default entity box when no model is attached.
func (n *Node) ModelBounds() geom.BBox { return n.validBounds().model }

func (n *Node) modelBounds(d *EntityData) geom.BBox {
	if d.Model != nil {
		return d.Model.Bounds().BBox().Transform(n.ModelTransform())
	}
	return n.scene.defaultBounds.Transform(n.ModelTransform())
}

// definitionBounds returns the point definition bounds, or the default box,
// moved to the origin.
func (n *Node) definitionBounds(d *EntityData) geom.BBox {
	origin := d.Properties.vecProperty(PropOrigin)
	if pd, ok := d.Definition.(*asset.PointEntityDefinition); ok {
		return pd.Bounds.Translate(origin)
	}
	return n.scene.defaultBounds.Translate(origin)
}
