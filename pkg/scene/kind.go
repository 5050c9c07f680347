package scene

import (
	"strconv"
	"strings"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/brush"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/patch"
	"github.com/samber/lo"
)

// Kind classifies a node. It is fixed when the node is created.
type Kind int

const (
	KindWorld  Kind = iota // root of the tree
	KindLayer              // editor layer, child of the world
	KindGroup              // named group of nodes
	KindEntity             // point entity, or brush entity when it has children
	KindBrush              // convex solid
	KindPatch              // bezier surface
)

func (k Kind) String() string {
	switch k {
	case KindWorld:
		return "world"
	case KindLayer:
		return "layer"
	case KindGroup:
		return "group"
	case KindEntity:
		return "entity"
	case KindBrush:
		return "brush"
	case KindPatch:
		return "patch"
	default:
		return "unknown"
	}
}

// NodeData is the interface for kind-specific node payloads.
type NodeData interface {
	nodeData() // marker method restricting implementations to this package
}

// ---------------------------------------------------------------------------
// Properties
// ---------------------------------------------------------------------------

// Well-known property keys.
const (
	PropClassname  = "classname"
	PropOrigin     = "origin"
	PropAngle      = "angle"
	PropModelScale = "modelscale"
	PropMods       = "_tb_mod"

	WorldspawnClassname = "worldspawn"
)

// Property is a single key/value pair of an entity.
type Property struct {
	Key   string
	Value string
}

// Properties is an ordered property list. Keys are unique.
type Properties []Property

// Get returns the value stored under key.
func (p Properties) Get(key string) (string, bool) {
	prop, ok := lo.Find(p, func(q Property) bool { return q.Key == key })
	return prop.Value, ok
}

// Set replaces the value under key, appending the key when it is new.
func (p Properties) Set(key, value string) Properties {
	for i := range p {
		if p[i].Key == key {
			p[i].Value = value
			return p
		}
	}
	return append(p, Property{Key: key, Value: value})
}

// Clone returns an independent copy.
func (p Properties) Clone() Properties {
	return append(Properties(nil), p...)
}

// vecProperty parses a "x y z" value. Malformed values yield the zero vector.
func (p Properties) vecProperty(key string) geom.Vec {
	s, ok := p.Get(key)
	if !ok {
		return geom.Vec{}
	}
	fields := strings.Fields(s)
	if len(fields) != 3 {
		return geom.Vec{}
	}
	var c [3]float64
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return geom.Vec{}
		}
		c[i] = v
	}
	return geom.Vec{X: c[0], Y: c[1], Z: c[2]}
}

func (p Properties) floatProperty(key string) float64 {
	s, ok := p.Get(key)
	if !ok {
		return 0
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0
	}
	return v
}

// FormatVec renders v the way origin properties are stored.
func FormatVec(v geom.Vec) string {
	f := func(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }
	return f(v.X) + " " + f(v.Y) + " " + f(v.Z)
}

// ---------------------------------------------------------------------------
// Payloads
// ---------------------------------------------------------------------------

// WorldData holds the worldspawn properties.
type WorldData struct {
	Properties Properties
}

func (*WorldData) nodeData() {}

// LayerData is the payload of a layer.
type LayerData struct {
	Name string
}

func (*LayerData) nodeData() {}

// GroupData is the payload of a group.
type GroupData struct {
	Name string
}

func (*GroupData) nodeData() {}

// EntityData is the payload of an entity. Definition and Model are optional.
type EntityData struct {
	Properties Properties
	Definition asset.EntityDefinition
	Model      asset.ModelFrame

	pointEntity bool
}

func (*EntityData) nodeData() {}

// VertexCache is notified when the renderable geometry of a brush changes.
type VertexCache interface {
	InvalidateVertexCache()
}

// BrushData is the payload of a brush node.
type BrushData struct {
	Brush       *brush.Brush
	VertexCache VertexCache

	selectedFaces int
}

func (*BrushData) nodeData() {}

// PatchData is the payload of a patch node. Grid is evaluated from Surface
// when the node is created or the surface replaced.
type PatchData struct {
	Surface patch.Surface
	Grid    patch.Grid
}

func (*PatchData) nodeData() {}

// ---------------------------------------------------------------------------
// Dispatch
// ---------------------------------------------------------------------------

// Visitor holds one function per node kind. Nil functions yield the zero T.
type Visitor[T any] struct {
	World  func(*Node, *WorldData) T
	Layer  func(*Node, *LayerData) T
	Group  func(*Node, *GroupData) T
	Entity func(*Node, *EntityData) T
	Brush  func(*Node, *BrushData) T
	Patch  func(*Node, *PatchData) T
}

// Visit calls the function of v matching the kind of n.
func Visit[T any](n *Node, v Visitor[T]) T {
	var zero T
	switch n.kind {
	case KindWorld:
		if v.World != nil {
			return v.World(n, n.data.(*WorldData))
		}
	case KindLayer:
		if v.Layer != nil {
			return v.Layer(n, n.data.(*LayerData))
		}
	case KindGroup:
		if v.Group != nil {
			return v.Group(n, n.data.(*GroupData))
		}
	case KindEntity:
		if v.Entity != nil {
			return v.Entity(n, n.data.(*EntityData))
		}
	case KindBrush:
		if v.Brush != nil {
			return v.Brush(n, n.data.(*BrushData))
		}
	case KindPatch:
		if v.Patch != nil {
			return v.Patch(n, n.data.(*PatchData))
		}
	default:
		panic("scene: unknown node kind " + strconv.Itoa(int(n.kind)))
	}
	return zero
}
