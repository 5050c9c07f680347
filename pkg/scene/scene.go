// Package scene implements the node tree of a map: a world containing layers,
// groups, entities, brushes and patches. Nodes live in an arena owned by a
// Scene and refer to each other by Handle. Each node caches its bounds and
// invalidates the caches of its ancestors when its geometry changes.
//
// A Scene is not safe for concurrent use.
package scene

import (
	"fmt"

	"github.com/chazu/mapcore/pkg/brush"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/patch"
	"github.com/chazu/mapcore/pkg/tag"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// DefaultEntitySize is the edge length of the box used for entities that have
// neither a model nor definition bounds.
const DefaultEntitySize = 16.0

// DefaultLayerName is the name of the layer every scene starts with.
const DefaultLayerName = "Default Layer"

// Handle addresses a node in its scene's arena. Handles are never reused.
type Handle int

// NoHandle is the parent handle of the world and of detached nodes.
const NoHandle Handle = -1

// Stats counts work done by the scene's caches.
type Stats struct {
	BoundsRecomputes int
	IndexUpdates     int
}

// Scene owns all nodes of a map.
type Scene struct {
	nodes         []*Node
	world         Handle
	defaultLayer  Handle
	defaultBounds geom.BBox
	validators    []Validator
	index         *SpatialIndex
	log           log.FieldLogger
	stats         Stats
}

// Option configures a Scene.
type Option func(*Scene)

// WithLogger sets the logger used for mutation events.
func WithLogger(l log.FieldLogger) Option {
	return func(s *Scene) { s.log = l }
}

// WithDefaultEntitySize sets the edge length of the default entity box.
func WithDefaultEntitySize(size float64) Option {
	return func(s *Scene) { s.defaultBounds = geom.CubeBBox(size / 2) }
}

// WithIndexMaxChildren sets the branching factor of the spatial index.
func WithIndexMaxChildren(n int) Option {
	return func(s *Scene) { s.index = newSpatialIndex(n) }
}

// New returns a scene holding a world and its default layer.
func New(opts ...Option) *Scene {
	s := &Scene{
		defaultBounds: geom.CubeBBox(DefaultEntitySize / 2),
		log:           log.StandardLogger(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.index == nil {
		s.index = newSpatialIndex(defaultIndexMaxChildren)
	}
	world := s.alloc(KindWorld, &WorldData{
		Properties: Properties{{Key: PropClassname, Value: WorldspawnClassname}},
	})
	s.world = world.handle
	layer := s.NewLayer(DefaultLayerName)
	world.AddChild(layer)
	s.defaultLayer = layer.handle
	return s
}

func (s *Scene) alloc(kind Kind, data NodeData) *Node {
	n := &Node{
		scene:  s,
		handle: Handle(len(s.nodes)),
		kind:   kind,
		parent: NoHandle,
		linkID: uuid.NewString(),
		data:   data,
	}
	s.nodes = append(s.nodes, n)
	return n
}

// World returns the root node.
func (s *Scene) World() *Node { return s.nodes[s.world] }

// DefaultLayer returns the layer created with the scene.
func (s *Scene) DefaultLayer() *Node { return s.nodes[s.defaultLayer] }

// Node returns the node for h, or nil when h was deleted or never existed.
func (s *Scene) Node(h Handle) *Node {
	if h < 0 || int(h) >= len(s.nodes) {
		return nil
	}
	return s.nodes[h]
}

// Stats returns the cache counters.
func (s *Scene) Stats() Stats { return s.stats }

// DefaultEntityBounds returns the box used for entities without model or
// definition bounds, relative to the entity origin.
func (s *Scene) DefaultEntityBounds() geom.BBox { return s.defaultBounds }

// NewLayer creates a detached layer.
func (s *Scene) NewLayer(name string) *Node {
	return s.alloc(KindLayer, &LayerData{Name: name})
}

// NewGroup creates a detached group.
func (s *Scene) NewGroup(name string) *Node {
	return s.alloc(KindGroup, &GroupData{Name: name})
}

// NewEntity creates a detached point entity with the given properties.
func (s *Scene) NewEntity(props Properties) *Node {
	return s.alloc(KindEntity, &EntityData{Properties: props.Clone(), pointEntity: true})
}

// NewBrush creates a detached brush node.
func (s *Scene) NewBrush(b *brush.Brush) *Node {
	return s.alloc(KindBrush, &BrushData{Brush: b, selectedFaces: b.SelectedFaceCount()})
}

// NewPatch creates a detached patch node, sampling the surface at the given
// subdivision level (see patch.Surface.Evaluate).
func (s *Scene) NewPatch(surface patch.Surface, subdivisions int) *Node {
	return s.alloc(KindPatch, &PatchData{Surface: surface, Grid: surface.Evaluate(subdivisions)})
}

// NewPatchFromGrid creates a detached patch node from an already sampled grid.
func (s *Scene) NewPatchFromGrid(g patch.Grid) *Node {
	return s.alloc(KindPatch, &PatchData{Grid: g})
}

// Delete detaches n and frees it and its descendants. Handles to them become
// invalid.
func (s *Scene) Delete(n *Node) {
	if n.handle == s.world || n.handle == s.defaultLayer {
		panic(fmt.Sprintf("scene: cannot delete %s %d", n.kind, n.handle))
	}
	if p := n.Parent(); p != nil {
		p.RemoveChild(n)
	}
	n.walk(func(c *Node) bool {
		s.index.remove(c.handle)
		s.nodes[c.handle] = nil
		return true
	})
}

// Walk visits the world and its descendants depth first, parents before
// children. Returning false from fn skips the node's children.
func (s *Scene) Walk(fn func(*Node) bool) {
	s.World().walk(fn)
}

// ---------------------------------------------------------------------------
// Node
// ---------------------------------------------------------------------------

// Node is an element of the scene tree.
type Node struct {
	scene    *Scene
	handle   Handle
	kind     Kind
	parent   Handle
	children []Handle
	linkID   string
	selected bool
	data     NodeData
	tag.Taggable

	// bounds is nil while dirty.
	bounds *boundsCache
	// issues is nil until validated.
	issues []Issue
}

// Handle returns the node's handle.
func (n *Node) Handle() Handle { return n.handle }

// Kind returns the node's classification.
func (n *Node) Kind() Kind { return n.kind }

// Data returns the kind-specific payload.
func (n *Node) Data() NodeData { return n.data }

// Scene returns the scene owning the node.
func (n *Node) Scene() *Scene { return n.scene }

// LinkID returns the identifier shared by linked copies of a node.
func (n *Node) LinkID() string { return n.linkID }

// Parent returns the parent node, or nil for the world and detached nodes.
func (n *Node) Parent() *Node {
	if n.parent == NoHandle {
		return nil
	}
	return n.scene.nodes[n.parent]
}

// Children returns the child nodes in insertion order.
func (n *Node) Children() []*Node {
	out := make([]*Node, len(n.children))
	for i, h := range n.children {
		out[i] = n.scene.nodes[h]
	}
	return out
}

// HasChildren reports whether the node has any children.
func (n *Node) HasChildren() bool { return len(n.children) > 0 }

// Attached reports whether the node is reachable from the world.
func (n *Node) Attached() bool {
	cur := n
	for cur.parent != NoHandle {
		cur = cur.scene.nodes[cur.parent]
	}
	return cur.kind == KindWorld
}

func (n *Node) walk(fn func(*Node) bool) {
	if !fn(n) {
		return
	}
	for _, h := range n.children {
		n.scene.nodes[h].walk(fn)
	}
}

// isAncestorOf reports whether n is o or one of o's ancestors.
func (n *Node) isAncestorOf(o *Node) bool {
	for cur := o; cur != nil; cur = cur.Parent() {
		if cur == n {
			return true
		}
	}
	return false
}

func (n *Node) logger() log.FieldLogger {
	return n.scene.log.WithFields(log.Fields{"node": n.handle, "kind": n.kind.String()})
}

// Name returns a display name for the node.
func (n *Node) Name() string {
	return Visit(n, Visitor[string]{
		World: func(*Node, *WorldData) string { return "world" },
		Layer: func(_ *Node, d *LayerData) string { return d.Name },
		Group: func(_ *Node, d *GroupData) string { return d.Name },
		Entity: func(_ *Node, d *EntityData) string {
			if d.Definition != nil {
				return d.Definition.DefinitionName()
			}
			if c, ok := d.Properties.Get(PropClassname); ok {
				return c
			}
			return "<missing classname>"
		},
		Brush: func(*Node, *BrushData) string { return "brush" },
		Patch: func(*Node, *PatchData) string { return "patch" },
	})
}

// ---------------------------------------------------------------------------
// Structure rules
// ---------------------------------------------------------------------------

// CanAddChild reports whether child may be added to n. Callers must check this
// before calling AddChild.
func (n *Node) CanAddChild(child *Node) bool {
	if child == nil || child.scene != n.scene || child.parent != NoHandle || child.isAncestorOf(n) {
		return false
	}
	switch n.kind {
	case KindWorld:
		return child.kind == KindLayer
	case KindLayer, KindGroup:
		return child.kind == KindGroup || child.kind == KindEntity ||
			child.kind == KindBrush || child.kind == KindPatch
	case KindEntity:
		return child.kind == KindBrush || child.kind == KindPatch
	case KindBrush, KindPatch:
		return false
	default:
		panic(fmt.Sprintf("scene: unknown node kind %d", n.kind))
	}
}

// CanRemoveChild reports whether child may be removed from n.
func (n *Node) CanRemoveChild(child *Node) bool {
	if child == nil || child.parent != n.handle {
		return false
	}
	switch n.kind {
	case KindWorld:
		return child.handle != n.scene.defaultLayer
	case KindLayer, KindGroup, KindEntity:
		return true
	case KindBrush, KindPatch:
		return false
	default:
		panic(fmt.Sprintf("scene: unknown node kind %d", n.kind))
	}
}

// RemoveIfEmpty reports whether the node should be deleted once its last child
// is removed.
func (n *Node) RemoveIfEmpty() bool {
	switch n.kind {
	case KindGroup, KindEntity:
		return true
	case KindWorld, KindLayer, KindBrush, KindPatch:
		return false
	default:
		panic(fmt.Sprintf("scene: unknown node kind %d", n.kind))
	}
}

// ShouldAddToSpatialIndex reports whether the node is a leaf of spatial
// queries.
func (n *Node) ShouldAddToSpatialIndex() bool {
	switch n.kind {
	case KindEntity, KindBrush, KindPatch:
		return true
	case KindWorld, KindLayer, KindGroup:
		return false
	default:
		panic(fmt.Sprintf("scene: unknown node kind %d", n.kind))
	}
}

// Selectable reports whether the node can be selected by the user.
func (n *Node) Selectable() bool {
	switch n.kind {
	case KindGroup, KindBrush, KindPatch:
		return true
	case KindEntity:
		return !n.HasChildren()
	case KindWorld, KindLayer:
		return false
	default:
		panic(fmt.Sprintf("scene: unknown node kind %d", n.kind))
	}
}

// Selected reports the node selection flag.
func (n *Node) Selected() bool { return n.selected }

// Select marks the node selected. It panics when the node is not selectable.
func (n *Node) Select() {
	if !n.Selectable() {
		panic(fmt.Sprintf("scene: %s %d is not selectable", n.kind, n.handle))
	}
	n.selected = true
}

// Deselect clears the selection flag.
func (n *Node) Deselect() { n.selected = false }

// AddChild appends child to n's children. It panics when CanAddChild refuses.
func (n *Node) AddChild(child *Node) {
	if !n.CanAddChild(child) {
		panic(fmt.Sprintf("scene: %s %d cannot accept %s %d", n.kind, n.handle, child.kind, child.handle))
	}
	n.children = append(n.children, child.handle)
	child.parent = n.handle
	n.childrenDidChange()
	if n.Attached() {
		child.walk(func(c *Node) bool {
			n.scene.index.markDirty(c)
			return true
		})
	}
	n.logger().WithField("child", child.handle).Debug("child added")
}

// RemoveChild detaches child from n. It panics when CanRemoveChild refuses.
func (n *Node) RemoveChild(child *Node) {
	if !n.CanRemoveChild(child) {
		panic(fmt.Sprintf("scene: %s %d cannot remove %s %d", n.kind, n.handle, child.kind, child.handle))
	}
	for i, h := range n.children {
		if h == child.handle {
			n.children = append(n.children[:i], n.children[i+1:]...)
			break
		}
	}
	child.parent = NoHandle
	child.walk(func(c *Node) bool {
		n.scene.index.remove(c.handle)
		return true
	})
	n.childrenDidChange()
	n.logger().WithField("child", child.handle).Debug("child removed")
}

func (n *Node) childrenDidChange() {
	if d, ok := n.data.(*EntityData); ok {
		d.pointEntity = len(n.children) == 0
	}
	n.invalidateBounds()
}

// ---------------------------------------------------------------------------
// Containers
// ---------------------------------------------------------------------------

// ContainingLayer returns the nearest layer ancestor, or nil.
func (n *Node) ContainingLayer() *Node {
	return n.nearestAncestor(func(a *Node) bool { return a.kind == KindLayer })
}

// ContainingGroup returns the nearest group ancestor, or nil.
func (n *Node) ContainingGroup() *Node {
	return n.nearestAncestor(func(a *Node) bool { return a.kind == KindGroup })
}

// Entity returns the entity a brush or patch belongs to: its entity parent, or
// the world when it sits in a layer or group.
func (n *Node) Entity() *Node {
	return n.nearestAncestor(func(a *Node) bool { return a.kind == KindEntity || a.kind == KindWorld })
}

func (n *Node) nearestAncestor(match func(*Node) bool) *Node {
	for cur := n.Parent(); cur != nil; cur = cur.Parent() {
		if match(cur) {
			return cur
		}
	}
	return nil
}

// NodesRequiredForViewSelection returns the nodes to select when the user
// selects n in a view: the brushes of a brush entity, otherwise n itself.
func (n *Node) NodesRequiredForViewSelection() []*Node {
	if n.kind == KindEntity && n.HasChildren() {
		return n.Children()
	}
	return []*Node{n}
}

// ---------------------------------------------------------------------------
// Clone
// ---------------------------------------------------------------------------

// LinkIDPolicy decides the link id of cloned nodes.
type LinkIDPolicy int

const (
	LinkIDKeep  LinkIDPolicy = iota // clone shares the original's link id
	LinkIDFresh                     // clone receives a new link id
)

// Clone returns a detached deep copy of n and its descendants. Selection is
// not copied.
func (n *Node) Clone(policy LinkIDPolicy) *Node {
	s := n.scene
	c := s.alloc(n.kind, cloneData(n.data))
	if policy == LinkIDKeep {
		c.linkID = n.linkID
	}
	c.Taggable = n.Taggable
	for _, child := range n.Children() {
		cc := child.Clone(policy)
		c.children = append(c.children, cc.handle)
		cc.parent = c.handle
	}
	return c
}

func cloneData(d NodeData) NodeData {
	switch d := d.(type) {
	case *WorldData:
		return &WorldData{Properties: d.Properties.Clone()}
	case *LayerData:
		return &LayerData{Name: d.Name}
	case *GroupData:
		return &GroupData{Name: d.Name}
	case *EntityData:
		return &EntityData{
			Properties:  d.Properties.Clone(),
			Definition:  d.Definition,
			Model:       d.Model,
			pointEntity: d.pointEntity,
		}
	case *BrushData:
		b := d.Brush.Clone()
		return &BrushData{Brush: b, selectedFaces: b.SelectedFaceCount()}
	case *PatchData:
		return &PatchData{
			Surface: patch.Surface{
				Rows:    d.Surface.Rows,
				Cols:    d.Surface.Cols,
				Control: append([]geom.Vec(nil), d.Surface.Control...),
				Texture: d.Surface.Texture,
			},
			Grid: patch.Grid{
				PointRowCount:    d.Grid.PointRowCount,
				PointColumnCount: d.Grid.PointColumnCount,
				Points:           append([]patch.Point(nil), d.Grid.Points...),
				Bounds:           d.Grid.Bounds,
			},
		}
	default:
		panic(fmt.Sprintf("scene: unknown node data %T", d))
	}
}

// ---------------------------------------------------------------------------
// Link anchors
// ---------------------------------------------------------------------------

// LinkSourceAnchor returns the point entity links start from.
func (n *Node) LinkSourceAnchor() geom.Vec { return n.LogicalBounds().Center() }

// LinkTargetAnchor returns the point entity links end at.
func (n *Node) LinkTargetAnchor() geom.Vec { return n.LogicalBounds().Center() }
