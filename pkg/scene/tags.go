package scene

import (
	"path"

	"github.com/chazu/mapcore/pkg/tag"
)

// InitializeTags evaluates the node's tags and then, for brushes, the tags of
// every face in stored order.
func (n *Node) InitializeTags(m *tag.Manager) {
	n.Taggable.InitializeTags(m, n)
	if b := n.Brush(); b != nil {
		b.InitializeTags(m)
	}
}

// UpdateTags recomputes face tags in stored order, then the node's own tags.
func (n *Node) UpdateTags(m *tag.Manager) {
	if b := n.Brush(); b != nil {
		b.UpdateTags(m)
	}
	n.Taggable.UpdateTags(m, n)
}

// ClearTags removes all face tags, then the node's own tags.
func (n *Node) ClearTags() {
	if b := n.Brush(); b != nil {
		b.ClearTags()
	}
	n.Taggable.ClearTags()
}

// AnyFaceHasAnyTag reports whether some face of a brush node carries a tag.
func (n *Node) AnyFaceHasAnyTag() bool {
	b := n.Brush()
	return b != nil && b.AnyFaceHasAnyTag()
}

// AllFacesHaveAnyTagInMask reports whether some tag in mask is carried by
// every face of a brush node.
func (n *Node) AllFacesHaveAnyTagInMask(mask tag.Type) bool {
	b := n.Brush()
	return b != nil && b.AllFacesHaveAnyTagInMask(mask)
}

// AnyFacesHaveAnyTagInMask reports whether some face of a brush node carries
// a tag in mask.
func (n *Node) AnyFacesHaveAnyTagInMask(mask tag.Type) bool {
	b := n.Brush()
	return b != nil && b.AnyFacesHaveAnyTagInMask(mask)
}

// InitializeTags initializes the tags of every node in the scene.
func (s *Scene) InitializeTags(m *tag.Manager) {
	s.Walk(func(n *Node) bool {
		n.InitializeTags(m)
		return true
	})
}

// ClassnameMatcher returns a tag matcher accepting entities, and brushes or
// patches of entities, whose classname matches the glob pattern.
func ClassnameMatcher(pattern string) tag.Matcher {
	return func(subject any) bool {
		n, ok := subject.(*Node)
		if !ok {
			return false
		}
		switch n.kind {
		case KindBrush, KindPatch:
			n = n.Entity()
			if n == nil || n.kind != KindEntity {
				return false
			}
		case KindEntity:
		default:
			return false
		}
		matched, err := path.Match(pattern, n.Classname())
		return err == nil && matched
	}
}
