// Package tag implements classification bits attached to scene nodes and
// brush faces. A Manager owns the mapping from tag identity to the rule that
// decides whether a subject carries the tag; a Taggable stores the resulting
// bitmask and is recomputed on demand.
package tag

import (
	"fmt"
	"math/bits"

	"github.com/samber/lo"
)

// Type is a bitmask of tags.
type Type uint64

const (
	// NoType has no bits set.
	NoType Type = 0
	// AnyType has every bit set.
	AnyType Type = ^Type(0)
)

// MaxTags is the number of distinct tags a Manager can register.
const MaxTags = 64

// Tag is a named classification bit.
type Tag struct {
	Name  string
	Index uint
}

// Type returns the single-bit mask for the tag.
func (t Tag) Type() Type {
	return Type(1) << t.Index
}

// Matcher decides whether a subject (a *brush.Face, a *scene.Node, ...) carries
// a tag. Matchers must be pure functions of the subject.
type Matcher func(subject any) bool

type rule struct {
	tag   Tag
	match Matcher
}

// Manager owns the registered tags and their matchers.
type Manager struct {
	rules []rule
}

// NewManager returns an empty manager.
func NewManager() *Manager {
	return &Manager{}
}

// Register adds a tag with the given matcher. Tags receive consecutive bit
// indexes in registration order.
func (m *Manager) Register(name string, match Matcher) (Tag, error) {
	if len(m.rules) >= MaxTags {
		return Tag{}, fmt.Errorf("tag: cannot register %q: limit of %d tags reached", name, MaxTags)
	}
	if lo.ContainsBy(m.rules, func(r rule) bool { return r.tag.Name == name }) {
		return Tag{}, fmt.Errorf("tag: %q already registered", name)
	}
	t := Tag{Name: name, Index: uint(len(m.rules))}
	m.rules = append(m.rules, rule{tag: t, match: match})
	return t, nil
}

// Tags returns the registered tags in registration order.
func (m *Manager) Tags() []Tag {
	return lo.Map(m.rules, func(r rule, _ int) Tag { return r.tag })
}

// Lookup returns the tag registered under name.
func (m *Manager) Lookup(name string) (Tag, bool) {
	r, ok := lo.Find(m.rules, func(r rule) bool { return r.tag.Name == name })
	return r.tag, ok
}

// Evaluate returns the mask of all tags whose matcher accepts the subject.
func (m *Manager) Evaluate(subject any) Type {
	var mask Type
	for _, r := range m.rules {
		if r.match(subject) {
			mask |= r.tag.Type()
		}
	}
	return mask
}

// Taggable stores a tag mask. The zero value carries no tags.
type Taggable struct {
	mask Type
}

// TagMask returns the current mask.
func (t *Taggable) TagMask() Type {
	return t.mask
}

// HasAnyTag reports whether any bit is set.
func (t *Taggable) HasAnyTag() bool {
	return t.mask != NoType
}

// HasTag reports whether any bit of mask is set.
func (t *Taggable) HasTag(mask Type) bool {
	return t.mask&mask != NoType
}

// TagCount returns the number of set bits.
func (t *Taggable) TagCount() int {
	return bits.OnesCount64(uint64(t.mask))
}

// AddTag sets the tag's bit.
func (t *Taggable) AddTag(tg Tag) {
	t.mask |= tg.Type()
}

// RemoveTag clears the tag's bit.
func (t *Taggable) RemoveTag(tg Tag) {
	t.mask &^= tg.Type()
}

// InitializeTags clears the mask and evaluates every rule against subject.
func (t *Taggable) InitializeTags(m *Manager, subject any) {
	t.ClearTags()
	t.UpdateTags(m, subject)
}

// UpdateTags replaces the mask with the manager's evaluation of subject.
func (t *Taggable) UpdateTags(m *Manager, subject any) {
	t.mask = m.Evaluate(subject)
}

// ClearTags removes all tags.
func (t *Taggable) ClearTags() {
	t.mask = NoType
}

// Shared returns the bitwise AND over all masks, AnyType for no masks.
func Shared(masks []Type) Type {
	return lo.Reduce(masks, func(acc Type, m Type, _ int) Type { return acc & m }, AnyType)
}

// Combined returns the bitwise OR over all masks.
func Combined(masks []Type) Type {
	return lo.Reduce(masks, func(acc Type, m Type, _ int) Type { return acc | m }, NoType)
}
