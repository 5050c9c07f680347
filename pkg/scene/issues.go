package scene

import (
	"fmt"
	"slices"
	"strings"
)

// IssueSeverity indicates whether an issue must be fixed before the map
// compiles or is merely informational.
type IssueSeverity int

const (
	SeverityError   IssueSeverity = iota // map will not compile
	SeverityWarning                      // informational
)

func (s IssueSeverity) String() string {
	switch s {
	case SeverityError:
		return "error"
	case SeverityWarning:
		return "warning"
	default:
		return fmt.Sprintf("IssueSeverity(%d)", int(s))
	}
}

// IssueType identifies the validator that reported an issue.
type IssueType int

const (
	IssueMissingDefinition IssueType = iota
	IssueMissingMod
	IssuePropertyValueWithDoubleQuotes
)

// Issue describes a single validation finding.
type Issue struct {
	Node     Handle
	Type     IssueType
	Message  string
	Severity IssueSeverity
}

func (i Issue) Error() string {
	return fmt.Sprintf("[%s] node %d: %s", i.Severity, i.Node, i.Message)
}

// Validator inspects one node and reports its issues. Validators only read
// the scene.
type Validator interface {
	Validate(n *Node) []Issue
}

// SetValidators replaces the validators and drops every cached issue list.
func (s *Scene) SetValidators(vs ...Validator) {
	s.validators = vs
	for _, n := range s.nodes {
		if n != nil {
			n.issues = nil
		}
	}
}

// Issues returns the node's issues, validating it on first use after a
// change.
func (n *Node) Issues() []Issue {
	if n.issues == nil {
		out := []Issue{}
		for _, v := range n.scene.validators {
			out = append(out, v.Validate(n)...)
		}
		n.issues = out
	}
	return n.issues
}

func (n *Node) invalidateIssues() { n.issues = nil }

// AllIssues validates every node of the scene, in tree order.
func (s *Scene) AllIssues() []Issue {
	var out []Issue
	s.Walk(func(n *Node) bool {
		out = append(out, n.Issues()...)
		return true
	})
	return out
}

// ---------------------------------------------------------------------------
// Missing definition
// ---------------------------------------------------------------------------

// MissingDefinitionValidator reports entities without an entity definition.
type MissingDefinitionValidator struct{}

func (MissingDefinitionValidator) Validate(n *Node) []Issue {
	if n.kind != KindEntity || n.Definition() != nil {
		return nil
	}
	return []Issue{{
		Node:     n.handle,
		Type:     IssueMissingDefinition,
		Message:  fmt.Sprintf("%s entity not found in entity definitions", n.Name()),
		Severity: SeverityError,
	}}
}

// ---------------------------------------------------------------------------
// Property values
// ---------------------------------------------------------------------------

// PropertyValueWithDoubleQuotesValidator reports property values containing a
// double quote, which the map format cannot store.
type PropertyValueWithDoubleQuotesValidator struct{}

func (PropertyValueWithDoubleQuotesValidator) Validate(n *Node) []Issue {
	var out []Issue
	for _, p := range n.Properties() {
		if strings.Contains(p.Value, `"`) {
			out = append(out, Issue{
				Node:     n.handle,
				Type:     IssuePropertyValueWithDoubleQuotes,
				Message:  fmt.Sprintf("the value of property %q contains double quotation marks", p.Key),
				Severity: SeverityError,
			})
		}
	}
	return out
}

// ---------------------------------------------------------------------------
// Missing mods
// ---------------------------------------------------------------------------

// ModError reports a mod the game cannot use.
type ModError struct {
	Mod     string
	Message string
}

// Game is the part of the loaded game configuration the mod check needs.
type Game interface {
	CheckMods(mods []string) []ModError
}

// GameRef is a non-owning reference to the game. Lock returns false once the
// game has been unloaded.
type GameRef interface {
	Lock() (Game, bool)
}

// MissingModValidator reports mods listed by the world that the game cannot
// find. A mod list is only checked once; unchanged lists report nothing.
type MissingModValidator struct {
	game     GameRef
	lastMods []string
}

// NewMissingModValidator returns a validator checking against game.
func NewMissingModValidator(game GameRef) *MissingModValidator {
	return &MissingModValidator{game: game}
}

func (v *MissingModValidator) Validate(n *Node) []Issue {
	if n.kind != KindWorld {
		return nil
	}
	game, ok := v.game.Lock()
	if !ok {
		return nil
	}
	mods := worldMods(n)
	if slices.Equal(mods, v.lastMods) {
		return nil
	}
	v.lastMods = mods

	var out []Issue
	for _, e := range game.CheckMods(mods) {
		out = append(out, Issue{
			Node:     n.handle,
			Type:     IssueMissingMod,
			Message:  fmt.Sprintf("mod %q could not be used: %s", e.Mod, e.Message),
			Severity: SeverityWarning,
		})
	}
	return out
}

func worldMods(n *Node) []string {
	s, ok := n.Properties().Get(PropMods)
	if !ok || s == "" {
		return []string{}
	}
	return strings.Split(s, ";")
}
