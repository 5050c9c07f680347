package scene

import (
	"testing"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeGame struct {
	installed map[string]bool
}

func (g fakeGame) CheckMods(mods []string) []ModError {
	var out []ModError
	for _, m := range mods {
		if !g.installed[m] {
			out = append(out, ModError{Mod: m, Message: "directory not found"})
		}
	}
	return out
}

type fakeGameRef struct {
	game  Game
	alive bool
}

func (r *fakeGameRef) Lock() (Game, bool) { return r.game, r.alive }

func TestMissingDefinition(t *testing.T) {
	s := New()
	s.SetValidators(MissingDefinitionValidator{})
	e := addEntity(t, s.DefaultLayer(), "monster_army", vec(0, 0, 0))

	issues := e.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, IssueMissingDefinition, issues[0].Type)
	assert.Equal(t, SeverityError, issues[0].Severity)
	assert.Equal(t, e.Handle(), issues[0].Node)
	assert.Contains(t, issues[0].Error(), "monster_army")

	e.SetDefinition(&asset.PointEntityDefinition{Name: "monster_army"})
	assert.Empty(t, e.Issues())
	assert.Empty(t, s.AllIssues())
}

func TestPropertyValueWithDoubleQuotes(t *testing.T) {
	s := New()
	s.SetValidators(PropertyValueWithDoubleQuotesValidator{})
	e := addEntity(t, s.DefaultLayer(), "trigger_relay", vec(0, 0, 0))
	assert.Empty(t, e.Issues())

	e.SetProperty("message", `say "hi"`)
	issues := e.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, IssuePropertyValueWithDoubleQuotes, issues[0].Type)
	assert.Contains(t, issues[0].Message, "message")

	s.World().SetProperty("wad", `"base.wad"`)
	assert.Len(t, s.AllIssues(), 2)
}

func TestIssuesAreCached(t *testing.T) {
	s := New()
	calls := 0
	s.SetValidators(validatorFunc(func(n *Node) []Issue {
		calls++
		return nil
	}))
	e := addEntity(t, s.DefaultLayer(), "light", vec(0, 0, 0))
	e.Issues()
	e.Issues()
	assert.Equal(t, 1, calls)

	e.SetOrigin(vec(1, 2, 3))
	e.Issues()
	assert.Equal(t, 2, calls)
}

type validatorFunc func(n *Node) []Issue

func (f validatorFunc) Validate(n *Node) []Issue { return f(n) }

func TestMissingMod(t *testing.T) {
	ref := &fakeGameRef{game: fakeGame{installed: map[string]bool{"id1": true}}, alive: true}
	v := NewMissingModValidator(ref)
	s := New()
	s.SetValidators(v)
	world := s.World()

	assert.Empty(t, world.Issues(), "no mods configured")

	world.SetProperty(PropMods, "id1;missing")
	issues := world.Issues()
	require.Len(t, issues, 1)
	assert.Equal(t, IssueMissingMod, issues[0].Type)
	assert.Equal(t, SeverityWarning, issues[0].Severity)
	assert.Contains(t, issues[0].Message, "missing")

	// an unchanged mod list is reported only once
	world.SetProperty(PropMods, "id1;missing")
	assert.Empty(t, world.Issues())

	world.SetProperty(PropMods, "other")
	assert.Len(t, world.Issues(), 1)

	ref.alive = false
	world.SetProperty(PropMods, "gone")
	assert.Empty(t, world.Issues())

	assert.Empty(t, v.Validate(s.DefaultLayer()), "only the world is checked")
}
