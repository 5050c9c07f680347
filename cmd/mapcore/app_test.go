package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/chazu/mapcore/pkg/config"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/scene"
	log "github.com/sirupsen/logrus"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	l := log.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(log.WarnLevel)
	return NewApp(config.Default(), l)
}

func readRoom(t *testing.T) string {
	t.Helper()
	source, err := os.ReadFile("testdata/room.map")
	if err != nil {
		t.Fatalf("failed to read room.map: %v", err)
	}
	return string(source)
}

// TestE2ERoom exercises the full pipeline: script source, engine, scene,
// tessellation and meshes.
func TestE2ERoom(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(readRoom(t))

	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			t.Errorf("eval error (line %d): %s", e.Line, e.Message)
		}
		t.FailNow()
	}

	// floor, two walls and the crate; the light has no model
	if len(result.Meshes) != 4 {
		t.Fatalf("expected 4 meshes, got %d", len(result.Meshes))
	}
	for _, m := range result.Meshes {
		if !strings.HasPrefix(m.Name, "brush#") {
			t.Errorf("unexpected mesh name %q", m.Name)
		}
		if len(m.Vertices) != 24*3 || len(m.Normals) != 24*3 {
			t.Errorf("mesh %q: expected 24 vertices, got %d", m.Name, len(m.Vertices)/3)
		}
		if len(m.Indices) != 12*3 {
			t.Errorf("mesh %q: expected 12 triangles, got %d", m.Name, len(m.Indices)/3)
		}
		if m.Color == "" {
			t.Errorf("mesh %q: no color assigned", m.Name)
		}
	}
}

func TestE2EEmptySource(t *testing.T) {
	app := newTestApp(t)
	for _, src := range []string{"", "   \n\t", "; just a comment\n"} {
		result := app.Evaluate(src)
		if len(result.Errors) > 0 {
			t.Errorf("unexpected errors for %q: %v", src, result.Errors)
		}
		if len(result.Meshes) != 0 {
			t.Errorf("expected 0 meshes for %q, got %d", src, len(result.Meshes))
		}
	}
}

func TestE2ESyntaxError(t *testing.T) {
	app := newTestApp(t)
	result := app.Evaluate(`(cuboid :min (vec3 0 0 0)`)

	if len(result.Errors) == 0 {
		t.Fatal("expected eval errors for syntax error")
	}
	if len(result.Meshes) != 0 {
		t.Errorf("expected 0 meshes on error, got %d", len(result.Meshes))
	}
}

func TestE2EColorPaletteWrapping(t *testing.T) {
	app := newTestApp(t)
	var src strings.Builder
	n := len(colorPalette) + 2
	for i := 0; i < n; i++ {
		src.WriteString("(cuboid :min (vec3 1 0 0) :max (vec3 2 1 1))\n")
	}
	result := app.Evaluate(src.String())
	if len(result.Errors) > 0 {
		t.Fatalf("unexpected errors: %v", result.Errors)
	}
	if len(result.Meshes) != n {
		t.Fatalf("expected %d meshes, got %d", n, len(result.Meshes))
	}
	if result.Meshes[0].Color != result.Meshes[len(colorPalette)].Color {
		t.Errorf("expected palette to wrap")
	}
}

func TestSummarize(t *testing.T) {
	app := newTestApp(t)
	s, errs := app.Load(readRoom(t))
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	nodes := Summarize(s)

	want := []struct {
		depth int
		kind  scene.Kind
		name  string
	}{
		{0, scene.KindWorld, "world"},
		{1, scene.KindLayer, scene.DefaultLayerName},
		{2, scene.KindBrush, "brush"},
		{2, scene.KindBrush, "brush"},
		{2, scene.KindBrush, "brush"},
		{2, scene.KindEntity, "light"},
		{1, scene.KindLayer, "details"},
		{2, scene.KindGroup, "crate"},
		{3, scene.KindBrush, "brush"},
	}
	if len(nodes) != len(want) {
		t.Fatalf("expected %d nodes, got %d", len(want), len(nodes))
	}
	for i, w := range want {
		got := nodes[i]
		if got.Depth != w.depth || got.Kind != w.kind || got.Name != w.name {
			t.Errorf("node %d = {%d %s %q}, want {%d %s %q}", i, got.Depth, got.Kind, got.Name, w.depth, w.kind, w.name)
		}
	}

	room := geom.NewBBox(geom.Vec{}, geom.Vec{X: 128, Y: 128, Z: 96})
	if !nodes[0].Bounds.Equal(room, 1e-9) {
		t.Errorf("world bounds = %v, want %v", nodes[0].Bounds, room)
	}
	crate := geom.NewBBox(geom.Vec{X: 32, Y: 32, Z: 8}, geom.Vec{X: 48, Y: 48, Z: 24})
	if !nodes[7].Bounds.Equal(crate, 1e-9) {
		t.Errorf("group bounds = %v, want %v", nodes[7].Bounds, crate)
	}
}

func TestPickRoom(t *testing.T) {
	app := newTestApp(t)
	s, errs := app.Load(readRoom(t))
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}

	hits := Pick(s, geom.Ray{Origin: geom.Vec{X: 64, Y: 64, Z: 200}, Direction: geom.Vec{Z: -1}})
	if len(hits) != 2 {
		t.Fatalf("expected the light and the floor, got %d hits", len(hits))
	}
	if hits[0].Type != scene.EntityHit || hits[0].Name != "light" || hits[0].Distance != 128 {
		t.Errorf("first hit = %+v, want the light at 128", hits[0])
	}
	if hits[1].Type != scene.BrushHit || hits[1].Distance != 192 {
		t.Errorf("second hit = %+v, want the floor at 192", hits[1])
	}

	if hits := Pick(s, geom.Ray{Origin: geom.Vec{X: 500}, Direction: geom.Vec{X: 1}}); len(hits) != 0 {
		t.Errorf("expected no hits, got %d", len(hits))
	}
}

func TestValidate(t *testing.T) {
	app := newTestApp(t)
	s, errs := app.Load(`(entity :classname "target_print" :properties (list "message" "say \"hi\""))`)
	if errs != nil {
		t.Fatalf("unexpected errors: %v", errs)
	}
	issues := Validate(s)
	if len(issues) != 1 || issues[0].Type != scene.IssuePropertyValueWithDoubleQuotes {
		t.Fatalf("expected one double quote issue, got %v", issues)
	}
}

func TestParseVec(t *testing.T) {
	tests := []struct {
		in      string
		want    geom.Vec
		wantErr bool
	}{
		{"1,2,3", geom.Vec{X: 1, Y: 2, Z: 3}, false},
		{" -1.5, 0 ,4e2", geom.Vec{X: -1.5, Z: 400}, false},
		{"1,2", geom.Vec{}, true},
		{"1,x,3", geom.Vec{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseVec(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseVec(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parseVec(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Commands
// ---------------------------------------------------------------------------

func runCmd(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cfgPath := filepath.Join(t.TempDir(), "mapcore.toml")
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(append([]string{"--config", cfgPath}, args...))
	err := cmd.Execute()
	return out.String(), err
}

func TestEvalCommand(t *testing.T) {
	out, err := runCmd(t, "eval", "testdata/room.map")
	if err != nil {
		t.Fatalf("eval failed: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 9 {
		t.Fatalf("expected 9 lines, got %d:\n%s", len(lines), out)
	}
	if !strings.HasPrefix(lines[6], `  layer "details"`) {
		t.Errorf("line 7 = %q, want the details layer", lines[6])
	}
}

func TestMeshCommand(t *testing.T) {
	out, err := runCmd(t, "mesh", "testdata/room.map")
	if err != nil {
		t.Fatalf("mesh failed: %v", err)
	}
	var result EvalResult
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if len(result.Meshes) != 4 {
		t.Errorf("expected 4 meshes, got %d", len(result.Meshes))
	}
}

func TestPickCommand(t *testing.T) {
	out, err := runCmd(t, "pick", "testdata/room.map", "--origin", "64,64,200", "--dir", "0,0,-1")
	if err != nil {
		t.Fatalf("pick failed: %v", err)
	}
	if !strings.HasPrefix(out, "128.0000 entity") {
		t.Errorf("unexpected output:\n%s", out)
	}

	if _, err := runCmd(t, "pick", "testdata/room.map", "--dir", "0,0,0"); err == nil {
		t.Error("expected an error for a zero direction")
	}
}

func TestConfigCommand(t *testing.T) {
	out, err := runCmd(t, "config")
	if err != nil {
		t.Fatalf("config failed: %v", err)
	}
	if !strings.Contains(out, "eval_timeout = '5s'") {
		t.Errorf("expected the default timeout in:\n%s", out)
	}
}
