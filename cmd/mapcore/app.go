package main

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/mapcore/pkg/config"
	"github.com/chazu/mapcore/pkg/engine"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/kernel"
	"github.com/chazu/mapcore/pkg/kernel/sdfx"
	"github.com/chazu/mapcore/pkg/scene"
	"github.com/chazu/mapcore/pkg/tessellate"
	log "github.com/sirupsen/logrus"
)

// colorPalette assigns distinct colors to meshes.
var colorPalette = []string{
	"#4A90D9", "#E67E22", "#2ECC71", "#9B59B6",
	"#E74C3C", "#1ABC9C", "#F39C12", "#3498DB",
}

// App ties the DSL engine, the kernel and the scene queries together.
type App struct {
	engine *engine.Engine
	kernel kernel.Kernel
	log    log.FieldLogger
}

// MeshData is the JSON mesh format consumed by viewers.
type MeshData struct {
	Vertices []float32 `json:"vertices"`
	Normals  []float32 `json:"normals"`
	Indices  []uint32  `json:"indices"`
	Name     string    `json:"name"`
	Color    string    `json:"color"`
}

// EvalErrorData is a JSON eval error.
type EvalErrorData struct {
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Message string `json:"message"`
}

// EvalResult is the output of the mesh command.
type EvalResult struct {
	Meshes []MeshData      `json:"meshes"`
	Errors []EvalErrorData `json:"errors"`
}

// NodeSummary describes one node of an evaluated scene.
type NodeSummary struct {
	Handle scene.Handle
	Depth  int
	Kind   scene.Kind
	Name   string
	Bounds geom.BBox
}

// HitData describes one pick hit.
type HitData struct {
	Handle   scene.Handle
	Type     scene.HitType
	Name     string
	Distance float64
	Point    geom.Vec
	Face     int
}

// NewApp creates an App configured from cfg.
func NewApp(cfg config.Config, l log.FieldLogger) *App {
	return &App{
		engine: cfg.Engine(l),
		kernel: sdfx.New(cfg.MeshCells),
		log:    l,
	}
}

// Load evaluates source into a scene. Errors are returned in display form.
func (a *App) Load(source string) (*scene.Scene, []EvalErrorData) {
	s, evalErrs, err := a.engine.Evaluate(source)
	if err != nil {
		a.log.WithError(err).Error("evaluation failed")
		return nil, []EvalErrorData{{Message: err.Error()}}
	}
	if len(evalErrs) > 0 {
		out := make([]EvalErrorData, len(evalErrs))
		for i, e := range evalErrs {
			out[i] = EvalErrorData{Line: e.Line, Col: e.Col, Message: e.Message}
		}
		return nil, out
	}
	return s, nil
}

// Evaluate turns source into meshes.
func (a *App) Evaluate(source string) EvalResult {
	result := EvalResult{
		Meshes: []MeshData{},
		Errors: []EvalErrorData{},
	}

	s, errs := a.Load(source)
	if errs != nil {
		result.Errors = append(result.Errors, errs...)
		return result
	}

	meshes, err := tessellate.Tessellate(s, a.kernel)
	if err != nil {
		a.log.WithError(err).Error("tessellation failed")
		result.Errors = append(result.Errors, EvalErrorData{Message: "tessellation failed: " + err.Error()})
		return result
	}

	for i, m := range meshes {
		result.Meshes = append(result.Meshes, MeshData{
			Vertices: m.Vertices,
			Normals:  m.Normals,
			Indices:  m.Indices,
			Name:     m.Name,
			Color:    colorPalette[i%len(colorPalette)],
		})
	}
	return result
}

// Summarize lists the nodes of s depth first with their logical bounds.
func Summarize(s *scene.Scene) []NodeSummary {
	var out []NodeSummary
	var visit func(n *scene.Node, depth int)
	visit = func(n *scene.Node, depth int) {
		out = append(out, NodeSummary{
			Handle: n.Handle(),
			Depth:  depth,
			Kind:   n.Kind(),
			Name:   n.Name(),
			Bounds: n.LogicalBounds(),
		})
		for _, c := range n.Children() {
			visit(c, depth+1)
		}
	}
	visit(s.World(), 0)
	return out
}

// Pick casts r into s and returns the hits nearest first.
func Pick(s *scene.Scene, r geom.Ray) []HitData {
	result := s.Pick(r, scene.AllVisible{})
	var out []HitData
	for _, h := range result.Sorted() {
		out = append(out, HitData{
			Handle:   h.Node.Handle(),
			Type:     h.Type,
			Name:     h.Node.Name(),
			Distance: h.Distance,
			Point:    h.Point,
			Face:     h.FaceIndex,
		})
	}
	return out
}

// Validate runs the validators that need no game data.
func Validate(s *scene.Scene) []scene.Issue {
	s.SetValidators(scene.PropertyValueWithDoubleQuotesValidator{})
	return s.AllIssues()
}

// parseVec parses "x,y,z".
func parseVec(v string) (geom.Vec, error) {
	parts := strings.Split(v, ",")
	if len(parts) != 3 {
		return geom.Vec{}, fmt.Errorf("expected x,y,z, got %q", v)
	}
	var c [3]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return geom.Vec{}, fmt.Errorf("component %d of %q: %w", i+1, v, err)
		}
		c[i] = f
	}
	return geom.Vec{X: c[0], Y: c[1], Z: c[2]}, nil
}
