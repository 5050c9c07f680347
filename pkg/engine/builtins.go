package engine

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/chazu/mapcore/pkg/asset"
	"github.com/chazu/mapcore/pkg/brush"
	"github.com/chazu/mapcore/pkg/geom"
	"github.com/chazu/mapcore/pkg/kernel"
	"github.com/chazu/mapcore/pkg/patch"
	"github.com/chazu/mapcore/pkg/scene"
	zygo "github.com/glycerine/zygomys/zygo"
)

// ---------------------------------------------------------------------------
// Custom Sexp types for passing Go values through the zygomys environment
// ---------------------------------------------------------------------------

// sexpVec3 wraps a geom.Vec.
type sexpVec3 struct {
	vec geom.Vec
}

func (v *sexpVec3) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(vec3 %g %g %g)", v.vec.X, v.vec.Y, v.vec.Z)
}
func (v *sexpVec3) Type() *zygo.RegisteredType { return nil }

// sexpNode wraps a scene node created by a builtin.
type sexpNode struct {
	node *scene.Node
}

func (n *sexpNode) SexpString(ps *zygo.PrintState) string {
	return fmt.Sprintf("(%s %q)", n.node.Kind(), n.node.Name())
}
func (n *sexpNode) Type() *zygo.RegisteredType { return nil }

// sexpSolid wraps a kernel solid used as an entity model.
type sexpSolid struct {
	solid kernel.Solid
	desc  string
}

func (s *sexpSolid) SexpString(ps *zygo.PrintState) string { return s.desc }
func (s *sexpSolid) Type() *zygo.RegisteredType            { return nil }

// ---------------------------------------------------------------------------
// Keyword argument parsing
// ---------------------------------------------------------------------------

// isKW checks if a Sexp is a preprocessed keyword string.
// Returns the keyword name (without prefix) and true if it is.
func isKW(s zygo.Sexp) (string, bool) {
	str, ok := s.(*zygo.SexpStr)
	if !ok || !strings.HasPrefix(str.S, kwPrefix) {
		return "", false
	}
	return str.S[len(kwPrefix):], true
}

// kwArgs holds the result of parsing a mixed positional+keyword argument list.
type kwArgs struct {
	kw         map[string]zygo.Sexp
	positional []zygo.Sexp
}

// parseArgs separates args into keyword and positional arguments.
func parseArgs(args []zygo.Sexp) kwArgs {
	result := kwArgs{kw: make(map[string]zygo.Sexp)}
	for i := 0; i < len(args); i++ {
		name, ok := isKW(args[i])
		if !ok {
			result.positional = append(result.positional, args[i])
			continue
		}
		if i+1 < len(args) {
			result.kw[name] = args[i+1]
			i++
		} else {
			result.kw[name] = zygo.SexpNull
		}
	}
	return result
}

// ---------------------------------------------------------------------------
// Value extraction helpers
// ---------------------------------------------------------------------------

// toFloat64 extracts a float64 from a Sexp (SexpInt or SexpFloat).
func toFloat64(s zygo.Sexp) (float64, error) {
	switch v := s.(type) {
	case *zygo.SexpInt:
		return float64(v.Val), nil
	case *zygo.SexpFloat:
		return v.Val, nil
	}
	return 0, fmt.Errorf("expected number, got %T (%s)", s, s.SexpString(nil))
}

// toInt extracts a whole number.
func toInt(s zygo.Sexp) (int, error) {
	if v, ok := s.(*zygo.SexpInt); ok {
		return int(v.Val), nil
	}
	return 0, fmt.Errorf("expected integer, got %T (%s)", s, s.SexpString(nil))
}

// toString extracts a string from a Sexp.
func toString(s zygo.Sexp) (string, error) {
	if str, ok := s.(*zygo.SexpStr); ok {
		return str.S, nil
	}
	return "", fmt.Errorf("expected string, got %T (%s)", s, s.SexpString(nil))
}

// toVec3 extracts a geom.Vec from a sexpVec3.
func toVec3(s zygo.Sexp) (geom.Vec, error) {
	if v, ok := s.(*sexpVec3); ok {
		return v.vec, nil
	}
	return geom.Vec{}, fmt.Errorf("expected vec3, got %T (%s)", s, s.SexpString(nil))
}

// toSolid extracts a kernel solid from a sexpSolid.
func toSolid(s zygo.Sexp) (kernel.Solid, error) {
	if v, ok := s.(*sexpSolid); ok {
		return v.solid, nil
	}
	return nil, fmt.Errorf("expected model, got %T (%s)", s, s.SexpString(nil))
}

// sexpListToSlice converts a SexpPair (Lisp list) or SexpArray to a Go slice.
func sexpListToSlice(s zygo.Sexp) ([]zygo.Sexp, error) {
	switch v := s.(type) {
	case *zygo.SexpPair:
		return zygo.ListToArray(v)
	case *zygo.SexpArray:
		return v.Val, nil
	case *zygo.SexpSentinel:
		if v == zygo.SexpNull {
			return nil, nil
		}
	}
	return nil, fmt.Errorf("expected list or array, got %T", s)
}

// kwFloat reads an optional numeric keyword into dst.
func kwFloat(pa kwArgs, form, key string, dst *float64) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	f, err := toFloat64(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", form, key, err)
	}
	*dst = f
	return nil
}

// kwString reads an optional string keyword into dst.
func kwString(pa kwArgs, form, key string, dst *string) error {
	v, ok := pa.kw[key]
	if !ok {
		return nil
	}
	s, err := toString(v)
	if err != nil {
		return fmt.Errorf("%s: %s: %w", form, key, err)
	}
	*dst = s
	return nil
}

// kwVec reads a vec3 keyword. Missing keywords are an error when required.
func kwVec(pa kwArgs, form, key string, required bool) (geom.Vec, bool, error) {
	v, ok := pa.kw[key]
	if !ok {
		if required {
			return geom.Vec{}, false, fmt.Errorf("%s: missing :%s", form, key)
		}
		return geom.Vec{}, false, nil
	}
	vec, err := toVec3(v)
	if err != nil {
		return geom.Vec{}, false, fmt.Errorf("%s: %s: %w", form, key, err)
	}
	return vec, true, nil
}

// ---------------------------------------------------------------------------
// Scene builder
// ---------------------------------------------------------------------------

// builder collects the nodes created during one evaluation. Container forms
// adopt their children as they are evaluated; whatever is still detached when
// the program finishes is placed in the default layer.
type builder struct {
	scene    *scene.Scene
	kernel   kernel.Kernel
	textures map[string]*asset.Texture
	created  []*scene.Node
}

func newBuilder(s *scene.Scene, k kernel.Kernel) *builder {
	return &builder{scene: s, kernel: k, textures: make(map[string]*asset.Texture)}
}

// texture interns textures by name so faces share them by identity.
func (b *builder) texture(name string) *asset.Texture {
	if name == "" {
		return nil
	}
	t, ok := b.textures[name]
	if !ok {
		t = &asset.Texture{Name: name}
		b.textures[name] = t
	}
	return t
}

func (b *builder) track(n *scene.Node) *sexpNode {
	b.created = append(b.created, n)
	return &sexpNode{node: n}
}

// adopt adds each child form to parent.
func (b *builder) adopt(form string, parent *scene.Node, children []zygo.Sexp) error {
	for i, c := range children {
		ref, ok := c.(*sexpNode)
		if !ok {
			return fmt.Errorf("%s: child %d: expected scene node, got %T (%s)", form, i+1, c, c.SexpString(nil))
		}
		if !parent.CanAddChild(ref.node) {
			return fmt.Errorf("%s: child %d: %s %q cannot be placed here", form, i+1, ref.node.Kind(), ref.node.Name())
		}
		parent.AddChild(ref.node)
	}
	return nil
}

// finish moves top-level nodes into the default layer.
func (b *builder) finish() {
	layer := b.scene.DefaultLayer()
	for _, n := range b.created {
		if n.Parent() == nil && n.Kind() != scene.KindLayer {
			layer.AddChild(n)
		}
	}
}

func (b *builder) count() int { return len(b.created) }

// ---------------------------------------------------------------------------
// Builtin registration
// ---------------------------------------------------------------------------

// registerBuiltins installs the scene DSL builtins into a zygomys environment.
//
// Source code must be preprocessed with preprocessSource() before evaluation so
// that :keyword tokens are converted to recognizable string literals.
func registerBuiltins(env *zygo.Zlisp, b *builder) {

	// -----------------------------------------------------------------------
	// (vec3 1 2 3)
	// -----------------------------------------------------------------------
	env.AddFunction("vec3", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 3 {
			return zygo.SexpNull, fmt.Errorf("vec3 requires exactly 3 arguments, got %d", len(args))
		}
		var c [3]float64
		for i, axis := range []string{"x", "y", "z"} {
			f, err := toFloat64(args[i])
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("vec3: %s: %w", axis, err)
			}
			c[i] = f
		}
		return &sexpVec3{vec: geom.Vec{X: c[0], Y: c[1], Z: c[2]}}, nil
	})

	// -----------------------------------------------------------------------
	// (cuboid :min (vec3 0 0 0) :max (vec3 64 64 16) :texture "base/floor")
	// -----------------------------------------------------------------------
	env.AddFunction("cuboid", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		min, _, err := kwVec(pa, "cuboid", "min", true)
		if err != nil {
			return zygo.SexpNull, err
		}
		max, _, err := kwVec(pa, "cuboid", "max", true)
		if err != nil {
			return zygo.SexpNull, err
		}
		var tex string
		if err := kwString(pa, "cuboid", "texture", &tex); err != nil {
			return zygo.SexpNull, err
		}
		br, err := brush.Cuboid(geom.NewBBox(min, max), b.texture(tex))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("cuboid: %w", err)
		}
		return b.track(b.scene.NewBrush(br)), nil
	})

	// -----------------------------------------------------------------------
	// (patch :rows 3 :cols 3 :points (list (vec3 ..) ..) :subdivisions 2
	//        :texture "base/pipe")
	// :subdivisions is the level; each Bezier segment gets 2^level cells.
	// -----------------------------------------------------------------------
	env.AddFunction("patch", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		dims := map[string]int{"rows": 0, "cols": 0, "subdivisions": patch.DefaultSubdivisions}
		for _, key := range []string{"rows", "cols", "subdivisions"} {
			v, ok := pa.kw[key]
			if !ok {
				if key == "subdivisions" {
					continue
				}
				return zygo.SexpNull, fmt.Errorf("patch: missing :%s", key)
			}
			n, err := toInt(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("patch: %s: %w", key, err)
			}
			dims[key] = n
		}
		v, ok := pa.kw["points"]
		if !ok {
			return zygo.SexpNull, fmt.Errorf("patch: missing :points")
		}
		items, err := sexpListToSlice(v)
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("patch: points: %w", err)
		}
		points := make([]geom.Vec, len(items))
		for i, item := range items {
			if points[i], err = toVec3(item); err != nil {
				return zygo.SexpNull, fmt.Errorf("patch: point %d: %w", i+1, err)
			}
		}
		var tex string
		if err := kwString(pa, "patch", "texture", &tex); err != nil {
			return zygo.SexpNull, err
		}
		surface, err := patch.NewSurface(dims["rows"], dims["cols"], points, b.texture(tex))
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("patch: %w", err)
		}
		if lvl := dims["subdivisions"]; lvl < 0 || lvl > patch.MaxSubdivisions {
			return zygo.SexpNull, fmt.Errorf("patch: subdivisions must be in [0, %d], got %d", patch.MaxSubdivisions, lvl)
		}
		return b.track(b.scene.NewPatch(surface, dims["subdivisions"])), nil
	})

	// -----------------------------------------------------------------------
	// (entity :classname "light" :origin (vec3 0 0 64) :angle 90
	//         :model (model-box 8 8 8) :properties (list "light" "300")
	//         brushes-or-patches...)
	// -----------------------------------------------------------------------
	env.AddFunction("entity", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		pa := parseArgs(args)
		var classname string
		if err := kwString(pa, "entity", "classname", &classname); err != nil {
			return zygo.SexpNull, err
		}
		if classname == "" {
			return zygo.SexpNull, fmt.Errorf("entity: missing :classname")
		}
		props := scene.Properties{{Key: scene.PropClassname, Value: classname}}

		if origin, ok, err := kwVec(pa, "entity", "origin", false); err != nil {
			return zygo.SexpNull, err
		} else if ok {
			props = props.Set(scene.PropOrigin, scene.FormatVec(origin))
		}
		for _, key := range []string{scene.PropAngle, scene.PropModelScale} {
			if _, ok := pa.kw[key]; !ok {
				continue
			}
			var f float64
			if err := kwFloat(pa, "entity", key, &f); err != nil {
				return zygo.SexpNull, err
			}
			props = props.Set(key, strconv.FormatFloat(f, 'g', -1, 64))
		}
		if v, ok := pa.kw["properties"]; ok {
			items, err := sexpListToSlice(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("entity: properties: %w", err)
			}
			if len(items)%2 != 0 {
				return zygo.SexpNull, fmt.Errorf("entity: properties: expected key/value pairs, got %d items", len(items))
			}
			for i := 0; i < len(items); i += 2 {
				k, err := toString(items[i])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("entity: properties: key %d: %w", i/2+1, err)
				}
				val, err := toString(items[i+1])
				if err != nil {
					return zygo.SexpNull, fmt.Errorf("entity: properties: %s: %w", k, err)
				}
				props = props.Set(k, val)
			}
		}

		e := b.scene.NewEntity(props)
		if v, ok := pa.kw["model"]; ok {
			solid, err := toSolid(v)
			if err != nil {
				return zygo.SexpNull, fmt.Errorf("entity: model: %w", err)
			}
			e.SetModelFrame(solid)
		}
		ref := b.track(e)
		if err := b.adopt("entity", e, pa.positional); err != nil {
			return zygo.SexpNull, err
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (group "name" children...)
	// -----------------------------------------------------------------------
	env.AddFunction("group", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("group requires a name argument")
		}
		groupName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("group: name: %w", err)
		}
		g := b.scene.NewGroup(groupName)
		ref := b.track(g)
		if err := b.adopt("group", g, args[1:]); err != nil {
			return zygo.SexpNull, err
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (layer "name" children...)
	// -----------------------------------------------------------------------
	env.AddFunction("layer", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) < 1 {
			return zygo.SexpNull, fmt.Errorf("layer requires a name argument")
		}
		layerName, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("layer: name: %w", err)
		}
		l := b.scene.NewLayer(layerName)
		b.scene.World().AddChild(l)
		ref := b.track(l)
		if err := b.adopt("layer", l, args[1:]); err != nil {
			return zygo.SexpNull, err
		}
		return ref, nil
	})

	// -----------------------------------------------------------------------
	// (world-property "_tb_mod" "id1;ctf")
	// -----------------------------------------------------------------------
	env.AddFunction("world_property", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("world-property requires a key and a value")
		}
		key, err := toString(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("world-property: key: %w", err)
		}
		value, err := toString(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("world-property: value: %w", err)
		}
		b.scene.World().SetProperty(key, value)
		return zygo.SexpNull, nil
	})

	registerModelBuiltins(env, b)
}

// registerModelBuiltins installs the forms that build entity models with the
// geometry kernel.
func registerModelBuiltins(env *zygo.Zlisp, b *builder) {
	solid := func(s kernel.Solid, format string, a ...any) *sexpSolid {
		return &sexpSolid{solid: s, desc: fmt.Sprintf(format, a...)}
	}
	numbers := func(form string, args []zygo.Sexp, n int) ([]float64, error) {
		if len(args) != n {
			return nil, fmt.Errorf("%s requires exactly %d arguments, got %d", form, n, len(args))
		}
		out := make([]float64, n)
		for i, a := range args {
			f, err := toFloat64(a)
			if err != nil {
				return nil, fmt.Errorf("%s: argument %d: %w", form, i+1, err)
			}
			out[i] = f
		}
		return out, nil
	}
	pair := func(form string, args []zygo.Sexp) (kernel.Solid, kernel.Solid, error) {
		if len(args) != 2 {
			return nil, nil, fmt.Errorf("%s requires exactly 2 models, got %d", form, len(args))
		}
		a, err := toSolid(args[0])
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", form, err)
		}
		c, err := toSolid(args[1])
		if err != nil {
			return nil, nil, fmt.Errorf("%s: %w", form, err)
		}
		return a, c, nil
	}

	// (model-box 8 8 16)
	env.AddFunction("model_box", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		d, err := numbers("model-box", args, 3)
		if err != nil {
			return zygo.SexpNull, err
		}
		return solid(b.kernel.Box(d[0], d[1], d[2]), "(model-box %g %g %g)", d[0], d[1], d[2]), nil
	})

	// (model-cylinder height radius)
	env.AddFunction("model_cylinder", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		d, err := numbers("model-cylinder", args, 2)
		if err != nil {
			return zygo.SexpNull, err
		}
		return solid(b.kernel.Cylinder(d[0], d[1]), "(model-cylinder %g %g)", d[0], d[1]), nil
	})

	// (model-translate model (vec3 x y z))
	env.AddFunction("model_translate", func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
		if len(args) != 2 {
			return zygo.SexpNull, fmt.Errorf("model-translate requires a model and a vec3")
		}
		s, err := toSolid(args[0])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model-translate: %w", err)
		}
		v, err := toVec3(args[1])
		if err != nil {
			return zygo.SexpNull, fmt.Errorf("model-translate: %w", err)
		}
		return solid(b.kernel.Translate(s, v.X, v.Y, v.Z), "(model-translate ...)"), nil
	})

	// (model-union a b), (model-difference a b), (model-intersection a b)
	booleans := map[string]func(a, c kernel.Solid) kernel.Solid{
		"model_union":        b.kernel.Union,
		"model_difference":   b.kernel.Difference,
		"model_intersection": b.kernel.Intersection,
	}
	for fn, op := range booleans {
		form := strings.ReplaceAll(fn, "_", "-")
		env.AddFunction(fn, func(env *zygo.Zlisp, name string, args []zygo.Sexp) (zygo.Sexp, error) {
			a, c, err := pair(form, args)
			if err != nil {
				return zygo.SexpNull, err
			}
			return solid(op(a, c), "(%s ...)", form), nil
		})
	}
}
