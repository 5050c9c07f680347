// Package config loads mapcore settings from a TOML file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/chazu/mapcore/pkg/engine"
	"github.com/chazu/mapcore/pkg/kernel/sdfx"
	"github.com/chazu/mapcore/pkg/scene"
	"github.com/pelletier/go-toml/v2"
	log "github.com/sirupsen/logrus"
)

// DefaultPath is the config file read by the CLI when no path is given.
const DefaultPath = "mapcore.toml"

// Duration is a time.Duration stored as a string such as "5s".
type Duration time.Duration

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config holds the settings of the scene core and its tools.
type Config struct {
	// DefaultEntitySize is the edge length of the box used for entities
	// without a model or definition bounds.
	DefaultEntitySize float64 `toml:"default_entity_size"`
	// EvalTimeout bounds a single DSL evaluation.
	EvalTimeout Duration `toml:"eval_timeout"`
	// LogLevel is a logrus level name.
	LogLevel string `toml:"log_level"`
	// MeshCells is the marching cubes resolution for entity models.
	MeshCells int `toml:"mesh_cells"`
	// IndexMaxChildren is the R-tree branching factor.
	IndexMaxChildren int `toml:"index_max_children"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		DefaultEntitySize: scene.DefaultEntitySize,
		EvalTimeout:       Duration(engine.DefaultEvalTimeout),
		LogLevel:          "info",
		MeshCells:         sdfx.DefaultMeshCells,
		IndexMaxChildren:  16,
	}
}

// Load reads the config at path over the defaults. A missing file yields the
// defaults; keys absent from the file keep their default values.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, fmt.Errorf("config: %w", err)
	}
	if err := toml.Unmarshal(data, &cfg); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Default(), fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Save writes cfg to path, creating the directory if needed.
func Save(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("config: %w", err)
	}
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.DefaultEntitySize <= 0 {
		return fmt.Errorf("default_entity_size must be positive, got %g", c.DefaultEntitySize)
	}
	if c.EvalTimeout <= 0 {
		return fmt.Errorf("eval_timeout must be positive, got %s", time.Duration(c.EvalTimeout))
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	if c.MeshCells < 8 {
		return fmt.Errorf("mesh_cells must be at least 8, got %d", c.MeshCells)
	}
	if c.IndexMaxChildren < 4 {
		return fmt.Errorf("index_max_children must be at least 4, got %d", c.IndexMaxChildren)
	}
	return nil
}

// Logger returns a logger at the configured level.
func (c Config) Logger() *log.Logger {
	l := log.New()
	if lvl, err := log.ParseLevel(c.LogLevel); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

// SceneOptions returns the scene options the settings imply.
func (c Config) SceneOptions(l log.FieldLogger) []scene.Option {
	return []scene.Option{
		scene.WithDefaultEntitySize(c.DefaultEntitySize),
		scene.WithIndexMaxChildren(c.IndexMaxChildren),
		scene.WithLogger(l),
	}
}

// Engine returns a DSL engine configured from the settings.
func (c Config) Engine(l log.FieldLogger) *engine.Engine {
	return engine.NewEngine(
		engine.WithTimeout(time.Duration(c.EvalTimeout)),
		engine.WithKernel(sdfx.New(c.MeshCells)),
		engine.WithSceneOptions(c.SceneOptions(l)...),
		engine.WithLogger(l),
	)
}
