package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/san-kum/xpbdsim/internal/xpbd"
	"gopkg.in/yaml.v3"
)

const (
	DefaultScene    = "rope"
	DefaultDt       = 1.0 / 60
	DefaultDuration = 10.0

	DefaultRopeSegments = 24
	DefaultRopeSpacing  = 0.25
	DefaultRopeHeight   = 8.0

	DefaultClothWidth   = 12
	DefaultClothHeight  = 12
	DefaultClothSpacing = 0.25

	DefaultMeshScale = 0.5
	DefaultMeshLift  = 10.0

	DefaultDropCount  = 16
	DefaultDropHeight = 4.0
	DefaultDropSpread = 3.0

	DefaultGroundSize = 30.0
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Scene      string           `yaml:"scene" toml:"scene"`
	Dt         float64          `yaml:"dt" toml:"dt"`
	Duration   float64          `yaml:"duration" toml:"duration"`
	Seed       int64            `yaml:"seed" toml:"seed"`
	Simulation SimulationConfig `yaml:"simulation" toml:"simulation"`
	Rope       RopeConfig       `yaml:"rope" toml:"rope"`
	Cloth      ClothConfig      `yaml:"cloth" toml:"cloth"`
	Mesh       MeshConfig       `yaml:"mesh" toml:"mesh"`
	Drop       DropConfig       `yaml:"drop" toml:"drop"`
	Ground     GroundConfig     `yaml:"ground" toml:"ground"`
}

type SimulationConfig struct {
	Substeps    int     `yaml:"substeps" toml:"substeps"`
	Iterations  int     `yaml:"iterations" toml:"iterations"`
	Damping     float64 `yaml:"damping" toml:"damping"`
	Friction    float64 `yaml:"friction" toml:"friction"`
	Restitution float64 `yaml:"restitution" toml:"restitution"`
	Gravity     float64 `yaml:"gravity" toml:"gravity"`
}

type RopeConfig struct {
	Segments   int     `yaml:"segments" toml:"segments"`
	Spacing    float64 `yaml:"spacing" toml:"spacing"`
	Height     float64 `yaml:"height" toml:"height"`
	Compliance float64 `yaml:"compliance" toml:"compliance"`
	Damping    float64 `yaml:"damping" toml:"damping"`
	Pinned     bool    `yaml:"pinned" toml:"pinned"`
}

type ClothConfig struct {
	Width          int     `yaml:"width" toml:"width"`
	Height         int     `yaml:"height" toml:"height"`
	Spacing        float64 `yaml:"spacing" toml:"spacing"`
	Elevation      float64 `yaml:"elevation" toml:"elevation"`
	Compliance     float64 `yaml:"compliance" toml:"compliance"`
	BendCompliance float64 `yaml:"bend_compliance" toml:"bend_compliance"`
	PinTop         bool    `yaml:"pin_top" toml:"pin_top"`
	Horizontal     bool    `yaml:"horizontal" toml:"horizontal"`
}

type MeshConfig struct {
	Path       string     `yaml:"path" toml:"path"`
	Scale      float64    `yaml:"scale" toml:"scale"`
	Offset     [3]float64 `yaml:"offset" toml:"offset"`
	Compliance float64    `yaml:"compliance" toml:"compliance"`
	Colliders  bool       `yaml:"colliders" toml:"colliders"`
}

type DropConfig struct {
	Count  int     `yaml:"count" toml:"count"`
	Height float64 `yaml:"height" toml:"height"`
	Spread float64 `yaml:"spread" toml:"spread"`
}

type GroundConfig struct {
	Enabled bool    `yaml:"enabled" toml:"enabled"`
	Size    float64 `yaml:"size" toml:"size"`
	Height  float64 `yaml:"height" toml:"height"`
}

func DefaultConfig() *Config {
	solver := xpbd.DefaultConfig()
	return &Config{
		Scene:    DefaultScene,
		Dt:       DefaultDt,
		Duration: DefaultDuration,
		Simulation: SimulationConfig{
			Substeps:    solver.Substeps,
			Iterations:  solver.Iterations,
			Damping:     solver.Damping,
			Friction:    solver.Friction,
			Restitution: solver.Restitution,
			Gravity:     solver.Gravity,
		},
		Rope: RopeConfig{
			Segments:   DefaultRopeSegments,
			Spacing:    DefaultRopeSpacing,
			Height:     DefaultRopeHeight,
			Compliance: 0.0001,
			Pinned:     true,
		},
		Cloth: ClothConfig{
			Width:          DefaultClothWidth,
			Height:         DefaultClothHeight,
			Spacing:        DefaultClothSpacing,
			Elevation:      DefaultRopeHeight,
			Compliance:     0.0001,
			BendCompliance: 0.5,
			PinTop:         true,
		},
		Mesh: MeshConfig{
			Scale:      DefaultMeshScale,
			Offset:     [3]float64{0, DefaultMeshLift, 0},
			Compliance: 0.001,
		},
		Drop: DropConfig{
			Count:  DefaultDropCount,
			Height: DefaultDropHeight,
			Spread: DefaultDropSpread,
		},
		Ground: GroundConfig{
			Enabled: true,
			Size:    DefaultGroundSize,
		},
	}
}

// Load reads a YAML file, or TOML when the name ends in .toml. Missing keys
// keep their defaults.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if isTOML(path) {
		if _, err := toml.Decode(string(data), cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		return cfg, nil
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	if isTOML(path) {
		f, err := os.Create(path)
		if err != nil {
			return err
		}
		if err := toml.NewEncoder(f).Encode(cfg); err != nil {
			f.Close()
			return err
		}
		return f.Close()
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

func isTOML(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".toml")
}

// Solver converts the simulation section into solver settings.
func (c *Config) Solver() xpbd.Config {
	return xpbd.Config{
		Substeps:    c.Simulation.Substeps,
		Iterations:  c.Simulation.Iterations,
		Damping:     c.Simulation.Damping,
		Friction:    c.Simulation.Friction,
		Restitution: c.Simulation.Restitution,
		Gravity:     c.Simulation.Gravity,
	}
}

func (c *Config) Validate() error {
	if !(c.Dt > 0) {
		return fmt.Errorf("%w: dt must be positive, got %g", ErrInvalid, c.Dt)
	}
	if !(c.Duration > 0) {
		return fmt.Errorf("%w: duration must be positive, got %g", ErrInvalid, c.Duration)
	}
	if err := c.Solver().Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}

	switch c.Scene {
	case "rope":
		if c.Rope.Segments < 1 || !(c.Rope.Spacing > 0) {
			return fmt.Errorf("%w: rope needs segments >= 1 and positive spacing", ErrInvalid)
		}
	case "cloth":
		if c.Cloth.Width < 2 || c.Cloth.Height < 2 || !(c.Cloth.Spacing > 0) {
			return fmt.Errorf("%w: cloth needs at least 2x2 particles and positive spacing", ErrInvalid)
		}
	case "mesh":
		if !(c.Mesh.Scale > 0) {
			return fmt.Errorf("%w: mesh scale must be positive", ErrInvalid)
		}
	case "drop":
		if c.Drop.Count < 1 {
			return fmt.Errorf("%w: drop needs at least one particle", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown scene %q", ErrInvalid, c.Scene)
	}
	return nil
}

// Steps is the number of fixed ticks in Duration.
func (c *Config) Steps() int {
	return int(c.Duration/c.Dt + 0.5)
}
