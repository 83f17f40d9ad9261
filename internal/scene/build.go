package scene

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Build validates cfg and assembles the scene it names.
func Build(cfg *config.Config) (*xpbd.Simulation, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	sim := xpbd.NewSimulation(cfg.Solver())
	if cfg.Ground.Enabled {
		Ground(sim, cfg.Ground.Size, cfg.Ground.Height)
	}

	switch cfg.Scene {
	case "rope":
		Rope(sim, mgl64.Vec3{0, cfg.Rope.Height, 0}, cfg.Rope)
	case "cloth":
		Cloth(sim, cfg.Cloth)
	case "mesh":
		mesh, err := meshFor(cfg.Mesh)
		if err != nil {
			return nil, err
		}
		o, k := cfg.Mesh.Offset, cfg.Mesh.Scale
		transform := mgl64.Translate3D(o[0], o[1], o[2]).Mul4(mgl64.Scale3D(k, k, k))
		template := xpbd.Particle{InverseMass: 1, HasGravity: true}
		mesh.Load(sim, template, cfg.Mesh.Compliance, transform, cfg.Mesh.Colliders)
	case "drop":
		Drop(sim, cfg.Drop, cfg.Seed)
	default:
		return nil, fmt.Errorf("unknown scene: %s", cfg.Scene)
	}
	return sim, nil
}

func meshFor(cfg config.MeshConfig) (*Mesh, error) {
	if cfg.Path == "" {
		return ParseOBJ(strings.NewReader(CubeOBJ))
	}
	mesh, err := LoadOBJ(cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("load mesh: %w", err)
	}
	return mesh, nil
}

// Drop scatters free particles over a Spread x Spread square at Height, each
// with a small random sideways velocity. The layout depends only on seed.
func Drop(sim *xpbd.Simulation, cfg config.DropConfig, seed int64) *Body {
	rnd := rand.New(rand.NewSource(seed))
	body := &Body{}
	for i := 0; i < cfg.Count; i++ {
		pos := mgl64.Vec3{
			(rnd.Float64() - 0.5) * cfg.Spread,
			cfg.Height + rnd.Float64(),
			(rnd.Float64() - 0.5) * cfg.Spread,
		}
		p := body.particle(sim, pos, 1)
		p.Velocity = mgl64.Vec3{rnd.NormFloat64() * 0.5, 0, rnd.NormFloat64() * 0.5}
	}
	return body
}
