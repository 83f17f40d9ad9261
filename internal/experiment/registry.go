package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/metrics"
	"github.com/san-kum/xpbdsim/internal/scene"
	"github.com/san-kum/xpbdsim/internal/sim"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Builder assembles a simulation from a config.
type Builder func(cfg *config.Config) (*xpbd.Simulation, error)

type Registry struct {
	scenes map[string]Builder
}

func NewRegistry() *Registry {
	r := &Registry{
		scenes: make(map[string]Builder),
	}

	for _, name := range []string{"rope", "cloth", "mesh", "drop"} {
		r.scenes[name] = scene.Build
	}

	return r
}

func (r *Registry) Register(name string, b Builder) {
	r.scenes[name] = b
}

// Build looks up cfg.Scene and runs its builder.
func (r *Registry) Build(cfg *config.Config) (*xpbd.Simulation, error) {
	fn, ok := r.scenes[cfg.Scene]
	if !ok {
		return nil, fmt.Errorf("unknown scene: %s", cfg.Scene)
	}
	return fn(cfg)
}

func (r *Registry) ListScenes() []string {
	names := make([]string, 0, len(r.scenes))
	for name := range r.scenes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics() []sim.Metric {
	return []sim.Metric{
		metrics.NewKineticEnergy(),
		metrics.NewEnergyDrift(),
		metrics.NewMaxStretch(),
		metrics.NewContacts(),
		metrics.NewStability(100.0),
	}
}
