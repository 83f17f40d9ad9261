package config

import (
	"fmt"
	"math"
	"sort"
)

// params maps dotted keys to the numeric fields they tune.
var params = map[string]func(c *Config, v float64){
	"dt":                     func(c *Config, v float64) { c.Dt = v },
	"duration":               func(c *Config, v float64) { c.Duration = v },
	"simulation.substeps":    func(c *Config, v float64) { c.Simulation.Substeps = int(math.Round(v)) },
	"simulation.iterations":  func(c *Config, v float64) { c.Simulation.Iterations = int(math.Round(v)) },
	"simulation.damping":     func(c *Config, v float64) { c.Simulation.Damping = v },
	"simulation.friction":    func(c *Config, v float64) { c.Simulation.Friction = v },
	"simulation.restitution": func(c *Config, v float64) { c.Simulation.Restitution = v },
	"simulation.gravity":     func(c *Config, v float64) { c.Simulation.Gravity = v },
	"rope.compliance":        func(c *Config, v float64) { c.Rope.Compliance = v },
	"rope.damping":           func(c *Config, v float64) { c.Rope.Damping = v },
	"rope.spacing":           func(c *Config, v float64) { c.Rope.Spacing = v },
	"cloth.compliance":       func(c *Config, v float64) { c.Cloth.Compliance = v },
	"cloth.bend_compliance":  func(c *Config, v float64) { c.Cloth.BendCompliance = v },
	"mesh.compliance":        func(c *Config, v float64) { c.Mesh.Compliance = v },
	"mesh.scale":             func(c *Config, v float64) { c.Mesh.Scale = v },
	"drop.height":            func(c *Config, v float64) { c.Drop.Height = v },
}

// Set assigns a numeric parameter by its dotted key, e.g.
// "simulation.substeps". Integer fields are rounded.
func (c *Config) Set(key string, value float64) error {
	set, ok := params[key]
	if !ok {
		return fmt.Errorf("unknown parameter: %s", key)
	}
	set(c, value)
	return nil
}

// Params lists the keys accepted by Set.
func Params() []string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns a deep copy.
func (c *Config) Clone() *Config {
	out := *c
	return &out
}
