package config

import "sort"

var Presets = map[string]map[string]*Config{
	"rope": {
		"short": derive(func(c *Config) {
			c.Scene = "rope"
			c.Duration = 10
			c.Rope.Segments = 8
			c.Rope.Spacing = 0.5
		}),
		"long": derive(func(c *Config) {
			c.Scene = "rope"
			c.Duration = 20
			c.Rope.Segments = 24
			c.Rope.Spacing = 0.25
			c.Rope.Compliance = 0.2
		}),
		"stiff": derive(func(c *Config) {
			c.Scene = "rope"
			c.Duration = 10
			c.Rope.Segments = 16
			c.Rope.Compliance = 0
			c.Simulation.Iterations = 8
		}),
	},
	"cloth": {
		"curtain": derive(func(c *Config) {
			c.Scene = "cloth"
			c.Duration = 15
			c.Cloth.Width = 16
			c.Cloth.Height = 12
			c.Cloth.PinTop = true
		}),
		"drape": derive(func(c *Config) {
			c.Scene = "cloth"
			c.Duration = 10
			c.Cloth.Width = 10
			c.Cloth.Height = 10
			c.Cloth.Elevation = 3
			c.Cloth.PinTop = false
			c.Cloth.Horizontal = true
		}),
	},
	"mesh": {
		"cube": derive(func(c *Config) {
			c.Scene = "mesh"
			c.Duration = 8
			c.Mesh.Scale = 0.5
		}),
	},
	"drop": {
		"bouncy": derive(func(c *Config) {
			c.Scene = "drop"
			c.Duration = 8
			c.Simulation.Restitution = 0.9
			c.Simulation.Friction = 0.95
		}),
		"sticky": derive(func(c *Config) {
			c.Scene = "drop"
			c.Duration = 8
			c.Simulation.Restitution = 0
			c.Simulation.Friction = 0.1
		}),
	},
}

func derive(edit func(*Config)) *Config {
	cfg := DefaultConfig()
	edit(cfg)
	return cfg
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(scene, preset string) *Config {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	cfg, ok := scenePresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(scene string) []string {
	scenePresets, ok := Presets[scene]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(scenePresets))
	for name := range scenePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListScenes() []string {
	scenes := make([]string, 0, len(Presets))
	for scene := range Presets {
		scenes = append(scenes, scene)
	}
	sort.Strings(scenes)
	return scenes
}
