package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scene != "rope" {
		t.Errorf("expected scene rope, got %s", cfg.Scene)
	}
	if cfg.Dt <= 0 {
		t.Error("dt should be positive")
	}
	if cfg.Duration <= 0 {
		t.Error("duration should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if cfg.Steps() != 600 {
		t.Errorf("expected 600 steps, got %d", cfg.Steps())
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("rope", "short")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Rope.Segments != 8 {
		t.Errorf("expected 8 segments, got %d", cfg.Rope.Segments)
	}

	cfg.Rope.Segments = 99
	if again := GetPreset("rope", "short"); again.Rope.Segments != 8 {
		t.Error("GetPreset must return a copy")
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("rope", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "short"); cfg != nil {
		t.Error("expected nil for nonexistent scene")
	}
}

func TestPresetsValid(t *testing.T) {
	for _, scene := range ListScenes() {
		for _, name := range ListPresets(scene) {
			cfg := GetPreset(scene, name)
			if cfg.Scene != scene {
				t.Errorf("%s/%s: scene is %q", scene, name, cfg.Scene)
			}
			if err := cfg.Validate(); err != nil {
				t.Errorf("%s/%s: %v", scene, name, err)
			}
		}
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("drop")
	if len(presets) != 2 || presets[0] != "bouncy" || presets[1] != "sticky" {
		t.Errorf("expected sorted [bouncy sticky], got %v", presets)
	}

	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent scene")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative duration", func(c *Config) { c.Duration = -1 }},
		{"no substeps", func(c *Config) { c.Simulation.Substeps = 0 }},
		{"damping above one", func(c *Config) { c.Simulation.Damping = 2 }},
		{"unknown scene", func(c *Config) { c.Scene = "fluid" }},
		{"empty rope", func(c *Config) { c.Rope.Segments = 0 }},
		{"thin cloth", func(c *Config) { c.Scene = "cloth"; c.Cloth.Width = 1 }},
		{"flat mesh", func(c *Config) { c.Scene = "mesh"; c.Mesh.Scale = 0 }},
		{"empty drop", func(c *Config) { c.Scene = "drop"; c.Drop.Count = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.yaml")
	data := "scene: cloth\ndt: 0.02\ncloth:\n  width: 5\nsimulation:\n  substeps: 3\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scene != "cloth" || cfg.Dt != 0.02 || cfg.Cloth.Width != 5 || cfg.Simulation.Substeps != 3 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Cloth.Height != DefaultClothHeight {
		t.Errorf("missing key should keep default, got %d", cfg.Cloth.Height)
	}
	if cfg.Simulation.Gravity != 9.81 {
		t.Errorf("expected default gravity, got %v", cfg.Simulation.Gravity)
	}
}

func TestLoadTOML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scene.toml")
	data := "scene = \"drop\"\nduration = 4.0\n\n[drop]\ncount = 3\n\n[mesh]\noffset = [1.0, 2.0, 3.0]\n"
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Scene != "drop" || cfg.Duration != 4 || cfg.Drop.Count != 3 {
		t.Errorf("unexpected config: %+v", cfg)
	}
	if cfg.Mesh.Offset != [3]float64{1, 2, 3} {
		t.Errorf("expected offset [1 2 3], got %v", cfg.Mesh.Offset)
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name)
			cfg := GetPreset("cloth", "drape")
			if err := Save(path, cfg); err != nil {
				t.Fatalf("save: %v", err)
			}
			loaded, err := Load(path)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if *loaded != *cfg {
				t.Errorf("round trip mismatch:\n got %+v\nwant %+v", loaded, cfg)
			}
		})
	}
}

func TestLoadMissing(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestSet(t *testing.T) {
	cfg := DefaultConfig()

	tests := []struct {
		key   string
		value float64
		check func(*Config) bool
	}{
		{"simulation.substeps", 4.6, func(c *Config) bool { return c.Simulation.Substeps == 5 }},
		{"simulation.restitution", 0.7, func(c *Config) bool { return c.Simulation.Restitution == 0.7 }},
		{"rope.compliance", 0.01, func(c *Config) bool { return c.Rope.Compliance == 0.01 }},
		{"cloth.bend_compliance", 2, func(c *Config) bool { return c.Cloth.BendCompliance == 2 }},
		{"dt", 0.005, func(c *Config) bool { return c.Dt == 0.005 }},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if err := cfg.Set(tt.key, tt.value); err != nil {
				t.Fatalf("Set(%s) failed: %v", tt.key, err)
			}
			if !tt.check(cfg) {
				t.Errorf("Set(%s, %v) did not apply", tt.key, tt.value)
			}
		})
	}

	if err := cfg.Set("rope.colour", 1); err == nil {
		t.Error("expected error for unknown parameter")
	}

	keys := Params()
	for i := 1; i < len(keys); i++ {
		if keys[i-1] >= keys[i] {
			t.Fatalf("Params() not sorted: %v", keys)
		}
	}
}
