package experiment

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/sim"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

func TestAccumulator(t *testing.T) {
	tests := []struct {
		name     string
		maxTicks int
		deltas   []float64
		want     []int
	}{
		{"exact ticks", 0, []float64{0.1, 0.2}, []int{1, 2}},
		{"carry over", 0, []float64{0.05, 0.05, 0.05, 0.05}, []int{0, 1, 0, 1}},
		{"clamped backlog", 3, []float64{1.0, 0.1}, []int{3, 1}},
		{"ignores negative", 0, []float64{-1, 0.1}, []int{0, 1}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := NewAccumulator(0.1, tt.maxTicks)
			for i, d := range tt.deltas {
				// Nudge past rounding so exact multiples of the tick count.
				if got := a.Advance(d + 1e-12); got != tt.want[i] {
					t.Errorf("Advance #%d (%v) = %d, want %d", i, d, got, tt.want[i])
				}
			}
		})
	}
}

func TestAccumulatorAlpha(t *testing.T) {
	a := NewAccumulator(0.1, 0)
	a.Advance(0.25)
	if math.Abs(a.Alpha()-0.5) > 1e-9 {
		t.Errorf("Alpha() = %v, want 0.5", a.Alpha())
	}
	a.Reset()
	if a.Alpha() != 0 {
		t.Errorf("Alpha() after reset = %v", a.Alpha())
	}
}

func TestRegistry(t *testing.T) {
	r := NewRegistry()

	scenes := r.ListScenes()
	want := []string{"cloth", "drop", "mesh", "rope"}
	if len(scenes) != len(want) {
		t.Fatalf("ListScenes() = %v, want %v", scenes, want)
	}
	for i := range want {
		if scenes[i] != want[i] {
			t.Errorf("ListScenes()[%d] = %s, want %s", i, scenes[i], want[i])
		}
	}

	cfg := config.DefaultConfig()
	cfg.Scene = "fluid"
	if _, err := r.Build(cfg); err == nil {
		t.Error("expected error for unknown scene")
	}

	called := false
	r.Register("fluid", func(c *config.Config) (*xpbd.Simulation, error) {
		called = true
		return xpbd.NewSimulation(c.Solver()), nil
	})
	if _, err := r.Build(cfg); err != nil || !called {
		t.Errorf("custom builder not used: %v", err)
	}

	if len(r.DefaultMetrics()) == 0 {
		t.Error("expected default metrics")
	}
}

func TestExperimentRun(t *testing.T) {
	cfg := config.GetPreset("rope", "short")
	cfg.Duration = 1

	r := NewRegistry()
	world, err := r.Build(cfg)
	if err != nil {
		t.Fatalf("build: %v", err)
	}

	exp := New(cfg)
	if _, err := exp.Run(context.Background()); err == nil {
		t.Error("expected error before Setup")
	}
	if err := exp.Setup(world, r.DefaultMetrics()); err != nil {
		t.Fatalf("setup: %v", err)
	}

	result, err := exp.Run(context.Background())
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if result.StepsTaken != cfg.Steps() {
		t.Errorf("expected %d steps, got %d", cfg.Steps(), result.StepsTaken)
	}
	if len(result.Frames) != cfg.Steps()+1 {
		t.Errorf("expected %d frames, got %d", cfg.Steps()+1, len(result.Frames))
	}
	for _, name := range []string{"kinetic_energy", "energy_drift", "max_stretch", "contacts", "stability"} {
		if _, ok := result.Metrics[name]; !ok {
			t.Errorf("missing metric %s", name)
		}
	}
	if result.Metrics["kinetic_energy"] <= 0 {
		t.Error("a falling rope should have kinetic energy")
	}
	if exp.GetSimulator().World() != world {
		t.Error("simulator should drive the given world")
	}
}

func TestExperimentNonFinite(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Duration = 1

	world := xpbd.NewSimulation(cfg.Solver())
	world.AddParticle(xpbd.NewParticle(mgl64.Vec3{}, mgl64.Vec3{math.NaN(), 0, 0}, 1, true))

	exp := New(cfg)
	if err := exp.Setup(world, nil); err != nil {
		t.Fatal(err)
	}
	_, err := exp.Run(context.Background())

	var simErr sim.SimError
	if !errors.As(err, &simErr) {
		t.Fatalf("expected SimError, got %v", err)
	}
	if simErr.Step != 0 {
		t.Errorf("expected failure at step 0, got %d", simErr.Step)
	}

	if err := New(cfg).Setup(nil, nil); err == nil {
		t.Error("expected error for nil world")
	}
}
