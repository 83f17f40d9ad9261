// Package automation runs scripted batches of scenes and randomised
// robustness trials without a terminal.
package automation

import (
	"context"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
	"github.com/san-kum/xpbdsim/internal/sim"
	"gopkg.in/yaml.v3"
)

// Scenario defines a scripted sequence of runs.
type Scenario struct {
	Name        string         `yaml:"name"`
	Description string         `yaml:"description"`
	Steps       []ScenarioStep `yaml:"steps"`
}

// ScenarioStep is one run. Unset fields keep the preset's value, or the
// defaults when no preset is named. Set takes the keys of config.Params.
type ScenarioStep struct {
	Scene    string             `yaml:"scene"`
	Preset   string             `yaml:"preset"`
	Duration float64            `yaml:"duration"`
	Dt       float64            `yaml:"dt"`
	Seed     int64              `yaml:"seed"`
	Set      map[string]float64 `yaml:"set"`
	SaveAs   string             `yaml:"save_as"`
}

// StepResult pairs a finished step with the config it ran.
type StepResult struct {
	Name   string
	Config *config.Config
	Result *sim.Result
	Edges  [][2]int
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Steps) == 0 {
		return nil, fmt.Errorf("scenario %q has no steps", scenario.Name)
	}

	return &scenario, nil
}

// Config resolves the step into a validated config.
func (s ScenarioStep) Config() (*config.Config, error) {
	cfg := config.DefaultConfig()
	if s.Preset != "" {
		cfg = config.GetPreset(s.Scene, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s/%s", s.Scene, s.Preset)
		}
	}
	if s.Scene != "" {
		cfg.Scene = s.Scene
	}
	if s.Duration > 0 {
		cfg.Duration = s.Duration
	}
	if s.Dt > 0 {
		cfg.Dt = s.Dt
	}
	if s.Seed != 0 {
		cfg.Seed = s.Seed
	}
	for k, v := range s.Set {
		if err := cfg.Set(k, v); err != nil {
			return nil, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RunScenario executes all steps in order and stops at the first failure.
// Results of the steps that finished are returned with the error.
func RunScenario(ctx context.Context, scenario *Scenario, registry *experiment.Registry) ([]StepResult, error) {
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		name := step.SaveAs
		if name == "" {
			name = fmt.Sprintf("%s-%d", step.Scene, i+1)
		}
		log.Printf("running step %d/%d: %s", i+1, len(scenario.Steps), name)

		cfg, err := step.Config()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		world, err := registry.Build(cfg)
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}
		edges := sim.Edges(world)

		exp := experiment.New(cfg)
		if err := exp.Setup(world, registry.DefaultMetrics()); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}

		result, err := exp.Run(ctx)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		results = append(results, StepResult{Name: name, Config: cfg, Result: result, Edges: edges})
	}

	return results, nil
}

// MonteCarloConfig jitters the starting positions of a scene's movable
// particles and checks the solver settles without blowing up.
type MonteCarloConfig struct {
	Base         *config.Config
	Perturbation float64 // maximum offset per axis
	NumTrials    int
	Limit        float64 // coordinates beyond this count as diverged
	Seed         int64
}

// MonteCarloResult is the outcome of one trial.
type MonteCarloResult struct {
	TrialID     int
	Stable      bool
	MaxStretch  float64
	FinalEnergy float64
	Err         error
}

// RunMonteCarlo runs the trials sequentially from one seeded source.
func RunMonteCarlo(ctx context.Context, cfg *MonteCarloConfig, registry *experiment.Registry) ([]MonteCarloResult, error) {
	if cfg.Base == nil || cfg.NumTrials < 1 {
		return nil, fmt.Errorf("monte carlo needs a base config and at least one trial")
	}
	limit := cfg.Limit
	if !(limit > 0) {
		limit = 1e6
	}

	rng := rand.New(rand.NewSource(cfg.Seed))
	if cfg.Seed == 0 {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	results := make([]MonteCarloResult, 0, cfg.NumTrials)
	for trial := 0; trial < cfg.NumTrials; trial++ {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		world, err := registry.Build(cfg.Base)
		if err != nil {
			return nil, err
		}
		for _, p := range world.Particles {
			if p.InverseMass == 0 {
				continue
			}
			offset := mgl64.Vec3{rng.Float64() - 0.5, rng.Float64() - 0.5, rng.Float64() - 0.5}.Mul(2 * cfg.Perturbation)
			p.Position = p.Position.Add(offset)
			p.PreviousPosition = p.Position
		}

		s := sim.New(world)
		for _, m := range registry.DefaultMetrics() {
			s.AddMetric(m)
		}
		result, err := s.Run(ctx, sim.Config{Dt: cfg.Base.Dt, Duration: cfg.Base.Duration, ValidateState: true})
		if err != nil {
			return results, err
		}

		r := MonteCarloResult{TrialID: trial, Stable: true}
		if len(result.Errors) > 0 {
			r.Stable = false
			r.Err = result.Errors[0]
		} else {
			lo, hi := world.Bounds()
			for k := 0; k < 3; k++ {
				if math.Abs(lo[k]) > limit || math.Abs(hi[k]) > limit {
					r.Stable = false
				}
			}
			kinetic, potential := world.Energy()
			r.FinalEnergy = kinetic + potential
		}
		r.MaxStretch = result.Metrics["max_stretch"]
		results = append(results, r)

		if (trial+1)%10 == 0 {
			log.Printf("monte carlo: %d/%d trials complete", trial+1, cfg.NumTrials)
		}
	}

	return results, nil
}

// MonteCarloStats counts stable and unstable trials.
func MonteCarloStats(results []MonteCarloResult) (stableCount int, unstableCount int) {
	for _, r := range results {
		if r.Stable {
			stableCount++
		} else {
			unstableCount++
		}
	}
	return
}
