package experiment

import (
	"context"
	"fmt"

	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/sim"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

type Experiment struct {
	cfg       *config.Config
	simulator *sim.Simulator
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

// Setup attaches a prepared world and the metrics to record.
func (e *Experiment) Setup(world *xpbd.Simulation, metrics []sim.Metric) error {
	if world == nil {
		return fmt.Errorf("experiment needs a simulation")
	}
	e.simulator = sim.New(world)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}

	simCfg := sim.Config{
		Dt:            e.cfg.Dt,
		Duration:      e.cfg.Duration,
		Record:        true,
		ValidateState: true,
	}

	result, err := e.simulator.Run(ctx, simCfg)
	if err != nil {
		return result, err
	}
	if len(result.Errors) > 0 {
		return result, result.Errors[0]
	}
	return result, nil
}

// GetSimulator returns the underlying simulator for adding observers
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}
