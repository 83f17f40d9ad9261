package sim

import (
	"context"
	"fmt"
	"math"

	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Simulator drives an xpbd.Simulation at a fixed tick, feeding metrics and
// observers after every step.
type Simulator struct {
	world     *xpbd.Simulation
	metrics   []Metric
	observers []Observer
}

func New(world *xpbd.Simulation) *Simulator {
	return &Simulator{
		world:     world,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) AddMetric(m Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) World() *xpbd.Simulation { return s.world }

func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	result := &Result{
		Times:   make([]float64, 0, steps+1),
		Metrics: make(map[string]float64),
		Errors:  make([]error, 0),
	}
	if cfg.Record {
		result.Frames = make([]Frame, 0, steps+1)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	t := 0.0
	s.record(result, cfg, t)
	initialEnergy := s.totalEnergy()

	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		s.world.Step(cfg.Dt)
		t = float64(i+1) * cfg.Dt
		accumulate(&result.Totals, s.world.Stats())

		if cfg.ValidateState && !s.world.Finite() {
			err := SimError{Time: t, Step: i, Message: "invalid state (NaN/Inf)"}
			result.Errors = append(result.Errors, err)
			break
		}

		for _, m := range s.metrics {
			m.Observe(s.world, t)
		}
		for _, obs := range s.observers {
			obs.OnStep(s.world, t)
		}

		result.StepsTaken++
		s.record(result, cfg, t)
	}

	if initialEnergy != 0 {
		result.EnergyDrift = math.Abs(s.totalEnergy()-initialEnergy) / math.Abs(initialEnergy)
	}
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}

	return result, nil
}

func (s *Simulator) record(result *Result, cfg Config, t float64) {
	result.Times = append(result.Times, t)
	if cfg.Record {
		result.Frames = append(result.Frames, Capture(s.world, nil))
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.Dt <= 0 {
		return fmt.Errorf("dt must be positive, got %f", cfg.Dt)
	}
	if cfg.Duration <= 0 {
		return fmt.Errorf("duration must be positive, got %f", cfg.Duration)
	}
	return s.world.Config.Validate()
}

func (s *Simulator) totalEnergy() float64 {
	ke, pe := s.world.Energy()
	return ke + pe
}

// RunWithCallback steps until Duration elapses, the context ends or the
// callback returns false. The callback sees the state before each step.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(w *xpbd.Simulation, t float64) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	steps := int(cfg.Duration/cfg.Dt + 0.5)
	for i := 0; i < steps; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		t := float64(i) * cfg.Dt
		if !callback(s.world, t) {
			return nil
		}

		s.world.Step(cfg.Dt)

		if cfg.ValidateState && !s.world.Finite() {
			return SimError{Time: t + cfg.Dt, Step: i, Message: "invalid state (NaN/Inf)"}
		}
	}

	return nil
}

func accumulate(total *xpbd.StepStats, step xpbd.StepStats) {
	total.Substeps += step.Substeps
	total.Projections += step.Projections
	total.Skipped += step.Skipped
	total.Contacts += step.Contacts
	total.ActiveContacts += step.ActiveContacts
}
