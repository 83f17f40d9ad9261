package sim

import (
	"context"

	"github.com/san-kum/xpbdsim/internal/compute"
	"github.com/san-kum/xpbdsim/internal/xpbd"
)

// Ensemble runs independent simulations, one per seed, on a bounded pool of
// goroutines. Each run builds its own world so no particle is shared between
// goroutines.
type Ensemble struct {
	build     func(seed int64) (*xpbd.Simulation, error)
	metrics   func() []Metric
	numRuns   int
	seedStart int64
	backend   compute.Backend
}

func NewEnsemble(build func(seed int64) (*xpbd.Simulation, error), metrics func() []Metric, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		build:     build,
		metrics:   metrics,
		numRuns:   numRuns,
		seedStart: seedStart,
		backend:   compute.NewCPUBackend(0),
	}
}

// WithBackend replaces the worker pool, e.g. compute.Serial.
func (e *Ensemble) WithBackend(b compute.Backend) *Ensemble {
	e.backend = b
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	e.backend.ParallelFor(e.numRuns, 1, func(start, end int) {
		for idx := start; idx < end; idx++ {
			results[idx], errs[idx] = e.runOne(ctx, cfg, idx)
		}
	})

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}

func (e *Ensemble) runOne(ctx context.Context, cfg Config, idx int) (*Result, error) {
	world, err := e.build(e.seedStart + int64(idx))
	if err != nil {
		return nil, err
	}

	s := New(world)
	if e.metrics != nil {
		for _, m := range e.metrics() {
			s.AddMetric(m)
		}
	}
	return s.Run(ctx, cfg)
}
