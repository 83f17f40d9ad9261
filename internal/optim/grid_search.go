// Package optim tunes numeric config parameters by exhaustive search.
package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/xpbdsim/internal/compute"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
)

var ErrNoTrials = errors.New("no trial completed")

// Trial is one evaluated point of the grid.
type Trial struct {
	Params map[string]float64
	Score  float64
	Err    error
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64

	// Maximize picks the highest score instead of the lowest.
	Maximize bool
	// Backend evaluates grid points; nil runs them one at a time.
	Backend compute.Backend
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges}
}

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.paramNames) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// BuildFunc prepares a runnable experiment for one grid point. It may be
// called from several goroutines when a parallel Backend is set.
type BuildFunc func(params map[string]float64) (*experiment.Experiment, error)

// Search runs every grid point and scores it by metricName. Failed trials
// are recorded and skipped. It returns the best trial and all trials in
// grid order, whatever the backend.
func (g *GridSearch) Search(ctx context.Context, build BuildFunc, metricName string) (*Trial, []Trial, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, nil, fmt.Errorf("%d parameters but %d ranges", len(g.paramNames), len(g.ranges))
	}
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	var points []map[string]float64
	g.enumerate(0, map[string]float64{}, &points)

	backend := g.Backend
	if backend == nil {
		backend = compute.Serial
	}
	trials := compute.Gather(backend, len(points), 1, func(start, end int, dst []Trial) []Trial {
		for _, p := range points[start:end] {
			dst = append(dst, evaluate(ctx, p, build, metricName))
		}
		return dst
	})
	if err := ctx.Err(); err != nil {
		return nil, trials, err
	}

	var best *Trial
	for i := range trials {
		t := &trials[i]
		if t.Err != nil || math.IsNaN(t.Score) {
			continue
		}
		if best == nil || g.better(t.Score, best.Score) {
			best = t
		}
	}
	if best == nil {
		return nil, trials, ErrNoTrials
	}
	return best, trials, nil
}

func (g *GridSearch) better(a, b float64) bool {
	if g.Maximize {
		return a > b
	}
	return a < b
}

// enumerate appends every combination of the ranges below depth, varying
// the last parameter fastest.
func (g *GridSearch) enumerate(depth int, current map[string]float64, points *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*points = append(*points, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val
		g.enumerate(depth+1, next, points)
	}
}

func evaluate(ctx context.Context, params map[string]float64, build BuildFunc, metricName string) Trial {
	trial := Trial{Params: params, Score: math.NaN()}
	if err := ctx.Err(); err != nil {
		trial.Err = err
		return trial
	}

	exp, err := build(params)
	if err != nil {
		trial.Err = err
		return trial
	}
	result, err := exp.Run(ctx)
	if err != nil {
		trial.Err = err
		return trial
	}
	v, ok := result.Metrics[metricName]
	if !ok {
		trial.Err = fmt.Errorf("metric %s not recorded", metricName)
		return trial
	}
	trial.Score = v
	return trial
}

// ConfigBuilder returns a BuildFunc that applies each grid point to a copy
// of base and builds the scene through registry.
func ConfigBuilder(base *config.Config, registry *experiment.Registry) BuildFunc {
	return func(params map[string]float64) (*experiment.Experiment, error) {
		cfg := base.Clone()
		for k, v := range params {
			if err := cfg.Set(k, v); err != nil {
				return nil, err
			}
		}
		world, err := registry.Build(cfg)
		if err != nil {
			return nil, err
		}
		exp := experiment.New(cfg)
		if err := exp.Setup(world, registry.DefaultMetrics()); err != nil {
			return nil, err
		}
		return exp, nil
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + step*float64(i)
	}
	out[n-1] = hi
	return out
}
