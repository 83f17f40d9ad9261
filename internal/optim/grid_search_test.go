package optim

import (
	"context"
	"errors"
	"testing"

	"github.com/san-kum/xpbdsim/internal/compute"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
)

func shortRope() *config.Config {
	cfg := config.GetPreset("rope", "short")
	cfg.Duration = 0.5
	return cfg
}

func TestGridSearchPicksStiffRope(t *testing.T) {
	g := NewGridSearch([]string{"rope.compliance"}, [][]float64{{0.5, 0}})
	build := ConfigBuilder(shortRope(), experiment.NewRegistry())

	best, trials, err := g.Search(context.Background(), build, "max_stretch")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(trials) != 2 {
		t.Fatalf("expected 2 trials, got %d", len(trials))
	}
	if best.Params["rope.compliance"] != 0 {
		t.Errorf("expected the rigid rope to stretch least, got %v", best.Params)
	}
	if best.Score >= trials[0].Score {
		t.Errorf("best score %v should beat %v", best.Score, trials[0].Score)
	}

	g.Maximize = true
	worst, _, err := g.Search(context.Background(), build, "max_stretch")
	if err != nil {
		t.Fatal(err)
	}
	if worst.Params["rope.compliance"] != 0.5 {
		t.Errorf("maximize should pick the soft rope, got %v", worst.Params)
	}
}

func TestGridSearchRecordsFailures(t *testing.T) {
	g := NewGridSearch(
		[]string{"simulation.substeps", "simulation.damping"},
		[][]float64{{0, 2}, {0.9, 1}},
	)
	if g.Size() != 4 {
		t.Errorf("expected 4 grid points, got %d", g.Size())
	}

	best, trials, err := g.Search(context.Background(), ConfigBuilder(shortRope(), experiment.NewRegistry()), "kinetic_energy")
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(trials) != 4 {
		t.Fatalf("expected 4 trials, got %d", len(trials))
	}
	failed := 0
	for _, tr := range trials {
		if tr.Err != nil {
			failed++
			if !errors.Is(tr.Err, config.ErrInvalid) {
				t.Errorf("unexpected trial error: %v", tr.Err)
			}
		}
	}
	if failed != 2 {
		t.Errorf("expected 2 failed trials, got %d", failed)
	}
	if best.Params["simulation.substeps"] != 2 {
		t.Errorf("best trial used invalid params: %v", best.Params)
	}
}

func TestGridSearchParallelMatchesSerial(t *testing.T) {
	ranges := [][]float64{{0, 0.01, 0.1}, {2, 4}}
	names := []string{"rope.compliance", "simulation.iterations"}
	build := ConfigBuilder(shortRope(), experiment.NewRegistry())

	_, serial, err := NewGridSearch(names, ranges).Search(context.Background(), build, "max_stretch")
	if err != nil {
		t.Fatalf("serial search failed: %v", err)
	}

	g := NewGridSearch(names, ranges)
	g.Backend = compute.NewCPUBackend(3)
	_, parallel, err := g.Search(context.Background(), build, "max_stretch")
	if err != nil {
		t.Fatalf("parallel search failed: %v", err)
	}

	if len(parallel) != 6 || len(serial) != 6 {
		t.Fatalf("expected 6 trials each, got %d and %d", len(serial), len(parallel))
	}
	for i := range serial {
		if serial[i].Score != parallel[i].Score || serial[i].Params["rope.compliance"] != parallel[i].Params["rope.compliance"] {
			t.Errorf("trial %d differs: %+v vs %+v", i, serial[i], parallel[i])
		}
	}
	if serial[1].Params["simulation.iterations"] != 4 {
		t.Errorf("last parameter should vary fastest, got %v", serial[1].Params)
	}
}

func TestGridSearchErrors(t *testing.T) {
	build := ConfigBuilder(shortRope(), experiment.NewRegistry())

	if _, _, err := NewGridSearch([]string{"dt"}, nil).Search(context.Background(), build, "kinetic_energy"); err == nil {
		t.Error("expected error for mismatched ranges")
	}

	g := NewGridSearch([]string{"rope.colour"}, [][]float64{{1}})
	if _, _, err := g.Search(context.Background(), build, "kinetic_energy"); !errors.Is(err, ErrNoTrials) {
		t.Errorf("expected ErrNoTrials, got %v", err)
	}

	g = NewGridSearch([]string{"rope.compliance"}, [][]float64{{0}})
	if _, _, err := g.Search(context.Background(), build, "missing"); !errors.Is(err, ErrNoTrials) {
		t.Errorf("expected ErrNoTrials for unknown metric, got %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, _, err := g.Search(ctx, build, "kinetic_energy"); !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestLinspace(t *testing.T) {
	got := Linspace(0, 1, 5)
	want := []float64{0, 0.25, 0.5, 0.75, 1}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Linspace()[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if len(Linspace(0, 1, 0)) != 0 || Linspace(3, 4, 1)[0] != 3 {
		t.Error("unexpected degenerate Linspace")
	}
}
