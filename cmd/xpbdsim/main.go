package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/xpbdsim/internal/analysis"
	"github.com/san-kum/xpbdsim/internal/automation"
	"github.com/san-kum/xpbdsim/internal/compute"
	"github.com/san-kum/xpbdsim/internal/config"
	"github.com/san-kum/xpbdsim/internal/experiment"
	"github.com/san-kum/xpbdsim/internal/export"
	"github.com/san-kum/xpbdsim/internal/optim"
	"github.com/san-kum/xpbdsim/internal/sim"
	"github.com/san-kum/xpbdsim/internal/storage"
	"github.com/san-kum/xpbdsim/internal/stream"
	"github.com/san-kum/xpbdsim/internal/viz"
	"github.com/san-kum/xpbdsim/internal/xpbd"
	"github.com/spf13/cobra"
)

var (
	dataDir    string
	dt         float64
	duration   float64
	seed       int64
	substeps   int
	iterations int
	configFile string
	preset     string
	overrides  []string
	// Trajectory selection
	particle int
	axis     string
	// Outputs
	outFile string
	width   int
	height  int
	// Streaming
	addr  string
	every int
	// Benchmark and tuning
	runs       int
	tuneParams []string
	metricName string
	maximize   bool
	saveConfig string
	// Monte Carlo
	trials  int
	jitter  float64
	mcLimit float64
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "xpbdsim",
		Short: "position based dynamics playground",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(experiment.NewRegistry())
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".xpbdsim", "data directory")

	runCmd := &cobra.Command{
		Use:   "run [scene]",
		Short: "run a scene headless and save the trajectory",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runSimulation,
	}
	sceneFlags(runCmd)
	runCmd.Flags().Float64Var(&duration, "time", config.DefaultDuration, "duration")
	runCmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random seed")

	liveCmd := &cobra.Command{
		Use:   "live [scene]",
		Short: "run a scene in the terminal with mouse grabbing",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runLive,
	}
	sceneFlags(liveCmd)
	liveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	liveCmd.Flags().StringVar(&viz.GIFPath, "gif", viz.GIFPath, "recording output file")

	serveCmd := &cobra.Command{
		Use:   "serve [scene]",
		Short: "stream a scene to WebSocket clients",
		Args:  cobra.MaximumNArgs(1),
		RunE:  serveScene,
	}
	sceneFlags(serveCmd)
	serveCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	serveCmd.Flags().StringVar(&addr, "addr", ":8080", "listen address")
	serveCmd.Flags().IntVar(&every, "every", stream.DefaultBroadcastEvery, "ticks between broadcasts")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	scenesCmd := &cobra.Command{
		Use:   "scenes",
		Short: "list scenes and their presets",
		RunE: func(cmd *cobra.Command, args []string) error {
			w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "SCENE\tPRESETS")
			for _, name := range experiment.NewRegistry().ListScenes() {
				fmt.Fprintf(w, "%s\t%s\n", name, strings.Join(config.ListPresets(name), ", "))
			}
			return w.Flush()
		},
	}

	presetsCmd := &cobra.Command{
		Use:   "presets [scene]",
		Short: "list available presets for a scene",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			presets := config.ListPresets(args[0])
			if len(presets) == 0 {
				fmt.Printf("no presets for scene: %s\n", args[0])
				return nil
			}
			fmt.Printf("presets for %s:\n", args[0])
			for _, p := range presets {
				fmt.Printf("  %s\n", p)
			}
			return nil
		},
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list parameters accepted by --set and tune",
		Run: func(cmd *cobra.Command, args []string) {
			for _, p := range config.Params() {
				fmt.Println(p)
			}
		},
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot a particle coordinate over time",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}
	trajectoryFlags(plotCmd)

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "frequency analysis of a particle coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	trajectoryFlags(analyzeCmd)

	phaseCmd := &cobra.Command{
		Use:   "phase [run_id]",
		Short: "phase space plot of a particle coordinate",
		Args:  cobra.ExactArgs(1),
		RunE:  phasePlot,
	}
	trajectoryFlags(phaseCmd)
	phaseCmd.Flags().StringVarP(&outFile, "out", "o", "", "also write the portrait as SVG")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export run metadata",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}

	exportCSVCmd := &cobra.Command{
		Use:   "export-csv [run_id]",
		Short: "export run trajectory to CSV",
		Args:  cobra.ExactArgs(1),
		RunE:  exportCSV,
	}
	exportCSVCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export run data to JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id] [frame]",
		Short: "render one recorded frame as an SVG wireframe",
		Args:  cobra.RangeArgs(1, 2),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outFile, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().IntVar(&width, "width", 800, "image width")
	exportSVGCmd.Flags().IntVar(&height, "height", 600, "image height")

	benchCmd := &cobra.Command{
		Use:   "bench [scene]",
		Short: "benchmark a scene across substep counts",
		Args:  cobra.MaximumNArgs(1),
		RunE:  benchScene,
	}
	sceneFlags(benchCmd)
	benchCmd.Flags().Float64Var(&duration, "time", 2.0, "duration")
	benchCmd.Flags().IntVar(&runs, "runs", 4, "concurrent runs per setting")

	tuneCmd := &cobra.Command{
		Use:   "tune [scene]",
		Short: "grid search solver parameters against a metric",
		Args:  cobra.MaximumNArgs(1),
		RunE:  tuneScene,
	}
	sceneFlags(tuneCmd)
	tuneCmd.Flags().Float64Var(&duration, "time", 2.0, "duration")
	tuneCmd.Flags().StringArrayVar(&tuneParams, "param", nil, "parameter range key=lo:hi:n (repeatable)")
	tuneCmd.Flags().StringVar(&metricName, "metric", "max_stretch", "metric to optimise")
	tuneCmd.Flags().BoolVar(&maximize, "maximize", false, "maximise instead of minimise")
	tuneCmd.Flags().StringVar(&saveConfig, "save", "", "write the best config to this file")

	scriptCmd := &cobra.Command{
		Use:   "script [file]",
		Short: "run a YAML scenario and save every step",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}

	monteCarloCmd := &cobra.Command{
		Use:   "montecarlo [scene]",
		Short: "check stability under jittered starting positions",
		Args:  cobra.MaximumNArgs(1),
		RunE:  runMonteCarlo,
	}
	sceneFlags(monteCarloCmd)
	monteCarloCmd.Flags().Float64Var(&duration, "time", 2.0, "duration")
	monteCarloCmd.Flags().Int64Var(&seed, "seed", 0, "random seed")
	monteCarloCmd.Flags().IntVar(&trials, "trials", 20, "number of trials")
	monteCarloCmd.Flags().Float64Var(&jitter, "jitter", 0.05, "maximum position offset per axis")
	monteCarloCmd.Flags().Float64Var(&mcLimit, "limit", 1e6, "coordinate magnitude counted as diverged")

	rootCmd.AddCommand(scriptCmd, monteCarloCmd, runCmd, liveCmd, serveCmd, listCmd, scenesCmd, presetsCmd, paramsCmd,
		plotCmd, analyzeCmd, phaseCmd, exportCmd, exportCSVCmd, exportJSONCmd, exportSVGCmd,
		benchCmd, tuneCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().Float64Var(&dt, "dt", config.DefaultDt, "timestep")
	cmd.Flags().IntVar(&substeps, "substeps", 0, "solver substeps per step")
	cmd.Flags().IntVar(&iterations, "iterations", 0, "solver iterations per substep")
	cmd.Flags().StringVar(&configFile, "config", "", "config file path (yaml or toml)")
	cmd.Flags().StringVar(&preset, "preset", "", "use preset configuration")
	cmd.Flags().StringArrayVar(&overrides, "set", nil, "override a parameter, key=value (repeatable)")
}

func trajectoryFlags(cmd *cobra.Command) {
	cmd.Flags().IntVarP(&particle, "particle", "p", -1, "particle index (default last)")
	cmd.Flags().StringVar(&axis, "axis", "y", "coordinate axis: x, y or z")
}

// loadConfig resolves the scene config. Presets are applied first, then the
// config file, then explicit flags and --set overrides.
func loadConfig(cmd *cobra.Command, args []string) (*config.Config, error) {
	cfg := config.DefaultConfig()
	if len(args) > 0 {
		cfg.Scene = args[0]
	}

	if preset != "" {
		p := config.GetPreset(cfg.Scene, preset)
		if p == nil {
			return nil, fmt.Errorf("unknown preset: %s (available: %v)", preset, config.ListPresets(cfg.Scene))
		}
		cfg = p
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		if len(args) > 0 {
			loaded.Scene = args[0]
		}
		cfg = loaded
	}

	flags := cmd.Flags()
	if flags.Changed("dt") {
		cfg.Dt = dt
	}
	if v, ok := flagValue(cmd, "time"); ok && (flags.Changed("time") || (preset == "" && configFile == "")) {
		d, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, err
		}
		cfg.Duration = d
	}
	if v, ok := flagValue(cmd, "seed"); ok && (flags.Changed("seed") || cfg.Seed == 0) {
		s, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return nil, err
		}
		cfg.Seed = s
	}
	if flags.Changed("substeps") {
		cfg.Simulation.Substeps = substeps
	}
	if flags.Changed("iterations") {
		cfg.Simulation.Iterations = iterations
	}
	for _, kv := range overrides {
		key, value, err := parseOverride(kv)
		if err != nil {
			return nil, err
		}
		if err := cfg.Set(key, value); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// flagValue reads a flag whose variable is shared between commands. An unset
// flag reports the default registered on cmd itself.
func flagValue(cmd *cobra.Command, name string) (string, bool) {
	f := cmd.Flags().Lookup(name)
	if f == nil {
		return "", false
	}
	if f.Changed {
		return f.Value.String(), true
	}
	return f.DefValue, true
}

func runSimulation(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	registry := experiment.NewRegistry()
	world, err := registry.Build(cfg)
	if err != nil {
		return err
	}
	edges := sim.Edges(world)

	exp := experiment.New(cfg)
	if err := exp.Setup(world, registry.DefaultMetrics()); err != nil {
		return err
	}

	fmt.Printf("running %s simulation...\n", cfg.Scene)
	start := time.Now()

	result, runErr := exp.Run(context.Background())
	if result == nil {
		return runErr
	}

	elapsed := time.Since(start)

	runID, err := st.Save(storage.RunMetadata{
		Scene:    cfg.Scene,
		Seed:     cfg.Seed,
		Dt:       cfg.Dt,
		Duration: cfg.Duration,
		Solver:   solverSettings(cfg),
		Edges:    edges,
	}, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("steps: %d\n", result.StepsTaken)
	fmt.Printf("particles: %d\n", len(world.Particles))
	fmt.Printf("projections: %d (%d skipped)\n", result.Totals.Projections, result.Totals.Skipped)
	fmt.Printf("contacts: %d\n", result.Totals.Contacts)
	printMetrics(result.Metrics)

	if runErr != nil {
		return fmt.Errorf("run stopped early: %w", runErr)
	}
	return nil
}

func solverSettings(cfg *config.Config) storage.SolverSettings {
	return storage.SolverSettings{
		Substeps:    cfg.Simulation.Substeps,
		Iterations:  cfg.Simulation.Iterations,
		Damping:     cfg.Simulation.Damping,
		Friction:    cfg.Simulation.Friction,
		Restitution: cfg.Simulation.Restitution,
		Gravity:     cfg.Simulation.Gravity,
	}
}

func runScript(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Printf("%s\n", scenario.Description)
	}

	results, runErr := automation.RunScenario(context.Background(), scenario, experiment.NewRegistry())

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "\nSTEP\tSCENE\tRUN ID\tSTEPS\tMAX_STRETCH")
	for _, r := range results {
		runID, err := st.Save(storage.RunMetadata{
			Scene:    r.Config.Scene,
			Seed:     r.Config.Seed,
			Dt:       r.Config.Dt,
			Duration: r.Config.Duration,
			Solver:   solverSettings(r.Config),
			Edges:    r.Edges,
		}, r.Result)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%.4f\n", r.Name, r.Config.Scene, runID, r.Result.StepsTaken, r.Result.Metrics["max_stretch"])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	return runErr
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	fmt.Printf("monte carlo: %s, %d trials, jitter %.3f\n\n", cfg.Scene, trials, jitter)
	results, err := automation.RunMonteCarlo(context.Background(), &automation.MonteCarloConfig{
		Base:         cfg,
		Perturbation: jitter,
		NumTrials:    trials,
		Limit:        mcLimit,
		Seed:         cfg.Seed,
	}, experiment.NewRegistry())
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TRIAL\tSTABLE\tMAX_STRETCH\tENERGY")
	for _, r := range results {
		fmt.Fprintf(w, "%d\t%v\t%.4f\t%.3f\n", r.TrialID, r.Stable, r.MaxStretch, r.FinalEnergy)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	stable, unstable := automation.MonteCarloStats(results)
	fmt.Printf("\nstable: %d  unstable: %d\n", stable, unstable)
	return nil
}

func printMetrics(m map[string]float64) {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	fmt.Println("\nmetrics:")
	for _, name := range names {
		fmt.Printf("  %s: %.6f\n", name, m[name])
	}
}

func runLive(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	return viz.Run(cfg, experiment.NewRegistry().Build)
}

func serveScene(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	server := stream.NewServer(cfg, experiment.NewRegistry().Build)
	server.Every = every
	return server.ListenAndServe(ctx, addr)
}

func listRuns(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	runs, err := st.List()
	if err != nil {
		return err
	}

	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENE\tTIME\tDURATION\tDT\tPARTICLES\tSUBSTEPS")

	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.2fs\t%.4fs\t%d\t%d\n",
			run.ID,
			run.Scene,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Duration,
			run.Dt,
			run.Particles,
			run.Solver.Substeps,
		)
	}

	return w.Flush()
}

// loadCoordinate reads a run and extracts the selected particle coordinate.
func loadCoordinate(runID string) (*storage.RunMetadata, []sim.Frame, []float64, int, int, error) {
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return nil, nil, nil, 0, 0, err
	}

	frames, _, err := st.LoadTrajectory(runID)
	if err != nil {
		return nil, nil, nil, 0, 0, err
	}
	if len(frames) == 0 {
		return nil, nil, nil, 0, 0, fmt.Errorf("no data to plot")
	}

	ax, err := parseAxis(axis)
	if err != nil {
		return nil, nil, nil, 0, 0, err
	}
	idx := particle
	if idx < 0 {
		idx = frames[0].Len() - 1
	}

	data := analysis.Coordinate(frames, idx, ax)
	if data == nil {
		return nil, nil, nil, 0, 0, fmt.Errorf("particle %d out of range (run has %d)", idx, frames[0].Len())
	}
	return meta, frames, data, idx, ax, nil
}

func plotRun(cmd *cobra.Command, args []string) error {
	meta, frames, data, idx, _, err := loadCoordinate(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("samples: %d\n\n", len(frames))

	graph := asciigraph.Plot(data,
		asciigraph.Height(10),
		asciigraph.Width(80),
		asciigraph.Caption(fmt.Sprintf("particle %d %s vs time", idx, axis)),
	)
	fmt.Println(graph)
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	meta, _, data, idx, _, err := loadCoordinate(args[0])
	if err != nil {
		return err
	}

	fmt.Printf("frequency analysis: %s\n", meta.ID)
	fmt.Printf("scene: %s\n\n", meta.Scene)

	ps := analysis.PowerSpectrum(data)
	if len(ps) > 4 {
		ps = ps[1 : len(ps)/2]
	}
	if len(ps) > 0 {
		graph := asciigraph.Plot(ps,
			asciigraph.Height(15),
			asciigraph.Width(80),
			asciigraph.Caption(fmt.Sprintf("power spectrum (particle %d %s)", idx, axis)),
		)
		fmt.Println(graph)
		fmt.Println()
	}

	freq := analysis.DominantFrequency(data, meta.Dt)
	fmt.Printf("dominant frequency: %.3f hz\n", freq)
	if freq > 0 {
		fmt.Printf("period: %.3f s\n", 1.0/freq)
	}
	return nil
}

func phasePlot(cmd *cobra.Command, args []string) error {
	meta, frames, _, idx, ax, err := loadCoordinate(args[0])
	if err != nil {
		return err
	}

	portrait := analysis.GeneratePhasePortrait(frames, idx, ax, meta.Dt)
	if portrait == nil {
		return fmt.Errorf("not enough samples for a phase portrait")
	}

	fmt.Printf("phase space plot: %s\n", meta.ID)
	fmt.Printf("scene: %s\n", meta.Scene)
	fmt.Printf("particle %d, %s vs d%s/dt\n\n", idx, axis, axis)
	fmt.Println(analysis.PhasePortraitToASCII(portrait, 80, 24))

	if outFile == "" {
		return nil
	}
	xs := make([]float64, len(portrait.Points))
	vs := make([]float64, len(portrait.Points))
	for i, p := range portrait.Points {
		xs[i], vs[i] = p.X, p.Y
	}
	svg := export.PathToSVG(xs, vs, 600, 600, "#00ff88")
	if err := os.WriteFile(outFile, []byte(svg), 0644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", outFile)
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(meta)
}

// output returns stdout, or the --out file when one was given.
func output() (*os.File, func() error, error) {
	if outFile == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outFile)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportCSV(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	frames, times, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	out, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.WriteCSV(out, frames, times); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func exportJSON(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, times, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}

	out, closeOut, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportJSON(out, meta, frames, times); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	frames, _, err := st.LoadTrajectory(args[0])
	if err != nil {
		return err
	}
	if len(frames) == 0 {
		return fmt.Errorf("no frames recorded")
	}

	idx := len(frames) - 1
	if len(args) > 1 {
		n, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid frame index %q", args[1])
		}
		idx = n
		if idx < 0 || idx >= len(frames) {
			return fmt.Errorf("frame %d out of range (run has %d)", idx, len(frames))
		}
	}

	// Frame the whole run so consecutive exports share a viewpoint.
	cam := export.FrameCamera(frames[0])
	svg := export.WireframeToSVG(frames[idx], meta.Edges, cam, width, height, "#00ff88")

	out, closeOut, err := output()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(out, svg); err != nil {
		closeOut()
		return err
	}
	return closeOut()
}

func benchScene(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	registry := experiment.NewRegistry()

	fmt.Printf("benchmarking %s (%d runs per setting)\n\n", base.Scene, runs)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SUBSTEPS\tSTEPS\tPROJECTIONS\tTIME\tSTEPS/SEC\tMAX_STRETCH")

	for _, n := range []int{1, 5, 10, 20} {
		cfg := base.Clone()
		cfg.Simulation.Substeps = n

		ens := sim.NewEnsemble(
			func(s int64) (*xpbd.Simulation, error) {
				c := cfg.Clone()
				c.Seed = s
				return registry.Build(c)
			},
			registry.DefaultMetrics,
			runs,
			1,
		)

		start := time.Now()
		results, err := ens.Run(context.Background(), sim.Config{Dt: cfg.Dt, Duration: cfg.Duration})
		if err != nil {
			return err
		}
		elapsed := time.Since(start)

		steps, projections, stretch := 0, 0, 0.0
		for _, r := range results {
			steps += r.StepsTaken
			projections += r.Totals.Projections
			stretch = max(stretch, r.Metrics["max_stretch"])
		}

		fmt.Fprintf(w, "%d\t%d\t%d\t%v\t%.0f\t%.4f\n",
			n, steps, projections, elapsed.Round(time.Millisecond), float64(steps)/elapsed.Seconds(), stretch)
	}

	return w.Flush()
}

func tuneScene(cmd *cobra.Command, args []string) error {
	base, err := loadConfig(cmd, args)
	if err != nil {
		return err
	}
	if len(tuneParams) == 0 {
		return fmt.Errorf("at least one --param key=lo:hi:n is required (see 'xpbdsim params')")
	}

	names := make([]string, len(tuneParams))
	ranges := make([][]float64, len(tuneParams))
	for i, arg := range tuneParams {
		name, values, err := parseRange(arg)
		if err != nil {
			return err
		}
		names[i], ranges[i] = name, values
	}

	gs := optim.NewGridSearch(names, ranges)
	gs.Maximize = maximize
	gs.Backend = compute.NewCPUBackend(0)
	fmt.Printf("tuning %s: %d trials on %s\n\n", base.Scene, gs.Size(), metricName)

	registry := experiment.NewRegistry()
	best, trials, err := gs.Search(context.Background(), optim.ConfigBuilder(base, registry), metricName)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\t%s\n", strings.ToUpper(strings.Join(names, "\t")), strings.ToUpper(metricName))
	for _, tr := range trials {
		row := make([]string, len(names))
		for i, name := range names {
			row[i] = fmt.Sprintf("%g", tr.Params[name])
		}
		score := fmt.Sprintf("%.6f", tr.Score)
		if tr.Err != nil {
			score = "failed: " + tr.Err.Error()
		}
		fmt.Fprintf(w, "%s\t%s\n", strings.Join(row, "\t"), score)
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println("\nbest:")
	for _, name := range names {
		fmt.Printf("  %s = %g\n", name, best.Params[name])
	}
	fmt.Printf("  %s = %.6f\n", metricName, best.Score)

	if saveConfig == "" {
		return nil
	}
	cfg := base.Clone()
	for name, v := range best.Params {
		if err := cfg.Set(name, v); err != nil {
			return err
		}
	}
	if err := config.Save(saveConfig, cfg); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", saveConfig)
	return nil
}
