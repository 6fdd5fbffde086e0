package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/counterfall/internal/automation"
	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/export"
	"github.com/san-kum/counterfall/internal/gui"
	"github.com/san-kum/counterfall/internal/metrics"
	"github.com/san-kum/counterfall/internal/recorder"
	"github.com/san-kum/counterfall/internal/sim"
	"github.com/san-kum/counterfall/internal/storage"
	"github.com/san-kum/counterfall/internal/transport/ws"
	"github.com/san-kum/counterfall/internal/viz"
	"github.com/spf13/cobra"
)

var (
	dataDir  string
	logLevel string

	// scene selection
	configFile string
	preset     string
	step       int
	seed       int64

	maxTicks   int
	recordPath string
	outPath    string
	labels     bool
	fromRec    string
	numRuns    int
	addr       string
	plotReplay bool

	sweepParam string
	sweepMin   float64
	sweepMax   float64
	sweepSteps int

	logger *slog.Logger
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "counterfall",
		Short: "falling ingredients and equipment on a kitchen counter",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var lvl slog.Level
			if err := lvl.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("log level %q: %w", logLevel, err)
			}
			logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
			return nil
		},
		Run: func(cmd *cobra.Command, args []string) {
			gui.RunInteractive(logger)
		},
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".counterfall", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "settle one step of a scene and store the run",
		RunE:  runScene,
	}
	sceneFlags(runCmd)
	runCmd.Flags().IntVar(&maxTicks, "max-ticks", 0, "tick limit (default from config)")
	runCmd.Flags().StringVar(&recordPath, "record", "", "also record every frame to a .jsonl.zst file")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	plotCmd := &cobra.Command{
		Use:   "plot [run_id]",
		Short: "plot falling count and mean height of a run",
		Args:  cobra.ExactArgs(1),
		RunE:  plotRun,
	}

	exportJSONCmd := &cobra.Command{
		Use:   "export-json [run_id]",
		Short: "export a run as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportJSON,
	}
	exportJSONCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")

	exportSVGCmd := &cobra.Command{
		Use:   "export-svg [run_id]",
		Short: "draw the final layout of a run, or a recording's falling trace, as SVG",
		Args:  cobra.MaximumNArgs(1),
		RunE:  exportSVG,
	}
	exportSVGCmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	exportSVGCmd.Flags().BoolVar(&labels, "labels", true, "draw item names")
	exportSVGCmd.Flags().StringVar(&fromRec, "recording", "", "plot the falling count of a recording instead")

	replayCmd := &cobra.Command{
		Use:   "replay [file]",
		Short: "print or plot a recorded session",
		Args:  cobra.ExactArgs(1),
		RunE:  replay,
	}
	replayCmd.Flags().BoolVar(&plotReplay, "plot", false, "plot instead of listing frames")

	benchCmd := &cobra.Command{
		Use:   "bench",
		Short: "settle a step under many seeds and summarize",
		RunE:  bench,
	}
	sceneFlags(benchCmd)
	benchCmd.Flags().IntVar(&numRuns, "runs", 20, "number of seeds")

	liveCmd := &cobra.Command{
		Use:   "live",
		Short: "watch and drag items in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, title, err := loadScene()
			if err != nil {
				return err
			}
			return viz.Run(cfg, title, logger)
		},
	}
	sceneFlags(liveCmd)

	tuiCmd := &cobra.Command{
		Use:   "tui",
		Short: "pick a preset in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			return viz.RunInteractive(logger)
		},
	}

	guiCmd := &cobra.Command{
		Use:   "gui",
		Short: "open a scene in a window",
		RunE: func(cmd *cobra.Command, args []string) error {
			if configFile == "" && preset == "" {
				gui.RunInteractive(logger)
				return nil
			}
			cfg, title, err := loadScene()
			if err != nil {
				return err
			}
			gui.Run(cfg, title, logger)
			return nil
		},
	}
	sceneFlags(guiCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "serve a scene over websocket",
		RunE:  serve,
	}
	sceneFlags(serveCmd)
	serveCmd.Flags().StringVar(&addr, "addr", "127.0.0.1:8080", "listen address")

	scriptCmd := &cobra.Command{
		Use:   "script [scenario.yaml]",
		Short: "play a scripted scenario and check its expectations",
		Args:  cobra.ExactArgs(1),
		RunE:  runScript,
	}
	scriptCmd.Flags().StringVar(&recordPath, "record", "", "record the session to a .jsonl.zst file")

	sweepCmd := &cobra.Command{
		Use:   "sweep",
		Short: "settle a step across a range of one physics parameter",
		RunE:  sweep,
	}
	sceneFlags(sweepCmd)
	sweepCmd.Flags().StringVar(&sweepParam, "param", "acceleration", "parameter to sweep")
	sweepCmd.Flags().Float64Var(&sweepMin, "min", 1.01, "first value")
	sweepCmd.Flags().Float64Var(&sweepMax, "max", 1.3, "last value")
	sweepCmd.Flags().IntVar(&sweepSteps, "steps", 6, "number of values")

	tuneCmd := &cobra.Command{
		Use:   "tune",
		Short: "search physics parameters that settle a step fastest (CMA-ES)",
		RunE:  tune,
	}
	sceneFlags(tuneCmd)
	tuneFlags(tuneCmd)

	gridCmd := &cobra.Command{
		Use:   "grid",
		Short: "exhaustive grid search over physics parameters",
		RunE:  grid,
	}
	sceneFlags(gridCmd)
	gridFlags(gridCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [group]",
		Short: "list preset scenes",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			groups := config.ListGroups()
			if len(args) == 1 {
				groups = args
			}
			for _, g := range groups {
				names := config.ListPresets(g)
				if names == nil {
					return fmt.Errorf("no preset group %q", g)
				}
				fmt.Printf("%s:\n", g)
				for _, n := range names {
					fmt.Printf("  %s/%s\n", g, n)
				}
			}
			return nil
		},
	}

	paramsCmd := &cobra.Command{
		Use:   "params",
		Short: "list tunable physics parameters",
		RunE:  listParams,
	}
	sceneFlags(paramsCmd)

	rootCmd.AddCommand(runCmd, listCmd, plotCmd, exportJSONCmd, exportSVGCmd, replayCmd, benchCmd)
	rootCmd.AddCommand(liveCmd, tuiCmd, guiCmd, serveCmd, scriptCmd)
	rootCmd.AddCommand(sweepCmd, tuneCmd, gridCmd, presetsCmd, paramsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func sceneFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scene file (yaml)")
	cmd.Flags().StringVar(&preset, "preset", "", "preset scene as group/name")
	cmd.Flags().IntVar(&step, "step", 0, "recipe step to open")
	cmd.Flags().Int64Var(&seed, "seed", 0, "layout seed (default from config)")
}

// loadScene resolves --config and --preset, in that order, falling back to
// the default scene. Flags given explicitly override the file.
func loadScene() (*config.Config, string, error) {
	var cfg *config.Config
	switch {
	case configFile != "":
		c, err := config.Load(configFile)
		if err != nil {
			return nil, "", err
		}
		cfg = c
	case preset != "":
		group, name, ok := strings.Cut(preset, "/")
		if !ok {
			return nil, "", fmt.Errorf("preset %q: want group/name", preset)
		}
		p := config.GetPreset(group, name)
		if p == nil {
			return nil, "", fmt.Errorf("unknown preset %q", preset)
		}
		c := *p
		cfg = &c
	default:
		cfg = config.DefaultConfig()
	}
	if seed != 0 {
		cfg.Seed = seed
	}
	if step < 0 || step >= len(cfg.Steps) {
		return nil, "", fmt.Errorf("step %d out of range, scene has %d", step, len(cfg.Steps))
	}
	return cfg, cfg.Step(step).Title, nil
}

func runScene(cmd *cobra.Command, args []string) error {
	cfg, title, err := loadScene()
	if err != nil {
		return err
	}
	if maxTicks > 0 {
		cfg.MaxTicks = maxTicks
	}

	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	s := sim.New(cfg.NewEngine(step, logger))
	for _, m := range metrics.Standard() {
		s.AddMetric(m)
	}

	var rec *recorder.Writer
	if recordPath != "" {
		rec, err = recorder.Create(recordPath)
		if err != nil {
			return err
		}
		s.AddObserver(rec)
	}

	fmt.Printf("settling %s step %d (%s)...\n", cfg.Scene, step, title)
	start := time.Now()

	result, err := s.Run(context.Background(), sim.Config{MaxTicks: cfg.MaxTicks, RecordFrames: true})
	if rec != nil {
		if cerr := rec.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	runID, err := st.Save(cfg.Scene, step, cfg.Seed, result)
	if err != nil {
		return err
	}

	fmt.Printf("completed in %v\n", elapsed)
	fmt.Printf("run id: %s\n", runID)
	fmt.Printf("ticks: %d settled: %v\n", result.Ticks, result.Settled)
	if rec != nil {
		fmt.Printf("recorded %d frames to %s\n", rec.Frames(), recordPath)
	}
	fmt.Println("\nmetrics:")
	for name, val := range result.Metrics {
		fmt.Printf("  %s: %.4f\n", name, val)
	}
	return nil
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
	fmt.Fprintln(w, "ID\tSCENE\tSTEP\tTIME\tITEMS\tTICKS\tSETTLED")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%d\t%v\n",
			run.ID,
			run.Scene,
			run.Step,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.Items,
			run.Ticks,
			run.Settled,
		)
	}
	return w.Flush()
}

func plotRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("no data to plot")
	}

	falling := make([]float64, len(rows))
	meanY := make([]float64, len(rows))
	for i, r := range rows {
		falling[i] = float64(r.Falling)
		meanY[i] = r.MeanY
	}

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scene: %s step %d\n", meta.Scene, meta.Step)
	fmt.Printf("ticks: %d\n\n", len(rows))
	fmt.Println(asciigraph.Plot(falling, asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption("falling items")))
	fmt.Println()
	fmt.Println(asciigraph.Plot(meanY, asciigraph.Height(8), asciigraph.Width(80), asciigraph.Caption("mean centre y")))
	return nil
}

// output opens --out, or stdout when it is empty.
func output() (*os.File, func() error, error) {
	if outPath == "" {
		return os.Stdout, func() error { return nil }, nil
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, nil, err
	}
	return f, f.Close, nil
}

func exportJSON(cmd *cobra.Command, args []string) error {
	runID := args[0]
	st := storage.New(dataDir)
	meta, err := st.Load(runID)
	if err != nil {
		return err
	}
	rows, err := st.LoadTrace(runID)
	if err != nil {
		return err
	}
	final, err := st.LoadFinal(runID)
	if err != nil {
		return err
	}

	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if err := storage.ExportStored(w, meta, rows, final); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func exportSVG(cmd *cobra.Command, args []string) error {
	var svg string
	switch {
	case fromRec != "":
		frames, err := recorder.ReadAll(fromRec)
		if err != nil {
			return err
		}
		if len(frames) == 0 {
			return fmt.Errorf("%s has no frames", fromRec)
		}
		svg = export.TraceToSVG(frames, func(f counter.Frame) float64 { return float64(f.Falling()) }, 600, 200, "#f4a259")
	case len(args) == 1:
		items, geom, err := storage.New(dataDir).Restore(args[0])
		if err != nil {
			return err
		}
		eng := counter.New(counter.WithLogger(logger))
		eng.SetGeometry(geom)
		if err := eng.Place(items); err != nil {
			return err
		}
		svg = export.FrameToSVG(eng.Frame(), labels)
	default:
		return errors.New("need a run id or --recording")
	}

	w, closeFn, err := output()
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, svg); err != nil {
		closeFn()
		return err
	}
	return closeFn()
}

func replay(cmd *cobra.Command, args []string) error {
	if plotReplay {
		frames, err := recorder.ReadAll(args[0])
		if err != nil {
			return err
		}
		if len(frames) == 0 {
			return fmt.Errorf("%s has no frames", args[0])
		}
		data := make([]float64, len(frames))
		for i, f := range frames {
			data[i] = float64(f.Falling())
		}
		fmt.Println(asciigraph.Plot(data, asciigraph.Height(10), asciigraph.Width(80), asciigraph.Caption("falling items")))
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TICK\tITEMS\tFALLING\tDRAGGING")
	err := recorder.Read(args[0], func(f counter.Frame) error {
		_, err := fmt.Fprintf(w, "%d\t%d\t%d\t%v\n", f.Tick, len(f.Items), f.Falling(), f.Dragging())
		return err
	})
	if err != nil {
		return err
	}
	return w.Flush()
}

func bench(cmd *cobra.Command, args []string) error {
	cfg, title, err := loadScene()
	if err != nil {
		return err
	}
	if numRuns < 1 {
		return fmt.Errorf("need at least one run, got %d", numRuns)
	}

	factory := func(s int64) (*counter.Engine, error) {
		c := *cfg
		c.Seed = s
		return c.NewEngine(step, nil), nil
	}
	ens := sim.NewEnsemble(factory, numRuns, cfg.Seed).WithMetrics(metrics.Standard)

	fmt.Printf("settling %s step %d (%s) under %d seeds...\n", cfg.Scene, step, title, numRuns)
	start := time.Now()
	results, err := ens.Run(context.Background(), sim.Config{MaxTicks: cfg.MaxTicks})
	if err != nil {
		return err
	}
	elapsed := time.Since(start)

	maps := make([]map[string]float64, len(results))
	settled := 0
	for i, r := range results {
		maps[i] = r.Metrics
		if r.Settled {
			settled++
		}
	}

	fmt.Printf("completed in %v (%d/%d settled)\n\n", elapsed, settled, len(results))
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "METRIC\tMEAN\tSTD\tMIN\tMEDIAN\tMAX")
	for _, m := range metrics.Standard() {
		s := metrics.Summarize(metrics.Collect(maps, m.Name()))
		fmt.Fprintf(w, "%s\t%.3f\t%.3f\t%.3f\t%.3f\t%.3f\n", m.Name(), s.Mean, s.StdDev, s.Min, s.Median, s.Max)
	}
	return w.Flush()
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadScene()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	srv := ws.NewServer(cfg, logger)
	httpSrv := &http.Server{Addr: addr, Handler: srv.Handler()}

	runErr := make(chan error, 1)
	go func() { runErr <- srv.Run(ctx) }()
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	logger.Info("serving", "addr", addr, "scene", cfg.Scene)
	fmt.Printf("listening on %s (ws at /ws, snapshot at /frame)\n", addr)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		stop()
		<-runErr
		return err
	}
	return <-runErr
}

func runScript(cmd *cobra.Command, args []string) error {
	scenario, err := automation.LoadScenario(args[0])
	if err != nil {
		return err
	}

	cfg := config.DefaultConfig()
	if scenario.Preset != "" {
		preset = scenario.Preset
		c, _, err := loadScene()
		if err != nil {
			return err
		}
		cfg = c
	}

	player := automation.NewPlayer(cfg, logger)
	defer player.Close()

	var rec *recorder.Writer
	if recordPath != "" {
		rec, err = recorder.Create(recordPath)
		if err != nil {
			return err
		}
		defer rec.Close()
		player.Observe(rec)
	}

	fmt.Printf("scenario: %s\n", scenario.Name)
	if scenario.Description != "" {
		fmt.Printf("  %s\n", scenario.Description)
	}
	results, err := player.RunScenario(context.Background(), scenario)
	for _, r := range results {
		fmt.Printf("  %2d %-9s ticks=%d pushes=%d\n", r.Index+1, r.Do, r.Ticks, len(r.Pushes))
	}
	if err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func sweep(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadScene()
	if err != nil {
		return err
	}
	sw := &automation.ParameterSweep{
		ParamName: sweepParam,
		ParamMin:  sweepMin,
		ParamMax:  sweepMax,
		NumSteps:  sweepSteps,
		Step:      step,
	}
	results, err := automation.RunSweep(context.Background(), cfg, sw, logger)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "%s\tTICKS\tSETTLED\tMAX_OVERLAP\tACTIVITY\n", strings.ToUpper(sweepParam))
	ticks := make([]float64, len(results))
	for i, r := range results {
		ticks[i] = float64(r.Ticks)
		fmt.Fprintf(w, "%.4f\t%d\t%v\t%.3f\t%.3f\n", r.ParamValue, r.Ticks, r.Settled, r.MaxOverlap, r.Activity)
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(asciigraph.Plot(ticks, asciigraph.Height(8), asciigraph.Caption("ticks to settle")))
	return nil
}

func listParams(cmd *cobra.Command, args []string) error {
	cfg, _, err := loadScene()
	if err != nil {
		return err
	}
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tVALUE")
	for _, name := range config.ParamNames() {
		v, err := config.GetParam(cfg.Physics, name)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s\t%g\n", name, v)
	}
	return w.Flush()
}
