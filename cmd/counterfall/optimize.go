package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/optim"
	"github.com/spf13/cobra"
)

var (
	tuneParams []string
	gridParams []string
	metricName string
	numSeeds   int
	maxEvals   int
	population int
	saveTo     string
)

func tuneFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&tuneParams, "param", []string{"acceleration=1.01:1.3", "floor_friction=0.5:0.95"}, "name=min:max, repeatable")
	cmd.Flags().StringVar(&metricName, "metric", optim.TicksMetric, "metric to minimise")
	cmd.Flags().IntVar(&numSeeds, "seeds", 3, "seeds averaged per evaluation")
	cmd.Flags().IntVar(&maxEvals, "evals", optim.DefaultTuneSettings().MaxEvals, "evaluation budget")
	cmd.Flags().IntVar(&population, "population", 0, "CMA-ES population (0 picks one)")
	cmd.Flags().StringVar(&saveTo, "save", "", "write the scene with the best parameters to this yaml file")
}

func gridFlags(cmd *cobra.Command) {
	cmd.Flags().StringArrayVar(&gridParams, "param", []string{"acceleration=1.01:1.3:6"}, "name=min:max:n, repeatable")
	cmd.Flags().StringVar(&metricName, "metric", optim.TicksMetric, "metric to minimise")
	cmd.Flags().IntVar(&numSeeds, "seeds", 3, "seeds averaged per evaluation")
	cmd.Flags().StringVar(&saveTo, "save", "", "write the scene with the best parameters to this yaml file")
}

// parseParam splits "name=a:b[:c]" into the name and its numbers.
func parseParam(arg string, want int) (string, []float64, error) {
	name, rest, ok := strings.Cut(arg, "=")
	if !ok || name == "" {
		return "", nil, fmt.Errorf("param %q: want name=%s", arg, strings.Repeat("v:", want-1)+"v")
	}
	parts := strings.Split(rest, ":")
	if len(parts) != want {
		return "", nil, fmt.Errorf("param %q: want %d values, got %d", arg, want, len(parts))
	}
	vals := make([]float64, want)
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return "", nil, fmt.Errorf("param %q: %w", arg, err)
		}
		vals[i] = v
	}
	return name, vals, nil
}

func seedList(base int64) []int64 {
	seeds := make([]int64, max(numSeeds, 1))
	for i := range seeds {
		seeds[i] = base + int64(i)
	}
	return seeds
}

func tune(cmd *cobra.Command, args []string) error {
	cfg, title, err := loadScene()
	if err != nil {
		return err
	}

	bounds := make([]optim.Bound, 0, len(tuneParams))
	start := make(map[string]float64, len(tuneParams))
	for _, arg := range tuneParams {
		name, vals, err := parseParam(arg, 2)
		if err != nil {
			return err
		}
		cur, err := config.GetParam(cfg.Physics, name)
		if err != nil {
			return err
		}
		bounds = append(bounds, optim.Bound{Name: name, Min: vals[0], Max: vals[1]})
		if cur >= vals[0] && cur <= vals[1] {
			start[name] = cur
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eval := optim.NewEvaluator(cfg, step, metricName, seedList(cfg.Seed)).WithLogger(logger)
	settings := optim.DefaultTuneSettings()
	settings.MaxEvals = maxEvals
	settings.Population = population

	fmt.Printf("tuning %s step %d (%s) on %s, %d evaluations...\n", cfg.Scene, step, title, metricName, maxEvals)
	res, err := optim.Tune(ctx, eval, bounds, start, settings)
	if err != nil {
		return err
	}

	fmt.Printf("status: %s after %d evaluations\n", res.Status, res.Evaluations)
	return report(cfg, res.Params, res.Score)
}

func grid(cmd *cobra.Command, args []string) error {
	cfg, title, err := loadScene()
	if err != nil {
		return err
	}

	names := make([]string, 0, len(gridParams))
	ranges := make([][]float64, 0, len(gridParams))
	total := 1
	for _, arg := range gridParams {
		name, vals, err := parseParam(arg, 3)
		if err != nil {
			return err
		}
		n := int(vals[2])
		if n < 1 {
			return fmt.Errorf("param %q: need at least one value", arg)
		}
		names = append(names, name)
		ranges = append(ranges, optim.Linspace(vals[0], vals[1], n))
		total *= n
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	eval := optim.NewEvaluator(cfg, step, metricName, seedList(cfg.Seed)).WithLogger(logger)
	fmt.Printf("grid over %s step %d (%s), %d combinations...\n", cfg.Scene, step, title, total)
	best, score, err := optim.NewGridSearch(names, ranges).Search(ctx, eval)
	if err != nil {
		return err
	}
	return report(cfg, best, score)
}

func report(cfg *config.Config, params map[string]float64, score float64) error {
	names := make([]string, 0, len(params))
	for n := range params {
		names = append(names, n)
	}
	sort.Strings(names)

	fmt.Printf("best %s: %.3f\n", metricName, score)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	for _, n := range names {
		fmt.Fprintf(w, "  %s\t%.4f\n", n, params[n])
	}
	if err := w.Flush(); err != nil {
		return err
	}

	if saveTo == "" {
		return nil
	}
	out := *cfg
	for _, n := range names {
		if err := config.SetParam(&out.Physics, n, config.SnapParam(n, params[n])); err != nil {
			return err
		}
	}
	if err := config.Save(saveTo, &out); err != nil {
		return err
	}
	fmt.Printf("saved to %s\n", saveTo)
	return nil
}
