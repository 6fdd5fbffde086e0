package automation

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/metrics"
	"github.com/san-kum/counterfall/internal/sim"
)

// ParameterSweep settles one step of a scene across a range of values of a
// single physics tunable.
type ParameterSweep struct {
	ParamName string
	ParamMin  float64
	ParamMax  float64
	NumSteps  int
	Step      int
}

// SweepResult holds results from a parameter sweep
type SweepResult struct {
	ParamValue float64
	Ticks      int
	Settled    bool
	MaxOverlap float64
	Activity   float64
}

// RunSweep executes a parameter sweep
func RunSweep(ctx context.Context, base *config.Config, sweep *ParameterSweep, logger *slog.Logger) ([]SweepResult, error) {
	if sweep.NumSteps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", sweep.NumSteps)
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	results := make([]SweepResult, 0, sweep.NumSteps)
	paramStep := (sweep.ParamMax - sweep.ParamMin) / float64(sweep.NumSteps-1)

	for i := 0; i < sweep.NumSteps; i++ {
		paramVal := config.SnapParam(sweep.ParamName, sweep.ParamMin+float64(i)*paramStep)

		cfg := *base
		if err := config.SetParam(&cfg.Physics, sweep.ParamName, paramVal); err != nil {
			return nil, err
		}

		s := sim.New(cfg.NewEngine(sweep.Step, logger))
		overlap, activity := metrics.NewMaxOverlap(), metrics.NewActivity()
		s.AddMetric(overlap)
		s.AddMetric(activity)

		result, err := s.Run(ctx, sim.Config{MaxTicks: cfg.MaxTicks})
		if err != nil {
			return nil, err
		}

		results = append(results, SweepResult{
			ParamValue: paramVal,
			Ticks:      result.Ticks,
			Settled:    result.Settled,
			MaxOverlap: result.Metrics[overlap.Name()],
			Activity:   result.Metrics[activity.Name()],
		})

		logger.Info("sweep", "index", i+1, "of", sweep.NumSteps,
			"param", sweep.ParamName, "value", paramVal, "ticks", result.Ticks)
	}

	return results, nil
}
