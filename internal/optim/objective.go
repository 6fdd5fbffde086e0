package optim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/metrics"
	"github.com/san-kum/counterfall/internal/sim"
)

// TicksMetric scores a run by how many ticks it took to settle.
const TicksMetric = "ticks"

var ErrInvalidParams = errors.New("optim: invalid parameters")

// Objective scores a set of physics tunables keyed by their YAML names.
// Lower is better.
type Objective interface {
	Evaluate(ctx context.Context, values map[string]float64) (float64, error)
}

type ObjectiveFunc func(ctx context.Context, values map[string]float64) (float64, error)

func (f ObjectiveFunc) Evaluate(ctx context.Context, values map[string]float64) (float64, error) {
	return f(ctx, values)
}

// Evaluator settles one step of a scene under several seeds and averages a
// metric over the runs. A run that never settles is charged the tick limit
// on top of its metric. Values for integer tunables are rounded.
type Evaluator struct {
	base   *config.Config
	step   int
	metric string
	seeds  []int64
	logger *slog.Logger
}

func NewEvaluator(base *config.Config, step int, metric string, seeds []int64) *Evaluator {
	if len(seeds) == 0 {
		seeds = []int64{base.Seed}
	}
	return &Evaluator{
		base:   base,
		step:   step,
		metric: metric,
		seeds:  seeds,
		logger: slog.New(slog.DiscardHandler),
	}
}

func (e *Evaluator) WithLogger(logger *slog.Logger) *Evaluator {
	e.logger = logger
	return e
}

func (e *Evaluator) Evaluate(ctx context.Context, values map[string]float64) (float64, error) {
	cfg := *e.base
	for name, v := range values {
		if err := config.SetParam(&cfg.Physics, name, config.SnapParam(name, v)); err != nil {
			return 0, err
		}
	}
	if err := cfg.Validate(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}

	var total float64
	for _, seed := range e.seeds {
		cfg.Seed = seed
		s := sim.New(cfg.NewEngine(e.step, nil))
		for _, m := range metrics.Standard() {
			s.AddMetric(m)
		}
		result, err := s.Run(ctx, sim.Config{MaxTicks: cfg.MaxTicks})
		if err != nil {
			return 0, err
		}

		score := float64(result.Ticks)
		if e.metric != TicksMetric {
			v, ok := result.Metrics[e.metric]
			if !ok {
				return 0, fmt.Errorf("unknown metric %q", e.metric)
			}
			score = v
		}
		if !result.Settled {
			score += float64(cfg.MaxTicks)
		}
		total += score
	}
	score := total / float64(len(e.seeds))
	e.logger.Debug("evaluated", "values", values, "metric", e.metric, "score", score)
	return score, nil
}
