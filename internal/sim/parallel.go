package sim

import (
	"context"
	"sync"

	"github.com/san-kum/counterfall/internal/counter"
)

// Ensemble settles the same scene under several seeds concurrently. Each run
// gets its own engine from the factory, so nothing is shared between
// goroutines.
type Ensemble struct {
	factory   func(seed int64) (*counter.Engine, error)
	metrics   func() []Metric
	numRuns   int
	seedStart int64
}

func NewEnsemble(factory func(seed int64) (*counter.Engine, error), numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{factory: factory, numRuns: numRuns, seedStart: seedStart}
}

// WithMetrics sets a constructor for the metrics attached to every run.
func (e *Ensemble) WithMetrics(fn func() []Metric) *Ensemble {
	e.metrics = fn
	return e
}

func (e *Ensemble) Run(ctx context.Context, cfg Config) ([]*Result, error) {
	results := make([]*Result, e.numRuns)
	errs := make([]error, e.numRuns)

	var wg sync.WaitGroup
	for i := 0; i < e.numRuns; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()

			eng, err := e.factory(e.seedStart + int64(idx))
			if err != nil {
				errs[idx] = err
				return
			}
			sim := New(eng)
			if e.metrics != nil {
				for _, m := range e.metrics() {
					sim.AddMetric(m)
				}
			}

			results[idx], errs[idx] = sim.Run(ctx, cfg)
		}(i)
	}

	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}

	return results, nil
}
