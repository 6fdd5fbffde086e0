package optim

import (
	"context"
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/optimize"
)

// Bound is the search interval of one tunable.
type Bound struct {
	Name string  `yaml:"name" json:"name"`
	Min  float64 `yaml:"min" json:"min"`
	Max  float64 `yaml:"max" json:"max"`
}

type TuneSettings struct {
	MaxEvals     int
	Population   int     // 0 picks one from the dimension
	InitStepSize float64 // in normalised units
}

func DefaultTuneSettings() TuneSettings {
	return TuneSettings{MaxEvals: 200, InitStepSize: 0.3}
}

type TuneResult struct {
	Params      map[string]float64 `json:"params"`
	Score       float64            `json:"score"`
	Evaluations int                `json:"evaluations"`
	Status      string             `json:"status"`
}

// penalty stands in for scores the objective could not produce; CMA-ES
// needs a finite value for every sample.
const penalty = 1e12

// Tune minimises obj over the box given by bounds with CMA-ES, starting from
// start (missing names start mid-range). Every sample is clamped into the box
// before it is scored, and the best clamped sample seen is returned.
func Tune(ctx context.Context, obj Objective, bounds []Bound, start map[string]float64, settings TuneSettings) (*TuneResult, error) {
	if len(bounds) == 0 {
		return nil, errors.New("optim: nothing to tune")
	}
	for _, b := range bounds {
		if !(b.Max > b.Min) {
			return nil, fmt.Errorf("optim: empty range for %s [%v, %v]", b.Name, b.Min, b.Max)
		}
	}
	if settings.MaxEvals <= 0 {
		settings.MaxEvals = DefaultTuneSettings().MaxEvals
	}
	if settings.InitStepSize <= 0 {
		settings.InitStepSize = DefaultTuneSettings().InitStepSize
	}
	pop := settings.Population
	if pop == 0 {
		pop = 4 + int(3*math.Log(float64(len(bounds))))
	}

	initX := make([]float64, len(bounds))
	for i, b := range bounds {
		initX[i] = 0.5
		if v, ok := start[b.Name]; ok {
			initX[i] = (v - b.Min) / (b.Max - b.Min)
		}
	}

	best := &TuneResult{Score: math.Inf(1)}
	var evalErr error
	problem := optimize.Problem{
		Func: func(x []float64) float64 {
			if ctx.Err() != nil {
				return penalty
			}
			values := denormalize(bounds, x)
			score, err := obj.Evaluate(ctx, values)
			best.Evaluations++
			if err != nil {
				if !errors.Is(err, ErrInvalidParams) && evalErr == nil {
					evalErr = err
				}
				return penalty
			}
			if score < best.Score {
				best.Score = score
				best.Params = values
			}
			return score
		},
	}

	method := &optimize.CmaEsChol{
		InitStepSize: settings.InitStepSize,
		Population:   pop,
	}
	result, err := optimize.Minimize(problem, initX, &optimize.Settings{
		FuncEvaluations: settings.MaxEvals,
	}, method)
	if cerr := ctx.Err(); cerr != nil {
		return nil, cerr
	}
	if best.Params == nil {
		if evalErr != nil {
			return nil, evalErr
		}
		if err != nil {
			return nil, err
		}
		return nil, ErrInvalidParams
	}
	if result != nil {
		best.Status = result.Status.String()
	}
	return best, nil
}

func denormalize(bounds []Bound, x []float64) map[string]float64 {
	out := make(map[string]float64, len(bounds))
	for i, b := range bounds {
		v := b.Min + x[i]*(b.Max-b.Min)
		out[b.Name] = math.Max(b.Min, math.Min(b.Max, v))
	}
	return out
}
