package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/counterfall/internal/counter"
)

// Simulator runs an Engine headless until it settles.
type Simulator struct {
	eng       *counter.Engine
	metrics   []Metric
	observers []Observer
}

func New(eng *counter.Engine) *Simulator {
	return &Simulator{
		eng:       eng,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
}

func (s *Simulator) Engine() *counter.Engine { return s.eng }
func (s *Simulator) AddMetric(m Metric)       { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o Observer)   { s.observers = append(s.observers, o) }

// Run ticks the engine until nothing is falling or cfg.MaxTicks is spent.
// Running out of ticks is not an error: Result.Settled reports it.
func (s *Simulator) Run(ctx context.Context, cfg Config) (*Result, error) {
	if err := s.validateConfig(cfg); err != nil {
		return nil, err
	}

	result := &Result{
		Metrics: make(map[string]float64),
	}
	if cfg.RecordFrames {
		result.Frames = make([]counter.Frame, 0, 64)
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	s.emit(result, cfg, s.eng.Frame())

	for i := 0; i < cfg.MaxTicks; i++ {
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		default:
		}

		active := s.eng.Tick()
		result.Ticks++
		s.emit(result, cfg, s.eng.Frame())

		if !active {
			break
		}
	}
	result.Settled = !s.eng.Active()

	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

func (s *Simulator) emit(result *Result, cfg Config, f counter.Frame) {
	for _, m := range s.metrics {
		m.Observe(f)
	}
	for _, obs := range s.observers {
		obs.OnFrame(f)
	}
	if cfg.RecordFrames {
		result.Frames = append(result.Frames, f)
	}
}

func (s *Simulator) validateConfig(cfg Config) error {
	if cfg.MaxTicks < 0 {
		return fmt.Errorf("max ticks must not be negative, got %d", cfg.MaxTicks)
	}
	if !s.eng.Geometry().Valid() {
		return counter.ErrNoGeometry
	}
	return nil
}

// RunWithCallback ticks the engine while it is active, handing each frame to
// callback. Returning false stops the run.
func (s *Simulator) RunWithCallback(ctx context.Context, cfg Config, callback func(counter.Frame) bool) error {
	if err := s.validateConfig(cfg); err != nil {
		return err
	}

	for i := 0; i < cfg.MaxTicks; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		active := s.eng.Tick()
		if !callback(s.eng.Frame()) || !active {
			return nil
		}
	}
	return SimError{Tick: cfg.MaxTicks, Message: "still active at tick limit"}
}
