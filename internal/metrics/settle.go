package metrics

import (
	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/sim"
)

// SettleTick is the tick at which the scene last came to rest after
// something fell, or -1 if it has not.
type SettleTick struct {
	name    string
	moving  bool
	settled int64
}

func NewSettleTick() *SettleTick {
	return &SettleTick{name: "settle_tick", settled: -1}
}

func (s *SettleTick) Name() string { return s.name }

func (s *SettleTick) Observe(f counter.Frame) {
	if f.Falling() > 0 {
		s.moving = true
		s.settled = -1
		return
	}
	if s.moving && s.settled < 0 {
		s.settled = int64(f.Tick)
	}
}

func (s *SettleTick) Value() float64 { return float64(s.settled) }

func (s *SettleTick) Reset() {
	s.moving = false
	s.settled = -1
}

// Standard returns the metrics the CLI attaches to every run.
func Standard() []sim.Metric {
	return []sim.Metric{
		NewActivity(),
		NewStability(),
		NewMaxOverlap(),
		NewFloorViolation(),
		NewSettleTick(),
	}
}
