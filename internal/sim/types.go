package sim

import (
	"fmt"

	"github.com/san-kum/counterfall/internal/counter"
)

// Metric accumulates one number over the frames of a run.
type Metric interface {
	Name() string
	Observe(f counter.Frame)
	Value() float64
	Reset()
}

// Observer receives every frame published by a Simulator or Runner. Frames
// are snapshots and may be retained.
type Observer interface {
	OnFrame(f counter.Frame)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(f counter.Frame)

func (fn ObserverFunc) OnFrame(f counter.Frame) { fn(f) }

type Config struct {
	MaxTicks     int
	RecordFrames bool
}

func DefaultConfig() Config {
	return Config{MaxTicks: 3000, RecordFrames: true}
}

type Result struct {
	Frames  []counter.Frame
	Ticks   int
	Settled bool
	Metrics map[string]float64
}

// Final returns the last recorded frame.
func (r *Result) Final() (counter.Frame, bool) {
	if len(r.Frames) == 0 {
		return counter.Frame{}, false
	}
	return r.Frames[len(r.Frames)-1], true
}

type SimError struct {
	Tick    int
	Message string
}

func (e SimError) Error() string {
	return fmt.Sprintf("tick %d: %s", e.Tick, e.Message)
}
