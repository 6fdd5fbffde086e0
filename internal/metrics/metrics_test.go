package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/counterfall/internal/counter"
)

var geom = counter.Geometry{Width: 400, Height: 600, FloorY: 500}

func frame(tick uint64, items ...counter.View) counter.Frame {
	return counter.Frame{Tick: tick, Geometry: geom, Items: items}
}

func TestActivity(t *testing.T) {
	m := NewActivity()
	m.Observe(frame(0, counter.View{Falling: true}, counter.View{Falling: true}))
	m.Observe(frame(1, counter.View{}, counter.View{}))

	if m.Value() != 1 {
		t.Errorf("expected mean 1 falling item, got %f", m.Value())
	}
	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero after reset")
	}
}

func TestStability(t *testing.T) {
	m := NewStability()
	if m.Value() != 1 {
		t.Errorf("expected 1 with no samples, got %f", m.Value())
	}
	m.Observe(frame(0, counter.View{Falling: true}))
	m.Observe(frame(1, counter.View{}))
	m.Observe(frame(2, counter.View{}))
	m.Observe(frame(3, counter.View{}))

	if math.Abs(m.Value()-0.75) > 1e-12 {
		t.Errorf("expected 0.75, got %f", m.Value())
	}
}

func TestMaxOverlap(t *testing.T) {
	m := NewMaxOverlap()
	m.Observe(frame(0,
		counter.View{X: 100, Y: 460, Radius: 40},
		counter.View{X: 170, Y: 460, Radius: 40},
		counter.View{X: 100, Y: 460, Radius: 40, Falling: true},
	))

	if math.Abs(m.Value()-10) > 1e-9 {
		t.Errorf("expected overlap 10 ignoring the falling item, got %f", m.Value())
	}
}

func TestFloorViolation(t *testing.T) {
	m := NewFloorViolation()
	m.Observe(frame(0, counter.View{Y: 460, Radius: 40}))
	if m.Value() != 0 {
		t.Errorf("expected no violation, got %f", m.Value())
	}
	m.Observe(frame(1, counter.View{Y: 463, Radius: 40}))
	if m.Value() != 3 {
		t.Errorf("expected violation 3, got %f", m.Value())
	}
}

func TestSettleTick(t *testing.T) {
	m := NewSettleTick()
	m.Observe(frame(0))
	if m.Value() != -1 {
		t.Errorf("expected -1 before anything fell, got %f", m.Value())
	}

	m.Observe(frame(1, counter.View{Falling: true}))
	m.Observe(frame(2, counter.View{}))
	m.Observe(frame(3, counter.View{}))
	if m.Value() != 2 {
		t.Errorf("expected settle at tick 2, got %f", m.Value())
	}

	m.Observe(frame(4, counter.View{Falling: true}))
	m.Observe(frame(5, counter.View{}))
	if m.Value() != 5 {
		t.Errorf("expected settle to follow the last fall, got %f", m.Value())
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{4, 1, 3, 2})

	if s.N != 4 || s.Min != 1 || s.Max != 4 {
		t.Errorf("unexpected bounds: %+v", s)
	}
	if s.Mean != 2.5 {
		t.Errorf("expected mean 2.5, got %f", s.Mean)
	}
	if s.Median != 2 {
		t.Errorf("expected empirical median 2, got %f", s.Median)
	}
	if s.StdDev <= 0 {
		t.Errorf("expected positive spread, got %f", s.StdDev)
	}

	if got := Summarize(nil); got.N != 0 {
		t.Errorf("expected empty summary, got %+v", got)
	}
	if got := Summarize([]float64{7}); got.StdDev != 0 || got.Median != 7 {
		t.Errorf("unexpected single-value summary: %+v", got)
	}
}

func TestCollect(t *testing.T) {
	got := Collect([]map[string]float64{
		{"settle_tick": 10},
		{"other": 1},
		{"settle_tick": 12},
	}, "settle_tick")
	if len(got) != 2 || got[0] != 10 || got[1] != 12 {
		t.Errorf("unexpected collection %v", got)
	}
}
