package metrics

import (
	"math"

	"github.com/san-kum/counterfall/internal/counter"
)

// MaxOverlap is the deepest overlap seen between two resting items.
type MaxOverlap struct {
	name  string
	worst float64
}

func NewMaxOverlap() *MaxOverlap {
	return &MaxOverlap{name: "max_overlap"}
}

func (m *MaxOverlap) Name() string { return m.name }

func (m *MaxOverlap) Observe(f counter.Frame) {
	for i := range f.Items {
		a := &f.Items[i]
		if a.Falling || a.Dragging {
			continue
		}
		for j := i + 1; j < len(f.Items); j++ {
			b := &f.Items[j]
			if b.Falling || b.Dragging {
				continue
			}
			ov := a.Radius + b.Radius - math.Hypot(a.X-b.X, a.Y-b.Y)
			m.worst = math.Max(m.worst, ov)
		}
	}
}

func (m *MaxOverlap) Value() float64 { return m.worst }
func (m *MaxOverlap) Reset()         { m.worst = 0 }

// FloorViolation is the furthest any item has reached below the floor.
type FloorViolation struct {
	name  string
	worst float64
}

func NewFloorViolation() *FloorViolation {
	return &FloorViolation{name: "floor_violation"}
}

func (v *FloorViolation) Name() string { return v.name }

func (v *FloorViolation) Observe(f counter.Frame) {
	for _, it := range f.Items {
		v.worst = math.Max(v.worst, it.Y+it.Radius-f.Geometry.FloorY)
	}
}

func (v *FloorViolation) Value() float64 { return v.worst }
func (v *FloorViolation) Reset()         { v.worst = 0 }
