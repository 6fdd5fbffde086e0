package counter

import "math"

// proposal is where a falling item would move this tick.
type proposal struct {
	i    int
	x, y float64
}

// fallStep advances one falling item's velocities and returns the position it
// would move to. Fall speed never drops below SeedFallSpeed, so an item that
// was stopped picks up speed again. Horizontal speed decays and snaps to zero
// below VelocityEpsilon. Contacts are resolved separately against that
// proposal.
func (e *Engine) fallStep(it *Item) (x, y float64) {
	p := &e.params

	accel := it.Tuning.Acceleration
	if accel <= 1 {
		accel = p.Acceleration
	}
	it.FallSpeed *= accel
	if it.FallSpeed < p.SeedFallSpeed {
		it.FallSpeed = p.SeedFallSpeed
	}
	if it.FallSpeed > p.TerminalFallSpeed {
		it.FallSpeed = p.TerminalFallSpeed
	}

	it.HorizontalVelocity *= p.AirResistance
	if math.Abs(it.HorizontalVelocity) < p.VelocityEpsilon {
		it.HorizontalVelocity = 0
	}

	return it.X + it.HorizontalVelocity, it.Y + it.FallSpeed
}

// trail keeps a falling item from overtaking falling items below it in its
// column. y0 is where the item started this tick and moves holds the
// proposals already made for lower items. An item that already overlaps one
// of them moves no further than that item does.
func (e *Engine) trail(it *Item, y0, x, y float64, moves []proposal) float64 {
	for _, m := range moves {
		o := e.store.At(m.i)
		if o.Y <= y0 {
			continue
		}
		sum := it.Radius + o.Radius
		dx := x - m.x
		if math.Abs(dx) >= sum {
			continue
		}
		limit := m.y - math.Sqrt(sum*sum-dx*dx)
		if y > limit {
			y = math.Max(limit, math.Min(y, y0+math.Max(m.y-o.Y, 0)))
			it.FallSpeed = math.Min(it.FallSpeed, o.FallSpeed)
		}
	}
	return y
}
