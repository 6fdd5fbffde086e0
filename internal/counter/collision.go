package counter

import "math"

// contactSlop ignores overlaps that are only floating-point noise.
const contactSlop = 1e-9

// deepestContact returns the resting item that a circle of radius r at (x, y)
// overlaps the most, or -1. Item skip is ignored.
func (e *Engine) deepestContact(skip int, x, y, r float64) (int, float64) {
	best, depth := -1, contactSlop
	for j := 0; j < e.store.Len(); j++ {
		if j == skip {
			continue
		}
		o := e.store.At(j)
		if o.Falling {
			continue
		}
		_, _, d := separation(x, y, o.X, o.Y)
		if ov := r + o.Radius - d; ov > depth {
			best, depth = j, ov
		}
	}
	return best, depth
}

// restingOverlap is the deepest overlap between item i and any resting item.
func (e *Engine) restingOverlap(i int) float64 {
	it := e.store.At(i)
	_, depth := e.deepestContact(i, it.X, it.Y, it.Radius)
	if depth <= contactSlop {
		return 0
	}
	return depth
}

// resolveFalling moves falling item i to the proposed (x, y), settling it
// against resting items, the floor and the walls. It lands on items it
// approaches from above, slides off the sides of others, and comes to rest
// once it is supported and its sideways speed has died down. An item that
// drops into the gap between two resting items is seated in it.
func (e *Engine) resolveFalling(i int, x, y float64) {
	it := e.store.At(i)
	p := &e.params
	r := it.Radius
	lo, hi := e.wallBounds(r)
	floor := e.floorLimit(r)
	incoming := it.FallSpeed

	bounce := it.Tuning.Bounce
	if bounce <= 0 {
		bounce = p.FloorBounce
	}

	var landed, kicked, supportLeft, supportRight bool
	land := func(nx float64) {
		landed = true
		if nx >= 0 {
			supportLeft = true
		}
		if nx <= 0 {
			supportRight = true
		}
		if !kicked {
			it.HorizontalVelocity += nx * incoming * p.SettleKick
			kicked = true
		}
	}

	for iter := 0; iter < p.ContactIterations; iter++ {
		y = math.Min(y, floor)
		x = clamp(x, lo, hi)

		j, _ := e.deepestContact(i, x, y, r)
		if j < 0 {
			break
		}
		o := e.store.At(j)
		sum := r + o.Radius
		nx, ny, _ := separation(x, y, o.X, o.Y)
		dx, dy := x-o.X, y-o.Y

		switch {
		case y >= floor-p.FloorMargin && e.onFloor(o):
			s := sign(dx)
			if s == 0 {
				if s = sign(it.HorizontalVelocity); s == 0 {
					s = 1
				}
			}
			side := o.X + s*math.Sqrt(math.Max(sum*sum-dy*dy, 0))
			if c := clamp(side, lo, hi); math.Abs(side-c) <= p.RestTolerance {
				side = c
			}
			if side >= lo && side <= hi && e.fitsAt(i, j, side, y, r) {
				x = side
				it.HorizontalVelocity = s * math.Abs(it.HorizontalVelocity) * bounce
				continue
			}
			// No room on the counter beside it: climb on top.
			y = o.Y - math.Sqrt(math.Max(sum*sum-dx*dx, 0))
			land((x - o.X) / sum)

		case (x <= lo && nx < 0) || (x >= hi && nx > 0):
			// Pinned at a wall, so only the vertical position can give.
			h := math.Sqrt(math.Max(sum*sum-dx*dx, 0))
			if dy <= 0 {
				y = o.Y - h
				land((x - o.X) / sum)
			} else {
				y = o.Y + h
			}

		default:
			x, y = o.X+nx*sum, o.Y+ny*sum
			switch {
			case ny < p.ComingFromAbove:
				land(nx)
			case it.HorizontalVelocity*nx < 0 && landed:
				it.HorizontalVelocity = 0
			case it.HorizontalVelocity*nx < 0:
				it.HorizontalVelocity = -it.HorizontalVelocity * bounce
			}
		}
	}

	if sx, sy, ok := e.seat(i, x, y, r); ok {
		x, y = sx, sy
		landed, supportLeft, supportRight = true, true, true
	}

	y = math.Min(y, floor)
	switch {
	case x <= lo && it.HorizontalVelocity < 0:
		it.HorizontalVelocity = -it.HorizontalVelocity * p.WallBounce
	case x >= hi && it.HorizontalVelocity > 0:
		it.HorizontalVelocity = -it.HorizontalVelocity * p.WallBounce
	}
	x = clamp(x, lo, hi)

	floored := y >= floor-p.FloorMargin
	if supportLeft && supportRight {
		it.HorizontalVelocity = 0
	}
	if floored {
		it.HorizontalVelocity *= p.FloorFriction
	}
	if landed || floored {
		it.FallSpeed = 0
	}
	it.X, it.Y = x, y

	if (landed || floored) && math.Abs(it.HorizontalVelocity) < p.MinHorizontalSpeed && e.restingOverlap(i) <= p.RestTolerance {
		it.Falling = false
		it.FallSpeed = 0
		it.HorizontalVelocity = 0
	}
	it.AgainstWall = e.againstWall(it)
	if it.Falling {
		e.unjam(i)
	}
}

// unjam handles a falling item that ended its resolution still buried in
// resting items. Resting items sitting on top of it start falling again, and
// if it is still buried after that it is lifted straight up to the first
// free spot in its column.
func (e *Engine) unjam(i int) {
	p := &e.params
	it := e.store.At(i)

	woke := false
	for j := 0; j < e.store.Len(); j++ {
		o := e.store.At(j)
		if j == i || o.Falling || o.Dragging || o.Y >= it.Y {
			continue
		}
		_, _, d := separation(it.X, it.Y, o.X, o.Y)
		if it.Radius+o.Radius-d > p.RestTolerance {
			o.Falling = true
			o.FallSpeed = p.SeedFallSpeed
			woke = true
		}
	}
	if woke && it.FallSpeed == 0 && math.Abs(it.HorizontalVelocity) < p.MinHorizontalSpeed &&
		e.restingOverlap(i) <= p.RestTolerance && (e.onFloor(it) || len(e.supports(i)) > 0) {
		it.Falling = false
		it.HorizontalVelocity = 0
		return
	}

	if it.FallSpeed == 0 && e.restingOverlap(i) > p.RestTolerance {
		it.Y = e.freeAbove(i, it.X, it.Y, it.Radius)
	}
}

// freeAbove raises y until a circle of radius r centred on x clears every
// resting item, hopping over each one it is buried in.
func (e *Engine) freeAbove(skip int, x, y, r float64) float64 {
	type span struct{ top, bottom float64 }
	var blocked []span
	for j := 0; j < e.store.Len(); j++ {
		o := e.store.At(j)
		if j == skip || o.Falling {
			continue
		}
		sum := r + o.Radius
		dx := math.Abs(x - o.X)
		if dx >= sum {
			continue
		}
		h := math.Sqrt(sum*sum - dx*dx)
		blocked = append(blocked, span{o.Y - h, o.Y + h})
	}

	y = math.Min(y, e.floorLimit(r))
	for moved := true; moved; {
		moved = false
		for _, s := range blocked {
			if y > s.top+contactSlop && y < s.bottom-contactSlop {
				y = s.top
				moved = true
			}
		}
	}
	return y
}

// seat finds where a circle of radius r near (x, y) rests in the gap between
// two resting items below it, one on each side. It reports false when there
// is no such pair or the spot is taken.
func (e *Engine) seat(i int, x, y, r float64) (float64, float64, bool) {
	p := &e.params
	left, right := -1, -1
	dl, dr := math.Inf(1), math.Inf(1)
	for j := 0; j < e.store.Len(); j++ {
		o := e.store.At(j)
		if j == i || o.Falling {
			continue
		}
		_, _, d := separation(x, y, o.X, o.Y)
		if d >= r+o.Radius+p.ContactMargin || o.Y-y <= epsilon {
			continue
		}
		if o.X < x && d < dl {
			left, dl = j, d
		}
		if o.X > x && d < dr {
			right, dr = j, d
		}
	}
	if left < 0 || right < 0 {
		return x, y, false
	}

	a, b := e.store.At(left), e.store.At(right)
	ra, rb := r+a.Radius, r+b.Radius
	dx, dy := b.X-a.X, b.Y-a.Y
	d := math.Hypot(dx, dy)
	if d < epsilon || d > ra+rb || d < math.Abs(ra-rb) {
		return x, y, false
	}
	// The two circles of possible centres cross at two points; take the upper.
	t := (ra*ra - rb*rb + d*d) / (2 * d)
	h := math.Sqrt(math.Max(ra*ra-t*t, 0))
	mx, my := a.X+dx*t/d, a.Y+dy*t/d
	sx, sy := mx+dy*h/d, my-dx*h/d
	if sy > my {
		sx, sy = mx-dy*h/d, my+dx*h/d
	}

	lo, hi := e.wallBounds(r)
	if sx < a.X || sx > b.X || sx < lo || sx > hi || sy > e.floorLimit(r) {
		return x, y, false
	}
	for j := 0; j < e.store.Len(); j++ {
		o := e.store.At(j)
		if j == i || j == left || j == right || o.Falling {
			continue
		}
		_, _, dd := separation(sx, sy, o.X, o.Y)
		if r+o.Radius-dd > p.RestTolerance {
			return x, y, false
		}
	}
	return sx, sy, true
}

// fitsAt reports whether item i could stand at (x, y) without overlapping any
// resting item other than ignore.
func (e *Engine) fitsAt(i, ignore int, x, y, r float64) bool {
	for j := 0; j < e.store.Len(); j++ {
		if j == i || j == ignore {
			continue
		}
		o := e.store.At(j)
		if o.Falling {
			continue
		}
		_, _, d := separation(x, y, o.X, o.Y)
		if r+o.Radius-d > contactSlop {
			return false
		}
	}
	return true
}
