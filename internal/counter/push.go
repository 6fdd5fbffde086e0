package counter

import "math"

// Convergence tells whether a bounded loop finished on its own or was cut off.
type Convergence int

const (
	Converged Convergence = iota
	LimitReached
)

func (c Convergence) String() string {
	if c == LimitReached {
		return "limit-reached"
	}
	return "converged"
}

// PushReport describes how a drag move was resolved against the other items.
type PushReport struct {
	Pushed        []string    // ids displaced by the move, in order
	CascadeRounds int         // rounds used propagating pushes
	Cascade       Convergence // whether the push queue drained
	CleanupPasses int         // passes used separating leftovers
	Cleanup       Convergence // whether any overlap survived cleanup
	Unsupported   []string    // ids set falling because nothing holds them up
}

type push struct {
	dx, dy float64
}

// resolvePush moves item mi towards (cx, cy) and shoves whatever it overlaps
// out of the way, propagating the shove through the pile. travel is how far
// the pointer has dragged the item since the grab; longer drags push harder.
func (e *Engine) resolvePush(mi int, cx, cy, travel float64) PushReport {
	p := &e.params
	m := e.store.At(mi)
	var report PushReport

	cx, cy = e.clampFree(m.Radius, cx, cy)

	factor := math.Min(1+travel/p.DragScale, p.MaxDragFactor)
	x0, y0 := m.X, m.Y
	pending := newPushQueue()
	for j := 0; j < e.store.Len(); j++ {
		if j == mi {
			continue
		}
		o := e.store.At(j)
		sum := m.Radius + o.Radius
		_, _, d := separation(o.X, o.Y, cx, cy)
		overlap := sum - d
		if overlap <= contactSlop {
			continue
		}

		// Back the mover off to where it first touches the obstacle along its
		// path, then shove the obstacle away from that contact.
		var nx, ny float64
		if t, ok := sweepContact(x0, y0, cx, cy, o.X, o.Y, sum); ok {
			cx, cy = x0+t*(cx-x0), y0+t*(cy-y0)
			nx, ny, _ = separation(o.X, o.Y, cx, cy)
		} else {
			nx, ny, _ = separation(o.X, o.Y, x0, y0)
			cx, cy = o.X-nx*sum, o.Y-ny*sum
		}
		amount := overlap * p.PushStrength * factor
		pending.add(j, nx*amount, ny*amount)
	}
	cx, cy = e.clampFree(m.Radius, cx, cy)
	m.X, m.Y = cx, cy

	processed := make([]bool, e.store.Len())
	processed[mi] = true

	rounds := 0
	for pending.len() > 0 && rounds < p.MaxCascadeRounds {
		rounds++
		next := newPushQueue()
		for _, j := range pending.order {
			if processed[j] {
				continue
			}
			processed[j] = true
			d := pending.moves[j]
			e.applyPush(j, d.dx, d.dy)
			report.Pushed = append(report.Pushed, e.store.At(j).ID)

			o := e.store.At(j)
			for k := 0; k < e.store.Len(); k++ {
				if processed[k] {
					continue
				}
				ko := e.store.At(k)
				nx, ny, dist := separation(ko.X, ko.Y, o.X, o.Y)
				if overlap := o.Radius + ko.Radius - dist; overlap > contactSlop {
					next.add(k, nx*overlap, ny*overlap)
				}
			}
		}
		pending = next
	}
	report.CascadeRounds = rounds
	if pending.len() > 0 {
		report.Cascade = LimitReached
		e.logger.Warn("push cascade hit round limit",
			"item", m.ID, "rounds", rounds, "queued", pending.len())
	}

	report.CleanupPasses, report.Cleanup = e.cleanupOverlaps(mi, p.MaxCleanupPasses)
	if report.Cleanup == LimitReached {
		e.logger.Warn("overlap cleanup hit pass limit",
			"item", m.ID, "passes", report.CleanupPasses)
	}

	report.Unsupported = e.dropUnsupported(mi)
	return report
}

// dropUnsupported sets every resting item other than skip that is off the
// floor with nothing underneath it falling, and returns their ids.
func (e *Engine) dropUnsupported(skip int) []string {
	var ids []string
	for i := 0; i < e.store.Len(); i++ {
		it := e.store.At(i)
		if i == skip || it.Falling || it.Dragging || e.onFloor(it) {
			continue
		}
		if len(e.supports(i)) == 0 {
			it.Falling = true
			it.FallSpeed = e.params.SeedFallSpeed
			ids = append(ids, it.ID)
		}
	}
	return ids
}

// sweepContact finds the fraction t of the move from (x0, y0) to (x1, y1) at
// which a circle centred there first comes within sum of (ox, oy), clamped to
// the move. It reports false when the start already overlaps or the line of
// the move never touches.
func sweepContact(x0, y0, x1, y1, ox, oy, sum float64) (float64, bool) {
	dx, dy := x1-x0, y1-y0
	fx, fy := x0-ox, y0-oy
	c := fx*fx + fy*fy - sum*sum
	if c <= 0 {
		return 0, false
	}
	a := dx*dx + dy*dy
	if a < epsilon {
		return 1, false
	}
	b := 2 * (fx*dx + fy*dy)
	disc := b*b - 4*a*c
	if disc < 0 {
		return 1, false
	}
	t := (-b - math.Sqrt(disc)) / (2 * a)
	return clamp(t, 0, 1), true
}

// clampFree keeps a centre inside the walls (with tolerance) and above the floor.
func (e *Engine) clampFree(r, x, y float64) (float64, float64) {
	lo, hi := e.wallBounds(r)
	return clamp(x, lo, hi), math.Min(y, e.floorLimit(r))
}

// applyPush displaces item j. An item shoved into a wall is stopped there;
// if that stretch of wall is already taken by another item it hops upward
// over the obstruction instead. Items pushed to just above the floor drop
// onto it right away.
func (e *Engine) applyPush(j int, dx, dy float64) {
	p := &e.params
	it := e.store.At(j)
	lo, hi := e.wallBounds(it.Radius)
	x, y := it.X+dx, it.Y+dy

	switch {
	case x < lo:
		if e.wallOccupied(j, -1) {
			y -= (lo - x) * p.WallLift
		}
		x = lo
	case x > hi:
		if e.wallOccupied(j, 1) {
			y -= (x - hi) * p.WallLift
		}
		x = hi
	}
	y = math.Min(y, e.floorLimit(it.Radius))

	if gap := e.floorLimit(it.Radius) - y; gap > 0 && gap < p.GravitySnap*it.Radius {
		if e.fitsAt(j, -1, x, e.floorLimit(it.Radius), it.Radius) {
			y = e.floorLimit(it.Radius)
		}
	}

	it.X, it.Y = x, y
	it.AgainstWall = e.againstWall(it)
}

// wallOccupied reports whether another item already rests against the given
// wall (-1 left, 1 right) at the height of item j.
func (e *Engine) wallOccupied(j int, side int) bool {
	it := e.store.At(j)
	for k := 0; k < e.store.Len(); k++ {
		if k == j {
			continue
		}
		o := e.store.At(k)
		if side < 0 && !e.againstLeftWall(o) || side > 0 && !e.againstRightWall(o) {
			continue
		}
		if math.Abs(o.Y-it.Y) < o.Radius+it.Radius {
			return true
		}
	}
	return false
}

// cleanupOverlaps separates every remaining overlapping pair in at most
// passes sweeps, favouring vertical correction. The item at index fixed never
// moves; -1 lets every item move.
func (e *Engine) cleanupOverlaps(fixed, passes int) (int, Convergence) {
	n := e.store.Len()
	for pass := 1; pass <= passes; pass++ {
		moved := false
		for a := 0; a < n; a++ {
			for b := a + 1; b < n; b++ {
				if e.separatePair(a, b, fixed) {
					moved = true
				}
			}
		}
		if !moved {
			return pass, Converged
		}
	}
	return passes, LimitReached
}

// separatePair pushes a and b apart if they overlap and reports whether it did.
func (e *Engine) separatePair(a, b, fixed int) bool {
	p := &e.params
	A, B := e.store.At(a), e.store.At(b)
	nx, ny, d := separation(B.X, B.Y, A.X, A.Y)
	overlap := A.Radius + B.Radius - d
	if overlap <= contactSlop {
		return false
	}

	// Bias the split direction towards vertical while still closing the gap
	// along the contact normal.
	bx, by := nx, ny*p.VerticalBias
	l := math.Hypot(bx, by)
	bx, by = bx/l, by/l
	along := bx*nx + by*ny
	scale := math.Min(overlap/math.Max(along, epsilon), 2*overlap)
	vx, vy := bx*scale, by*scale

	shareA, shareB := 0.5, 0.5
	switch fixed {
	case a:
		shareA, shareB = 0, 1
	case b:
		shareA, shareB = 1, 0
	}

	ax, ay := e.clampFree(A.Radius, A.X-vx*shareA, A.Y-vy*shareA)
	bxPos, byPos := e.clampFree(B.Radius, B.X+vx*shareB, B.Y+vy*shareB)

	// Whatever one side could not take because of the floor or a wall goes
	// to the other side, B first unless it is fixed or on the floor.
	bFirst := b != fixed && byPos < e.floorLimit(B.Radius)
	for k := 0; k < 2; k++ {
		r := A.Radius + B.Radius - math.Hypot(bxPos-ax, byPos-ay)
		if r <= contactSlop {
			break
		}
		if (k == 0) == bFirst {
			if b != fixed {
				bxPos, byPos = e.clampFree(B.Radius, bxPos+nx*r, byPos+ny*r)
			}
		} else if a != fixed {
			ax, ay = e.clampFree(A.Radius, ax-nx*r, ay-ny*r)
		}
	}

	A.X, A.Y = ax, ay
	B.X, B.Y = bxPos, byPos
	A.AgainstWall = e.againstWall(A)
	B.AgainstWall = e.againstWall(B)
	return true
}

// pushQueue accumulates displacements per item in first-seen order.
type pushQueue struct {
	order []int
	moves map[int]push
}

func newPushQueue() *pushQueue {
	return &pushQueue{moves: make(map[int]push)}
}

func (q *pushQueue) add(j int, dx, dy float64) {
	cur, ok := q.moves[j]
	if !ok {
		q.order = append(q.order, j)
	}
	q.moves[j] = push{dx: cur.dx + dx, dy: cur.dy + dy}
}

func (q *pushQueue) len() int { return len(q.order) }
