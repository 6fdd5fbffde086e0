package counter

import (
	"math"
	"slices"
)

// supports lists the resting items touching item i from below.
func (e *Engine) supports(i int) []int {
	it := e.store.At(i)
	p := &e.params
	var out []int
	for j := 0; j < e.store.Len(); j++ {
		if j == i {
			continue
		}
		o := e.store.At(j)
		if o.Falling {
			continue
		}
		sum := it.Radius + o.Radius
		_, _, d := separation(it.X, it.Y, o.X, o.Y)
		if d >= sum+p.ContactMargin {
			continue
		}
		if o.Y-it.Y <= p.SupportBand*sum {
			continue
		}
		out = append(out, j)
	}
	return out
}

// balanced decides whether item i can rest on sup. offset is the average
// horizontal distance of the item from its supports; its sign is the way the
// item slides when unbalanced.
func (e *Engine) balanced(i int, sup []int) (ok bool, offset float64) {
	it := e.store.At(i)
	if e.cradled(i) {
		return true, 0
	}
	if len(sup) == 0 {
		return false, 0
	}

	var left, right bool
	for _, j := range sup {
		o := e.store.At(j)
		dx := it.X - o.X
		offset += dx
		if dx >= 0 {
			left = true
		}
		if dx <= 0 {
			right = true
		}
	}
	offset /= float64(len(sup))

	if len(sup) == 1 {
		o := e.store.At(sup[0])
		ok = math.Abs(it.X-o.X) <= e.params.SingleSupportTolerance*(it.Radius+o.Radius)
	} else {
		ok = left && right
	}

	// A wall or a resting neighbour on the side the item would slide towards
	// props it up.
	if !ok {
		if offset < 0 && e.againstLeftWall(it) || offset > 0 && e.againstRightWall(it) {
			ok = true
		} else {
			ok = e.propped(i, sup, sign(offset))
		}
	}
	return ok, offset
}

// propped reports whether a resting item other than its supports touches
// item i on side dir.
func (e *Engine) propped(i int, sup []int, dir float64) bool {
	it := e.store.At(i)
	for j := 0; j < e.store.Len(); j++ {
		o := e.store.At(j)
		if j == i || o.Falling || o.Dragging || slices.Contains(sup, j) {
			continue
		}
		if (o.X-it.X)*dir <= 0 {
			continue
		}
		_, _, d := separation(it.X, it.Y, o.X, o.Y)
		if d < it.Radius+o.Radius+e.params.ContactMargin {
			return true
		}
	}
	return false
}

// cradled reports whether item i is wedged between lower items, or a lower
// item and a wall, on both sides. Such contacts can be too shallow to count
// as supports and still hold the item.
func (e *Engine) cradled(i int) bool {
	it := e.store.At(i)
	left, right := e.againstLeftWall(it), e.againstRightWall(it)
	below := 0
	for j := 0; j < e.store.Len(); j++ {
		o := e.store.At(j)
		if j == i || o.Falling || o.Dragging || o.Y <= it.Y+epsilon {
			continue
		}
		_, _, d := separation(it.X, it.Y, o.X, o.Y)
		if d >= it.Radius+o.Radius+e.params.ContactMargin {
			continue
		}
		below++
		if o.X < it.X {
			left = true
		}
		if o.X > it.X {
			right = true
		}
	}
	return below > 0 && left && right
}

// checkStability re-activates falling for resting items that lost their
// support or sit too far off-centre on it.
func (e *Engine) checkStability() {
	p := &e.params
	for i := 0; i < e.store.Len(); i++ {
		it := e.store.At(i)
		if it.Falling || it.Dragging || e.onFloor(it) {
			continue
		}
		sup := e.supports(i)
		ok, offset := e.balanced(i, sup)
		if ok {
			continue
		}
		it.Falling = true
		it.FallSpeed = p.SeedFallSpeed
		if len(sup) > 0 {
			dir := sign(offset)
			if dir == 0 {
				dir = 1
			}
			it.HorizontalVelocity = dir * (p.SlideSpeed + math.Abs(offset)*p.SlideGain)
		}
	}
}
