package counter

import (
	"fmt"
	"math"
)

// dragState records where a grab started so moves can be applied as pointer
// deltas rather than absolute positions.
type dragState struct {
	idx                int
	startX, startY     float64
	pointerX, pointerY float64
}

// Dragging returns the id of the grabbed item, if any.
func (e *Engine) Dragging() (string, bool) {
	if e.drag == nil {
		return "", false
	}
	return e.store.At(e.drag.idx).ID, true
}

// ItemAt returns the id of the topmost item under the point, if any. Later
// items are drawn over earlier ones, so the search runs backwards.
func (e *Engine) ItemAt(px, py float64) (string, bool) {
	for i := e.store.Len() - 1; i >= 0; i-- {
		if it := e.store.At(i); it.Contains(px, py) {
			return it.ID, true
		}
	}
	return "", false
}

// PointerDown grabs item id at pointer position (px, py). Items can be caught
// mid-fall.
func (e *Engine) PointerDown(id string, px, py float64) error {
	if e.drag != nil {
		return ErrDragInProgress
	}
	i, ok := e.store.Find(id)
	if !ok {
		return fmt.Errorf("pointer down on %q: %w", id, ErrUnknownItem)
	}
	it := e.store.At(i)
	e.drag = &dragState{
		idx:      i,
		startX:   it.X,
		startY:   it.Y,
		pointerX: px,
		pointerY: py,
	}
	it.Dragging = true
	it.Falling = false
	it.FallSpeed = 0
	it.HorizontalVelocity = 0
	return nil
}

// PointerMove drags the grabbed item by the pointer's offset from where the
// grab started. Moves that would squeeze a row of items against a wall are
// damped, the item never goes below the floor, and whatever it runs into is
// pushed out of the way.
func (e *Engine) PointerMove(px, py float64) (PushReport, error) {
	if e.drag == nil {
		return PushReport{}, ErrNotDragging
	}
	d := e.drag
	it := e.store.At(d.idx)

	cx := d.startX + (px - d.pointerX)
	cy := d.startY + (py - d.pointerY)

	if dx := cx - it.X; dx != 0 {
		cx = it.X + e.chainResistance(d.idx, dx)
	}
	cy = math.Min(cy, e.floorLimit(it.Radius))

	travel := math.Hypot(cx-d.startX, cy-d.startY)
	report := e.resolvePush(d.idx, cx, cy, travel)

	it.Falling = false
	it.Dragging = true
	it.AgainstWall = e.againstWall(it)
	return report, nil
}

// PointerUp releases the grabbed item. It falls again unless it was left on
// the floor. Overlaps the drag squeezed into the pile are separated now that
// the item can give way too; where there is no room left, the higher item of
// each overlapping pair falls and finds a new spot.
func (e *Engine) PointerUp() error {
	if e.drag == nil {
		return ErrNotDragging
	}
	i := e.drag.idx
	it := e.store.At(i)
	e.drag = nil

	it.Dragging = false
	it.FallSpeed = 0
	it.HorizontalVelocity = 0

	passes, conv := e.cleanupOverlaps(-1, e.params.MaxCleanupPasses*max(e.store.Len(), 1))
	if conv == LimitReached {
		e.logger.Debug("release cleanup hit pass limit", "item", it.ID, "passes", passes)
	}
	it.Falling = it.Bottom() < e.geom.FloorY-contactSlop
	e.dropOverlapping()
	e.dropUnsupported(i)

	for j := 0; j < e.store.Len(); j++ {
		o := e.store.At(j)
		o.AgainstWall = e.againstWall(o)
	}
	return nil
}

// dropOverlapping sets the higher item of every resting pair that still
// overlaps falling.
func (e *Engine) dropOverlapping() {
	p := &e.params
	for a := 0; a < e.store.Len(); a++ {
		for b := a + 1; b < e.store.Len(); b++ {
			A, B := e.store.At(a), e.store.At(b)
			if A.Falling || B.Falling {
				continue
			}
			_, _, d := separation(A.X, A.Y, B.X, B.Y)
			if A.Radius+B.Radius-d <= p.RestTolerance {
				continue
			}
			top := A
			if B.Y <= A.Y {
				top = B
			}
			top.Falling = true
			top.FallSpeed = p.SeedFallSpeed
		}
	}
}

// chainResistance damps a horizontal move of dx when the items lying ahead of
// item i in its row reach all the way to a wall and the move would compress
// them. Each extra item in the chain stiffens it further.
func (e *Engine) chainResistance(i int, dx float64) float64 {
	p := &e.params
	it := e.store.At(i)
	dir := sign(dx)

	gap := e.geom.Width - (it.X + it.Radius)
	if dir < 0 {
		gap = it.X - it.Radius
	}

	chain := 0
	occupied := 0.0
	walled := false
	for j := 0; j < e.store.Len(); j++ {
		if j == i {
			continue
		}
		o := e.store.At(j)
		if math.Abs(o.Y-it.Y) >= (o.Radius+it.Radius)*p.ChainBand {
			continue
		}
		if (o.X-it.X)*dir <= 0 {
			continue
		}
		chain++
		occupied += 2 * o.Radius
		if dir < 0 && e.againstLeftWall(o) || dir > 0 && e.againstRightWall(o) {
			walled = true
		}
	}
	if !walled {
		return dx
	}

	free := math.Max(gap-occupied, 0)
	if math.Abs(dx) <= free {
		return dx
	}
	excess := math.Abs(dx) - free
	return dir * (free + excess*math.Pow(p.ChainDamping, float64(chain)))
}
