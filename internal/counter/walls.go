package counter

// wallBounds returns the range an item's centre may occupy horizontally.
// Items may poke past either wall by OverflowTolerance.
func (e *Engine) wallBounds(radius float64) (lo, hi float64) {
	tol := e.params.OverflowTolerance
	return radius - tol, e.geom.Width + tol - radius
}

// floorLimit is the largest centre y an item of the given radius may have.
func (e *Engine) floorLimit(radius float64) float64 {
	return e.geom.FloorY - radius
}

func (e *Engine) onFloor(it *Item) bool {
	return it.Bottom() >= e.geom.FloorY-e.params.FloorMargin
}

func (e *Engine) againstLeftWall(it *Item) bool {
	return it.X-it.Radius <= e.params.WallMargin
}

func (e *Engine) againstRightWall(it *Item) bool {
	return it.X+it.Radius >= e.geom.Width-e.params.WallMargin
}

func (e *Engine) againstWall(it *Item) bool {
	return e.againstLeftWall(it) || e.againstRightWall(it)
}

// enforceWalls clamps every free item into the container and bounces its
// horizontal velocity off the side it hit. The floor has no tolerance.
func (e *Engine) enforceWalls() {
	for i := 0; i < e.store.Len(); i++ {
		it := e.store.At(i)
		if it.Dragging {
			continue
		}
		lo, hi := e.wallBounds(it.Radius)
		bounce := e.params.WallBounce
		switch {
		case lo > hi:
			it.X = e.geom.Width / 2
			it.HorizontalVelocity = 0
		case it.X < lo:
			it.X = lo
			if it.HorizontalVelocity < 0 {
				it.HorizontalVelocity = -it.HorizontalVelocity * bounce
			}
		case it.X > hi:
			it.X = hi
			if it.HorizontalVelocity > 0 {
				it.HorizontalVelocity = -it.HorizontalVelocity * bounce
			}
		}
		if limit := e.floorLimit(it.Radius); it.Y > limit {
			it.Y = limit
		}
		it.AgainstWall = e.againstWall(it)
	}
}
