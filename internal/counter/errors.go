package counter

import "errors"

// Domain errors for the engine's control surface. Physics degeneracies never
// produce errors; they settle on a best-effort position instead.
var (
	// ErrNoGeometry indicates the container size or floor line is not known yet.
	ErrNoGeometry = errors.New("counter: container geometry not available")

	// ErrUnknownItem indicates a pointer event targeted an id not in the store.
	ErrUnknownItem = errors.New("counter: unknown item")

	// ErrDragInProgress indicates a second pointer tried to grab an item.
	ErrDragInProgress = errors.New("counter: another item is already being dragged")

	// ErrNotDragging indicates a move or release arrived without a grab.
	ErrNotDragging = errors.New("counter: no item is being dragged")

	// ErrSettleLimit indicates the tick budget ran out before every item rested.
	ErrSettleLimit = errors.New("counter: tick budget exhausted before items settled")
)
