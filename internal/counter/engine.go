package counter

import (
	"fmt"
	"log/slog"
	"sort"
)

// Engine owns the item store of one counter view and advances it tick by
// tick. It stays idle until it has valid geometry.
type Engine struct {
	params Params
	geom   Geometry
	store  *Store
	drag   *dragState
	logger *slog.Logger
	seed   int64
	tick   uint64

	ingredients []IngredientEntry
	equipment   []EquipmentEntry
}

type Option func(*Engine)

func WithParams(p Params) Option { return func(e *Engine) { e.params = p } }

func WithLogger(l *slog.Logger) Option { return func(e *Engine) { e.logger = l } }

// WithSeed fixes the per-item tuning so layouts are reproducible.
func WithSeed(seed int64) Option { return func(e *Engine) { e.seed = seed } }

func New(opts ...Option) *Engine {
	e := &Engine{
		params: DefaultParams(),
		store:  NewStore(nil),
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) Params() Params     { return e.params }
func (e *Engine) Geometry() Geometry { return e.geom }
func (e *Engine) TickCount() uint64  { return e.tick }
func (e *Engine) Len() int           { return e.store.Len() }

// SetGeometry supplies new container measurements. The first valid geometry
// spawns the loaded lists; later changes pull existing items back inside the
// new bounds and let anything that moved fall again.
func (e *Engine) SetGeometry(g Geometry) {
	prev := e.geom
	e.geom = g
	if !g.Valid() {
		return
	}
	if !prev.Valid() || e.store.Len() == 0 {
		e.spawn()
		return
	}
	for i := 0; i < e.store.Len(); i++ {
		it := e.store.At(i)
		wasOnFloor := it.Bottom() >= prev.FloorY-e.params.FloorMargin
		x, y := e.clampFree(it.Radius, it.X, it.Y)
		moved := x != it.X || y != it.Y
		it.X, it.Y = x, y
		if !it.Dragging && (moved || wasOnFloor && it.Bottom() < g.FloorY-contactSlop) {
			it.Falling = true
		}
		it.AgainstWall = e.againstWall(it)
	}
}

// SyncGeometry pulls measurements from a provider. It reports whether the
// provider had any to give.
func (e *Engine) SyncGeometry(lp LayoutProvider) bool {
	g, ok := lp.Geometry()
	if !ok {
		return false
	}
	if g != e.geom {
		e.SetGeometry(g)
	}
	return true
}

// Load replaces the ingredient and equipment lists and respawns the store.
// Without geometry the lists are kept and spawned once geometry arrives.
func (e *Engine) Load(ingredients []IngredientEntry, equipment []EquipmentEntry) {
	e.ingredients = append([]IngredientEntry(nil), ingredients...)
	e.equipment = append([]EquipmentEntry(nil), equipment...)
	e.Reset()
}

// Reset clears the store and lays the current lists out again.
func (e *Engine) Reset() {
	e.drag = nil
	e.store.Clear()
	if !e.geom.Valid() {
		return
	}
	e.spawn()
}

func (e *Engine) spawn() {
	e.drag = nil
	e.store.Replace(Initialize(e.ingredients, e.equipment, e.geom, e.params, e.seed))
	e.logger.Debug("counter reset",
		"items", e.store.Len(), "width", e.geom.Width, "floor_y", e.geom.FloorY)
}

// Place installs explicit items, replacing the store. Items keep the flags
// they were given; AgainstWall is recomputed.
func (e *Engine) Place(items []Item) error {
	if !e.geom.Valid() {
		return ErrNoGeometry
	}
	seen := make(map[string]bool, len(items))
	for _, it := range items {
		if seen[it.ID] {
			return fmt.Errorf("counter: duplicate item id %q", it.ID)
		}
		seen[it.ID] = true
	}
	e.drag = nil
	e.store.Replace(items)
	for i := 0; i < e.store.Len(); i++ {
		it := e.store.At(i)
		it.AgainstWall = e.againstWall(it)
	}
	return nil
}

// Active reports whether another tick would change anything.
func (e *Engine) Active() bool {
	return e.geom.Valid() && e.store.AnyFalling()
}

// Tick advances the simulation one frame: falling items move and settle
// against their neighbours, walls are enforced, and resting items are
// checked for balance. It reports whether anything is still falling.
func (e *Engine) Tick() bool {
	if !e.geom.Valid() {
		return false
	}
	e.tick++

	// Lower items propose first so the ones above can trail them.
	var order []int
	for i := 0; i < e.store.Len(); i++ {
		if it := e.store.At(i); it.Falling && !it.Dragging {
			order = append(order, i)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return e.store.At(order[a]).Y > e.store.At(order[b]).Y
	})
	moves := make([]proposal, 0, len(order))
	for _, i := range order {
		it := e.store.At(i)
		y0 := it.Y
		x, y := e.fallStep(it)
		y = e.trail(it, y0, x, y, moves)
		moves = append(moves, proposal{i: i, x: x, y: y})
	}
	sort.Slice(moves, func(a, b int) bool { return moves[a].i < moves[b].i })
	for _, m := range moves {
		e.resolveFalling(m.i, m.x, m.y)
	}

	e.enforceWalls()
	e.checkStability()
	return e.store.AnyFalling()
}

// Settle ticks until nothing falls or maxTicks is spent, returning the number
// of ticks run.
func (e *Engine) Settle(maxTicks int) (int, error) {
	if !e.geom.Valid() {
		return 0, ErrNoGeometry
	}
	for n := 0; n < maxTicks; n++ {
		if !e.Tick() {
			return n + 1, nil
		}
	}
	if !e.store.AnyFalling() {
		return maxTicks, nil
	}
	return maxTicks, fmt.Errorf("settle after %d ticks: %w", maxTicks, ErrSettleLimit)
}

// Items returns a copy of the store.
func (e *Engine) Items() []Item { return e.store.Items() }

// Item returns a copy of one item.
func (e *Engine) Item(id string) (Item, bool) {
	i, ok := e.store.Find(id)
	if !ok {
		return Item{}, false
	}
	return *e.store.At(i), true
}

// Frame snapshots the store for renderers. The snapshot shares nothing with
// the engine.
func (e *Engine) Frame() Frame {
	return Frame{
		Tick:     e.tick,
		Geometry: e.geom,
		Items:    e.store.Views(),
	}
}
