package gui

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/counterfall/internal/counter"
)

// drawCounter draws the walls, the floor line and the items, shifted by the
// running transition.
func (a *App) drawCounter() {
	f := a.session.Engine().Frame()
	g := f.Geometry
	if !g.Valid() {
		return
	}

	tl := a.view.toScreen(0, 0)
	bl := a.view.toScreen(0, g.FloorY)
	br := a.view.toScreen(g.Width, g.FloorY)
	tr := a.view.toScreen(g.Width, 0)
	rl.DrawLineEx(tl, bl, 2, ColCounter)
	rl.DrawLineEx(bl, br, 3, ColCounter)
	rl.DrawLineEx(br, tr, 2, ColCounter)

	off := a.offset()
	for _, it := range f.Items {
		a.drawItem(it, off)
	}
}

func (a *App) drawItem(it counter.View, off float64) {
	c := a.view.toScreen(it.X+off, it.Y)
	r := float32(it.Radius * a.view.scale)

	col := ColIngredient
	if it.Category == counter.Equipment {
		col = ColEquipment
	}
	if it.Falling {
		col = rl.ColorAlpha(col, 0.7)
	}
	rl.DrawCircleV(c, r, col)
	rl.DrawCircleLines(int32(c.X), int32(c.Y), r, ColBg)
	if it.Dragging {
		rl.DrawCircleLines(int32(c.X), int32(c.Y), r+3, ColSelect)
	}

	label := it.DisplayName
	if r := []rune(label); len(r) > 12 {
		label = string(r[:11]) + "…"
	}
	size := float32(12)
	w := rl.MeasureTextEx(a.font, label, size, 1).X
	rl.DrawTextEx(a.font, label, rl.NewVector2(c.X-w/2, c.Y-size/2), size, 1, ColBg)
}
