package viz

import (
	"math"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/transition"
)

func TestCanvasSet(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(10, 0)

	if !c.IsSet(0, 0) || !c.IsSet(3, 3) {
		t.Error("dots not set")
	}
	if c.IsSet(1, 0) {
		t.Error("unexpected dot")
	}
	if got := c.Grid[0][0]; got != 0x2801 {
		t.Errorf("cell 0 = %U, want U+2801", got)
	}
	if got := c.Grid[0][1]; got != 0x2880 {
		t.Errorf("cell 1 = %U, want U+2880", got)
	}

	c.Clear()
	if c.IsSet(0, 0) {
		t.Error("Clear left dots on")
	}
}

func TestCanvasCircle(t *testing.T) {
	c := NewCanvas(20, 10)
	c.DrawCircle(20, 20, 8)

	for _, p := range [][2]int{{28, 20}, {12, 20}, {20, 28}, {20, 12}} {
		if !c.IsSet(p[0], p[1]) {
			t.Errorf("outline missing %v", p)
		}
	}
	if c.IsSet(20, 20) {
		t.Error("outline filled the centre")
	}

	c.Clear()
	c.FillCircle(20, 20, 4)
	if !c.IsSet(20, 20) || !c.IsSet(23, 20) || c.IsSet(25, 20) {
		t.Error("fill has the wrong extent")
	}
}

func TestCanvasString(t *testing.T) {
	c := NewCanvas(3, 2)
	if lines := strings.Split(strings.TrimSuffix(c.String(), "\n"), "\n"); len(lines) != 2 {
		t.Errorf("lines = %d, want 2", len(lines))
	}
}

func TestViewportRoundTrip(t *testing.T) {
	c := NewCanvas(40, 20)
	v := fitViewport(counter.Geometry{Width: 400, Height: 600, FloorY: 500}, c)

	if want := 80.0 / 600; math.Abs(v.scale-want) > 1e-12 {
		t.Errorf("scale = %v, want %v", v.scale, want)
	}
	dx, dy := v.toCanvas(200, 300)
	if dx != 40 || dy != 40 {
		t.Errorf("centre maps to (%d, %d), want (40, 40)", dx, dy)
	}
	x, y := v.toContainer(dx, dy)
	if math.Abs(x-200) > 1/v.scale || math.Abs(y-300) > 1/v.scale {
		t.Errorf("round trip = (%v, %v)", x, y)
	}
}

func TestSparkline(t *testing.T) {
	if got := Sparkline([]float64{0, 1, 2, 3}, 4); got != "▁▃▅█" {
		t.Errorf("Sparkline = %q", got)
	}
	if got := []rune(Sparkline(make([]float64, 100), 10)); len(got) != 10 {
		t.Errorf("width = %d, want 10", len(got))
	}
	if got := Sparkline(nil, 3); got != "───" {
		t.Errorf("empty = %q", got)
	}
}

func TestNextTheme(t *testing.T) {
	last := Themes[len(Themes)-1]
	if NextTheme(last).Name != Themes[0].Name {
		t.Error("themes do not wrap")
	}
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("unknown theme should fall back to the first")
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := NewModel(config.DefaultConfig(), "test", nil)
	t.Cleanup(m.Session().Close)
	return m
}

func update(m Model, msg tea.Msg) Model {
	next, _ := m.Update(msg)
	return next.(Model)
}

func TestModelTicksEngine(t *testing.T) {
	m := newTestModel(t)
	m = update(m, TickMsg{})
	m = update(m, TickMsg{})
	if got := m.Session().Engine().TickCount(); got != 2 {
		t.Errorf("ticks = %d, want 2", got)
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{' '}})
	m = update(m, TickMsg{})
	if got := m.Session().Engine().TickCount(); got != 2 {
		t.Errorf("paused model ticked: %d", got)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("view does not show PAUSED")
	}
}

func TestModelStepNavigation(t *testing.T) {
	m := newTestModel(t)
	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'p'}})
	if m.message == "" {
		t.Error("no message when going back from the first step")
	}

	m = update(m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'n'}})
	if m.Session().Sequencer().Phase() != transition.Jiggle {
		t.Fatalf("phase = %v, want jiggle", m.Session().Sequencer().Phase())
	}
	// jiggle and swipe take 900ms; one second of frames finishes them.
	for i := 0; i < 60; i++ {
		m = update(m, TickMsg{})
	}
	if m.Session().Step() != 1 {
		t.Errorf("step = %d, want 1", m.Session().Step())
	}
	if m.Session().Sequencer().Phase() != transition.SlideIn {
		t.Errorf("phase = %v, want slideIn", m.Session().Sequencer().Phase())
	}
}

func TestModelMouseDrag(t *testing.T) {
	m := newTestModel(t)
	eng := m.Session().Engine()
	err := eng.Place([]counter.Item{
		{ID: "a", DisplayName: "flour", X: 200, Y: 460, Radius: 40},
	})
	if err != nil {
		t.Fatal(err)
	}

	// cell (22, 16) lands about (207, 465) in container pixels.
	m = update(m, tea.MouseMsg{X: 22, Y: 16, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if id, ok := eng.Dragging(); !ok || id != "a" {
		t.Fatalf("dragging = %q, %v", id, ok)
	}
	if !strings.Contains(m.message, "flour") {
		t.Errorf("message = %q", m.message)
	}

	m = update(m, tea.MouseMsg{X: 25, Y: 16, Action: tea.MouseActionMotion, Button: tea.MouseButtonLeft})
	it, _ := eng.Item("a")
	if it.X <= 200 {
		t.Errorf("x = %v, want moved right", it.X)
	}

	m = update(m, tea.MouseMsg{X: 25, Y: 16, Action: tea.MouseActionRelease})
	if _, ok := eng.Dragging(); ok {
		t.Error("still dragging after release")
	}

	// a press on empty space grabs nothing.
	update(m, tea.MouseMsg{X: 3, Y: 2, Action: tea.MouseActionPress, Button: tea.MouseButtonLeft})
	if _, ok := eng.Dragging(); ok {
		t.Error("grabbed something from empty space")
	}
}
