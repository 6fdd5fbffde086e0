package export

import (
	"strings"
	"testing"

	"github.com/san-kum/counterfall/internal/counter"
)

func testFrame() counter.Frame {
	return counter.Frame{
		Tick:     12,
		Geometry: counter.Geometry{Width: 400, Height: 600, FloorY: 500},
		Items: []counter.View{
			{ID: "a", DisplayName: "2 cups flour & milk", Category: counter.Ingredient, X: 100, Y: 460, Radius: 40},
			{ID: "b", DisplayName: "whisk", Category: counter.Equipment, X: 300, Y: 120, Radius: 45, Falling: true},
			{ID: "c", Category: counter.Ingredient, X: 200, Y: 460, Radius: 40, Dragging: true},
		},
	}
}

func TestFrameToSVG(t *testing.T) {
	svg := FrameToSVG(testFrame(), true)

	for _, want := range []string{
		`viewBox="0 0 400 600"`,
		`<circle id="a" cx="100.0" cy="460.0" r="40.0" fill="#f4a259"`,
		`<circle id="b" cx="300.0" cy="120.0" r="45.0" fill="#5b8e7d"`,
		`stroke-dasharray`,
		`stroke="#268bd2"`,
		`2 cups flour &amp; milk`,
		`y1="500.0"`,
	} {
		if !strings.Contains(svg, want) {
			t.Errorf("svg missing %q", want)
		}
	}
	if !strings.HasSuffix(svg, "</svg>") {
		t.Error("svg not closed")
	}
	if n := strings.Count(svg, "stroke-dasharray"); n != 1 {
		t.Errorf("dashed circles = %d, want 1", n)
	}
}

func TestFrameToSVGWithoutLabels(t *testing.T) {
	if svg := FrameToSVG(testFrame(), false); strings.Contains(svg, "<text") {
		t.Error("labels drawn when disabled")
	}
}

func TestTraceToSVG(t *testing.T) {
	frames := []counter.Frame{{Tick: 0}, {Tick: 1}, {Tick: 2}}
	frames[0].Items = []counter.View{{Falling: true}, {Falling: true}}
	frames[1].Items = []counter.View{{Falling: true}}

	falling := func(f counter.Frame) float64 { return float64(f.Falling()) }
	svg := TraceToSVG(frames, falling, 200, 100, "#00ff00")
	if !strings.Contains(svg, `d="M0.0,`) || strings.Count(svg, " L") != 2 {
		t.Errorf("unexpected path in %s", svg)
	}
	if TraceToSVG(frames[:1], falling, 200, 100, "#00ff00") != "" {
		t.Error("single frame should produce no plot")
	}
}
