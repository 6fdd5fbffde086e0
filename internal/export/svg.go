package export

import (
	"fmt"
	"html"
	"strings"

	"github.com/san-kum/counterfall/internal/counter"
)

var categoryFill = map[counter.Category]string{
	counter.Ingredient: "#f4a259",
	counter.Equipment:  "#5b8e7d",
}

// FrameToSVG draws the counter as it looks in one frame: the container, the
// floor line and every item as a labelled circle. Falling items are drawn
// dashed and the dragged item gets a highlight ring.
func FrameToSVG(f counter.Frame, labels bool) string {
	g := f.Geometry
	width, height := g.Width, g.Height
	if height < g.FloorY {
		height = g.FloorY
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="#fdf6e3"/>
<line x1="0" y1="%.1f" x2="%.0f" y2="%.1f" stroke="#93a1a1" stroke-width="2"/>
`, width, height, width, height, g.FloorY, width, g.FloorY)

	for _, it := range f.Items {
		fill, ok := categoryFill[it.Category]
		if !ok {
			fill = "#cccccc"
		}
		stroke := `stroke="#586e75" stroke-width="1.5"`
		if it.Falling {
			stroke = `stroke="#586e75" stroke-width="1.5" stroke-dasharray="4 3"`
		}
		fmt.Fprintf(&sb, `<circle id="%s" cx="%.1f" cy="%.1f" r="%.1f" fill="%s" %s/>
`, html.EscapeString(it.ID), it.X, it.Y, it.Radius, fill, stroke)
		if it.Dragging {
			fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f" fill="none" stroke="#268bd2" stroke-width="3"/>
`, it.X, it.Y, it.Radius+3)
		}
		if labels && it.DisplayName != "" {
			fmt.Fprintf(&sb, `<text x="%.1f" y="%.1f" font-size="11" text-anchor="middle" fill="#073642">%s</text>
`, it.X, it.Y+4, html.EscapeString(it.DisplayName))
		}
	}

	sb.WriteString("</svg>")
	return sb.String()
}

// TraceToSVG plots one series per frame, such as the number of falling items,
// as a polyline over ticks.
func TraceToSVG(frames []counter.Frame, value func(counter.Frame) float64, width, height int, strokeColor string) string {
	if len(frames) < 2 {
		return ""
	}

	minX, maxX := float64(frames[0].Tick), float64(frames[len(frames)-1].Tick)
	minY, maxY := value(frames[0]), value(frames[0])
	ys := make([]float64, len(frames))
	for i, f := range frames {
		ys[i] = value(f)
		minY = min(minY, ys[i])
		maxY = max(maxY, ys[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeY = maxY - minY

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		width, height, width, height, strokeColor)

	for i, f := range frames {
		x := (float64(f.Tick) - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}

	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}
