package viz

import (
	"math"

	"github.com/san-kum/counterfall/internal/counter"
)

// viewport maps container pixels onto canvas dots with a uniform scale,
// centring the container horizontally.
type viewport struct {
	scale float64
	offX  float64
}

func fitViewport(g counter.Geometry, c *Canvas) viewport {
	h := math.Max(g.Height, g.FloorY)
	if g.Width <= 0 || h <= 0 {
		return viewport{scale: 1}
	}
	dw, dh := float64(c.Width*2), float64(c.Height*4)
	s := math.Min(dw/g.Width, dh/h)
	return viewport{scale: s, offX: (dw - g.Width*s) / 2}
}

func (v viewport) toCanvas(x, y float64) (int, int) {
	return int(math.Round(x*v.scale + v.offX)), int(math.Round(y * v.scale))
}

func (v viewport) toContainer(dx, dy int) (float64, float64) {
	return (float64(dx) - v.offX) / v.scale, float64(dy) / v.scale
}

func (v viewport) length(l float64) int {
	return max(1, int(math.Round(l*v.scale)))
}
