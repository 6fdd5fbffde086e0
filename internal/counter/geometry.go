package counter

import "math"

// epsilon floors every distance used as a divisor.
const epsilon = 1e-6

// Geometry describes the container: its size and the counter surface line.
// Y grows downward; FloorY is the lowest point any item may reach.
type Geometry struct {
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
	FloorY float64 `json:"floor_y" yaml:"floor_y"`
}

// Valid reports whether the engine can run against this geometry.
func (g Geometry) Valid() bool { return g.Width > 0 && g.FloorY > 0 }

// LayoutProvider yields the current container geometry. The second result is
// false while the measurement is not available yet.
type LayoutProvider interface {
	Geometry() (Geometry, bool)
}

// StaticLayout is a LayoutProvider with fixed numbers.
type StaticLayout Geometry

func (l StaticLayout) Geometry() (Geometry, bool) {
	g := Geometry(l)
	return g, g.Valid()
}

// separation returns the unit vector pointing from b to a and the distance
// between them. Coincident centres resolve straight up.
func separation(ax, ay, bx, by float64) (nx, ny, dist float64) {
	dx, dy := ax-bx, ay-by
	dist = math.Hypot(dx, dy)
	if dist < epsilon {
		return 0, -1, epsilon
	}
	return dx / dist, dy / dist, dist
}

func clamp(v, lo, hi float64) float64 {
	if lo > hi {
		return (lo + hi) / 2
	}
	return math.Max(lo, math.Min(hi, v))
}

func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
