package transition

import "math"

// jiggleAmplitude is the peak shake of the jiggle phase, in container pixels.
const jiggleAmplitude = 6

// Offset is the horizontal shift of the item set during phase p: two quick
// shakes for a jiggle, a slide off the exit side for a swipe, and a slide back
// from the opposite side for the slide-in. direction is the phase's own
// direction and progress runs from 0 to 1.
func Offset(p Phase, direction int, progress, width float64) float64 {
	switch p {
	case Jiggle:
		return math.Sin(progress*4*math.Pi) * jiggleAmplitude
	case Swipe:
		return -float64(direction) * width * progress
	case SlideIn:
		return -float64(direction) * width * (1 - progress)
	default:
		return 0
	}
}
