package metrics

import "github.com/san-kum/counterfall/internal/counter"

// Stability is the fraction of frames in which nothing was falling.
type Stability struct {
	name     string
	restless int
	samples  int
}

func NewStability() *Stability {
	return &Stability{
		name: "stability",
	}
}

func (s *Stability) Name() string {
	return s.name
}

func (s *Stability) Observe(f counter.Frame) {
	s.samples++
	if f.Falling() > 0 {
		s.restless++
	}
}

func (s *Stability) Value() float64 {
	if s.samples == 0 {
		return 1.0
	}
	return 1.0 - float64(s.restless)/float64(s.samples)
}

func (s *Stability) Reset() {
	s.restless = 0
	s.samples = 0
}
