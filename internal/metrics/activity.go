package metrics

import "github.com/san-kum/counterfall/internal/counter"

// Activity is the mean number of falling items per frame.
type Activity struct {
	name    string
	sum     float64
	samples int
}

func NewActivity() *Activity {
	return &Activity{
		name: "activity",
	}
}

func (a *Activity) Name() string {
	return a.name
}

func (a *Activity) Observe(f counter.Frame) {
	a.sum += float64(f.Falling())
	a.samples++
}

func (a *Activity) Value() float64 {
	if a.samples == 0 {
		return 0
	}
	return a.sum / float64(a.samples)
}

func (a *Activity) Reset() {
	a.sum = 0
	a.samples = 0
}
