package counter

import (
	"fmt"
	"strings"
)

// Category distinguishes ingredients from equipment.
type Category int

const (
	Ingredient Category = iota
	Equipment
)

func (c Category) String() string {
	switch c {
	case Equipment:
		return "equipment"
	default:
		return "ingredient"
	}
}

func (c Category) MarshalText() ([]byte, error) { return []byte(c.String()), nil }

func (c *Category) UnmarshalText(b []byte) error {
	switch strings.ToLower(string(b)) {
	case "ingredient", "":
		*c = Ingredient
	case "equipment":
		*c = Equipment
	default:
		return fmt.Errorf("counter: unknown category %q", b)
	}
	return nil
}

// Tuning carries the per-item variation assigned once at creation.
// Zero values fall back to the engine's Params.
type Tuning struct {
	Acceleration float64 `json:"acceleration" yaml:"acceleration"`
	Bounce       float64 `json:"bounce" yaml:"bounce"`
}

// Item is one circle on the counter.
type Item struct {
	ID                 string   `json:"id" yaml:"id"`
	DisplayName        string   `json:"display_name" yaml:"display_name"`
	Category           Category `json:"category" yaml:"category"`
	X                  float64  `json:"x" yaml:"x"`
	Y                  float64  `json:"y" yaml:"y"`
	Radius             float64  `json:"radius" yaml:"radius"`
	FallSpeed          float64  `json:"fall_speed" yaml:"fall_speed"`
	HorizontalVelocity float64  `json:"horizontal_velocity" yaml:"horizontal_velocity"`
	Falling            bool     `json:"falling" yaml:"falling"`
	Dragging           bool     `json:"dragging" yaml:"dragging"`
	AgainstWall        bool     `json:"against_wall" yaml:"against_wall"`
	ImageRef           string   `json:"image_ref,omitempty" yaml:"image_ref,omitempty"`
	Tuning             Tuning   `json:"tuning" yaml:"tuning"`
}

// Bottom returns the y coordinate of the item's lowest point.
func (it *Item) Bottom() float64 { return it.Y + it.Radius }

// Contains reports whether the point (px, py) lies inside the item's circle.
func (it *Item) Contains(px, py float64) bool {
	dx, dy := px-it.X, py-it.Y
	return dx*dx+dy*dy <= it.Radius*it.Radius
}

// View is the read-only projection of an item handed to renderers.
type View struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"display_name"`
	Category    Category `json:"category"`
	X           float64  `json:"x"`
	Y           float64  `json:"y"`
	Radius      float64  `json:"radius"`
	Falling     bool     `json:"falling"`
	Dragging    bool     `json:"dragging"`
	AgainstWall bool     `json:"against_wall"`
	ImageRef    string   `json:"image_ref,omitempty"`
}

func (it *Item) View() View {
	return View{
		ID:          it.ID,
		DisplayName: it.DisplayName,
		Category:    it.Category,
		X:           it.X,
		Y:           it.Y,
		Radius:      it.Radius,
		Falling:     it.Falling,
		Dragging:    it.Dragging,
		AgainstWall: it.AgainstWall,
		ImageRef:    it.ImageRef,
	}
}

// Frame is a consistent snapshot of the store taken between ticks.
type Frame struct {
	Tick     uint64   `json:"tick"`
	Geometry Geometry `json:"geometry"`
	Items    []View   `json:"items"`
}

// Falling counts the items still under gravity.
func (f Frame) Falling() int {
	n := 0
	for _, v := range f.Items {
		if v.Falling {
			n++
		}
	}
	return n
}

// Dragging reports whether any item in the frame is grabbed.
func (f Frame) Dragging() bool {
	for _, v := range f.Items {
		if v.Dragging {
			return true
		}
	}
	return false
}
