package counter

import (
	"fmt"
	"math"
	"math/rand"
)

// IngredientEntry is one ingredient as supplied by the recipe data layer.
type IngredientEntry struct {
	Name     string `json:"name" yaml:"name"`
	Quantity string `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// EquipmentEntry is one piece of equipment as supplied by the recipe data layer.
type EquipmentEntry struct {
	Name     string `json:"name" yaml:"name"`
	ImageURL string `json:"image_url,omitempty" yaml:"image_url,omitempty"`
}

// Columns returns the grid width used for a container of the given width.
func Columns(width float64) int {
	return max(3, int(math.Floor(width/100)))
}

// Initialize lays the entries out above the visible area, ingredients in a
// left-aligned grid and equipment in a right-aligned grid stacked above
// them. Every item starts falling. Rows sit progressively higher and columns
// are staggered so batches land at different times.
//
// It returns nil when the geometry is not usable yet.
func Initialize(ingredients []IngredientEntry, equipment []EquipmentEntry, g Geometry, p Params, seed int64) []Item {
	if !g.Valid() {
		return nil
	}

	cols := Columns(g.Width)
	cell := g.Width / float64(cols)
	rng := rand.New(rand.NewSource(seed))
	items := make([]Item, 0, len(ingredients)+len(equipment))

	spawn := func(idx, rowOffset int, radius float64, fromRight bool) (x, y float64) {
		col := idx % cols
		row := idx/cols + rowOffset
		r := math.Min(radius, cell*p.MaxCellFraction)
		x = (float64(col) + 0.5) * cell
		if fromRight {
			x = g.Width - x
		}
		y = -r - float64(row)*cell - float64(col)*p.ColumnStagger
		return x, y
	}

	tuning := func() Tuning {
		return Tuning{
			Acceleration: p.Acceleration + (rng.Float64()*2-1)*p.AccelerationJitter,
			Bounce:       p.FloorBounce * (0.8 + 0.4*rng.Float64()),
		}
	}

	for i, ing := range ingredients {
		x, y := spawn(i, 0, p.IngredientRadius, false)
		name := ing.Name
		if ing.Quantity != "" {
			name = ing.Quantity + " " + ing.Name
		}
		items = append(items, Item{
			ID:          fmt.Sprintf("ingredient-%d", i),
			DisplayName: name,
			Category:    Ingredient,
			X:           x,
			Y:           y,
			Radius:      math.Min(p.IngredientRadius, cell*p.MaxCellFraction),
			Falling:     true,
			ImageRef:    ing.ImageURL,
			Tuning:      tuning(),
		})
	}

	ingredientRows := (len(ingredients) + cols - 1) / cols
	for i, eq := range equipment {
		x, y := spawn(i, ingredientRows, p.EquipmentRadius, true)
		items = append(items, Item{
			ID:          fmt.Sprintf("equipment-%d", i),
			DisplayName: eq.Name,
			Category:    Equipment,
			X:           x,
			Y:           y,
			Radius:      math.Min(p.EquipmentRadius, cell*p.MaxCellFraction),
			Falling:     true,
			ImageRef:    eq.ImageURL,
			Tuning:      tuning(),
		})
	}

	return items
}
