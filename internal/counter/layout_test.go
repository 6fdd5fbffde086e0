package counter

import (
	"strings"
	"testing"
)

func TestColumns(t *testing.T) {
	tests := []struct {
		width float64
		want  int
	}{
		{0, 3},
		{250, 3},
		{399, 3},
		{400, 4},
		{1280, 12},
	}
	for _, tt := range tests {
		if got := Columns(tt.width); got != tt.want {
			t.Errorf("Columns(%v) = %d, want %d", tt.width, got, tt.want)
		}
	}
}

func TestInitializeWithoutGeometry(t *testing.T) {
	items := Initialize([]IngredientEntry{{Name: "flour"}}, nil, Geometry{}, DefaultParams(), 1)
	if items != nil {
		t.Errorf("expected no items, got %d", len(items))
	}
}

func TestInitializeGrid(t *testing.T) {
	p := DefaultParams()
	ings := []IngredientEntry{
		{Name: "flour", Quantity: "2 cups"}, {Name: "sugar"}, {Name: "eggs"},
		{Name: "milk"}, {Name: "butter"},
	}
	equip := []EquipmentEntry{{Name: "bowl", ImageURL: "bowl.png"}}
	items := Initialize(ings, equip, testGeometry, p, 1)

	if len(items) != 6 {
		t.Fatalf("expected 6 items, got %d", len(items))
	}
	for _, it := range items {
		if !it.Falling {
			t.Errorf("%s should start falling", it.ID)
		}
		if it.Y+it.Radius > 0 {
			t.Errorf("%s should spawn above the container, got y=%f", it.ID, it.Y)
		}
	}

	first := items[0]
	if first.ID != "ingredient-0" || first.X != 50 || first.Y != -40 {
		t.Errorf("unexpected first slot: %+v", first)
	}
	if first.DisplayName != "2 cups flour" {
		t.Errorf("expected quantity in display name, got %q", first.DisplayName)
	}
	if items[1].Y != -40-p.ColumnStagger {
		t.Errorf("expected second column staggered, got y=%f", items[1].Y)
	}
	if items[4].X != 50 || items[4].Y != -40-100 {
		t.Errorf("expected fifth ingredient on the second row, got (%f, %f)", items[4].X, items[4].Y)
	}

	bowl := items[5]
	if !strings.HasPrefix(bowl.ID, "equipment-") || bowl.Category != Equipment {
		t.Errorf("expected equipment item, got %+v", bowl)
	}
	if bowl.X != 350 {
		t.Errorf("expected equipment aligned right, got x=%f", bowl.X)
	}
	if bowl.Y >= items[4].Y {
		t.Errorf("expected equipment above the ingredient rows, got y=%f", bowl.Y)
	}
	if bowl.Radius != 45 {
		t.Errorf("expected equipment radius capped by the cell, got %f", bowl.Radius)
	}
	if bowl.ImageRef != "bowl.png" {
		t.Errorf("image ref not carried: %q", bowl.ImageRef)
	}
}

func TestInitializeDeterministic(t *testing.T) {
	ings := []IngredientEntry{{Name: "a"}, {Name: "b"}, {Name: "c"}}
	a := Initialize(ings, nil, testGeometry, DefaultParams(), 9)
	b := Initialize(ings, nil, testGeometry, DefaultParams(), 9)
	for i := range a {
		if a[i].Tuning != b[i].Tuning {
			t.Errorf("tuning differs for %s with the same seed", a[i].ID)
		}
	}
}

func TestCategoryText(t *testing.T) {
	var c Category
	if err := c.UnmarshalText([]byte("equipment")); err != nil || c != Equipment {
		t.Errorf("unmarshal equipment: %v %v", c, err)
	}
	if err := c.UnmarshalText([]byte("spoon")); err == nil {
		t.Error("expected error for unknown category")
	}
}
