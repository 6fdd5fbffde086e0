package config

import (
	"sort"

	"github.com/san-kum/counterfall/internal/counter"
)

type (
	ing = counter.IngredientEntry
	eq  = counter.EquipmentEntry
)

func pancakeSteps() []Step {
	return []Step{
		{
			Title: "Mix the batter",
			Ingredients: []ing{
				{Name: "flour", Quantity: "2 cups"}, {Name: "sugar", Quantity: "2 tbsp"},
				{Name: "baking powder", Quantity: "2 tsp"}, {Name: "salt", Quantity: "1 pinch"},
				{Name: "milk", Quantity: "1½ cups"}, {Name: "eggs", Quantity: "2"},
			},
			Equipment: []eq{{Name: "mixing bowl"}, {Name: "whisk"}},
		},
		{
			Title:       "Cook",
			Ingredients: []ing{{Name: "butter", Quantity: "1 tbsp"}},
			Equipment:   []eq{{Name: "frying pan"}, {Name: "spatula"}, {Name: "ladle"}},
		},
		{
			Title:       "Serve",
			Ingredients: []ing{{Name: "maple syrup"}, {Name: "berries", Quantity: "1 cup"}},
			Equipment:   []eq{{Name: "plate"}},
		},
	}
}

func omeletteSteps() []Step {
	return []Step{
		{
			Title: "Beat the eggs",
			Ingredients: []ing{
				{Name: "eggs", Quantity: "3"}, {Name: "salt"}, {Name: "pepper"}, {Name: "chives"},
			},
			Equipment: []eq{{Name: "bowl"}, {Name: "fork"}},
		},
		{
			Title:       "Fold",
			Ingredients: []ing{{Name: "butter"}, {Name: "cheese", Quantity: "½ cup"}},
			Equipment:   []eq{{Name: "skillet"}, {Name: "spatula"}},
		},
	}
}

func crowdedSteps() []Step {
	names := []string{
		"flour", "sugar", "salt", "yeast", "water", "oil", "eggs", "milk", "butter",
		"vanilla", "cocoa", "cinnamon", "nutmeg", "honey", "oats", "raisins",
		"walnuts", "lemon", "zest", "cream",
	}
	ings := make([]ing, len(names))
	for i, n := range names {
		ings[i] = ing{Name: n}
	}
	return []Step{{
		Title:       "Everything at once",
		Ingredients: ings,
		Equipment: []eq{
			{Name: "bowl"}, {Name: "whisk"}, {Name: "sieve"}, {Name: "tray"}, {Name: "rolling pin"},
		},
	}}
}

func scene(name string, steps []Step, tweak func(*Config)) *Config {
	cfg := DefaultConfig()
	cfg.Scene = name
	cfg.Steps = steps
	if tweak != nil {
		tweak(cfg)
	}
	return cfg
}

var Presets = map[string]map[string]*Config{
	"breakfast": {
		"pancakes": scene("pancakes", pancakeSteps(), nil),
		"omelette": scene("omelette", omeletteSteps(), nil),
	},
	"stress": {
		"crowded": scene("crowded", crowdedSteps(), func(c *Config) {
			c.MaxTicks = 10000
		}),
		"narrow": scene("narrow", omeletteSteps(), func(c *Config) {
			c.Container.Width = 240
		}),
		"wide": scene("wide", crowdedSteps(), func(c *Config) {
			c.Container.Width = 1200
			c.Container.Height = 500
			c.Container.FloorY = 440
		}),
	},
}

func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func ListGroups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
