package viz

import "github.com/charmbracelet/lipgloss"

// Theme colours the counter view.
type Theme struct {
	Name    string
	Counter lipgloss.Color // items and container
	Accent  lipgloss.Color // headings and the dragged item
	Muted   lipgloss.Color
	Falling lipgloss.Color
	Resting lipgloss.Color
}

var (
	ThemeKitchen = Theme{
		Name:    "kitchen",
		Counter: lipgloss.Color("#f4a259"),
		Accent:  lipgloss.Color("#5b8e7d"),
		Muted:   lipgloss.Color("#8c7b6b"),
		Falling: lipgloss.Color("#ffcc00"),
		Resting: lipgloss.Color("#8cd790"),
	}

	ThemeNight = Theme{
		Name:    "night",
		Counter: lipgloss.Color("#a0c4ff"),
		Accent:  lipgloss.Color("#bdb2ff"),
		Muted:   lipgloss.Color("#4a5568"),
		Falling: lipgloss.Color("#ffd6a5"),
		Resting: lipgloss.Color("#caffbf"),
	}

	ThemeMono = Theme{
		Name:    "mono",
		Counter: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#0088ff"),
		Muted:   lipgloss.Color("#888888"),
		Falling: lipgloss.Color("#ffaa00"),
		Resting: lipgloss.Color("#00ff00"),
	}

	Themes = []Theme{ThemeKitchen, ThemeNight, ThemeMono}
)

// GetTheme returns a theme by name, falling back to the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t in Themes, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
