package viz

import (
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/counterfall/internal/config"
)

const (
	stateMenu = iota
	stateSim
)

var (
	menuTitle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#00cccc")).Bold(true)
	menuSub      = lipgloss.NewStyle().Foreground(lipgloss.Color("#666688"))
	menuCursor   = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ffff")).Bold(true)
	menuSelected = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff")).Bold(true)
	menuDetail   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff88ff"))
	menuIdle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#555566"))
	menuKey      = lipgloss.NewStyle().Foreground(lipgloss.Color("#00aaaa")).Bold(true)
)

type presetEntry struct {
	group, name string
	cfg         *config.Config
}

func (p presetEntry) summary() string {
	items := 0
	for _, s := range p.cfg.Steps {
		items += len(s.Ingredients) + len(s.Equipment)
	}
	return fmt.Sprintf("%d steps, %d items, %.0fx%.0f",
		len(p.cfg.Steps), items, p.cfg.Container.Width, p.cfg.Container.FloorY)
}

// picker lists the built-in scenes and opens the live view on the chosen one.
type picker struct {
	state, cursor int
	presets       []presetEntry
	logger        *slog.Logger
	live          Model
}

func newPicker(logger *slog.Logger) picker {
	var entries []presetEntry
	for _, g := range config.ListGroups() {
		for _, name := range config.ListPresets(g) {
			entries = append(entries, presetEntry{group: g, name: name, cfg: config.GetPreset(g, name)})
		}
	}
	return picker{state: stateMenu, presets: entries, logger: logger}
}

func (m picker) Init() tea.Cmd { return nil }

func (m picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if m.state == stateSim {
		next, cmd := m.live.Update(msg)
		m.live = next.(Model)
		return m, cmd
	}
	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch key.String() {
	case "q", "ctrl+c":
		return m, tea.Quit
	case "up", "k":
		if m.cursor > 0 {
			m.cursor--
		}
	case "down", "j":
		if m.cursor < len(m.presets)-1 {
			m.cursor++
		}
	case "enter", " ":
		if len(m.presets) == 0 {
			return m, nil
		}
		p := m.presets[m.cursor]
		m.live = NewModel(p.cfg, p.group+"/"+p.name, m.logger)
		m.state = stateSim
		return m, m.live.Init()
	}
	return m, nil
}

func (m picker) View() string {
	if m.state == stateSim {
		return m.live.View()
	}
	var b strings.Builder
	b.WriteString("\n\n    " + menuTitle.Render("COUNTERFALL") + "\n    " + menuSub.Render("items on a kitchen counter") +
		"\n    " + menuSub.Render("─────────────────────────") + "\n\n")
	for i, p := range m.presets {
		name := fmt.Sprintf("%-20s", p.group+"/"+p.name)
		if i == m.cursor {
			b.WriteString(fmt.Sprintf("    %s %s  %s\n", menuCursor.Render("▸"), menuSelected.Render(name), menuDetail.Render(p.summary())))
		} else {
			b.WriteString(fmt.Sprintf("      %s  %s\n", menuIdle.Render(name), menuIdle.Render(p.summary())))
		}
	}
	b.WriteString("\n    " + menuKey.Render("j/k") + menuIdle.Render(" navigate  ") +
		menuKey.Render("enter") + menuIdle.Render(" open  ") +
		menuKey.Render("q") + menuIdle.Render(" quit") + "\n")
	return b.String()
}

// RunInteractive shows the scene picker full screen.
func RunInteractive(logger *slog.Logger) error {
	p := tea.NewProgram(newPicker(logger), tea.WithAltScreen(), tea.WithMouseCellMotion())
	final, err := p.Run()
	if m, ok := final.(picker); ok && m.state == stateSim {
		m.live.Session().Close()
	}
	return err
}
