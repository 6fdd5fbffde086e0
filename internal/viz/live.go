package viz

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/scene"
	"github.com/san-kum/counterfall/internal/transition"
)

const (
	canvasWidth     = 40
	canvasHeight    = 20
	historyCapacity = 300

	// canvas origin on screen, from canvasStyle's padding
	canvasLeft = 2
	canvasTop  = 1
)

type TickMsg time.Time

// Model is the live counter view. Every tick advances the engine by one step
// and the transition clock by one frame interval, so step animations stay in
// lockstep with the physics even when the terminal lags.
type Model struct {
	session  *scene.Session
	sched    *transition.ManualScheduler
	interval time.Duration
	title    string

	canvas   *Canvas
	view     viewport
	theme    Theme
	running  bool
	showHelp bool

	falling  []float64
	lastPush counter.PushReport
	pushes   int
	message  string
}

func NewModel(cfg *config.Config, title string, logger *slog.Logger) Model {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	sched := transition.NewManualScheduler()
	s := scene.New(cfg, scene.WithScheduler(sched), scene.WithLogger(logger))

	c := NewCanvas(canvasWidth, canvasHeight)
	return Model{
		session:  s,
		sched:    sched,
		interval: time.Second / time.Duration(max(1, cfg.FrameRate)),
		title:    title,
		canvas:   c,
		view:     fitViewport(cfg.Container.Geometry(), c),
		theme:    Themes[0],
		running:  true,
		falling:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) Session() *scene.Session { return m.session }

func (m Model) Init() tea.Cmd { return m.tick() }

func (m Model) tick() tea.Cmd {
	return tea.Tick(m.interval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.session.Close()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.session.Reset()
			m.message = "reset"
		case "n", "right":
			m.navigate(1)
		case "p", "left":
			m.navigate(-1)
		case "t":
			m.theme = NextTheme(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.MouseMsg:
		if !m.showHelp {
			m.mouse(tea.MouseEvent(msg))
		}
	case tea.WindowSizeMsg:
		m.resize(msg.Width, msg.Height)
	case TickMsg:
		if m.running {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) navigate(dir int) {
	if m.session.Exit(dir) {
		m.message = ""
		return
	}
	if m.session.Sequencer().Phase() != transition.None {
		m.message = "transition running"
	} else if dir > 0 {
		m.message = "already at the last step"
	} else {
		m.message = "already at the first step"
	}
}

// step advances the engine and the transition clock by one frame.
func (m *Model) step() {
	eng := m.session.Engine()
	eng.Tick()
	m.sched.Advance(m.interval)

	m.falling = append(m.falling, float64(eng.Frame().Falling()))
	if len(m.falling) > historyCapacity {
		m.falling = m.falling[1:]
	}
}

func (m *Model) resize(w, h int) {
	cols := max(20, w-50-canvasLeft*2)
	rows := max(8, h-canvasTop*2-1)
	m.canvas = NewCanvas(cols, rows)
	m.view = fitViewport(m.session.Engine().Geometry(), m.canvas)
}

// pointer converts a terminal cell to container coordinates, undoing the
// transition shift so the item under the cursor is the one drawn there.
func (m *Model) pointer(col, row int) (float64, float64) {
	px, py := m.view.toContainer((col-canvasLeft)*2+1, (row-canvasTop)*4+2)
	return px - m.offset(), py
}

func (m *Model) mouse(ev tea.MouseEvent) {
	eng := m.session.Engine()
	px, py := m.pointer(ev.X, ev.Y)

	switch ev.Action {
	case tea.MouseActionPress:
		if ev.Button != tea.MouseButtonLeft {
			return
		}
		id, ok := eng.ItemAt(px, py)
		if !ok {
			return
		}
		if err := eng.PointerDown(id, px, py); err != nil {
			m.message = err.Error()
			return
		}
		if it, ok := eng.Item(id); ok {
			m.message = "holding " + it.DisplayName
		}
	case tea.MouseActionMotion:
		if _, ok := eng.Dragging(); !ok {
			return
		}
		rep, err := eng.PointerMove(px, py)
		if err != nil {
			m.message = err.Error()
			return
		}
		m.lastPush = rep
		m.pushes += len(rep.Pushed)
	case tea.MouseActionRelease:
		if err := eng.PointerUp(); err != nil && !errors.Is(err, counter.ErrNotDragging) {
			m.message = err.Error()
			return
		}
		m.message = ""
	}
}

func (m *Model) offset() float64 {
	return m.session.Sequencer().Offset(m.session.Engine().Geometry().Width)
}

// draw renders the container and its items onto the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	f := m.session.Engine().Frame()
	g := f.Geometry
	if !g.Valid() {
		return
	}

	left, floor := m.view.toCanvas(0, g.FloorY)
	right, _ := m.view.toCanvas(g.Width, g.FloorY)
	m.canvas.DrawLine(left, floor, right, floor)
	m.canvas.DrawLine(left, 0, left, floor)
	m.canvas.DrawLine(right, 0, right, floor)

	off := m.offset()
	for _, it := range f.Items {
		cx, cy := m.view.toCanvas(it.X+off, it.Y)
		r := m.view.length(it.Radius)
		if it.Dragging {
			m.canvas.FillCircle(cx, cy, r)
		} else {
			m.canvas.DrawCircle(cx, cy, r)
		}
	}
}

func (m Model) View() string {
	if m.showHelp {
		return helpText
	}
	m.draw()

	canvasView := canvasStyle.Foreground(m.theme.Counter).Render(m.canvas.String())
	f := m.session.Engine().Frame()
	seq := m.session.Sequencer()

	var s strings.Builder
	step := m.session.Current()
	s.WriteString(headerStyle(m.theme).Render(strings.ToUpper(m.title)) + "\n")
	s.WriteString(fmt.Sprintf("step %d/%d  %s\n\n", m.session.Step()+1, m.session.Steps(), step.Title))

	status := "RUNNING"
	if !m.running {
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	if len(m.falling) > 1 {
		chart := asciigraph.Plot(m.falling, asciigraph.Height(4), asciigraph.Width(30), asciigraph.Caption("Falling"))
		s.WriteString(graphStyle.Render(chart) + "\n\n")
	}

	row := func(label, value string) {
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}
	row("Tick", fmt.Sprintf("%d", f.Tick))
	row("Items", fmt.Sprintf("%d", len(f.Items)))
	falling := f.Falling()
	fallStyle := valueStyle.Foreground(m.theme.Resting)
	if falling > 0 {
		fallStyle = valueStyle.Foreground(m.theme.Falling)
	}
	s.WriteString(labelStyle.Render("Falling") + fallStyle.Render(fmt.Sprintf("%d", falling)) + "\n")
	if id, ok := m.session.Engine().Dragging(); ok {
		row("Dragging", id)
	}
	row("Pushed", fmt.Sprintf("%d total", m.pushes))
	if m.lastPush.CascadeRounds > 0 {
		row("Cascade", fmt.Sprintf("%d rounds, %s", m.lastPush.CascadeRounds, m.lastPush.Cascade))
	}

	phase := seq.Phase()
	if phase != transition.None {
		row("Phase", phase.String())
		s.WriteString(labelStyle.Render("") + ProgressBar(seq.Progress(), 20) + "\n")
	}
	if m.message != "" {
		s.WriteString("\n" + KeyHint.Render(m.message) + "\n")
	}

	s.WriteString(helpStyle.Render("\n─────────────────────\nSP:Pause R:Reset Q:Quit\nN/P:Step  T:Theme ?:Help\nMouse: drag items"))
	statsView := statsStyle.Render(s.String())
	return lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsView)
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume physics     ║
║  R        - Drop the items again     ║
║  N / →    - Next step                ║
║  P / ←    - Previous step            ║
║  T        - Cycle themes             ║
║  Q        - Quit                     ║
║  ?        - Toggle this help         ║
║  Mouse    - Drag items around        ║
╚══════════════════════════════════════╝
`

// Run opens the live view full screen with mouse tracking.
func Run(cfg *config.Config, title string, logger *slog.Logger) error {
	m := NewModel(cfg, title, logger)
	defer m.Session().Close()
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithMouseCellMotion()).Run()
	return err
}
