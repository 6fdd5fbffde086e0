package gui

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/san-kum/counterfall/internal/audio"
	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/scene"
	"github.com/san-kum/counterfall/internal/transition"
)

const (
	screenW = 1280
	screenH = 720

	// area the container is fitted into
	stageX, stageY = 40, 80
	stageW, stageH = 820, 600

	telemetryCapacity = 300
)

var (
	ColBg      = rl.NewColor(24, 20, 18, 255)
	ColCounter = rl.NewColor(120, 100, 80, 255)
	ColSelect  = rl.NewColor(255, 255, 255, 255)
	ColText    = rl.NewColor(170, 160, 150, 255)
	ColTextDim = rl.NewColor(80, 72, 66, 255)
	ColAccent  = rl.NewColor(91, 142, 125, 255)

	ColIngredient = rl.NewColor(244, 162, 89, 255)
	ColEquipment  = rl.NewColor(91, 142, 125, 255)
)

type preset struct {
	name string
	cfg  *config.Config
}

type App struct {
	presets  []preset
	selected int
	inMenu   bool

	session  *scene.Session
	sched    *transition.ManualScheduler
	interval time.Duration
	title    string
	running  bool
	acc      float64

	view      stage
	telemetry []float64
	pushes    int
	font      rl.Font
	logger    *slog.Logger

	sound *audio.Processor
	muted bool
}

// stage maps container pixels to screen pixels.
type stage struct {
	scale, ox, oy float64
}

func fitStage(g counter.Geometry) stage {
	h := math.Max(g.Height, g.FloorY)
	if g.Width <= 0 || h <= 0 {
		return stage{scale: 1, ox: stageX, oy: stageY}
	}
	s := math.Min(stageW/g.Width, stageH/h)
	return stage{scale: s, ox: stageX + (stageW-g.Width*s)/2, oy: stageY}
}

func (s stage) toScreen(x, y float64) rl.Vector2 {
	return rl.NewVector2(float32(s.ox+x*s.scale), float32(s.oy+y*s.scale))
}

func (s stage) toContainer(v rl.Vector2) (float64, float64) {
	return (float64(v.X) - s.ox) / s.scale, (float64(v.Y) - s.oy) / s.scale
}

func initWindow() {
	rl.InitWindow(screenW, screenH, "counterfall")
	rl.SetTargetFPS(60)
	rl.SetExitKey(0)
}

// loadFont prefers Liberation Mono and falls back to the built-in font.
func loadFont() rl.Font {
	font := rl.LoadFontEx("/usr/share/fonts/liberation/LiberationMono-Regular.ttf", 32, nil, 0)
	if font.Texture.ID == 0 {
		return rl.GetFontDefault()
	}
	rl.SetTextureFilter(font.Texture, rl.FilterBilinear)
	return font
}

func newApp(logger *slog.Logger) *App {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	var presets []preset
	for _, g := range config.ListGroups() {
		for _, name := range config.ListPresets(g) {
			presets = append(presets, preset{name: g + "/" + name, cfg: config.GetPreset(g, name)})
		}
	}
	proc := audio.NewProcessor(logger)
	if err := proc.Start(); err != nil {
		logger.Info("running without sound", "err", err)
	}
	return &App{
		presets:   presets,
		inMenu:    true,
		font:      loadFont(),
		logger:    logger,
		telemetry: make([]float64, 0, telemetryCapacity),
		sound:     proc,
	}
}

// RunInteractive opens the window on the scene menu and blocks until it is
// closed.
func RunInteractive(logger *slog.Logger) {
	initWindow()
	defer rl.CloseWindow()
	app := newApp(logger)
	defer app.shutdown()
	app.RunLoop()
}

// Run opens the window straight onto cfg.
func Run(cfg *config.Config, title string, logger *slog.Logger) {
	initWindow()
	defer rl.CloseWindow()
	app := newApp(logger)
	defer app.shutdown()
	app.load(cfg, title)
	app.RunLoop()
}

func (a *App) RunLoop() {
	for !rl.WindowShouldClose() {
		if !a.Update() {
			return
		}
		a.Draw()
	}
}

func (a *App) load(cfg *config.Config, title string) {
	a.close()
	a.sched = transition.NewManualScheduler()
	a.session = scene.New(cfg, scene.WithScheduler(a.sched), scene.WithLogger(a.logger))
	a.interval = time.Second / time.Duration(max(1, cfg.FrameRate))
	a.title = title
	a.view = fitStage(cfg.Container.Geometry())
	a.telemetry = a.telemetry[:0]
	a.pushes = 0
	a.acc = 0
	a.running = true
	a.inMenu = false
	a.sound.Reset()
}

func (a *App) close() {
	if a.session != nil {
		a.session.Close()
		a.session = nil
	}
}

func (a *App) shutdown() {
	a.close()
	a.sound.Stop()
}

// Update handles input and advances the physics with a fixed step. It
// reports false once the user asked to quit.
func (a *App) Update() bool {
	if rl.IsKeyPressed(rl.KeyQ) {
		return false
	}

	if a.inMenu {
		a.updateMenu()
		return true
	}

	switch {
	case rl.IsKeyPressed(rl.KeyEscape):
		a.close()
		a.inMenu = true
		return true
	case rl.IsKeyPressed(rl.KeySpace):
		a.running = !a.running
	case rl.IsKeyPressed(rl.KeyR):
		a.session.Reset()
		a.sound.Reset()
	case rl.IsKeyPressed(rl.KeyM):
		a.muted = !a.muted
	case rl.IsKeyPressed(rl.KeyN), rl.IsKeyPressed(rl.KeyRight):
		a.session.Exit(1)
	case rl.IsKeyPressed(rl.KeyP), rl.IsKeyPressed(rl.KeyLeft):
		a.session.Exit(-1)
	}

	a.updatePointer()

	if !a.running {
		return true
	}
	a.acc += float64(rl.GetFrameTime())
	dt := a.interval.Seconds()
	for steps := 0; a.acc >= dt && steps < 4; steps++ {
		a.acc -= dt
		eng := a.session.Engine()
		eng.Tick()
		a.sched.Advance(a.interval)

		f := eng.Frame()
		if !a.muted {
			a.sound.OnFrame(f)
		}
		a.telemetry = append(a.telemetry, float64(f.Falling()))
		if len(a.telemetry) > telemetryCapacity {
			a.telemetry = a.telemetry[1:]
		}
	}
	// drop backlog after a stall instead of fast-forwarding
	a.acc = math.Min(a.acc, dt)
	return true
}

func (a *App) updateMenu() {
	if len(a.presets) == 0 {
		return
	}
	if rl.IsKeyPressed(rl.KeyDown) || rl.IsKeyPressed(rl.KeyJ) {
		a.selected = (a.selected + 1) % len(a.presets)
	}
	if rl.IsKeyPressed(rl.KeyUp) || rl.IsKeyPressed(rl.KeyK) {
		a.selected = (a.selected - 1 + len(a.presets)) % len(a.presets)
	}
	if rl.IsKeyPressed(rl.KeyEnter) || rl.IsKeyPressed(rl.KeySpace) {
		p := a.presets[a.selected]
		a.load(p.cfg, p.name)
	}
}

func (a *App) updatePointer() {
	eng := a.session.Engine()
	px, py := a.view.toContainer(rl.GetMousePosition())
	px -= a.offset()

	switch {
	case rl.IsMouseButtonPressed(rl.MouseButtonLeft):
		if id, ok := eng.ItemAt(px, py); ok {
			if err := eng.PointerDown(id, px, py); err != nil {
				a.logger.Debug("pointer down", "item", id, "err", err)
			}
		}
	case rl.IsMouseButtonReleased(rl.MouseButtonLeft):
		_ = eng.PointerUp()
	case rl.IsMouseButtonDown(rl.MouseButtonLeft):
		if _, ok := eng.Dragging(); ok {
			if rep, err := eng.PointerMove(px, py); err == nil {
				a.pushes += len(rep.Pushed)
			}
		}
	}
}

func (a *App) offset() float64 {
	return a.session.Sequencer().Offset(a.session.Engine().Geometry().Width)
}

func (a *App) Draw() {
	rl.BeginDrawing()
	rl.ClearBackground(ColBg)

	if a.inMenu {
		a.drawMenu()
	} else {
		a.drawCounter()
		a.DrawHUD()
	}

	rl.EndDrawing()
}

func (a *App) DrawHUD() {
	a.drawText("counterfall", 30, 30, 24, ColSelect)
	a.drawText(fmt.Sprintf(":: %s", a.title), 200, 34, 16, ColText)

	step := a.session.Current()
	a.drawText(fmt.Sprintf("step %d/%d  %s", a.session.Step()+1, a.session.Steps(), step.Title), 900, 100, 18, ColSelect)

	f := a.session.Engine().Frame()
	y := 140
	line := func(format string, args ...any) {
		a.drawText(fmt.Sprintf(format, args...), 900, y, 16, ColText)
		y += 24
	}
	line("tick     %d", f.Tick)
	line("items    %d", len(f.Items))
	line("falling  %d", f.Falling())
	line("pushed   %d", a.pushes)
	if id, ok := a.session.Engine().Dragging(); ok {
		line("holding  %s", id)
	}
	if p := a.session.Sequencer().Phase(); p != transition.None {
		line("phase    %s %.0f%%", p, a.session.Sequencer().Progress()*100)
	}

	if a.sound.Active && !a.muted {
		bass, mid, high := a.sound.Levels()
		line("sound    b%.2f m%.2f h%.2f", bass, mid, high)
	}

	a.DrawTelemetry()

	status := "RUNNING"
	col := ColSelect
	if !a.running {
		status = "PAUSED"
		col = ColTextDim
	}
	a.drawText(status, 1150, 30, 16, col)

	a.drawText("[SPACE] PAUSE  [R] RESET  [N/P] STEP  [M] MUTE  [ESC] MENU  [Q] QUIT", 620, 690, 14, ColTextDim)
	a.drawText(fmt.Sprintf("%d FPS", int32(rl.GetFPS())), 30, 690, 14, ColTextDim)
}

func (a *App) drawText(text string, x, y int, size int, color rl.Color) {
	rl.DrawTextEx(a.font, text, rl.NewVector2(float32(x), float32(y)), float32(size), 1, color)
}

// DrawTelemetry plots the falling count over recent frames.
func (a *App) DrawTelemetry() {
	if len(a.telemetry) < 2 {
		return
	}

	rectX, rectY := 900, 560
	width, height := 340, 80

	maxVal := a.telemetry[0]
	for _, v := range a.telemetry {
		maxVal = math.Max(maxVal, v)
	}
	if maxVal == 0 {
		maxVal = 1
	}

	points := make([]rl.Vector2, len(a.telemetry))
	for i, val := range a.telemetry {
		px := float32(rectX) + (float32(i)/float32(len(a.telemetry)))*float32(width)
		py := float32(rectY+height) - float32(val/maxVal)*float32(height)
		points[i] = rl.NewVector2(px, py)
	}

	rl.DrawLineStrip(points, ColAccent)
	a.drawText("falling", rectX, rectY-20, 14, ColTextDim)
}

func (a *App) drawMenu() {
	a.drawText("counterfall", 50, 50, 40, ColSelect)
	a.drawText("Select Scene", 50, 100, 16, ColTextDim)

	y := 160
	for i, p := range a.presets {
		if i == a.selected {
			a.drawText(fmt.Sprintf("> %s", p.name), 50, y, 20, ColSelect)
		} else {
			a.drawText(fmt.Sprintf("  %s", p.name), 50, y, 20, ColText)
		}
		y += 28
	}

	a.drawText("ARROWS: NAVIGATE  ENTER: SELECT  Q: QUIT", 850, 690, 14, ColTextDim)
}
