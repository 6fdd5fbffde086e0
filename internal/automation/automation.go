package automation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/scene"
	"github.com/san-kum/counterfall/internal/sim"
	"github.com/san-kum/counterfall/internal/transition"
)

// ErrExpectation is returned when an expect action does not hold.
var ErrExpectation = errors.New("automation: expectation failed")

// Scenario defines a scripted interaction sequence
type Scenario struct {
	Name        string   `yaml:"name"`
	Description string   `yaml:"description"`
	Preset      string   `yaml:"preset"` // group/name, optional
	Actions     []Action `yaml:"actions"`
}

// Action is one scripted input or check. Do selects which fields apply.
type Action struct {
	Do        string            `yaml:"do"`
	Ticks     int               `yaml:"ticks"`
	Duration  time.Duration     `yaml:"duration"`
	Item      string            `yaml:"item"`
	Path      [][2]float64      `yaml:"path"`
	Items     []counter.Item    `yaml:"items"`
	Direction int               `yaml:"direction"`
	Geometry  *counter.Geometry `yaml:"geometry"`
	Expect    *Expectation      `yaml:"expect"`
}

// Expectation checks the scene after the preceding actions.
type Expectation struct {
	Item      string   `yaml:"item"`
	X         *float64 `yaml:"x"`
	Y         *float64 `yaml:"y"`
	Tolerance float64  `yaml:"tolerance"`
	Falling   *bool    `yaml:"falling"`
	Settled   *bool    `yaml:"settled"`
	Step      *int     `yaml:"step"`
	Phase     string   `yaml:"phase"`
}

// ActionResult records what one action did.
type ActionResult struct {
	Index  int
	Do     string
	Ticks  int
	Pushes []counter.PushReport
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, err
	}
	if len(scenario.Actions) == 0 {
		return nil, fmt.Errorf("scenario %s has no actions", path)
	}

	return &scenario, nil
}

// Player runs scenarios against a session driven by a manual clock, so
// transitions advance in lockstep with engine ticks.
type Player struct {
	session  *scene.Session
	clock    *transition.ManualScheduler
	interval time.Duration
	maxTicks int
	logger   *slog.Logger
	observer sim.Observer
}

func NewPlayer(cfg *config.Config, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	clock := transition.NewManualScheduler()
	return &Player{
		session:  scene.New(cfg, scene.WithScheduler(clock), scene.WithLogger(logger)),
		clock:    clock,
		interval: time.Second / time.Duration(cfg.FrameRate),
		maxTicks: cfg.MaxTicks,
		logger:   logger,
	}
}

// Observe sends every frame produced while playing to o.
func (p *Player) Observe(o sim.Observer) { p.observer = o }

func (p *Player) Session() *scene.Session { return p.session }

func (p *Player) Close() { p.session.Close() }

// RunScenario executes all actions in order, stopping at the first failure.
func (p *Player) RunScenario(ctx context.Context, scenario *Scenario) ([]ActionResult, error) {
	results := make([]ActionResult, 0, len(scenario.Actions))

	for i, a := range scenario.Actions {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		p.logger.Debug("action", "index", i+1, "do", a.Do)

		res, err := p.run(a)
		res.Index, res.Do = i, a.Do
		results = append(results, res)
		if err != nil {
			return results, fmt.Errorf("action %d (%s): %w", i+1, a.Do, err)
		}
	}

	return results, nil
}

func (p *Player) run(a Action) (ActionResult, error) {
	eng := p.session.Engine()
	var res ActionResult

	switch a.Do {
	case "tick":
		for i := 0; i < max(a.Ticks, 1); i++ {
			p.frame()
			res.Ticks++
		}

	case "settle":
		limit := a.Ticks
		if limit <= 0 {
			limit = p.maxTicks
		}
		for eng.Active() && res.Ticks < limit {
			p.frame()
			res.Ticks++
		}
		if eng.Active() {
			return res, fmt.Errorf("still falling after %d ticks: %w", limit, counter.ErrSettleLimit)
		}

	case "wait":
		frames := int(a.Duration / p.interval)
		for i := 0; i < frames; i++ {
			p.frame()
			res.Ticks++
		}

	case "drag":
		pushes, err := p.drag(a)
		res.Pushes = pushes
		p.emit()
		return res, err

	case "place":
		err := eng.Place(a.Items)
		p.emit()
		return res, err

	case "reset":
		p.session.Reset()
		p.emit()

	case "exit":
		dir := a.Direction
		if dir == 0 {
			dir = 1
		}
		if !p.session.Exit(dir) {
			return res, fmt.Errorf("exit %+d rejected at step %d", dir, p.session.Step())
		}

	case "geometry":
		if a.Geometry == nil {
			return res, errors.New("geometry action without geometry")
		}
		eng.SetGeometry(*a.Geometry)
		p.emit()

	case "expect":
		if a.Expect == nil {
			return res, errors.New("expect action without expect")
		}
		return res, p.check(*a.Expect)

	default:
		return res, fmt.Errorf("unknown action %q", a.Do)
	}
	return res, nil
}

// frame advances the engine and the transition clock by one frame.
func (p *Player) frame() {
	p.session.Engine().Tick()
	p.clock.Advance(p.interval)
	p.emit()
}

func (p *Player) emit() {
	if p.observer != nil {
		p.observer.OnFrame(p.session.Engine().Frame())
	}
}

func (p *Player) drag(a Action) ([]counter.PushReport, error) {
	eng := p.session.Engine()
	if len(a.Path) == 0 {
		return nil, errors.New("drag without a path")
	}
	start := a.Path[0]
	id := a.Item
	if id == "" {
		var ok bool
		if id, ok = eng.ItemAt(start[0], start[1]); !ok {
			return nil, fmt.Errorf("no item at (%.1f, %.1f)", start[0], start[1])
		}
	}

	if err := eng.PointerDown(id, start[0], start[1]); err != nil {
		return nil, err
	}
	var pushes []counter.PushReport
	for _, pt := range a.Path[1:] {
		rep, err := eng.PointerMove(pt[0], pt[1])
		if err != nil {
			return pushes, err
		}
		pushes = append(pushes, rep)
	}
	return pushes, eng.PointerUp()
}

func (p *Player) check(e Expectation) error {
	eng := p.session.Engine()
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf(format, args...))
	}

	if e.Settled != nil && eng.Active() == *e.Settled {
		fail("settled = %v, want %v", !eng.Active(), *e.Settled)
	}
	if e.Step != nil && p.session.Step() != *e.Step {
		fail("step = %d, want %d", p.session.Step(), *e.Step)
	}
	if e.Phase != "" {
		if got := p.session.Sequencer().Phase().String(); got != e.Phase {
			fail("phase = %s, want %s", got, e.Phase)
		}
	}

	if e.Item != "" {
		it, ok := eng.Item(e.Item)
		if !ok {
			fail("no item %q", e.Item)
		} else {
			tol := e.Tolerance
			if tol <= 0 {
				tol = 0.5
			}
			if e.X != nil && math.Abs(it.X-*e.X) > tol {
				fail("%s x = %.2f, want %.2f±%.2f", e.Item, it.X, *e.X, tol)
			}
			if e.Y != nil && math.Abs(it.Y-*e.Y) > tol {
				fail("%s y = %.2f, want %.2f±%.2f", e.Item, it.Y, *e.Y, tol)
			}
			if e.Falling != nil && it.Falling != *e.Falling {
				fail("%s falling = %v, want %v", e.Item, it.Falling, *e.Falling)
			}
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrExpectation, errors.Join(errs...))
	}
	return nil
}
