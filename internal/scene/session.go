// Package scene ties a configured list of recipe steps to an engine and a
// transition sequencer. A completed exit sequence moves to the neighbouring
// step and refills the counter with its items.
package scene

import (
	"log/slog"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/transition"
)

// Session is not safe for concurrent use. Engine mutations triggered by the
// sequencer go through the dispatch function, which by default runs them
// inline on the scheduler's goroutine.
type Session struct {
	cfg      *config.Config
	eng      *counter.Engine
	seq      *transition.Sequencer
	logger   *slog.Logger
	dispatch func(func(*counter.Engine))
	step     int
	onStep   []func(step int)
	seqOpts  []transition.Option
}

type Option func(*Session)

// WithScheduler drives the sequencer from s instead of the wall clock.
func WithScheduler(s transition.Scheduler) Option {
	return func(ss *Session) { ss.seqOpts = append(ss.seqOpts, transition.WithScheduler(s)) }
}

// WithPhaseObserver forwards sequencer phase changes to fn.
func WithPhaseObserver(fn func(transition.Phase, int)) Option {
	return func(ss *Session) { ss.seqOpts = append(ss.seqOpts, transition.OnPhase(fn)) }
}

// WithDispatch routes engine mutations through fn, for engines owned by
// another goroutine.
func WithDispatch(fn func(func(*counter.Engine))) Option {
	return func(ss *Session) { ss.dispatch = fn }
}

func WithLogger(l *slog.Logger) Option { return func(ss *Session) { ss.logger = l } }

// WithEngine uses eng instead of building one from the config.
func WithEngine(eng *counter.Engine) Option { return func(ss *Session) { ss.eng = eng } }

// OnStep registers a callback run after every step change.
func OnStep(fn func(step int)) Option {
	return func(ss *Session) { ss.onStep = append(ss.onStep, fn) }
}

func New(cfg *config.Config, opts ...Option) *Session {
	ss := &Session{cfg: cfg}
	for _, opt := range opts {
		opt(ss)
	}
	if ss.logger == nil {
		ss.logger = slog.New(slog.DiscardHandler)
	}
	if ss.eng == nil {
		ss.eng = cfg.NewEngine(0, ss.logger)
	}
	if ss.dispatch == nil {
		eng := ss.eng
		ss.dispatch = func(fn func(*counter.Engine)) { fn(eng) }
	}

	seqOpts := append([]transition.Option{
		transition.WithDurations(cfg.Transition),
		transition.OnSlideChange(ss.slideChange),
	}, ss.seqOpts...)
	ss.seq = transition.New(seqOpts...)
	return ss
}

func (ss *Session) Config() *config.Config           { return ss.cfg }
func (ss *Session) Engine() *counter.Engine          { return ss.eng }
func (ss *Session) Sequencer() *transition.Sequencer { return ss.seq }
func (ss *Session) Step() int                        { return ss.step }
func (ss *Session) Steps() int                       { return len(ss.cfg.Steps) }
func (ss *Session) Current() config.Step             { return ss.cfg.Step(ss.step) }

// Exit starts the exit sequence towards the next (1) or previous (-1) step.
// Zero counts as next, as it does for the sequencer. It reports false when
// there is no step that way or a sequence is running.
func (ss *Session) Exit(direction int) bool {
	direction = transition.Normalize(direction)
	next := ss.step + direction
	if next < 0 || next >= len(ss.cfg.Steps) {
		return false
	}
	return ss.seq.ExitAnimation(direction)
}

// Reset refills the counter with the current step's items.
func (ss *Session) Reset() {
	ss.dispatch(func(eng *counter.Engine) { eng.Reset() })
}

// Close cancels pending transition timers.
func (ss *Session) Close() { ss.seq.Close() }

func (ss *Session) slideChange(direction int) {
	next := max(0, min(ss.step+direction, len(ss.cfg.Steps)-1))
	if next == ss.step {
		return
	}
	ss.step = next
	s := ss.cfg.Step(next)
	ss.logger.Info("step changed", "step", next, "title", s.Title, "direction", direction)

	ss.seq.SetVisible(false)
	ss.dispatch(func(eng *counter.Engine) { eng.Load(s.Ingredients, s.Equipment) })
	ss.seq.SetVisible(true)

	for _, fn := range ss.onStep {
		fn(next)
	}
}
