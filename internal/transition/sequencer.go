package transition

import (
	"sync"
	"time"
)

// Phase is the presentation state of the item set during step navigation.
type Phase int

const (
	None Phase = iota
	Jiggle
	Swipe
	SlideIn
)

func (p Phase) String() string {
	switch p {
	case Jiggle:
		return "jiggle"
	case Swipe:
		return "swipe"
	case SlideIn:
		return "slideIn"
	default:
		return "none"
	}
}

// Durations are the fixed lengths of the timed phases.
type Durations struct {
	Jiggle  time.Duration `yaml:"jiggle" json:"jiggle"`
	Swipe   time.Duration `yaml:"swipe" json:"swipe"`
	SlideIn time.Duration `yaml:"slide_in" json:"slide_in"`
}

func DefaultDurations() Durations {
	return Durations{
		Jiggle:  300 * time.Millisecond,
		Swipe:   600 * time.Millisecond,
		SlideIn: 800 * time.Millisecond,
	}
}

// Sequencer runs the exit (jiggle, swipe) and entrance (slide-in) sequences.
// It never touches item physics; embedders read Phase, Direction and
// Progress when drawing and react to the slide-change callback.
type Sequencer struct {
	mu        sync.Mutex
	sched     Scheduler
	durations Durations

	phase     Phase
	direction int
	started   time.Duration
	length    time.Duration
	lastExit  int
	visible   bool
	closed    bool

	// gen invalidates callbacks of timers that were superseded.
	gen   uint64
	timer Timer

	onSlideChange func(direction int)
	onPhase       func(phase Phase, direction int)
}

type Option func(*Sequencer)

func WithScheduler(s Scheduler) Option { return func(q *Sequencer) { q.sched = s } }

func WithDurations(d Durations) Option { return func(q *Sequencer) { q.durations = d } }

// OnSlideChange sets the callback invoked once per completed exit sequence
// with its direction.
func OnSlideChange(f func(direction int)) Option {
	return func(q *Sequencer) { q.onSlideChange = f }
}

// OnPhase sets a callback invoked on every phase change.
func OnPhase(f func(phase Phase, direction int)) Option {
	return func(q *Sequencer) { q.onPhase = f }
}

func New(opts ...Option) *Sequencer {
	q := &Sequencer{
		durations: DefaultDurations(),
		visible:   true,
	}
	for _, opt := range opts {
		opt(q)
	}
	if q.sched == nil {
		q.sched = WallClock()
	}
	return q
}

// ExitAnimation starts the exit sequence in the given direction. It reports
// false if another sequence is already running.
func (q *Sequencer) ExitAnimation(direction int) bool {
	q.mu.Lock()
	if q.closed || q.phase != None {
		q.mu.Unlock()
		return false
	}
	direction = Normalize(direction)
	q.lastExit = direction
	q.start(Jiggle, direction, q.durations.Jiggle)
	q.mu.Unlock()

	q.notifyPhase(Jiggle, direction)
	return true
}

func (q *Sequencer) ExitNext() bool     { return q.ExitAnimation(1) }
func (q *Sequencer) ExitPrevious() bool { return q.ExitAnimation(-1) }

// SetVisible records visibility of the item set. Becoming visible after
// being hidden plays the slide-in opposite to the last exit, replacing any
// sequence still running. It reports whether a slide-in started.
func (q *Sequencer) SetVisible(visible bool) bool {
	q.mu.Lock()
	was := q.visible
	q.visible = visible
	if q.closed || !visible || was {
		q.mu.Unlock()
		return false
	}
	direction := 1
	if q.lastExit != 0 {
		direction = -q.lastExit
	}
	q.stopTimer()
	q.start(SlideIn, direction, q.durations.SlideIn)
	q.mu.Unlock()

	q.notifyPhase(SlideIn, direction)
	return true
}

func (q *Sequencer) Phase() Phase {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.phase
}

// Direction is the direction of the running phase, or 0 when idle.
func (q *Sequencer) Direction() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.phase == None {
		return 0
	}
	return q.direction
}

// Progress is how far the running phase has got, from 0 to 1.
func (q *Sequencer) Progress() float64 {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.progress()
}

// Offset is the horizontal shift to draw the items with right now, for a
// container of the given width.
func (q *Sequencer) Offset(width float64) float64 {
	q.mu.Lock()
	p, dir, prog := q.phase, q.direction, q.progress()
	q.mu.Unlock()
	return Offset(p, dir, prog, width)
}

func (q *Sequencer) progress() float64 {
	if q.phase == None || q.length <= 0 {
		return 0
	}
	f := float64(q.sched.Now()-q.started) / float64(q.length)
	return min(max(f, 0), 1)
}

// Close cancels any pending phase timer. No callbacks run afterwards.
func (q *Sequencer) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.closed = true
	q.stopTimer()
	q.phase = None
}

func (q *Sequencer) start(p Phase, direction int, d time.Duration) {
	q.gen++
	gen := q.gen
	q.phase = p
	q.direction = direction
	q.started = q.sched.Now()
	q.length = d
	q.timer = q.sched.AfterFunc(d, func() { q.fire(gen) })
}

func (q *Sequencer) stopTimer() {
	q.gen++
	if q.timer != nil {
		q.timer.Stop()
		q.timer = nil
	}
}

func (q *Sequencer) fire(gen uint64) {
	q.mu.Lock()
	if q.closed || gen != q.gen {
		q.mu.Unlock()
		return
	}
	direction := q.direction
	switch q.phase {
	case Jiggle:
		q.start(Swipe, direction, q.durations.Swipe)
		q.mu.Unlock()
		q.notifyPhase(Swipe, direction)

	case Swipe:
		q.phase = None
		q.timer = nil
		q.mu.Unlock()
		if q.onSlideChange != nil {
			q.onSlideChange(direction)
		}
		// The callback may already have started the next sequence.
		q.mu.Lock()
		idle := q.gen == gen && !q.closed
		q.mu.Unlock()
		if idle {
			q.notifyPhase(None, 0)
		}

	case SlideIn:
		q.phase = None
		q.timer = nil
		q.mu.Unlock()
		q.notifyPhase(None, 0)

	default:
		q.mu.Unlock()
	}
}

func (q *Sequencer) notifyPhase(p Phase, direction int) {
	if q.onPhase != nil {
		q.onPhase(p, direction)
	}
}

// Normalize maps a direction to -1 for negative values and 1 otherwise.
func Normalize(direction int) int {
	if direction < 0 {
		return -1
	}
	return 1
}
