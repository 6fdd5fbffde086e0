package sim

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/san-kum/counterfall/internal/counter"
)

// ErrStopped is returned by Do once the runner's loop has exited.
var ErrStopped = errors.New("sim: runner stopped")

// Runner owns an Engine on a single goroutine. It ticks the engine at the
// frame rate while anything is falling and parks otherwise. Pointer, reset
// and geometry events are queued with Do and run between ticks, so a drag
// move never interleaves with a tick.
type Runner struct {
	eng      *counter.Engine
	interval time.Duration
	events   chan event
	stopped  chan struct{}
	once     sync.Once

	mu        sync.Mutex
	observers []Observer

	latest atomic.Pointer[counter.Frame]
}

type event struct {
	fn   func(*counter.Engine)
	done chan struct{}
}

func NewRunner(eng *counter.Engine, frameRate int) *Runner {
	if frameRate <= 0 {
		frameRate = 60
	}
	r := &Runner{
		eng:      eng,
		interval: time.Second / time.Duration(frameRate),
		events:   make(chan event),
		stopped:  make(chan struct{}),
	}
	f := eng.Frame()
	r.latest.Store(&f)
	return r
}

func (r *Runner) AddObserver(o Observer) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.observers = append(r.observers, o)
}

// Frame returns the most recently published frame.
func (r *Runner) Frame() counter.Frame { return *r.latest.Load() }

// Run drives the loop until ctx is cancelled. It must be called once.
func (r *Runner) Run(ctx context.Context) error {
	defer r.once.Do(func() { close(r.stopped) })

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	r.publish()
	for {
		var tick <-chan time.Time
		if r.eng.Active() {
			tick = ticker.C
		}

		select {
		case <-ctx.Done():
			return ctx.Err()

		case ev := <-r.events:
			wasActive := r.eng.Active()
			ev.fn(r.eng)
			close(ev.done)
			if !wasActive && r.eng.Active() {
				ticker.Reset(r.interval)
			}
			r.publish()

		case <-tick:
			r.eng.Tick()
			r.publish()
		}
	}
}

// Do runs fn on the loop goroutine and waits for it to finish. The engine
// must not be retained past fn.
func (r *Runner) Do(ctx context.Context, fn func(*counter.Engine)) error {
	ev := event{fn: fn, done: make(chan struct{})}
	select {
	case r.events <- ev:
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-ev.done:
		return nil
	case <-r.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r *Runner) publish() {
	f := r.eng.Frame()
	r.latest.Store(&f)

	r.mu.Lock()
	obs := append([]Observer(nil), r.observers...)
	r.mu.Unlock()
	for _, o := range obs {
		o.OnFrame(f)
	}
}
