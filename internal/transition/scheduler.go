package transition

import (
	"sort"
	"sync"
	"time"
)

// Timer is a pending callback that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs callbacks after a delay and reports elapsed time. Sequencers
// take one so tests can drive phases with a manual clock.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
	Now() time.Duration
}

type wallScheduler struct {
	start time.Time
}

// WallClock returns a Scheduler backed by time.AfterFunc.
func WallClock() Scheduler {
	return &wallScheduler{start: time.Now()}
}

func (s *wallScheduler) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

func (s *wallScheduler) Now() time.Duration { return time.Since(s.start) }

// ManualScheduler fires callbacks only when Advance moves its clock past
// their deadline. Callbacks run on the goroutine calling Advance, outside the
// scheduler's lock, so they may schedule further callbacks.
type ManualScheduler struct {
	mu     sync.Mutex
	now    time.Duration
	seq    uint64
	timers []*manualTimer
}

type manualTimer struct {
	s    *ManualScheduler
	at   time.Duration
	seq  uint64
	f    func()
	done bool
}

func NewManualScheduler() *ManualScheduler {
	return &ManualScheduler{}
}

func (m *ManualScheduler) AfterFunc(d time.Duration, f func()) Timer {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	t := &manualTimer{s: m, at: m.now + d, seq: m.seq, f: f}
	m.timers = append(m.timers, t)
	return t
}

func (m *ManualScheduler) Now() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Pending returns the number of callbacks not yet fired or stopped.
func (m *ManualScheduler) Pending() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.timers)
}

// Advance moves the clock forward by d, firing due callbacks in deadline
// order. Callbacks scheduled while advancing fire too if they fall due
// before the new time.
func (m *ManualScheduler) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now + d
	m.mu.Unlock()

	for {
		m.mu.Lock()
		t := m.nextDue(target)
		if t == nil {
			m.now = target
			m.mu.Unlock()
			return
		}
		m.now = t.at
		t.done = true
		m.remove(t)
		m.mu.Unlock()

		t.f()
	}
}

func (m *ManualScheduler) nextDue(target time.Duration) *manualTimer {
	sort.SliceStable(m.timers, func(i, j int) bool {
		if m.timers[i].at != m.timers[j].at {
			return m.timers[i].at < m.timers[j].at
		}
		return m.timers[i].seq < m.timers[j].seq
	})
	if len(m.timers) == 0 || m.timers[0].at > target {
		return nil
	}
	return m.timers[0]
}

func (m *ManualScheduler) remove(t *manualTimer) {
	for i, o := range m.timers {
		if o == t {
			m.timers = append(m.timers[:i], m.timers[i+1:]...)
			return
		}
	}
}

func (t *manualTimer) Stop() bool {
	t.s.mu.Lock()
	defer t.s.mu.Unlock()
	if t.done {
		return false
	}
	t.done = true
	t.s.remove(t)
	return true
}
