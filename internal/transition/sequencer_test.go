package transition_test

import (
	"sync"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/counterfall/internal/transition"
)

var _ = Describe("Sequencer", func() {
	var (
		clock   *transition.ManualScheduler
		seq     *transition.Sequencer
		changes []int
		phases  []transition.Phase
	)

	BeforeEach(func() {
		clock = transition.NewManualScheduler()
		changes = nil
		phases = nil
		seq = transition.New(
			transition.WithScheduler(clock),
			transition.OnSlideChange(func(dir int) { changes = append(changes, dir) }),
			transition.OnPhase(func(p transition.Phase, _ int) { phases = append(phases, p) }),
		)
	})

	Describe("exit sequence", func() {
		It("runs jiggle then swipe and reports the slide change once", func() {
			Expect(seq.ExitNext()).To(BeTrue())
			Expect(seq.Phase()).To(Equal(transition.Jiggle))
			Expect(seq.Direction()).To(Equal(1))

			clock.Advance(299 * time.Millisecond)
			Expect(seq.Phase()).To(Equal(transition.Jiggle))

			clock.Advance(time.Millisecond)
			Expect(seq.Phase()).To(Equal(transition.Swipe))

			clock.Advance(599 * time.Millisecond)
			Expect(seq.Phase()).To(Equal(transition.Swipe))
			Expect(changes).To(BeEmpty())

			clock.Advance(time.Millisecond)
			Expect(seq.Phase()).To(Equal(transition.None))
			Expect(changes).To(Equal([]int{1}))
			Expect(phases).To(Equal([]transition.Phase{
				transition.Jiggle, transition.Swipe, transition.None,
			}))

			clock.Advance(10 * time.Second)
			Expect(changes).To(HaveLen(1))
			Expect(clock.Pending()).To(BeZero())
		})

		It("passes the direction of a backwards exit", func() {
			Expect(seq.ExitPrevious()).To(BeTrue())
			clock.Advance(900 * time.Millisecond)
			Expect(changes).To(Equal([]int{-1}))
		})

		It("rejects a second exit while one is running", func() {
			Expect(seq.ExitNext()).To(BeTrue())
			clock.Advance(100 * time.Millisecond)
			Expect(seq.ExitPrevious()).To(BeFalse())

			clock.Advance(800 * time.Millisecond)
			Expect(changes).To(Equal([]int{1}))
		})

		It("reports progress through the running phase", func() {
			Expect(seq.Progress()).To(BeZero())
			seq.ExitNext()
			clock.Advance(150 * time.Millisecond)
			Expect(seq.Progress()).To(BeNumerically("~", 0.5, 1e-9))
			clock.Advance(450 * time.Millisecond)
			Expect(seq.Phase()).To(Equal(transition.Swipe))
			Expect(seq.Progress()).To(BeNumerically("~", 0.5, 1e-9))
		})
	})

	Describe("entrance sequence", func() {
		It("slides in opposite to the last exit", func() {
			seq.ExitNext()
			clock.Advance(900 * time.Millisecond)

			Expect(seq.SetVisible(false)).To(BeFalse())
			Expect(seq.SetVisible(true)).To(BeTrue())
			Expect(seq.Phase()).To(Equal(transition.SlideIn))
			Expect(seq.Direction()).To(Equal(-1))

			clock.Advance(799 * time.Millisecond)
			Expect(seq.Phase()).To(Equal(transition.SlideIn))
			clock.Advance(time.Millisecond)
			Expect(seq.Phase()).To(Equal(transition.None))
			Expect(changes).To(HaveLen(1))
		})

		It("defaults to a forward slide without a prior exit", func() {
			seq.SetVisible(false)
			Expect(seq.SetVisible(true)).To(BeTrue())
			Expect(seq.Direction()).To(Equal(1))
		})

		It("does nothing when already visible", func() {
			Expect(seq.SetVisible(true)).To(BeFalse())
			Expect(seq.Phase()).To(Equal(transition.None))
		})

		It("replaces an exit that was cut short by hiding", func() {
			seq.ExitNext()
			seq.SetVisible(false)
			seq.SetVisible(true)

			clock.Advance(2 * time.Second)
			Expect(changes).To(BeEmpty())
			Expect(seq.Phase()).To(Equal(transition.None))
		})
	})

	Describe("Close", func() {
		It("cancels pending timers mid-sequence", func() {
			seq.ExitNext()
			clock.Advance(100 * time.Millisecond)
			seq.Close()

			Expect(clock.Pending()).To(BeZero())
			clock.Advance(time.Second)
			Expect(changes).To(BeEmpty())
			Expect(seq.ExitNext()).To(BeFalse())
		})
	})

	Describe("wall clock", func() {
		It("completes with real timers", func() {
			var mu sync.Mutex
			var got []int
			wall := transition.New(
				transition.WithDurations(transition.Durations{
					Jiggle: time.Millisecond, Swipe: time.Millisecond, SlideIn: time.Millisecond,
				}),
				transition.OnSlideChange(func(dir int) {
					mu.Lock()
					defer mu.Unlock()
					got = append(got, dir)
				}),
			)
			DeferCleanup(wall.Close)

			Expect(wall.ExitNext()).To(BeTrue())
			Eventually(func() []int {
				mu.Lock()
				defer mu.Unlock()
				return append([]int(nil), got...)
			}).Should(Equal([]int{1}))
			Eventually(wall.Phase).Should(Equal(transition.None))
		})
	})
})

var _ = Describe("Phase", func() {
	DescribeTable("names",
		func(p transition.Phase, want string) {
			Expect(p.String()).To(Equal(want))
		},
		Entry("none", transition.None, "none"),
		Entry("jiggle", transition.Jiggle, "jiggle"),
		Entry("swipe", transition.Swipe, "swipe"),
		Entry("slide-in", transition.SlideIn, "slideIn"),
	)
})

var _ = Describe("Offset", func() {
	DescribeTable("shift for a 400px container",
		func(p transition.Phase, dir int, progress, want float64) {
			Expect(transition.Offset(p, dir, progress, 400)).To(BeNumerically("~", want, 1e-9))
		},
		Entry("idle", transition.None, 0, 0.5, 0.0),
		Entry("jiggle peak", transition.Jiggle, 1, 0.125, 6.0),
		Entry("jiggle ends centred", transition.Jiggle, 1, 1.0, 0.0),
		Entry("swipe to next half way", transition.Swipe, 1, 0.5, -200.0),
		Entry("swipe to previous done", transition.Swipe, -1, 1.0, 400.0),
		Entry("slide in from the right", transition.SlideIn, -1, 0.0, 400.0),
		Entry("slide in done", transition.SlideIn, -1, 1.0, 0.0),
	)

	It("follows the running sequence", func() {
		clock := transition.NewManualScheduler()
		seq := transition.New(transition.WithScheduler(clock))
		defer seq.Close()

		Expect(seq.Offset(400)).To(Equal(0.0))
		seq.ExitNext()
		clock.Advance(300 * time.Millisecond)
		Expect(seq.Phase()).To(Equal(transition.Swipe))
		clock.Advance(300 * time.Millisecond)
		Expect(seq.Offset(400)).To(BeNumerically("~", -200, 1e-9))
	})
})
