package audio

import (
	"log/slog"
	"math"
	"math/cmplx"
	"sync"

	"github.com/gordonklaus/portaudio"
	"github.com/mjibson/go-dsp/fft"
	"github.com/mjibson/go-dsp/window"

	"github.com/san-kum/counterfall/internal/counter"
)

const (
	SampleRate = 44100
	BufferSize = 1024

	grainSeconds = 0.12
	maxVoices    = 16
)

// Processor plays a short pitched thud whenever an item lands. Small items
// sound higher than large ones and are panned by their x position. It also
// keeps rough band levels of what it played for meters.
type Processor struct {
	Stream *portaudio.Stream

	mu     sync.Mutex
	voices []voice
	grain  []float64
	last   map[string]bool // id -> falling, from the previous frame
	mono   []float64
	logger *slog.Logger

	// output analysis
	bass, mid, high float64
	maxLevel        float64

	Active bool
}

type voice struct {
	freq float64
	pan  float64 // 0 left, 1 right
	gain float64
	pos  int
}

func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Processor{
		maxLevel: 0.1,
		grain:    window.Hann(int(SampleRate * grainSeconds)),
		last:     make(map[string]bool),
		mono:     make([]float64, BufferSize),
		logger:   logger,
	}
}

func (a *Processor) Start() error {
	if err := portaudio.Initialize(); err != nil {
		a.logger.Warn("audio init failed", "err", err)
		return err
	}
	stream, err := portaudio.OpenDefaultStream(0, 2, SampleRate, BufferSize, a.ProcessAudio)
	if err != nil {
		a.logger.Warn("audio stream failed", "err", err)
		portaudio.Terminate()
		return err
	}
	if err := stream.Start(); err != nil {
		a.logger.Warn("audio stream start failed", "err", err)
		stream.Close()
		portaudio.Terminate()
		return err
	}

	a.logger.Debug("audio started", "sample_rate", SampleRate, "buffer", BufferSize)
	a.Stream = stream
	a.Active = true
	return nil
}

func (a *Processor) Stop() {
	if a.Stream != nil {
		a.Stream.Stop()
		a.Stream.Close()
		a.Stream = nil
	}
	if a.Active {
		portaudio.Terminate()
	}
	a.Active = false
}

// OnFrame queues a thud for every item that was falling in the previous
// frame and rests in this one.
func (a *Processor) OnFrame(f counter.Frame) {
	a.mu.Lock()
	defer a.mu.Unlock()

	for _, v := range Landed(a.last, f) {
		if len(a.voices) >= maxVoices {
			break
		}
		pan := 0.5
		if f.Geometry.Width > 0 {
			pan = min(max(v.X/f.Geometry.Width, 0), 1)
		}
		a.voices = append(a.voices, voice{
			freq: pitch(v.Radius),
			pan:  pan,
			gain: 0.35,
		})
	}

	clear(a.last)
	for _, v := range f.Items {
		a.last[v.ID] = v.Falling
	}
}

// Reset forgets the previous frame so a new scene does not sound as one big
// landing.
func (a *Processor) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	clear(a.last)
	a.voices = a.voices[:0]
}

// Landed lists the items of f that rest now but were falling according to
// prev. Items missing from prev are new and do not count.
func Landed(prev map[string]bool, f counter.Frame) []counter.View {
	var out []counter.View
	for _, v := range f.Items {
		if v.Falling || v.Dragging {
			continue
		}
		if wasFalling, ok := prev[v.ID]; ok && wasFalling {
			out = append(out, v)
		}
	}
	return out
}

// pitch maps a radius to a frequency, clamped to a comfortable range.
func pitch(radius float64) float64 {
	if radius <= 0 {
		return 440
	}
	return min(max(6600/radius, 90), 660)
}

func (a *Processor) ProcessAudio(out [][]float32) {
	n := len(out[0])

	a.mu.Lock()
	for i := 0; i < n; i++ {
		var l, r float64
		for j := range a.voices {
			v := &a.voices[j]
			if v.pos >= len(a.grain) {
				continue
			}
			t := float64(v.pos) / SampleRate
			s := math.Sin(2*math.Pi*v.freq*t) * a.grain[v.pos] * v.gain
			l += s * (1 - v.pan)
			r += s * v.pan
			v.pos++
		}
		out[0][i] = float32(l)
		out[1][i] = float32(r)
		if i < len(a.mono) {
			a.mono[i] = (l + r) / 2
		}
	}
	live := a.voices[:0]
	for _, v := range a.voices {
		if v.pos < len(a.grain) {
			live = append(live, v)
		}
	}
	a.voices = live
	a.analyze(min(n, len(a.mono)))
	a.mu.Unlock()
}

// Levels returns the smoothed bass, mid and high levels in [0, 1].
func (a *Processor) Levels() (bass, mid, high float64) {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.bass, a.mid, a.high
}

// analyze updates the band levels from the last buffer played. Callers hold
// mu.
func (a *Processor) analyze(n int) {
	if n == 0 {
		return
	}
	spectrum := fft.FFTReal(a.mono[:n])

	bassSum, midSum, highSum := 0.0, 0.0, 0.0
	binHz := float64(SampleRate) / float64(n)
	for i := 1; i < n/2; i++ {
		mag := cmplx.Abs(spectrum[i])
		switch hz := float64(i) * binHz; {
		case hz < 200:
			bassSum += mag
		case hz < 2000:
			midSum += mag
		default:
			highSum += mag
		}
	}

	peak := max(bassSum/100, midSum/500, highSum/1000)
	if peak > a.maxLevel {
		a.maxLevel = peak
	} else {
		a.maxLevel *= 0.999
	}
	gain := 1.0
	if a.maxLevel > 0.001 {
		gain = min(1/a.maxLevel, 50)
	}

	a.bass = a.bass*0.9 + min(bassSum/100*gain, 1)*0.1
	a.mid = a.mid*0.9 + min(midSum/500*gain, 1)*0.1
	a.high = a.high*0.9 + min(highSum/1000*gain, 1)*0.1
}
