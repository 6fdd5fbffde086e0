// Package recorder logs frames as zstd-compressed JSON lines and reads them
// back for replay.
package recorder

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/klauspost/compress/zstd"

	"github.com/san-kum/counterfall/internal/counter"
)

// Extension is appended to recording file names.
const Extension = ".jsonl.zst"

// Writer appends one JSON line per frame. It is a sim.Observer; write errors
// are kept and reported by Err and Close.
type Writer struct {
	mu     sync.Mutex
	f      *os.File
	enc    *zstd.Encoder
	w      *bufio.Writer
	frames int
	err    error
}

func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	enc, err := zstd.NewWriter(f, zstd.WithEncoderLevel(zstd.SpeedFastest))
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	return &Writer{
		f:   f,
		enc: enc,
		w:   bufio.NewWriterSize(enc, 128*1024),
	}, nil
}

func (w *Writer) OnFrame(f counter.Frame) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil || w.w == nil {
		return
	}
	w.err = w.writeLocked(f)
}

func (w *Writer) writeLocked(f counter.Frame) error {
	b, err := json.Marshal(f)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(b); err != nil {
		return err
	}
	w.frames++
	return w.w.WriteByte('\n')
}

// Frames returns how many frames were written.
func (w *Writer) Frames() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.frames
}

func (w *Writer) Err() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.err
}

func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.w == nil {
		return w.err
	}
	errs := []error{w.err, w.w.Flush(), w.enc.Close(), w.f.Close()}
	w.w, w.enc, w.f = nil, nil, nil
	return errors.Join(errs...)
}

// Read calls fn for every frame in the recording at path, stopping at the
// first error.
func Read(path string, fn func(counter.Frame) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	dec, err := zstd.NewReader(f)
	if err != nil {
		return err
	}
	defer dec.Close()

	return decode(dec, fn)
}

func decode(r io.Reader, fn func(counter.Frame) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var fr counter.Frame
		if err := json.Unmarshal(sc.Bytes(), &fr); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(fr); err != nil {
			return err
		}
	}
	return sc.Err()
}

// ReadAll loads every frame of a recording.
func ReadAll(path string) ([]counter.Frame, error) {
	var frames []counter.Frame
	err := Read(path, func(f counter.Frame) error {
		frames = append(frames, f)
		return nil
	})
	return frames, err
}
