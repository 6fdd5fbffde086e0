package recorder

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/sim"
)

func TestRecordAndReplay(t *testing.T) {
	path := filepath.Join(t.TempDir(), "runs", "drop"+Extension)

	w, err := Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}

	eng := counter.New()
	eng.SetGeometry(counter.Geometry{Width: 400, Height: 600, FloorY: 500})
	eng.Load([]counter.IngredientEntry{{Name: "flour"}, {Name: "eggs"}}, nil)

	s := sim.New(eng)
	s.AddObserver(w)
	result, err := s.Run(context.Background(), sim.DefaultConfig())
	if err != nil {
		t.Fatalf("run failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}
	if w.Frames() != len(result.Frames) {
		t.Errorf("expected %d frames written, got %d", len(result.Frames), w.Frames())
	}

	frames, err := ReadAll(path)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(frames) != len(result.Frames) {
		t.Fatalf("expected %d frames, got %d", len(result.Frames), len(frames))
	}
	last, want := frames[len(frames)-1], result.Frames[len(result.Frames)-1]
	if last.Tick != want.Tick || last.Items[1].Y != want.Items[1].Y {
		t.Errorf("final frame differs: tick %d y %f, want tick %d y %f",
			last.Tick, last.Items[1].Y, want.Tick, want.Items[1].Y)
	}
}

func TestWriteAfterClose(t *testing.T) {
	w, err := Create(filepath.Join(t.TempDir(), "closed"+Extension))
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	w.OnFrame(counter.Frame{Tick: 1})
	if w.Frames() != 0 {
		t.Error("frame written after close")
	}
	if err := w.Close(); err != nil {
		t.Errorf("second close failed: %v", err)
	}
}

func TestReadStopsOnCallbackError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stop"+Extension)
	w, err := Create(path)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	for i := 0; i < 5; i++ {
		w.OnFrame(counter.Frame{Tick: uint64(i)})
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close failed: %v", err)
	}

	stop := errors.New("stop")
	seen := 0
	err = Read(path, func(counter.Frame) error {
		seen++
		if seen == 2 {
			return stop
		}
		return nil
	})
	if !errors.Is(err, stop) || seen != 2 {
		t.Errorf("expected to stop after 2 frames, got %d (%v)", seen, err)
	}
}

func TestReadRejectsPlainText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "plain.jsonl")
	if err := os.WriteFile(path, []byte("{\"tick\":1}\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := ReadAll(path); err == nil {
		t.Error("expected error reading an uncompressed file")
	}
}
