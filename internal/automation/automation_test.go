package automation

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/san-kum/counterfall/internal/config"
	"github.com/san-kum/counterfall/internal/counter"
)

const dragScript = `
name: drag across
description: drop two items, shove one with the other, then move on
actions:
  - do: place
    items:
      - {id: a, x: 100, y: 460, radius: 40}
      - {id: b, x: 300, y: 100, radius: 40, falling: true}
  - do: settle
  - do: expect
    expect: {item: b, x: 300, y: 460, falling: false}
  - do: drag
    item: a
    path: [[100, 460], [150, 460], [200, 460], [240, 460]]
  - do: expect
    expect: {settled: true}
  - do: exit
    direction: 1
  - do: wait
    duration: 1s
  - do: expect
    expect: {step: 1, phase: slideIn}
  - do: settle
`

func writeScenario(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunScenario(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, dragScript))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	p := NewPlayer(config.DefaultConfig(), nil)
	defer p.Close()

	var frames int
	p.Observe(observerFunc(func(counter.Frame) { frames++ }))

	results, err := p.RunScenario(context.Background(), sc)
	if err != nil {
		t.Fatalf("scenario failed: %v", err)
	}
	if len(results) != len(sc.Actions) {
		t.Fatalf("expected %d results, got %d", len(sc.Actions), len(results))
	}

	drag := results[3]
	if len(drag.Pushes) != 3 {
		t.Fatalf("expected 3 pointer moves, got %d", len(drag.Pushes))
	}
	if last := drag.Pushes[2]; len(last.Pushed) == 0 || last.Pushed[0] != "b" {
		t.Errorf("expected the final move to push b, got %+v", last)
	}
	if results[6].Ticks != 60 {
		t.Errorf("expected one second of frames, got %d", results[6].Ticks)
	}
	if frames == 0 {
		t.Error("observer saw no frames")
	}
}

func TestExpectationFailure(t *testing.T) {
	sc, err := LoadScenario(writeScenario(t, `
actions:
  - do: place
    items: [{id: a, x: 100, y: 460, radius: 40}]
  - do: expect
    expect: {item: a, x: 300}
`))
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}

	p := NewPlayer(config.DefaultConfig(), nil)
	defer p.Close()

	results, err := p.RunScenario(context.Background(), sc)
	if !errors.Is(err, ErrExpectation) {
		t.Errorf("expected ErrExpectation, got %v", err)
	}
	if len(results) != 2 {
		t.Errorf("expected the failing action to be reported, got %d results", len(results))
	}
}

func TestScenarioErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown action", "actions: [{do: dance}]"},
		{"drag without path", "actions: [{do: drag, item: ingredient-0}]"},
		{"exit backwards from first step", "actions: [{do: exit, direction: -1}]"},
		{"unknown item", "actions: [{do: drag, item: nope, path: [[0, 0]]}]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sc, err := LoadScenario(writeScenario(t, tt.body))
			if err != nil {
				t.Fatalf("load failed: %v", err)
			}
			p := NewPlayer(config.DefaultConfig(), nil)
			defer p.Close()
			if _, err := p.RunScenario(context.Background(), sc); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}

	if _, err := LoadScenario(writeScenario(t, "name: empty\n")); err == nil {
		t.Error("expected error for a scenario without actions")
	}
}

func TestRunSweep(t *testing.T) {
	cfg := config.DefaultConfig()
	results, err := RunSweep(context.Background(), cfg, &ParameterSweep{
		ParamName: "terminal_fall_speed",
		ParamMin:  10,
		ParamMax:  20,
		NumSteps:  3,
	}, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(results))
	}
	if results[1].ParamValue != 15 {
		t.Errorf("expected midpoint 15, got %f", results[1].ParamValue)
	}
	for _, r := range results {
		if !r.Settled {
			t.Errorf("terminal speed %v did not settle", r.ParamValue)
		}
	}
	if cfg.Physics.TerminalFallSpeed != 18 {
		t.Errorf("sweep modified the base config: %f", cfg.Physics.TerminalFallSpeed)
	}

	if _, err := RunSweep(context.Background(), cfg, &ParameterSweep{ParamName: "nope", NumSteps: 2}, nil); err == nil {
		t.Error("expected error for unknown parameter")
	}
}

func TestRunSweepRoundsIntegerParams(t *testing.T) {
	results, err := RunSweep(context.Background(), config.DefaultConfig(), &ParameterSweep{
		ParamName: "contact_iterations",
		ParamMin:  4,
		ParamMax:  9,
		NumSteps:  3,
	}, nil)
	if err != nil {
		t.Fatalf("sweep failed: %v", err)
	}
	for i, want := range []float64{4, 7, 9} {
		if results[i].ParamValue != want {
			t.Errorf("step %d: expected %v iterations, got %v", i, want, results[i].ParamValue)
		}
	}
}

type observerFunc func(counter.Frame)

func (f observerFunc) OnFrame(fr counter.Frame) { f(fr) }
