package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Scene != "pancakes" {
		t.Errorf("expected scene pancakes, got %s", cfg.Scene)
	}
	if cfg.FrameRate <= 0 {
		t.Error("frame rate should be positive")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
	if g := cfg.Container.Geometry(); !g.Valid() {
		t.Errorf("default geometry invalid: %+v", g)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "scene.yaml")

	cfg := DefaultConfig()
	cfg.Seed = 99
	cfg.Physics.PushStrength = 0.7
	cfg.Transition.Swipe = 450 * time.Millisecond
	if err := Save(path, cfg); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Seed != 99 || loaded.Physics.PushStrength != 0.7 {
		t.Errorf("values lost in round trip: seed=%d push=%v", loaded.Seed, loaded.Physics.PushStrength)
	}
	if loaded.Transition.Swipe != 450*time.Millisecond {
		t.Errorf("expected swipe 450ms, got %v", loaded.Transition.Swipe)
	}
	if len(loaded.Steps) != len(cfg.Steps) {
		t.Errorf("expected %d steps, got %d", len(cfg.Steps), len(loaded.Steps))
	}
}

func TestLoadPartialKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "partial.yaml")
	data := `
seed: 5
container:
  width: 800
physics:
  push_strength: 0.9
transition:
  jiggle: 150ms
steps:
  - title: Only step
    ingredients:
      - name: rice
        quantity: 1 cup
`
	if err := os.WriteFile(path, []byte(data), 0644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if cfg.Container.Width != 800 || cfg.Container.FloorY != DefaultFloorY {
		t.Errorf("unexpected container %+v", cfg.Container)
	}
	if cfg.Physics.PushStrength != 0.9 || cfg.Physics.ChainDamping != 0.85 {
		t.Errorf("physics defaults not kept: %+v", cfg.Physics)
	}
	if cfg.Transition.Jiggle != 150*time.Millisecond || cfg.Transition.Swipe != 600*time.Millisecond {
		t.Errorf("unexpected durations %+v", cfg.Transition)
	}
	if len(cfg.Steps) != 1 || cfg.Steps[0].Ingredients[0].Quantity != "1 cup" {
		t.Errorf("unexpected steps %+v", cfg.Steps)
	}
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte("container:\n  width: -1\nframe_rate: 0\n"), 0644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(path)
	if err == nil {
		t.Fatal("expected validation error")
	}
	for _, want := range []string{"container width", "frame rate"} {
		if !strings.Contains(err.Error(), want) {
			t.Errorf("error %q does not mention %q", err, want)
		}
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"no steps", func(c *Config) { c.Steps = nil }},
		{"floor below container", func(c *Config) { c.Container.FloorY = 700 }},
		{"no acceleration", func(c *Config) { c.Physics.Acceleration = 0.5 }},
		{"zero contact iterations", func(c *Config) { c.Physics.ContactIterations = 0 }},
		{"air resistance above one", func(c *Config) { c.Physics.AirResistance = 1.2 }},
		{"zero swipe", func(c *Config) { c.Transition.Swipe = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("expected error, got nil")
			}
		})
	}
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("breakfast", "omelette")
	if cfg == nil {
		t.Fatal("expected preset, got nil")
	}
	if cfg.Scene != "omelette" || len(cfg.Steps) != 2 {
		t.Errorf("unexpected preset %s with %d steps", cfg.Scene, len(cfg.Steps))
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("preset invalid: %v", err)
	}
}

func TestGetPreset_NotFound(t *testing.T) {
	if cfg := GetPreset("breakfast", "nonexistent"); cfg != nil {
		t.Error("expected nil for nonexistent preset")
	}
	if cfg := GetPreset("nonexistent", "pancakes"); cfg != nil {
		t.Error("expected nil for nonexistent group")
	}
}

func TestListPresets(t *testing.T) {
	presets := ListPresets("stress")
	if len(presets) != 3 || presets[0] != "crowded" {
		t.Errorf("expected sorted stress presets, got %v", presets)
	}
	if presets := ListPresets("nonexistent"); presets != nil {
		t.Error("expected nil for nonexistent group")
	}
	if groups := ListGroups(); len(groups) != 2 {
		t.Errorf("expected 2 groups, got %v", groups)
	}
}

func TestAllPresetsValid(t *testing.T) {
	for _, group := range ListGroups() {
		for _, name := range ListPresets(group) {
			if err := GetPreset(group, name).Validate(); err != nil {
				t.Errorf("%s/%s: %v", group, name, err)
			}
		}
	}
}

func TestNewEngine(t *testing.T) {
	cfg := DefaultConfig()

	eng := cfg.NewEngine(1, nil)
	step := cfg.Step(1)
	if eng.Len() != len(step.Ingredients)+len(step.Equipment) {
		t.Errorf("expected %d items, got %d", len(step.Ingredients)+len(step.Equipment), eng.Len())
	}
	if !eng.Active() {
		t.Error("expected freshly spawned items to be falling")
	}

	if got := cfg.Step(99).Title; got != cfg.Steps[len(cfg.Steps)-1].Title {
		t.Errorf("expected out of range step to clamp, got %q", got)
	}
}

func TestSetParam(t *testing.T) {
	p := DefaultConfig().Physics

	if err := SetParam(&p, "push_strength", 0.25); err != nil {
		t.Fatalf("set failed: %v", err)
	}
	if p.PushStrength != 0.25 {
		t.Errorf("expected push strength 0.25, got %f", p.PushStrength)
	}
	if p.ChainDamping != 0.85 {
		t.Errorf("other fields changed: chain damping %f", p.ChainDamping)
	}

	if err := SetParam(&p, "contact_iterations", 12); err != nil {
		t.Fatalf("set int failed: %v", err)
	}
	if v, err := GetParam(p, "contact_iterations"); err != nil || v != 12 {
		t.Errorf("expected 12 contact iterations, got %v %v", v, err)
	}

	if err := SetParam(&p, "gravity", 9.8); err == nil {
		t.Error("expected error for unknown parameter")
	}
	if len(ParamNames()) < 30 {
		t.Errorf("expected every tunable listed, got %d", len(ParamNames()))
	}
}

func TestSetParamRejectsFractionalIntegers(t *testing.T) {
	tests := []struct {
		name  string
		value float64
	}{
		{"contact_iterations", 2.5},
		{"contact_iterations", 12.0001},
		{"max_cleanup_passes", 4.9},
		{"max_cascade_rounds", math.NaN()},
		{"max_cascade_rounds", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("%s=%v", tt.name, tt.value), func(t *testing.T) {
			p := DefaultConfig().Physics
			before, _ := GetParam(p, tt.name)
			err := SetParam(&p, tt.name, tt.value)
			if !errors.Is(err, ErrNotInteger) {
				t.Fatalf("err = %v, want ErrNotInteger", err)
			}
			if after, _ := GetParam(p, tt.name); after != before {
				t.Errorf("value changed on error: %v -> %v", before, after)
			}
		})
	}
}

func TestSnapParam(t *testing.T) {
	if got := SnapParam("contact_iterations", 7.6); got != 8 {
		t.Errorf("expected integer tunable rounded to 8, got %v", got)
	}
	if got := SnapParam("push_strength", 0.37); got != 0.37 {
		t.Errorf("expected float tunable unchanged, got %v", got)
	}
	p := DefaultConfig().Physics
	if err := SetParam(&p, "max_cleanup_passes", SnapParam("max_cleanup_passes", 6.4)); err != nil {
		t.Fatalf("set snapped value failed: %v", err)
	}
	if p.MaxCleanupPasses != 6 {
		t.Errorf("expected 6 cleanup passes, got %d", p.MaxCleanupPasses)
	}
}
