package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/counterfall/internal/counter"
	"github.com/san-kum/counterfall/internal/transition"
)

const (
	DefaultWidth     = 400.0
	DefaultHeight    = 600.0
	DefaultFloorY    = 500.0
	DefaultFrameRate = 60
	DefaultMaxTicks  = 3000
	DefaultScene     = "pancakes"
)

type Config struct {
	Scene      string               `yaml:"scene"`
	Seed       int64                `yaml:"seed"`
	FrameRate  int                  `yaml:"frame_rate"`
	MaxTicks   int                  `yaml:"max_ticks"`
	Container  ContainerConfig      `yaml:"container"`
	Physics    counter.Params       `yaml:"physics"`
	Transition transition.Durations `yaml:"transition"`
	Steps      []Step               `yaml:"steps"`
}

type ContainerConfig struct {
	Width  float64 `yaml:"width"`
	Height float64 `yaml:"height"`
	FloorY float64 `yaml:"floor_y"`
}

func (c ContainerConfig) Geometry() counter.Geometry {
	return counter.Geometry{Width: c.Width, Height: c.Height, FloorY: c.FloorY}
}

// Step is one recipe step: the items shown on the counter while it is open.
type Step struct {
	Title       string                    `yaml:"title"`
	Ingredients []counter.IngredientEntry `yaml:"ingredients"`
	Equipment   []counter.EquipmentEntry  `yaml:"equipment"`
}

func DefaultConfig() *Config {
	return &Config{
		Scene:     DefaultScene,
		FrameRate: DefaultFrameRate,
		MaxTicks:  DefaultMaxTicks,
		Container: ContainerConfig{
			Width:  DefaultWidth,
			Height: DefaultHeight,
			FloorY: DefaultFloorY,
		},
		Physics:    counter.DefaultParams(),
		Transition: transition.DefaultDurations(),
		Steps:      pancakeSteps(),
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Validate reports every setting that would leave the simulation unusable.
func (c *Config) Validate() error {
	var errs []error
	check := func(ok bool, format string, args ...any) {
		if !ok {
			errs = append(errs, fmt.Errorf(format, args...))
		}
	}

	check(c.Container.Width > 0, "container width must be positive, got %v", c.Container.Width)
	check(c.Container.FloorY > 0, "floor y must be positive, got %v", c.Container.FloorY)
	check(c.Container.Height <= 0 || c.Container.FloorY <= c.Container.Height,
		"floor y %v is below the container height %v", c.Container.FloorY, c.Container.Height)
	check(c.FrameRate > 0, "frame rate must be positive, got %d", c.FrameRate)
	check(c.MaxTicks > 0, "max ticks must be positive, got %d", c.MaxTicks)
	check(len(c.Steps) > 0, "at least one step is required")

	p := c.Physics
	check(p.Acceleration >= 1, "acceleration must be at least 1, got %v", p.Acceleration)
	check(p.SeedFallSpeed > 0, "seed fall speed must be positive, got %v", p.SeedFallSpeed)
	check(p.TerminalFallSpeed >= p.SeedFallSpeed, "terminal fall speed %v is below the seed speed %v",
		p.TerminalFallSpeed, p.SeedFallSpeed)
	check(p.AirResistance > 0 && p.AirResistance <= 1, "air resistance must be in (0, 1], got %v", p.AirResistance)
	check(p.FloorFriction >= 0 && p.FloorFriction <= 1, "floor friction must be in [0, 1], got %v", p.FloorFriction)
	check(p.ChainDamping > 0 && p.ChainDamping <= 1, "chain damping must be in (0, 1], got %v", p.ChainDamping)
	check(p.ContactIterations > 0, "contact iterations must be positive, got %d", p.ContactIterations)
	check(p.MaxCascadeRounds > 0, "cascade rounds must be positive, got %d", p.MaxCascadeRounds)
	check(p.MaxCleanupPasses > 0, "cleanup passes must be positive, got %d", p.MaxCleanupPasses)
	check(p.DragScale > 0, "drag scale must be positive, got %v", p.DragScale)
	check(p.IngredientRadius > 0 && p.EquipmentRadius > 0, "item radii must be positive")

	d := c.Transition
	check(d.Jiggle > 0 && d.Swipe > 0 && d.SlideIn > 0, "transition durations must be positive")

	return errors.Join(errs...)
}

// Step returns step i, clamped to the configured range.
func (c *Config) Step(i int) Step {
	if len(c.Steps) == 0 {
		return Step{}
	}
	return c.Steps[max(0, min(i, len(c.Steps)-1))]
}

// NewEngine builds an engine for step i with the configured geometry, so it
// spawns immediately.
func (c *Config) NewEngine(step int, logger *slog.Logger) *counter.Engine {
	opts := []counter.Option{
		counter.WithParams(c.Physics),
		counter.WithSeed(c.Seed),
	}
	if logger != nil {
		opts = append(opts, counter.WithLogger(logger))
	}
	eng := counter.New(opts...)
	s := c.Step(step)
	eng.Load(s.Ingredients, s.Equipment)
	eng.SetGeometry(c.Container.Geometry())
	return eng
}
