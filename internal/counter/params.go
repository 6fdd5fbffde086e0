package counter

// Params holds the tunable constants of the simulation. Distances are in
// container pixels, speeds in pixels per tick.
type Params struct {
	// Fall simulator.
	Acceleration       float64 `yaml:"acceleration"`        // fall speed multiplier per tick (>1)
	AccelerationJitter float64 `yaml:"acceleration_jitter"` // per-item spread around Acceleration
	SeedFallSpeed      float64 `yaml:"seed_fall_speed"`     // speed a falling item starts from
	TerminalFallSpeed  float64 `yaml:"terminal_fall_speed"`
	AirResistance      float64 `yaml:"air_resistance"` // horizontal decay per tick (<1)
	VelocityEpsilon    float64 `yaml:"velocity_epsilon"`

	// Collision resolver.
	ComingFromAbove    float64 `yaml:"coming_from_above"` // normal.y below this is a landing
	SettleKick         float64 `yaml:"settle_kick"`
	MinHorizontalSpeed float64 `yaml:"min_horizontal_speed"`
	FloorFriction      float64 `yaml:"floor_friction"`
	FloorBounce        float64 `yaml:"floor_bounce"`
	ContactIterations  int     `yaml:"contact_iterations"`
	RestTolerance      float64 `yaml:"rest_tolerance"`
	FloorMargin        float64 `yaml:"floor_margin"`

	// Walls.
	OverflowTolerance float64 `yaml:"overflow_tolerance"`
	WallMargin        float64 `yaml:"wall_margin"`
	WallBounce        float64 `yaml:"wall_bounce"`
	WallLift          float64 `yaml:"wall_lift"`

	// Drag and push.
	ChainBand        float64 `yaml:"chain_band"`
	ChainDamping     float64 `yaml:"chain_damping"`
	PushStrength     float64 `yaml:"push_strength"`
	DragScale        float64 `yaml:"drag_scale"`
	MaxDragFactor    float64 `yaml:"max_drag_factor"`
	GravitySnap      float64 `yaml:"gravity_snap"` // fraction of radius
	VerticalBias     float64 `yaml:"vertical_bias"`
	MaxCascadeRounds int     `yaml:"max_cascade_rounds"`
	MaxCleanupPasses int     `yaml:"max_cleanup_passes"`

	// Stability.
	ContactMargin          float64 `yaml:"contact_margin"`
	SupportBand            float64 `yaml:"support_band"`             // fraction of combined radius
	SingleSupportTolerance float64 `yaml:"single_support_tolerance"` // fraction of combined radius
	SlideSpeed             float64 `yaml:"slide_speed"`
	SlideGain              float64 `yaml:"slide_gain"`

	// Layout.
	IngredientRadius float64 `yaml:"ingredient_radius"`
	EquipmentRadius  float64 `yaml:"equipment_radius"`
	MaxCellFraction  float64 `yaml:"max_cell_fraction"`
	ColumnStagger    float64 `yaml:"column_stagger"`
}

// DefaultParams returns the tuning the counter view ships with.
func DefaultParams() Params {
	return Params{
		Acceleration:       1.05,
		AccelerationJitter: 0.01,
		SeedFallSpeed:      2,
		TerminalFallSpeed:  18,
		AirResistance:      0.98,
		VelocityEpsilon:    0.01,

		ComingFromAbove:    -0.5,
		SettleKick:         0.15,
		MinHorizontalSpeed: 0.5,
		FloorFriction:      0.85,
		FloorBounce:        0.5,
		ContactIterations:  8,
		RestTolerance:      0.5,
		FloorMargin:        0.5,

		OverflowTolerance: 5,
		WallMargin:        3,
		WallBounce:        0.3,
		WallLift:          1,

		ChainBand:        0.75,
		ChainDamping:     0.85,
		PushStrength:     0.5,
		DragScale:        100,
		MaxDragFactor:    2,
		GravitySnap:      0.5,
		VerticalBias:     1.5,
		MaxCascadeRounds: 10,
		MaxCleanupPasses: 5,

		ContactMargin:          2,
		SupportBand:            0.25,
		SingleSupportTolerance: 0.15,
		SlideSpeed:             1.5,
		SlideGain:              0.02,

		IngredientRadius: 40,
		EquipmentRadius:  46,
		MaxCellFraction:  0.45,
		ColumnStagger:    14,
	}
}
