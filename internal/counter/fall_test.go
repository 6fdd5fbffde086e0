package counter

import (
	"math"
	"testing"
)

func TestFallStep(t *testing.T) {
	tests := []struct {
		name      string
		fall, hv  float64
		wantFall  float64
		wantHV    float64
		wantDelta float64
	}{
		{"stopped item restarts at seed speed", 0, 0, 2, 0, 2},
		{"slow item lifted to seed speed", 0.5, 0, 2, 0, 2},
		{"capped at terminal speed", 18, 0, 18, 0, 18},
		{"horizontal speed decays", 2, 1, 2 * 1.1, 0.98, 2 * 1.1},
		{"tiny horizontal speed snaps to zero", 2, 0.01, 2 * 1.1, 0, 2 * 1.1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			p.Acceleration = 1.1
			e := New(WithParams(p))
			it := &Item{X: 200, Y: 100, Radius: 40, Falling: true, FallSpeed: tt.fall, HorizontalVelocity: tt.hv}

			x, y := e.fallStep(it)
			if math.Abs(it.FallSpeed-tt.wantFall) > 1e-9 {
				t.Errorf("fall speed = %f, want %f", it.FallSpeed, tt.wantFall)
			}
			if math.Abs(it.HorizontalVelocity-tt.wantHV) > 1e-9 {
				t.Errorf("horizontal speed = %f, want %f", it.HorizontalVelocity, tt.wantHV)
			}
			if math.Abs(y-100-tt.wantDelta) > 1e-9 || math.Abs(x-200-tt.wantHV) > 1e-9 {
				t.Errorf("proposed (%f, %f), want (%f, %f)", x, y, 200+tt.wantHV, 100+tt.wantDelta)
			}
		})
	}
}
