package bearing

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

const eps = 1e-9

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{359.5, 359.5},
		{360, 0},
		{370, 10},
		{720, 0},
		{-10, 350},
		{-360, 0},
		{-725, 355},
	}
	for _, tt := range tests {
		got := Normalize(tt.in)
		assert.InDelta(t, tt.want, got, eps, "Normalize(%v)", tt.in)
		assert.GreaterOrEqual(t, got, 0.0)
		assert.Less(t, got, 360.0)
		assert.Equal(t, got, Normalize(got), "idempotent for %v", tt.in)
	}
}

func TestAngularDistance(t *testing.T) {
	assert.InDelta(t, 90, AngularDistance(90, 0, false), eps)
	assert.InDelta(t, 270, AngularDistance(90, 0, true), eps)
	assert.InDelta(t, 20, AngularDistance(350, 10, true), eps)
	assert.InDelta(t, 340, AngularDistance(350, 10, false), eps)
	assert.Equal(t, 0.0, AngularDistance(45, 45, true))
	assert.Equal(t, 0.0, AngularDistance(45, 45, false))
}

func TestAngularDistanceSumsToFullCircle(t *testing.T) {
	for before := 0.0; before < 360; before += 17 {
		for after := 0.0; after < 360; after += 23 {
			if before == after {
				continue
			}
			sum := AngularDistance(before, after, true) + AngularDistance(before, after, false)
			assert.InDelta(t, 360, sum, 1e-6, "before=%v after=%v", before, after)
		}
	}
}

func TestShortestDirection(t *testing.T) {
	assert.False(t, ShortestDirection(90, 0), "left turn is counter-clockwise")
	assert.True(t, ShortestDirection(0, 90))
	assert.True(t, ShortestDirection(350, 10))
	assert.False(t, ShortestDirection(10, 350))
}

func TestShortestDirectionTieIsCounterClockwise(t *testing.T) {
	assert.False(t, ShortestDirection(0, 180))
	assert.False(t, ShortestDirection(90, 270))
	assert.False(t, ShortestDirection(300, 120))
}

func TestInterpolateEndpoints(t *testing.T) {
	pairs := [][2]float64{{90, 0}, {350, 10}, {10, 350}, {0, 180}, {400, -30}}
	for _, p := range pairs {
		for _, cw := range []bool{true, false} {
			assert.InDelta(t, Normalize(p[0]), Interpolate(p[0], p[1], cw, 0), 1e-6)
			assert.InDelta(t, Normalize(p[1]), Interpolate(p[0], p[1], cw, 1), 1e-6)
		}
	}
}

func TestInterpolateDirection(t *testing.T) {
	assert.InDelta(t, 45, Interpolate(90, 0, false, 0.5), eps)
	assert.InDelta(t, 225, Interpolate(90, 0, true, 0.5), eps)
	assert.InDelta(t, 0, Interpolate(350, 10, true, 0.5), eps)
}

func TestSmooth(t *testing.T) {
	// far apart: 5% of the gap
	assert.InDelta(t, 85.5, Smooth(90, 0), eps)
	assert.InDelta(t, 0.5, Smooth(0, 10), eps)
	// across north
	assert.InDelta(t, 359.5, Smooth(359, 9), 1e-6)
	// aligned stays put
	assert.InDelta(t, 42, Smooth(42, 42), eps)
	// within the threshold the catch-up fraction grows
	near := Smooth(0, 1) // d=1 -> phase 0.05 + 4/5*0.45 = 0.41
	assert.InDelta(t, 0.41, near, eps)
}

func TestSmoothConverges(t *testing.T) {
	b := 0.0
	for i := 0; i < 500; i++ {
		next := Smooth(b, 120)
		assert.LessOrEqual(t, AngularDistance(next, 120, true), AngularDistance(b, 120, true)+eps)
		b = next
	}
	assert.InDelta(t, 120, b, 1e-3)
}
