package posekf

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestProjectToDisk_InsideUnchanged(t *testing.T) {
	x, y := ProjectToDisk(0.1, -0.2, 0, 0, 0.5)
	assert.Equal(t, 0.1, x)
	assert.Equal(t, -0.2, y)
}

func TestProjectToDisk_OutsideOnBoundary(t *testing.T) {
	x, y := ProjectToDisk(4, 3, 1, 1, 1)
	// direction (3, 2) normalized, one unit from (1, 1)
	n := math.Hypot(3, 2)
	assert.InDelta(t, 1+3/n, x, 1e-12)
	assert.InDelta(t, 1+2/n, y, 1e-12)
	assert.InDelta(t, 1.0, math.Hypot(x-1, y-1), 1e-12)
}

func TestProjectToDisk_Property(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 10000; i++ {
		x, y := rng.Float64()*4-2, rng.Float64()*4-2
		cx, cy := rng.Float64()-0.5, rng.Float64()-0.5
		r := rng.Float64() * 1.5

		px, py := ProjectToDisk(x, y, cx, cy, r)
		d := math.Hypot(px-cx, py-cy)
		assert.LessOrEqual(t, d, r+1e-12)

		if math.Hypot(x-cx, y-cy) <= r {
			assert.Equal(t, x, px)
			assert.Equal(t, y, py)
		}
	}
}

func TestSmoothTransition_NegativeResidualReturnsRef(t *testing.T) {
	assert.Equal(t, 0.42, SmoothTransition(1.0, -0.01, 0.42, 3.0, DefaultMaxStep))
}

func TestSmoothTransition_Bands(t *testing.T) {
	const wide = 10.0 // no clamping
	tests := []struct {
		name    string
		current float64
		ref     float64
		raw     float64
		want    float64
	}{
		// deltaSq = 1, so ratio = |ref|
		{"far band alpha 0.01", 0, 0.9, 2, 0.99 * 1.9},
		{"mid band alpha 0.1", 0, 0.5, 2, 0.9 * 1.5},
		{"near band alpha 0.3", 1, 0.2, 2, 0.3*1 + 0.7*1.2},
		{"boundary 0.25 is near", 0, 0.25, 2, 0.7 * 1.25},
		{"boundary 0.75 is mid", 0, 0.75, 2, 0.9 * 1.75},
		{"raw below ref predicts below", 0, 0.5, -3, 0.9 * -0.5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SmoothTransition(tt.current, 1, tt.ref, tt.raw, wide)
			assert.InDelta(t, tt.want, got, 1e-12)
		})
	}
}

func TestSmoothTransition_ZeroResidual(t *testing.T) {
	// With no residual the prediction is ref itself and alpha is 0.3.
	got := SmoothTransition(1, 0, 0.5, 2, 1)
	assert.InDelta(t, 0.3+0.7*0.5, got, 1e-12)
}

func TestSmoothTransition_RawEqualsRef(t *testing.T) {
	// sign(0) == 0: the prediction stays at ref.
	got := SmoothTransition(0, 0.04, 0.1, 0.1, 1)
	assert.InDelta(t, 0.9*0.1, got, 1e-12)
}

func TestSmoothTransition_StepBounded(t *testing.T) {
	rng := rand.New(rand.NewSource(11))
	for i := 0; i < 20000; i++ {
		current := rng.NormFloat64() * 3
		deltaSq := rng.Float64()*4 - 0.5
		ref := rng.NormFloat64() * 3
		raw := rng.NormFloat64() * 3

		got := SmoothTransition(current, deltaSq, ref, raw, DefaultMaxStep)
		if deltaSq < 0 {
			assert.Equal(t, ref, got)
			continue
		}
		assert.LessOrEqual(t, math.Abs(got-current), DefaultMaxStep+1e-12,
			"current=%v deltaSq=%v ref=%v raw=%v", current, deltaSq, ref, raw)
	}
}

func TestSmoothTransition_Clamped(t *testing.T) {
	assert.InDelta(t, 0.05, SmoothTransition(0, 1, 0.9, 2, DefaultMaxStep), 1e-15)
	assert.InDelta(t, -0.05, SmoothTransition(0, 1, -0.9, -2, DefaultMaxStep), 1e-15)
}
