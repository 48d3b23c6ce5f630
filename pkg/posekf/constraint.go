// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

import "math"

// DefaultMaxStep bounds the per-frame depth change of SmoothTransition.
const DefaultMaxStep = 0.05

// Mixing weights of SmoothTransition. Small alpha trusts the geometric
// prediction, large alpha keeps the current estimate.
const (
	alphaFar  = 0.01 // ratio > 0.75
	alphaMid  = 0.1
	alphaNear = 0.3 // ratio <= 0.25
)

// ProjectToDisk returns (x, y) pulled radially onto the boundary of the disk
// of radius r around (cx, cy) when it lies outside; points inside the disk
// are returned unchanged.
func ProjectToDisk(x, y, cx, cy, r float64) (float64, float64) {
	dx, dy := x-cx, y-cy
	distSq := dx*dx + dy*dy
	if distSq > r*r {
		scale := r / math.Sqrt(distSq)
		return cx + dx*scale, cy + dy*scale
	}
	return x, y
}

// SmoothTransition moves current toward the depth that satisfies a spherical
// bone constraint and returns the new value.
//
// deltaSq is the squared depth offset the constraint allows relative to ref.
// The predicted depth is ref offset by sqrt(deltaSq) on the side of raw. The
// blend weight is picked from three bands of |ref|/sqrt(deltaSq) and the
// resulting change is clamped to [-maxStep, maxStep]. A negative deltaSq
// means the constraint is unreachable and ref is returned as is.
func SmoothTransition(current, deltaSq, ref, raw, maxStep float64) float64 {
	if deltaSq < 0 {
		return ref
	}
	offset := math.Sqrt(deltaSq)
	predicted := ref + sign(raw-ref)*offset

	ratio := 0.0
	if deltaSq > 0 {
		ratio = math.Abs(ref) / offset
	}
	alpha := alphaMid
	switch {
	case ratio > 0.75:
		alpha = alphaFar
	case ratio <= 0.25:
		alpha = alphaNear
	}

	next := alpha*current + (1-alpha)*predicted
	diff := next - current
	if diff > maxStep {
		diff = maxStep
	} else if diff < -maxStep {
		diff = -maxStep
	}
	return current + diff
}

// sign returns -1, 0 or 1. Unlike math.Copysign it maps zero to zero.
func sign(v float64) float64 {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	}
	return 0
}
