// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

import "gonum.org/v1/gonum/spatial/r3"

// degenerateEpsilon is the length below which a bone or hip axis is treated
// as having no direction.
const degenerateEpsilon = 1e-6

// hipAxisFallback is used when the two measured hips coincide.
var hipAxisFallback = r3.Vec{X: 1}

// Remap rewrites measured joint positions so every bone has its canonical
// length while keeping the measured bone directions.
//
// The hips are placed symmetrically about their measured midpoint,
// HalfPelvisWidth away along the left-to-right hip axis. Every other joint is
// then visited parent first and placed at its remapped parent plus the unit
// direction of the measured bone times the bone length, so corrections
// compound down the tree. Face has no parent and is copied unchanged.
func Remap(measured [NumJoints]r3.Vec) [NumJoints]r3.Vec {
	out, _ := RemapCounted(measured)
	return out
}

// RemapCounted is Remap that also reports how many bones were too short to
// carry a direction and were collapsed onto their remapped parent.
func RemapCounted(measured [NumJoints]r3.Vec) ([NumJoints]r3.Vec, int) {
	var out [NumJoints]r3.Vec

	left, right := measured[LeftHip], measured[RightHip]
	mid := r3.Scale(0.5, r3.Add(left, right))
	axis := r3.Sub(right, left)
	unit := hipAxisFallback
	if n := r3.Norm(axis); n >= degenerateEpsilon {
		unit = r3.Scale(1/n, axis)
	}
	out[LeftHip] = r3.Sub(mid, r3.Scale(HalfPelvisWidth, unit))
	out[RightHip] = r3.Add(mid, r3.Scale(HalfPelvisWidth, unit))

	degenerate := 0
	for _, j := range TraversalOrder {
		if j == LeftHip || j == RightHip {
			continue
		}
		e := edges[j]
		if e.Parent == NoParent {
			out[j] = measured[j]
			continue
		}

		bone := r3.Sub(measured[j], measured[e.Parent])
		n := r3.Norm(bone)
		if n < degenerateEpsilon {
			out[j] = out[e.Parent]
			degenerate++
			continue
		}
		out[j] = r3.Add(out[e.Parent], r3.Scale(e.Length/n, bone))
	}
	return out, degenerate
}
