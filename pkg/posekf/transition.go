// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

import (
	"math"

	"github.com/thesyncim/posekf/pkg/posekf/linalg"
)

// TransitionFunc is a process model evaluated against an explicit
// measurement snapshot.
type TransitionFunc func(state []float64, dt float64, m *Measurement) []float64

// DepthTransition is the nonlinear process model of the depth filter.
//
// Joints are visited in TraversalOrder. Each joint's raw (x, y) is projected
// into the disk whose radius is its bone length around its parent's (x, y),
// or around the origin with radius HalfPelvisWidth for roots. The depth
// residual the bone still allows, r² minus the projected planar distance
// squared and clamped at zero, drives SmoothTransition against the parent's
// already updated depth (the joint's own reference depth for roots). Parent
// corrections therefore propagate to children within the same step.
//
// dt is accepted for signature compatibility with linalg.Func and is unused.
// The input state is not modified.
func DepthTransition(state []float64, dt float64, m *Measurement) []float64 {
	next := make([]float64, len(state))
	copy(next, state)

	for _, j := range TraversalOrder {
		e := edges[j]
		sample := m.Joints[j]
		radius := constraintRadius(e)

		var cx, cy float64
		if e.Parent != NoParent {
			parent := m.Joints[e.Parent]
			cx, cy = parent.X, parent.Y
		}

		// A projected point sits on the boundary, where the bone leaves no
		// depth residual. Rounding would otherwise leave a tiny positive or
		// negative value there.
		deltaSq := 0.0
		if px, py := ProjectToDisk(sample.X, sample.Y, cx, cy, radius); px == sample.X && py == sample.Y {
			dx, dy := px-cx, py-cy
			deltaSq = math.Max(radius*radius-(dx*dx+dy*dy), 0)
		}

		ref := m.RefDepth[j]
		if e.Parent != NoParent {
			ref = next[e.Parent]
		}
		next[j] = SmoothTransition(next[j], deltaSq, ref, sample.Z, DefaultMaxStep)
	}
	return next
}

// Transition returns DepthTransition bound to m, suitable for
// linalg.NumericalJacobian. m must not change while the returned function
// is in use.
func (m *Measurement) Transition() linalg.Func {
	return func(x []float64, dt float64) []float64 {
		return DepthTransition(x, dt, m)
	}
}
