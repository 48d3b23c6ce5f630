package posekf

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

// standingPose returns a skeleton whose bones all have their canonical
// length. The limbs lean forward by lean radians so joints carry depth.
func standingPose(lean float64) [NumJoints]r3.Vec {
	var p [NumJoints]r3.Vec
	p[LeftHip] = r3.Vec{X: HalfPelvisWidth}
	p[RightHip] = r3.Vec{X: -HalfPelvisWidth}
	p[Face] = r3.Vec{Y: -0.7, Z: 0.05}

	up := r3.Vec{Y: -math.Cos(lean), Z: math.Sin(lean)}
	down := r3.Vec{Y: math.Cos(lean), Z: math.Sin(lean)}

	for _, j := range TraversalOrder {
		e := edges[j]
		if e.Parent == NoParent {
			continue
		}
		dir := down
		if j == LeftShoulder || j == RightShoulder {
			dir = up
		}
		p[j] = r3.Add(p[e.Parent], r3.Scale(e.Length, dir))
	}
	return p
}

// landmarksFor spreads joint positions into a 33 point landmark set and adds
// uniform depth noise in [-noise, noise].
func landmarksFor(p [NumJoints]r3.Vec, noise float64, rng *rand.Rand) []*Landmark {
	lms := make([]*Landmark, NumLandmarks)
	for i := range lms {
		lms[i] = &Landmark{Visibility: 1}
	}
	for j, idx := range LandmarkMapping {
		z := p[j].Z
		if noise > 0 {
			z += (rng.Float64()*2 - 1) * noise
		}
		lms[idx] = &Landmark{X: p[j].X, Y: p[j].Y, Z: z, Visibility: 1}
	}
	return lms
}

// randomPose returns joint positions spread over a 2m cube.
func randomPose(rng *rand.Rand) [NumJoints]r3.Vec {
	var p [NumJoints]r3.Vec
	for j := range p {
		p[j] = r3.Vec{X: rng.Float64()*2 - 1, Y: rng.Float64()*2 - 1, Z: rng.Float64()*2 - 1}
	}
	return p
}

func measurementFor(p [NumJoints]r3.Vec) Measurement {
	var samples [NumJoints]JointSample
	for j, v := range p {
		samples[j] = JointSample{X: v.X, Y: v.Y, Z: v.Z}
	}
	return NewMeasurement(samples)
}
