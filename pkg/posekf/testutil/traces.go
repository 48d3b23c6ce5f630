// Package testutil provides testing utilities for the posekf packages.
// It includes synthetic landmark trace generators that exercise the depth
// filter with plausible human motion.
//
// Note: This package imports posekf, so posekf's own tests cannot use it.
// Equivalent pose builders are defined directly in those test files.
package testutil

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/thesyncim/posekf/pkg/posekf"
)

// Pose is a full skeleton indexed by posekf.Joint.
type Pose [posekf.NumJoints]r3.Vec

// limbDir returns a unit vector in the Y-Z plane pointing down (+Y) when
// angle is zero and swinging forward (+Z) for positive angles.
func limbDir(angle float64) r3.Vec {
	return r3.Vec{Y: math.Cos(angle), Z: math.Sin(angle)}
}

// buildPose places hips, face and every bone at its canonical length.
// dir gives the bone direction of each non-root joint.
func buildPose(sway float64, dir func(j posekf.Joint) r3.Vec) Pose {
	var p Pose
	p[posekf.LeftHip] = r3.Vec{X: sway + posekf.HalfPelvisWidth}
	p[posekf.RightHip] = r3.Vec{X: sway - posekf.HalfPelvisWidth}
	p[posekf.Face] = r3.Vec{X: sway, Y: -0.7, Z: 0.05}

	for _, j := range posekf.TraversalOrder {
		e := posekf.Edge(j)
		if e.Parent == posekf.NoParent {
			continue
		}
		p[j] = r3.Add(p[e.Parent], r3.Scale(e.Length, dir(j)))
	}
	return p
}

// StandingPose returns an upright skeleton with limbs leaning forward by
// lean radians, so joints carry depth.
func StandingPose(lean float64) Pose {
	return buildPose(0, func(j posekf.Joint) r3.Vec {
		if j == posekf.LeftShoulder || j == posekf.RightShoulder {
			return limbDir(math.Pi - lean)
		}
		return limbDir(lean)
	})
}

// WalkingPose returns the skeleton at gait phase (radians, one stride per
// 2π). Legs swing in opposition, arms counter-swing the legs, knees bend
// during the forward swing and the pelvis sways sideways.
func WalkingPose(phase float64) Pose {
	swing := 0.45 * math.Sin(phase)
	kneeL := 0.5 * math.Max(0, math.Sin(phase+math.Pi/2))
	kneeR := 0.5 * math.Max(0, math.Sin(phase-math.Pi/2))
	arm := 0.35 * math.Sin(phase)

	return buildPose(0.02*math.Sin(phase), func(j posekf.Joint) r3.Vec {
		switch j {
		case posekf.LeftShoulder, posekf.RightShoulder:
			return limbDir(math.Pi - 0.05)
		case posekf.LeftKnee:
			return limbDir(swing)
		case posekf.LeftAnkle:
			return limbDir(swing - kneeL)
		case posekf.RightKnee:
			return limbDir(-swing)
		case posekf.RightAnkle:
			return limbDir(-swing - kneeR)
		case posekf.LeftElbow:
			return limbDir(-arm)
		case posekf.LeftWrist:
			return limbDir(-arm + 0.3)
		case posekf.RightElbow:
			return limbDir(arm)
		case posekf.RightWrist:
			return limbDir(arm + 0.3)
		default:
			return limbDir(0)
		}
	})
}

// Landmarks spreads a pose into a full 33 point landmark set. Depth gets
// uniform noise in [-noise, noise]; x and y get a tenth of it. Landmarks
// the filter does not read are left at the origin with full visibility.
// rng may be nil when noise is zero.
func Landmarks(p Pose, noise float64, rng *rand.Rand) []*posekf.Landmark {
	lms := make([]*posekf.Landmark, posekf.NumLandmarks)
	for i := range lms {
		lms[i] = &posekf.Landmark{Visibility: 1}
	}
	for j, idx := range posekf.LandmarkMapping {
		v := p[j]
		if noise > 0 {
			v.X += jitter(rng, noise/10)
			v.Y += jitter(rng, noise/10)
			v.Z += jitter(rng, noise)
		}
		lms[idx] = &posekf.Landmark{X: v.X, Y: v.Y, Z: v.Z, Visibility: 1}
	}
	return lms
}

func jitter(rng *rand.Rand, amplitude float64) float64 {
	return (rng.Float64()*2 - 1) * amplitude
}

// StandingTrace generates count frames of a still, upright skeleton with
// depth noise.
//
// Parameters:
//   - count: Number of frames to generate
//   - noise: Depth noise amplitude in meters
//   - seed: Random seed, for reproducible traces
func StandingTrace(count int, noise float64, seed int64) [][]*posekf.Landmark {
	rng := rand.New(rand.NewSource(seed))
	pose := StandingPose(0.1)
	frames := make([][]*posekf.Landmark, count)
	for i := range frames {
		frames[i] = Landmarks(pose, noise, rng)
	}
	return frames
}

// WalkingTrace generates count frames of a walking skeleton sampled at fps
// frames per second with one stride per second.
//
// Parameters:
//   - count: Number of frames to generate
//   - fps: Frame rate the gait is sampled at
//   - noise: Depth noise amplitude in meters
//   - seed: Random seed, for reproducible traces
func WalkingTrace(count int, fps, noise float64, seed int64) [][]*posekf.Landmark {
	rng := rand.New(rand.NewSource(seed))
	frames := make([][]*posekf.Landmark, count)
	for i := range frames {
		phase := 2 * math.Pi * float64(i) / fps
		frames[i] = Landmarks(WalkingPose(phase), noise, rng)
	}
	return frames
}

// BoneLengthError returns the largest deviation of any bone of p from its
// canonical length, including each hip's distance from the pelvis midpoint.
func BoneLengthError(p Pose) float64 {
	var worst float64
	for j := posekf.Joint(0); j < posekf.NumJoints; j++ {
		e := posekf.Edge(j)
		if e.Parent == posekf.NoParent {
			continue
		}
		got := r3.Norm(r3.Sub(p[j], p[e.Parent]))
		worst = math.Max(worst, math.Abs(got-e.Length))
	}
	mid := r3.Scale(0.5, r3.Add(p[posekf.LeftHip], p[posekf.RightHip]))
	worst = math.Max(worst, math.Abs(r3.Norm(r3.Sub(p[posekf.LeftHip], mid))-posekf.HalfPelvisWidth))
	worst = math.Max(worst, math.Abs(r3.Norm(r3.Sub(p[posekf.RightHip], mid))-posekf.HalfPelvisWidth))
	return worst
}

// IsFinite reports whether every coordinate of p is finite.
func IsFinite(p Pose) bool {
	for _, v := range p {
		for _, c := range [3]float64{v.X, v.Y, v.Z} {
			if math.IsNaN(c) || math.IsInf(c, 0) {
				return false
			}
		}
	}
	return true
}
