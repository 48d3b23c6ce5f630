// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

import (
	"time"

	"gonum.org/v1/gonum/spatial/r3"
)

// Joint identifies one of the 13 tracked body points.
type Joint int

const (
	Face Joint = iota
	LeftShoulder
	RightShoulder
	LeftElbow
	RightElbow
	LeftWrist
	RightWrist
	LeftHip
	RightHip
	LeftKnee
	RightKnee
	LeftAnkle
	RightAnkle
)

// NumJoints is the number of joints in the internal skeleton.
const NumJoints = 13

// NoParent marks a joint without a parent in the kinematic tree.
const NoParent Joint = -1

var jointNames = [NumJoints]string{
	"Face",
	"LeftShoulder",
	"RightShoulder",
	"LeftElbow",
	"RightElbow",
	"LeftWrist",
	"RightWrist",
	"LeftHip",
	"RightHip",
	"LeftKnee",
	"RightKnee",
	"LeftAnkle",
	"RightAnkle",
}

// String returns the joint name.
func (j Joint) String() string {
	if j == NoParent {
		return "None"
	}
	if j < 0 || int(j) >= NumJoints {
		return "Unknown"
	}
	return jointNames[j]
}

// JointSample is one observed (x, y, depth) triple. Missing or invalid
// observations are represented by the zero value.
type JointSample struct {
	X, Y, Z float64
}

// Measurement is the per-frame context of the depth transition model: the
// 13 observed samples and the raw depth reference vector. It is treated as an
// immutable snapshot for the duration of one predict/update cycle.
type Measurement struct {
	Joints   [NumJoints]JointSample
	RefDepth [NumJoints]float64
}

// NewMeasurement builds a Measurement whose reference depth is the observed
// depth of every sample.
func NewMeasurement(samples [NumJoints]JointSample) Measurement {
	m := Measurement{Joints: samples}
	for i, s := range samples {
		m.RefDepth[i] = s.Z
	}
	return m
}

// Frame is the stabilized result for one input frame.
type Frame struct {
	// Joints holds the remapped positions, indexed by Joint.
	Joints [NumJoints]r3.Vec

	// Depth holds the filtered depth before bone-length remapping.
	Depth [NumJoints]float64

	// Timestamp is when the frame was processed.
	Timestamp time.Time

	// Valid is false when the input carried no pose at all.
	Valid bool

	// Skipped is true when the filter update failed numerically and the
	// previous filter state was kept for this frame.
	Skipped bool

	// Missing counts joints whose landmark was absent or invalid.
	Missing int
}
