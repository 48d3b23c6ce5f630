// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

// Canonical bone lengths in meters.
const (
	RightForearm    = 0.19 // right wrist -> right elbow
	RightUpperArm   = 0.21 // right elbow -> right shoulder
	RightTorso      = 0.53 // right shoulder -> right hip
	LeftForearm     = 0.19 // left wrist -> left elbow
	LeftUpperArm    = 0.21 // left elbow -> left shoulder
	LeftTorso       = 0.53 // left shoulder -> left hip
	RightThigh      = 0.40 // right hip -> right knee
	RightShin       = 0.32 // right knee -> right ankle
	LeftThigh       = 0.40 // left hip -> left knee
	LeftShin        = 0.32 // left knee -> left ankle
	HalfPelvisWidth = 0.11 // hip -> pelvis midpoint
)

// KinematicEdge is the incoming edge of a joint: its parent and the canonical
// distance between them. Roots have Parent == NoParent; for the hips Length is
// the distance to the pelvis midpoint.
type KinematicEdge struct {
	Joint  Joint
	Parent Joint
	Length float64
}

// edges is indexed by Joint.
var edges = [NumJoints]KinematicEdge{
	Face:          {Face, NoParent, 0},
	LeftShoulder:  {LeftShoulder, LeftHip, LeftTorso},
	RightShoulder: {RightShoulder, RightHip, RightTorso},
	LeftElbow:     {LeftElbow, LeftShoulder, LeftUpperArm},
	RightElbow:    {RightElbow, RightShoulder, RightUpperArm},
	LeftWrist:     {LeftWrist, LeftElbow, LeftForearm},
	RightWrist:    {RightWrist, RightElbow, RightForearm},
	LeftHip:       {LeftHip, NoParent, HalfPelvisWidth},
	RightHip:      {RightHip, NoParent, HalfPelvisWidth},
	LeftKnee:      {LeftKnee, LeftHip, LeftThigh},
	RightKnee:     {RightKnee, RightHip, RightThigh},
	LeftAnkle:     {LeftAnkle, LeftKnee, LeftShin},
	RightAnkle:    {RightAnkle, RightKnee, RightShin},
}

// TraversalOrder visits every joint after its parent.
var TraversalOrder = [NumJoints]Joint{
	Face, LeftHip, RightHip,
	LeftShoulder, LeftKnee, LeftElbow, LeftAnkle, LeftWrist,
	RightShoulder, RightKnee, RightElbow, RightAnkle, RightWrist,
}

// LandmarkMapping gives, for each Joint, the index of the source landmark in
// the estimator's 33-point output.
var LandmarkMapping = [NumJoints]int{0, 11, 12, 13, 14, 15, 16, 23, 24, 25, 26, 27, 28}

// NumLandmarks is the size of the estimator's landmark set.
const NumLandmarks = 33

// Connections lists the joint pairs a renderer draws as bones.
var Connections = [12][2]Joint{
	{RightWrist, RightElbow},
	{RightElbow, RightShoulder},
	{RightShoulder, LeftShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightHip},
	{LeftShoulder, LeftHip},
	{RightHip, LeftHip},
	{RightHip, RightKnee},
	{LeftHip, LeftKnee},
	{RightKnee, RightAnkle},
	{LeftKnee, LeftAnkle},
}

// Edge returns the incoming edge of j.
func Edge(j Joint) KinematicEdge {
	return edges[j]
}

// Parent returns the parent of j, or NoParent for Face and the two hips.
func Parent(j Joint) Joint {
	return edges[j].Parent
}

// BoneLength returns the canonical length of j's incoming edge.
func BoneLength(j Joint) float64 {
	return edges[j].Length
}

// constraintRadius is the sphere radius the depth model uses for j. Roots
// are constrained around the origin by the half pelvis width.
func constraintRadius(e KinematicEdge) float64 {
	if e.Parent == NoParent {
		return HalfPelvisWidth
	}
	return e.Length
}
