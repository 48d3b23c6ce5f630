package session

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/thesyncim/posekf/pkg/posekf"
)

// FrameMessage is one frame of raw landmarks sent by the peer.
type FrameMessage struct {
	Seq       uint64             `json:"seq"`
	Landmarks []*posekf.Landmark `json:"landmarks"`
}

// Position is a joint position on the wire.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	Z float64 `json:"z"`
}

// SkeletonMessage is the stabilized skeleton returned for a FrameMessage.
// Joints are indexed by posekf.Joint.
type SkeletonMessage struct {
	Seq         uint64                     `json:"seq"`
	Valid       bool                       `json:"valid"`
	Skipped     bool                       `json:"skipped,omitempty"`
	Missing     int                        `json:"missing"`
	Joints      [posekf.NumJoints]Position `json:"joints"`
	Connections [][2]int                   `json:"connections"`
}

// connections is posekf.Connections in wire form. It is shared by every
// response and must not be modified.
var connections = func() [][2]int {
	out := make([][2]int, len(posekf.Connections))
	for i, c := range posekf.Connections {
		out[i] = [2]int{int(c[0]), int(c[1])}
	}
	return out
}()

// NewSkeletonMessage converts a stabilized frame into its wire form. Joint
// positions of an invalid frame are left at zero.
func NewSkeletonMessage(seq uint64, frame posekf.Frame) SkeletonMessage {
	msg := SkeletonMessage{
		Seq:         seq,
		Valid:       frame.Valid,
		Skipped:     frame.Skipped,
		Missing:     frame.Missing,
		Connections: connections,
	}
	if frame.Valid {
		for j, v := range frame.Joints {
			msg.Joints[j] = positionOf(v)
		}
	}
	return msg
}

func positionOf(v r3.Vec) Position {
	return Position{X: v.X, Y: v.Y, Z: v.Z}
}
