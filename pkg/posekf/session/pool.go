package session

import (
	"sync"

	"github.com/thesyncim/posekf/pkg/posekf"
)

// frameMessagePool is a sync.Pool for reusing FrameMessage decode targets.
// A pose stream decodes one message per video frame per peer, and each
// message carries 33 landmarks.
var frameMessagePool = sync.Pool{
	New: func() any {
		return &FrameMessage{Landmarks: make([]*posekf.Landmark, 0, posekf.NumLandmarks)}
	},
}

// getFrameMessage retrieves a FrameMessage from the pool.
// The returned message has Seq zero and no landmarks.
func getFrameMessage() *FrameMessage {
	return frameMessagePool.Get().(*FrameMessage)
}

// putFrameMessage returns msg to the pool. encoding/json decodes into the
// landmarks already referenced by the slice, so each one is zeroed to keep
// fields absent from the next message (visibility) from leaking through.
func putFrameMessage(msg *FrameMessage) {
	for _, lm := range msg.Landmarks {
		if lm != nil {
			*lm = posekf.Landmark{}
		}
	}
	msg.Seq = 0
	msg.Landmarks = msg.Landmarks[:0]
	frameMessagePool.Put(msg)
}
