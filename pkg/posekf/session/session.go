package session

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	"github.com/thesyncim/posekf/pkg/posekf"
)

// ErrFactoryClosed is returned by Factory.Accept after Factory.Close.
var ErrFactoryClosed = errors.New("session: factory closed")

// Stats is a snapshot of one session's counters.
type Stats struct {
	ID        string       `json:"id"`
	Messages  int64        `json:"messages"`  // frame messages received
	Malformed int64        `json:"malformed"` // messages dropped as undecodable
	Pose      posekf.Stats `json:"pose"`
}

// Session is one peer connection and the Stabilizer that filters its frames.
type Session struct {
	id      string
	log     logging.LeveledLogger
	onFrame func(*Session, posekf.Frame)
	pc      *webrtc.PeerConnection

	mu         sync.Mutex
	stabilizer *posekf.Stabilizer
	messages   int64
	malformed  int64

	closed atomic.Bool
}

func newSession(id string, config posekf.StabilizerConfig, log logging.LeveledLogger, onFrame func(*Session, posekf.Frame)) *Session {
	return &Session{
		id:         id,
		log:        log,
		onFrame:    onFrame,
		stabilizer: posekf.NewStabilizer(config, nil),
	}
}

// ID returns the session's unique identifier.
func (s *Session) ID() string {
	return s.id
}

// Stats returns the session's counters.
func (s *Session) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{
		ID:        s.id,
		Messages:  s.messages,
		Malformed: s.malformed,
		Pose:      s.stabilizer.Stats(),
	}
}

// Close closes the peer connection. Calling Close more than once is safe.
func (s *Session) Close() error {
	if !s.closed.CompareAndSwap(false, true) {
		return nil
	}
	s.log.Debugf("session %s: closing", s.id)
	if s.pc == nil {
		return nil
	}
	return s.pc.Close()
}

// attach serves pose frames arriving on dc.
func (s *Session) attach(dc *webrtc.DataChannel) {
	dc.OnOpen(func() {
		s.log.Infof("session %s: data channel %q open", s.id, dc.Label())
	})
	dc.OnMessage(func(msg webrtc.DataChannelMessage) {
		reply, err := s.handleMessage(msg.Data)
		if err != nil {
			s.log.Warnf("session %s: dropping frame: %v", s.id, err)
			return
		}
		if err := dc.SendText(string(reply)); err != nil {
			s.log.Warnf("session %s: send skeleton: %v", s.id, err)
		}
	})
}

// handleMessage stabilizes one encoded FrameMessage and returns the encoded
// SkeletonMessage answering it.
func (s *Session) handleMessage(data []byte) ([]byte, error) {
	msg := getFrameMessage()
	defer putFrameMessage(msg)

	s.mu.Lock()
	s.messages++
	if err := json.Unmarshal(data, msg); err != nil {
		s.malformed++
		s.mu.Unlock()
		return nil, fmt.Errorf("decode frame: %w", err)
	}
	frame := s.stabilizer.Process(msg.Landmarks)
	seq := msg.Seq
	s.mu.Unlock()

	if s.onFrame != nil {
		s.onFrame(s, frame)
	}

	reply, err := json.Marshal(NewSkeletonMessage(seq, frame))
	if err != nil {
		return nil, fmt.Errorf("encode skeleton: %w", err)
	}
	return reply, nil
}
