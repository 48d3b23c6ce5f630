package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/pion/interceptor"
	"github.com/pion/logging"
	"github.com/pion/webrtc/v4"

	"github.com/thesyncim/posekf/pkg/posekf"
)

// Factory accepts WebRTC offers and creates one Session per peer connection.
type Factory struct {
	stabilizer    posekf.StabilizerConfig
	loggerFactory logging.LoggerFactory
	label         string
	onFrame       func(*Session, posekf.Frame)
	loopback      bool

	log logging.LeveledLogger
	api *webrtc.API

	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool
}

// NewFactory creates a Factory. Configure it using Option functions.
//
// Example:
//
//	factory, err := NewFactory(
//	    WithStabilizerConfig(config),
//	    WithOnFrame(func(s *Session, frame posekf.Frame) { ... }),
//	)
func NewFactory(opts ...Option) (*Factory, error) {
	f := &Factory{
		stabilizer: posekf.DefaultStabilizerConfig(),
		label:      DefaultChannelLabel,
		sessions:   make(map[string]*Session),
	}
	for _, opt := range opts {
		if err := opt(f); err != nil {
			return nil, err
		}
	}
	if f.loggerFactory == nil {
		f.loggerFactory = logging.NewDefaultLoggerFactory()
	}
	if f.stabilizer.LoggerFactory == nil {
		f.stabilizer.LoggerFactory = f.loggerFactory
	}
	f.log = f.loggerFactory.NewLogger("session")

	api, err := f.NewAPI()
	if err != nil {
		return nil, err
	}
	f.api = api
	return f, nil
}

// NewAPI builds the WebRTC API sessions are created with: default codecs,
// the default interceptor chain and the factory's logger factory.
func (f *Factory) NewAPI() (*webrtc.API, error) {
	m := &webrtc.MediaEngine{}
	if err := m.RegisterDefaultCodecs(); err != nil {
		return nil, fmt.Errorf("register codecs: %w", err)
	}

	i := &interceptor.Registry{}
	if err := webrtc.RegisterDefaultInterceptors(m, i); err != nil {
		return nil, fmt.Errorf("register interceptors: %w", err)
	}

	s := webrtc.SettingEngine{LoggerFactory: f.loggerFactory}
	s.SetIncludeLoopbackCandidate(f.loopback)

	return webrtc.NewAPI(
		webrtc.WithMediaEngine(m),
		webrtc.WithInterceptorRegistry(i),
		webrtc.WithSettingEngine(s),
	), nil
}

// Accept answers a peer's offer. It returns once ICE gathering has finished,
// so the answer carries every local candidate and needs no trickle ICE.
// If ctx ends first the peer connection is closed and ctx's error returned.
func (f *Factory) Accept(ctx context.Context, offer webrtc.SessionDescription) (*Session, *webrtc.SessionDescription, error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	f.mu.Lock()
	closed := f.closed
	f.mu.Unlock()
	if closed {
		return nil, nil, ErrFactoryClosed
	}

	pc, err := f.api.NewPeerConnection(webrtc.Configuration{})
	if err != nil {
		return nil, nil, fmt.Errorf("create peer connection: %w", err)
	}

	s := newSession(uuid.NewString(), f.stabilizer, f.loggerFactory.NewLogger("session"), f.onFrame)
	s.pc = pc

	pc.OnDataChannel(func(dc *webrtc.DataChannel) {
		if dc.Label() != f.label {
			f.log.Debugf("session %s: ignoring data channel %q", s.id, dc.Label())
			return
		}
		s.attach(dc)
	})
	pc.OnConnectionStateChange(func(state webrtc.PeerConnectionState) {
		f.log.Infof("session %s: connection state %s", s.id, state)
		if state == webrtc.PeerConnectionStateFailed || state == webrtc.PeerConnectionStateClosed {
			f.remove(s)
			if err := s.Close(); err != nil {
				f.log.Warnf("session %s: close: %v", s.id, err)
			}
		}
	})

	answer, err := negotiate(ctx, pc, offer)
	if err != nil {
		_ = pc.Close()
		return nil, nil, err
	}

	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		_ = pc.Close()
		return nil, nil, ErrFactoryClosed
	}
	f.sessions[s.id] = s
	f.mu.Unlock()

	f.log.Infof("session %s: accepted", s.id)
	return s, answer, nil
}

func negotiate(ctx context.Context, pc *webrtc.PeerConnection, offer webrtc.SessionDescription) (*webrtc.SessionDescription, error) {
	if err := pc.SetRemoteDescription(offer); err != nil {
		return nil, fmt.Errorf("set remote description: %w", err)
	}
	answer, err := pc.CreateAnswer(nil)
	if err != nil {
		return nil, fmt.Errorf("create answer: %w", err)
	}

	gatherComplete := webrtc.GatheringCompletePromise(pc)
	if err := pc.SetLocalDescription(answer); err != nil {
		return nil, fmt.Errorf("set local description: %w", err)
	}

	select {
	case <-gatherComplete:
	case <-ctx.Done():
		return nil, fmt.Errorf("ice gathering: %w", ctx.Err())
	}
	return pc.LocalDescription(), nil
}

// Sessions returns the live sessions ordered by ID.
func (f *Factory) Sessions() []*Session {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*Session, 0, len(f.sessions))
	for _, s := range f.sessions {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].id < out[j].id })
	return out
}

// Close closes every live session. Accept fails with ErrFactoryClosed
// afterwards.
func (f *Factory) Close() error {
	f.mu.Lock()
	f.closed = true
	sessions := make([]*Session, 0, len(f.sessions))
	for id, s := range f.sessions {
		sessions = append(sessions, s)
		delete(f.sessions, id)
	}
	f.mu.Unlock()

	var errs []error
	for _, s := range sessions {
		if err := s.Close(); err != nil {
			errs = append(errs, fmt.Errorf("session %s: %w", s.id, err))
		}
	}
	return errors.Join(errs...)
}

func (f *Factory) remove(s *Session) {
	f.mu.Lock()
	delete(f.sessions, s.id)
	f.mu.Unlock()
}
