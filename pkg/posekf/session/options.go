package session

import (
	"errors"

	"github.com/pion/logging"

	"github.com/thesyncim/posekf/pkg/posekf"
)

// DefaultChannelLabel is the data channel label sessions listen on.
const DefaultChannelLabel = "pose"

// Option configures a Factory.
type Option func(*Factory) error

// WithStabilizerConfig sets the pipeline configuration used for every new
// session. A nil LoggerFactory in config is replaced by the factory's.
// Default: posekf.DefaultStabilizerConfig()
func WithStabilizerConfig(config posekf.StabilizerConfig) Option {
	return func(f *Factory) error {
		if config.MinVisibility < 0 || config.MinVisibility > 1 {
			return errors.New("min visibility must be within [0, 1]")
		}
		if config.FrameStats.WindowSize < 0 {
			return errors.New("frame stats window must not be negative")
		}
		f.stabilizer = config
		return nil
	}
}

// WithLoggerFactory sets the logger factory for sessions, their stabilizers
// and the WebRTC stack.
// Default: logging.NewDefaultLoggerFactory()
func WithLoggerFactory(factory logging.LoggerFactory) Option {
	return func(f *Factory) error {
		if factory == nil {
			return errors.New("logger factory must not be nil")
		}
		f.loggerFactory = factory
		return nil
	}
}

// WithChannelLabel sets the label of the data channel carrying pose frames.
// Data channels with any other label are ignored.
// Default: "pose"
func WithChannelLabel(label string) Option {
	return func(f *Factory) error {
		if label == "" {
			return errors.New("channel label must not be empty")
		}
		f.label = label
		return nil
	}
}

// WithOnFrame sets a callback invoked after each frame a session stabilizes.
// The callback runs on the session's message goroutine and must not block.
func WithOnFrame(fn func(s *Session, frame posekf.Frame)) Option {
	return func(f *Factory) error {
		f.onFrame = fn
		return nil
	}
}

// WithLoopbackCandidates makes the WebRTC agent gather loopback ICE
// candidates, for peers on the same host without another usable interface.
// Default: false
func WithLoopbackCandidates(include bool) Option {
	return func(f *Factory) error {
		f.loopback = include
		return nil
	}
}
