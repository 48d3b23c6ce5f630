// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

import (
	"errors"

	"github.com/pion/logging"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/thesyncim/posekf/pkg/posekf/internal"
	"github.com/thesyncim/posekf/pkg/posekf/linalg"
)

// frameStep is the process model time step. The depth model is not time
// dependent, so every frame advances the filter by one unit.
const frameStep = 1.0

// StabilizerConfig configures the complete per-frame pipeline.
type StabilizerConfig struct {
	// EKF configures the depth filter.
	EKF EKFConfig

	// FrameStats configures frame rate measurement.
	FrameStats FrameStatsConfig

	// MinVisibility drops landmarks less visible than this value.
	// Default: 0 (disabled)
	MinVisibility float64

	// LoggerFactory creates the "posekf" logger. Nil selects the pion
	// default factory.
	LoggerFactory logging.LoggerFactory
}

// DefaultStabilizerConfig returns the default pipeline configuration.
func DefaultStabilizerConfig() StabilizerConfig {
	return StabilizerConfig{
		EKF:        DefaultEKFConfig(),
		FrameStats: DefaultFrameStatsConfig(),
	}
}

// Stats is a snapshot of Stabilizer counters.
type Stats struct {
	Frames           int64   `json:"frames"`            // frames carrying a pose
	Skipped          int64   `json:"skipped"`           // frames whose filter update failed
	MissingLandmarks int64   `json:"missing_landmarks"` // joints substituted by zero samples
	DegenerateBones  int64   `json:"degenerate_bones"`  // bones collapsed onto their parent by the remap
	FrameRate        float64 `json:"frame_rate"`        // frames per second over the stats window
	HasFrameRate     bool    `json:"has_frame_rate"`
}

// Stabilizer turns a stream of raw landmark sets into depth-filtered,
// bone-length-consistent skeletons. It combines:
//   - MeasurementFromLandmarks for joint selection and sanitizing
//   - ExtendedKalmanFilter with DepthTransition for depth smoothing
//   - Remap for fixed bone lengths
//
// The filter is created on the first frame that carries a pose and lives
// until Reset. A Stabilizer is not safe for concurrent use; frames must be
// processed one at a time, in order.
type Stabilizer struct {
	config StabilizerConfig
	clock  internal.Clock
	log    logging.LeveledLogger
	ekf    *ExtendedKalmanFilter
	fps    *FrameStats
	stats  Stats
}

// NewStabilizer creates a Stabilizer. If clock is nil the system clock is used.
func NewStabilizer(config StabilizerConfig, clock internal.Clock) *Stabilizer {
	if clock == nil {
		clock = internal.SystemClock{}
	}
	factory := config.LoggerFactory
	if factory == nil {
		factory = logging.NewDefaultLoggerFactory()
	}
	return &Stabilizer{
		config: config,
		clock:  clock,
		log:    factory.NewLogger("posekf"),
		fps:    NewFrameStats(config.FrameStats),
	}
}

// Process filters one frame of landmarks. An empty landmark set yields a
// Frame with Valid == false and leaves the filter untouched.
//
// A numerically failed filter update does not fail the frame: the previous
// filter state is kept, the frame is marked Skipped and is still remapped
// from the retained depth estimate.
func (s *Stabilizer) Process(lms []*Landmark) Frame {
	now := s.clock.Now()
	if len(lms) == 0 {
		return Frame{Timestamp: now}
	}

	m, missing := MeasurementFromLandmarks(lms, s.config.MinVisibility)
	frame := Frame{Timestamp: now, Valid: true, Missing: missing}

	if s.ekf == nil {
		s.ekf = NewExtendedKalmanFilter(s.config.EKF, m.RefDepth[:], DepthTransition)
		s.log.Debugf("depth filter initialized with %d joints", s.ekf.Dim())
	}

	if err := s.ekf.Step(&m, frameStep, m.RefDepth[:]); err != nil {
		if errors.Is(err, linalg.ErrSingularMatrix) {
			s.log.Warnf("frame %d: filter update skipped: %v", s.stats.Frames, err)
		} else {
			s.log.Errorf("frame %d: filter step failed: %v", s.stats.Frames, err)
		}
		frame.Skipped = true
		s.stats.Skipped++
	}

	depth := s.ekf.State()
	var positions [NumJoints]r3.Vec
	for j := 0; j < NumJoints; j++ {
		frame.Depth[j] = depth[j]
		positions[j] = r3.Vec{X: m.Joints[j].X, Y: m.Joints[j].Y, Z: depth[j]}
	}

	var degenerate int
	frame.Joints, degenerate = RemapCounted(positions)
	if degenerate > 0 {
		s.log.Debugf("frame %d: %d degenerate bones collapsed", s.stats.Frames, degenerate)
	}

	s.stats.Frames++
	s.stats.MissingLandmarks += int64(missing)
	s.stats.DegenerateBones += int64(degenerate)
	s.fps.Update(now)

	return frame
}

// Stats returns the current counters and frame rate.
func (s *Stabilizer) Stats() Stats {
	st := s.stats
	st.FrameRate, st.HasFrameRate = s.fps.Rate(s.clock.Now())
	return st
}

// Filter returns the depth filter, or nil before the first pose frame.
func (s *Stabilizer) Filter() *ExtendedKalmanFilter {
	return s.ekf
}

// Reset drops the filter and all counters. The next pose frame
// reinitializes the filter from its own measurement.
func (s *Stabilizer) Reset() {
	s.ekf = nil
	s.fps.Reset()
	s.stats = Stats{}
}
