// Package testutil provides testing utilities for the posekf packages.
// This file provides recorded trace replay infrastructure.
package testutil

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/thesyncim/posekf/pkg/posekf"
	"github.com/thesyncim/posekf/pkg/posekf/internal"
)

// TraceFrame is one recorded frame of estimator output.
type TraceFrame struct {
	Landmarks []*posekf.Landmark `json:"landmarks"`
}

// RecordedTrace is an ordered sequence of frames, in the format read by
// cmd/replay.
type RecordedTrace []TraceFrame

// NewRecordedTrace wraps generated landmark frames, e.g. from WalkingTrace.
func NewRecordedTrace(frames [][]*posekf.Landmark) RecordedTrace {
	t := make(RecordedTrace, len(frames))
	for i, lms := range frames {
		t[i] = TraceFrame{Landmarks: lms}
	}
	return t
}

// LoadTrace reads a recorded trace from a JSON file.
//
// File format:
//
//	[
//	    {"landmarks": [{"x": 0.01, "y": -0.61, "z": -0.2, "visibility": 0.99}, ...]},
//	    ...
//	]
func LoadTrace(path string) (RecordedTrace, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read trace file %s: %w", path, err)
	}

	var trace RecordedTrace
	if err := json.Unmarshal(data, &trace); err != nil {
		return nil, fmt.Errorf("failed to parse trace file %s: %w", path, err)
	}
	return trace, nil
}

// Save writes the trace to path in the LoadTrace format.
func (t RecordedTrace) Save(path string) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode trace: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write trace file %s: %w", path, err)
	}
	return nil
}

// Replay feeds every frame through s and returns the stabilized frames.
// The clock is advanced by one frame interval at fps after each frame.
func (t RecordedTrace) Replay(s *posekf.Stabilizer, clock *internal.ManualClock, fps float64) []posekf.Frame {
	out := make([]posekf.Frame, len(t))
	for i, f := range t {
		out[i] = s.Process(f.Landmarks)
		clock.AdvanceFrames(1, fps)
	}
	return out
}

// ReplayResult summarizes a replay.
type ReplayResult struct {
	// MaxBoneError is the largest bone length deviation over all valid frames.
	MaxBoneError float64

	// NonFinite counts valid frames with a NaN or infinite coordinate.
	NonFinite int

	// Valid is the number of frames that carried a pose.
	Valid int

	// Skipped is the number of frames whose filter update failed.
	Skipped int
}

// Summarize checks the skeleton invariants of replayed frames.
func Summarize(frames []posekf.Frame) ReplayResult {
	var r ReplayResult
	for _, f := range frames {
		if !f.Valid {
			continue
		}
		r.Valid++
		if f.Skipped {
			r.Skipped++
		}
		p := Pose(f.Joints)
		if !IsFinite(p) {
			r.NonFinite++
			continue
		}
		if e := BoneLengthError(p); e > r.MaxBoneError {
			r.MaxBoneError = e
		}
	}
	return r
}
