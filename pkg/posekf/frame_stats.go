// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

import "time"

// FrameStatsConfig configures the sliding window frame rate measurement.
type FrameStatsConfig struct {
	// WindowSize is the duration of the sliding window.
	// Default: 1 second
	WindowSize time.Duration
}

// DefaultFrameStatsConfig returns the default frame statistics configuration.
func DefaultFrameStatsConfig() FrameStatsConfig {
	return FrameStatsConfig{
		WindowSize: time.Second,
	}
}

// FrameStats tracks the rate of processed frames over a sliding time window.
//
// Usage:
//
//	s := NewFrameStats(DefaultFrameStatsConfig())
//	s.Update(now)
//	if fps, ok := s.Rate(now); ok {
//	    fmt.Printf("%.1f fps\n", fps)
//	}
type FrameStats struct {
	windowSize time.Duration
	stamps     []time.Time
}

// NewFrameStats creates a frame rate tracker. A non-positive window size
// falls back to one second.
func NewFrameStats(config FrameStatsConfig) *FrameStats {
	windowSize := config.WindowSize
	if windowSize <= 0 {
		windowSize = time.Second
	}
	return &FrameStats{
		windowSize: windowSize,
		stamps:     make([]time.Time, 0, 64),
	}
}

// Update records a frame processed at now.
func (s *FrameStats) Update(now time.Time) {
	s.removeExpired(now)
	s.stamps = append(s.stamps, now)
}

// Rate returns the frame rate in frames per second over the window.
// It reports false with fewer than two frames in the window or when they
// span less than a millisecond.
func (s *FrameStats) Rate(now time.Time) (float64, bool) {
	s.removeExpired(now)
	if len(s.stamps) < 2 {
		return 0, false
	}
	elapsed := s.stamps[len(s.stamps)-1].Sub(s.stamps[0])
	if elapsed < time.Millisecond {
		return 0, false
	}
	// n stamps delimit n-1 intervals.
	return float64(len(s.stamps)-1) / elapsed.Seconds(), true
}

// Reset forgets every recorded frame.
func (s *FrameStats) Reset() {
	s.stamps = s.stamps[:0]
}

func (s *FrameStats) removeExpired(now time.Time) {
	cutoff := now.Add(-s.windowSize)
	expired := 0
	for _, ts := range s.stamps {
		if !ts.Before(cutoff) {
			break
		}
		expired++
	}
	if expired > 0 {
		s.stamps = s.stamps[expired:]
	}
}
