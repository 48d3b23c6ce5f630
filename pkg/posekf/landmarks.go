// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

import "math"

// Landmark is one point of the upstream estimator's output, in the
// estimator's world coordinates.
type Landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility,omitempty"`
}

// MeasurementFromLandmarks selects the 13 tracked joints from a landmark set
// using LandmarkMapping and returns the resulting Measurement together with
// the number of joints that were missing or partly invalid.
//
// A nil landmark, an index beyond the end of lms, or (when minVisibility > 0)
// a landmark less visible than minVisibility yields a zero sample. A
// non-finite coordinate is replaced by zero on its own.
func MeasurementFromLandmarks(lms []*Landmark, minVisibility float64) (Measurement, int) {
	var samples [NumJoints]JointSample
	missing := 0
	for j, idx := range LandmarkMapping {
		var lm *Landmark
		if idx < len(lms) {
			lm = lms[idx]
		}
		if lm == nil || (minVisibility > 0 && lm.Visibility < minVisibility) {
			missing++
			continue
		}
		x, okX := finiteOrZero(lm.X)
		y, okY := finiteOrZero(lm.Y)
		z, okZ := finiteOrZero(lm.Z)
		if !okX || !okY || !okZ {
			missing++
		}
		samples[j] = JointSample{X: x, Y: y, Z: z}
	}
	return NewMeasurement(samples), missing
}

func finiteOrZero(v float64) (float64, bool) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, false
	}
	return v, true
}
