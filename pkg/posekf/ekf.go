// Package posekf stabilizes the depth of single-frame 3-D pose estimates with
// a kinematically constrained extended Kalman filter and fixed bone lengths.
package posekf

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/thesyncim/posekf/pkg/posekf/linalg"
)

// CovarianceUpdate selects how Update recomputes the error covariance.
type CovarianceUpdate int

const (
	// CovarianceSimple uses P = (I - K) P. It matches the reference behavior
	// but lets P drift away from symmetry under rounding.
	CovarianceSimple CovarianceUpdate = iota

	// CovarianceJoseph uses P = (I - K) P (I - K)^T + K R K^T and then
	// symmetrizes the result.
	CovarianceJoseph
)

// String returns a string representation of the covariance update form.
func (c CovarianceUpdate) String() string {
	switch c {
	case CovarianceSimple:
		return "Simple"
	case CovarianceJoseph:
		return "Joseph"
	default:
		return "Unknown"
	}
}

// EKFConfig holds the noise model of the extended Kalman filter.
type EKFConfig struct {
	// ProcessNoise scales the identity process noise covariance Q.
	// Default: 1.0
	ProcessNoise float64

	// MeasurementNoise scales the identity observation noise covariance R.
	// Default: 0.1
	MeasurementNoise float64

	// InitialCovariance scales the identity initial error covariance P.
	// Default: 1.0
	InitialCovariance float64

	// JacobianEpsilon is the forward-difference step of the process Jacobian.
	// Default: 1e-5
	JacobianEpsilon float64

	// CovarianceUpdate selects the covariance update form.
	// Default: CovarianceSimple
	CovarianceUpdate CovarianceUpdate
}

// DefaultEKFConfig returns the default filter configuration.
func DefaultEKFConfig() EKFConfig {
	return EKFConfig{
		ProcessNoise:      1.0,
		MeasurementNoise:  0.1,
		InitialCovariance: 1.0,
		JacobianEpsilon:   linalg.DefaultEpsilon,
		CovarianceUpdate:  CovarianceSimple,
	}
}

// ExtendedKalmanFilter estimates a state vector through a nonlinear process
// model and an identity observation model. For the skeleton the state is the
// depth of every joint.
//
// The process model reads a Measurement that is passed explicitly to Predict,
// so the same snapshot is used for the state transition and for every
// evaluation of the numerical Jacobian.
type ExtendedKalmanFilter struct {
	config EKFConfig
	fx     TransitionFunc
	dim    int

	x []float64  // state estimate
	p *mat.Dense // error covariance
	q *mat.Dense // process noise
	r *mat.Dense // observation noise
}

// NewExtendedKalmanFilter creates a filter whose initial state is x0. The
// state and observation dimension is len(x0). A nil fx selects
// DepthTransition.
func NewExtendedKalmanFilter(config EKFConfig, x0 []float64, fx TransitionFunc) *ExtendedKalmanFilter {
	if fx == nil {
		fx = DepthTransition
	}
	dim := len(x0)
	f := &ExtendedKalmanFilter{
		config: config,
		fx:     fx,
		dim:    dim,
		q:      linalg.Scale(linalg.Identity(dim), config.ProcessNoise),
		r:      linalg.Scale(linalg.Identity(dim), config.MeasurementNoise),
	}
	f.Reset(x0)
	return f
}

// Predict advances the state through the process model and propagates the
// covariance: x = fx(x), F = J_fx(x), P = F P F^T + Q.
//
// As in the reference filter, the Jacobian is taken at the propagated state.
func (f *ExtendedKalmanFilter) Predict(m *Measurement, dt float64) {
	fx := func(x []float64, dt float64) []float64 {
		return f.fx(x, dt, m)
	}

	f.x = fx(f.x, dt)
	jac := linalg.NumericalJacobian(fx, f.x, dt, f.config.JacobianEpsilon)
	f.p = linalg.Add(linalg.Mul(linalg.Mul(jac, f.p), jac.T()), f.q)
}

// Update corrects the state with the observation z. Every observation is
// accepted; there is no innovation gating.
//
// If the innovation covariance S = P + R cannot be inverted the returned
// error wraps *linalg.SingularMatrixError and the filter is left unchanged.
func (f *ExtendedKalmanFilter) Update(z []float64) error {
	if len(z) != f.dim {
		return fmt.Errorf("ekf update: %w: observation has %d elements, want %d",
			linalg.ErrDimensionMismatch, len(z), f.dim)
	}

	innovation := linalg.SubVec(z, f.x)
	s := linalg.Add(f.p, f.r)
	sInv, err := linalg.Inverse(s)
	if err != nil {
		return fmt.Errorf("ekf update: innovation covariance: %w", err)
	}
	gain := linalg.Mul(f.p, sInv)

	f.x = linalg.AddVec(f.x, linalg.MulVec(gain, innovation))

	ik := linalg.Sub(linalg.Identity(f.dim), gain)
	switch f.config.CovarianceUpdate {
	case CovarianceJoseph:
		p := linalg.Add(
			linalg.Mul(linalg.Mul(ik, f.p), ik.T()),
			linalg.Mul(linalg.Mul(gain, f.r), gain.T()),
		)
		f.p = symmetrize(p)
	default:
		f.p = linalg.Mul(ik, f.p)
	}
	return nil
}

// Step runs Predict followed by Update(z) as one unit. When Update fails the
// state and covariance from before Predict are restored, so a failed frame
// leaves no trace in the filter.
func (f *ExtendedKalmanFilter) Step(m *Measurement, dt float64, z []float64) error {
	x := f.State()
	p := mat.DenseCopyOf(f.p)

	f.Predict(m, dt)
	if err := f.Update(z); err != nil {
		f.x = x
		f.p = p
		return err
	}
	return nil
}

// State returns a copy of the current state estimate.
func (f *ExtendedKalmanFilter) State() []float64 {
	return append([]float64(nil), f.x...)
}

// Covariance returns a copy of the current error covariance.
func (f *ExtendedKalmanFilter) Covariance() *mat.Dense {
	return mat.DenseCopyOf(f.p)
}

// Dim returns the state dimension.
func (f *ExtendedKalmanFilter) Dim() int {
	return f.dim
}

// Reset sets the state to x0 and the covariance to its initial value.
// x0 must have the filter's dimension.
func (f *ExtendedKalmanFilter) Reset(x0 []float64) {
	f.x = append([]float64(nil), x0...)
	f.p = linalg.Scale(linalg.Identity(f.dim), f.config.InitialCovariance)
}

// symmetrize returns (p + p^T) / 2.
func symmetrize(p *mat.Dense) *mat.Dense {
	return linalg.Scale(linalg.Add(p, p.T()), 0.5)
}
