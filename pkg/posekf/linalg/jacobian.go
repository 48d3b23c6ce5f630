// Package linalg provides the small dense matrix kernel used by the depth
// filter. Matrices are gonum *mat.Dense values and vectors are plain slices.
package linalg

import "gonum.org/v1/gonum/mat"

// DefaultEpsilon is the finite-difference step used for numerical Jacobians.
const DefaultEpsilon = 1e-5

// Func is a vector-valued function of a state and a time step, such as an
// EKF process model. It must be deterministic for the duration of a Jacobian
// evaluation: every context it reads has to stay frozen until the call returns.
type Func func(x []float64, dt float64) []float64

// NumericalJacobian approximates the Jacobian of f at x with forward
// differences. Column j is (f(x + eps*e_j) - f(x)) / eps, computed against a
// single cached baseline f(x). A non-positive eps selects DefaultEpsilon.
func NumericalJacobian(f Func, x []float64, dt, eps float64) *mat.Dense {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	f0 := f(x, dt)
	jac := mat.NewDense(len(f0), len(x), nil)

	x1 := make([]float64, len(x))
	for j := range x {
		copy(x1, x)
		x1[j] += eps
		f1 := f(x1, dt)
		for i := range f0 {
			jac.Set(i, j, (f1[i]-f0[i])/eps)
		}
	}
	return jac
}

// CentralJacobian approximates the Jacobian of f at x with central
// differences, (f(x + eps*e_j) - f(x - eps*e_j)) / 2eps. It costs twice the
// evaluations of NumericalJacobian and has second-order truncation error.
func CentralJacobian(f Func, x []float64, dt, eps float64) *mat.Dense {
	if eps <= 0 {
		eps = DefaultEpsilon
	}
	var jac *mat.Dense

	xp := make([]float64, len(x))
	xm := make([]float64, len(x))
	for j := range x {
		copy(xp, x)
		copy(xm, x)
		xp[j] += eps
		xm[j] -= eps
		fp := f(xp, dt)
		fm := f(xm, dt)
		if jac == nil {
			jac = mat.NewDense(len(fp), len(x), nil)
		}
		for i := range fp {
			jac.Set(i, j, (fp[i]-fm[i])/(2*eps))
		}
	}
	return jac
}
