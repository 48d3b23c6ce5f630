// Package linalg provides the small dense matrix kernel used by the depth
// filter. Matrices are gonum *mat.Dense values and vectors are plain slices.
package linalg

import (
	"errors"
	"fmt"
)

var (
	// ErrSingularMatrix is returned (wrapped) when a matrix cannot be inverted.
	ErrSingularMatrix = errors.New("linalg: matrix is singular")

	// ErrDimensionMismatch is returned when operand shapes are incompatible.
	ErrDimensionMismatch = errors.New("linalg: dimension mismatch")
)

// SingularMatrixError reports the column at which Gauss-Jordan elimination
// found no usable pivot.
type SingularMatrixError struct {
	Column int
}

func (e *SingularMatrixError) Error() string {
	if e == nil {
		return ""
	}
	return fmt.Sprintf("%s: no pivot in column %d", ErrSingularMatrix.Error(), e.Column)
}

func (e *SingularMatrixError) Unwrap() error { return ErrSingularMatrix }
