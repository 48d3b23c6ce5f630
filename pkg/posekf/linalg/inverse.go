// Package linalg provides the small dense matrix kernel used by the depth
// filter. Matrices are gonum *mat.Dense values and vectors are plain slices.
package linalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// PivotThreshold is the smallest pivot magnitude Inverse accepts before it
// looks for a row to swap in.
const PivotThreshold = 1e-10

// Inverse returns the inverse of the square matrix a using Gauss-Jordan
// elimination on the augmented matrix [a | I].
//
// When the pivot in column i is below PivotThreshold, the first row below i
// with a usable entry in that column is swapped in. If there is none the
// matrix is treated as singular and a *SingularMatrixError is returned.
func Inverse(a mat.Matrix) (*mat.Dense, error) {
	n, c := a.Dims()
	if n != c {
		return nil, fmt.Errorf("%w: cannot invert %dx%d matrix", ErrDimensionMismatch, n, c)
	}

	// Rows of the augmented matrix, kept as slices so swaps are cheap.
	aug := make([][]float64, n)
	for i := 0; i < n; i++ {
		row := make([]float64, 2*n)
		for j := 0; j < n; j++ {
			row[j] = a.At(i, j)
		}
		row[n+i] = 1
		aug[i] = row
	}

	for i := 0; i < n; i++ {
		pivot := aug[i][i]
		if math.Abs(pivot) < PivotThreshold {
			swap := i + 1
			for swap < n && math.Abs(aug[swap][i]) < PivotThreshold {
				swap++
			}
			if swap == n {
				return nil, &SingularMatrixError{Column: i}
			}
			aug[i], aug[swap] = aug[swap], aug[i]
			pivot = aug[i][i]
		}

		for j := 0; j < 2*n; j++ {
			aug[i][j] /= pivot
		}
		for k := 0; k < n; k++ {
			if k == i {
				continue
			}
			factor := aug[k][i]
			if factor == 0 {
				continue
			}
			for j := 0; j < 2*n; j++ {
				aug[k][j] -= factor * aug[i][j]
			}
		}
	}

	inv := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		inv.SetRow(i, aug[i][n:])
	}
	return inv, nil
}
