// Package linalg provides the small dense matrix kernel used by the depth
// filter. Matrices are gonum *mat.Dense values and vectors are plain slices.
package linalg

import "gonum.org/v1/gonum/mat"

// Identity returns an n x n identity matrix.
func Identity(n int) *mat.Dense {
	m := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		m.Set(i, i, 1)
	}
	return m
}

// Add returns a + b.
func Add(a, b mat.Matrix) *mat.Dense {
	var c mat.Dense
	c.Add(a, b)
	return &c
}

// Sub returns a - b.
func Sub(a, b mat.Matrix) *mat.Dense {
	var c mat.Dense
	c.Sub(a, b)
	return &c
}

// Mul returns the matrix product a * b.
func Mul(a, b mat.Matrix) *mat.Dense {
	var c mat.Dense
	c.Mul(a, b)
	return &c
}

// Transpose returns a copy of the transpose of a.
func Transpose(a mat.Matrix) *mat.Dense {
	return mat.DenseCopyOf(a.T())
}

// Scale returns s * a.
func Scale(a mat.Matrix, s float64) *mat.Dense {
	var c mat.Dense
	c.Scale(s, a)
	return &c
}

// AddVec returns the element-wise sum a + b. Both slices must have the same length.
func AddVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] + b[i]
	}
	return out
}

// SubVec returns the element-wise difference a - b.
func SubVec(a, b []float64) []float64 {
	out := make([]float64, len(a))
	for i := range a {
		out[i] = a[i] - b[i]
	}
	return out
}

// MulVec returns the matrix-vector product a * v.
func MulVec(a mat.Matrix, v []float64) []float64 {
	r, _ := a.Dims()
	out := mat.NewVecDense(r, nil)
	out.MulVec(a, mat.NewVecDense(len(v), append([]float64(nil), v...)))
	return out.RawVector().Data
}
