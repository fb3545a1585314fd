package linalg

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Residual returns a·x - b. Shapes are validated the same way Solve does.
func Residual(a [][]float64, x, b []float64) ([]float64, error) {
	n := len(a)
	if len(x) != n || len(b) != n {
		return nil, fmt.Errorf("%w: residual needs len(x) == len(b) == %d, got %d and %d",
			ErrInvalidInput, n, len(x), len(b))
	}
	r := make([]float64, n)
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidInput, i, len(row), n)
		}
		var sum float64
		for j, v := range row {
			sum += float64(v * x[j])
		}
		r[i] = sum - b[i]
	}
	return r, nil
}

// ResidualNorm returns the Euclidean norm of a·x - b.
func ResidualNorm(a [][]float64, x, b []float64) (float64, error) {
	r, err := Residual(a, x, b)
	if err != nil {
		return 0, err
	}
	var sq float64
	for _, v := range r {
		sq += v * v
	}
	return math.Sqrt(sq), nil
}

// ConditionNumber returns the 2-norm condition number of a, computed from its
// singular values. Singular matrices report +Inf or a value near 1/eps.
func ConditionNumber(a [][]float64) (float64, error) {
	d, err := toDense(a)
	if err != nil {
		return 0, err
	}
	return mat.Cond(d, 2), nil
}

// toDense copies a square [][]float64 into a gonum dense matrix.
func toDense(a [][]float64) (*mat.Dense, error) {
	n := len(a)
	if n == 0 {
		return nil, fmt.Errorf("%w: empty matrix", ErrInvalidInput)
	}
	data := make([]float64, 0, n*n)
	for i, row := range a {
		if len(row) != n {
			return nil, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidInput, i, len(row), n)
		}
		data = append(data, row...)
	}
	return mat.NewDense(n, n, data), nil
}
