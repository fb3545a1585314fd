// Package linalg solves dense linear systems by Gaussian elimination with
// partial pivoting.
//
// The elimination and back-substitution order is fixed: row-major, max-abs
// pivot selection per column, full-row elimination before the next pivot.
// Results are therefore bit-reproducible across runs and platforms that
// implement IEEE-754 double arithmetic, which the homography tests rely on.
package linalg

import (
	"fmt"
	"math"
	"strings"
)

// PivotPolicy selects how the solver treats zero or negligible pivots.
type PivotPolicy int

const (
	// PolicyStrict rejects pivots whose magnitude is at or below
	// Tolerance * max|A| with ErrSingularSystem.
	PolicyStrict PivotPolicy = iota
	// PolicyPropagate never checks pivots. A zero pivot yields NaN/Inf in the
	// solution through IEEE division and no error is reported.
	PolicyPropagate
)

// DefaultTolerance is the relative pivot tolerance used by PolicyStrict.
const DefaultTolerance = 1e-12

// String returns the policy name as used in configuration files.
func (p PivotPolicy) String() string {
	switch p {
	case PolicyStrict:
		return "strict"
	case PolicyPropagate:
		return "propagate"
	default:
		return fmt.Sprintf("PivotPolicy(%d)", int(p))
	}
}

// ParsePolicy maps a configuration string onto a PivotPolicy.
func ParsePolicy(s string) (PivotPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "strict", "":
		return PolicyStrict, nil
	case "propagate":
		return PolicyPropagate, nil
	default:
		return PolicyStrict, fmt.Errorf("%w: unknown pivot policy %q (want strict or propagate)", ErrInvalidInput, s)
	}
}

// SolverConfig holds solver settings.
type SolverConfig struct {
	Policy    PivotPolicy
	Tolerance float64
}

// DefaultSolverConfig returns the strict policy with DefaultTolerance.
func DefaultSolverConfig() SolverConfig {
	return SolverConfig{
		Policy:    PolicyStrict,
		Tolerance: DefaultTolerance,
	}
}

// Solve solves a·x = b with DefaultSolverConfig.
func Solve(a [][]float64, b []float64) ([]float64, error) {
	return SolveWithConfig(a, b, DefaultSolverConfig())
}

// SolveWithConfig solves a·x = b for a square n×n matrix a. Neither a nor b
// is modified; elimination runs on a private augmented copy.
func SolveWithConfig(a [][]float64, b []float64, cfg SolverConfig) ([]float64, error) {
	n, err := validateSystem(a, b, cfg)
	if err != nil {
		return nil, err
	}

	m := augment(a, b)

	threshold := 0.0
	if cfg.Policy == PolicyStrict {
		threshold = cfg.Tolerance * maxAbs(a)
	}

	// Forward elimination with partial pivoting
	for i := range n {
		swapRows(m, i, findPivotRow(m, i))

		if cfg.Policy == PolicyStrict && math.Abs(m[i][i]) <= threshold {
			return nil, fmt.Errorf("%w: pivot %d is %g (threshold %g)", ErrSingularSystem, i, m[i][i], threshold)
		}

		eliminateBelow(m, i)
	}

	return backSubstitute(m), nil
}

func validateSystem(a [][]float64, b []float64, cfg SolverConfig) (int, error) {
	n := len(a)
	if n == 0 {
		return 0, fmt.Errorf("%w: empty matrix", ErrInvalidInput)
	}
	if len(b) != n {
		return 0, fmt.Errorf("%w: matrix has %d rows but right-hand side has %d entries", ErrInvalidInput, n, len(b))
	}
	for r, row := range a {
		if len(row) != n {
			return 0, fmt.Errorf("%w: row %d has %d columns, want %d", ErrInvalidInput, r, len(row), n)
		}
	}
	if cfg.Policy != PolicyStrict {
		return n, nil
	}
	if cfg.Tolerance < 0 || math.IsNaN(cfg.Tolerance) {
		return 0, fmt.Errorf("%w: tolerance %g", ErrInvalidInput, cfg.Tolerance)
	}
	for r, row := range a {
		for c, v := range row {
			if !isFinite(v) {
				return 0, fmt.Errorf("%w: a[%d][%d] is %g", ErrInvalidInput, r, c, v)
			}
		}
		if !isFinite(b[r]) {
			return 0, fmt.Errorf("%w: b[%d] is %g", ErrInvalidInput, r, b[r])
		}
	}
	return n, nil
}

// augment builds M = [a | b] as fresh n×(n+1) storage.
func augment(a [][]float64, b []float64) [][]float64 {
	n := len(a)
	m := make([][]float64, n)
	for i := range n {
		row := make([]float64, n+1)
		copy(row, a[i])
		row[n] = b[i]
		m[i] = row
	}
	return m
}

// findPivotRow returns the row k >= col with the largest |m[k][col]|.
// Ties keep the topmost row.
func findPivotRow(m [][]float64, col int) int {
	pivotRow := col
	for k := col + 1; k < len(m); k++ {
		if math.Abs(m[k][col]) > math.Abs(m[pivotRow][col]) {
			pivotRow = k
		}
	}
	return pivotRow
}

func swapRows(m [][]float64, r1, r2 int) {
	m[r1], m[r2] = m[r2], m[r1]
}

// eliminateBelow subtracts multiples of pivot row i from every row below it,
// across columns i..n including the augmented column.
func eliminateBelow(m [][]float64, i int) {
	n := len(m)
	for k := i + 1; k < n; k++ {
		c := m[k][i] / m[i][i]
		for j := i; j <= n; j++ {
			// The conversion rounds the product and keeps the compiler from
			// emitting a fused multiply-add on arm64/ppc64le/s390x.
			m[k][j] -= float64(c * m[i][j])
		}
	}
}

// backSubstitute reads x from the bottom row up, reducing the augmented
// column of the rows above after each unknown.
func backSubstitute(m [][]float64) []float64 {
	n := len(m)
	x := make([]float64, n)
	for i := n - 1; i >= 0; i-- {
		x[i] = m[i][n] / m[i][i]
		for k := i - 1; k >= 0; k-- {
			m[k][n] -= float64(m[k][i] * x[i])
		}
	}
	return x
}

func maxAbs(a [][]float64) float64 {
	var mx float64
	for _, row := range a {
		for _, v := range row {
			if av := math.Abs(v); av > mx {
				mx = av
			}
		}
	}
	return mx
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
