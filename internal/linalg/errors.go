package linalg

import "errors"

// Sentinel errors returned by the solver and the homography builder. Callers
// match them with errors.Is; the returned error usually wraps one of these
// with positional context (pivot index, shape).
var (
	// ErrInvalidInput is returned for malformed inputs: empty or non-square
	// matrices, a right-hand side of the wrong length, a correspondence count
	// other than four, or non-finite values under the strict policy.
	ErrInvalidInput = errors.New("linalg: invalid input")

	// ErrSingularSystem is returned under the strict policy when no usable
	// pivot remains in a column.
	ErrSingularSystem = errors.New("linalg: singular system")
)
