// Package rectify builds the projective transform (homography) that maps a
// user-drawn quadrilateral onto its corrected shape. Pixel sampling is left to
// the caller; this package only produces and applies the 3x3 matrix.
package rectify

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/MeKo-Tech/quadcut/internal/linalg"
	"github.com/MeKo-Tech/quadcut/internal/utils"
)

// Correspondences is the number of point pairs a homography is built from.
const Correspondences = 4

// Homography holds the coefficients h1..h9 of a row-major 3x3 projective
// matrix. h9 (index 8) is fixed at 1.
type Homography [9]float64

// ComputeHomography computes H mapping src[i] -> dst[i] with the default
// (strict) solver configuration.
func ComputeHomography(src, dst []utils.Point) (Homography, error) {
	return ComputeHomographyWithConfig(src, dst, linalg.DefaultSolverConfig())
}

// ComputeHomographyWithConfig computes H mapping src[i] -> dst[i]. Exactly
// four correspondences are required.
func ComputeHomographyWithConfig(src, dst []utils.Point, cfg linalg.SolverConfig) (Homography, error) {
	a, b, err := BuildSystem(src, dst)
	if err != nil {
		return Homography{}, err
	}

	h, err := linalg.SolveWithConfig(a, b, cfg)
	if err != nil {
		if errors.Is(err, linalg.ErrSingularSystem) {
			slog.Debug("homography system is singular", "src", src, "error", err)
		}
		return Homography{}, fmt.Errorf("solve homography: %w", err)
	}

	H := Homography{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}
	slog.Debug("homography computed", "policy", cfg.Policy.String(), "h", H)

	return H, nil
}

// BuildSystem assembles the 8x8 DLT system A·h = b for the unknowns h1..h8.
// For source (x,y) and destination (u,v) each correspondence contributes
//
//	[x, y, 1, 0, 0, 0, -x·u, -y·u] = u
//	[0, 0, 0, x, y, 1, -x·v, -y·v] = v
func BuildSystem(src, dst []utils.Point) ([][]float64, []float64, error) {
	if len(src) != Correspondences || len(dst) != Correspondences {
		return nil, nil, fmt.Errorf("%w: need %d source and %d destination points, got %d and %d",
			linalg.ErrInvalidInput, Correspondences, Correspondences, len(src), len(dst))
	}

	a := make([][]float64, 0, 2*Correspondences)
	b := make([]float64, 0, 2*Correspondences)
	for i := range Correspondences {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		// u = (h1 x + h2 y + h3)/(h7 x + h8 y + 1)
		a = append(a, []float64{x, y, 1, 0, 0, 0, -x * u, -y * u})
		b = append(b, u)

		// v = (h4 x + h5 y + h6)/(h7 x + h8 y + 1)
		a = append(a, []float64{0, 0, 0, x, y, 1, -x * v, -y * v})
		b = append(b, v)
	}
	return a, b, nil
}

// QuadToRect computes the homography taking the quad src (clockwise from the
// top-left corner in image coordinates) onto the rectangle (0,0)-(w,h).
func QuadToRect(src []utils.Point, w, h float64) (Homography, error) {
	return QuadToRectWithConfig(src, w, h, linalg.DefaultSolverConfig())
}

// QuadToRectWithConfig is QuadToRect with an explicit solver configuration.
func QuadToRectWithConfig(src []utils.Point, w, h float64, cfg linalg.SolverConfig) (Homography, error) {
	if !(w > 0) || !(h > 0) || math.IsInf(w, 0) || math.IsInf(h, 0) {
		return Homography{}, fmt.Errorf("%w: rectangle %gx%g must have positive finite size", linalg.ErrInvalidInput, w, h)
	}
	return ComputeHomographyWithConfig(src, RectCorners(w, h), cfg)
}

// RectCorners returns (0,0), (w,0), (w,h), (0,h).
func RectCorners(w, h float64) []utils.Point {
	return []utils.Point{{X: 0, Y: 0}, {X: w, Y: 0}, {X: w, Y: h}, {X: 0, Y: h}}
}

// Matrix returns the coefficients as a row-major 3x3 matrix.
func (h Homography) Matrix() [3][3]float64 {
	return [3][3]float64{
		{h[0], h[1], h[2]},
		{h[3], h[4], h[5]},
		{h[6], h[7], h[8]},
	}
}

// IsFinite reports whether every coefficient is finite.
func (h Homography) IsFinite() bool {
	for _, v := range h {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Apply maps p through H. It returns false when p lies on the line sent to
// infinity (zero denominator).
func (h Homography) Apply(p utils.Point) (utils.Point, bool) {
	denom := h[6]*p.X + h[7]*p.Y + h[8]
	if denom == 0 {
		return utils.Point{}, false
	}
	return utils.Point{
		X: (h[0]*p.X + h[1]*p.Y + h[2]) / denom,
		Y: (h[3]*p.X + h[4]*p.Y + h[5]) / denom,
	}, true
}

// ApplyAll maps every point through H.
func (h Homography) ApplyAll(pts []utils.Point) ([]utils.Point, error) {
	out := make([]utils.Point, len(pts))
	for i, p := range pts {
		q, ok := h.Apply(p)
		if !ok {
			return nil, fmt.Errorf("point %d (%s) maps to infinity", i, p)
		}
		out[i] = q
	}
	return out, nil
}

// Inverse returns H⁻¹ computed from the adjugate and rescaled so that its
// last coefficient is 1.
func (h Homography) Inverse() (Homography, error) {
	if !h.IsFinite() {
		return Homography{}, fmt.Errorf("%w: homography has non-finite coefficients", linalg.ErrSingularSystem)
	}

	a, b, c := h[0], h[1], h[2]
	d, e, f := h[3], h[4], h[5]
	g, k, i := h[6], h[7], h[8]

	adj := [9]float64{
		e*i - f*k, c*k - b*i, b*f - c*e,
		f*g - d*i, a*i - c*g, c*d - a*f,
		d*k - e*g, b*g - a*k, a*e - b*d,
	}
	det := a*adj[0] + b*adj[3] + c*adj[6]
	if det == 0 || math.IsNaN(det) || math.IsInf(det, 0) {
		return Homography{}, fmt.Errorf("%w: homography determinant is %g", linalg.ErrSingularSystem, det)
	}
	if adj[8] == 0 {
		return Homography{}, fmt.Errorf("%w: inverse maps the origin to infinity and cannot be normalised",
			linalg.ErrSingularSystem)
	}

	var inv Homography
	for j, v := range adj {
		inv[j] = v / adj[8]
	}
	inv[8] = 1
	return inv, nil
}
