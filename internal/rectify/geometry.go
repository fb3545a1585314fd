package rectify

import (
	"fmt"
	"math"

	"github.com/MeKo-Tech/quadcut/internal/linalg"
	"github.com/MeKo-Tech/quadcut/internal/utils"
)

// EstimateSize returns the target rectangle for a quad ordered clockwise
// from the top-left corner: the mean lengths of opposite edges.
func EstimateSize(quad []utils.Point) (float64, float64, error) {
	if len(quad) != Correspondences {
		return 0, 0, fmt.Errorf("%w: need %d corners, got %d", linalg.ErrInvalidInput, Correspondences, len(quad))
	}

	width := (utils.Distance(quad[0], quad[1]) + utils.Distance(quad[3], quad[2])) * 0.5
	height := (utils.Distance(quad[0], quad[3]) + utils.Distance(quad[1], quad[2])) * 0.5

	if !(width > 0) || !(height > 0) || math.IsInf(width, 0) || math.IsInf(height, 0) {
		return 0, 0, fmt.Errorf("%w: quad has a degenerate size %gx%g", linalg.ErrInvalidInput, width, height)
	}
	return width, height, nil
}

// QuadToFittedRect orders the corners of src, estimates the target size and
// maps the quad onto that rectangle. It returns the size used.
func QuadToFittedRect(src []utils.Point, cfg linalg.SolverConfig) (Homography, float64, float64, error) {
	ordered := utils.OrderQuad(src)
	w, h, err := EstimateSize(ordered)
	if err != nil {
		return Homography{}, 0, 0, err
	}
	H, err := QuadToRectWithConfig(ordered, w, h, cfg)
	if err != nil {
		return Homography{}, 0, 0, err
	}
	return H, w, h, nil
}
