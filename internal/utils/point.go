// Package utils holds the small geometry helpers shared by the solver, the
// homography builder and the command line front end.
package utils

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Point represents a 2D coordinate in float space.
type Point struct {
	X float64 `json:"x" yaml:"x"`
	Y float64 `json:"y" yaml:"y"`
}

// ErrMalformedPoint is returned when a textual point cannot be parsed.
var ErrMalformedPoint = errors.New("utils: malformed point")

// String formats the point as "x,y", the same form ParsePoint accepts.
func (p Point) String() string {
	return strconv.FormatFloat(p.X, 'g', -1, 64) + "," + strconv.FormatFloat(p.Y, 'g', -1, 64)
}

// Distance returns the Euclidean distance between a and b.
func Distance(a, b Point) float64 {
	return math.Hypot(b.X-a.X, b.Y-a.Y)
}

// ParsePoint parses a single "x,y" pair. Surrounding whitespace is ignored.
func ParsePoint(s string) (Point, error) {
	parts := strings.Split(strings.TrimSpace(s), ",")
	if len(parts) != 2 {
		return Point{}, fmt.Errorf("%w: %q (want \"x,y\")", ErrMalformedPoint, s)
	}
	x, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q: %w", ErrMalformedPoint, s, err)
	}
	y, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)
	if err != nil {
		return Point{}, fmt.Errorf("%w: %q: %w", ErrMalformedPoint, s, err)
	}
	return Point{X: x, Y: y}, nil
}

// ParsePoints parses a list of "x,y" pairs separated by whitespace or semicolons,
// e.g. "0,0 10,0 10,10 0,10" or "0,0;10,0;10,10;0,10".
func ParsePoints(s string) ([]Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ';' || r == ' ' || r == '\t' || r == '\n'
	})
	pts := make([]Point, 0, len(fields))
	for _, f := range fields {
		p, err := ParsePoint(f)
		if err != nil {
			return nil, err
		}
		pts = append(pts, p)
	}
	return pts, nil
}

// FromPairs converts [[x,y], ...] slices (as decoded from YAML/JSON) into points.
func FromPairs(pairs [][]float64) ([]Point, error) {
	pts := make([]Point, len(pairs))
	for i, pr := range pairs {
		if len(pr) != 2 {
			return nil, fmt.Errorf("%w: entry %d has %d coordinates", ErrMalformedPoint, i, len(pr))
		}
		pts[i] = Point{X: pr[0], Y: pr[1]}
	}
	return pts, nil
}

// Collinear reports whether a, b and c lie on one line. eps is relative to the
// squared length of the longest edge of the triangle, so the test does not
// depend on the coordinate scale. Coincident points count as collinear.
func Collinear(a, b, c Point, eps float64) bool {
	area := cross(a, b, c)
	longest := math.Max(sqDist(a, b), math.Max(sqDist(a, c), sqDist(b, c)))
	if longest == 0 {
		return true
	}
	return math.Abs(area) <= eps*longest
}

// HasCollinearTriple reports whether any three of pts are collinear.
func HasCollinearTriple(pts []Point, eps float64) bool {
	n := len(pts)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			for k := j + 1; k < n; k++ {
				if Collinear(pts[i], pts[j], pts[k], eps) {
					return true
				}
			}
		}
	}
	return false
}

func sqDist(a, b Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	return dx*dx + dy*dy
}
