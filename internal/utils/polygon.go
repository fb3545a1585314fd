package utils

import (
	"math"
	"slices"
)

// PolygonArea returns the signed shoelace area of the closed polygon pts.
// The sign is positive for counter-clockwise order in y-up coordinates,
// which is clockwise on screen where y grows downwards.
func PolygonArea(pts []Point) float64 {
	n := len(pts)
	if n < 3 {
		return 0
	}
	var sum float64
	for i := range n {
		j := (i + 1) % n
		sum += pts[i].X*pts[j].Y - pts[j].X*pts[i].Y
	}
	return sum / 2
}

// IsConvex reports whether pts is a strictly convex polygon in the given
// order. Collinear consecutive vertices and self-intersections fail.
func IsConvex(pts []Point) bool {
	n := len(pts)
	if n < 3 {
		return false
	}
	// Every turn of a convex polygon has the orientation of its area.
	ccw := PolygonArea(pts) > 0
	var turning float64
	for i := range n {
		a, b, c := pts[i], pts[(i+1)%n], pts[(i+2)%n]
		cr := cross(a, b, c)
		if cr == 0 || (cr > 0) != ccw {
			return false
		}
		dot := (b.X-a.X)*(c.X-b.X) + (b.Y-a.Y)*(c.Y-b.Y)
		turning += math.Atan2(cr, dot)
	}
	// A star polygon keeps one turn direction but winds more than once.
	return math.Abs(math.Abs(turning)-2*math.Pi) < 1e-6
}

// OrderQuad returns the four corners sorted clockwise on screen (y down),
// starting from the top-left corner, the one with the smallest x+y.
func OrderQuad(pts []Point) []Point {
	if len(pts) != 4 {
		return append([]Point(nil), pts...)
	}

	var cx, cy float64
	for _, p := range pts {
		cx += p.X / 4
		cy += p.Y / 4
	}

	out := append([]Point(nil), pts...)
	// With y pointing down, increasing atan2 is clockwise on screen.
	slices.SortStableFunc(out, func(a, b Point) int {
		aa := math.Atan2(a.Y-cy, a.X-cx)
		ab := math.Atan2(b.Y-cy, b.X-cx)
		switch {
		case aa < ab:
			return -1
		case aa > ab:
			return 1
		}
		return 0
	})

	start := 0
	for i, p := range out {
		if p.X+p.Y < out[start].X+out[start].Y {
			start = i
		}
	}
	return append(out[start:], out[:start]...)
}

// ConvexHull computes the convex hull of a set of points using the
// monotone chain algorithm. Returns the hull in CCW order (y up) without
// duplicating the first point at the end.
func ConvexHull(pts []Point) []Point {
	p := slices.Clone(pts)
	slices.SortFunc(p, func(a, b Point) int {
		if a.X != b.X {
			return cmpFloat(a.X, b.X)
		}
		return cmpFloat(a.Y, b.Y)
	})
	p = slices.Compact(p)
	if len(p) <= 2 {
		return p
	}

	lower := buildHalfHull(p)
	slices.Reverse(p)
	upper := buildHalfHull(p)

	// The last point of each half is the first of the other.
	hull := make([]Point, 0, len(lower)+len(upper)-2)
	hull = append(hull, lower[:len(lower)-1]...)
	hull = append(hull, upper[:len(upper)-1]...)
	return hull
}

func buildHalfHull(p []Point) []Point {
	half := make([]Point, 0, len(p))
	for _, pt := range p {
		for len(half) >= 2 && cross(half[len(half)-2], half[len(half)-1], pt) <= 0 {
			half = half[:len(half)-1]
		}
		half = append(half, pt)
	}
	return half
}

func cmpFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cross(o, a, b Point) float64 {
	return (a.X-o.X)*(b.Y-o.Y) - (a.Y-o.Y)*(b.X-o.X)
}
