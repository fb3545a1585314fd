package testutil

import "github.com/MeKo-Tech/quadcut/internal/utils"

// UnitSquare is (0,0), (1,0), (1,1), (0,1).
func UnitSquare() []utils.Point {
	return []utils.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 1, Y: 1}, {X: 0, Y: 1}}
}

// DoubledSquare is UnitSquare scaled by two.
func DoubledSquare() []utils.Point {
	return []utils.Point{{X: 0, Y: 0}, {X: 2, Y: 0}, {X: 2, Y: 2}, {X: 0, Y: 2}}
}

// DegenerateQuad has three points on the x axis.
func DegenerateQuad() []utils.Point {
	return []utils.Point{{X: 0, Y: 0}, {X: 1, Y: 0}, {X: 2, Y: 0}, {X: 0, Y: 1}}
}

// SampleJobsYAML is a job file with one job per destination form and one
// degenerate job.
const SampleJobsYAML = `jobs:
  - name: scale
    source: [[0, 0], [1, 0], [1, 1], [0, 1]]
    destination: [[0, 0], [2, 0], [2, 2], [0, 2]]
  - name: receipt
    source: [[10, 12], [410, 20], [400, 600], [5, 590]]
    width: 400
    height: 580
  - name: collinear
    source: [[0, 0], [1, 0], [2, 0], [0, 1]]
    destination: [[0, 0], [1, 0], [2, 0], [0, 1]]
`
