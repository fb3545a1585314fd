package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePoint(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Point
		wantErr bool
	}{
		{name: "integers", input: "3,4", want: Point{X: 3, Y: 4}},
		{name: "floats with spaces", input: "  1.5 , -2.25 ", want: Point{X: 1.5, Y: -2.25}},
		{name: "scientific", input: "1e3,2E-1", want: Point{X: 1000, Y: 0.2}},
		{name: "missing y", input: "3", wantErr: true},
		{name: "too many parts", input: "1,2,3", wantErr: true},
		{name: "not a number", input: "a,2", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParsePoint(tt.input)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrMalformedPoint)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestParsePoints(t *testing.T) {
	pts, err := ParsePoints("0,0 10,0\t10,10;0,10")
	require.NoError(t, err)
	assert.Equal(t, []Point{{0, 0}, {10, 0}, {10, 10}, {0, 10}}, pts)

	pts, err = ParsePoints("   ")
	require.NoError(t, err)
	assert.Empty(t, pts)

	_, err = ParsePoints("0,0 1;2")
	require.ErrorIs(t, err, ErrMalformedPoint)
}

func TestPointString(t *testing.T) {
	assert.Equal(t, "1.5,-2", Point{X: 1.5, Y: -2}.String())

	p, err := ParsePoint(Point{X: 0.1, Y: 1e-7}.String())
	require.NoError(t, err)
	assert.Equal(t, Point{X: 0.1, Y: 1e-7}, p)
}

func TestFromPairs(t *testing.T) {
	pts, err := FromPairs([][]float64{{1, 2}, {3, 4}})
	require.NoError(t, err)
	assert.Equal(t, []Point{{1, 2}, {3, 4}}, pts)

	_, err = FromPairs([][]float64{{1, 2}, {3}})
	require.ErrorIs(t, err, ErrMalformedPoint)
	assert.Contains(t, err.Error(), "entry 1")
}

func TestDistance(t *testing.T) {
	assert.InDelta(t, 5.0, Distance(Point{0, 0}, Point{3, 4}), 1e-12)
	assert.InDelta(t, 0.0, Distance(Point{2, 2}, Point{2, 2}), 1e-12)
}

func TestCollinear(t *testing.T) {
	assert.True(t, Collinear(Point{0, 0}, Point{1, 0}, Point{2, 0}, 1e-9))
	assert.True(t, Collinear(Point{0, 0}, Point{1, 1}, Point{1000, 1000}, 1e-9))
	assert.True(t, Collinear(Point{5, 5}, Point{5, 5}, Point{5, 5}, 1e-9), "coincident points")
	assert.False(t, Collinear(Point{0, 0}, Point{1, 0}, Point{0, 1}, 1e-9))

	// Scale independence: same shape at pixel scale.
	assert.False(t, Collinear(Point{0, 0}, Point{4000, 0}, Point{0, 3000}, 1e-9))
	assert.True(t, Collinear(Point{0, 0}, Point{4000, 0}, Point{2000, 1e-6}, 1e-9))
}

func TestHasCollinearTriple(t *testing.T) {
	square := []Point{{0, 0}, {1, 0}, {1, 1}, {0, 1}}
	assert.False(t, HasCollinearTriple(square, 1e-9))

	degenerate := []Point{{0, 0}, {1, 0}, {2, 0}, {0, 1}}
	assert.True(t, HasCollinearTriple(degenerate, 1e-9))

	assert.False(t, HasCollinearTriple(square[:2], 1e-9), "fewer than three points")
}
