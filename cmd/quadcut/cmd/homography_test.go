package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/MeKo-Tech/quadcut/internal/linalg"
	"github.com/MeKo-Tech/quadcut/internal/rectify"
	"github.com/MeKo-Tech/quadcut/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

const (
	unitSquare    = "0,0 1,0 1,1 0,1"
	doubledSquare = "0,0 2,0 2,2 0,2"
	degenerate    = "0,0 1,0 2,0 0,1"
)

func TestHomographyScale(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand(t, "homography", "--src", unitSquare, "--dst", doubledSquare, "--precision", "3")
	require.NoError(t, err)

	assert.Contains(t, out, "H =\n  2.000  0.000  0.000\n  0.000  2.000  0.000\n  0.000  0.000  1.000\n")
	assert.Contains(t, out, "condition number:")
}

func TestHomographyJSON(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand(t, "homography", "--src", unitSquare, "--dst", doubledSquare,
		"--format", "json", "--inverse", "--apply", "0.5,0.5")
	require.NoError(t, err)

	var report struct {
		Matrix    [3][3]float64 `json:"matrix"`
		Condition float64       `json:"condition"`
		Inverse   [3][3]float64 `json:"inverse"`
		Mapped    []struct {
			From struct{ X, Y float64 } `json:"from"`
			To   struct{ X, Y float64 } `json:"to"`
		} `json:"mapped"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	assert.Equal(t, [3][3]float64{{2, 0, 0}, {0, 2, 0}, {0, 0, 1}}, report.Matrix)
	assert.Equal(t, [3][3]float64{{0.5, 0, 0}, {0, 0.5, 0}, {0, 0, 1}}, report.Inverse)
	assert.Greater(t, report.Condition, 1.0)
	require.Len(t, report.Mapped, 1)
	assert.Equal(t, 1.0, report.Mapped[0].To.X)
	assert.Equal(t, 1.0, report.Mapped[0].To.Y)
}

func TestHomographyYAML(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand(t, "homography", "--src", unitSquare, "--dst", unitSquare, "--format", "yaml")
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "matrix")
	assert.NotContains(t, doc, "inverse")
}

func TestHomographyCSV(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand(t, "homography", "--src", unitSquare, "--dst", doubledSquare, "--format", "csv", "--precision", "1")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 2)
	assert.True(t, strings.HasPrefix(lines[1], "homography,ok,2.0,0.0,0.0,0.0,2.0,0.0,0.0,0.0,1.0,,"))
}

func TestHomographyRectangle(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand(t, "homography", "--src", unitSquare, "--width", "10", "--height", "5", "--apply", "0.5,0.5 1,1")
	require.NoError(t, err)

	assert.Contains(t, out, "0.500000,0.500000 -> 5.000000,2.500000\n")
	assert.Contains(t, out, "1.000000,1.000000 -> 10.000000,5.000000\n")
}

func TestHomographyInverseText(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand(t, "homography", "--src", unitSquare, "--dst", doubledSquare, "--inverse", "--precision", "2")
	require.NoError(t, err)
	assert.Contains(t, out, "H^-1 =\n  0.50  0.00  0.00\n")
}

func TestHomographyDegenerateStrict(t *testing.T) {
	isolate(t)
	_, stderr, err := executeCommand(t, "homography", "--src", degenerate, "--dst", degenerate)
	require.ErrorIs(t, err, linalg.ErrSingularSystem)
	assert.Contains(t, err.Error(), "pivot 7")
	assert.Contains(t, stderr, "collinear")
}

func TestHomographyDegeneratePropagate(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand(t, "--policy", "propagate", "homography", "--src", degenerate, "--dst", degenerate)
	require.NoError(t, err)
	assert.Contains(t, out, "NaN")
	assert.Contains(t, out, "1.000000\n")
}

func TestHomographyErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		want string
	}{
		{"missing src", []string{"homography", "--dst", unitSquare}, `required flag(s) "src" not set`},
		{"missing destination", []string{"homography", "--src", unitSquare}, "either --dst"},
		{"malformed src", []string{"homography", "--src", "0,0 1", "--dst", unitSquare}, "invalid --src"},
		{"three points", []string{"homography", "--src", "0,0 1,0 1,1", "--dst", "0,0 1,0 1,1"}, "need 4"},
		{"both destinations", []string{"homography", "--src", unitSquare, "--dst", unitSquare, "--width", "2"}, "none of the others can be"},
		{"zero width", []string{"homography", "--src", unitSquare, "--width", "0", "--height", "2"}, "must both be positive"},
		{"unexpected argument", []string{"homography", "extra", "--src", unitSquare, "--dst", unitSquare}, "unknown command"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			_, _, err := executeCommand(t, tt.args...)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestHomographyOutputFileAndMetrics(t *testing.T) {
	dir := isolate(t)
	metricsFile := filepath.Join(dir, "quadcut.prom")
	t.Setenv("QUADCUT_OUTPUT_FILE", filepath.Join(dir, "out", "h.txt"))

	out, _, err := executeCommand(t, "--metrics-file", metricsFile, "homography", "--src", unitSquare, "--dst", doubledSquare)
	require.NoError(t, err)
	assert.Empty(t, out)

	written, err := os.ReadFile(filepath.Join(dir, "out", "h.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(written), "H =")

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `quadcut_homography_computations_total{status="ok"}`)
}

func TestHomographyMetricsWrittenOnFailure(t *testing.T) {
	dir := isolate(t)
	metricsFile := filepath.Join(dir, "quadcut.prom")

	_, _, err := executeCommand(t, "--metrics-file", metricsFile, "homography", "--src", degenerate, "--dst", degenerate)
	require.Error(t, err)

	prom, err := os.ReadFile(metricsFile)
	require.NoError(t, err)
	assert.Contains(t, string(prom), `quadcut_homography_computations_total{status="singular"}`)
}

func TestHomographyFit(t *testing.T) {
	isolate(t)
	out, _, err := executeCommand(t, "homography", "--src", "50,50 10,20 10,50 50,20", "--fit", "--precision", "1", "--apply", "50,50")
	require.NoError(t, err)

	assert.Contains(t, out, "target: 40.0x30.0\n")
	assert.Contains(t, out, "50.0,50.0 -> 40.0,30.0\n")
}

func TestHomographyNonConvexWarning(t *testing.T) {
	isolate(t)
	_, stderr, err := executeCommand(t, "homography", "--src", "0,0 1,1 1,0 0,1", "--dst", unitSquare)
	// A bow tie is solvable, it just folds the image.
	require.NoError(t, err)
	assert.Contains(t, stderr, "not convex in the given corner order")
}

func TestHomographyConcaveWarning(t *testing.T) {
	isolate(t)
	_, stderr, err := executeCommand(t, "homography", "--src", "0,0 4,0 1,1 0,4", "--dst", unitSquare)
	require.NoError(t, err)
	assert.Contains(t, stderr, "source quad is concave")
}

func TestHomographyFitMatchesFittedRect(t *testing.T) {
	isolate(t)
	src := "400,600 10,12 5,590 410,20"
	out, _, err := executeCommand(t, "--format", "json", "--precision", "17", "homography", "--src", src, "--fit")
	require.NoError(t, err)

	var report struct {
		Matrix [3][3]float64 `json:"matrix"`
		Width  float64       `json:"width"`
		Height float64       `json:"height"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))

	pts, err := utils.ParsePoints(src)
	require.NoError(t, err)
	want, w, h, err := rectify.QuadToFittedRect(pts, linalg.DefaultSolverConfig())
	require.NoError(t, err)

	assert.InDelta(t, w, report.Width, 1e-9)
	assert.InDelta(t, h, report.Height, 1e-9)
	for r, row := range want.Matrix() {
		for c, v := range row {
			assert.InDelta(t, v, report.Matrix[r][c], 1e-12, "h[%d][%d]", r, c)
		}
	}
}

func TestHomographyInverseOfDegenerate(t *testing.T) {
	isolate(t)
	_, _, err := executeCommand(t, "--policy", "propagate", "homography", "--src", degenerate, "--dst", degenerate, "--inverse")
	require.ErrorIs(t, err, linalg.ErrSingularSystem)
	assert.Contains(t, err.Error(), "invert homography")
}
