package metrics

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/MeKo-Tech/quadcut/internal/linalg"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	assert.Equal(t, StatusOK, StatusFor(nil))
	assert.Equal(t, StatusSingular, StatusFor(fmt.Errorf("solve: %w", linalg.ErrSingularSystem)))
	assert.Equal(t, StatusInvalidInput, StatusFor(fmt.Errorf("build: %w", linalg.ErrInvalidInput)))
	assert.Equal(t, StatusError, StatusFor(errors.New("boom")))
}

func TestObserveHomography(t *testing.T) {
	okBefore := testutil.ToFloat64(homographyComputationsTotal.WithLabelValues(StatusOK))
	singularBefore := testutil.ToFloat64(homographyComputationsTotal.WithLabelValues(StatusSingular))

	ObserveHomography(time.Microsecond, nil)
	ObserveHomography(time.Microsecond, nil)
	ObserveHomography(time.Microsecond, linalg.ErrSingularSystem)

	assert.InDelta(t, okBefore+2, testutil.ToFloat64(homographyComputationsTotal.WithLabelValues(StatusOK)), 0)
	assert.InDelta(t, singularBefore+1, testutil.ToFloat64(homographyComputationsTotal.WithLabelValues(StatusSingular)), 0)
}

func TestObserveBatchJob(t *testing.T) {
	before := testutil.ToFloat64(batchJobsTotal.WithLabelValues(StatusCanceled))
	ObserveBatchJob(StatusCanceled)
	assert.InDelta(t, before+1, testutil.ToFloat64(batchJobsTotal.WithLabelValues(StatusCanceled)), 0)
}

func TestWriteTextfile(t *testing.T) {
	ObserveHomography(time.Millisecond, nil)
	ObserveBatch(time.Second)

	path := filepath.Join(t.TempDir(), "quadcut.prom")
	require.NoError(t, WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	text := string(data)
	assert.Contains(t, text, "quadcut_homography_computations_total")
	assert.Contains(t, text, "quadcut_solver_duration_seconds_bucket")
	assert.Contains(t, text, "quadcut_batch_duration_seconds_count")
}

func TestWriteTextfileBadPath(t *testing.T) {
	err := WriteTextfile(filepath.Join(t.TempDir(), "missing-dir", "quadcut.prom"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "write metrics textfile")
}
