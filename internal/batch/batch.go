// Package batch computes homographies for many jobs concurrently and formats
// the results.
package batch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/MeKo-Tech/quadcut/internal/linalg"
	"github.com/MeKo-Tech/quadcut/internal/metrics"
	"github.com/MeKo-Tech/quadcut/internal/rectify"
)

// Config holds batch processing settings.
type Config struct {
	Workers         int // Number of parallel workers (0 = runtime.NumCPU())
	ContinueOnError bool
	Solver          linalg.SolverConfig
	Progress        Progress // nil = NoOpProgress
}

// DefaultConfig returns one worker per CPU, stop on first error and the
// strict solver.
func DefaultConfig() Config {
	return Config{
		Workers: runtime.NumCPU(),
		Solver:  linalg.DefaultSolverConfig(),
	}
}

// Result is the outcome of one job.
type Result struct {
	Name       string
	Homography rectify.Homography
	Err        error
	Duration   time.Duration
}

// Status returns the metrics status label for the result.
func (r Result) Status() string {
	if errors.Is(r.Err, context.Canceled) || errors.Is(r.Err, context.DeadlineExceeded) {
		return metrics.StatusCanceled
	}
	return metrics.StatusFor(r.Err)
}

// Run computes every job on a bounded worker pool. Results are returned in
// job order. Unless ContinueOnError is set the first failure stops dispatch
// and Run returns that failure; undispatched jobs carry the context error.
func Run(ctx context.Context, jobs []Job, config Config) ([]Result, error) {
	if len(jobs) == 0 {
		return nil, errors.New("no jobs provided")
	}
	if config.Workers <= 0 {
		config.Workers = runtime.NumCPU()
	}

	start := time.Now()
	defer func() { metrics.ObserveBatch(time.Since(start)) }()

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	progress := config.Progress
	if progress == nil {
		progress = NoOpProgress{}
	}
	var (
		progressMu sync.Mutex
		done       int
	)
	progress.OnStart(len(jobs))

	results := make([]Result, len(jobs))
	dispatched := make([]bool, len(jobs))

	// Unbuffered so cancellation stops dispatch at the next job boundary.
	work := make(chan int)

	var wg sync.WaitGroup
	for range min(config.Workers, len(jobs)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range work {
				results[idx] = runJob(jobs[idx], config.Solver)
				if results[idx].Err != nil && !config.ContinueOnError {
					cancel()
				}

				progressMu.Lock()
				done++
				progress.OnJobDone(done, len(jobs), results[idx])
				progressMu.Unlock()
			}
		}()
	}

	func() {
		defer close(work)
		for i := range jobs {
			// Checked first so that a cancel that happened while the
			// previous send was in flight wins over the next send.
			if runCtx.Err() != nil {
				return
			}
			select {
			case work <- i:
				dispatched[i] = true
			case <-runCtx.Done():
				return
			}
		}
	}()
	wg.Wait()
	progress.OnComplete(done, len(jobs))

	var firstErr error
	for i := range results {
		if !dispatched[i] {
			results[i] = Result{Name: jobs[i].Name, Err: fmt.Errorf("not run: %w", context.Cause(runCtx))}
		}
		metrics.ObserveBatchJob(results[i].Status())
		if results[i].Err != nil && firstErr == nil && dispatched[i] {
			firstErr = fmt.Errorf("job %s: %w", results[i].Name, results[i].Err)
		}
	}

	if err := ctx.Err(); err != nil {
		return results, err
	}
	if !config.ContinueOnError && firstErr != nil {
		return results, firstErr
	}

	slog.Debug("batch finished", "jobs", len(jobs), "workers", config.Workers, "duration", time.Since(start))
	return results, nil
}

// runJob computes one homography and records it in the metrics.
func runJob(job Job, solver linalg.SolverConfig) Result {
	start := time.Now()

	var (
		h   rectify.Homography
		err error
	)
	if job.Destination != nil {
		h, err = rectify.ComputeHomographyWithConfig(job.Source, job.Destination, solver)
	} else {
		h, err = rectify.QuadToRectWithConfig(job.Source, job.Width, job.Height, solver)
	}

	d := time.Since(start)
	metrics.ObserveHomography(d, err)
	if err != nil {
		slog.Debug("job failed", "job", job.Name, "error", err)
	}

	return Result{Name: job.Name, Homography: h, Err: err, Duration: d}
}
