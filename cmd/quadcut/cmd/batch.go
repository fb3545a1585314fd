package cmd

import (
	"fmt"
	"log/slog"

	"github.com/MeKo-Tech/quadcut/internal/batch"
	"github.com/MeKo-Tech/quadcut/internal/config"
	"github.com/spf13/cobra"
)

// newBatchCommand builds the batch command for parallel homography jobs.
func newBatchCommand(root *rootOptions) *cobra.Command {
	var recursive, progress bool

	cmd := &cobra.Command{
		Use:   "batch JOBFILE...",
		Short: "Compute homographies for every job in one or more job files",
		Long: `Compute homographies for the jobs listed in YAML or JSON job files, using a
pool of parallel workers. Directories are scanned for *.yaml, *.yml and *.json.

Each job names its source quad and either explicit destination points or a
target rectangle:

  jobs:
    - name: receipt
      source: [[10, 12], [410, 20], [400, 600], [5, 590]]
      width: 400
      height: 580

Results are printed in job-file order regardless of the worker count.

Examples:
  quadcut batch jobs.yaml
  quadcut batch jobs/ --recursive --workers 8 --progress
  quadcut batch a.yaml b.yaml --format csv --output results.csv --continue-on-error`,
		Args: cobra.MinimumNArgs(1),
	}
	cmd.RunE = root.withMetrics(func(cmd *cobra.Command, args []string) error {
		return runBatch(cmd, root.cfg, args, recursive, progress)
	})

	f := cmd.Flags()
	f.Int("workers", 0, "number of parallel workers (0 = one per CPU)")
	f.Bool("continue-on-error", false, "keep processing after a job fails")
	f.StringP("output", "o", "", "write results to this file instead of stdout")
	f.BoolVarP(&recursive, "recursive", "r", false, "scan directories recursively")
	f.BoolVar(&progress, "progress", false, "draw a progress bar on stderr")

	v := root.loader.GetViper()
	bindFlag(v, "batch.workers", f.Lookup("workers"))
	bindFlag(v, "batch.continue_on_error", f.Lookup("continue-on-error"))
	bindFlag(v, "output.file", f.Lookup("output"))

	return cmd
}

func runBatch(cmd *cobra.Command, cfg *config.Config, args []string, recursive, progress bool) error {
	files, err := batch.DiscoverJobFiles(args, recursive)
	if err != nil {
		return err
	}
	if len(files) == 0 {
		return fmt.Errorf("no job files found in %v", args)
	}

	jobs, err := batch.LoadJobFiles(files)
	if err != nil {
		return err
	}

	solver, err := cfg.ToSolverConfig()
	if err != nil {
		return err
	}
	batchConfig := batch.Config{
		Workers:         cfg.EffectiveWorkers(),
		ContinueOnError: cfg.Batch.ContinueOnError,
		Solver:          solver,
		Progress:        batch.NewLogProgress(nil, slog.LevelDebug),
	}
	if progress {
		batchConfig.Progress = batch.NewConsoleProgress(cmd.ErrOrStderr())
	}
	slog.Debug("starting batch", "files", len(files), "jobs", len(jobs), "workers", batchConfig.Workers)

	results, runErr := batch.Run(cmd.Context(), jobs, batchConfig)

	// Partial results are still written when the run stops early.
	if len(results) > 0 {
		out, err := batch.Format(results, cfg.Output.Format, cfg.Output.Precision)
		if err != nil {
			return err
		}
		if err := writeOutput(cmd, cfg, out); err != nil {
			return err
		}
	}
	if runErr != nil {
		return runErr
	}

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}
	if failed > 0 {
		slog.Warn("some jobs failed", "failed", failed, "jobs", len(results))
	}
	return nil
}
