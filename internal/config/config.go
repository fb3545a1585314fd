package config

import (
	"fmt"
	"math"
	"runtime"
	"slices"
	"strings"

	"github.com/MeKo-Tech/quadcut/internal/linalg"
)

// MaxPrecision is the largest number of decimals that still changes a float64.
const MaxPrecision = 17

var (
	validLogLevels = []string{"debug", "info", "warn", "error"}
	validFormats   = []string{"text", "json", "yaml", "csv"}
	validPolicies  = []string{"strict", "propagate"}
)

// DefaultConfig returns a configuration with sensible defaults.
func DefaultConfig() Config {
	solver := linalg.DefaultSolverConfig()
	return Config{
		LogLevel: "info",
		Verbose:  false,
		Solver: SolverConfig{
			Policy:    solver.Policy.String(),
			Tolerance: solver.Tolerance,
		},
		Output: OutputConfig{
			Format:    "text",
			Precision: 6,
		},
		Batch: BatchConfig{
			Workers:         0,
			ContinueOnError: false,
		},
	}
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	if !slices.Contains(validLogLevels, c.LogLevel) {
		return fmt.Errorf("invalid log level: %s (must be one of: %s)", c.LogLevel, strings.Join(validLogLevels, ", "))
	}

	if !slices.Contains(validPolicies, strings.ToLower(c.Solver.Policy)) {
		return fmt.Errorf("invalid solver policy: %s (must be one of: %s)", c.Solver.Policy, strings.Join(validPolicies, ", "))
	}
	if c.Solver.Tolerance < 0 || math.IsNaN(c.Solver.Tolerance) || math.IsInf(c.Solver.Tolerance, 0) {
		return fmt.Errorf("invalid solver tolerance: %g (must be a finite value >= 0)", c.Solver.Tolerance)
	}

	if c.Output.Format != "" && !slices.Contains(validFormats, c.Output.Format) {
		return fmt.Errorf("invalid output format: %s (must be one of: %s)", c.Output.Format, strings.Join(validFormats, ", "))
	}
	if c.Output.Precision < 0 || c.Output.Precision > MaxPrecision {
		return fmt.Errorf("invalid output precision: %d (must be between 0 and %d)", c.Output.Precision, MaxPrecision)
	}

	if c.Batch.Workers < 0 {
		return fmt.Errorf("invalid batch workers: %d (must be >= 0)", c.Batch.Workers)
	}

	return nil
}

// ToSolverConfig converts the solver settings to linalg.SolverConfig.
func (c *Config) ToSolverConfig() (linalg.SolverConfig, error) {
	policy, err := linalg.ParsePolicy(c.Solver.Policy)
	if err != nil {
		return linalg.SolverConfig{}, err
	}
	return linalg.SolverConfig{Policy: policy, Tolerance: c.Solver.Tolerance}, nil
}

// EffectiveWorkers resolves Batch.Workers, mapping 0 to the CPU count.
func (c *Config) EffectiveWorkers() int {
	if c.Batch.Workers > 0 {
		return c.Batch.Workers
	}
	return runtime.NumCPU()
}
