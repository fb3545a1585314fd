//nolint:lll
package config

// Config represents the complete configuration for the quadcut tool.
// It is loaded from configuration files, environment variables and
// command-line flags, in increasing order of precedence.
type Config struct {
	// Global settings
	LogLevel string `mapstructure:"log_level" yaml:"log_level" json:"log_level"`
	Verbose  bool   `mapstructure:"verbose" yaml:"verbose" json:"verbose"`

	// Linear solver behaviour
	Solver SolverConfig `mapstructure:"solver" yaml:"solver" json:"solver"`

	// Output configuration
	Output OutputConfig `mapstructure:"output" yaml:"output" json:"output"`

	// Batch processing configuration
	Batch BatchConfig `mapstructure:"batch" yaml:"batch" json:"batch"`

	// Metrics export
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

// SolverConfig contains pivoting settings for the linear solver.
type SolverConfig struct {
	// Policy is "strict" (reject singular systems) or "propagate" (return NaN/Inf).
	Policy    string  `mapstructure:"policy" yaml:"policy" json:"policy"`
	Tolerance float64 `mapstructure:"tolerance" yaml:"tolerance" json:"tolerance"`
}

// OutputConfig contains output formatting settings.
type OutputConfig struct {
	Format    string `mapstructure:"format" yaml:"format" json:"format"`
	Precision int    `mapstructure:"precision" yaml:"precision" json:"precision"`
	File      string `mapstructure:"file" yaml:"file" json:"file"`
}

// BatchConfig contains batch processing settings.
type BatchConfig struct {
	// Workers is the size of the worker pool; 0 means one per CPU.
	Workers         int  `mapstructure:"workers" yaml:"workers" json:"workers"`
	ContinueOnError bool `mapstructure:"continue_on_error" yaml:"continue_on_error" json:"continue_on_error"`
}

// MetricsConfig controls the Prometheus textfile export.
type MetricsConfig struct {
	// File is the textfile collector path; empty disables the export.
	File string `mapstructure:"file" yaml:"file" json:"file"`
}
