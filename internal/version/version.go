package version

import (
	"fmt"
	"runtime"
)

// Build-time variables set by ldflags
var (
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
)

// Info returns version information
func Info() (string, string, string) {
	return Version, GitCommit, BuildDate
}

// String returns a single-line description of the build.
func String() string {
	return fmt.Sprintf("quadcut %s (commit: %s, built: %s, %s)", Version, GitCommit, BuildDate, runtime.Version())
}
