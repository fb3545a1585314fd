package batch

import (
	"fmt"
	"os"
	"path/filepath"
)

// DefaultJobPatterns are the file patterns picked up when a directory is given.
var DefaultJobPatterns = []string{"*.yaml", "*.yml", "*.json"}

// DiscoverJobFiles expands args into job file paths. Files are taken as
// given; directories are scanned for DefaultJobPatterns, descending into
// subdirectories only when recursive is set.
func DiscoverJobFiles(args []string, recursive bool) ([]string, error) {
	var jobFiles []string

	for _, arg := range args {
		info, err := os.Stat(arg)
		if err != nil {
			return nil, fmt.Errorf("cannot access %s: %w", arg, err)
		}

		if info.IsDir() {
			files, err := discoverInDirectory(arg, recursive, DefaultJobPatterns)
			if err != nil {
				return nil, err
			}
			jobFiles = append(jobFiles, files...)
		} else {
			jobFiles = append(jobFiles, arg)
		}
	}

	return jobFiles, nil
}

// discoverInDirectory walks dir collecting files whose base name matches one of patterns.
func discoverInDirectory(dir string, recursive bool, patterns []string) ([]string, error) {
	var files []string

	walkFn := func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if info.IsDir() {
			if !recursive && path != dir {
				return filepath.SkipDir
			}
			return nil
		}

		if matchesAnyPattern(path, patterns) {
			files = append(files, path)
		}

		return nil
	}

	return files, filepath.Walk(dir, walkFn)
}

// matchesAnyPattern checks if a file path matches any of the given patterns.
func matchesAnyPattern(path string, patterns []string) bool {
	base := filepath.Base(path)
	for _, pattern := range patterns {
		if matched, _ := filepath.Match(pattern, base); matched {
			return true
		}
	}
	return false
}
