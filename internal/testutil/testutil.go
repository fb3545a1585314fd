// Package testutil provides shared helpers and fixtures for quadcut tests.
package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// ModulePath is the module path go.mod must declare at the project root.
const ModulePath = "github.com/MeKo-Tech/quadcut"

// GetProjectRoot walks up from this source file to the directory holding go.mod.
func GetProjectRoot() (string, error) {
	_, file, _, ok := runtime.Caller(0)
	if !ok {
		return "", errors.New("testutil: caller information unavailable")
	}
	for dir := filepath.Dir(file); ; {
		if FileExists(filepath.Join(dir, "go.mod")) {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("testutil: no go.mod above %s", filepath.Dir(file))
		}
		dir = parent
	}
}

// ValidateProjectRoot checks that root is the quadcut module: go.mod declares
// ModulePath and the cmd/quadcut and BDD feature trees are present.
func ValidateProjectRoot(root string) error {
	data, err := os.ReadFile(filepath.Join(root, "go.mod")) //nolint:gosec // G304: root is a test directory
	if err != nil {
		return fmt.Errorf("read go.mod: %w", err)
	}
	line, _, _ := strings.Cut(string(data), "\n")
	if got := strings.TrimSpace(strings.TrimPrefix(line, "module")); got != ModulePath {
		return fmt.Errorf("go.mod declares module %q, want %q", got, ModulePath)
	}

	for _, dir := range []string{filepath.Join("cmd", "quadcut"), featuresRel} {
		if !DirExists(filepath.Join(root, dir)) {
			return fmt.Errorf("directory %s not found under %s", dir, root)
		}
	}
	return nil
}

// GetProjectRootValidated returns GetProjectRoot after ValidateProjectRoot.
func GetProjectRootValidated() (string, error) {
	root, err := GetProjectRoot()
	if err != nil {
		return "", err
	}
	if err := ValidateProjectRoot(root); err != nil {
		return "", fmt.Errorf("invalid project root %s: %w", root, err)
	}
	return root, nil
}

var featuresRel = filepath.Join("test", "integration", "cli", "features")

// FeaturesDir returns the directory of the godog .feature files, independent
// of the working directory the tests run in.
func FeaturesDir() (string, error) {
	root, err := GetProjectRootValidated()
	if err != nil {
		return "", err
	}
	return filepath.Join(root, featuresRel), nil
}

// WriteFile writes content to dir/name and returns the full path.
func WriteFile(t *testing.T, dir, name, content string) string {
	t.Helper()

	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o750))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}

// DirExists checks if a directory exists.
func DirExists(path string) bool {
	info, err := os.Stat(path)
	return !os.IsNotExist(err) && info.IsDir()
}
