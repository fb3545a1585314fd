package batch

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/MeKo-Tech/quadcut/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDiscoverJobFiles(t *testing.T) {
	dir := t.TempDir()
	testutil.WriteFile(t, dir, "a.yaml", "")
	testutil.WriteFile(t, dir, "b.json", "")
	testutil.WriteFile(t, dir, "notes.txt", "")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	testutil.WriteFile(t, filepath.Join(dir, "sub"), "c.yml", "")

	t.Run("non-recursive", func(t *testing.T) {
		files, err := DiscoverJobFiles([]string{dir}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{filepath.Join(dir, "a.yaml"), filepath.Join(dir, "b.json")}, files)
	})

	t.Run("recursive", func(t *testing.T) {
		files, err := DiscoverJobFiles([]string{dir}, true)
		require.NoError(t, err)
		assert.Len(t, files, 3)
		assert.Contains(t, files, filepath.Join(dir, "sub", "c.yml"))
	})

	t.Run("explicit file kept regardless of extension", func(t *testing.T) {
		notes := filepath.Join(dir, "notes.txt")
		files, err := DiscoverJobFiles([]string{notes}, false)
		require.NoError(t, err)
		assert.Equal(t, []string{notes}, files)
	})

	t.Run("missing path", func(t *testing.T) {
		_, err := DiscoverJobFiles([]string{filepath.Join(dir, "nope")}, false)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "cannot access")
	})
}

func TestMatchesAnyPattern(t *testing.T) {
	assert.True(t, matchesAnyPattern("/x/y/jobs.yaml", DefaultJobPatterns))
	assert.True(t, matchesAnyPattern("jobs.json", DefaultJobPatterns))
	assert.False(t, matchesAnyPattern("jobs.yaml.bak", DefaultJobPatterns))
}
