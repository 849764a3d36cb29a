package indexer

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for FileDiscovery:
// - include patterns select files, "**/" patterns also match root-level files
// - ignore patterns exclude files and whole directories
// - results are relative, slash-separated and sorted
// - Includes agrees with DiscoverFiles for single paths
// - SkipsDir reports ignored directories
// - invalid patterns fail at construction

func TestFileDiscovery_DiscoverFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	for _, name := range []string{
		"main.ts",
		"src/b.ts",
		"src/a.ts",
		"src/a.spec.ts",
		"src/types.d.ts",
		"src/App.java",
		"src/readme.md",
		"node_modules/pkg/index.ts",
		"dist/out.ts",
	} {
		writeProjectFile(t, dir, name, "")
	}

	fd, err := NewFileDiscovery(dir, []string{"**/*.ts", "**/*.java"}, []string{"node_modules/**", "dist", "**/*.spec.ts", "**/*.d.ts"})
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.Equal(t, []string{"main.ts", "src/App.java", "src/a.ts", "src/b.ts"}, files)

	assert.True(t, fd.Includes("src/a.ts"))
	assert.True(t, fd.Includes(filepath.Join("src", "b.ts")))
	assert.False(t, fd.Includes("src/a.spec.ts"))
	assert.False(t, fd.Includes("node_modules/pkg/index.ts"))
	assert.False(t, fd.Includes("src/readme.md"))

	assert.True(t, fd.SkipsDir("node_modules"))
	assert.True(t, fd.SkipsDir("dist"))
	assert.False(t, fd.SkipsDir("src"))
}

func TestFileDiscovery_Empty(t *testing.T) {
	t.Parallel()

	fd, err := NewFileDiscovery(t.TempDir(), []string{"**/*.ts"}, nil)
	require.NoError(t, err)

	files, err := fd.DiscoverFiles()
	require.NoError(t, err)
	assert.NotNil(t, files)
	assert.Empty(t, files)
}

func TestFileDiscovery_InvalidPattern(t *testing.T) {
	t.Parallel()

	_, err := NewFileDiscovery(t.TempDir(), []string{"src/[a-"}, nil)
	require.Error(t, err)

	_, err = NewFileDiscovery(t.TempDir(), nil, []string{"src/[a-"})
	require.Error(t, err)
}
