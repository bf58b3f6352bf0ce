package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetPaths(t *testing.T) {
	root := t.TempDir()
	cfg := Default()
	cfg.Runs.WorkDir = filepath.Join(root, "runs")
	cfg.Logging.FilePath = filepath.Join(root, "logs", "app.log")

	paths, err := GetPaths(cfg)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "runs"), paths.WorkDir)
	assert.Equal(t, filepath.Join(root, "runs", "uploads"), paths.UploadsDir)
	assert.Equal(t, filepath.Join(root, "runs", "reports"), paths.ReportsDir)
	assert.Equal(t, filepath.Join(root, "logs"), paths.LogsDir)
	assert.Equal(t, filepath.Join(root, "runs", "uploads", "abc"), paths.RunUploadDir("abc"))
	assert.Equal(t, filepath.Join(root, "runs", "reports", "abc.xlsx"), paths.ReportPath("abc", ".xlsx"))
}

func TestEnsureDirectories(t *testing.T) {
	cfg := Default()
	cfg.Runs.WorkDir = filepath.Join(t.TempDir(), "nested", "runs")

	paths, err := GetPaths(cfg)
	require.NoError(t, err)
	require.NoError(t, paths.EnsureDirectories())

	for _, dir := range []string{paths.WorkDir, paths.UploadsDir, paths.ReportsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}

func TestFileExists(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "input.csv")
	require.NoError(t, os.WriteFile(file, []byte("a,b\n"), 0644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing.csv")))
}
