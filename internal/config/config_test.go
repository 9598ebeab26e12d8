package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_NoFileGivesDefaults(t *testing.T) {
	cfg, err := Load(t.TempDir())
	require.NoError(t, err)

	assert.NotEmpty(t, cfg.BaseDir)
	assert.EqualValues(t, defaultMaxFileSize, cfg.MaxFileSize)
	assert.Empty(t, cfg.Python.Command, "python extraction is off by default")
}

func TestLoad_ReadsYAML(t *testing.T) {
	dir := t.TempDir()
	doc := `
baseDir: /var/lib/codegraph
excludeDirs: [dist, build]
maxFileSize: 1048576
python:
  command: codegraph-pyworker
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codegraph.yml"), []byte(doc), 0o644))

	cfg, err := Load(dir)
	require.NoError(t, err)

	assert.Equal(t, "/var/lib/codegraph", cfg.BaseDir)
	assert.Equal(t, []string{"dist", "build"}, cfg.ExcludeDirs)
	assert.EqualValues(t, 1048576, cfg.MaxFileSize)
	assert.Equal(t, "codegraph-pyworker", cfg.Python.Command)
	assert.Equal(t, 10*time.Second, cfg.Python.Timeout, "worker timeout defaults when a command is set")
}

func TestLoad_MalformedYAMLFails(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "codegraph.yaml"), []byte("baseDir: [\n"), 0o644))

	_, err := Load(dir)
	require.Error(t, err)
}
