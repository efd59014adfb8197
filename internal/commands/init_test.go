package commands_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleared-dev/txengine/internal/config"
)

func TestInit_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	res, err := runTxengine(t, nil, "init", dir)
	require.NoError(t, err, res.stderr)

	path := filepath.Join(dir, "txengine.yaml")
	assert.Contains(t, res.stdout, "Wrote "+path)

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, config.Default(), cfg)
}

func TestInit_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "project")
	_, err := runTxengine(t, nil, "init", dir)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(dir, "txengine.yaml"))
	assert.NoError(t, err)
}

func TestInit_RefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "txengine.yaml")
	require.NoError(t, os.WriteFile(path, []byte("engine:\n  workers: 9\n"), 0o644))

	res, err := runTxengine(t, nil, "init", dir)
	require.Error(t, err)
	assert.Contains(t, res.stderr, "already exists")

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9, cfg.Engine.Workers, "existing file is untouched")

	_, err = runTxengine(t, nil, "init", dir, "--force")
	require.NoError(t, err)
	cfg, err = config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 1, cfg.Engine.Workers)
}
