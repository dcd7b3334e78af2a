package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	t.Parallel()

	cfg := Default()
	assert.Equal(t, DefaultListingsDir, cfg.ListingsDir)
	assert.Equal(t, DefaultCompiledPath, cfg.CompiledPath)
	assert.Equal(t, DefaultRankingConfigPath, cfg.RankingConfigPath)
	assert.Equal(t, DefaultStatusPath, cfg.StatusPath)
	assert.Equal(t, DefaultServerAddress, cfg.Server.Address)
	assert.Equal(t, DefaultEnrichConcurrency, cfg.Enrich.Concurrency)
	assert.Equal(t, DefaultRefreshOlderThan, cfg.Enrich.RefreshOlderThan)
	require.NoError(t, cfg.Validate())
}

func TestLoadWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadFromFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`listingsDir: submissions
policy:
  maxDocumentBytes: 25000
  deniedImageHosts:
    - mirror.example.net
enrich:
  refreshOlderThan: 6h
  concurrency: 8
server:
  address: ":9090"
`), 0o600))

	cfg, err := Load(WithConfigPath(path))
	require.NoError(t, err)

	assert.Equal(t, "submissions", cfg.ListingsDir)
	assert.Equal(t, 25000, cfg.Policy.MaxDocumentBytes)
	assert.Equal(t, []string{"mirror.example.net"}, cfg.Policy.DeniedImageHosts)
	assert.Equal(t, 6*time.Hour, cfg.Enrich.RefreshOlderThan)
	assert.Equal(t, 8, cfg.Enrich.Concurrency)
	assert.Equal(t, ":9090", cfg.Server.Address)

	// Untouched fields keep their defaults.
	assert.Equal(t, DefaultCompiledPath, cfg.CompiledPath)
	assert.Equal(t, DefaultStatusPath, cfg.StatusPath)
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Load(WithConfigPath(filepath.Join(t.TempDir(), "absent.yaml")))
	assert.Error(t, err)
}

func TestLoadMalformedFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("listingsDir: [\n"), 0o600))

	_, err := Load(WithConfigPath(path))
	assert.Error(t, err)
}

func TestLoadInvalidRefreshWindow(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("enrich:\n  refreshOlderThan: soon\n"), 0o600))

	_, err := Load(WithConfigPath(path))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "refreshOlderThan")
}

func TestWithConfigPathEmpty(t *testing.T) {
	t.Parallel()

	_, err := Load(WithConfigPath(""))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Enrich.Concurrency = 0
	assert.Error(t, cfg.Validate())

	cfg = Default()
	cfg.Enrich.RefreshOlderThan = -time.Hour
	assert.Error(t, cfg.Validate())
}
