package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_MissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, "data/saathi.db", cfg.Database.SQLitePath)
	assert.Equal(t, 8, cfg.Sync.MaxAttempts)
	assert.Equal(t, "national", cfg.Sim.Region)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
database:
  sqlite_path: /tmp/test.db
sync:
  server_url: https://sync.example.net
  max_attempts: 3
sim:
  region: punjab
  seed: 99
log:
  level: debug
  format: json
`), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test.db", cfg.Database.SQLitePath)
	assert.Equal(t, "https://sync.example.net", cfg.Sync.ServerURL)
	assert.Equal(t, 3, cfg.Sync.MaxAttempts)
	assert.Equal(t, "punjab", cfg.Sim.Region)
	assert.Equal(t, int64(99), cfg.Sim.Seed)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sim:\n  region: punjab\n"), 0o644))

	t.Setenv("SAATHI_REGION", "vidarbha")
	t.Setenv("SAATHI_SEED", "1234")
	t.Setenv("SAATHI_SYNC_DISABLED", "true")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "vidarbha", cfg.Sim.Region)
	assert.Equal(t, int64(1234), cfg.Sim.Seed)
	assert.True(t, cfg.Sync.Disabled)
}

func TestLoad_MalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("sim: [not a map"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestValidate_Rejections(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	cfg.Log.Level = "verbose"
	assert.Error(t, cfg.Validate())

	cfg.Log.Level = "info"
	cfg.Log.Format = "xml"
	assert.Error(t, cfg.Validate())

	cfg.Log.Format = "text"
	cfg.Sync.MaxAttempts = 0
	assert.Error(t, cfg.Validate())
}
