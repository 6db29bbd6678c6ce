package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 30, cfg.ChunkSize)
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 15*time.Minute, cfg.SaveInterval)
	assert.Equal(t, 5*time.Minute, cfg.SleepThreshold)
	assert.Equal(t, time.Hour, cfg.DepartureHorizon)
	assert.Equal(t, 3, cfg.BackupHour)
	assert.Equal(t, "departures", cfg.Tables.Departures)
	assert.Contains(t, cfg.FeedURLTemplate, "%s")
}

func TestLoadEnvOverrides(t *testing.T) {
	t.Setenv("SQLITE_DATABASE", "/tmp/other.db")
	t.Setenv("REFRESH_INTERVAL", "10")
	t.Setenv("FEED_CHUNK_SIZE", "5")
	t.Setenv("BACKUP_HOUR", "5")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.DatabasePath)
	assert.Equal(t, 10*time.Second, cfg.RefreshInterval)
	assert.Equal(t, 5, cfg.ChunkSize)
	assert.Equal(t, 5, cfg.BackupHour)
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	data := []byte(`
database_path: /data/custom.db
chunk_size: 10
save_interval_seconds: 600
backup_hour: 0
tables:
  departures: dep
  stations: sta
  lines: lin
  transitions: tra
`)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	t.Setenv("TRACKER_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/data/custom.db", cfg.DatabasePath)
	assert.Equal(t, 10, cfg.ChunkSize)
	assert.Equal(t, 10*time.Minute, cfg.SaveInterval)
	assert.Equal(t, 0, cfg.BackupHour)
	assert.Equal(t, "dep", cfg.Tables.Departures)
	// Untouched keys keep their defaults.
	assert.Equal(t, 30*time.Second, cfg.RefreshInterval)
}

func TestLoadEnvBeatsFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracker.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chunk_size: 10\n"), 0o644))
	t.Setenv("TRACKER_CONFIG", path)
	t.Setenv("FEED_CHUNK_SIZE", "7")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.ChunkSize)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Setenv("FEED_CHUNK_SIZE", "0")
	_, err := Load()
	assert.Error(t, err)

	t.Setenv("FEED_CHUNK_SIZE", "30")
	t.Setenv("BACKUP_HOUR", "99")
	_, err = Load()
	assert.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	t.Setenv("TRACKER_CONFIG", filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := Load()
	assert.Error(t, err)
}
