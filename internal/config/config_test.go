package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestLoad_Defaults tests that Load falls back to sensible defaults
func TestLoad_Defaults(t *testing.T) {
	t.Setenv("LEDGERD_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8001, cfg.Port)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 30*time.Second, cfg.SyncMinAge)
	assert.Equal(t, 5*time.Minute, cfg.SyncInterval)
	assert.True(t, cfg.SimulateRemote)
	assert.InDelta(t, 0.3, cfg.SimulateChance, 0.0001)
	require.NotNil(t, cfg.Backup)
	assert.False(t, cfg.Backup.Enabled)
}

// TestLoad_Overrides tests environment variable overrides
func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGERD_DATA_DIR", t.TempDir())
	t.Setenv("LEDGERD_PORT", "9000")
	t.Setenv("SYNC_MIN_AGE_SECONDS", "120")
	t.Setenv("SYNC_SIMULATE_REMOTE", "false")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Port)
	assert.Equal(t, 2*time.Minute, cfg.SyncMinAge)
	assert.False(t, cfg.SimulateRemote)
}

// TestLoad_DataDirResolvedAbsolute tests that relative data dirs resolve to
// absolute paths
func TestLoad_DataDirResolvedAbsolute(t *testing.T) {
	t.Setenv("LEDGERD_DATA_DIR", t.TempDir())

	cfg, err := Load()
	require.NoError(t, err)

	assert.True(t, filepath.IsAbs(cfg.DataDir))
}

// TestLoad_InvalidSimulateChance tests validation of the change probability
func TestLoad_InvalidSimulateChance(t *testing.T) {
	t.Setenv("LEDGERD_DATA_DIR", t.TempDir())
	t.Setenv("SYNC_SIMULATE_CHANCE", "1.5")

	_, err := Load()
	assert.Error(t, err)
}

// TestBackupConfig_EnabledRequiresCredentials tests that backups stay
// disabled unless bucket and both credentials are present
func TestBackupConfig_EnabledRequiresCredentials(t *testing.T) {
	t.Setenv("LEDGERD_DATA_DIR", t.TempDir())
	t.Setenv("BACKUP_S3_BUCKET", "ledgerd-backups")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.Backup.Enabled, "bucket alone must not enable backups")

	t.Setenv("BACKUP_S3_ACCESS_KEY_ID", "key")
	t.Setenv("BACKUP_S3_SECRET_ACCESS_KEY", "secret")

	cfg, err = Load()
	require.NoError(t, err)
	assert.True(t, cfg.Backup.Enabled)
}
