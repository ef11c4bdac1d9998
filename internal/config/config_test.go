package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDoesNotInjectWeakAuthDefaults(t *testing.T) {
	t.Setenv("AUTH_SECRET", "")
	t.Setenv("ACCESS_PIN", "")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Empty(t, cfg.AuthSecret)
	assert.Empty(t, cfg.AccessPIN)
}

func TestLoadPicksBackendFromURLs(t *testing.T) {
	t.Setenv("SNAPSHOT_BACKEND", "")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	require.NoError(t, err)
	assert.Equal(t, "mongo", cfg.SnapshotBackend)

	t.Setenv("SNAPSHOT_BACKEND", "sqlite")
	_, err = Load(filepath.Join(t.TempDir(), "missing.env"))
	require.Error(t, err)
}

func TestLoadReadsEnvFile(t *testing.T) {
	t.Setenv("ARCHIVE_CRON", "")
	t.Setenv("ALLOWED_ORIGINS", "")
	t.Setenv("INSIGHT_TIMEOUT_SECONDS", "")
	t.Setenv("SNAPSHOT_BACKEND", "memory")
	os.Unsetenv("ARCHIVE_CRON")
	os.Unsetenv("ALLOWED_ORIGINS")
	os.Unsetenv("INSIGHT_TIMEOUT_SECONDS")

	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("ARCHIVE_CRON=0 22 * * *\nALLOWED_ORIGINS=https://a.example, https://b.example\nINSIGHT_TIMEOUT_SECONDS=-3\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "0 22 * * *", cfg.ArchiveCron)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, 20*time.Second, cfg.InsightTimeout())
	assert.Equal(t, ":8080", Config{Port: "8080"}.Address())
}
