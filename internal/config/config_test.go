package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(map[string]string{})
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, StorageMemory, cfg.Storage)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.Empty(t, cfg.GMPin)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelInfo, level)
}

func TestParseOverrides(t *testing.T) {
	cfg, err := Parse(map[string]string{
		"CHARSHEET_ADDR":        "127.0.0.1:9000",
		"CHARSHEET_STORAGE":     "sqlite",
		"CHARSHEET_SQLITE_PATH": "/tmp/sheets.db",
		"CHARSHEET_GM_PIN":      "4321",
		"CHARSHEET_SESSION_TTL": "90m",
		"CHARSHEET_LOG_LEVEL":   "debug",
		"CHARSHEET_CAMPAIGN":    "hadleys-hope",
	})
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:9000", cfg.Addr)
	assert.Equal(t, StorageSQLite, cfg.Storage)
	assert.Equal(t, "/tmp/sheets.db", cfg.SQLitePath)
	assert.Equal(t, "4321", cfg.GMPin)
	assert.Equal(t, 90*time.Minute, cfg.SessionTTL)
	assert.Equal(t, "hadleys-hope", cfg.Campaign)

	level, err := cfg.Level()
	require.NoError(t, err)
	assert.Equal(t, slog.LevelDebug, level)
}

func TestParseRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
	}{
		{"unknown storage", map[string]string{"CHARSHEET_STORAGE": "postgres"}},
		{"bad duration", map[string]string{"CHARSHEET_SESSION_TTL": "soon"}},
		{"zero ttl", map[string]string{"CHARSHEET_SESSION_TTL": "0s"}},
		{"bad level", map[string]string{"CHARSHEET_LOG_LEVEL": "loud"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.environ)
			assert.Error(t, err)
		})
	}
}

func TestLoadReadsEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHARSHEET_GM_PIN=from-file\n"), 0o600))

	t.Setenv("CHARSHEET_GM_PIN", "")
	require.NoError(t, os.Unsetenv("CHARSHEET_GM_PIN"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "from-file", cfg.GMPin)
}

func TestLoadEnvironmentWinsOverFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CHARSHEET_ADDR=:1111\n"), 0o600))

	t.Setenv("CHARSHEET_ADDR", ":2222")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ":2222", cfg.Addr)
}

func TestLoadIgnoresMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.env"))
	assert.NoError(t, err)
}
