package config

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clubcore.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestDefaultsValidate(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	require.Equal(t, ":8080", cfg.Server.Addr)
	require.Equal(t, "sqlite", cfg.Storage.Driver)
	require.Equal(t, "fs", cfg.Blob.Driver)
	require.Equal(t, "expvar", cfg.Telemetry.Metrics)
}

func TestLoadFileMergesOverDefaults(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
storage:
  driver: memory
telemetry:
  metrics: both
`)
	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, ":9090", cfg.Server.Addr)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "both", cfg.Telemetry.Metrics)
	// Untouched sections keep their defaults.
	require.Equal(t, "10s", cfg.Server.ShutdownTimeout)
	require.Equal(t, "fs", cfg.Blob.Driver)
}

func TestEnvOverridesWinOverFile(t *testing.T) {
	path := writeConfig(t, `
storage:
  driver: sqlite
  sqlite_path: from-file.db
`)
	t.Setenv("CLUBCORE_STORAGE_DRIVER", "memory")
	t.Setenv("CLUBCORE_LOG_LEVEL", "debug")

	cfg, err := LoadFile(path)
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Storage.Driver)
	require.Equal(t, "from-file.db", cfg.Storage.SQLitePath)
	require.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoadHonorsConfigEnvVar(t *testing.T) {
	path := writeConfig(t, `
blob:
  driver: memory
`)
	t.Setenv("CLUBCORE_CONFIG", path)

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "memory", cfg.Blob.Driver)
}

func TestLoadWithoutFileUsesDefaultsAndEnv(t *testing.T) {
	t.Setenv("CLUBCORE_CONFIG", "")
	t.Setenv("CLUBCORE_SERVER_ADDR", ":7070")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, ":7070", cfg.Server.Addr)
	require.Equal(t, "sqlite", cfg.Storage.Driver)
}

func TestValidateRejectsBadValues(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"unknown storage driver", func(c *Config) { c.Storage.Driver = "oracle" }},
		{"postgres without dsn", func(c *Config) { c.Storage.Driver = "postgres" }},
		{"unknown blob driver", func(c *Config) { c.Blob.Driver = "ftp" }},
		{"s3 without bucket", func(c *Config) { c.Blob.Driver = "s3" }},
		{"unknown metrics mode", func(c *Config) { c.Telemetry.Metrics = "statsd" }},
		{"bad shutdown timeout", func(c *Config) { c.Server.ShutdownTimeout = "soon" }},
		{"bad log level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(cfg)
			require.Error(t, cfg.Validate())
		})
	}
}

func TestPublishExportsBackendSettings(t *testing.T) {
	t.Setenv("CLUBCORE_STORAGE_DRIVER", "")
	t.Setenv("CLUBCORE_BLOB_DRIVER", "")
	t.Setenv("CLUBCORE_BLOB_FS_ROOT", "")

	cfg := Default()
	cfg.Storage.Driver = "memory"
	cfg.Blob.Driver = "fs"
	cfg.Blob.FSRoot = t.TempDir()

	require.NoError(t, cfg.Publish())
	require.Equal(t, "memory", os.Getenv("CLUBCORE_STORAGE_DRIVER"))
	require.Equal(t, "fs", os.Getenv("CLUBCORE_BLOB_DRIVER"))
	require.Equal(t, cfg.Blob.FSRoot, os.Getenv("CLUBCORE_BLOB_FS_ROOT"))
}

func TestShutdownDuration(t *testing.T) {
	cfg := Default()
	require.Equal(t, 10*time.Second, cfg.Server.ShutdownDuration())
	cfg.Server.ShutdownTimeout = "250ms"
	require.Equal(t, 250*time.Millisecond, cfg.Server.ShutdownDuration())
}

func TestNewLoggerRespectsLevelAndFormat(t *testing.T) {
	cfg := Default()
	cfg.Logging.Level = "warn"
	cfg.Logging.Format = "json"

	var buf bytes.Buffer
	logger := cfg.NewLogger(&buf)
	logger.Info("dropped")
	logger.Warn("kept")

	out := buf.String()
	require.NotContains(t, out, "dropped")
	require.Contains(t, out, "kept")
	require.Contains(t, out, `"level":"WARN"`)

	require.False(t, logger.Enabled(context.Background(), slog.LevelInfo))
}
