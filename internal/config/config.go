// Package config loads the clubcore server configuration.
//
// Configuration is resolved in three layers: built-in defaults, an optional
// YAML file named by CLUBCORE_CONFIG (or an explicit path), and CLUBCORE_*
// environment variables. Environment variables win so that containerized
// deployments can override a baked-in file without editing it.
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the master configuration for the clubcore server.
type Config struct {
	// Server configures the HTTP listener.
	Server ServerConfig `yaml:"server"`

	// Storage configures the persistent entity store.
	Storage StorageConfig `yaml:"storage"`

	// Blob configures the export archive backend.
	Blob BlobConfig `yaml:"blob"`

	// Telemetry configures metrics and tracing output.
	Telemetry TelemetryConfig `yaml:"telemetry"`

	// Logging configures the structured logger.
	Logging LoggingConfig `yaml:"logging"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	// Addr is the listen address. Default: :8080
	Addr string `yaml:"addr"`

	// ShutdownTimeout bounds graceful shutdown, as a Go duration string.
	// Default: 10s
	ShutdownTimeout string `yaml:"shutdown_timeout"`
}

// ShutdownDuration parses the shutdown timeout. Validate has already
// checked the string, so parse failures fall back to the default.
func (s ServerConfig) ShutdownDuration() time.Duration {
	d, err := time.ParseDuration(s.ShutdownTimeout)
	if err != nil || d <= 0 {
		return 10 * time.Second
	}
	return d
}

// StorageConfig configures the persistent entity store.
type StorageConfig struct {
	// Driver selects the backend: memory, sqlite or postgres.
	// Default: sqlite
	Driver string `yaml:"driver"`

	// SQLitePath is the database file when driver=sqlite.
	SQLitePath string `yaml:"sqlite_path"`

	// PostgresDSN is the connection string when driver=postgres.
	PostgresDSN string `yaml:"postgres_dsn"`
}

// BlobConfig configures the export archive backend.
type BlobConfig struct {
	// Driver selects the backend: fs, s3 or memory. Default: fs
	Driver string `yaml:"driver"`

	// FSRoot is the directory root when driver=fs.
	FSRoot string `yaml:"fs_root"`

	// S3 holds the bucket settings when driver=s3.
	S3 S3Config `yaml:"s3"`
}

// S3Config holds the bucket settings for the s3 blob driver.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	PathStyle bool   `yaml:"path_style"`
}

// TelemetryConfig configures metrics and tracing output.
type TelemetryConfig struct {
	// Metrics selects the recorder: expvar, prometheus, both or none.
	// Default: expvar
	Metrics string `yaml:"metrics"`

	// TracePath is a file receiving JSON trace spans. Empty disables tracing.
	TracePath string `yaml:"trace_path"`
}

// LoggingConfig configures the structured logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error. Default: info
	Level string `yaml:"level"`

	// Format is text or json. Default: text
	Format string `yaml:"format"`
}

// Default returns the built-in configuration base.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Addr:            ":8080",
			ShutdownTimeout: "10s",
		},
		Storage: StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "clubcore.db",
		},
		Blob: BlobConfig{
			Driver: "fs",
			FSRoot: "blobdata",
		},
		Telemetry: TelemetryConfig{
			Metrics: "expvar",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load resolves the configuration from defaults, the file named by
// CLUBCORE_CONFIG when set, and CLUBCORE_* environment variables.
func Load() (*Config, error) {
	if path := os.Getenv("CLUBCORE_CONFIG"); path != "" {
		return LoadFile(path)
	}
	cfg := Default()
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile resolves the configuration from a specific YAML file, then
// applies environment overrides.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.applyEnvOverrides()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// envOverrides maps CLUBCORE_* variables onto string config fields.
func (c *Config) envOverrides() map[string]*string {
	return map[string]*string{
		"CLUBCORE_SERVER_ADDR":      &c.Server.Addr,
		"CLUBCORE_STORAGE_DRIVER":   &c.Storage.Driver,
		"CLUBCORE_SQLITE_PATH":      &c.Storage.SQLitePath,
		"CLUBCORE_POSTGRES_DSN":     &c.Storage.PostgresDSN,
		"CLUBCORE_BLOB_DRIVER":      &c.Blob.Driver,
		"CLUBCORE_BLOB_FS_ROOT":     &c.Blob.FSRoot,
		"CLUBCORE_BLOB_S3_BUCKET":   &c.Blob.S3.Bucket,
		"CLUBCORE_BLOB_S3_REGION":   &c.Blob.S3.Region,
		"CLUBCORE_BLOB_S3_ENDPOINT": &c.Blob.S3.Endpoint,
		"CLUBCORE_METRICS":          &c.Telemetry.Metrics,
		"CLUBCORE_TRACE_PATH":       &c.Telemetry.TracePath,
		"CLUBCORE_LOG_LEVEL":        &c.Logging.Level,
		"CLUBCORE_LOG_FORMAT":       &c.Logging.Format,
	}
}

func (c *Config) applyEnvOverrides() {
	for name, field := range c.envOverrides() {
		if v := os.Getenv(name); v != "" {
			*field = v
		}
	}
	if v := os.Getenv("CLUBCORE_BLOB_S3_PATH_STYLE"); v == "true" {
		c.Blob.S3.PathStyle = true
	}
}

// Publish writes the resolved storage and blob settings back into the
// process environment so the env-driven backend factories pick them up.
func (c *Config) Publish() error {
	pairs := map[string]string{
		"CLUBCORE_STORAGE_DRIVER":   c.Storage.Driver,
		"CLUBCORE_SQLITE_PATH":      c.Storage.SQLitePath,
		"CLUBCORE_POSTGRES_DSN":     c.Storage.PostgresDSN,
		"CLUBCORE_BLOB_DRIVER":      c.Blob.Driver,
		"CLUBCORE_BLOB_FS_ROOT":     c.Blob.FSRoot,
		"CLUBCORE_BLOB_S3_BUCKET":   c.Blob.S3.Bucket,
		"CLUBCORE_BLOB_S3_REGION":   c.Blob.S3.Region,
		"CLUBCORE_BLOB_S3_ENDPOINT": c.Blob.S3.Endpoint,
	}
	for name, value := range pairs {
		if value == "" {
			continue
		}
		if err := os.Setenv(name, value); err != nil {
			return fmt.Errorf("publishing %s: %w", name, err)
		}
	}
	if c.Blob.S3.PathStyle {
		if err := os.Setenv("CLUBCORE_BLOB_S3_PATH_STYLE", "true"); err != nil {
			return err
		}
	}
	return nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Addr == "" {
		errs = append(errs, errors.New("server.addr is required"))
	}
	if _, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("server.shutdown_timeout: %w", err))
	}
	if !oneOf(c.Storage.Driver, "memory", "sqlite", "postgres") {
		errs = append(errs, fmt.Errorf("storage.driver must be memory, sqlite or postgres, got %q", c.Storage.Driver))
	}
	if c.Storage.Driver == "postgres" && c.Storage.PostgresDSN == "" {
		errs = append(errs, errors.New("storage.postgres_dsn is required when storage.driver is postgres"))
	}
	if !oneOf(c.Blob.Driver, "fs", "s3", "memory") {
		errs = append(errs, fmt.Errorf("blob.driver must be fs, s3 or memory, got %q", c.Blob.Driver))
	}
	if c.Blob.Driver == "s3" && c.Blob.S3.Bucket == "" {
		errs = append(errs, errors.New("blob.s3.bucket is required when blob.driver is s3"))
	}
	if !oneOf(c.Telemetry.Metrics, "expvar", "prometheus", "both", "none") {
		errs = append(errs, fmt.Errorf("telemetry.metrics must be expvar, prometheus, both or none, got %q", c.Telemetry.Metrics))
	}
	if !oneOf(c.Logging.Level, "debug", "info", "warn", "error") {
		errs = append(errs, fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level))
	}
	if !oneOf(c.Logging.Format, "text", "json") {
		errs = append(errs, fmt.Errorf("logging.format must be text or json, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// NewLogger builds the configured slog logger writing to w.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch c.Logging.Level {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if c.Logging.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

func oneOf(value string, allowed ...string) bool {
	for _, a := range allowed {
		if value == a {
			return true
		}
	}
	return false
}
