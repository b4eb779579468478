package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"

	"recordstore/internal/log"
	"recordstore/internal/storage"
)

// DefaultQuotaBytes matches the per-origin Web Storage quota of common browsers.
const DefaultQuotaBytes = 5 * 1024 * 1024

// Environment variables that override file values.
const (
	EnvBackend     = "RECORDSTORE_BACKEND"
	EnvDataDir     = "RECORDSTORE_DATA_DIR"
	EnvQuotaBytes  = "RECORDSTORE_QUOTA_BYTES"
	EnvListenAddr  = "RECORDSTORE_LISTEN_ADDR"
	EnvMetricsAddr = "RECORDSTORE_METRICS_ADDR"
	EnvLogLevel    = "RECORDSTORE_LOG_LEVEL"
)

// ErrInvalidBackend is returned for a backend name outside storage.Backends.
var ErrInvalidBackend = errors.New("invalid backend")

// Config holds the service configuration.
type Config struct {
	Backend     string `yaml:"backend"`
	DataDir     string `yaml:"dataDir"`
	QuotaBytes  int64  `yaml:"quotaBytes"`
	ListenAddr  string `yaml:"listenAddr"`
	MetricsAddr string `yaml:"metricsAddr"` // empty disables the metrics endpoint
	LogLevel    string `yaml:"logLevel"`
}

// Default returns the configuration used when nothing overrides it.
func Default() Config {
	return Config{
		Backend:    storage.Local,
		DataDir:    "data",
		QuotaBytes: DefaultQuotaBytes,
		ListenAddr: ":50051",
		LogLevel:   "info",
	}
}

// Load builds a Config from defaults, the YAML file at path (if path is not
// empty) and RECORDSTORE_* environment variables, in that order.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	logger := log.WithComponent("config")

	for _, item := range []struct {
		key string
		dst *string
	}{
		{EnvBackend, &c.Backend},
		{EnvDataDir, &c.DataDir},
		{EnvListenAddr, &c.ListenAddr},
		{EnvMetricsAddr, &c.MetricsAddr},
		{EnvLogLevel, &c.LogLevel},
	} {
		if v, ok := os.LookupEnv(item.key); ok && v != "" {
			logger.Debug().Str("key", item.key).Str("value", v).Str("source", "environment").Msg("using environment variable")
			*item.dst = v
		}
	}

	if v, ok := os.LookupEnv(EnvQuotaBytes); ok && v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			return fmt.Errorf("%s: invalid integer %q: %w", EnvQuotaBytes, v, err)
		}
		logger.Debug().Str("key", EnvQuotaBytes).Int64("value", n).Str("source", "environment").Msg("using environment variable")
		c.QuotaBytes = n
	}
	return nil
}

// Validate checks the configuration for values the service cannot run with.
func (c *Config) Validate() error {
	if err := ValidateBackend(c.Backend); err != nil {
		return err
	}
	if c.QuotaBytes < 0 {
		return fmt.Errorf("quotaBytes cannot be negative: %d", c.QuotaBytes)
	}
	if c.Backend == storage.Local && c.DataDir == "" {
		return fmt.Errorf("dataDir is required for %s", storage.Local)
	}
	if c.ListenAddr == "" {
		return errors.New("listenAddr cannot be empty")
	}
	if c.LogLevel != "" {
		if _, err := zerolog.ParseLevel(c.LogLevel); err != nil {
			return fmt.Errorf("invalid logLevel %q: %w", c.LogLevel, err)
		}
	}
	return nil
}

// StorageOptions returns the namespace options derived from the config.
func (c *Config) StorageOptions() storage.Options {
	return storage.Options{
		DataDir:    c.DataDir,
		QuotaBytes: c.QuotaBytes,
	}
}

// ValidateBackend returns ErrInvalidBackend, listing the valid names, unless
// name is a recognized backend.
func ValidateBackend(name string) error {
	if storage.IsBackend(name) {
		return nil
	}
	return fmt.Errorf("%w %q: must be one of %s", ErrInvalidBackend, name, strings.Join(storage.Backends, ", "))
}
