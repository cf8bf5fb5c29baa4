package config

import (
	"fmt"
	"time"
)

// Config represents the application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server" yaml:"server"`
	Schema     SchemaConfig     `mapstructure:"schema" yaml:"schema"`
	Cache      CacheConfig      `mapstructure:"cache" yaml:"cache"`
	Storage    StorageConfig    `mapstructure:"storage" yaml:"storage"`
	Services   ServicesConfig   `mapstructure:"services" yaml:"services"`
	Generation GenerationConfig `mapstructure:"generation" yaml:"generation"`
	Logging    LoggingConfig    `mapstructure:"logging" yaml:"logging"`
}

// ServerConfig contains HTTP server settings
type ServerConfig struct {
	Port            int           `mapstructure:"port" yaml:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" yaml:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" yaml:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`
	Metrics         bool          `mapstructure:"metrics" yaml:"metrics"`
}

// SchemaConfig contains schema fetching settings
type SchemaConfig struct {
	FetchTimeout time.Duration `mapstructure:"fetch_timeout" yaml:"fetch_timeout"`
	AssetView    string        `mapstructure:"asset_view" yaml:"asset_view"`
}

// CacheConfig contains schema document cache settings
type CacheConfig struct {
	Enabled   bool          `mapstructure:"enabled" yaml:"enabled"`
	TTL       time.Duration `mapstructure:"ttl" yaml:"ttl"`
	Directory string        `mapstructure:"directory" yaml:"directory"`
}

// StorageConfig contains storage backend client settings
type StorageConfig struct {
	BaseURL         string        `mapstructure:"base_url" yaml:"base_url"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout"`
	MaxRetries      int           `mapstructure:"max_retries" yaml:"max_retries"`
	InitialInterval time.Duration `mapstructure:"initial_interval" yaml:"initial_interval"`
	MaxInterval     time.Duration `mapstructure:"max_interval" yaml:"max_interval"`
}

// ServicesConfig points at the external engines the orchestration
// layer delegates to.
type ServicesConfig struct {
	GeneratorURL string        `mapstructure:"generator_url" yaml:"generator_url"`
	MetadataURL  string        `mapstructure:"metadata_url" yaml:"metadata_url"`
	Timeout      time.Duration `mapstructure:"timeout" yaml:"timeout"`
}

// GenerationConfig contains manifest generation settings
type GenerationConfig struct {
	TempDir string `mapstructure:"temp_dir" yaml:"temp_dir"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// Validate checks the configuration and applies defaults for invalid
// values rather than failing hard where a sane fallback exists.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		c.Server.Port = DefaultPort
	}
	if c.Server.ShutdownTimeout <= 0 {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
	if c.Schema.FetchTimeout <= 0 {
		c.Schema.FetchTimeout = DefaultFetchTimeout
	}
	if c.Cache.TTL <= 0 {
		c.Cache.TTL = DefaultCacheTTL
	}
	if c.Storage.Timeout <= 0 {
		c.Storage.Timeout = DefaultStorageTimeout
	}
	if c.Storage.MaxRetries < 0 {
		c.Storage.MaxRetries = DefaultStorageRetries
	}
	if c.Services.Timeout <= 0 {
		c.Services.Timeout = DefaultServiceTimeout
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	case "":
		c.Logging.Level = DefaultLogLevel
	default:
		return fmt.Errorf("invalid logging level %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "pretty", "json":
	case "":
		c.Logging.Format = DefaultLogFormat
	default:
		return fmt.Errorf("invalid logging format %q", c.Logging.Format)
	}
	return nil
}
