package config

import (
	"os"
	"path/filepath"
	"time"
)

// Default values
const (
	// Server defaults
	DefaultPort            = 3001
	DefaultShutdownTimeout = 10 * time.Second

	// Schema defaults
	DefaultFetchTimeout = 30 * time.Second

	// Cache defaults
	DefaultCacheEnabled = true
	DefaultCacheTTL     = 1 * time.Hour

	// Storage defaults
	DefaultStorageTimeout  = 30 * time.Second
	DefaultStorageRetries  = 3
	DefaultInitialInterval = 1 * time.Second
	DefaultMaxInterval     = 30 * time.Second

	// External service defaults
	DefaultServiceTimeout = 2 * time.Minute

	// Logging defaults
	DefaultLogLevel  = "info"
	DefaultLogFormat = "pretty"
)

// ConfigDir returns the config directory path
func ConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".schemactl"
	}
	return filepath.Join(home, ".schemactl")
}

// CacheDir returns the cache directory path
func CacheDir() string {
	return filepath.Join(ConfigDir(), "cache")
}

// ConfigFilePath returns the config file path
func ConfigFilePath() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            DefaultPort,
			ShutdownTimeout: DefaultShutdownTimeout,
			Metrics:         true,
		},
		Schema: SchemaConfig{
			FetchTimeout: DefaultFetchTimeout,
		},
		Cache: CacheConfig{
			Enabled:   DefaultCacheEnabled,
			TTL:       DefaultCacheTTL,
			Directory: CacheDir(),
		},
		Storage: StorageConfig{
			Timeout:         DefaultStorageTimeout,
			MaxRetries:      DefaultStorageRetries,
			InitialInterval: DefaultInitialInterval,
			MaxInterval:     DefaultMaxInterval,
		},
		Services: ServicesConfig{
			Timeout: DefaultServiceTimeout,
		},
		Generation: GenerationConfig{
			TempDir: "",
		},
		Logging: LoggingConfig{
			Level:  DefaultLogLevel,
			Format: DefaultLogFormat,
		},
	}
}
