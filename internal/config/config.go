// Package config provides configuration types and loading for releng.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

const envPrefix = "RELENG"

// Config holds all configuration options for releng.
type Config struct {
	StorePath     string          `mapstructure:"store_path"`
	Language      string          `mapstructure:"language"`
	LogLevel      string          `mapstructure:"log_level"`
	DefaultUser   string          `mapstructure:"default_user"`
	WatchDebounce time.Duration   `mapstructure:"watch_debounce"`
	Telemetry     TelemetryConfig `mapstructure:"telemetry"`
}

// TelemetryConfig selects the trace exporter.
type TelemetryConfig struct {
	// Exporter is "none", "stdout" or "otlp".
	Exporter string `mapstructure:"exporter"`
	// Endpoint is the OTLP gRPC collector address, used when Exporter is
	// "otlp".
	Endpoint string `mapstructure:"endpoint"`
}

// Defaults returns a Config with sensible default values.
func Defaults() Config {
	return Config{
		StorePath:     defaultStorePath(),
		Language:      "en",
		LogLevel:      "info",
		DefaultUser:   "releng",
		WatchDebounce: 1 * time.Second,
		Telemetry: TelemetryConfig{
			Exporter: "none",
			Endpoint: "localhost:4317",
		},
	}
}

func defaultStorePath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "releng.db"
	}
	return filepath.Join(home, ".releng", "releng.db")
}

// DefaultConfigPath returns the user config file location.
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine user home: %w", err)
	}
	return filepath.Join(home, ".releng", "config.yaml"), nil
}

// Validate checks the configuration for errors.
func (c Config) Validate() error {
	switch c.Language {
	case "en", "ru":
	default:
		return fmt.Errorf("language %q is not supported (want en or ru)", c.Language)
	}
	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log_level %q is not supported", c.LogLevel)
	}
	switch c.Telemetry.Exporter {
	case "none", "stdout", "otlp":
	default:
		return fmt.Errorf("telemetry exporter %q is not supported (want none, stdout or otlp)", c.Telemetry.Exporter)
	}
	if c.Telemetry.Exporter == "otlp" && strings.TrimSpace(c.Telemetry.Endpoint) == "" {
		return errors.New("telemetry endpoint is required for the otlp exporter")
	}
	if c.WatchDebounce < 0 {
		return errors.New("watch_debounce must not be negative")
	}
	return nil
}

// Load reads configuration with the precedence: defaults < config file <
// environment variables. An empty path loads the default user config; a
// missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	setDefaults(v)
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	explicit := strings.TrimSpace(path) != ""
	if !explicit {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			return Config{}, err
		}
		path = defaultPath
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit || (!errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist)) {
			return Config{}, fmt.Errorf("load config %s: %w", path, err)
		}
	}

	cfg := Config{}
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	defaults := Defaults()
	v.SetDefault("store_path", defaults.StorePath)
	v.SetDefault("language", defaults.Language)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("default_user", defaults.DefaultUser)
	v.SetDefault("watch_debounce", defaults.WatchDebounce)
	v.SetDefault("telemetry.exporter", defaults.Telemetry.Exporter)
	v.SetDefault("telemetry.endpoint", defaults.Telemetry.Endpoint)
}

// DefaultConfigTemplate returns the default config as a YAML string with comments.
func DefaultConfigTemplate() string {
	return `# Releng Configuration

# Path to the tracker store database
# store_path: /path/to/releng.db

# Display-name language for custom fields: en or ru
language: en

# Log level: debug, info, warn, error
log_level: info

# User recorded as the actor on version and search operations
default_user: releng

# Debounce for 'releng watch' re-runs after store changes
watch_debounce: 1s

# Tracing
telemetry:
  # Exporter: none, stdout, or otlp
  exporter: none
  # OTLP gRPC collector address, used when exporter is otlp
  # endpoint: localhost:4317
`
}

// WriteDefaultConfig creates a config file at the given path with default
// settings and comments. Creates the parent directory if it doesn't exist.
func WriteDefaultConfig(configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}
	if err := os.WriteFile(configPath, []byte(DefaultConfigTemplate()), 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}
