// ABOUTME: Configuration loading and parsing for the spektr messenger
// ABOUTME: Supports YAML files with environment variable expansion

package config

import (
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"

	"github.com/spektr-im/spektr/internal/model"
)

// Config represents the complete spektr configuration
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Storage  StorageConfig  `yaml:"storage"`
	Auth     AuthConfig     `yaml:"auth"`
	Defaults DefaultsConfig `yaml:"defaults"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

// ServerConfig holds the local HTTP surface address
type ServerConfig struct {
	HTTPAddr string `yaml:"http_addr"`
}

// StorageConfig holds the key/value store location
type StorageConfig struct {
	Path string `yaml:"path"`
}

// AuthConfig holds transport authentication configuration
type AuthConfig struct {
	JWTSecret string `yaml:"jwt_secret"`
}

// DefaultsConfig holds initial preference values for fresh installations
type DefaultsConfig struct {
	Theme    string `yaml:"theme"`
	Language string `yaml:"language"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig holds metrics endpoint configuration
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// Load reads a configuration file from the given path and returns a parsed
// Config. Environment variables in the format ${VAR_NAME} are expanded.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	expandedData := expandEnvVars(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(expandedData), &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return &cfg, nil
}

// expandEnvVars replaces ${VAR_NAME} patterns with the corresponding
// environment variable values. Unset variables expand to empty strings.
func expandEnvVars(s string) string {
	re := regexp.MustCompile(`\$\{([^}]+)\}`)

	return re.ReplaceAllStringFunc(s, func(match string) string {
		varName := re.FindStringSubmatch(match)[1]
		return os.Getenv(varName)
	})
}

// applyDefaults fills in values a minimal config file may omit.
func (c *Config) applyDefaults() {
	if c.Defaults.Theme == "" {
		c.Defaults.Theme = string(model.ThemeCrystal)
	}
	if c.Defaults.Language == "" {
		c.Defaults.Language = string(model.LanguageRU)
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

// Validate checks that all required configuration fields are present and
// valid. Returns an error describing the first validation failure.
func (c *Config) Validate() error {
	if c.Server.HTTPAddr == "" {
		return fmt.Errorf("server.http_addr is required")
	}

	if c.Storage.Path == "" {
		return fmt.Errorf("storage.path is required")
	}

	if c.Auth.JWTSecret == "" {
		return fmt.Errorf("auth.jwt_secret is required")
	}

	switch model.Theme(c.Defaults.Theme) {
	case model.ThemeCrystal, model.ThemePurpleLime, model.ThemeDarkBlue,
		model.ThemeWhiteBlack, model.ThemeBlueLight:
	default:
		return fmt.Errorf("defaults.theme %q is not a known theme", c.Defaults.Theme)
	}

	switch model.Language(c.Defaults.Language) {
	case model.LanguageRU, model.LanguageEN:
	default:
		return fmt.Errorf("defaults.language %q is not a known language", c.Defaults.Language)
	}

	return nil
}
