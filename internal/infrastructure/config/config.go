package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for the psico client.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	API     APIConfig     `yaml:"api"`
	Storage StorageConfig `yaml:"storage"`
	UI      UIConfig      `yaml:"ui"`
	Logging LoggingConfig `yaml:"logging"`
}

// APIConfig contains the backend endpoints the client talks to.
type APIConfig struct {
	// BaseURL is the root of the authentication API, e.g. "http://localhost:8080/api".
	// The authentication endpoint is BaseURL + "/auth/authenticate".
	BaseURL string `yaml:"base_url"`

	// AppURL is the root of the public registration API, e.g. "http://localhost:8080/api/app/v1".
	AppURL string `yaml:"app_url"`

	// Timeout is the per-request HTTP timeout in seconds.
	Timeout int `yaml:"timeout"`
}

// StorageConfig contains durable session storage settings.
// When disabled the session lives in memory only and is lost on exit.
type StorageConfig struct {
	Enabled     bool   `yaml:"enabled"`
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// UIConfig contains the local navigation UI listener settings.
type UIConfig struct {
	Host     string          `yaml:"host"`
	Port     int             `yaml:"port"`
	Timeouts UITimeoutConfig `yaml:"timeouts"`
}

// UITimeoutConfig contains HTTP timeout settings in seconds.
type UITimeoutConfig struct {
	Read  int `yaml:"read"`
	Write int `yaml:"write"`
	Idle  int `yaml:"idle"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string            `yaml:"level"`
	Format string            `yaml:"format"`
	Output string            `yaml:"output"`
	File   FileLoggingConfig `yaml:"file"`
}

// FileLoggingConfig contains file-based logging settings.
// Used only when Output is "file".
type FileLoggingConfig struct {
	Path       string `yaml:"path"`
	MaxSize    int    `yaml:"max_size"`
	MaxBackups int    `yaml:"max_backups"`
	MaxAge     int    `yaml:"max_age"`
	Compress   bool   `yaml:"compress"`
}

// Load reads configuration from a YAML file and applies environment variable overrides.
//
// The configuration loading order is:
//  1. Default values (hardcoded)
//  2. YAML file values (override defaults)
//  3. A .env file next to the YAML file, if present (never overrides the real environment)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern: PSICO_SECTION_KEY
// For example: PSICO_API_BASE_URL, PSICO_STORAGE_PATH
//
// Parameters:
//   - path: Path to the YAML configuration file
//
// Returns:
//   - *Config: Loaded and validated configuration
//   - error: If file cannot be read, parsed, or validation fails
func Load(path string) (*Config, error) {
	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return finish(cfg, filepath.Dir(path))
}

// LoadOrDefault behaves like Load but falls back to defaults when the file
// does not exist. Any other read or parse error is still returned.
func LoadOrDefault(path string) (*Config, error) {
	cfg, err := Load(path)
	if err == nil {
		return cfg, nil
	}
	if !errors.Is(err, fs.ErrNotExist) {
		return nil, err
	}
	return finish(defaultConfig(), filepath.Dir(path))
}

// finish applies the .env file and environment overrides, then validates.
func finish(cfg *Config, dir string) (*Config, error) {
	if err := loadDotEnv(filepath.Join(dir, ".env")); err != nil {
		return nil, err
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadDotEnv populates the process environment from a .env file.
// A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		API: APIConfig{
			BaseURL: "http://localhost:8080/api",
			AppURL:  "http://localhost:8080/api/app/v1",
			Timeout: 15,
		},
		Storage: StorageConfig{
			Enabled:     true,
			Path:        "./data/psico.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		UI: UIConfig{
			Host: "127.0.0.1",
			Port: 4200,
			Timeouts: UITimeoutConfig{
				Read:  30,
				Write: 30,
				Idle:  60,
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stderr",
			File: FileLoggingConfig{
				MaxSize:    10,
				MaxBackups: 3,
				MaxAge:     28,
			},
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: PSICO_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	// API
	if v := os.Getenv("PSICO_API_BASE_URL"); v != "" {
		cfg.API.BaseURL = v
	}
	if v := os.Getenv("PSICO_API_APP_URL"); v != "" {
		cfg.API.AppURL = v
	}
	if v := os.Getenv("PSICO_API_TIMEOUT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.API.Timeout = n
		}
	}

	// Storage
	if v := os.Getenv("PSICO_STORAGE_PATH"); v != "" {
		cfg.Storage.Path = v
	}
	if v := os.Getenv("PSICO_STORAGE_ENABLED"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Storage.Enabled = b
		}
	}

	// UI
	if v := os.Getenv("PSICO_UI_HOST"); v != "" {
		cfg.UI.Host = v
	}
	if v := os.Getenv("PSICO_UI_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.UI.Port = n
		}
	}

	// Logging
	if v := os.Getenv("PSICO_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
//
// Returns:
//   - error: Description of every validation failure, or nil if valid
func (c *Config) Validate() error {
	var errs []string

	if err := validateHTTPURL(c.API.BaseURL); err != nil {
		errs = append(errs, "api.base_url "+err.Error())
	}
	if c.API.AppURL != "" {
		if err := validateHTTPURL(c.API.AppURL); err != nil {
			errs = append(errs, "api.app_url "+err.Error())
		}
	}
	if c.API.Timeout <= 0 {
		errs = append(errs, "api.timeout must be positive")
	}

	if c.Storage.Enabled && c.Storage.Path == "" {
		errs = append(errs, "storage.path is required when storage is enabled")
	}

	if c.UI.Port < 1 || c.UI.Port > 65535 {
		errs = append(errs, "ui.port must be between 1 and 65535")
	}

	if strings.EqualFold(c.Logging.Output, "file") && c.Logging.File.Path == "" {
		errs = append(errs, "logging.file.path is required when logging.output is file")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}

	return nil
}

// validateHTTPURL requires an absolute http or https URL.
func validateHTTPURL(raw string) error {
	if raw == "" {
		return errors.New("is required")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("is not a valid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return errors.New("must use http or https")
	}
	if u.Host == "" {
		return errors.New("must include a host")
	}
	return nil
}

// AuthenticateURL returns the fixed authentication endpoint.
func (c APIConfig) AuthenticateURL() string {
	return strings.TrimRight(c.BaseURL, "/") + "/auth/authenticate"
}

// RequestTimeout returns the API request timeout as a Duration.
func (c APIConfig) RequestTimeout() time.Duration {
	return time.Duration(c.Timeout) * time.Second
}

// GetReadTimeout returns the UI read timeout as a Duration.
func (c *Config) GetReadTimeout() time.Duration {
	return time.Duration(c.UI.Timeouts.Read) * time.Second
}

// GetWriteTimeout returns the UI write timeout as a Duration.
func (c *Config) GetWriteTimeout() time.Duration {
	return time.Duration(c.UI.Timeouts.Write) * time.Second
}

// GetIdleTimeout returns the UI idle timeout as a Duration.
func (c *Config) GetIdleTimeout() time.Duration {
	return time.Duration(c.UI.Timeouts.Idle) * time.Second
}
