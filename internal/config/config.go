// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for counsel.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// .env files and environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.counsel/config.toml
//   - ~/.counsel/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete counsel configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// Backend API location
	Server ServerConfig `toml:"server" json:"server"`

	// Simulated streaming of assistant responses
	Streaming StreamingConfig `toml:"streaming" json:"streaming"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`

	// Log configuration
	Log LogConfig `toml:"log" json:"log"`
}

// ServerConfig locates the counseling assistant backend.
type ServerConfig struct {
	// Scheme is "http" or "https"
	Scheme string `toml:"scheme" json:"scheme"`
	// Host is the backend hostname or IP
	Host string `toml:"host" json:"host"`
	// Port is the backend TCP port
	Port int `toml:"port" json:"port"`
	// RequestTimeoutSecs bounds a single API call. Chat calls wait on the
	// assistant model, so this is generous.
	RequestTimeoutSecs int `toml:"request_timeout_secs" json:"request_timeout_secs"`
	// RequestsPerSecond caps outgoing requests. Zero disables the limit.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// StreamingConfig tunes the reveal animation of assistant responses.
type StreamingConfig struct {
	// ChunkSize is the number of characters revealed per tick
	ChunkSize int `toml:"chunk_size" json:"chunk_size"`
	// IntervalMs is the delay between ticks
	IntervalMs int `toml:"interval_ms" json:"interval_ms"`
	// NoResponseTimeoutMs aborts a reveal that has shown nothing after this long
	NoResponseTimeoutMs int `toml:"no_response_timeout_ms" json:"no_response_timeout_ms"`
}

// UIConfig contains terminal UI preferences.
type UIConfig struct {
	// Theme is "dark", "light" or "auto" (glamour style selection)
	Theme string `toml:"theme" json:"theme"`
	// ShowSidebar toggles the thread/patient sidebar at startup
	ShowSidebar bool `toml:"show_sidebar" json:"show_sidebar"`
	// SidebarWidth is the sidebar width in columns
	SidebarWidth int `toml:"sidebar_width" json:"sidebar_width"`
}

// LogConfig controls where diagnostic logs go.
type LogConfig struct {
	// File receives log output in TUI mode. Empty disables logging there.
	File string `toml:"file" json:"file"`
}

// =============================================================================
// DEFAULT CONFIGURATION
// =============================================================================

// Default returns a Config with sensible default values.
func Default() *Config {
	return &Config{
		Version: "1.0.0",

		Server: ServerConfig{
			Scheme:             "http",
			Host:               "127.0.0.1",
			Port:               8000,
			RequestTimeoutSecs: 60,
		},

		Streaming: StreamingConfig{
			ChunkSize:           20,
			IntervalMs:          20,
			NoResponseTimeoutMs: 5000,
		},

		UI: UIConfig{
			Theme:        "dark",
			ShowSidebar:  true,
			SidebarWidth: 32,
		},
	}
}

// BaseURL assembles the API root from scheme, host and port.
func (s ServerConfig) BaseURL() string {
	return fmt.Sprintf("%s://%s:%d/api", s.Scheme, s.Host, s.Port)
}

// RequestTimeout returns the per-request timeout as a duration.
func (s ServerConfig) RequestTimeout() time.Duration {
	return time.Duration(s.RequestTimeoutSecs) * time.Second
}

// Interval returns the tick interval as a duration.
func (s StreamingConfig) Interval() time.Duration {
	return time.Duration(s.IntervalMs) * time.Millisecond
}

// NoResponseTimeout returns the no-response guard as a duration.
func (s StreamingConfig) NoResponseTimeout() time.Duration {
	return time.Duration(s.NoResponseTimeoutMs) * time.Millisecond
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the counsel configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".counsel"), nil
}

// ConfigPathTOML returns the path to the TOML config file.
func ConfigPathTOML() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// ConfigPathJSON returns the path to the JSON config file.
func ConfigPathJSON() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	if path, err := ConfigPathTOML(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadTOML(cfg, path); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	if path, err := ConfigPathJSON(); err == nil {
		if _, statErr := os.Stat(path); statErr == nil {
			if err := LoadJSON(cfg, path); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finish(cfg)
			}
		}
	}

	cfg, err := finish(cfg)
	if err != nil {
		return nil, err
	}
	// Return defaults (with any load error for informational purposes)
	return cfg, loadErr
}

// dotEnvFile is read from the working directory on every load, reload included.
const dotEnvFile = ".env"

// finish applies .env and environment overrides, defaults and validation.
// Variables already set in the environment win over the .env file.
func finish(cfg *Config) (*Config, error) {
	if err := loadDotEnv(dotEnvFile); err != nil {
		log.Printf("CONFIG_DOTENV_FAILED | err=%v", err)
	}
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// loadDotEnv loads KEY=VALUE pairs from path. A missing file is not an error.
func loadDotEnv(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// LoadTOML decodes a TOML file into cfg.
func LoadTOML(cfg *Config, path string) error {
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON decodes a JSON file into cfg.
func LoadJSON(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from an explicit file path.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if strings.HasSuffix(path, ".json") {
		if err := LoadJSON(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load JSON config from %s: %w", path, err)
		}
	} else {
		if err := LoadTOML(cfg, path); err != nil {
			return nil, fmt.Errorf("failed to load TOML config from %s: %w", path, err)
		}
	}

	return finish(cfg)
}

// SetDefaults fills zero values with defaults.
func (c *Config) SetDefaults() {
	defaults := Default()

	if c.Version == "" {
		c.Version = defaults.Version
	}

	if c.Server.Scheme == "" {
		c.Server.Scheme = defaults.Server.Scheme
	}
	if c.Server.Host == "" {
		c.Server.Host = defaults.Server.Host
	}
	if c.Server.Port == 0 {
		c.Server.Port = defaults.Server.Port
	}
	if c.Server.RequestTimeoutSecs == 0 {
		c.Server.RequestTimeoutSecs = defaults.Server.RequestTimeoutSecs
	}

	if c.Streaming.ChunkSize == 0 {
		c.Streaming.ChunkSize = defaults.Streaming.ChunkSize
	}
	if c.Streaming.IntervalMs == 0 {
		c.Streaming.IntervalMs = defaults.Streaming.IntervalMs
	}
	if c.Streaming.NoResponseTimeoutMs == 0 {
		c.Streaming.NoResponseTimeoutMs = defaults.Streaming.NoResponseTimeoutMs
	}

	if c.UI.Theme == "" {
		c.UI.Theme = defaults.UI.Theme
	}
	if c.UI.SidebarWidth == 0 {
		c.UI.SidebarWidth = defaults.UI.SidebarWidth
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// ValidateErrors is a collection of validation errors.
type ValidateErrors []ValidationError

func (e ValidateErrors) Error() string {
	if len(e) == 0 {
		return "no validation errors"
	}
	var msgs []string
	for _, err := range e {
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

// Validate validates the configuration and returns any errors.
func (c *Config) Validate() error {
	var errs ValidateErrors

	switch strings.ToLower(c.Server.Scheme) {
	case "http", "https":
	default:
		errs = append(errs, ValidationError{
			Field:   "server.scheme",
			Message: fmt.Sprintf("invalid scheme '%s', must be one of: http, https", c.Server.Scheme),
		})
	}

	if strings.ContainsAny(c.Server.Host, "/ ") {
		errs = append(errs, ValidationError{
			Field:   "server.host",
			Message: fmt.Sprintf("invalid host '%s'", c.Server.Host),
		})
	} else if _, err := url.Parse(c.Server.BaseURL()); err != nil {
		errs = append(errs, ValidationError{
			Field:   "server.host",
			Message: fmt.Sprintf("cannot build API URL: %v", err),
		})
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, ValidationError{
			Field:   "server.port",
			Message: fmt.Sprintf("port %d out of range 1-65535", c.Server.Port),
		})
	}

	if c.Server.RequestTimeoutSecs < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.request_timeout_secs",
			Message: "must not be negative",
		})
	}

	if c.Server.RequestsPerSecond < 0 {
		errs = append(errs, ValidationError{
			Field:   "server.requests_per_second",
			Message: "must not be negative",
		})
	}

	if c.Streaming.ChunkSize < 1 {
		errs = append(errs, ValidationError{Field: "streaming.chunk_size", Message: "must be at least 1"})
	}
	if c.Streaming.IntervalMs < 1 {
		errs = append(errs, ValidationError{Field: "streaming.interval_ms", Message: "must be at least 1"})
	}
	if c.Streaming.NoResponseTimeoutMs < c.Streaming.IntervalMs {
		errs = append(errs, ValidationError{
			Field:   "streaming.no_response_timeout_ms",
			Message: "must not be shorter than streaming.interval_ms",
		})
	}

	validThemes := map[string]bool{"dark": true, "light": true, "auto": true}
	if !validThemes[strings.ToLower(c.UI.Theme)] {
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: fmt.Sprintf("invalid theme '%s', must be one of: dark, light, auto", c.UI.Theme),
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides to the config.
//
// Supported environment variables:
//   - COUNSEL_SERVER_HOST: overrides server.host
//   - COUNSEL_SERVER_PORT: overrides server.port
//   - COUNSEL_SERVER_SCHEME: overrides server.scheme
//   - COUNSEL_REQUEST_TIMEOUT: overrides server.request_timeout_secs
//   - COUNSEL_LOG_FILE: overrides log.file
func (c *Config) ApplyEnvOverrides() {
	if host := os.Getenv("COUNSEL_SERVER_HOST"); host != "" {
		c.Server.Host = host
	}

	// Unparseable ports are ignored so Validate reports the configured value.
	if port := os.Getenv("COUNSEL_SERVER_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			c.Server.Port = p
		}
	}

	if scheme := os.Getenv("COUNSEL_SERVER_SCHEME"); scheme != "" {
		c.Server.Scheme = strings.ToLower(scheme)
	}

	if timeout := os.Getenv("COUNSEL_REQUEST_TIMEOUT"); timeout != "" {
		if secs, err := strconv.Atoi(timeout); err == nil {
			c.Server.RequestTimeoutSecs = secs
		}
	}

	if logFile := os.Getenv("COUNSEL_LOG_FILE"); logFile != "" {
		c.Log.File = logFile
	}
}

// =============================================================================
// SINGLETON PATTERN (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance.
// Loads configuration on first access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			// Log but don't fail - use defaults
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
		}
		if cfg == nil {
			cfg = Default()
		}
		globalConfigMu.Lock()
		globalConfig = cfg
		globalConfigMu.Unlock()
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigOnce.Do(func() {})
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state for testing.
// This should only be used in tests to reset state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
