// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/daryllundy/chatgpt-exporter/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete exporter configuration.
type Config struct {
	// API configuration
	API APIConfig `toml:"api" json:"api"`

	// Export configuration
	Export ExportConfig `toml:"export" json:"export"`

	// History configuration
	History HistoryConfig `toml:"history" json:"history"`
}

// APIConfig controls access to the conversation backend.
type APIConfig struct {
	// BaseURL is the backend API root.
	BaseURL string `toml:"base_url" json:"base_url"`
	// AccessToken is the bearer token. Usually supplied via the
	// CHATGPT_EXPORTER_TOKEN environment variable rather than the
	// file.
	AccessToken string `toml:"access_token" json:"access_token"`
	// TimeoutSecs is the per-request timeout in seconds.
	TimeoutSecs int `toml:"timeout_secs" json:"timeout_secs"`
	// MaxRetries is the retry count for transient failures.
	MaxRetries int `toml:"max_retries" json:"max_retries"`
	// RequestsPerSecond rate-limits API calls. Values above 10 are
	// clamped to stay polite to the backend.
	RequestsPerSecond float64 `toml:"requests_per_second" json:"requests_per_second"`
}

// ExportConfig holds per-run defaults the CLI flags can override.
type ExportConfig struct {
	// Formats selects the artifact types: json, markdown, html.
	Formats []string `toml:"formats" json:"formats"`
	// OutputDir is where finished archives are written.
	OutputDir string `toml:"output_dir" json:"output_dir"`
	// Template names artifact files. Tokens: {date}, {title}, {id}.
	Template string `toml:"template" json:"template"`
}

// HistoryConfig controls the durable run log.
type HistoryConfig struct {
	// Enabled toggles run recording.
	Enabled bool `toml:"enabled" json:"enabled"`
	// Path overrides the database location (empty = default
	// ~/.chatgpt-exporter/history.db).
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		API: APIConfig{
			BaseURL:           "https://chatgpt.com/backend-api",
			TimeoutSecs:       30,
			MaxRetries:        3,
			RequestsPerSecond: 2,
		},
		Export: ExportConfig{
			Formats:   []string{"json", "markdown", "html"},
			OutputDir: ".",
			Template:  "{date}_{title}",
		},
		History: HistoryConfig{
			Enabled: true,
		},
	}
}

// ValidFormats lists the renderers the export config may select.
var ValidFormats = []string{"json", "markdown", "html"}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the exporter's configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".chatgpt-exporter"), nil
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

// EnsureConfigDir creates the configuration directory if needed.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0o700)
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads the configuration from the default locations.
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			return LoadFromPath(tomlPath)
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			return LoadFromPath(jsonPath)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadFromPath loads configuration from a specific file with full
// validation. JSON is detected by extension; everything else is
// treated as TOML.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}

	if strings.HasSuffix(path, ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode JSON config %s: %w", path, err)
		}
	} else {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode TOML config %s: %w", path, err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults and clamps
// out-of-range numbers.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.API.BaseURL == "" {
		c.API.BaseURL = defaults.API.BaseURL
	}
	if c.API.TimeoutSecs <= 0 {
		c.API.TimeoutSecs = defaults.API.TimeoutSecs
	}
	if c.API.MaxRetries < 0 {
		c.API.MaxRetries = defaults.API.MaxRetries
	}
	if c.API.RequestsPerSecond <= 0 {
		c.API.RequestsPerSecond = defaults.API.RequestsPerSecond
	}
	if c.API.RequestsPerSecond > 10 {
		c.API.RequestsPerSecond = 10
	}

	if len(c.Export.Formats) == 0 {
		c.Export.Formats = defaults.Export.Formats
	}
	if c.Export.OutputDir == "" {
		c.Export.OutputDir = defaults.Export.OutputDir
	}
	if c.Export.Template == "" {
		c.Export.Template = defaults.Export.Template
	}
}

// ApplyEnvOverrides applies environment variable overrides. Variables
// always win over file values.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("CHATGPT_EXPORTER_TOKEN"); v != "" {
		c.API.AccessToken = v
	}
	if v := os.Getenv("CHATGPT_EXPORTER_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("CHATGPT_EXPORTER_OUTPUT"); v != "" {
		c.Export.OutputDir = v
	}
	if v := os.Getenv("CHATGPT_EXPORTER_FORMATS"); v != "" {
		c.Export.Formats = splitFormats(v)
	}
}

func splitFormats(s string) []string {
	var out []string
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(strings.ToLower(f))
		if f != "" {
			out = append(out, f)
		}
	}
	return out
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes one invalid field.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.API.BaseURL, "http://") && !strings.HasPrefix(c.API.BaseURL, "https://") {
		return ValidationError{Field: "api.base_url", Message: "must be an http(s) URL"}
	}
	for _, f := range c.Export.Formats {
		if !isValidFormat(f) {
			return ValidationError{
				Field:   "export.formats",
				Message: fmt.Sprintf("unknown format %q (valid: %s)", f, strings.Join(ValidFormats, ", ")),
			}
		}
	}
	return nil
}

func isValidFormat(f string) bool {
	for _, v := range ValidFormats {
		if f == v {
			return true
		}
	}
	return false
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML file.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML writes the configuration as TOML. The file carries the
// access token, so it is created owner-only.
func SaveTOML(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var sb strings.Builder
	sb.WriteString("# chatgpt-exporter configuration file\n")
	sb.WriteString("# Edit with care; run `chatgpt-exporter config show` to inspect.\n\n")
	if err := toml.NewEncoder(&sb).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(sb.String()), 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// KEY ACCESS
// =============================================================================

// Get returns one configuration value by dotted key.
func (c *Config) Get(key string) (string, error) {
	switch key {
	case "api.base_url":
		return c.API.BaseURL, nil
	case "api.access_token":
		if c.API.AccessToken == "" {
			return "", nil
		}
		return "(set)", nil
	case "api.timeout_secs":
		return strconv.Itoa(c.API.TimeoutSecs), nil
	case "api.max_retries":
		return strconv.Itoa(c.API.MaxRetries), nil
	case "api.requests_per_second":
		return strconv.FormatFloat(c.API.RequestsPerSecond, 'f', -1, 64), nil
	case "export.formats":
		return strings.Join(c.Export.Formats, ","), nil
	case "export.output_dir":
		return c.Export.OutputDir, nil
	case "export.template":
		return c.Export.Template, nil
	case "history.enabled":
		return strconv.FormatBool(c.History.Enabled), nil
	case "history.path":
		return c.History.Path, nil
	default:
		return "", fmt.Errorf("unknown config key %q", key)
	}
}

// Set updates one configuration value by dotted key. The value is
// validated before the config is considered changed.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api.base_url":
		c.API.BaseURL = value
	case "api.access_token":
		c.API.AccessToken = value
	case "api.timeout_secs":
		n, err := strconv.Atoi(value)
		if err != nil || n <= 0 {
			return ValidationError{Field: key, Message: "must be a positive integer"}
		}
		c.API.TimeoutSecs = n
	case "api.max_retries":
		n, err := strconv.Atoi(value)
		if err != nil || n < 0 {
			return ValidationError{Field: key, Message: "must be a non-negative integer"}
		}
		c.API.MaxRetries = n
	case "api.requests_per_second":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil || f <= 0 {
			return ValidationError{Field: key, Message: "must be a positive number"}
		}
		c.API.RequestsPerSecond = f
	case "export.formats":
		c.Export.Formats = splitFormats(value)
	case "export.output_dir":
		c.Export.OutputDir = value
	case "export.template":
		c.Export.Template = value
	case "history.enabled":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return ValidationError{Field: key, Message: "must be true or false"}
		}
		c.History.Enabled = b
	case "history.path":
		c.History.Path = value
	default:
		return fmt.Errorf("unknown config key %q", key)
	}
	c.fillDefaults()
	return c.Validate()
}

// Keys lists every settable configuration key.
func Keys() []string {
	return []string{
		"api.base_url",
		"api.access_token",
		"api.timeout_secs",
		"api.max_retries",
		"api.requests_per_second",
		"export.formats",
		"export.output_dir",
		"export.template",
		"history.enabled",
		"history.path",
	}
}
