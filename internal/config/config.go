// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading and management for
// kimi-tui.
//
// Supports both TOML and JSON configuration formats, with sensible defaults,
// environment variable overrides, and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.kimi-tui/config.toml
//   - ~/.kimi-tui/config.json
//   - Built-in defaults
//
// The access token is never stored here; it lives encrypted in the secrets
// vault.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"

	"github.com/jeranaias/kimi-tui/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete kimi-tui configuration.
type Config struct {
	Version string `toml:"version" json:"version"`

	// API endpoint and caller identity
	API APIConfig `toml:"api" json:"api"`

	// Chat behavior
	Chat ChatConfig `toml:"chat" json:"chat"`

	// UI configuration
	UI UIConfig `toml:"ui" json:"ui"`
}

// APIConfig contains endpoint and caller-identity configuration.
type APIConfig struct {
	// BaseURL is the direct API endpoint.
	BaseURL string `toml:"base_url" json:"base_url"`
	// ProxyEndpoint is the local proxy base when UseProxy is set.
	ProxyEndpoint string `toml:"proxy_endpoint" json:"proxy_endpoint"`
	// UseProxy routes requests through the local proxy.
	UseProxy bool `toml:"use_proxy" json:"use_proxy"`

	// DeviceID, SessionID, and TrafficID are issued with the access token
	// and sent verbatim as request headers.
	DeviceID  string `toml:"device_id" json:"device_id"`
	SessionID string `toml:"session_id" json:"session_id"`
	TrafficID string `toml:"traffic_id" json:"traffic_id"`

	// Language is the x-language header value.
	Language string `toml:"language" json:"language"`
	// Timezone is the r-timezone header value, an IANA zone name.
	Timezone string `toml:"timezone" json:"timezone"`
}

// ChatConfig contains chat behavior configuration.
type ChatConfig struct {
	// Model selects the reasoning ("k1") or standard ("kimi") model.
	Model string `toml:"model" json:"model"`
	// UseSearch enables web search.
	UseSearch bool `toml:"use_search" json:"use_search"`
	// UseResearch enables research mode.
	UseResearch bool `toml:"use_research" json:"use_research"`
}

// UIConfig contains presentation configuration.
type UIConfig struct {
	// Theme is "auto", "dark", or "light".
	Theme string `toml:"theme" json:"theme"`
	// WordWrap is the render width in columns. 0 uses the terminal width.
	WordWrap int `toml:"word_wrap" json:"word_wrap"`
	// ShowThinking renders the reasoning section of responses.
	ShowThinking bool `toml:"show_thinking" json:"show_thinking"`
	// ShowCitations renders the search citations panel.
	ShowCitations bool `toml:"show_citations" json:"show_citations"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns a configuration with built-in defaults.
func Default() *Config {
	return &Config{
		Version: "1",
		API: APIConfig{
			BaseURL:       "https://kimi.moonshot.cn/api",
			ProxyEndpoint: "http://localhost:3000/kimi-proxy",
			Language:      "en-US",
			Timezone:      "UTC",
		},
		Chat: ChatConfig{
			Model:     "k1",
			UseSearch: true,
		},
		UI: UIConfig{
			Theme:         "auto",
			WordWrap:      0,
			ShowThinking:  true,
			ShowCitations: true,
		},
	}
}

// =============================================================================
// PATHS
// =============================================================================

// ConfigDir returns the kimi-tui configuration directory.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".kimi-tui"), nil
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

// ensureSecurePermissions checks and fixes permissions on config files.
// Config files should be 0600 since they carry caller identity values.
func ensureSecurePermissions(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if mode := info.Mode().Perm(); mode != 0600 {
		if err := os.Chmod(path, 0600); err != nil {
			return fmt.Errorf("failed to fix insecure permissions (was %o): %w", mode, err)
		}
	}
	return nil
}

// =============================================================================
// LOAD FUNCTIONS
// =============================================================================

// Load loads configuration from the config file(s).
// Tries TOML first, then JSON, and falls back to defaults.
// Environment overrides are applied last.
func Load() (*Config, error) {
	cfg := Default()
	var loadErr error

	tomlPath, err := ConfigPathTOML()
	if err == nil {
		if _, statErr := os.Stat(tomlPath); statErr == nil {
			if err := LoadTOML(cfg, tomlPath); err != nil {
				loadErr = fmt.Errorf("failed to load TOML config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	jsonPath, err := ConfigPathJSON()
	if err == nil {
		if _, statErr := os.Stat(jsonPath); statErr == nil {
			if err := LoadJSON(cfg, jsonPath); err != nil {
				loadErr = fmt.Errorf("failed to load JSON config: %w", err)
			} else {
				return finishLoad(cfg)
			}
		}
	}

	cfg, err = finishLoad(cfg)
	if err != nil {
		return nil, err
	}
	return cfg, loadErr
}

// finishLoad applies overrides, fills gaps, and validates.
func finishLoad(cfg *Config) (*Config, error) {
	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// LoadTOML loads configuration from a TOML file.
func LoadTOML(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return fmt.Errorf("failed to decode TOML file: %w", err)
	}
	return nil
}

// LoadJSON loads configuration from a JSON file.
func LoadJSON(cfg *Config, path string) error {
	if err := ensureSecurePermissions(path); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read JSON file: %w", err)
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("failed to decode JSON file: %w", err)
	}
	return nil
}

// LoadFromPath loads configuration from a specific file path with full
// validation.
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

	return finishLoad(cfg)
}

// =============================================================================
// SAVE FUNCTIONS
// =============================================================================

// Save saves the configuration to the default TOML path.
func Save(cfg *Config) error {
	path, err := ConfigPathTOML()
	if err != nil {
		return err
	}
	return SaveTOML(cfg, path)
}

// SaveTOML saves the configuration to a TOML file. The write is atomic and
// the file is created 0600.
func SaveTOML(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf strings.Builder
	buf.WriteString("# kimi-tui configuration file\n")
	buf.WriteString("# Generated by kimi-tui - edit with care\n")
	buf.WriteString("\n")

	encoder := toml.NewEncoder(&buf)
	if err := encoder.Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, []byte(buf.String()), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// SaveJSON saves the configuration to a JSON file atomically with 0600.
func SaveJSON(cfg *Config, path string) error {
	if err := EnsureConfigDir(); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
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

	if _, err := url.Parse(c.API.BaseURL); err != nil || c.API.BaseURL == "" {
		errs = append(errs, ValidationError{
			Field:   "api.base_url",
			Message: "must be a valid URL",
		})
	}
	if c.API.UseProxy {
		if _, err := url.Parse(c.API.ProxyEndpoint); err != nil || c.API.ProxyEndpoint == "" {
			errs = append(errs, ValidationError{
				Field:   "api.proxy_endpoint",
				Message: "must be a valid URL when use_proxy is set",
			})
		}
	}

	switch c.Chat.Model {
	case "k1", "kimi":
	default:
		errs = append(errs, ValidationError{
			Field:   "chat.model",
			Message: `must be "k1" or "kimi"`,
		})
	}

	switch c.UI.Theme {
	case "auto", "dark", "light":
	default:
		errs = append(errs, ValidationError{
			Field:   "ui.theme",
			Message: `must be "auto", "dark", or "light"`,
		})
	}
	if c.UI.WordWrap < 0 || c.UI.WordWrap > 500 {
		errs = append(errs, ValidationError{
			Field:   "ui.word_wrap",
			Message: "must be between 0 and 500",
		})
	}

	if len(errs) > 0 {
		return errs
	}
	return nil
}

// SetDefaults fills zero values with defaults. Booleans stay as loaded.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.API.BaseURL == "" {
		c.API.BaseURL = def.API.BaseURL
	}
	if c.API.ProxyEndpoint == "" {
		c.API.ProxyEndpoint = def.API.ProxyEndpoint
	}
	if c.API.Language == "" {
		c.API.Language = def.API.Language
	}
	if c.API.Timezone == "" {
		c.API.Timezone = def.API.Timezone
	}
	if c.Chat.Model == "" {
		c.Chat.Model = def.Chat.Model
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies KIMI_* environment variables on top of the
// loaded configuration.
func (c *Config) ApplyEnvOverrides() {
	if v := os.Getenv("KIMI_BASE_URL"); v != "" {
		c.API.BaseURL = v
	}
	if v := os.Getenv("KIMI_PROXY_ENDPOINT"); v != "" {
		c.API.ProxyEndpoint = v
	}
	if v := os.Getenv("KIMI_USE_PROXY"); v != "" {
		c.API.UseProxy = isTruthy(v)
	}
	if v := os.Getenv("KIMI_DEVICE_ID"); v != "" {
		c.API.DeviceID = v
	}
	if v := os.Getenv("KIMI_SESSION_ID"); v != "" {
		c.API.SessionID = v
	}
	if v := os.Getenv("KIMI_TRAFFIC_ID"); v != "" {
		c.API.TrafficID = v
	}
	if v := os.Getenv("KIMI_LANGUAGE"); v != "" {
		c.API.Language = v
	}
	if v := os.Getenv("KIMI_TIMEZONE"); v != "" {
		c.API.Timezone = v
	}
	if v := os.Getenv("KIMI_MODEL"); v != "" {
		c.Chat.Model = v
	}
	if v := os.Getenv("KIMI_SEARCH"); v != "" {
		c.Chat.UseSearch = isTruthy(v)
	}
	if v := os.Getenv("KIMI_RESEARCH"); v != "" {
		c.Chat.UseResearch = isTruthy(v)
	}
	if v := os.Getenv("KIMI_THEME"); v != "" {
		c.UI.Theme = v
	}
}

func isTruthy(v string) bool {
	return v == "1" || strings.EqualFold(v, "true")
}

// =============================================================================
// GET/SET HELPERS (DOT NOTATION)
// =============================================================================

// ErrUnknownKey indicates a dot-notation key that does not exist.
var ErrUnknownKey = errors.New("unknown config key")

// Get retrieves a configuration value using dot notation
// (e.g. "chat.model").
func (c *Config) Get(key string) (any, error) {
	switch key {
	case "api.base_url":
		return c.API.BaseURL, nil
	case "api.proxy_endpoint":
		return c.API.ProxyEndpoint, nil
	case "api.use_proxy":
		return c.API.UseProxy, nil
	case "api.device_id":
		return c.API.DeviceID, nil
	case "api.session_id":
		return c.API.SessionID, nil
	case "api.traffic_id":
		return c.API.TrafficID, nil
	case "api.language":
		return c.API.Language, nil
	case "api.timezone":
		return c.API.Timezone, nil
	case "chat.model":
		return c.Chat.Model, nil
	case "chat.use_search":
		return c.Chat.UseSearch, nil
	case "chat.use_research":
		return c.Chat.UseResearch, nil
	case "ui.theme":
		return c.UI.Theme, nil
	case "ui.word_wrap":
		return c.UI.WordWrap, nil
	case "ui.show_thinking":
		return c.UI.ShowThinking, nil
	case "ui.show_citations":
		return c.UI.ShowCitations, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownKey, key)
}

// Set updates a configuration value using dot notation. String values are
// parsed for bool and int fields.
func (c *Config) Set(key, value string) error {
	switch key {
	case "api.base_url":
		c.API.BaseURL = value
	case "api.proxy_endpoint":
		c.API.ProxyEndpoint = value
	case "api.use_proxy":
		c.API.UseProxy = isTruthy(value)
	case "api.device_id":
		c.API.DeviceID = value
	case "api.session_id":
		c.API.SessionID = value
	case "api.traffic_id":
		c.API.TrafficID = value
	case "api.language":
		c.API.Language = value
	case "api.timezone":
		c.API.Timezone = value
	case "chat.model":
		c.Chat.Model = value
	case "chat.use_search":
		c.Chat.UseSearch = isTruthy(value)
	case "chat.use_research":
		c.Chat.UseResearch = isTruthy(value)
	case "ui.theme":
		c.UI.Theme = value
	case "ui.word_wrap":
		n := 0
		if _, err := fmt.Sscanf(value, "%d", &n); err != nil {
			return fmt.Errorf("ui.word_wrap: %w", err)
		}
		c.UI.WordWrap = n
	case "ui.show_thinking":
		c.UI.ShowThinking = isTruthy(value)
	case "ui.show_citations":
		c.UI.ShowCitations = isTruthy(value)
	default:
		return fmt.Errorf("%w: %s", ErrUnknownKey, key)
	}
	return c.Validate()
}

// Keys returns every dot-notation key Get understands.
func Keys() []string {
	return []string{
		"api.base_url", "api.proxy_endpoint", "api.use_proxy",
		"api.device_id", "api.session_id", "api.traffic_id",
		"api.language", "api.timezone",
		"chat.model", "chat.use_search", "chat.use_research",
		"ui.theme", "ui.word_wrap", "ui.show_thinking", "ui.show_citations",
	}
}

// =============================================================================
// GLOBAL CONFIG
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
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
			cfg = Default()
		}
		globalConfig = cfg
	})

	globalConfigMu.RLock()
	defer globalConfigMu.RUnlock()
	return globalConfig
}

// ReloadGlobal reloads the global configuration from disk. Thread-safe.
func ReloadGlobal() error {
	cfg, err := Load()
	if err != nil {
		return err
	}
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
	return nil
}

// SetGlobal sets the global configuration instance. Thread-safe.
func SetGlobal(cfg *Config) {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}

// ResetGlobalForTesting resets the global config state between test runs.
func ResetGlobalForTesting() {
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = nil
	globalConfigOnce = sync.Once{}
}
