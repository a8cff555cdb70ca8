// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"bytes"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	"github.com/Onrion/t3-cloneathon/internal/util"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config is the complete t3chat configuration.
type Config struct {
	Version string `toml:"version"`

	// Offline runs everything against in-memory backends: no identity
	// provider, no document store, no completion endpoint.
	Offline bool `toml:"offline"`

	Identity   IdentityConfig   `toml:"identity"`
	Store      StoreConfig      `toml:"store"`
	Completion CompletionConfig `toml:"completion"`
	UI         UIConfig         `toml:"ui"`
	Log        LogConfig        `toml:"log"`
}

// IdentityConfig points at the hosted identity service.
type IdentityConfig struct {
	// BaseURL is the identity service endpoint.
	BaseURL string `toml:"base_url"`
	// APIKey authenticates this app to the identity service. Usually
	// injected via T3CHAT_IDENTITY_KEY rather than stored on disk.
	APIKey string `toml:"api_key"`
	// SessionToken, when present, resolves the previous identity
	// instead of minting a new anonymous one.
	SessionToken string `toml:"session_token"`
}

// StoreConfig points at the hosted document store.
type StoreConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	// AppID is the tenant partition all documents live under.
	AppID string `toml:"app_id"`
}

// CompletionConfig points at the completion endpoint.
type CompletionConfig struct {
	BaseURL string `toml:"base_url"`
	APIKey  string `toml:"api_key"`
	// Model is the completion model name.
	Model string `toml:"model"`
	// TimeoutSecs bounds one completion request.
	TimeoutSecs int `toml:"timeout_secs"`
}

// UIConfig contains terminal UI settings.
type UIConfig struct {
	// Theme selects the color theme: "dark" or "light".
	Theme string `toml:"theme"`
	// Markdown renders model replies as markdown when true.
	Markdown bool `toml:"markdown"`
	// SidebarWidth is the thread sidebar width in columns.
	SidebarWidth int `toml:"sidebar_width"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	// Path is the log file location (empty = ~/.t3chat/t3chat.log).
	Path string `toml:"path"`
	// Debug lowers the log level to Debug.
	Debug bool `toml:"debug"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		Version: "1.0",
		Identity: IdentityConfig{
			BaseURL: "https://identitytoolkit.googleapis.com",
		},
		Store: StoreConfig{
			BaseURL: "https://firestore.googleapis.com",
			AppID:   "t3chat",
		},
		Completion: CompletionConfig{
			BaseURL:     "https://generativelanguage.googleapis.com/v1beta",
			Model:       "gemini-2.0-flash",
			TimeoutSecs: 60,
		},
		UI: UIConfig{
			Theme:        "dark",
			Markdown:     true,
			SidebarWidth: 28,
		},
	}
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	def := Default()
	if c.Version == "" {
		c.Version = def.Version
	}
	if c.Identity.BaseURL == "" {
		c.Identity.BaseURL = def.Identity.BaseURL
	}
	if c.Store.BaseURL == "" {
		c.Store.BaseURL = def.Store.BaseURL
	}
	if c.Store.AppID == "" {
		c.Store.AppID = def.Store.AppID
	}
	if c.Completion.BaseURL == "" {
		c.Completion.BaseURL = def.Completion.BaseURL
	}
	if c.Completion.Model == "" {
		c.Completion.Model = def.Completion.Model
	}
	if c.Completion.TimeoutSecs <= 0 {
		c.Completion.TimeoutSecs = def.Completion.TimeoutSecs
	}
	if c.UI.Theme == "" {
		c.UI.Theme = def.UI.Theme
	}
	if c.UI.SidebarWidth <= 0 {
		c.UI.SidebarWidth = def.UI.SidebarWidth
	}
}

// =============================================================================
// CONFIG PATH HELPERS
// =============================================================================

// ConfigDir returns the t3chat configuration directory path.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".t3chat"), nil
}

// ConfigPath returns the path to the TOML config file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "t3chat.log"), nil
}

// EnsureConfigDir ensures the config directory exists.
func EnsureConfigDir() error {
	dir, err := ConfigDir()
	if err != nil {
		return err
	}
	return os.MkdirAll(dir, 0755)
}

// ensureSecurePermissions tightens permissions on config files.
// They hold API keys, so anything wider than 0600 gets fixed.
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
// LOAD / SAVE
// =============================================================================

// Load loads configuration from ~/.t3chat/config.toml, falling back to
// defaults when the file is absent. Environment overrides are applied
// last, then the result is validated.
func Load() (*Config, error) {
	path, err := ConfigPath()
	if err != nil {
		return nil, err
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from an explicit file path. A
// missing file is not an error; the defaults are used.
func LoadFromPath(path string) (*Config, error) {
	cfg := Default()

	if _, err := os.Stat(path); err == nil {
		if err := ensureSecurePermissions(path); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not ensure secure permissions on %s: %v\n", path, err)
		}
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file: %w", err)
		}
	}

	cfg.ApplyEnvOverrides()
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Save writes the configuration to ~/.t3chat/config.toml.
func Save(cfg *Config) error {
	path, err := ConfigPath()
	if err != nil {
		return err
	}
	return SaveToPath(cfg, path)
}

// SaveToPath writes the configuration to an explicit path. The write is
// atomic and the file is created 0600 since it may hold API keys.
func SaveToPath(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var buf bytes.Buffer
	fmt.Fprintln(&buf, "# t3chat configuration file")
	fmt.Fprintln(&buf, "")
	if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := util.AtomicWriteFile(path, buf.Bytes(), 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// =============================================================================
// VALIDATION
// =============================================================================

// ValidationError describes a single invalid configuration field.
type ValidationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks the configuration for invalid values.
func (c *Config) Validate() error {
	if !c.Offline {
		for _, ep := range []struct {
			field string
			value string
		}{
			{"identity.base_url", c.Identity.BaseURL},
			{"store.base_url", c.Store.BaseURL},
			{"completion.base_url", c.Completion.BaseURL},
		} {
			u, err := url.Parse(ep.value)
			if err != nil || u.Scheme == "" || u.Host == "" {
				return ValidationError{Field: ep.field, Message: "must be a valid URL"}
			}
		}
	}
	if c.UI.Theme != "dark" && c.UI.Theme != "light" {
		return ValidationError{Field: "ui.theme", Message: `must be "dark" or "light"`}
	}
	if c.Completion.TimeoutSecs < 0 {
		return ValidationError{Field: "completion.timeout_secs", Message: "must not be negative"}
	}
	if c.UI.SidebarWidth < 0 {
		return ValidationError{Field: "ui.sidebar_width", Message: "must not be negative"}
	}
	return nil
}

// =============================================================================
// ENVIRONMENT OVERRIDES
// =============================================================================

// ApplyEnvOverrides applies environment variable overrides.
//
// Supported environment variables:
//   - T3CHAT_API_KEY: overrides completion.api_key
//   - T3CHAT_MODEL: overrides completion.model
//   - T3CHAT_STORE_URL / T3CHAT_STORE_KEY: override the store endpoint
//   - T3CHAT_IDENTITY_URL / T3CHAT_IDENTITY_KEY: override the identity endpoint
//   - T3CHAT_OFFLINE: "1" or "true" enables offline mode
//   - T3CHAT_DEBUG: "1" or "true" enables debug logging
func (c *Config) ApplyEnvOverrides() {
	if key := os.Getenv("T3CHAT_API_KEY"); key != "" {
		c.Completion.APIKey = key
	}
	if model := os.Getenv("T3CHAT_MODEL"); model != "" {
		c.Completion.Model = model
	}
	if u := os.Getenv("T3CHAT_STORE_URL"); u != "" {
		c.Store.BaseURL = u
	}
	if key := os.Getenv("T3CHAT_STORE_KEY"); key != "" {
		c.Store.APIKey = key
	}
	if u := os.Getenv("T3CHAT_IDENTITY_URL"); u != "" {
		c.Identity.BaseURL = u
	}
	if key := os.Getenv("T3CHAT_IDENTITY_KEY"); key != "" {
		c.Identity.APIKey = key
	}
	if offline := os.Getenv("T3CHAT_OFFLINE"); offline != "" {
		c.Offline = isTruthy(offline)
	}
	if debug := os.Getenv("T3CHAT_DEBUG"); debug != "" {
		c.Log.Debug = isTruthy(debug)
	}
}

func isTruthy(s string) bool {
	return s == "1" || strings.EqualFold(s, "true")
}
