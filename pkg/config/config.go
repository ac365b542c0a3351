// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides bootstrap configuration for the chat client.
//
// This is deployment configuration (where the database lives, which model
// new chats default to) loaded once at startup from a TOML file. Runtime
// user settings (API key, base URL, theme) live in the database singleton
// managed by the settings package.
//
// Configuration file location: ~/.openrouter-chat/config.toml, with
// built-in defaults when absent.
package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURE
// =============================================================================

// Config represents the bootstrap configuration.
type Config struct {
	// DataDir is the directory holding the database and related files.
	DataDir string `toml:"data_dir"`

	// DatabaseFile is the database file name inside DataDir.
	DatabaseFile string `toml:"database_file"`

	// DefaultModel is the model assigned to newly created chats.
	DefaultModel string `toml:"default_model"`

	// BaseURL is the completion API base URL.
	BaseURL string `toml:"base_url"`

	// Theme is the initial UI theme before settings are loaded: "dark" or "light".
	Theme string `toml:"theme"`
}

// Default returns a Config with sensible default values.
func Default() *Config {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return &Config{
		DataDir:      filepath.Join(home, ".openrouter-chat"),
		DatabaseFile: "chat.db",
		DefaultModel: "openai/gpt-3.5-turbo",
		BaseURL:      "https://openrouter.ai/api/v1",
		Theme:        "dark",
	}
}

// DatabasePath returns the full path of the database file.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.DataDir, c.DatabaseFile)
}

// =============================================================================
// PATH HELPERS
// =============================================================================

// Dir returns the configuration directory path.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("could not determine home directory: %w", err)
	}
	return filepath.Join(home, ".openrouter-chat"), nil
}

// Path returns the path to the TOML config file.
func Path() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.toml"), nil
}

// =============================================================================
// LOAD / SAVE
// =============================================================================

// Load loads configuration from the default config file, falling back to
// defaults when the file does not exist.
func Load() (*Config, error) {
	path, err := Path()
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(path); err != nil {
		cfg := Default()
		return cfg, cfg.Validate()
	}
	return LoadFromPath(path)
}

// LoadFromPath loads configuration from a specific TOML file, fills in
// defaults for absent keys, and validates the result.
func LoadFromPath(path string) (*Config, error) {
	cfg := &Config{}
	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("failed to decode TOML file: %w", err)
	}

	cfg.fillDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// fillDefaults fills in any missing values with defaults.
func (c *Config) fillDefaults() {
	defaults := Default()

	if c.DataDir == "" {
		c.DataDir = defaults.DataDir
	}
	if c.DatabaseFile == "" {
		c.DatabaseFile = defaults.DatabaseFile
	}
	if c.DefaultModel == "" {
		c.DefaultModel = defaults.DefaultModel
	}
	if c.BaseURL == "" {
		c.BaseURL = defaults.BaseURL
	}
	if c.Theme == "" {
		c.Theme = defaults.Theme
	}
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.BaseURL != "" {
		if _, err := url.Parse(c.BaseURL); err != nil {
			return fmt.Errorf("base_url: invalid URL: %v", err)
		}
	}

	theme := strings.ToLower(c.Theme)
	if theme != "dark" && theme != "light" {
		return fmt.Errorf("theme: invalid theme %q, must be one of: dark, light", c.Theme)
	}
	return nil
}

// Save writes the configuration to the given TOML file.
// Config files are created with 0600 permissions since the data directory
// location may be considered sensitive.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("failed to create config file: %w", err)
	}
	defer file.Close()

	fmt.Fprintln(file, "# openrouter-chat configuration file")
	fmt.Fprintln(file, "# Generated - edit with care")
	fmt.Fprintln(file, "")

	encoder := toml.NewEncoder(file)
	if err := encoder.Encode(c); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	return nil
}

// =============================================================================
// GLOBAL ACCESSOR (THREAD-SAFE)
// =============================================================================

var (
	globalConfig     *Config
	globalConfigOnce sync.Once
	globalConfigMu   sync.RWMutex
)

// Global returns the global configuration instance, loading it on first
// access. Thread-safe.
func Global() *Config {
	globalConfigOnce.Do(func() {
		cfg, err := Load()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v (using defaults)\n", err)
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
	globalConfigMu.Lock()
	defer globalConfigMu.Unlock()
	globalConfig = cfg
}
