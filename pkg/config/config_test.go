// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.Equal(t, "chat.db", cfg.DatabaseFile)
	assert.Equal(t, "openai/gpt-3.5-turbo", cfg.DefaultModel)
	assert.Equal(t, "https://openrouter.ai/api/v1", cfg.BaseURL)
	assert.Equal(t, "dark", cfg.Theme)
	assert.NoError(t, cfg.Validate())
	assert.Equal(t, filepath.Join(cfg.DataDir, "chat.db"), cfg.DatabasePath())
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")

	cfg := &Config{
		DataDir:      "/tmp/chat-data",
		DatabaseFile: "other.db",
		DefaultModel: "anthropic/claude-3.5-sonnet",
		BaseURL:      "https://example.test/v1",
		Theme:        "light",
	}
	require.NoError(t, cfg.Save(path))

	loaded, err := LoadFromPath(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)

	// Config files hold a data directory path; keep them private.
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
}

func TestLoadFromPath_FillsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte("default_model = \"openai/gpt-4o\"\n"), 0600))

	cfg, err := LoadFromPath(path)
	require.NoError(t, err)

	assert.Equal(t, "openai/gpt-4o", cfg.DefaultModel)
	assert.Equal(t, Default().DatabaseFile, cfg.DatabaseFile)
	assert.Equal(t, Default().BaseURL, cfg.BaseURL)
	assert.Equal(t, Default().Theme, cfg.Theme)
}

func TestValidate_RejectsUnknownTheme(t *testing.T) {
	cfg := Default()
	cfg.Theme = "solarized"

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "theme")
}

func TestWatch_ReloadsOnChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	require.NoError(t, Default().Save(path))

	changed := make(chan *Config, 1)
	w, err := Watch(path, func(cfg *Config) {
		select {
		case changed <- cfg:
		default:
		}
	})
	require.NoError(t, err)
	defer w.Close()

	updated := Default()
	updated.DefaultModel = "anthropic/claude-3.5-sonnet"
	require.NoError(t, updated.Save(path))

	select {
	case cfg := <-changed:
		assert.Equal(t, "anthropic/claude-3.5-sonnet", cfg.DefaultModel)
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
	}
}
