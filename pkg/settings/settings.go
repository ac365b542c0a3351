// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package settings manages the process-wide settings singleton.
//
// Settings start from in-memory defaults, are merged with the persisted
// singleton record on Load, and are written back as a whole on every Save.
// No validation is performed on the API key or base URL; the completion
// client surfaces bad credentials as API errors instead.
package settings

import (
	"context"
	"fmt"
	"sync"

	"github.com/hightemp/openrouter-chat/pkg/store"
)

// Themes understood by the frontend.
const (
	ThemeDark  = "dark"
	ThemeLight = "light"
)

// Default returns the default settings used before anything is persisted.
func Default() store.Settings {
	return store.Settings{
		APIKey: "",
		Theme:  ThemeDark,
	}
}

// =============================================================================
// SETTINGS STORE
// =============================================================================

// Store holds the in-memory settings singleton backed by the database.
// Thread-safe.
type Store struct {
	mu      sync.RWMutex
	db      *store.Store
	current store.Settings
}

// New creates a settings store with default values. Call Load to merge the
// persisted record over the defaults.
func New(db *store.Store) *Store {
	return &Store{
		db:      db,
		current: Default(),
	}
}

// Load merges the persisted singleton over the current in-memory value.
// Persisted fields win; absence of a persisted record leaves the defaults
// in place, so the singleton always exists after first load.
func (s *Store) Load(ctx context.Context) error {
	saved, ok, err := s.db.GetSettings(ctx)
	if err != nil {
		return fmt.Errorf("failed to load settings: %w", err)
	}
	if !ok {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = mergePartial(s.current, partialFromSaved(saved))
	return nil
}

// Partial is a partial settings update. Nil fields are left untouched.
type Partial struct {
	APIKey  *string
	BaseURL *string
	Theme   *string
}

// Save merges the partial into the in-memory singleton and writes the
// merged whole back as the persisted record.
func (s *Store) Save(ctx context.Context, partial Partial) error {
	s.mu.Lock()
	merged := mergePartial(s.current, partial)
	s.current = merged
	s.mu.Unlock()

	if err := s.db.PutSettings(ctx, merged); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// Current returns a copy of the current settings.
func (s *Store) Current() store.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current
}

// mergePartial applies non-nil partial fields over base.
func mergePartial(base store.Settings, partial Partial) store.Settings {
	if partial.APIKey != nil {
		base.APIKey = *partial.APIKey
	}
	if partial.BaseURL != nil {
		base.BaseURL = *partial.BaseURL
	}
	if partial.Theme != nil {
		base.Theme = *partial.Theme
	}
	return base
}

// partialFromSaved converts a persisted record into a partial where every
// field is set, since the persisted record always wins over defaults.
func partialFromSaved(saved *store.Settings) Partial {
	return Partial{
		APIKey:  &saved.APIKey,
		BaseURL: &saved.BaseURL,
		Theme:   &saved.Theme,
	}
}
