// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// settingsRowID is the fixed id of the settings singleton row.
const settingsRowID = 1

// =============================================================================
// SETTINGS OPERATIONS
// =============================================================================

// GetSettings loads the settings singleton. The second return value is
// false when no settings have been persisted yet.
func (s *Store) GetSettings(ctx context.Context) (*Settings, bool, error) {
	var settings Settings
	err := s.db.QueryRowContext(ctx, `
		SELECT api_key, base_url, theme FROM settings WHERE id = ?`, settingsRowID).
		Scan(&settings.APIKey, &settings.BaseURL, &settings.Theme)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to load settings: %w", err)
	}
	return &settings, true, nil
}

// PutSettings writes the settings singleton, replacing any existing row.
func (s *Store) PutSettings(ctx context.Context, settings Settings) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO settings (id, api_key, base_url, theme)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			api_key = excluded.api_key,
			base_url = excluded.base_url,
			theme = excluded.theme`,
		settingsRowID, settings.APIKey, settings.BaseURL, settings.Theme)
	if err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}
