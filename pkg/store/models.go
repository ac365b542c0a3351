// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hightemp/openrouter-chat/pkg/openrouter"
)

// =============================================================================
// MODELS CACHE OPERATIONS
// =============================================================================

// CachedModels returns the cached model catalog, in insertion order.
func (s *Store) CachedModels(ctx context.Context) ([]openrouter.ModelInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, description, context_length, pricing_prompt, pricing_completion
		FROM models_cache ORDER BY rowid ASC`)
	if err != nil {
		return nil, fmt.Errorf("failed to load models cache: %w", err)
	}
	defer rows.Close()

	var models []openrouter.ModelInfo
	for rows.Next() {
		var (
			m             openrouter.ModelInfo
			description   sql.NullString
			contextLength sql.NullInt64
			prompt        sql.NullString
			completion    sql.NullString
		)
		if err := rows.Scan(&m.ID, &m.Name, &description, &contextLength, &prompt, &completion); err != nil {
			return nil, fmt.Errorf("failed to scan cached model: %w", err)
		}
		m.Description = description.String
		m.ContextLength = int(contextLength.Int64)
		if prompt.Valid || completion.Valid {
			m.Pricing = &openrouter.Pricing{Prompt: prompt.String, Completion: completion.String}
		}
		models = append(models, m)
	}
	return models, rows.Err()
}

// ReplaceModels atomically clears the models cache and inserts the given
// catalog. No merge is performed; the cache always mirrors the last
// successful refresh.
func (s *Store) ReplaceModels(ctx context.Context, models []openrouter.ModelInfo) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM models_cache`); err != nil {
		return fmt.Errorf("failed to clear models cache: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO models_cache (id, name, description, context_length, pricing_prompt, pricing_completion)
		VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare cache insert: %w", err)
	}
	defer stmt.Close()

	for _, m := range models {
		var prompt, completion sql.NullString
		if m.Pricing != nil {
			prompt = sql.NullString{String: m.Pricing.Prompt, Valid: true}
			completion = sql.NullString{String: m.Pricing.Completion, Valid: true}
		}
		_, err := stmt.ExecContext(ctx, m.ID, m.Name, nullString(m.Description),
			m.ContextLength, prompt, completion)
		if err != nil {
			return fmt.Errorf("failed to insert cached model %s: %w", m.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit models cache: %w", err)
	}
	return nil
}
