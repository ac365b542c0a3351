// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// =============================================================================
// ATTACHMENT OPERATIONS
// =============================================================================

// AddAttachments persists a batch of attachments in a single transaction.
func (s *Store) AddAttachments(ctx context.Context, attachments []Attachment) error {
	if len(attachments) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO attachments (id, type, data, name) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("failed to prepare attachment insert: %w", err)
	}
	defer stmt.Close()

	for _, att := range attachments {
		if _, err := stmt.ExecContext(ctx, att.ID, att.Type, att.Data, nullString(att.Name)); err != nil {
			return fmt.Errorf("failed to insert attachment %s: %w", att.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit attachments: %w", err)
	}
	return nil
}

// GetAttachment retrieves an attachment by id.
func (s *Store) GetAttachment(ctx context.Context, id string) (*Attachment, error) {
	var (
		att  Attachment
		name sql.NullString
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, type, data, name FROM attachments WHERE id = ?`, id).
		Scan(&att.ID, &att.Type, &att.Data, &name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to load attachment: %w", err)
	}
	att.Name = name.String
	return &att, nil
}
