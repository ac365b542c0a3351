// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

// =============================================================================
// MESSAGE OPERATIONS
// =============================================================================

// AddMessage persists a new message.
func (s *Store) AddMessage(ctx context.Context, msg *Message) error {
	attIDs, err := marshalAttachmentIDs(msg.AttachmentIDs)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, chat_id, role, content, timestamp, attachment_ids, model)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ChatID, msg.Role, msg.Content, millis(msg.Timestamp),
		attIDs, nullString(msg.Model),
	)
	if err != nil {
		return fmt.Errorf("failed to insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by id.
func (s *Store) GetMessage(ctx context.Context, id string) (*Message, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, chat_id, role, content, timestamp, attachment_ids, model
		FROM messages WHERE id = ?`, id)

	msg, err := scanMessage(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to load message: %w", err)
	}
	return msg, nil
}

// MessagesByChat returns all messages of a chat ordered by timestamp
// ascending. Insertion order breaks timestamp ties.
func (s *Store) MessagesByChat(ctx context.Context, chatID string) ([]*Message, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, chat_id, role, content, timestamp, attachment_ids, model
		FROM messages WHERE chat_id = ?
		ORDER BY timestamp ASC, rowid ASC`, chatID)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	defer rows.Close()

	var msgs []*Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

// DeleteMessage removes a message by id.
func (s *Store) DeleteMessage(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	if n == 0 {
		return ErrMessageNotFound
	}
	return nil
}

// CountMessagesByChat returns the number of messages referencing a chat.
func (s *Store) CountMessagesByChat(ctx context.Context, chatID string) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM messages WHERE chat_id = ?`, chatID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count messages: %w", err)
	}
	return n, nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

func scanMessage(r rowScanner) (*Message, error) {
	var (
		msg       Message
		timestamp int64
		attIDs    sql.NullString
		model     sql.NullString
	)
	err := r.Scan(&msg.ID, &msg.ChatID, &msg.Role, &msg.Content, &timestamp, &attIDs, &model)
	if err != nil {
		return nil, err
	}

	msg.Timestamp = fromMillis(timestamp)
	msg.Model = model.String
	if attIDs.Valid && attIDs.String != "" {
		if err := json.Unmarshal([]byte(attIDs.String), &msg.AttachmentIDs); err != nil {
			return nil, fmt.Errorf("failed to decode attachment ids: %w", err)
		}
	}
	return &msg, nil
}

// marshalAttachmentIDs encodes the attachment id list as a JSON array, or
// NULL when empty.
func marshalAttachmentIDs(ids []string) (sql.NullString, error) {
	if len(ids) == 0 {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(ids)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("failed to encode attachment ids: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
