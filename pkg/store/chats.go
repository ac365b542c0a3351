// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// =============================================================================
// CHAT OPERATIONS
// =============================================================================

// AddChat persists a new chat.
func (s *Store) AddChat(ctx context.Context, chat *Chat) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chats (id, title, created_at, updated_at, model, temperature, top_p, max_tokens)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		chat.ID, chat.Title, millis(chat.CreatedAt), millis(chat.UpdatedAt),
		chat.ModelConfig.Model,
		nullFloat(chat.ModelConfig.Temperature),
		nullFloat(chat.ModelConfig.TopP),
		nullInt(chat.ModelConfig.MaxTokens),
	)
	if err != nil {
		return fmt.Errorf("failed to insert chat: %w", err)
	}
	return nil
}

// GetChat retrieves a chat by id.
func (s *Store) GetChat(ctx context.Context, id string) (*Chat, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, title, created_at, updated_at, model, temperature, top_p, max_tokens
		FROM chats WHERE id = ?`, id)

	chat, err := scanChat(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrChatNotFound
		}
		return nil, fmt.Errorf("failed to load chat: %w", err)
	}
	return chat, nil
}

// ListChats returns all chats ordered by updated_at descending
// (most-recently-active first).
func (s *Store) ListChats(ctx context.Context) ([]*Chat, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, created_at, updated_at, model, temperature, top_p, max_tokens
		FROM chats ORDER BY updated_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	defer rows.Close()

	var chats []*Chat
	for rows.Next() {
		chat, err := scanChat(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan chat: %w", err)
		}
		chats = append(chats, chat)
	}
	return chats, rows.Err()
}

// UpdateChatTitle updates a chat's title and bumps its updated_at.
func (s *Store) UpdateChatTitle(ctx context.Context, id, title string, updatedAt time.Time) error {
	return s.updateChat(ctx, id,
		`UPDATE chats SET title = ?, updated_at = ? WHERE id = ?`,
		title, millis(updatedAt), id)
}

// UpdateChatModel updates a chat's model identifier and bumps its updated_at.
func (s *Store) UpdateChatModel(ctx context.Context, id, model string, updatedAt time.Time) error {
	return s.updateChat(ctx, id,
		`UPDATE chats SET model = ?, updated_at = ? WHERE id = ?`,
		model, millis(updatedAt), id)
}

// TouchChat bumps a chat's updated_at timestamp.
func (s *Store) TouchChat(ctx context.Context, id string, updatedAt time.Time) error {
	return s.updateChat(ctx, id,
		`UPDATE chats SET updated_at = ? WHERE id = ?`,
		millis(updatedAt), id)
}

// updateChat runs an update statement and maps "no rows affected" to
// ErrChatNotFound.
func (s *Store) updateChat(ctx context.Context, id, query string, args ...any) error {
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to update chat: %w", err)
	}
	if n == 0 {
		return ErrChatNotFound
	}
	return nil
}

// DeleteChatCascade removes a chat and all messages referencing it in a
// single transaction, so the cascade is atomic from the caller's point of
// view.
func (s *Store) DeleteChatCascade(ctx context.Context, id string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM messages WHERE chat_id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM chats WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit chat deletion: %w", err)
	}
	return nil
}

// =============================================================================
// SCAN HELPERS
// =============================================================================

// rowScanner abstracts *sql.Row and *sql.Rows for shared scanning code.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanChat(r rowScanner) (*Chat, error) {
	var (
		chat        Chat
		createdAt   int64
		updatedAt   int64
		temperature sql.NullFloat64
		topP        sql.NullFloat64
		maxTokens   sql.NullInt64
	)
	err := r.Scan(&chat.ID, &chat.Title, &createdAt, &updatedAt,
		&chat.ModelConfig.Model, &temperature, &topP, &maxTokens)
	if err != nil {
		return nil, err
	}

	chat.CreatedAt = fromMillis(createdAt)
	chat.UpdatedAt = fromMillis(updatedAt)
	if temperature.Valid {
		v := temperature.Float64
		chat.ModelConfig.Temperature = &v
	}
	if topP.Valid {
		v := topP.Float64
		chat.ModelConfig.TopP = &v
	}
	if maxTokens.Valid {
		v := int(maxTokens.Int64)
		chat.ModelConfig.MaxTokens = &v
	}
	return &chat, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}
