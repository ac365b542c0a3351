// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

import "time"

// Message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// ModelConfig holds the per-chat generation configuration. Optional
// parameters are pointers so an unset value is distinguishable from zero.
type ModelConfig struct {
	Model       string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Chat is a titled, ordered conversation with its own model configuration.
type Chat struct {
	ID          string
	Title       string
	CreatedAt   time.Time
	UpdatedAt   time.Time
	ModelConfig ModelConfig
}

// Message is one turn in a chat. Immutable once created except for
// deletion.
type Message struct {
	ID            string
	ChatID        string
	Role          string
	Content       string
	Timestamp     time.Time
	AttachmentIDs []string
	// Model identifies which model produced an assistant reply. Empty for
	// user and system messages.
	Model string
}

// Attachment is an inline image payload associated with a user turn.
// Created alongside its message, never mutated.
type Attachment struct {
	ID   string
	Type string // "image" only
	Data string // base64 data URL
	Name string
}

// Settings is the process-wide singleton configuration record.
type Settings struct {
	APIKey  string
	BaseURL string
	Theme   string
}

// millis converts a time to the Unix-millisecond representation used in
// the database.
func millis(t time.Time) int64 {
	return t.UnixMilli()
}

// fromMillis converts a stored Unix-millisecond value back to a time.
func fromMillis(ms int64) time.Time {
	return time.UnixMilli(ms)
}
