// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package store

const (
	// SchemaVersion tracks the database schema version for migrations.
	SchemaVersion = 1
)

// Schema is the SQLite schema for the chat database. Timestamps are stored
// as Unix milliseconds. The settings table holds a single row with id=1.
const Schema = `
-- Chats table: one row per conversation, with its model configuration
CREATE TABLE IF NOT EXISTS chats (
    id TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    created_at INTEGER NOT NULL,  -- Unix milliseconds
    updated_at INTEGER NOT NULL,  -- Unix milliseconds
    model TEXT NOT NULL,
    temperature REAL,
    top_p REAL,
    max_tokens INTEGER
);

CREATE INDEX IF NOT EXISTS idx_chats_updated_at ON chats(updated_at);

-- Messages table: one row per turn, ordered within a chat by timestamp
CREATE TABLE IF NOT EXISTS messages (
    id TEXT PRIMARY KEY,
    chat_id TEXT NOT NULL,
    role TEXT NOT NULL,           -- user, assistant, system
    content TEXT NOT NULL,
    timestamp INTEGER NOT NULL,   -- Unix milliseconds
    attachment_ids TEXT,          -- JSON array of attachment ids
    model TEXT,                   -- Model that produced the reply (assistant)
    FOREIGN KEY(chat_id) REFERENCES chats(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_messages_chat_id ON messages(chat_id);
CREATE INDEX IF NOT EXISTS idx_messages_timestamp ON messages(timestamp);

-- Attachments table: inline base64 image payloads
CREATE TABLE IF NOT EXISTS attachments (
    id TEXT PRIMARY KEY,
    type TEXT NOT NULL,           -- "image"
    data TEXT NOT NULL,           -- base64 data URL
    name TEXT
);

-- Settings table: singleton row, id=1
CREATE TABLE IF NOT EXISTS settings (
    id INTEGER PRIMARY KEY,
    api_key TEXT NOT NULL DEFAULT '',
    base_url TEXT NOT NULL DEFAULT '',
    theme TEXT NOT NULL DEFAULT ''
);

-- Models cache table: fully replaced on each successful catalog refresh
CREATE TABLE IF NOT EXISTS models_cache (
    id TEXT PRIMARY KEY,
    name TEXT NOT NULL,
    description TEXT,
    context_length INTEGER,
    pricing_prompt TEXT,
    pricing_completion TEXT
);
`
