// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package chat implements the chat session orchestrator.
//
// The Service owns the in-memory reflections of the persisted chats and
// the active chat's messages, and mediates every UI action between the
// local store and the completion client: create chat, append message,
// request a completion, append the reply, reconcile state.
//
// Missing preconditions (no active chat, no configured API key) make the
// affected operations silent no-ops returning empty results rather than
// errors; callers wanting a guarantee must validate upstream. Completion
// failures surface as system-role messages in the transcript instead of
// propagating. Local store failures are the only errors returned.
package chat
