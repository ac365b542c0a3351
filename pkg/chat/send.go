// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/hightemp/openrouter-chat/pkg/openrouter"
	"github.com/hightemp/openrouter-chat/pkg/store"
)

// =============================================================================
// MESSAGE APPEND
// =============================================================================

// AddMessage creates and persists a message in the active chat, appends
// it to the in-memory list, bumps the parent chat's updated_at, and moves
// that chat to the front of the chat list. With no active chat it is a
// no-op returning (nil, nil).
func (s *Service) AddMessage(ctx context.Context, role, content string, attachmentIDs []string, model string) (*store.Message, error) {
	s.mu.Lock()
	chatID := s.activeID
	s.mu.Unlock()
	if chatID == "" {
		return nil, nil
	}

	now := time.Now()
	msg := &store.Message{
		ID:            uuid.NewString(),
		ChatID:        chatID,
		Role:          role,
		Content:       content,
		Timestamp:     now,
		AttachmentIDs: attachmentIDs,
		Model:         model,
	}

	if err := s.db.AddMessage(ctx, msg); err != nil {
		return nil, err
	}
	if err := s.db.TouchChat(ctx, chatID, now); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if s.activeID == chatID {
		s.messages = append(s.messages, msg)
	}
	// Move-to-front keeps the list ordered by activity without re-sorting.
	for i, c := range s.chats {
		if c.ID == chatID {
			c.UpdatedAt = now
			copy(s.chats[1:i+1], s.chats[:i])
			s.chats[0] = c
			break
		}
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessages, ChatID: chatID})
	s.notify(Event{Kind: EventChats, ChatID: chatID})

	out := *msg
	return &out, nil
}

// =============================================================================
// SEND WORKFLOW
// =============================================================================

// SendMessage appends a user message (with the given attachments) to the
// active chat and requests an assistant completion for the full history.
//
// With no active chat or no configured API key it is a silent no-op
// returning (nil, nil). While a generation is already in flight it
// returns ErrGenerating. Completion failures append a system-role error
// message to the transcript and return (nil, nil); only local store
// failures return an error. The busy flag is cleared on every exit path.
func (s *Service) SendMessage(ctx context.Context, content string, attachments []store.Attachment) (*store.Message, error) {
	cur := s.settings.Current()

	s.mu.Lock()
	if s.activeID == "" || cur.APIKey == "" {
		s.mu.Unlock()
		return nil, nil
	}
	if s.generating {
		s.mu.Unlock()
		return nil, ErrGenerating
	}
	s.generating = true
	chatID := s.activeID
	// Snapshot the prior history and model configuration now, before the
	// user turn is appended. Subscribers run synchronously during the
	// append and may mutate the message list (select, delete); the
	// outbound payload must not depend on state they can touch.
	history := make([]*store.Message, len(s.messages))
	copy(history, s.messages)
	var cfg store.ModelConfig
	if c := s.activeChatLocked(); c != nil {
		cfg = c.ModelConfig
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventGenerating, ChatID: chatID})
	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
		s.notify(Event{Kind: EventGenerating, ChatID: chatID})
	}()

	// Persist attachments before the message that references them.
	if err := s.db.AddAttachments(ctx, attachments); err != nil {
		return nil, err
	}
	attachmentIDs := make([]string, len(attachments))
	for i, att := range attachments {
		attachmentIDs[i] = att.ID
	}

	if _, err := s.AddMessage(ctx, store.RoleUser, content, attachmentIDs, ""); err != nil {
		return nil, err
	}

	req := buildRequest(history, cfg, content, attachments)

	resp, err := s.completer.CreateChatCompletion(ctx, cur.APIKey, cur.BaseURL, req)
	if err != nil {
		// Failures stay visible in the transcript instead of propagating.
		if _, aerr := s.AddMessage(ctx, store.RoleSystem, "Error: "+err.Error(), nil, ""); aerr != nil {
			return nil, aerr
		}
		return nil, nil
	}

	return s.AddMessage(ctx, store.RoleAssistant, resp.GetContent(), nil, resp.Model)
}

// buildRequest maps a history snapshot plus the new user turn to the
// outbound payload. Every prior message becomes a plain {role, content}
// entry; the new user turn takes its structured multimodal form: the raw
// text first, then one image reference per image attachment, in
// attachment order.
func buildRequest(history []*store.Message, cfg store.ModelConfig, content string, attachments []store.Attachment) openrouter.ChatRequest {
	apiMessages := make([]openrouter.ChatMessage, 0, len(history)+1)
	for _, m := range history {
		apiMessages = append(apiMessages, openrouter.ChatMessage{
			Role:    m.Role,
			Content: openrouter.TextContent(m.Content),
		})
	}

	parts := []openrouter.ContentPart{openrouter.TextPart(content)}
	for _, att := range attachments {
		if att.Type == "image" {
			parts = append(parts, openrouter.ImagePart(att.Data))
		}
	}
	apiMessages = append(apiMessages, openrouter.ChatMessage{
		Role:    store.RoleUser,
		Content: openrouter.PartsContent(parts...),
	})

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	return openrouter.ChatRequest{
		Model:       model,
		Messages:    apiMessages,
		Temperature: cfg.Temperature,
		TopP:        cfg.TopP,
		MaxTokens:   cfg.MaxTokens,
	}
}

// =============================================================================
// REGENERATE
// =============================================================================

// RegenerateLast deletes the trailing assistant message of the active
// chat and resubmits the remaining history for a fresh completion.
//
// The operation is a silent no-op when there is no active chat, the last
// message is not an assistant message, or the message preceding it is not
// a user message. The resubmitted history is plain text; attachments on
// the original user turn are not reconstructed, so multimodal
// regeneration is unsupported by design.
func (s *Service) RegenerateLast(ctx context.Context) (*store.Message, error) {
	cur := s.settings.Current()

	s.mu.Lock()
	if s.activeID == "" || len(s.messages) == 0 {
		s.mu.Unlock()
		return nil, nil
	}
	last := s.messages[len(s.messages)-1]
	if last.Role != store.RoleAssistant {
		s.mu.Unlock()
		return nil, nil
	}
	if s.generating {
		s.mu.Unlock()
		return nil, ErrGenerating
	}
	// Reserve the flag before releasing the lock for the store delete, so
	// no send can slip in between the check and the resubmission. The
	// deferred clear covers the no-op exits too.
	s.generating = true
	chatID := s.activeID
	s.mu.Unlock()

	s.notify(Event{Kind: EventGenerating, ChatID: chatID})
	defer func() {
		s.mu.Lock()
		s.generating = false
		s.mu.Unlock()
		s.notify(Event{Kind: EventGenerating, ChatID: chatID})
	}()

	// Remove the assistant message from store and memory.
	if err := s.db.DeleteMessage(ctx, last.ID); err != nil {
		return nil, err
	}

	s.mu.Lock()
	if n := len(s.messages); n > 0 && s.messages[n-1].ID == last.ID {
		s.messages = s.messages[:n-1]
	}
	var prior *store.Message
	if n := len(s.messages); n > 0 {
		prior = s.messages[n-1]
	}
	if prior == nil || prior.Role != store.RoleUser {
		s.mu.Unlock()
		s.notify(Event{Kind: EventMessages, ChatID: chatID})
		return nil, nil
	}

	history := make([]*store.Message, len(s.messages))
	copy(history, s.messages)
	var cfg store.ModelConfig
	if c := s.activeChatLocked(); c != nil {
		cfg = c.ModelConfig
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessages, ChatID: chatID})

	apiMessages := make([]openrouter.ChatMessage, 0, len(history))
	for _, m := range history {
		apiMessages = append(apiMessages, openrouter.ChatMessage{
			Role:    m.Role,
			Content: openrouter.TextContent(m.Content),
		})
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	req := openrouter.ChatRequest{
		Model:    model,
		Messages: apiMessages,
	}

	resp, err := s.completer.CreateChatCompletion(ctx, cur.APIKey, cur.BaseURL, req)
	if err != nil {
		if _, aerr := s.AddMessage(ctx, store.RoleSystem, "Error regenerating: "+err.Error(), nil, ""); aerr != nil {
			return nil, aerr
		}
		return nil, nil
	}

	return s.AddMessage(ctx, store.RoleAssistant, resp.GetContent(), nil, resp.Model)
}
