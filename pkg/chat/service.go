// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hightemp/openrouter-chat/pkg/openrouter"
	"github.com/hightemp/openrouter-chat/pkg/settings"
	"github.com/hightemp/openrouter-chat/pkg/store"
)

// Defaults applied when CreateChat is called with empty arguments.
const (
	DefaultTitle = "New Chat"
	DefaultModel = "openai/gpt-3.5-turbo"
)

// ErrGenerating is returned when a send or regenerate is attempted while a
// generation request is already in flight. Overlapping sends would
// interleave message ordering unpredictably, so they are rejected instead.
var ErrGenerating = errors.New("a generation request is already in flight")

// Completer is the subset of the completion client the orchestrator needs.
// The base URL comes from the runtime settings on every call; an empty
// value means the client's default.
type Completer interface {
	CreateChatCompletion(ctx context.Context, apiKey, baseURL string, req openrouter.ChatRequest) (*openrouter.ChatResponse, error)
}

// =============================================================================
// SERVICE
// =============================================================================

// Service is the chat orchestrator. It owns the ordered chat list
// (most-recently-active first), the active chat selection, and the active
// chat's message list. All mutation is funneled through its methods;
// subscribers are notified after every state change.
type Service struct {
	mu sync.Mutex

	db        *store.Store
	settings  *settings.Store
	completer Completer

	chats      []*store.Chat
	activeID   string
	messages   []*store.Message
	generating bool

	subs   map[int]func(Event)
	nextID int
}

// NewService creates a chat orchestrator over the given store, settings,
// and completion client.
func NewService(db *store.Store, st *settings.Store, completer Completer) *Service {
	return &Service{
		db:        db,
		settings:  st,
		completer: completer,
		subs:      make(map[int]func(Event)),
	}
}

// =============================================================================
// OBSERVERS
// =============================================================================

// EventKind identifies which part of the orchestrator state changed.
type EventKind string

// Event kinds emitted to subscribers.
const (
	EventChats      EventKind = "chats"      // chat list changed
	EventMessages   EventKind = "messages"   // active message list changed
	EventGenerating EventKind = "generating" // busy flag toggled
)

// Event describes a state change.
type Event struct {
	Kind   EventKind
	ChatID string
}

// Subscribe registers a callback invoked after every state change. The
// returned function removes the subscription. Callbacks run synchronously
// on the mutating goroutine and must not block.
func (s *Service) Subscribe(fn func(Event)) func() {
	s.mu.Lock()
	id := s.nextID
	s.nextID++
	s.subs[id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}
}

// notify invokes all subscribers outside the state lock.
func (s *Service) notify(ev Event) {
	s.mu.Lock()
	fns := make([]func(Event), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}

// =============================================================================
// CHAT LIFECYCLE
// =============================================================================

// LoadChats replaces the in-memory chat list with the persisted chats,
// ordered most-recently-active first.
func (s *Service) LoadChats(ctx context.Context) error {
	chats, err := s.db.ListChats(ctx)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.chats = chats
	s.mu.Unlock()

	s.notify(Event{Kind: EventChats})
	return nil
}

// CreateChat creates and persists a new chat, prepends it to the chat
// list, and makes it the active chat with an empty message list. Empty
// title or model fall back to the package defaults.
func (s *Service) CreateChat(ctx context.Context, title, model string) (*store.Chat, error) {
	if title == "" {
		title = DefaultTitle
	}
	if model == "" {
		model = DefaultModel
	}

	now := time.Now()
	chat := &store.Chat{
		ID:          uuid.NewString(),
		Title:       title,
		CreatedAt:   now,
		UpdatedAt:   now,
		ModelConfig: store.ModelConfig{Model: model},
	}

	if err := s.db.AddChat(ctx, chat); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.chats = append([]*store.Chat{chat}, s.chats...)
	s.activeID = chat.ID
	s.messages = nil
	s.mu.Unlock()

	s.notify(Event{Kind: EventChats, ChatID: chat.ID})
	s.notify(Event{Kind: EventMessages, ChatID: chat.ID})

	out := *chat
	return &out, nil
}

// SelectChat makes chatID the active chat and loads its messages ordered
// by timestamp ascending. A nonexistent id yields an empty message list,
// not an error.
func (s *Service) SelectChat(ctx context.Context, chatID string) error {
	msgs, err := s.db.MessagesByChat(ctx, chatID)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.activeID = chatID
	s.messages = msgs
	s.mu.Unlock()

	s.notify(Event{Kind: EventMessages, ChatID: chatID})
	return nil
}

// DeleteChat removes the chat and all of its messages. If the deleted
// chat was active, the active selection and message list are cleared.
func (s *Service) DeleteChat(ctx context.Context, chatID string) error {
	if err := s.db.DeleteChatCascade(ctx, chatID); err != nil {
		return err
	}

	s.mu.Lock()
	kept := s.chats[:0]
	for _, c := range s.chats {
		if c.ID != chatID {
			kept = append(kept, c)
		}
	}
	s.chats = kept
	wasActive := s.activeID == chatID
	if wasActive {
		s.activeID = ""
		s.messages = nil
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventChats, ChatID: chatID})
	if wasActive {
		s.notify(Event{Kind: EventMessages})
	}
	return nil
}

// UpdateChatTitle updates a chat's title, bumps its updated_at, and
// mirrors the change in memory so reactive views stay in sync without a
// reload.
func (s *Service) UpdateChatTitle(ctx context.Context, chatID, title string) error {
	now := time.Now()
	if err := s.db.UpdateChatTitle(ctx, chatID, title, now); err != nil {
		return err
	}

	s.mu.Lock()
	for _, c := range s.chats {
		if c.ID == chatID {
			c.Title = title
			c.UpdatedAt = now
			break
		}
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventChats, ChatID: chatID})
	return nil
}

// UpdateChatModel updates a chat's model identifier, bumps its
// updated_at, and mirrors the change in memory.
func (s *Service) UpdateChatModel(ctx context.Context, chatID, model string) error {
	now := time.Now()
	if err := s.db.UpdateChatModel(ctx, chatID, model, now); err != nil {
		return err
	}

	s.mu.Lock()
	for _, c := range s.chats {
		if c.ID == chatID {
			c.ModelConfig.Model = model
			c.UpdatedAt = now
			break
		}
	}
	s.mu.Unlock()

	s.notify(Event{Kind: EventChats, ChatID: chatID})
	return nil
}

// =============================================================================
// ACCESSORS
// =============================================================================

// Chats returns a copy of the ordered chat list.
func (s *Service) Chats() []store.Chat {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Chat, len(s.chats))
	for i, c := range s.chats {
		out[i] = *c
	}
	return out
}

// Messages returns a copy of the active chat's message list.
func (s *Service) Messages() []store.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]store.Message, len(s.messages))
	for i, m := range s.messages {
		out[i] = *m
	}
	return out
}

// ActiveChatID returns the id of the active chat, or empty string.
func (s *Service) ActiveChatID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// ActiveChat returns a copy of the active chat, if any.
func (s *Service) ActiveChat() (store.Chat, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if c := s.activeChatLocked(); c != nil {
		return *c, true
	}
	return store.Chat{}, false
}

// IsGenerating reports whether a generation request is in flight.
func (s *Service) IsGenerating() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generating
}

// activeChatLocked returns the active chat entry. Caller holds s.mu.
func (s *Service) activeChatLocked() *store.Chat {
	for _, c := range s.chats {
		if c.ID == s.activeID {
			return c
		}
	}
	return nil
}

// =============================================================================
// SEARCH
// =============================================================================

// SearchChats returns the chats whose title contains the query,
// case-insensitively, preserving list order. An empty query returns every
// chat.
func (s *Service) SearchChats(query string) []store.Chat {
	all := s.Chats()
	if query == "" {
		return all
	}

	lower := strings.ToLower(query)
	var out []store.Chat
	for _, c := range all {
		if strings.Contains(strings.ToLower(c.Title), lower) {
			out = append(out, c)
		}
	}
	return out
}

// =============================================================================
// EXPORT
// =============================================================================

// ExportMarkdown renders a chat's transcript as Markdown with role labels
// and timestamps.
func (s *Service) ExportMarkdown(ctx context.Context, chatID string) (string, error) {
	chat, err := s.db.GetChat(ctx, chatID)
	if err != nil {
		return "", err
	}
	msgs, err := s.db.MessagesByChat(ctx, chatID)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	sb.WriteString("# " + chat.Title + "\n\n")
	sb.WriteString("Created: " + chat.CreatedAt.Format(time.RFC3339) + "\n\n")
	sb.WriteString("Model: " + chat.ModelConfig.Model + "\n\n")
	sb.WriteString("---\n\n")

	for _, msg := range msgs {
		role := "**User**"
		switch msg.Role {
		case store.RoleAssistant:
			role = "**Assistant**"
		case store.RoleSystem:
			role = "**System**"
		}
		sb.WriteString(role + " (" + msg.Timestamp.Format("15:04") + "):\n\n")
		sb.WriteString(msg.Content)
		if len(msg.AttachmentIDs) > 0 {
			sb.WriteString(fmt.Sprintf("\n\n_%d attachment(s)_", len(msg.AttachmentIDs)))
		}
		sb.WriteString("\n\n---\n\n")
	}

	return sb.String(), nil
}
