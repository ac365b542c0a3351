// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package openrouter

import (
	"encoding/json"
	"fmt"
)

// =============================================================================
// MESSAGES AND MULTIMODAL CONTENT
// =============================================================================

// ContentPart is one entry of a structured multimodal message content:
// either a text fragment or an image reference.
type ContentPart struct {
	Type     string    `json:"type"` // "text" or "image_url"
	Text     string    `json:"text,omitempty"`
	ImageURL *ImageRef `json:"image_url,omitempty"`
}

// ImageRef references an image by URL. Inline images use data URLs.
type ImageRef struct {
	URL string `json:"url"`
}

// TextPart creates a text content part.
func TextPart(text string) ContentPart {
	return ContentPart{Type: "text", Text: text}
}

// ImagePart creates an image content part from a (data) URL.
func ImagePart(url string) ContentPart {
	return ContentPart{Type: "image_url", ImageURL: &ImageRef{URL: url}}
}

// Content is a message payload that serializes either as a plain JSON
// string or as an array of content parts, matching the wire format of the
// chat completions endpoint.
type Content struct {
	Text  string
	Parts []ContentPart
}

// TextContent creates a plain text content value.
func TextContent(text string) Content {
	return Content{Text: text}
}

// PartsContent creates a structured multimodal content value.
func PartsContent(parts ...ContentPart) Content {
	return Content{Parts: parts}
}

// MarshalJSON emits a bare string when no parts are present, otherwise the
// parts array.
func (c Content) MarshalJSON() ([]byte, error) {
	if c.Parts == nil {
		return json.Marshal(c.Text)
	}
	return json.Marshal(c.Parts)
}

// UnmarshalJSON accepts both the string and the array form.
func (c *Content) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		c.Text = text
		c.Parts = nil
		return nil
	}
	var parts []ContentPart
	if err := json.Unmarshal(data, &parts); err != nil {
		return fmt.Errorf("content is neither string nor part list: %w", err)
	}
	c.Parts = parts
	c.Text = ""
	return nil
}

// ChatMessage represents a single message in a chat completion request.
type ChatMessage struct {
	Role    string  `json:"role"` // "user", "assistant", or "system"
	Content Content `json:"content"`
}

// NewUserMessage creates a new plain text user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: TextContent(content)}
}

// NewAssistantMessage creates a new assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: TextContent(content)}
}

// NewSystemMessage creates a new system message.
func NewSystemMessage(content string) ChatMessage {
	return ChatMessage{Role: "system", Content: TextContent(content)}
}

// =============================================================================
// REQUEST / RESPONSE
// =============================================================================

// ChatRequest represents a request to the chat completions endpoint.
// Generation parameters are pointers so unset values are omitted from the
// payload instead of being sent as zeroes.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	MaxTokens   *int          `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream,omitempty"`
}

// Choice is one completion alternative in a chat response.
type Choice struct {
	Message struct {
		Role    string `json:"role"`
		Content string `json:"content"`
	} `json:"message"`
	FinishReason string `json:"finish_reason"`
}

// ChatResponse represents a non-streaming response from the chat
// completions endpoint.
type ChatResponse struct {
	ID      string   `json:"id"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
	Usage   struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// GetContent returns the content of the first choice, or empty string if none.
func (r *ChatResponse) GetContent() string {
	if len(r.Choices) > 0 {
		return r.Choices[0].Message.Content
	}
	return ""
}

// =============================================================================
// MODEL CATALOG TYPES
// =============================================================================

// Pricing represents the pricing information for a model.
type Pricing struct {
	Prompt     string `json:"prompt"`     // Cost per token for prompts
	Completion string `json:"completion"` // Cost per token for completions
}

// ModelInfo represents information about an available model.
type ModelInfo struct {
	ID            string   `json:"id"`
	Name          string   `json:"name"`
	Description   string   `json:"description,omitempty"`
	ContextLength int      `json:"context_length,omitempty"`
	Pricing       *Pricing `json:"pricing,omitempty"`
}

// modelsResponse is the internal response structure for listing models.
type modelsResponse struct {
	Data []ModelInfo `json:"data"`
}
