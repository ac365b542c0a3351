// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package openrouter implements the HTTP client for the OpenRouter
// completion API.
//
// OpenRouter provides access to multiple LLM providers through a single
// API. This package covers the two operations the chat client needs:
// listing the available models and submitting chat completion requests.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for the OpenRouter API.
const (
	// DefaultBaseURL is the base URL for the OpenRouter API.
	DefaultBaseURL = "https://openrouter.ai/api/v1"

	// DefaultTimeout is the default timeout for API requests.
	DefaultTimeout = 60 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion.
	MaxResponseSize = 10 * 1024 * 1024 // 10MB limit
)

// =============================================================================
// ERRORS
// =============================================================================

// APIError represents a non-2xx response from the OpenRouter API.
type APIError struct {
	Status int
	Body   string
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("API error (HTTP %d): %s", e.Status, e.Body)
}

// =============================================================================
// CLIENT
// =============================================================================

// Client is a client for communicating with the OpenRouter API.
//
// The API key is passed per call rather than stored on the client, so a
// single Client can serve requests on behalf of whatever credential is
// currently configured in settings.
type Client struct {
	baseURL    string
	httpClient *http.Client
	siteURL    string
	siteName   string
}

// NewClient creates a new OpenRouter client with default settings.
func NewClient() *Client {
	return &Client{
		baseURL: DefaultBaseURL,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		siteURL:  "https://github.com/hightemp/openrouter-chat",
		siteName: "OpenRouter Chat",
	}
}

// WithBaseURL sets a custom base URL for the API.
// An empty URL keeps the current value, so callers can pass the
// (optional) configured base URL through unconditionally.
func (c *Client) WithBaseURL(url string) *Client {
	if url != "" {
		c.baseURL = strings.TrimSuffix(url, "/")
	}
	return c
}

// WithTimeout sets the request timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.httpClient.Timeout = timeout
	return c
}

// WithHTTPClient sets a custom HTTP client.
func (c *Client) WithHTTPClient(hc *http.Client) *Client {
	c.httpClient = hc
	return c
}

// WithSiteURL sets the HTTP-Referer header value identifying the origin.
func (c *Client) WithSiteURL(url string) *Client {
	c.siteURL = url
	return c
}

// WithSiteName sets the X-Title header value identifying the client.
func (c *Client) WithSiteName(name string) *Client {
	c.siteName = name
	return c
}

// BaseURL returns the configured base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// requestBase resolves the effective base URL for a single request. A
// non-empty per-call URL (the runtime-configured one from settings) wins;
// empty falls back to the client's configured default.
func (c *Client) requestBase(baseURL string) string {
	if baseURL == "" {
		return c.baseURL
	}
	return strings.TrimSuffix(baseURL, "/")
}

// setHeaders sets the required headers for OpenRouter API requests.
func (c *Client) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+strings.TrimSpace(apiKey))
	req.Header.Set("Content-Type", "application/json")

	if c.siteURL != "" {
		req.Header.Set("HTTP-Referer", c.siteURL)
	}
	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}
}

// logRequest logs an API request without exposing sensitive data.
// Does not log headers (may contain auth) or body (may contain user content).
func (c *Client) logRequest(req *http.Request) {
	log.Printf("API Request: %s %s", req.Method, req.URL.Path)
}

// logResponse logs an API response with duration.
// Only logs status code and duration, never the response body.
func (c *Client) logResponse(resp *http.Response, duration time.Duration) {
	log.Printf("API Response: %d %s (%v)", resp.StatusCode, resp.Status, duration)
}

// readResponse reads the response body with a size limit.
//
// SECURITY: Response size limit prevents memory exhaustion.
func readResponse(resp *http.Response) ([]byte, error) {
	limitedReader := io.LimitReader(resp.Body, MaxResponseSize)
	body, err := io.ReadAll(limitedReader)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if int64(len(body)) == MaxResponseSize {
		return nil, fmt.Errorf("response exceeded maximum size of %d bytes", MaxResponseSize)
	}

	return body, nil
}

// =============================================================================
// LIST MODELS
// =============================================================================

// ListModels retrieves the list of available models from OpenRouter.
// baseURL overrides the client's configured base URL for this call when
// non-empty.
//
// A non-2xx response fails with an *APIError carrying the HTTP status text.
func (c *Client) ListModels(ctx context.Context, apiKey, baseURL string) ([]ModelInfo, error) {
	url := c.requestBase(baseURL) + "/models"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, apiKey)

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("failed to fetch models: %w", &APIError{
			Status: resp.StatusCode,
			Body:   resp.Status,
		})
	}

	var modelsResp modelsResponse
	if err := json.Unmarshal(body, &modelsResp); err != nil {
		return nil, fmt.Errorf("failed to parse models response: %w", err)
	}

	return modelsResp.Data, nil
}

// =============================================================================
// CHAT COMPLETIONS
// =============================================================================

// CreateChatCompletion submits a chat completion request. baseURL
// overrides the client's configured base URL for this call when non-empty.
//
// A non-2xx response fails with an *APIError carrying the status code and
// response body text. On success the decoded non-streaming response is
// returned; the Model field identifies which model actually answered.
func (c *Client) CreateChatCompletion(ctx context.Context, apiKey, baseURL string, request ChatRequest) (*ChatResponse, error) {
	url := c.requestBase(baseURL) + "/chat/completions"

	bodyBytes, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	c.setHeaders(req, apiKey)

	c.logRequest(req)
	start := time.Now()
	resp, err := c.httpClient.Do(req)

	// SECURITY: Clear Authorization header immediately after the request
	// so it cannot leak through later logging of the request object.
	req.Header.Del("Authorization")

	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	c.logResponse(resp, time.Since(start))

	body, err := readResponse(resp)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &APIError{
			Status: resp.StatusCode,
			Body:   string(body),
		}
	}

	var chatResp ChatResponse
	if err := json.Unmarshal(body, &chatResp); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}

	return &chatResp, nil
}
