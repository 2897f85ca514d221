// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package cloud

import (
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

// Configuration constants for OpenRouter API.
const (
	// DefaultOpenRouterURL is the base URL for OpenRouter API.
	DefaultOpenRouterURL = "https://openrouter.ai/api/v1"

	// DefaultModel is used when no model is configured.
	DefaultModel = "openrouter/auto"

	// DefaultTimeout bounds connection setup. Streams are bounded by context.
	DefaultTimeout = 30 * time.Second

	// MaxErrorBodySize is the maximum error body read from a failed response.
	MaxErrorBodySize = 64 * 1024
)

// sharedStreamingClient is used for streaming requests (no timeout, context-controlled).
var sharedStreamingClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   4,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: DefaultTimeout,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
}

// Error variables for common OpenRouter errors.
var (
	// ErrNotConfigured indicates the API key is not set.
	ErrNotConfigured = errors.New("OpenRouter API key not configured")

	// ErrAuthFailed indicates authentication failed (invalid or expired API key).
	ErrAuthFailed = errors.New("authentication failed")

	// ErrRateLimited indicates too many requests were made.
	ErrRateLimited = errors.New("rate limited")

	// ErrModelNotFound indicates the requested model does not exist.
	ErrModelNotFound = errors.New("model not found")

	// ErrInsufficientCredits indicates the account has insufficient credits.
	ErrInsufficientCredits = errors.New("insufficient credits")

	// ErrIncompleteStream indicates the body ended before [DONE] or a finish reason.
	ErrIncompleteStream = errors.New("stream ended before completion")
)

// OpenRouterError represents an error from the OpenRouter API.
type OpenRouterError struct {
	Code    string
	Message string
	Status  int
}

// Error implements the error interface.
func (e *OpenRouterError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("openrouter error %d (%s): %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("openrouter error %d: %s", e.Status, e.Message)
}

// ChatMessage is a message in OpenRouter's chat format.
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// NewUserMessage creates a user message.
func NewUserMessage(content string) ChatMessage {
	return ChatMessage{Role: "user", Content: content}
}

// NewAssistantMessage creates an assistant message.
func NewAssistantMessage(content string) ChatMessage {
	return ChatMessage{Role: "assistant", Content: content}
}

// ChatRequest is the body of a chat completions request.
type ChatRequest struct {
	Model       string        `json:"model"`
	Messages    []ChatMessage `json:"messages"`
	Stream      bool          `json:"stream"`
	Temperature *float64      `json:"temperature,omitempty"`
	TopP        *float64      `json:"top_p,omitempty"`
	TopK        *int          `json:"top_k,omitempty"`
}

// apiErrorResponse is the error envelope returned by OpenRouter, both as a
// whole response body and inside a stream chunk.
type apiErrorResponse struct {
	Error struct {
		Code    json.RawMessage `json:"code"`
		Message string          `json:"message"`
	} `json:"error"`
}

// code returns the error code, which OpenRouter sends as a string or a number.
func (r apiErrorResponse) code() string {
	return strings.Trim(string(r.Error.Code), `"`)
}

// Sampling holds optional sampling parameters. Nil fields are omitted from
// requests so the provider default applies.
type Sampling struct {
	Temperature *float64
	TopP        *float64
	TopK        *int
}

// OpenRouterClient is a client for communicating with the OpenRouter API.
type OpenRouterClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	model      string
	sampling   Sampling
	siteName   string
	logger     *slog.Logger
}

// NewOpenRouterClient creates a new OpenRouter client with the given API key.
//
// If the API key is empty, the client will still be created but requests
// will fail with ErrNotConfigured.
func NewOpenRouterClient(apiKey string) *OpenRouterClient {
	return &OpenRouterClient{
		apiKey:     strings.TrimSpace(apiKey),
		baseURL:    DefaultOpenRouterURL,
		httpClient: sharedStreamingClient,
		model:      DefaultModel,
		siteName:   "hiwar",
		logger:     slog.New(slog.DiscardHandler),
	}
}

// WithBaseURL sets a custom base URL for the API.
func (c *OpenRouterClient) WithBaseURL(url string) *OpenRouterClient {
	if url != "" {
		c.baseURL = strings.TrimRight(url, "/")
	}
	return c
}

// WithModel sets the model identifier.
func (c *OpenRouterClient) WithModel(model string) *OpenRouterClient {
	if model != "" {
		c.model = model
	}
	return c
}

// WithSampling sets the sampling parameters sent with each request.
func (c *OpenRouterClient) WithSampling(s Sampling) *OpenRouterClient {
	c.sampling = s
	return c
}

// WithHTTPClient replaces the HTTP client.
func (c *OpenRouterClient) WithHTTPClient(hc *http.Client) *OpenRouterClient {
	c.httpClient = hc
	return c
}

// WithLogger sets the logger used for request logging.
func (c *OpenRouterClient) WithLogger(logger *slog.Logger) *OpenRouterClient {
	if logger != nil {
		c.logger = logger
	}
	return c
}

// GetModel returns the current model identifier.
func (c *OpenRouterClient) GetModel() string {
	return c.model
}

// IsConfigured returns true if an API key is set.
func (c *OpenRouterClient) IsConfigured() bool {
	return c.apiKey != ""
}

// APIKeyMasked returns the API key with all but the last four characters hidden.
func (c *OpenRouterClient) APIKeyMasked() string {
	if len(c.apiKey) <= 8 {
		return "****"
	}
	return "****" + c.apiKey[len(c.apiKey)-4:]
}

// setHeaders sets the required headers for OpenRouter API requests.
func (c *OpenRouterClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "hiwar")

	if c.siteName != "" {
		req.Header.Set("X-Title", c.siteName)
	}
}

// handleErrorResponse converts HTTP error responses to appropriate Go errors.
func handleErrorResponse(statusCode int, body []byte) error {
	var apiErr apiErrorResponse
	if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Message != "" {
		orErr := &OpenRouterError{
			Code:    apiErr.code(),
			Message: apiErr.Error.Message,
			Status:  statusCode,
		}

		switch statusCode {
		case http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", ErrAuthFailed, orErr.Message)
		case http.StatusPaymentRequired:
			return fmt.Errorf("%w: %s", ErrInsufficientCredits, orErr.Message)
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", ErrModelNotFound, orErr.Message)
		case http.StatusTooManyRequests:
			return fmt.Errorf("%w: %s", ErrRateLimited, orErr.Message)
		default:
			return orErr
		}
	}

	// Fallback for unparseable error responses
	switch statusCode {
	case http.StatusUnauthorized:
		return ErrAuthFailed
	case http.StatusPaymentRequired:
		return ErrInsufficientCredits
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusTooManyRequests:
		return ErrRateLimited
	default:
		return &OpenRouterError{
			Message: strings.TrimSpace(string(body)),
			Status:  statusCode,
		}
	}
}

// readErrorBody reads at most MaxErrorBodySize bytes of a failed response.
func readErrorBody(r io.Reader) []byte {
	body, _ := io.ReadAll(io.LimitReader(r, MaxErrorBodySize))
	return body
}
