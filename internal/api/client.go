// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package api

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"golang.org/x/time/rate"
)

// =============================================================================
// CLIENT CONFIGURATION
// =============================================================================

// ClientConfig holds configuration options for the backend client.
type ClientConfig struct {
	// BaseURL of the backend API (default: https://chatgpt.com/backend-api)
	BaseURL string

	// AccessToken sent as a bearer token on every request.
	AccessToken string

	// Timeout for a single request (default: 30s)
	Timeout time.Duration

	// MaxRetries for transient failures (default: 3)
	MaxRetries int

	// RetryDelay between retries (default: 1s)
	RetryDelay time.Duration

	// RequestsPerSecond caps the client-side request rate
	// (default: 2). The backend rate limits aggressively during full
	// enumeration; staying under its threshold beats retrying 429s.
	RequestsPerSecond float64
}

// DefaultConfig returns the default client configuration.
func DefaultConfig() *ClientConfig {
	return &ClientConfig{
		BaseURL:           "https://chatgpt.com/backend-api",
		Timeout:           30 * time.Second,
		MaxRetries:        3,
		RetryDelay:        1 * time.Second,
		RequestsPerSecond: 2,
	}
}

// =============================================================================
// CLIENT
// =============================================================================

// Client handles communication with the chat backend API.
// It is safe for concurrent use, though the export pipeline only ever
// issues one request at a time.
type Client struct {
	config     *ClientConfig
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a backend client. Zero-value config fields are
// filled with defaults.
func NewClient(config *ClientConfig) *Client {
	if config == nil {
		config = DefaultConfig()
	}
	if config.BaseURL == "" {
		config.BaseURL = "https://chatgpt.com/backend-api"
	}
	if config.Timeout == 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxRetries == 0 {
		config.MaxRetries = 3
	}
	if config.RetryDelay == 0 {
		config.RetryDelay = 1 * time.Second
	}
	if config.RequestsPerSecond == 0 {
		config.RequestsPerSecond = 2
	}

	return &Client{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout},
		limiter:    rate.NewLimiter(rate.Limit(config.RequestsPerSecond), 1),
	}
}

// =============================================================================
// REQUESTS
// =============================================================================

// FetchConversation retrieves the raw tree payload for one
// conversation. The bytes go straight to the normalizer; this package
// does not interpret them.
func (c *Client) FetchConversation(ctx context.Context, id string) ([]byte, error) {
	return c.get(ctx, "/conversation/"+id)
}

// ResolveFileURL translates a file-service file id into a short-lived
// download URL. Implements assets.URLResolver.
func (c *Client) ResolveFileURL(ctx context.Context, fileID string) (string, error) {
	body, err := c.get(ctx, "/files/"+fileID+"/download")
	if err != nil {
		return "", err
	}

	var resp struct {
		Status      string `json:"status"`
		DownloadURL string `json:"download_url"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", &ClientError{Type: ErrTypeInvalidResponse, Message: "invalid download response", Cause: err}
	}
	if resp.DownloadURL == "" {
		return "", ErrInvalidResponse
	}
	return resp.DownloadURL, nil
}

// Ping verifies the backend is reachable with the configured token.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListConversations(ctx, 0, 1)
	return err
}

// get performs one rate-limited, retried GET and returns the body.
func (c *Client) get(ctx context.Context, path string) ([]byte, error) {
	var lastErr error

	for attempt := 0; attempt <= c.config.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(c.config.RetryDelay):
			}
		}

		if err := c.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		body, retryable, err := c.doGet(ctx, path)
		if err == nil {
			return body, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}

	return nil, lastErr
}

// doGet performs a single request. The bool reports whether the
// failure is worth retrying.
func (c *Client) doGet(ctx context.Context, path string) ([]byte, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.config.BaseURL+path, nil)
	if err != nil {
		return nil, false, &ClientError{Type: ErrTypeUnknown, Message: "build request", Cause: err}
	}
	if c.config.AccessToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.config.AccessToken)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, &ClientError{Type: ErrTypeConnection, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK:
		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return nil, true, &ClientError{Type: ErrTypeConnection, Message: "read response", Cause: err}
		}
		return body, false, nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, false, ErrUnauthorized
	case resp.StatusCode == http.StatusNotFound:
		return nil, false, ErrNotFound
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, true, ErrRateLimited
	case resp.StatusCode >= 500:
		return nil, true, &ClientError{
			Type:    ErrTypeConnection,
			Message: fmt.Sprintf("backend returned %d", resp.StatusCode),
		}
	default:
		return nil, false, &ClientError{
			Type:    ErrTypeInvalidResponse,
			Message: fmt.Sprintf("unexpected status %d", resp.StatusCode),
		}
	}
}
