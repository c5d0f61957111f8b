// Package zai implements the chat-completions client for the Z.AI GLM
// reasoning-model service. It is the most expensive and most rate-limited
// upstream dependency in the pipeline; concurrency and retry discipline
// live with the caller (internal/analyzer), this package only speaks HTTP.
package zai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/alanyoungcy/polyscout/internal/domain"
)

// Message is a single chat message in a completion request.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Client is the Z.AI chat-completions client.
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	httpClient  *http.Client
	logger      *slog.Logger
}

// NewClient creates a model client. A missing API key is logged once as a
// warning; every subsequent call returns domain.ErrNoAPIKey so the caller
// can degrade to its deterministic fallback for the run.
func NewClient(baseURL, apiKey, model string, temperature float64, timeout time.Duration, logger *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	logger = logger.With(slog.String("component", "model"))
	if apiKey == "" {
		logger.Warn("model api key not set, running with deterministic fallback estimates")
	}
	return &Client{
		baseURL:     baseURL,
		apiKey:      apiKey,
		model:       model,
		temperature: temperature,
		httpClient:  &http.Client{Timeout: timeout},
		logger:      logger,
	}
}

// Available reports whether the client has credentials to reach the model
// service at all.
func (c *Client) Available() bool {
	return c.apiKey != ""
}

// completionRequest is the chat-completions payload.
type completionRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
}

// completionResponse carries the fields we consume from the response.
type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// ChatCompletion sends the messages to the model and returns the content of
// the first choice. Timeouts and connection failures surface wrapped in
// domain.ErrModelUnavailable; 429 and 5xx statuses map to the transient
// domain sentinels so the caller's retry predicate can recognise them.
func (c *Client) ChatCompletion(ctx context.Context, messages []Message) (string, error) {
	if c.apiKey == "" {
		return "", domain.ErrNoAPIKey
	}

	payload, err := json.Marshal(completionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: c.temperature,
	})
	if err != nil {
		return "", fmt.Errorf("zai: marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(payload))
	if err != nil {
		return "", fmt.Errorf("zai: create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("zai: %w: %v", domain.ErrContextDone, err)
		}
		// Timeouts and connection failures are transient by taxonomy.
		return "", fmt.Errorf("zai: %w: %v", domain.ErrModelUnavailable, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("zai: read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return "", fmt.Errorf("zai: %w: %s", domain.ErrRateLimited, truncate(string(body), 200))
	case resp.StatusCode >= 500:
		return "", fmt.Errorf("zai: %w: HTTP %d: %s", domain.ErrUpstream, resp.StatusCode, truncate(string(body), 200))
	case resp.StatusCode < 200 || resp.StatusCode >= 300:
		return "", fmt.Errorf("zai: unexpected status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var decoded completionResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return "", fmt.Errorf("zai: decode response: %w", err)
	}
	if len(decoded.Choices) == 0 {
		return "", fmt.Errorf("zai: empty choices in response")
	}

	return decoded.Choices[0].Message.Content, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
