// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package assistant calls the language model API with per-feature prompts
// and token budgets, and shapes the replies into tagged documents.
package assistant

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"
)

// ErrNoAPIKey is returned when no model API key is configured. Callers
// surface it as a message, never as a hard failure.
var ErrNoAPIKey = errors.New("model API key not configured")

// Message is a single conversation message sent to the model.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request carries one model call: a system instruction, the trailing
// conversation messages, and the token budget for the reply.
type Request struct {
	System    string
	Messages  []Message
	MaxTokens int
}

// Backend abstracts the language model API so tests can supply a mock.
type Backend interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// claudeAPIURL is the Claude API endpoint. Package-level var for test
// substitution.
var claudeAPIURL = "https://api.anthropic.com/v1/messages"

// ClaudeBackend calls the Claude Messages API.
type ClaudeBackend struct {
	APIKey string
	Model  string
	Client *http.Client

	// MaxRetries is the number of retry attempts on transport errors
	// (default 3).
	MaxRetries int
}

type claudeRequest struct {
	Model     string          `json:"model"`
	MaxTokens int             `json:"max_tokens"`
	System    string          `json:"system,omitempty"`
	Messages  []claudeMessage `json:"messages"`
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeResponse struct {
	Content []claudeContent `json:"content"`
}

type claudeContent struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = time.Second

// Complete sends the request to the Claude API and returns the reply text.
func (c *ClaudeBackend) Complete(ctx context.Context, req Request) (string, error) {
	if c.APIKey == "" {
		return "", ErrNoAPIKey
	}

	maxRetries := c.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 3
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := c.call(ctx, req)
		if err == nil {
			return text, nil
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}

func (c *ClaudeBackend) call(ctx context.Context, req Request) (string, error) {
	messages := make([]claudeMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = claudeMessage{Role: m.Role, Content: m.Content}
	}

	body := claudeRequest{
		Model:     c.Model,
		MaxTokens: req.MaxTokens,
		System:    req.System,
		Messages:  messages,
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, claudeAPIURL, bytes.NewReader(bodyBytes))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("x-api-key", c.APIKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")

	client := c.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("calling Claude API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("Claude API returned %d: %s", resp.StatusCode, string(b))
	}

	var cResp claudeResponse
	if err := json.NewDecoder(resp.Body).Decode(&cResp); err != nil {
		return "", fmt.Errorf("decoding Claude response: %w", err)
	}

	var b strings.Builder
	for _, block := range cResp.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	if b.Len() == 0 {
		return "", fmt.Errorf("Claude API returned empty content")
	}
	return strings.TrimSpace(b.String()), nil
}
