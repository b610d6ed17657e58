package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// ChatClient is a minimal client for OpenAI-compatible chat-completions
// endpoints. Both the primary and the fallback provider speak this shape.
type ChatClient struct {
	name    string
	apiKey  string
	baseURL string
	model   string
	client  *http.Client
}

// NewChatClient creates a chat client for one provider.
func NewChatClient(name, baseURL, apiKey, model string, timeout time.Duration) *ChatClient {
	if timeout <= 0 {
		timeout = 90 * time.Second
	}
	return &ChatClient{
		name:    name,
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: timeout},
	}
}

// Name returns the provider name used in logs and results.
func (c *ChatClient) Name() string {
	return c.name
}

// CompletionRequest carries one chat-completion call.
type CompletionRequest struct {
	SystemPrompt string
	Prompt       string
	Temperature  float64
	MaxTokens    int
	JSONMode     bool
	Model        string // overrides the client default when set
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type responseFormat struct {
	Type string `json:"type"`
}

// chatRequest is the wire shape for chat completion requests
type chatRequest struct {
	Model          string          `json:"model,omitempty"`
	Messages       []chatMessage   `json:"messages,omitempty"`
	Temperature    float64         `json:"temperature"`
	MaxTokens      int             `json:"max_tokens,omitempty"`
	ResponseFormat *responseFormat `json:"response_format,omitempty"`
}

// chatResponse is a minimal response shape
type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Complete sends the request and returns the assistant content.
func (c *ChatClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]chatMessage, 0, 2)
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}
	messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})

	model := c.model
	if req.Model != "" {
		model = req.Model
	}

	body := chatRequest{
		Model:       model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}
	// Providers may still ignore this; callers extract defensively.
	if req.JSONMode {
		body.ResponseFormat = &responseFormat{Type: "json_object"}
	}

	b, err := json.Marshal(body)
	if err != nil {
		return "", err
	}

	endpoint := c.baseURL + "/v1/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, "POST", endpoint, bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("%s returned status %d: %s", c.name, resp.StatusCode, string(raw))
	}

	var cr chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&cr); err != nil {
		return "", err
	}
	if len(cr.Choices) == 0 {
		return "", fmt.Errorf("empty response from %s", c.name)
	}
	return cr.Choices[0].Message.Content, nil
}
