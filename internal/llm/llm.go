// Package llm adapts an OpenAI-compatible chat-completion API to the single
// Generate(prompt) capability used by the pipeline.
package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"newsrag/internal/domain"
)

// ErrMissingAPIKey is returned when no token is configured.
var ErrMissingAPIKey = errors.New("missing LLM API key")

const systemPrompt = "You are a careful assistant for a news intelligence service. Follow the output format you are given."

// Config configures the chat client.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Temperature float32
	MaxTokens   int
	Timeout     time.Duration
}

// Client implements domain.Generator over a chat-completion endpoint.
type Client struct {
	client      *goopenai.Client
	model       string
	temperature float32
	maxTokens   int
}

// NewClient builds a chat client. The base URL may point at OpenAI, the
// HuggingFace router or any compatible server.
func NewClient(cfg Config) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, ErrMissingAPIKey
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 60 * time.Second
	}

	oc := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		oc.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}
	oc.HTTPClient = &http.Client{Timeout: timeout}

	return &Client{
		client:      goopenai.NewClientWithConfig(oc),
		model:       cfg.Model,
		temperature: cfg.Temperature,
		maxTokens:   cfg.MaxTokens,
	}, nil
}

// Generate sends prompt as a single user turn and returns the trimmed reply.
// Transport failures and empty replies are reported as *domain.LLMCallError.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model: c.model,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
		Temperature: c.temperature,
		MaxTokens:   c.maxTokens,
	})
	if err != nil {
		return "", &domain.LLMCallError{Op: "generate", Err: err}
	}
	if len(resp.Choices) == 0 {
		return "", &domain.LLMCallError{Op: "generate", Err: domain.ErrEmptyCompletion}
	}
	out := strings.TrimSpace(resp.Choices[0].Message.Content)
	if out == "" {
		return "", &domain.LLMCallError{Op: "generate", Err: domain.ErrEmptyCompletion}
	}
	return out, nil
}
