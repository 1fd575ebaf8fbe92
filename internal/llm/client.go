// Package llm wraps the chat completion endpoint used by the assistant and slug translation.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

var (
	ErrNotConfigured = errors.New("llm client is not configured")
	ErrEmptyResponse = errors.New("llm returned no choices")
)

const (
	RoleSystem    = openai.ChatMessageRoleSystem
	RoleUser      = openai.ChatMessageRoleUser
	RoleAssistant = openai.ChatMessageRoleAssistant
)

type Message struct {
	Role    string
	Content string
}

type Request struct {
	Messages    []Message
	Temperature float32
	MaxTokens   int
}

// Client completes a chat conversation
type Client interface {
	Complete(ctx context.Context, req Request) (string, error)
}

type OpenAIConfig struct {
	APIKey            string
	BaseURL           string
	Model             string
	RequestsPerSecond float64
	Timeout           time.Duration
}

type OpenAIClient struct {
	client  *openai.Client
	model   string
	limiter *rate.Limiter
	timeout time.Duration
	logger  *logrus.Logger
}

// NewOpenAIClient returns a client for any OpenAI compatible endpoint. Calls are throttled
// client side to RequestsPerSecond.
func NewOpenAIClient(cfg OpenAIConfig, logger *logrus.Logger) (*OpenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, ErrNotConfigured
	}
	if logger == nil {
		logger = logrus.New()
		logger.SetFormatter(&logrus.JSONFormatter{})
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	}

	limit := rate.Inf
	burst := 1
	if cfg.RequestsPerSecond > 0 {
		limit = rate.Limit(cfg.RequestsPerSecond)
		burst = int(cfg.RequestsPerSecond) + 1
	}

	model := cfg.Model
	if model == "" {
		model = openai.GPT4oMini
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	return &OpenAIClient{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		limiter: rate.NewLimiter(limit, burst),
		timeout: timeout,
		logger:  logger,
	}, nil
}

// Complete sends one completion request and returns the first choice's content.
// Failures are returned to the caller as-is; nothing is retried.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	messages := make([]openai.ChatCompletionMessage, len(req.Messages))
	for i, m := range req.Messages {
		messages[i] = openai.ChatCompletionMessage{Role: m.Role, Content: m.Content}
	}

	started := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	})
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", ErrEmptyResponse
	}

	c.logger.WithFields(logrus.Fields{
		"model":             c.model,
		"prompt_tokens":     resp.Usage.PromptTokens,
		"completion_tokens": resp.Usage.CompletionTokens,
		"duration_ms":       time.Since(started).Milliseconds(),
	}).Debug("Chat completion finished")

	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}
