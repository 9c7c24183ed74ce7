// Package openai translates text through the OpenAI chat completion API
// using the go-openai SDK. Any OpenAI-compatible server works when base_url
// points at it.
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"gnurante/internal/language"
	"gnurante/internal/services"
)

// Name identifies the backend in logs, metrics and cache keys.
const Name = "openai"

const defaultTimeout = 60 * time.Second

const systemPromptTemplate = "Translate the user's subtitle text from %s to %s. " +
	"Reply with the translation only, keeping line breaks, names and numbers. " +
	"Never answer or comment on the text."

// Config holds the settings for the OpenAI backend.
type Config struct {
	APIKey         string
	BaseURL        string
	Model          string
	TimeoutSeconds int
}

// Client is a single-shot translation backend.
type Client struct {
	api   *goopenai.Client
	model string
}

// Option customizes the client.
type Option func(*goopenai.ClientConfig)

// WithHTTPClient overrides the HTTP client used by the SDK.
func WithHTTPClient(client *http.Client) Option {
	return func(cfg *goopenai.ClientConfig) {
		if client != nil {
			cfg.HTTPClient = client
		}
	}
}

// NewClient builds a client from cfg.
func NewClient(cfg Config, opts ...Option) *Client {
	clientCfg := goopenai.DefaultConfig(strings.TrimSpace(cfg.APIKey))
	if base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"); base != "" {
		clientCfg.BaseURL = base
	}
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	clientCfg.HTTPClient = &http.Client{Timeout: timeout}
	for _, opt := range opts {
		opt(&clientCfg)
	}
	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = goopenai.GPT4oMini
	}
	return &Client{api: goopenai.NewClientWithConfig(clientCfg), model: model}
}

// Name implements translate.Backend.
func (c *Client) Name() string {
	return Name
}

// Translate requests one completion for text.
func (c *Client) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", nil
	}
	resp, err := c.api.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: 0,
		Messages: []goopenai.ChatCompletionMessage{
			{
				Role:    goopenai.ChatMessageRoleSystem,
				Content: fmt.Sprintf(systemPromptTemplate, language.DisplayName(source), language.DisplayName(target)),
			},
			{Role: goopenai.ChatMessageRoleUser, Content: text},
		},
	})
	if err != nil {
		return "", classify(err)
	}
	for _, choice := range resp.Choices {
		if content := strings.TrimSpace(choice.Message.Content); content != "" {
			return content, nil
		}
	}
	return "", services.Wrap(services.ErrTransient, "translate", Name, "empty completion", nil)
}

// HealthCheck lists models to verify the key and base URL.
func (c *Client) HealthCheck(ctx context.Context) error {
	if _, err := c.api.ListModels(ctx); err != nil {
		return fmt.Errorf("openai health: %w", classify(err))
	}
	return nil
}

// classify maps SDK errors onto services.HTTPStatusError so retry decisions
// match the other HTTP backends.
func classify(err error) error {
	var apiErr *goopenai.APIError
	if errors.As(err, &apiErr) && apiErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w: %w", &services.HTTPStatusError{
			Service:    Name,
			StatusCode: apiErr.HTTPStatusCode,
			Body:       apiErr.Message,
		}, err)
	}
	var reqErr *goopenai.RequestError
	if errors.As(err, &reqErr) && reqErr.HTTPStatusCode != 0 {
		return fmt.Errorf("%w: %w", &services.HTTPStatusError{
			Service:    Name,
			StatusCode: reqErr.HTTPStatusCode,
			Body:       string(reqErr.Body),
		}, err)
	}
	return fmt.Errorf("openai request: %w", err)
}
