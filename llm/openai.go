package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

const (
	defaultModel      = "gpt-4o"
	defaultMaxRetries = 3
)

// OpenAIConfig configures the OpenAI-backed client.
type OpenAIConfig struct {
	APIKey     string
	BaseURL    string // optional, for proxies
	Model      string
	MaxRetries int
}

type chatCompletions interface {
	New(ctx context.Context, params openai.ChatCompletionNewParams, opts ...option.RequestOption) (*openai.ChatCompletion, error)
}

// OpenAIClient implements Client against the chat-completions endpoint.
type OpenAIClient struct {
	completions chatCompletions
	model       string
}

// NewOpenAI constructs a completion client. Retries with backoff are handled
// by the underlying SDK via WithMaxRetries.
func NewOpenAI(cfg OpenAIConfig) (*OpenAIClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, errors.New("llm: api key required")
	}

	retries := cfg.MaxRetries
	if retries <= 0 {
		retries = defaultMaxRetries
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(retries),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.BaseURL))
	}

	model := strings.TrimSpace(cfg.Model)
	if model == "" {
		model = defaultModel
	}

	client := openai.NewClient(opts...)
	return &OpenAIClient{
		completions: &client.Chat.Completions,
		model:       model,
	}, nil
}

// Complete issues one non-streaming completion and returns the assistant text.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(req.System),
			openai.UserMessage(req.User),
		},
	}
	if req.Temperature > 0 {
		params.Temperature = openai.Float(req.Temperature)
	}
	if req.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(req.MaxTokens))
	}

	completion, err := c.completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("llm: completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", errors.New("llm: completion returned no choices")
	}

	return completion.Choices[0].Message.Content, nil
}
