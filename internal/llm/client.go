package llm

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"github.com/konkon034034/jinsei-soudan/internal/config"
)

// Completer is the minimal generative-text contract the pipeline
// stages consume. Satisfied by Client and by test fakes.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Client wraps an OpenAI-compatible chat completions endpoint.
// The Gemini endpoint is selected through llm.base_url in config.
type Client struct {
	client      openai.Client
	model       string
	temperature float64
	maxTokens   int
}

// New builds a Client from config. The API key is read from the env
// var named by llm.api_key_env.
func New(cfg *config.Config) (*Client, error) {
	apiKey := os.Getenv(cfg.LLM.APIKeyEnv)
	if apiKey == "" {
		return nil, fmt.Errorf("%s not set", cfg.LLM.APIKeyEnv)
	}

	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.LLM.BaseURL != "" {
		opts = append(opts, option.WithBaseURL(cfg.LLM.BaseURL))
	}

	return &Client{
		client:      openai.NewClient(opts...),
		model:       cfg.LLM.Model,
		temperature: cfg.LLM.Temperature,
		maxTokens:   cfg.LLM.MaxTokens,
	}, nil
}

// Complete sends one system+user exchange and returns the raw text.
func (c *Client) Complete(ctx context.Context, system, user string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.UserMessage(user),
	}
	if system != "" {
		messages = append([]openai.ChatCompletionMessageParamUnion{openai.SystemMessage(system)}, messages...)
	}

	completion, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Messages:    messages,
		Model:       openai.ChatModel(c.model),
		Temperature: openai.Float(c.temperature),
		MaxTokens:   openai.Int(int64(c.maxTokens)),
	})
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("model returned no choices")
	}

	content := completion.Choices[0].Message.Content
	if content == "" {
		return "", fmt.Errorf("model returned empty content (finish reason: %s)", completion.Choices[0].FinishReason)
	}
	return content, nil
}
