// Package openai provides an OpenAI-compatible text-generation provider.
// Pointing it at a custom base URL covers any backend speaking the chat
// completions dialect (DeepSeek, Gemini's compatibility endpoint, local
// models).
package openai

import (
	"context"
	"fmt"
	"os"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/creatorkit/redpub/pkg/llm"
	"github.com/creatorkit/redpub/pkg/llm/tokenizer"
	"github.com/creatorkit/redpub/pkg/logging"
)

// promptTokenBudget is the prompt size above which a warning is logged.
// Requests are still sent; the backend enforces its own limits.
const promptTokenBudget = 8000

// Provider implements llm.Provider against an OpenAI-compatible API.
type Provider struct {
	client    openai.Client
	model     string
	tokenizer *tokenizer.Tokenizer
	log       *logging.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*providerConfig)

type providerConfig struct {
	model   string
	baseURL string
	log     *logging.Logger
}

// WithModel sets the default model used when a call does not name one.
func WithModel(model string) ProviderOption {
	return func(c *providerConfig) { c.model = model }
}

// WithBaseURL points the provider at a custom OpenAI-compatible endpoint.
func WithBaseURL(baseURL string) ProviderOption {
	return func(c *providerConfig) { c.baseURL = baseURL }
}

// WithLogger sets the provider's logger.
func WithLogger(logger *logging.Logger) ProviderOption {
	return func(c *providerConfig) { c.log = logger }
}

// NewProvider creates a provider. An empty apiKey falls back to the
// OPENAI_API_KEY environment variable; an unset base URL falls back to
// OPENAI_BASE_URL, then the public API.
func NewProvider(apiKey string, opts ...ProviderOption) (*Provider, error) {
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required (provide via parameter or OPENAI_API_KEY)")
	}

	cfg := providerConfig{model: "gpt-4o-mini"}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.baseURL == "" {
		cfg.baseURL = os.Getenv("OPENAI_BASE_URL")
	}
	if cfg.log == nil {
		cfg.log, _ = logging.NewLogger("llm")
	}

	clientOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(cfg.baseURL))
	}

	// Token counting is best effort; a nil tokenizer estimates instead.
	tok, err := tokenizer.New()
	if err != nil {
		cfg.log.Warnf("tokenizer unavailable, using estimates: %v", err)
	}

	return &Provider{
		client:    openai.NewClient(clientOpts...),
		model:     cfg.model,
		tokenizer: tok,
		log:       cfg.log,
	}, nil
}

// Generate sends a single-prompt chat completion and returns the response
// text.
func (p *Provider) Generate(ctx context.Context, prompt string, cfg llm.GenerateConfig) (string, error) {
	model := cfg.Model
	if model == "" {
		model = p.model
	}

	promptTokens := p.tokenizer.CountTokens(prompt)
	if promptTokens > promptTokenBudget {
		p.log.Warnf("prompt is %d tokens, over the %d budget", promptTokens, promptTokenBudget)
	}

	params := openai.ChatCompletionNewParams{
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.UserMessage(prompt),
		},
		Model: openai.ChatModel(model),
	}
	if cfg.Temperature > 0 {
		params.Temperature = openai.Float(cfg.Temperature)
	}
	if cfg.MaxTokens > 0 {
		params.MaxTokens = openai.Int(int64(cfg.MaxTokens))
	}

	completion, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	p.log.Debugf("completion done (model=%s, prompt_tokens=%d, response_len=%d)",
		model, promptTokens, len(completion.Choices[0].Message.Content))
	return completion.Choices[0].Message.Content, nil
}
