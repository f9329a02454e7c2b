// Package aiconnectors adapts langchaingo model clients to llm.Model so the
// rewrite pipeline can run against providers other than the direct Gemini
// client.
package aiconnectors

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/anthropic"
	"github.com/tmc/langchaingo/llms/cohere"
	"github.com/tmc/langchaingo/llms/googleai"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/Spotas/Ai-rewrite/internal/llm"
)

// Provider represents an AI provider type
type Provider string

const (
	ProviderOpenAI Provider = "openai"
	ProviderGemini Provider = "gemini"
	ProviderClaude Provider = "claude"
	ProviderCohere Provider = "cohere"
	ProviderOllama Provider = "ollama"
)

// Providers lists the supported providers.
func Providers() []Provider {
	return []Provider{ProviderGemini, ProviderOpenAI, ProviderClaude, ProviderCohere, ProviderOllama}
}

// DefaultModel returns the model used when none is configured.
func DefaultModel(p Provider) string {
	switch p {
	case ProviderOpenAI:
		return "gpt-4o-mini"
	case ProviderGemini:
		return "gemini-2.5-flash"
	case ProviderClaude:
		return "claude-3-5-haiku-latest"
	case ProviderCohere:
		return "command-r"
	case ProviderOllama:
		return "llama3"
	default:
		return ""
	}
}

// ConnectorOptions contains options for creating a connector
type ConnectorOptions struct {
	Provider Provider `json:"provider" koanf:"provider"`
	APIKey   string   `json:"api_key" koanf:"api_key"`
	BaseURL  string   `json:"base_url,omitempty" koanf:"base_url"`
	Model    string   `json:"model,omitempty" koanf:"model"`
}

// Connector implements llm.Model on top of a langchaingo client. Clients
// are created lazily per API key, since requests may carry their own key.
type Connector struct {
	options ConnectorOptions

	mu      sync.Mutex
	clients map[string]llms.Model
	factory func(ctx context.Context, options ConnectorOptions) (llms.Model, error)
}

// NewConnector creates a new connector for the specified provider
func NewConnector(options ConnectorOptions) (*Connector, error) {
	switch options.Provider {
	case ProviderOpenAI, ProviderGemini, ProviderClaude, ProviderCohere, ProviderOllama:
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}
	if options.Model == "" {
		options.Model = DefaultModel(options.Provider)
	}

	log.Debug().
		Str("provider", string(options.Provider)).
		Str("model", options.Model).
		Msg("Creating new connector")

	return &Connector{
		options: options,
		clients: make(map[string]llms.Model),
		factory: createModel,
	}, nil
}

// newConnectorWithClient is used by tests to bypass the provider SDKs.
func newConnectorWithClient(options ConnectorOptions, client llms.Model) *Connector {
	c, _ := NewConnector(options)
	c.factory = func(context.Context, ConnectorOptions) (llms.Model, error) { return client, nil }
	return c
}

// GetProvider returns the provider of this connector
func (c *Connector) GetProvider() Provider {
	return c.options.Provider
}

// GetModel returns the configured model name
func (c *Connector) GetModel() string {
	return c.options.Model
}

// SupportsModel accepts any model name; the provider rejects unknown ones.
func (c *Connector) SupportsModel(string) bool {
	return true
}

// Generate implements llm.Model.
func (c *Connector) Generate(ctx context.Context, req llm.Request) (string, error) {
	apiKey := req.APIKey
	if apiKey == "" {
		apiKey = c.options.APIKey
	}
	if apiKey == "" && c.options.Provider != ProviderOllama {
		return "", &llm.CallError{Kind: llm.KindAuth, Message: llm.MsgMissingAPIKey}
	}

	client, err := c.client(ctx, apiKey)
	if err != nil {
		return "", err
	}

	model := c.options.Model
	if c.options.Provider == ProviderGemini && req.Model != "" {
		model = req.Model
	}

	callOptions := []llms.CallOption{
		llms.WithModel(model),
		llms.WithTemperature(req.Temperature),
	}
	if req.MaxOutputTokens > 0 {
		callOptions = append(callOptions, llms.WithMaxTokens(req.MaxOutputTokens))
	}
	if req.TopP > 0 {
		callOptions = append(callOptions, llms.WithTopP(req.TopP))
	}
	if req.TopK > 0 && c.options.Provider != ProviderOpenAI {
		callOptions = append(callOptions, llms.WithTopK(req.TopK))
	}

	log.Debug().
		Str("provider", string(c.options.Provider)).
		Str("model", model).
		Float64("temperature", req.Temperature).
		Msg("Calling provider")

	out, err := llms.GenerateFromSinglePrompt(ctx, client, req.Prompt, callOptions...)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			return "", err
		}
		return "", &llm.CallError{Kind: llm.KindTransport, Message: err.Error(), Err: err}
	}
	return out, nil
}

// Ping validates the key with a minimal generation call.
func (c *Connector) Ping(ctx context.Context, apiKey, model string) error {
	if c.options.Provider == ProviderOllama {
		return ValidateOllamaConnection(ctx, c.options.BaseURL, apiKey)
	}
	if model == "" || c.options.Provider != ProviderGemini {
		model = c.options.Model
	}
	_, err := c.Generate(ctx, llm.Request{Model: model, APIKey: apiKey, Prompt: "Hello", MaxOutputTokens: 10})
	return err
}

func (c *Connector) client(ctx context.Context, apiKey string) (llms.Model, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if client, ok := c.clients[apiKey]; ok {
		return client, nil
	}
	options := c.options
	options.APIKey = apiKey
	client, err := c.factory(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create model for provider %s: %w", options.Provider, err)
	}
	c.clients[apiKey] = client
	return client, nil
}

func createModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	switch options.Provider {
	case ProviderOpenAI:
		return createOpenAIModel(options)
	case ProviderGemini:
		return createGeminiModel(ctx, options)
	case ProviderClaude:
		return createAnthropicModel(options)
	case ProviderCohere:
		return createCohereModel(options)
	case ProviderOllama:
		return createOllamaModel(options)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", options.Provider)
	}
}

func createOpenAIModel(options ConnectorOptions) (llms.Model, error) {
	opts := []openai.Option{
		openai.WithModel(options.Model),
		openai.WithToken(options.APIKey),
	}
	if options.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(options.BaseURL))
	}
	return openai.New(opts...)
}

func createGeminiModel(ctx context.Context, options ConnectorOptions) (llms.Model, error) {
	model, err := googleai.New(ctx,
		googleai.WithAPIKey(options.APIKey),
		googleai.WithDefaultModel(options.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini model: %w", err)
	}
	return model, nil
}

func createAnthropicModel(options ConnectorOptions) (llms.Model, error) {
	opts := []anthropic.Option{
		anthropic.WithToken(options.APIKey),
		anthropic.WithModel(options.Model),
	}
	if options.BaseURL != "" {
		opts = append(opts, anthropic.WithBaseURL(options.BaseURL))
	}
	return anthropic.New(opts...)
}

func createCohereModel(options ConnectorOptions) (llms.Model, error) {
	opts := []cohere.Option{
		cohere.WithToken(options.APIKey),
		cohere.WithModel(options.Model),
	}
	if options.BaseURL != "" {
		opts = append(opts, cohere.WithBaseURL(options.BaseURL))
	}
	return cohere.New(opts...)
}

func createOllamaModel(options ConnectorOptions) (llms.Model, error) {
	if options.BaseURL == "" {
		options.BaseURL = "http://localhost:11434"
	}
	// Ollama takes sampling parameters as call options.
	return ollama.New(
		ollama.WithServerURL(options.BaseURL),
		ollama.WithModel(options.Model),
	)
}
