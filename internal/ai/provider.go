// Package ai selects the model backend behind the rewrite pipeline.
package ai

import (
	"context"
	"sort"

	"github.com/Spotas/Ai-rewrite/internal/ai/gemini"
	"github.com/Spotas/Ai-rewrite/internal/aiconnectors"
	"github.com/Spotas/Ai-rewrite/internal/llm"
)

// Backend is a model that can also verify credentials.
type Backend interface {
	llm.Model
	Ping(ctx context.Context, apiKey, model string) error
}

// Config selects and configures a backend.
type Config struct {
	Provider string
	Gemini   gemini.Config
	Backend  aiconnectors.ConnectorOptions
}

// Provider names accepted in Config.Provider. "gemini" is the direct REST
// client; "googleai" reaches Gemini through langchaingo.
const (
	ProviderGemini   = "gemini"
	ProviderGoogleAI = "googleai"
)

// Constructor builds a backend from configuration.
type Constructor func(ctx context.Context, cfg Config) (Backend, error)

// Factory creates backends based on configuration
type Factory interface {
	Create(ctx context.Context, cfg Config) (Backend, error)
}

// DefaultFactory is the default implementation of Factory
type DefaultFactory struct {
	providers map[string]Constructor
}

// NewDefaultFactory creates a factory with every built-in backend
// registered.
func NewDefaultFactory() *DefaultFactory {
	f := &DefaultFactory{providers: make(map[string]Constructor)}
	f.Register(ProviderGemini, func(_ context.Context, cfg Config) (Backend, error) {
		return gemini.New(cfg.Gemini), nil
	})
	f.Register(ProviderGoogleAI, connectorFor(aiconnectors.ProviderGemini))
	for _, p := range []aiconnectors.Provider{
		aiconnectors.ProviderOpenAI,
		aiconnectors.ProviderClaude,
		aiconnectors.ProviderCohere,
		aiconnectors.ProviderOllama,
	} {
		f.Register(string(p), connectorFor(p))
	}
	return f
}

func connectorFor(p aiconnectors.Provider) Constructor {
	return func(_ context.Context, cfg Config) (Backend, error) {
		opts := cfg.Backend
		opts.Provider = p
		return aiconnectors.NewConnector(opts)
	}
}

// Register registers a backend constructor with the factory
func (f *DefaultFactory) Register(name string, c Constructor) {
	f.providers[name] = c
}

// Names returns the registered provider names, sorted.
func (f *DefaultFactory) Names() []string {
	out := make([]string, 0, len(f.providers))
	for name := range f.providers {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}

// Create builds the backend named by cfg.Provider, defaulting to the
// direct Gemini client.
func (f *DefaultFactory) Create(ctx context.Context, cfg Config) (Backend, error) {
	name := cfg.Provider
	if name == "" {
		name = ProviderGemini
	}
	c, ok := f.providers[name]
	if !ok {
		return nil, ErrProviderNotFound
	}
	return c(ctx, cfg)
}

// NewModel is shorthand for NewDefaultFactory().Create.
func NewModel(ctx context.Context, cfg Config) (Backend, error) {
	return NewDefaultFactory().Create(ctx, cfg)
}

// Errors
var (
	ErrProviderNotFound = error(ErrorProviderNotFound("ai provider not found"))
)

// ErrorProviderNotFound is returned when an AI provider is not found
type ErrorProviderNotFound string

func (e ErrorProviderNotFound) Error() string {
	return string(e)
}
