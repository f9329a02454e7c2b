package llm

import "context"

// Request is a single text-completion call.
type Request struct {
	Model           string
	APIKey          string
	Prompt          string
	Temperature     float64
	MaxOutputTokens int
	TopP            float64
	TopK            int
}

// Model is a remote text-completion service.
type Model interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// ModelFunc adapts a function to Model.
type ModelFunc func(ctx context.Context, req Request) (string, error)

func (f ModelFunc) Generate(ctx context.Context, req Request) (string, error) {
	return f(ctx, req)
}

// ModelChecker is implemented by models that only serve a fixed set of
// model identifiers.
type ModelChecker interface {
	SupportsModel(name string) bool
}
