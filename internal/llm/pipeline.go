package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/prompts"
	"github.com/Spotas/Ai-rewrite/internal/retry"
	"github.com/Spotas/Ai-rewrite/internal/sanitize"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

// DefaultTimeout bounds a single attempt.
const DefaultTimeout = 30 * time.Second

// PipelineConfig configures a Pipeline.
type PipelineConfig struct {
	Retry         retry.RetryConfig
	Timeout       time.Duration
	RequireAPIKey bool
}

// DefaultPipelineConfig returns 3 attempts, 1s linear backoff and a 30s
// per-attempt timeout.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfig{
		Retry:         retry.DefaultRetryConfig(),
		Timeout:       DefaultTimeout,
		RequireAPIKey: true,
	}
}

// Pipeline wraps a Model with prompt construction, per-attempt timeout,
// retry with linear backoff and result sanitization.
type Pipeline struct {
	model   Model
	builder *prompts.PromptBuilder
	retryer *retry.Retryer
	config  PipelineConfig
	metrics *Metrics
}

// NewPipeline creates a pipeline around model. Retry options such as a test
// sleeper are passed through to the retryer.
func NewPipeline(model Model, config PipelineConfig, opts ...retry.Option) *Pipeline {
	if config.Timeout <= 0 {
		config.Timeout = DefaultTimeout
	}
	opts = append([]retry.Option{retry.WithClassifier(shouldRetry)}, opts...)
	return &Pipeline{
		model:   model,
		builder: prompts.NewPromptBuilder(),
		retryer: retry.New(config.Retry, opts...),
		config:  config,
		metrics: NewMetrics(),
	}
}

// Metrics returns the pipeline's request counters.
func (p *Pipeline) Metrics() *Metrics {
	return p.metrics
}

// Execute rewrites text in the given mode and returns the sanitized result.
func (p *Pipeline) Execute(ctx context.Context, apiKey, text string, mode modes.Mode, s settings.Settings) (string, error) {
	if mode == nil {
		return "", errors.New("llm: nil mode")
	}
	callID := uuid.NewString()
	model := s.SelectedModel
	if model == "" {
		model = settings.DefaultModel
	}

	logger := log.With().Str("call_id", callID).Str("mode", modes.ID(mode)).Str("model", model).Logger()

	if p.config.RequireAPIKey && strings.TrimSpace(apiKey) == "" {
		logger.Warn().Msg("Rewrite attempted without an API key")
		return "", &CallError{Kind: KindAuth, Message: MsgMissingAPIKey}
	}
	if checker, ok := p.model.(ModelChecker); ok && !checker.SupportsModel(model) {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedModel, model)
	}

	prompt, err := p.builder.Build(text, mode)
	if err != nil {
		return "", err
	}

	req := Request{
		Model:           model,
		APIKey:          apiKey,
		Prompt:          prompt.Text,
		Temperature:     prompt.Temperature,
		MaxOutputTokens: prompts.MaxOutputTokens,
		TopP:            prompts.TopP,
		TopK:            prompts.TopK,
	}

	var output string
	result := p.retryer.Do(ctx, func(ctx context.Context, attempt int) error {
		attemptCtx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()

		start := time.Now()
		raw, err := p.model.Generate(attemptCtx, req)
		elapsed := time.Since(start)

		if err != nil {
			err = normalize(err, ctx, attemptCtx)
			logger.Debug().Err(err).Int("attempt", attempt).Dur("elapsed", elapsed).Str("kind", string(KindOf(err))).Msg("Model call failed")
			return err
		}

		cleaned := sanitize.Clean(raw, modes.ID(mode))
		if strings.TrimSpace(cleaned) == "" {
			logger.Debug().Int("attempt", attempt).Int("raw_len", len(raw)).Msg("Model returned empty text")
			return &CallError{Kind: KindEmptyResponse, Message: MsgEmptyResponse}
		}

		logger.Debug().Int("attempt", attempt).Dur("elapsed", elapsed).Int("output_len", len(cleaned)).Msg("Model call succeeded")
		output = cleaned
		return nil
	})

	p.metrics.Observe(result)

	if !result.Success {
		logger.Error().Err(result.LastError).Int("attempts", result.Attempts).Bool("terminal", result.Terminal).Msg("Rewrite call failed")
		return "", result.LastError
	}
	return output, nil
}

// normalize maps deadline and cancellation errors onto CallError kinds.
func normalize(err error, parent, attempt context.Context) error {
	var ce *CallError
	if errors.As(err, &ce) {
		return err
	}
	if parent.Err() != nil {
		return parent.Err()
	}
	if errors.Is(attempt.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return TimeoutError(err)
	}
	return err
}

func shouldRetry(err error) bool {
	if errors.Is(err, context.Canceled) {
		return false
	}
	return !IsTerminal(err)
}
