package llm

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/retry"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

// mockModel returns queued errors first, then queued responses.
type mockModel struct {
	mu        sync.Mutex
	errors    []error
	responses []string
	callCount int
	requests  []Request
	supported map[string]bool
}

func (m *mockModel) Generate(ctx context.Context, req Request) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.callCount++
	m.requests = append(m.requests, req)

	if len(m.errors) > 0 {
		err := m.errors[0]
		m.errors = m.errors[1:]
		if err != nil {
			return "", err
		}
	}
	if len(m.responses) > 0 {
		resp := m.responses[0]
		if len(m.responses) > 1 {
			m.responses = m.responses[1:]
		}
		return resp, nil
	}
	return "ok", nil
}

type checkingModel struct {
	mockModel
}

func (m *checkingModel) SupportsModel(name string) bool {
	return m.supported[name]
}

func noSleep(delays *[]time.Duration) retry.Option {
	return retry.WithSleeper(func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return ctx.Err()
	})
}

func testConfig() PipelineConfig {
	cfg := DefaultPipelineConfig()
	cfg.Retry.LogRetries = false
	return cfg
}

var humanize = modes.BuiltIn{ModeKey: "humanize"}

func TestPipeline_SucceedsOnThirdAttempt(t *testing.T) {
	model := &mockModel{
		errors:    []error{StatusError(500, "boom"), StatusError(503, "busy")},
		responses: []string{"  Clean text.  "},
	}
	var delays []time.Duration
	p := NewPipeline(model, testConfig(), noSleep(&delays))

	out, err := p.Execute(context.Background(), "key", "some input text", humanize, settings.Defaults())

	require.NoError(t, err)
	assert.Equal(t, "Clean text.", out)
	assert.Equal(t, 3, model.callCount)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, delays)
}

func TestPipeline_AuthErrorIsTerminal(t *testing.T) {
	model := &mockModel{errors: []error{StatusError(401, "unauthorized")}}
	var delays []time.Duration
	p := NewPipeline(model, testConfig(), noSleep(&delays))

	_, err := p.Execute(context.Background(), "key", "some input text", humanize, settings.Defaults())

	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Equal(t, 1, model.callCount)
	assert.Empty(t, delays)
}

func TestPipeline_APIKeyMessageIsTerminal(t *testing.T) {
	model := &mockModel{errors: []error{StatusError(400, "API key not valid. Please pass a valid API key.")}}
	var delays []time.Duration
	p := NewPipeline(model, testConfig(), noSleep(&delays))

	_, err := p.Execute(context.Background(), "key", "some input text", humanize, settings.Defaults())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "API key")
	assert.Equal(t, 1, model.callCount)
}

func TestPipeline_EmptyResponseRetriedThenFails(t *testing.T) {
	model := &mockModel{responses: []string{"   "}}
	var delays []time.Duration
	p := NewPipeline(model, testConfig(), noSleep(&delays))

	_, err := p.Execute(context.Background(), "key", "some input text", humanize, settings.Defaults())

	require.Error(t, err)
	assert.Equal(t, KindEmptyResponse, KindOf(err))
	assert.Equal(t, MsgEmptyResponse, err.Error())
	assert.Equal(t, 3, model.callCount)
}

func TestPipeline_PerAttemptTimeout(t *testing.T) {
	calls := 0
	model := ModelFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		<-ctx.Done()
		return "", ctx.Err()
	})
	cfg := testConfig()
	cfg.Timeout = 10 * time.Millisecond
	cfg.Retry.MaxAttempts = 2
	var delays []time.Duration
	p := NewPipeline(model, cfg, noSleep(&delays))

	_, err := p.Execute(context.Background(), "key", "some input text", humanize, settings.Defaults())

	require.Error(t, err)
	assert.Equal(t, KindTimeout, KindOf(err))
	assert.Equal(t, MsgTimeout, err.Error())
	assert.Equal(t, 2, calls)
}

func TestPipeline_ParentCancelStopsRetrying(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	model := ModelFunc(func(ctx context.Context, req Request) (string, error) {
		calls++
		cancel()
		return "", ctx.Err()
	})
	var delays []time.Duration
	p := NewPipeline(model, testConfig(), noSleep(&delays))

	_, err := p.Execute(ctx, "key", "some input text", humanize, settings.Defaults())

	require.Error(t, err)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, calls)
}

func TestPipeline_MissingAPIKey(t *testing.T) {
	model := &mockModel{}
	p := NewPipeline(model, testConfig())

	_, err := p.Execute(context.Background(), "  ", "some input text", humanize, settings.Defaults())

	require.Error(t, err)
	assert.Equal(t, KindAuth, KindOf(err))
	assert.Equal(t, MsgMissingAPIKey, err.Error())
	assert.Equal(t, 0, model.callCount)
}

func TestPipeline_UnsupportedModel(t *testing.T) {
	model := &checkingModel{mockModel{supported: map[string]bool{"gemini-2.5-flash": true}}}
	p := NewPipeline(model, testConfig())

	s := settings.Defaults()
	s.SelectedModel = "gpt-nothing"
	_, err := p.Execute(context.Background(), "key", "some input text", humanize, s)

	require.ErrorIs(t, err, ErrUnsupportedModel)
	assert.Equal(t, 0, model.callCount)
}

func TestPipeline_RequestCarriesPromptParameters(t *testing.T) {
	model := &mockModel{responses: []string{"Done."}}
	p := NewPipeline(model, testConfig())

	s := settings.Defaults()
	s.SelectedModel = "gemini-2.0-flash"
	_, err := p.Execute(context.Background(), "secret", "some input text", modes.BuiltIn{ModeKey: "formal"}, s)
	require.NoError(t, err)

	require.Len(t, model.requests, 1)
	req := model.requests[0]
	assert.Equal(t, "gemini-2.0-flash", req.Model)
	assert.Equal(t, "secret", req.APIKey)
	assert.Equal(t, modes.Temperature("formal"), req.Temperature)
	assert.Equal(t, 4096, req.MaxOutputTokens)
	assert.Contains(t, req.Prompt, "some input text")
}

func TestPipeline_SanitizesOutput(t *testing.T) {
	model := &mockModel{responses: []string{"Here's the rewritten text: \"**Hello**   world\""}}
	p := NewPipeline(model, testConfig())

	out, err := p.Execute(context.Background(), "key", "hello world", humanize, settings.Defaults())

	require.NoError(t, err)
	assert.Equal(t, "Hello world", out)
}

func TestPipeline_Metrics(t *testing.T) {
	model := &mockModel{errors: []error{StatusError(500, "boom"), nil, StatusError(403, "forbidden")}}
	var delays []time.Duration
	p := NewPipeline(model, testConfig(), noSleep(&delays))

	_, err := p.Execute(context.Background(), "key", "first input", humanize, settings.Defaults())
	require.NoError(t, err)
	_, err = p.Execute(context.Background(), "key", "second input", humanize, settings.Defaults())
	require.Error(t, err)

	snap := p.Metrics().Snapshot()
	assert.Equal(t, int64(2), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.SuccessfulRequests)
	assert.Equal(t, int64(1), snap.FailedRequests)
	assert.Equal(t, int64(3), snap.TotalAttempts)
	assert.Contains(t, snap.LastError, "403")
}
