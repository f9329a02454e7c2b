package rewrite

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spotas/Ai-rewrite/internal/guard"
	"github.com/Spotas/Ai-rewrite/internal/llm"
	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/ratelimit"
	"github.com/Spotas/Ai-rewrite/internal/retry"
	"github.com/Spotas/Ai-rewrite/internal/settings"
	"github.com/Spotas/Ai-rewrite/internal/undo"
)

type recordingInjector struct {
	mu    sync.Mutex
	err   error
	texts []string
}

func (r *recordingInjector) Inject(ctx context.Context, loc Location, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.texts = append(r.texts, text)
	return nil
}

type recordingNotifier struct {
	mu   sync.Mutex
	sent []Notification
}

func (r *recordingNotifier) Notify(ctx context.Context, loc Location, n Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
	return nil
}

func (r *recordingNotifier) messages() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, 0, len(r.sent))
	for _, n := range r.sent {
		out = append(out, n.Message)
	}
	return out
}

type recordingStats struct {
	mu     sync.Mutex
	events []UsageEvent
}

func (r *recordingStats) RecordUsage(ctx context.Context, ev UsageEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return nil
}

// stubModel counts calls through the real pipeline.
type stubModel struct {
	mu     sync.Mutex
	calls  int
	output string
	err    error
	block  chan struct{}
}

func (m *stubModel) Generate(ctx context.Context, req llm.Request) (string, error) {
	m.mu.Lock()
	m.calls++
	block := m.block
	m.mu.Unlock()
	if block != nil {
		<-block
	}
	if m.err != nil {
		return "", m.err
	}
	return m.output, nil
}

func (m *stubModel) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

type never struct{}

func (never) TryAdmit() bool { return false }

type fixture struct {
	orch     *Orchestrator
	model    *stubModel
	injector *recordingInjector
	notifier *recordingNotifier
	stats    *recordingStats
	buffer   *undo.Buffer
	settings settings.Settings
}

func newFixture(t *testing.T, mutate func(*settings.Settings, *Deps)) *fixture {
	t.Helper()

	s := settings.Defaults()
	s.APIKey = "test-key"

	f := &fixture{
		model:    &stubModel{output: "Polished output."},
		injector: &recordingInjector{},
		notifier: &recordingNotifier{},
		stats:    &recordingStats{},
		buffer:   undo.New(undo.DefaultCapacity),
	}

	cfg := llm.DefaultPipelineConfig()
	cfg.Retry.LogRetries = false
	pipeline := llm.NewPipeline(f.model, cfg, retry.WithSleeper(func(ctx context.Context, d time.Duration) error { return nil }))

	deps := Deps{
		Rewriter: pipeline,
		Limiter:  ratelimit.New(ratelimit.DefaultConfig(), nil),
		Injector: f.injector,
		Notifier: f.notifier,
		Stats:    f.stats,
		Undo:     f.buffer,
	}
	if mutate != nil {
		mutate(&s, &deps)
	}
	deps.Settings = settings.Static(s)
	f.settings = s
	f.orch = New(deps)
	return f
}

var page = Location{TabID: "1", URL: "https://example.com/compose"}

func TestHandleTrigger_Success(t *testing.T) {
	f := newFixture(t, nil)

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "GEMINI_REWRITE_professional", Text: "hey can u send the report", Location: page})
	f.orch.Wait()

	require.Equal(t, StatusSuccess, out.Status, out.Message)
	assert.True(t, out.OK())
	assert.Equal(t, "Polished output.", out.Text)
	assert.Equal(t, "professional", out.Mode)
	assert.Equal(t, []string{"Polished output."}, f.injector.texts)
	assert.Equal(t, 1, f.model.callCount())

	msgs := f.notifier.messages()
	assert.Contains(t, msgs, "Rewriting (Professional Tone)...")
	assert.Equal(t, MsgSuccess, msgs[len(msgs)-1])

	require.Len(t, f.stats.events, 1)
	assert.Equal(t, UsageEvent{ModeKey: "professional", InputLen: 25, OutputLen: 16}, f.stats.events[0])

	entry, ok := f.buffer.Find(page.UndoKey())
	require.True(t, ok)
	assert.Equal(t, "hey can u send the report", entry.OriginalText)
}

func TestHandleTrigger_TooLongMakesNoCall(t *testing.T) {
	f := newFixture(t, func(s *settings.Settings, _ *Deps) { s.MaxTextLength = 8000 })

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: strings.Repeat("a", 8001), Location: page})

	assert.Equal(t, StatusValidation, out.Status)
	assert.Equal(t, "Text too long (max 8000 characters)", out.Message)
	assert.Equal(t, 0, f.model.callCount())
	assert.Equal(t, 0, f.buffer.Len())
}

func TestHandleTrigger_LengthCountsCharacters(t *testing.T) {
	f := newFixture(t, func(s *settings.Settings, _ *Deps) { s.MaxTextLength = 5 })

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "héllo", Location: page})

	assert.Equal(t, StatusSuccess, out.Status)
}

func TestHandleTrigger_Validation(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
		status  Status
		message string
	}{
		{"restricted url", Trigger{ModeID: "humanize", Text: "text here", Location: Location{TabID: "1", URL: "chrome://settings"}}, StatusValidation, MsgRestricted},
		{"empty selection", Trigger{ModeID: "humanize", Text: "   ", Location: page}, StatusValidation, MsgSelectText},
		{"empty composer instruction", Trigger{ModeID: "GEMINI_REWRITE_composer", Text: "", Location: page}, StatusValidation, MsgSelectComposer},
		{"unknown mode", Trigger{ModeID: "nonsense", Text: "text here", Location: page}, StatusUnknownMode, MsgUnknownMode},
		{"missing custom mode", Trigger{ModeID: "custom_missing", Text: "text here", Location: page}, StatusUnknownMode, MsgUnknownMode},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, nil)

			out := f.orch.HandleTrigger(context.Background(), tt.trigger)

			assert.Equal(t, tt.status, out.Status)
			assert.Equal(t, tt.message, out.Message)
			assert.Equal(t, 0, f.model.callCount())
			assert.Equal(t, []string{tt.message}, f.notifier.messages())
		})
	}
}

func TestHandleTrigger_DisabledModeIsUnknown(t *testing.T) {
	f := newFixture(t, func(s *settings.Settings, _ *Deps) { s.EnabledModes = []string{"humanize"} })

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "grammar", Text: "text here", Location: page})

	assert.Equal(t, StatusUnknownMode, out.Status)
	assert.Equal(t, 0, f.model.callCount())
}

func TestHandleTrigger_CustomMode(t *testing.T) {
	f := newFixture(t, func(s *settings.Settings, _ *Deps) {
		s.CustomModes = map[string]modes.Custom{
			"pirate": {ModeKey: "pirate", DisplayName: "Pirate", Template: "Rewrite like a pirate."},
		}
	})

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "GEMINI_REWRITE_custom_pirate", Text: "hello friend", Location: page})
	f.orch.Wait()

	require.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "custom_pirate", out.Mode)
	assert.Contains(t, f.notifier.messages(), "Rewriting (Pirate)...")
}

func TestHandleTrigger_RateLimited(t *testing.T) {
	f := newFixture(t, func(_ *settings.Settings, d *Deps) { d.Limiter = never{} })

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "text here", Location: page})

	assert.Equal(t, StatusRateLimited, out.Status)
	assert.Equal(t, MsgRateLimited, out.Message)
	assert.Equal(t, 0, f.model.callCount())
	assert.Equal(t, 0, f.buffer.Len())
}

func TestHandleTrigger_BurstLimit(t *testing.T) {
	f := newFixture(t, nil)

	var statuses []Status
	for i := 0; i < 6; i++ {
		out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "text here", Location: page})
		statuses = append(statuses, out.Status)
	}
	f.orch.Wait()

	assert.Equal(t, []Status{StatusSuccess, StatusSuccess, StatusSuccess, StatusSuccess, StatusSuccess, StatusRateLimited}, statuses)
	assert.Equal(t, 5, f.model.callCount())
}

func TestHandleTrigger_PipelineFailureKeepsUndoEntry(t *testing.T) {
	f := newFixture(t, nil)
	f.model.err = llm.StatusError(401, "API key not valid")

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "text here", Location: page})

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "Please configure your Gemini API key in settings", out.Message)
	assert.Equal(t, 1, f.model.callCount())
	assert.Empty(t, f.injector.texts)
	assert.Empty(t, f.stats.events)
	assert.Equal(t, 1, f.buffer.Len())
}

func TestHandleTrigger_MissingAPIKey(t *testing.T) {
	f := newFixture(t, func(s *settings.Settings, _ *Deps) { s.APIKey = "" })

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "text here", Location: page})

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, "Please configure your Gemini API key in settings", out.Message)
	assert.Equal(t, 0, f.model.callCount())
}

func TestHandleTrigger_InjectionFailure(t *testing.T) {
	f := newFixture(t, nil)
	f.injector.err = errors.New("no editable selection")

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "text here", Location: page})
	f.orch.Wait()

	assert.Equal(t, StatusFailed, out.Status)
	assert.Equal(t, MsgInjectFailed, out.Message)
	assert.Equal(t, "Polished output.", out.Text)
	assert.Empty(t, f.stats.events)
}

func TestHandleTrigger_TogglesOff(t *testing.T) {
	f := newFixture(t, func(s *settings.Settings, _ *Deps) {
		s.EnableUndo = false
		s.EnableUsageTracking = false
	})

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "text here", Location: page})
	f.orch.Wait()

	require.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, 0, f.buffer.Len())
	assert.Empty(t, f.stats.events)
}

func TestHandleTrigger_SecretGuard(t *testing.T) {
	f := newFixture(t, func(_ *settings.Settings, d *Deps) {
		d.Scanner = stubScanner{{RuleID: "aws-access-token"}}
	})

	out := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "text here", Location: page})

	assert.Equal(t, StatusValidation, out.Status)
	assert.Equal(t, "Selection looks like it contains a secret (aws-access-token)", out.Message)
	assert.Equal(t, 0, f.model.callCount())
}

type stubScanner []guard.Finding

func (s stubScanner) Scan(string) []guard.Finding { return s }

func TestHandleTrigger_OneInFlightPerLocation(t *testing.T) {
	f := newFixture(t, nil)
	f.model.block = make(chan struct{})

	done := make(chan Outcome)
	go func() {
		done <- f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "first", Location: page})
	}()

	require.Eventually(t, func() bool { return f.model.callCount() == 1 }, time.Second, time.Millisecond)

	busy := f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "second", Location: page})
	assert.Equal(t, StatusBusy, busy.Status)

	other := Location{TabID: "2", URL: "https://example.com"}
	go func() {
		f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "third", Location: other})
	}()
	require.Eventually(t, func() bool { return f.model.callCount() == 2 }, time.Second, time.Millisecond)

	close(f.model.block)
	assert.Equal(t, StatusSuccess, (<-done).Status)
}

func TestHandleUndo(t *testing.T) {
	f := newFixture(t, nil)

	out := f.orch.HandleUndo(context.Background(), page)
	assert.Equal(t, StatusNothingToUndo, out.Status)
	assert.Equal(t, MsgNothingToUndo, out.Message)

	f.orch.HandleTrigger(context.Background(), Trigger{ModeID: "humanize", Text: "original words", Location: page})
	f.orch.Wait()

	out = f.orch.HandleUndo(context.Background(), page)
	assert.Equal(t, StatusRestored, out.Status)
	assert.Equal(t, "original words", out.Text)
	assert.Equal(t, []string{"Polished output.", "original words"}, f.injector.texts)

	out = f.orch.HandleUndo(context.Background(), page)
	assert.Equal(t, StatusNothingToUndo, out.Status)
}

func TestHandleShortcut(t *testing.T) {
	f := newFixture(t, func(s *settings.Settings, _ *Deps) { s.EnabledModes = []string{} })

	out := f.orch.HandleShortcut(context.Background(), CommandGrammar, "their going home", page)
	f.orch.Wait()
	require.Equal(t, StatusSuccess, out.Status)
	assert.Equal(t, "grammar", out.Mode)

	out = f.orch.HandleShortcut(context.Background(), CommandUndo, "", page)
	assert.Equal(t, StatusRestored, out.Status)

	out = f.orch.HandleShortcut(context.Background(), "rewrite-everything", "text", page)
	assert.Equal(t, StatusIgnored, out.Status)
}

func TestHandleShortcut_Disabled(t *testing.T) {
	f := newFixture(t, func(s *settings.Settings, _ *Deps) { s.EnableKeyboardShortcuts = false })

	out := f.orch.HandleShortcut(context.Background(), CommandHumanize, "some text", page)

	assert.Equal(t, StatusIgnored, out.Status)
	assert.Equal(t, 0, f.model.callCount())
	assert.Empty(t, f.notifier.messages())
}

func TestFriendlyError(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, "Unknown error occurred"},
		{errors.New("API key not valid"), "Please configure your Gemini API key in settings"},
		{llm.StatusError(429, "Resource exhausted"), "API rate limit reached. Please try again later"},
		{errors.New("daily quota exceeded"), "API rate limit reached. Please try again later"},
		{llm.TransportError(errors.New("connection refused")), "Network error. Please check your connection"},
		{llm.TimeoutError(context.DeadlineExceeded), "Request timed out. Please try again"},
		{errors.New("Response blocked: SAFETY"), "Request blocked. Check your content filters"},
		{llm.ErrUnsupportedModel, "Selected model is not supported. Choose another model in settings"},
		{errors.New("Empty response from API"), "Something went wrong. Please try again"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FriendlyError(tt.err))
	}
}

func TestLocationRestricted(t *testing.T) {
	assert.True(t, Location{URL: "about:blank"}.Restricted())
	assert.True(t, Location{URL: "file:///etc/hosts"}.Restricted())
	assert.False(t, Location{URL: "https://mail.example.com"}.Restricted())
	assert.False(t, Location{}.Restricted())
}
