// Package rewrite is the entry point for rewrite triggers: it validates a
// selection, admits it through the rate limiter, runs the model pipeline
// and reports the outcome.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"github.com/Spotas/Ai-rewrite/internal/guard"
	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/settings"
	"github.com/Spotas/Ai-rewrite/internal/undo"
)

// Status classifies an Outcome.
type Status string

const (
	StatusSuccess       Status = "success"
	StatusRestored      Status = "restored"
	StatusValidation    Status = "validation_error"
	StatusUnknownMode   Status = "unknown_mode"
	StatusRateLimited   Status = "rate_limited"
	StatusBusy          Status = "busy"
	StatusFailed        Status = "failed"
	StatusNothingToUndo Status = "nothing_to_undo"
	StatusIgnored       Status = "ignored"
)

// Trigger is a single rewrite request. It is never persisted.
type Trigger struct {
	ModeID   string    `json:"mode"`
	Text     string    `json:"text"`
	Location Location  `json:"location"`
	At       time.Time `json:"-"`
}

// Outcome reports what happened to a trigger.
type Outcome struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
	Text    string `json:"text,omitempty"`
	Mode    string `json:"mode,omitempty"`
	Err     error  `json:"-"`
}

// OK reports whether the outcome changed the page.
func (o Outcome) OK() bool {
	return o.Status == StatusSuccess || o.Status == StatusRestored
}

// Keyboard shortcut commands.
const (
	CommandHumanize     = "rewrite-humanize"
	CommandProfessional = "rewrite-professional"
	CommandGrammar      = "rewrite-grammar"
	CommandUndo         = "undo-rewrite"
)

var shortcutModes = map[string]string{
	CommandHumanize:     "humanize",
	CommandProfessional: "professional",
	CommandGrammar:      "grammar",
}

// Deps are the collaborators of an Orchestrator. Settings, Rewriter,
// Limiter and Injector are required.
type Deps struct {
	Settings settings.Source
	Rewriter Rewriter
	Limiter  Admitter
	Injector Injector
	Notifier Notifier
	Stats    StatsRecorder
	Undo     *undo.Buffer
	Scanner  guard.Scanner
}

// Orchestrator owns the process-wide rewrite state.
type Orchestrator struct {
	deps Deps

	mu       sync.Mutex
	inflight map[undo.Location]struct{}

	statsWG sync.WaitGroup
}

// New creates an orchestrator. A nil Notifier discards notifications and a
// nil Undo buffer gets a default-capacity one.
func New(deps Deps) *Orchestrator {
	if deps.Notifier == nil {
		deps.Notifier = NopNotifier{}
	}
	if deps.Undo == nil {
		deps.Undo = undo.New(undo.DefaultCapacity)
	}
	return &Orchestrator{
		deps:     deps,
		inflight: make(map[undo.Location]struct{}),
	}
}

// Undo returns the orchestrator's undo buffer.
func (o *Orchestrator) Undo() *undo.Buffer {
	return o.deps.Undo
}

// HandleTrigger validates and runs a rewrite.
func (o *Orchestrator) HandleTrigger(ctx context.Context, t Trigger) Outcome {
	return o.handle(ctx, t, false)
}

// HandleShortcut runs a keyboard command against text selected at loc.
func (o *Orchestrator) HandleShortcut(ctx context.Context, command, text string, loc Location) Outcome {
	s, err := o.snapshot(ctx)
	if err != nil {
		return o.fail(ctx, loc, "", err)
	}
	if !s.EnableKeyboardShortcuts {
		log.Debug().Str("command", command).Msg("Keyboard shortcut ignored, shortcuts disabled")
		return Outcome{Status: StatusIgnored, Message: MsgShortcutsOff}
	}
	if command == CommandUndo {
		return o.HandleUndo(ctx, loc)
	}
	key, ok := shortcutModes[command]
	if !ok {
		return o.reject(ctx, loc, StatusIgnored, MsgUnknownShortcut, "")
	}
	return o.handle(ctx, Trigger{ModeID: key, Text: text, Location: loc}, true)
}

// HandleUndo restores the most recent original text for loc.
func (o *Orchestrator) HandleUndo(ctx context.Context, loc Location) Outcome {
	text, err := o.deps.Undo.Restore(loc.UndoKey())
	if errors.Is(err, undo.ErrNothingToUndo) {
		o.notify(ctx, loc, Notification{Message: MsgNothingToUndo, Level: LevelWarning, IsError: true, DurationMs: DefaultDuration})
		return Outcome{Status: StatusNothingToUndo, Message: MsgNothingToUndo}
	}

	if err := o.deps.Injector.Inject(ctx, loc, text); err != nil {
		log.Error().Err(err).Str("tab", loc.TabID).Msg("Undo failed")
		// Put the entry back so the user can try again.
		o.deps.Undo.Record(loc.UndoKey(), text)
		o.notify(ctx, loc, Notification{Message: MsgUndoFailed, Level: LevelError, IsError: true, DurationMs: DefaultDuration})
		return Outcome{Status: StatusFailed, Message: MsgUndoFailed, Err: err}
	}

	o.notify(ctx, loc, Notification{Message: MsgRestored, Level: LevelSuccess, DurationMs: ShortDuration})
	return Outcome{Status: StatusRestored, Message: MsgRestored, Text: text}
}

// Wait blocks until pending usage events have been recorded.
func (o *Orchestrator) Wait() {
	o.statsWG.Wait()
}

func (o *Orchestrator) handle(ctx context.Context, t Trigger, shortcut bool) Outcome {
	loc := t.Location
	if t.At.IsZero() {
		t.At = time.Now()
	}

	if loc.Restricted() {
		log.Warn().Str("url", loc.URL).Msg("Rewrite refused on restricted URL")
		return o.reject(ctx, loc, StatusValidation, MsgRestricted, "")
	}

	if strings.TrimSpace(t.Text) == "" {
		msg := MsgSelectText
		if strings.Contains(t.ModeID, modes.ComposerKey) {
			msg = MsgSelectComposer
		}
		return o.reject(ctx, loc, StatusValidation, msg, "")
	}

	s, err := o.snapshot(ctx)
	if err != nil {
		return o.fail(ctx, loc, "", err)
	}

	if n := utf8.RuneCountInString(t.Text); n > s.MaxTextLength {
		log.Debug().Int("length", n).Int("max", s.MaxTextLength).Msg("Selection too long")
		return o.reject(ctx, loc, StatusValidation, tooLong(s.MaxTextLength), "")
	}

	enabled := s.EnabledModes
	if shortcut {
		enabled = nil
	}
	mode, err := modes.Resolve(t.ModeID, s.CustomModes, enabled)
	if err != nil {
		log.Warn().Err(err).Str("mode", t.ModeID).Msg("Unknown rewrite mode")
		return o.reject(ctx, loc, StatusUnknownMode, MsgUnknownMode, "")
	}
	modeID := modes.ID(mode)

	var secret *guard.SecretError
	if err := guard.Check(o.deps.Scanner, t.Text); errors.As(err, &secret) {
		return o.reject(ctx, loc, StatusValidation, fmt.Sprintf(msgSecretFormat, secret.RuleID), modeID)
	}

	key := loc.UndoKey()
	if !o.acquire(key) {
		return o.reject(ctx, loc, StatusBusy, MsgBusy, modeID)
	}
	defer o.release(key)

	if !o.deps.Limiter.TryAdmit() {
		log.Info().Str("mode", modeID).Msg("Rewrite rejected by rate limiter")
		return o.reject(ctx, loc, StatusRateLimited, MsgRateLimited, modeID)
	}

	log.Info().
		Str("mode", modeID).
		Int("length", utf8.RuneCountInString(t.Text)).
		Str("url", loc.URL).
		Bool("shortcut", shortcut).
		Msg("Rewrite requested")

	o.notify(ctx, loc, Notification{Message: rewriting(mode.Name()), Level: LevelProgress, DurationMs: ShortDuration})

	if s.EnableUndo {
		o.deps.Undo.Record(key, t.Text)
	}

	result, err := o.deps.Rewriter.Execute(ctx, s.APIKey, t.Text, mode, s)
	if err != nil {
		return o.fail(ctx, loc, modeID, err)
	}

	if err := o.deps.Injector.Inject(ctx, loc, result); err != nil {
		log.Error().Err(err).Str("mode", modeID).Msg("Text injection failed")
		o.notify(ctx, loc, Notification{Message: MsgInjectFailed, Level: LevelError, IsError: true, DurationMs: DefaultDuration})
		return Outcome{Status: StatusFailed, Message: MsgInjectFailed, Text: result, Mode: modeID, Err: err}
	}

	if s.EnableUsageTracking && o.deps.Stats != nil {
		o.recordUsage(ctx, UsageEvent{
			ModeKey:   modeID,
			InputLen:  utf8.RuneCountInString(t.Text),
			OutputLen: utf8.RuneCountInString(result),
		})
	}

	o.notify(ctx, loc, Notification{Message: MsgSuccess, Level: LevelSuccess, DurationMs: ShortDuration})
	return Outcome{Status: StatusSuccess, Message: MsgSuccess, Text: result, Mode: modeID}
}

func (o *Orchestrator) snapshot(ctx context.Context) (settings.Settings, error) {
	s, err := o.deps.Settings.Snapshot(ctx)
	if err != nil {
		return settings.Settings{}, fmt.Errorf("failed to load settings: %w", err)
	}
	return s.Normalize(), nil
}

func (o *Orchestrator) acquire(key undo.Location) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inflight[key]; busy {
		return false
	}
	o.inflight[key] = struct{}{}
	return true
}

func (o *Orchestrator) release(key undo.Location) {
	o.mu.Lock()
	delete(o.inflight, key)
	o.mu.Unlock()
}

// recordUsage sends ev to the stats collaborator without waiting for it.
func (o *Orchestrator) recordUsage(ctx context.Context, ev UsageEvent) {
	o.statsWG.Add(1)
	go func() {
		defer o.statsWG.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 5*time.Second)
		defer cancel()
		if err := o.deps.Stats.RecordUsage(ctx, ev); err != nil {
			log.Error().Err(err).Str("mode", ev.ModeKey).Msg("Error tracking usage")
		}
	}()
}

func (o *Orchestrator) reject(ctx context.Context, loc Location, status Status, msg, modeID string) Outcome {
	level := LevelWarning
	if status == StatusUnknownMode || loc.Restricted() {
		level = LevelError
	}
	o.notify(ctx, loc, Notification{Message: msg, Level: level, IsError: true, DurationMs: DefaultDuration})
	return Outcome{Status: status, Message: msg, Mode: modeID}
}

func (o *Orchestrator) fail(ctx context.Context, loc Location, modeID string, err error) Outcome {
	msg := FriendlyError(err)
	log.Error().Err(err).Str("mode", modeID).Str("friendly", msg).Msg("Rewrite failed")
	o.notify(ctx, loc, Notification{Message: msg, Level: LevelError, IsError: true, DurationMs: DefaultDuration})
	return Outcome{Status: StatusFailed, Message: msg, Mode: modeID, Err: err}
}

func (o *Orchestrator) notify(ctx context.Context, loc Location, n Notification) {
	if err := o.deps.Notifier.Notify(ctx, loc, n); err != nil {
		log.Warn().Err(err).Str("tab", loc.TabID).Str("message", n.Message).Msg("Notification failed")
	}
}
