package rewrite

import (
	"context"

	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

// Injector replaces the selected span at a location with text. It returns
// an error when no focused, editable, non-collapsed selection exists.
type Injector interface {
	Inject(ctx context.Context, loc Location, text string) error
}

// Level is the severity of a notification.
type Level string

const (
	LevelProgress Level = "progress"
	LevelSuccess  Level = "success"
	LevelInfo     Level = "info"
	LevelWarning  Level = "warning"
	LevelError    Level = "error"
)

// Notification is a transient user-visible message.
type Notification struct {
	Message    string `json:"message"`
	Level      Level  `json:"level"`
	IsError    bool   `json:"isError"`
	DurationMs int    `json:"durationMs"`
}

// Notifier shows notifications. Failures are logged and never escalated.
type Notifier interface {
	Notify(ctx context.Context, loc Location, n Notification) error
}

// UsageEvent describes one successful rewrite.
type UsageEvent struct {
	ModeKey   string
	InputLen  int
	OutputLen int
}

// StatsRecorder persists usage events.
type StatsRecorder interface {
	RecordUsage(ctx context.Context, ev UsageEvent) error
}

// Rewriter runs a rewrite against the model. *llm.Pipeline implements it.
type Rewriter interface {
	Execute(ctx context.Context, apiKey, text string, mode modes.Mode, s settings.Settings) (string, error)
}

// Admitter decides whether a new attempt may start. *ratelimit.Limiter
// implements it.
type Admitter interface {
	TryAdmit() bool
}

// NopNotifier discards notifications.
type NopNotifier struct{}

func (NopNotifier) Notify(context.Context, Location, Notification) error { return nil }
