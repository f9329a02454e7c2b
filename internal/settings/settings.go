// Package settings holds the read-only settings snapshot consumed by the
// rewrite core and its import/export document.
package settings

import (
	"context"

	"github.com/Spotas/Ai-rewrite/internal/modes"
)

const (
	DefaultModel         = "gemini-2.5-flash"
	DefaultMaxTextLength = 8000
	MinTextLength        = 3
)

// Settings is a snapshot of the user's configuration.
type Settings struct {
	APIKey                  string                  `json:"-"`
	SelectedModel           string                  `json:"selectedModel"`
	CustomModes             map[string]modes.Custom `json:"customModes"`
	EnabledModes            []string                `json:"enabledModes"`
	MaxTextLength           int                     `json:"maxTextLength"`
	EnableUndo              bool                    `json:"enableUndo"`
	EnableUsageTracking     bool                    `json:"enableUsageTracking"`
	EnableKeyboardShortcuts bool                    `json:"enableKeyboardShortcuts"`
}

// Defaults mirrors a fresh install: every built-in mode enabled and every
// feature toggle on.
func Defaults() Settings {
	return Settings{
		SelectedModel:           DefaultModel,
		CustomModes:             map[string]modes.Custom{},
		EnabledModes:            modes.BuiltInKeys(),
		MaxTextLength:           DefaultMaxTextLength,
		EnableUndo:              true,
		EnableUsageTracking:     true,
		EnableKeyboardShortcuts: true,
	}
}

// Source supplies settings snapshots. The core never writes through it.
type Source interface {
	Snapshot(ctx context.Context) (Settings, error)
}

// Static is a Source that always returns the same snapshot.
type Static Settings

func (s Static) Snapshot(context.Context) (Settings, error) {
	return Settings(s), nil
}

// Normalize fills zero values with defaults.
func (s Settings) Normalize() Settings {
	def := Defaults()
	if s.SelectedModel == "" {
		s.SelectedModel = def.SelectedModel
	}
	if s.MaxTextLength <= 0 {
		s.MaxTextLength = def.MaxTextLength
	}
	if s.CustomModes == nil {
		s.CustomModes = map[string]modes.Custom{}
	}
	if s.EnabledModes == nil {
		s.EnabledModes = def.EnabledModes
	}
	return s
}
