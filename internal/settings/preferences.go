package settings

import (
	"errors"
	"fmt"
	"slices"

	"github.com/Spotas/Ai-rewrite/internal/modes"
)

var (
	ErrNoModesEnabled  = errors.New("please select at least one mode")
	ErrTextLengthRange = fmt.Errorf("max text length must be at least %d", MinTextLength)
	ErrAPIKeyEmpty     = errors.New("API Key cannot be empty")
)

// Preferences is a partial update of the scalar settings. Nil fields are
// left unchanged.
type Preferences struct {
	APIKey                  *string `json:"apiKey,omitempty"`
	SelectedModel           *string `json:"selectedModel,omitempty"`
	MaxTextLength           *int    `json:"maxTextLength,omitempty"`
	EnableUndo              *bool   `json:"enableUndo,omitempty"`
	EnableUsageTracking     *bool   `json:"enableUsageTracking,omitempty"`
	EnableKeyboardShortcuts *bool   `json:"enableKeyboardShortcuts,omitempty"`
}

// Merge overlays the fields set in p onto base and returns the result.
func (p Preferences) Merge(base Preferences) Preferences {
	if p.APIKey != nil {
		base.APIKey = p.APIKey
	}
	if p.SelectedModel != nil {
		base.SelectedModel = p.SelectedModel
	}
	if p.MaxTextLength != nil {
		base.MaxTextLength = p.MaxTextLength
	}
	if p.EnableUndo != nil {
		base.EnableUndo = p.EnableUndo
	}
	if p.EnableUsageTracking != nil {
		base.EnableUsageTracking = p.EnableUsageTracking
	}
	if p.EnableKeyboardShortcuts != nil {
		base.EnableKeyboardShortcuts = p.EnableKeyboardShortcuts
	}
	return base
}

// Apply writes the fields set in p into s.
func (p Preferences) Apply(s Settings) Settings {
	if p.APIKey != nil {
		s.APIKey = *p.APIKey
	}
	if p.SelectedModel != nil {
		s.SelectedModel = *p.SelectedModel
	}
	if p.MaxTextLength != nil {
		s.MaxTextLength = *p.MaxTextLength
	}
	if p.EnableUndo != nil {
		s.EnableUndo = *p.EnableUndo
	}
	if p.EnableUsageTracking != nil {
		s.EnableUsageTracking = *p.EnableUsageTracking
	}
	if p.EnableKeyboardShortcuts != nil {
		s.EnableKeyboardShortcuts = *p.EnableKeyboardShortcuts
	}
	return s
}

// Validate rejects values the settings page would refuse to save.
func (p Preferences) Validate() error {
	if p.APIKey != nil && *p.APIKey == "" {
		return ErrAPIKeyEmpty
	}
	if p.MaxTextLength != nil && *p.MaxTextLength < MinTextLength {
		return ErrTextLengthRange
	}
	return nil
}

// ValidateEnabledModes checks that at least one mode is enabled and that
// every key names a built-in mode.
func ValidateEnabledModes(keys []string) error {
	if len(keys) == 0 {
		return ErrNoModesEnabled
	}
	for _, k := range keys {
		if !modes.IsBuiltIn(k) {
			return fmt.Errorf("%w: %s", modes.ErrUnknownMode, k)
		}
	}
	return nil
}

// EnabledInOrder returns keys filtered to built-in modes, in menu order and
// without duplicates.
func EnabledInOrder(keys []string) []string {
	out := make([]string, 0, len(keys))
	for _, k := range modes.BuiltInKeys() {
		if slices.Contains(keys, k) {
			out = append(out, k)
		}
	}
	return out
}
