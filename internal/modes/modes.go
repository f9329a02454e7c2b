package modes

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"sort"
	"strings"
	"time"
)

// Mode is either a BuiltIn or a Custom transformation.
type Mode interface {
	Key() string
	Name() string
	Category() string
	isMode()
}

// BuiltIn refers to an entry of the fixed registry by key.
type BuiltIn struct {
	ModeKey string
}

func (b BuiltIn) Key() string { return b.ModeKey }

func (b BuiltIn) Name() string {
	if d, ok := Lookup(b.ModeKey); ok {
		return d.Name
	}
	return b.ModeKey
}

func (b BuiltIn) Category() string {
	if d, ok := Lookup(b.ModeKey); ok {
		return d.Category
	}
	return ""
}

func (BuiltIn) isMode() {}

// Custom is a user-owned mode with its own instruction template.
type Custom struct {
	ModeKey     string    `json:"key"`
	DisplayName string    `json:"name"`
	Template    string    `json:"prompt"`
	CreatedAt   time.Time `json:"createdAt,omitempty"`
}

func (c Custom) Key() string { return c.ModeKey }

func (c Custom) Name() string {
	if c.DisplayName != "" {
		return c.DisplayName
	}
	return c.ModeKey
}

func (Custom) Category() string { return CategoryCustom }

func (Custom) isMode() {}

// Mode identifiers may carry the context-menu prefix and custom modes are
// addressed as "custom_<key>".
const (
	MenuPrefix   = "GEMINI_REWRITE_"
	CustomPrefix = "custom_"
)

var (
	ErrUnknownMode  = errors.New("unknown rewrite mode")
	ErrModeDisabled = errors.New("rewrite mode is disabled")
	ErrModeExists   = errors.New("a mode with this name already exists")
	ErrNameRequired = errors.New("please enter both name and prompt")
	ErrModeNotFound = errors.New("custom mode not found")
)

var nonKeyChars = regexp.MustCompile(`[^a-z0-9]`)

// NormalizeKey derives a custom mode key from its display name.
func NormalizeKey(name string) string {
	return nonKeyChars.ReplaceAllString(strings.ToLower(name), "_")
}

// NewCustom validates a new custom mode against the combined namespace.
func NewCustom(name, prompt string, existing map[string]Custom) (Custom, error) {
	name = strings.TrimSpace(name)
	prompt = strings.TrimSpace(prompt)
	if name == "" || prompt == "" {
		return Custom{}, ErrNameRequired
	}
	key := NormalizeKey(name)
	if IsBuiltIn(key) {
		return Custom{}, fmt.Errorf("%w: %q is a built-in mode", ErrModeExists, key)
	}
	if _, ok := existing[key]; ok {
		return Custom{}, fmt.Errorf("%w: %q", ErrModeExists, key)
	}
	return Custom{ModeKey: key, DisplayName: name, Template: prompt, CreatedAt: time.Now().UTC()}, nil
}

// Resolve turns a mode identifier into a Mode. Built-in modes must be
// enabled unless enabled is nil; custom modes must exist in customs.
func Resolve(id string, customs map[string]Custom, enabled []string) (Mode, error) {
	key := strings.TrimPrefix(strings.TrimSpace(id), MenuPrefix)
	if key == "" {
		return nil, ErrUnknownMode
	}

	if strings.HasPrefix(key, CustomPrefix) {
		c, ok := customs[strings.TrimPrefix(key, CustomPrefix)]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownMode, id)
		}
		return c, nil
	}

	if !IsBuiltIn(key) {
		return nil, fmt.Errorf("%w: %s", ErrUnknownMode, id)
	}
	if enabled != nil && !slices.Contains(enabled, key) {
		return nil, fmt.Errorf("%w: %s", ErrModeDisabled, key)
	}
	return BuiltIn{ModeKey: key}, nil
}

// ID is the inverse of Resolve for a mode.
func ID(m Mode) string {
	switch v := m.(type) {
	case Custom:
		return CustomPrefix + v.ModeKey
	case BuiltIn:
		return v.ModeKey
	default:
		panic(fmt.Sprintf("modes: unhandled mode type %T", m))
	}
}

// Entry is the listing shape shared by the CLI, HTTP and MCP surfaces.
type Entry struct {
	ID          string `json:"id"`
	Key         string `json:"key"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
	Custom      bool   `json:"custom"`
	Enabled     bool   `json:"enabled"`
}

// List returns built-in modes in menu order followed by custom modes
// sorted by name.
func List(customs map[string]Custom, enabled []string) []Entry {
	out := make([]Entry, 0, len(definitions)+len(customs))
	for _, d := range definitions {
		out = append(out, Entry{
			ID:          d.Key,
			Key:         d.Key,
			Name:        d.Name,
			Category:    d.Category,
			Description: d.Description,
			Enabled:     enabled == nil || slices.Contains(enabled, d.Key),
		})
	}
	for _, c := range SortedCustoms(customs) {
		out = append(out, Entry{
			ID:       CustomPrefix + c.ModeKey,
			Key:      c.ModeKey,
			Name:     c.Name(),
			Category: CategoryCustom,
			Custom:   true,
			Enabled:  true,
		})
	}
	return out
}

// SortedCustoms returns the custom modes ordered by display name, then key.
func SortedCustoms(customs map[string]Custom) []Custom {
	out := make([]Custom, 0, len(customs))
	for _, c := range customs {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := strings.ToLower(out[i].Name()), strings.ToLower(out[j].Name())
		if a != b {
			return a < b
		}
		return out[i].ModeKey < out[j].ModeKey
	})
	return out
}
