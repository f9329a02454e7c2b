package prompts

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Spotas/Ai-rewrite/internal/modes"
)

// ErrMissingTemplate is returned for a custom mode without an instruction.
var ErrMissingTemplate = errors.New("custom mode has no prompt template")

// Prompt is the complete instruction sent to the model together with the
// sampling temperature chosen for its mode.
type Prompt struct {
	Text        string
	Temperature float64
}

// PromptBuilder maps a (text, mode) pair to a prompt
type PromptBuilder struct{}

// NewPromptBuilder creates a new prompt builder instance
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build assembles instruction, output discipline, quoted input and the
// output cue, in that order.
func (pb *PromptBuilder) Build(text string, mode modes.Mode) (Prompt, error) {
	var instruction string
	var temperature float64

	switch m := mode.(type) {
	case modes.BuiltIn:
		instruction = modes.Template(m.ModeKey)
		temperature = modes.Temperature(m.ModeKey)
	case modes.Custom:
		if strings.TrimSpace(m.Template) == "" {
			return Prompt{}, fmt.Errorf("%w: %s", ErrMissingTemplate, m.ModeKey)
		}
		instruction = m.Template
		temperature = modes.DefaultTemperature
	case nil:
		return Prompt{}, errors.New("prompts: nil mode")
	default:
		return Prompt{}, fmt.Errorf("prompts: unsupported mode type %T", mode)
	}

	var b strings.Builder
	b.Grow(len(instruction) + len(OutputDiscipline) + len(text) + 48)
	b.WriteString(instruction)
	b.WriteString("\n\n")
	b.WriteString(OutputDiscipline)
	b.WriteString("\n\n")
	b.WriteString(InputHeader)
	b.WriteString("\n\"")
	b.WriteString(text)
	b.WriteString("\"\n\n")
	b.WriteString(OutputCue)

	return Prompt{Text: b.String(), Temperature: temperature}, nil
}
