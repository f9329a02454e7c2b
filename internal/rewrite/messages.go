package rewrite

import (
	"errors"
	"fmt"
	"strings"

	"github.com/Spotas/Ai-rewrite/internal/llm"
)

// User-facing messages.
const (
	MsgRestricted       = "Cannot rewrite text on this page (restricted URL)"
	MsgSelectText       = "Please select text to rewrite"
	MsgSelectComposer   = "Please select an instruction first (e.g., 'write email asking for update')"
	MsgUnknownMode      = "Unknown rewrite mode"
	MsgRateLimited      = "Too many requests. Please wait a moment."
	MsgBusy             = "A rewrite is already running here. Please wait."
	MsgSuccess          = "Text rewritten successfully!"
	MsgInjectFailed     = "Failed to replace text. Try clicking in the text field first."
	MsgNothingToUndo    = "No text to undo"
	MsgRestored         = "Text restored"
	MsgUndoFailed       = "Undo failed"
	MsgShortcutsOff     = "Keyboard shortcuts are disabled"
	MsgUnknownShortcut  = "Unknown keyboard shortcut"
	msgTooLongFormat    = "Text too long (max %d characters)"
	msgRewritingFormat  = "Rewriting (%s)..."
	msgSecretFormat     = "Selection looks like it contains a secret (%s)"
	msgGenericFailure   = "Something went wrong. Please try again"
	msgUnknownFailure   = "Unknown error occurred"
	msgConfigureKey     = "Please configure your Gemini API key in settings"
	msgAPIRateLimit     = "API rate limit reached. Please try again later"
	msgNetwork          = "Network error. Please check your connection"
	msgTimedOut         = "Request timed out. Please try again"
	msgBlocked          = "Request blocked. Check your content filters"
	msgUnsupportedModel = "Selected model is not supported. Choose another model in settings"
)

// Notification durations in milliseconds.
const (
	ShortDuration   = 2000
	DefaultDuration = 4000
)

func tooLong(max int) string { return fmt.Sprintf(msgTooLongFormat, max) }

func rewriting(name string) string { return fmt.Sprintf(msgRewritingFormat, name) }

// friendlyRule maps a substring of an error message to a user message.
type friendlyRule struct {
	needles []string
	message string
}

var friendlyRules = []friendlyRule{
	{[]string{"API key"}, msgConfigureKey},
	{[]string{"quota", "rate limit"}, msgAPIRateLimit},
	{[]string{"network", "fetch"}, msgNetwork},
	{[]string{"timeout"}, msgTimedOut},
	{[]string{"blocked"}, msgBlocked},
}

// FriendlyError translates a pipeline error into one of a fixed set of
// user-facing messages.
func FriendlyError(err error) string {
	if err == nil {
		return msgUnknownFailure
	}
	if errors.Is(err, llm.ErrUnsupportedModel) {
		return msgUnsupportedModel
	}
	switch llm.KindOf(err) {
	case llm.KindAuth:
		return msgConfigureKey
	case llm.KindRateLimited:
		return msgAPIRateLimit
	case llm.KindTimeout:
		return msgTimedOut
	}

	msg := strings.ToLower(err.Error())
	for _, rule := range friendlyRules {
		for _, needle := range rule.needles {
			if strings.Contains(msg, strings.ToLower(needle)) {
				return rule.message
			}
		}
	}
	return msgGenericFailure
}
