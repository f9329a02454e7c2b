package rewrite

import (
	"strings"

	"github.com/Spotas/Ai-rewrite/internal/undo"
)

// restrictedPrefixes are URL schemes on which rewriting is refused.
var restrictedPrefixes = []string{
	"chrome://",
	"chrome-extension://",
	"moz-extension://",
	"edge://",
	"opera://",
	"about:",
	"file://",
	"data:",
	"javascript:",
}

// Location identifies the editable surface a trigger came from. URL is
// empty for surfaces that are not web pages, such as the CLI.
type Location struct {
	TabID   string `json:"tabId"`
	FrameID int    `json:"frameId"`
	URL     string `json:"url,omitempty"`
}

// Restricted reports whether the location's URL uses a protected scheme.
func (l Location) Restricted() bool {
	for _, prefix := range restrictedPrefixes {
		if strings.HasPrefix(l.URL, prefix) {
			return true
		}
	}
	return false
}

// UndoKey is the tab and frame identity used by the undo buffer.
func (l Location) UndoKey() undo.Location {
	return undo.Location{TabID: l.TabID, FrameID: l.FrameID}
}
