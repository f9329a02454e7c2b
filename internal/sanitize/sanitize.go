// Package sanitize turns raw model output into text that can be spliced
// back into an editable field.
package sanitize

import (
	"regexp"
	"strings"
)

// structuredModes keep list formatting in their output.
var structuredModes = map[string]bool{
	"composer":  true,
	"summarize": true,
	"detailed":  true,
}

var markdown = []*regexp.Regexp{
	regexp.MustCompile(`\*\*(.*?)\*\*`),
	regexp.MustCompile(`\*(.*?)\*`),
	regexp.MustCompile("`(.*?)`"),
	regexp.MustCompile(`_{2,}(.*?)_{2,}`),
}

var listMarkers = []*regexp.Regexp{
	regexp.MustCompile(`(?m)^[*\-+]\s+`),
	regexp.MustCompile(`(?m)^\d+\.\s+`),
}

// preambles match only at the start and always end in a colon.
var preambles = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^Here's the rewritten text\s*:\s*`),
	regexp.MustCompile(`(?i)^(Rewritten text|Result|Output)\s*:\s*`),
	regexp.MustCompile(`(?i)^The rewritten version\s*:\s*`),
	regexp.MustCompile(`(?i)^Here's the [^:\n]*:\s*`),
	regexp.MustCompile(`(?i)^This [^:\n]*\bversion\s*:\s*`),
}

var (
	extraNewlines = regexp.MustCompile(`\n{3,}`)
	extraSpaces   = regexp.MustCompile(` {2,}`)
)

// KeepsLists reports whether mode output may contain list markers.
func KeepsLists(mode string) bool {
	return structuredModes[mode]
}

// Clean applies the cleanup steps until the text stops changing, so that
// Clean(Clean(x, m), m) == Clean(x, m).
func Clean(raw, mode string) string {
	text := strings.TrimSpace(raw)
	for {
		next := pass(text, mode)
		if next == text {
			return next
		}
		text = next
	}
}

// pass runs every step once, in order.
func pass(text, mode string) string {
	text = stripWrappingQuotes(text)

	for _, re := range markdown {
		text = re.ReplaceAllString(text, "$1")
	}

	if !KeepsLists(mode) {
		for _, re := range listMarkers {
			text = re.ReplaceAllString(text, "")
		}
	}

	for _, re := range preambles {
		text = re.ReplaceAllString(text, "")
	}

	text = extraNewlines.ReplaceAllString(text, "\n\n")
	text = extraSpaces.ReplaceAllString(text, " ")

	return strings.TrimSpace(text)
}

func stripWrappingQuotes(text string) string {
	if len(text) < 2 {
		return text
	}
	first, last := text[0], text[len(text)-1]
	if first == last && (first == '"' || first == '\'') {
		return text[1 : len(text)-1]
	}
	return text
}
