package sanitize

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClean_Examples(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		mode string
		want string
	}{
		{"quotes and bold", `"**Hello** there!"`, "humanize", "Hello there!"},
		{"preamble", "Here's the rewritten text: Good morning.", "humanize", "Good morning."},
		{"single quotes", "'Thanks a lot'", "polite", "Thanks a lot"},
		{"mismatched quotes kept", `"Thanks a lot'`, "polite", `"Thanks a lot'`},
		{"italic and code", "Use *this* and `that`", "casual", "Use this and that"},
		{"underline", "__very__ important", "casual", "very important"},
		{"bullets stripped", "- one\n* two\n+ three\n1. four", "humanize", "one\ntwo\nthree\nfour"},
		{"bullets kept for composer", "- one\n- two", "composer", "- one\n- two"},
		{"numbers kept for summarize", "1. first\n2. second", "summarize", "1. first\n2. second"},
		{"case insensitive preamble", "RESULT: done", "grammar", "done"},
		{"output cue echoed", "Output: Hi team", "professional", "Hi team"},
		{"generic here's the", "Here's the polished email: Hi Bob", "professional", "Hi Bob"},
		{"here's the improved version", "Here's the improved version: Good morning.", "humanize", "Good morning."},
		{"here's the without colon kept", "Here's the plan for today.", "humanize", "Here's the plan for today."},
		{"result prefix of a word kept", "Results are in and we won.", "humanize", "Results are in and we won."},
		{"output as a subject kept", "Output from the team rose 10%.", "humanize", "Output from the team rose 10%."},
		{"version without colon kept", "This is the final version of the plan.", "humanize", "This is the final version of the plan."},
		{"spaced colon", "Result : done", "grammar", "done"},
		{"this version", "This friendlier version: Hey!", "casual", "Hey!"},
		{"newlines collapse", "a\n\n\n\nb", "detailed", "a\n\nb"},
		{"spaces collapse", "a    b  c", "humanize", "a b c"},
		{"trim", "  \n padded \n ", "humanize", "padded"},
		{"empty", "", "humanize", ""},
		{"only quotes", `""`, "humanize", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Clean(tt.raw, tt.mode))
		})
	}
}

func TestClean_Idempotent(t *testing.T) {
	fragments := []string{
		`"`, `'`, "**", "*", "`", "__", "_", "- ", "+ ", "1. ", "12. ",
		"\n", "\n\n\n", "  ", " ", "\t",
		"Here's the rewritten text:", "Result:", "Output: ", "This new version: ",
		"Here's the ", "hello", "world", "Good morning.", "ok",
	}
	modeKeys := []string{"humanize", "composer", "summarize", "detailed", "grammar", "custom_x"}

	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 2000; i++ {
		var b strings.Builder
		n := 1 + rng.Intn(12)
		for j := 0; j < n; j++ {
			b.WriteString(fragments[rng.Intn(len(fragments))])
		}
		raw := b.String()
		mode := modeKeys[rng.Intn(len(modeKeys))]

		once := Clean(raw, mode)
		twice := Clean(once, mode)
		if once != twice {
			t.Fatalf("not idempotent for %q (%s): %q -> %q", raw, mode, once, twice)
		}
	}
}

func TestClean_NestedQuotesReachFixedPoint(t *testing.T) {
	once := Clean(`'"wrapped twice"'`, "humanize")
	assert.Equal(t, "wrapped twice", once)
	assert.Equal(t, once, Clean(once, "humanize"))
}

func TestKeepsLists(t *testing.T) {
	assert.True(t, KeepsLists("composer"))
	assert.True(t, KeepsLists("summarize"))
	assert.True(t, KeepsLists("detailed"))
	assert.False(t, KeepsLists("humanize"))
	assert.False(t, KeepsLists(""))
}
