package modes

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltInRegistry(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 21)
	assert.Equal(t, "humanize", defs[0].Key)

	seen := map[string]bool{}
	for _, d := range defs {
		assert.False(t, seen[d.Key], "duplicate key %s", d.Key)
		seen[d.Key] = true
		assert.NotEmpty(t, d.Template, d.Key)
		assert.NotEmpty(t, d.Name, d.Key)
		assert.GreaterOrEqual(t, d.Temperature, 0.7, d.Key)
		assert.LessOrEqual(t, d.Temperature, 1.4, d.Key)
	}
}

func TestTemplateAndTemperatureFallback(t *testing.T) {
	assert.Equal(t, Template("humanize"), Template("does-not-exist"))
	assert.Equal(t, DefaultTemperature, Temperature("does-not-exist"))
	assert.Equal(t, 0.7, Temperature("grammar"))
	assert.Equal(t, 1.4, Temperature("creative"))
}

func TestNormalizeKey(t *testing.T) {
	cases := map[string]string{
		"Pirate Speak":   "pirate_speak",
		"LinkedIn-Post!": "linkedin_post_",
		"abc123":         "abc123",
		"Émoji ✨":        "_moji__",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeKey(in), in)
	}
}

func TestNewCustom(t *testing.T) {
	existing := map[string]Custom{}

	c, err := NewCustom("  Pirate Speak ", "Talk like a pirate.", existing)
	require.NoError(t, err)
	assert.Equal(t, "pirate_speak", c.Key())
	assert.Equal(t, "Pirate Speak", c.Name())
	assert.Equal(t, CategoryCustom, c.Category())
	existing[c.Key()] = c

	_, err = NewCustom("pirate speak", "again", existing)
	assert.True(t, errors.Is(err, ErrModeExists))

	_, err = NewCustom("Grammar", "collides with built-in", existing)
	assert.True(t, errors.Is(err, ErrModeExists))

	_, err = NewCustom("", "prompt", existing)
	assert.ErrorIs(t, err, ErrNameRequired)
	_, err = NewCustom("name", "   ", existing)
	assert.ErrorIs(t, err, ErrNameRequired)
}

func TestResolve(t *testing.T) {
	customs := map[string]Custom{
		"pirate": {ModeKey: "pirate", DisplayName: "Pirate", Template: "Arr."},
	}

	m, err := Resolve("grammar", customs, nil)
	require.NoError(t, err)
	assert.Equal(t, BuiltIn{ModeKey: "grammar"}, m)
	assert.Equal(t, "Fix Grammar & Spelling", m.Name())

	m, err = Resolve("GEMINI_REWRITE_professional", customs, nil)
	require.NoError(t, err)
	assert.Equal(t, "professional", m.Key())

	m, err = Resolve("custom_pirate", customs, nil)
	require.NoError(t, err)
	assert.Equal(t, customs["pirate"], m)
	assert.Equal(t, "custom_pirate", ID(m))

	_, err = Resolve("custom_missing", customs, nil)
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = Resolve("shakespeare", customs, nil)
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = Resolve("", customs, nil)
	assert.ErrorIs(t, err, ErrUnknownMode)

	_, err = Resolve("cheeky", customs, []string{"humanize"})
	assert.ErrorIs(t, err, ErrModeDisabled)
}

func TestList(t *testing.T) {
	customs := map[string]Custom{
		"zed":   {ModeKey: "zed", DisplayName: "Zed"},
		"alpha": {ModeKey: "alpha", DisplayName: "alpha"},
	}
	entries := List(customs, []string{"humanize", "grammar"})
	require.Len(t, entries, 23)

	assert.True(t, entries[0].Enabled)
	assert.False(t, entries[2].Enabled, "professional is not in the enabled list")
	assert.Equal(t, "custom_alpha", entries[21].ID)
	assert.Equal(t, "custom_zed", entries[22].ID)
	assert.True(t, entries[22].Custom)
}
