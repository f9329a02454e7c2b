package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Spotas/Ai-rewrite/internal/llm"
	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/rewrite"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

type upperRewriter struct {
	err error
}

func (r upperRewriter) Execute(_ context.Context, _, text string, mode modes.Mode, _ settings.Settings) (string, error) {
	if r.err != nil {
		return "", r.err
	}
	return mode.Key() + ": " + text, nil
}

type admitAll struct{}

func (admitAll) TryAdmit() bool { return true }

func testHandlers(t *testing.T, rw rewrite.Rewriter) *Handlers {
	t.Helper()
	s := settings.Defaults()
	s.APIKey = "k"
	s.EnabledModes = []string{"grammar", "professional"}
	s.CustomModes = map[string]modes.Custom{
		"pirate": {ModeKey: "pirate", DisplayName: "Pirate", Template: "Arr"},
	}
	source := settings.Static(s)

	orch := rewrite.New(rewrite.Deps{
		Settings: source,
		Rewriter: rw,
		Limiter:  admitAll{},
		Injector: ReturnInjector{},
		Notifier: LogNotifier{},
	})
	return NewHandlers(orch, source)
}

// makeRequest creates a CallToolRequest with the given arguments.
func makeRequest(args map[string]any) mcp.CallToolRequest {
	return mcp.CallToolRequest{
		Params: mcp.CallToolParams{
			Arguments: args,
		},
	}
}

func resultText(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, r.Content)
	tc, ok := r.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected text content")
	return tc.Text
}

func errorCode(t *testing.T, r *mcp.CallToolResult) string {
	t.Helper()
	var payload struct {
		Error struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(t, r)), &payload))
	return payload.Error.Code
}

func TestHandleRewrite(t *testing.T) {
	h := testHandlers(t, upperRewriter{})
	ctx := context.Background()

	tests := []struct {
		name     string
		args     map[string]any
		wantErr  string
		wantText string
	}{
		{"built-in", map[string]any{"text": "hello", "mode": "grammar"}, "", "grammar: hello"},
		{"custom", map[string]any{"text": "hello", "mode": "custom_pirate"}, "", "pirate: hello"},
		{"disabled", map[string]any{"text": "hello", "mode": "casual"}, string(rewrite.StatusUnknownMode), ""},
		{"empty text", map[string]any{"text": "  ", "mode": "grammar"}, string(rewrite.StatusValidation), ""},
		{"bad args", map[string]any{"text": 42, "mode": "grammar"}, string(rewrite.StatusValidation), ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := h.HandleRewrite(ctx, makeRequest(tt.args))
			require.NoError(t, err)

			if tt.wantErr != "" {
				assert.True(t, result.IsError)
				assert.Equal(t, tt.wantErr, errorCode(t, result))
				return
			}
			require.False(t, result.IsError, resultText(t, result))
			var out RewriteOutput
			require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
			assert.Equal(t, tt.wantText, out.Text)
			assert.Equal(t, rewrite.StatusSuccess, out.Status)
		})
	}
}

func TestHandleRewrite_PipelineFailure(t *testing.T) {
	h := testHandlers(t, upperRewriter{err: &llm.CallError{Kind: llm.KindRateLimited, Message: "quota"}})

	result, err := h.HandleRewrite(context.Background(), makeRequest(map[string]any{"text": "hi", "mode": "grammar"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, string(rewrite.StatusFailed), errorCode(t, result))
}

func TestHandleUndo(t *testing.T) {
	h := testHandlers(t, upperRewriter{})
	ctx := context.Background()

	_, err := h.HandleRewrite(ctx, makeRequest(map[string]any{"text": "first draft", "mode": "grammar", "session": "doc"}))
	require.NoError(t, err)

	// Another session has nothing to undo.
	result, err := h.HandleUndo(ctx, makeRequest(map[string]any{"session": "other"}))
	require.NoError(t, err)
	assert.True(t, result.IsError)
	assert.Equal(t, string(rewrite.StatusNothingToUndo), errorCode(t, result))

	result, err = h.HandleUndo(ctx, makeRequest(map[string]any{"session": "doc"}))
	require.NoError(t, err)
	require.False(t, result.IsError)
	var out RewriteOutput
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &out))
	assert.Equal(t, "first draft", out.Text)
	assert.Equal(t, rewrite.StatusRestored, out.Status)
}

func TestHandleListModes(t *testing.T) {
	h := testHandlers(t, upperRewriter{})
	ctx := context.Background()

	decodeModes := func(r *mcp.CallToolResult) []modes.Entry {
		var out struct {
			Modes []modes.Entry `json:"modes"`
		}
		require.NoError(t, json.Unmarshal([]byte(resultText(t, r)), &out))
		return out.Modes
	}

	result, err := h.HandleListModes(ctx, makeRequest(nil))
	require.NoError(t, err)
	all := decodeModes(result)
	assert.Len(t, all, len(modes.BuiltInKeys())+1)

	result, err = h.HandleListModes(ctx, makeRequest(map[string]any{"enabled_only": true}))
	require.NoError(t, err)
	var keys []string
	for _, e := range decodeModes(result) {
		keys = append(keys, e.Key)
	}
	assert.Equal(t, []string{"grammar", "professional", "pirate"}, keys)
}

func TestNewServer_RegistersTools(t *testing.T) {
	h := testHandlers(t, upperRewriter{})
	s := NewServer(h.orch, h.source, "test")
	require.NotNil(t, s)

	names := make([]string, 0, len(toolRegistry))
	for _, e := range toolRegistry {
		names = append(names, e.def.Name)
	}
	assert.ElementsMatch(t, []string{"rewrite_text", "list_modes", "undo_rewrite"}, names)
}

