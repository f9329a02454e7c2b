package mcp

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog/log"

	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/rewrite"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

const defaultSession = "default"

// Handlers holds dependencies for MCP tool handlers.
type Handlers struct {
	orch   *rewrite.Orchestrator
	source settings.Source
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(orch *rewrite.Orchestrator, source settings.Source) *Handlers {
	return &Handlers{orch: orch, source: source}
}

// RewriteRequest represents the arguments for rewrite_text.
type RewriteRequest struct {
	Text    string `json:"text"`
	Mode    string `json:"mode"`
	Session string `json:"session,omitempty"`
}

// ListModesRequest represents the arguments for list_modes.
type ListModesRequest struct {
	EnabledOnly bool `json:"enabled_only,omitempty"`
}

// UndoRequest represents the arguments for undo_rewrite.
type UndoRequest struct {
	Session string `json:"session,omitempty"`
}

// RewriteOutput is the result of rewrite_text and undo_rewrite.
type RewriteOutput struct {
	Status  rewrite.Status `json:"status"`
	Message string         `json:"message"`
	Text    string         `json:"text"`
	Mode    string         `json:"mode,omitempty"`
}

func location(session string) rewrite.Location {
	session = strings.TrimSpace(session)
	if session == "" {
		session = defaultSession
	}
	return rewrite.Location{TabID: "mcp:" + session}
}

// HandleRewrite handles the rewrite_text tool call.
func (h *Handlers) HandleRewrite(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[RewriteRequest](req)
	if err != nil {
		return errorResult(string(rewrite.StatusValidation), err.Error()), nil
	}

	out := h.orch.HandleTrigger(ctx, rewrite.Trigger{
		ModeID:   input.Mode,
		Text:     input.Text,
		Location: location(input.Session),
	})
	return outcomeResult(out)
}

// HandleUndo handles the undo_rewrite tool call.
func (h *Handlers) HandleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[UndoRequest](req)
	if err != nil {
		return errorResult(string(rewrite.StatusValidation), err.Error()), nil
	}
	return outcomeResult(h.orch.HandleUndo(ctx, location(input.Session)))
}

// HandleListModes handles the list_modes tool call.
func (h *Handlers) HandleListModes(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	input, err := decode[ListModesRequest](req)
	if err != nil {
		return errorResult(string(rewrite.StatusValidation), err.Error()), nil
	}

	snap, err := h.source.Snapshot(ctx)
	if err != nil {
		log.Error().Err(err).Msg("Failed to load settings for list_modes")
		return errorResult("internal", "failed to load settings"), nil
	}
	snap = snap.Normalize()

	entries := modes.List(snap.CustomModes, snap.EnabledModes)
	if input.EnabledOnly {
		filtered := entries[:0]
		for _, e := range entries {
			if e.Enabled {
				filtered = append(filtered, e)
			}
		}
		entries = filtered
	}
	return successResult(map[string]any{"modes": entries})
}

func outcomeResult(out rewrite.Outcome) (*mcp.CallToolResult, error) {
	if !out.OK() {
		return errorResult(string(out.Status), out.Message), nil
	}
	return successResult(RewriteOutput{
		Status:  out.Status,
		Message: out.Message,
		Text:    out.Text,
		Mode:    out.Mode,
	})
}

// errorResult creates an MCP error result.
func errorResult(code, message string) *mcp.CallToolResult {
	payload := map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
	}
	content, _ := json.Marshal(payload)
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.TextContent{Type: "text", Text: string(content)}},
		IsError: true,
	}
}

// successResult creates an MCP success result from any data.
func successResult(data any) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultJSON(data)
}
