// Package mcp exposes the rewriter to MCP clients over stdio.
package mcp

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/rs/zerolog/log"

	"github.com/Spotas/Ai-rewrite/internal/rewrite"
	"github.com/Spotas/Ai-rewrite/internal/settings"
)

var rewriteToolDef = mcp.NewTool("rewrite_text",
	mcp.WithDescription("Rewrite text with one of the configured rewrite modes and return the result."),
	mcp.WithString("text", mcp.Required(), mcp.Description("Text to rewrite")),
	mcp.WithString("mode", mcp.Required(), mcp.Description("Mode key, e.g. grammar, professional or custom_<key>")),
	mcp.WithString("session", mcp.Description("Groups rewrites for undo_rewrite; defaults to a shared session")),
)

var listModesToolDef = mcp.NewTool("list_modes",
	mcp.WithDescription("List built-in and custom rewrite modes."),
	mcp.WithBoolean("enabled_only", mcp.Description("Only return enabled modes")),
)

var undoToolDef = mcp.NewTool("undo_rewrite",
	mcp.WithDescription("Return the original text of the most recent rewrite in a session."),
	mcp.WithString("session", mcp.Description("Session used for rewrite_text")),
)

// toolEntry pairs a tool definition with a handler factory.
type toolEntry struct {
	def     mcp.Tool
	handler func(*Handlers) server.ToolHandlerFunc
}

var toolRegistry = []toolEntry{
	{def: rewriteToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleRewrite }},
	{def: listModesToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleListModes }},
	{def: undoToolDef, handler: func(h *Handlers) server.ToolHandlerFunc { return h.HandleUndo }},
}

// ReturnInjector hands rewritten text back in the tool result instead of
// editing anything.
type ReturnInjector struct{}

func (ReturnInjector) Inject(context.Context, rewrite.Location, string) error { return nil }

// LogNotifier writes notifications to the log. Stdout carries the protocol.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, loc rewrite.Location, n rewrite.Notification) error {
	ev := log.Info()
	if n.IsError {
		ev = log.Warn()
	}
	ev.Str("session", loc.TabID).Str("level", string(n.Level)).Msg(n.Message)
	return nil
}

// NewServer creates an MCP server with the rewrite tools registered.
func NewServer(orch *rewrite.Orchestrator, source settings.Source, version string) *server.MCPServer {
	s := server.NewMCPServer(
		"airewrite",
		version,
		server.WithToolCapabilities(true),
	)

	h := NewHandlers(orch, source)
	for _, entry := range toolRegistry {
		s.AddTool(entry.def, entry.handler(h))
	}
	return s
}

// Run starts the MCP server using stdio transport.
func Run(orch *rewrite.Orchestrator, source settings.Source, version string) error {
	return server.ServeStdio(NewServer(orch, source, version))
}
