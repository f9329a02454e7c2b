package cmd

import (
	"context"

	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/internal/app"
	"github.com/Spotas/Ai-rewrite/internal/mcp"
)

// MCPCommand returns the command that serves MCP over stdio.
func MCPCommand() *cli.Command {
	return &cli.Command{
		Name:  "mcp",
		Usage: "Serve the rewrite tools to an MCP client over stdio",
		Action: func(c *cli.Context) error {
			surface := app.Surface{Injector: mcp.ReturnInjector{}, Notifier: mcp.LogNotifier{}}
			return withApp(c, surface, func(_ context.Context, a *app.App) error {
				return mcp.Run(a.Orchestrator, a.Store, Version)
			})
		},
	}
}
