package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/internal/api"
	"github.com/Spotas/Ai-rewrite/internal/api/auth"
	"github.com/Spotas/Ai-rewrite/internal/app"
)

// ServeCommand returns the CLI command for starting the API server
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Start the local HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Interface to listen on (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port for the API server (overrides server.port)",
			},
		},
		Action: runServe,
		Subcommands: []*cli.Command{
			{
				Name:  "token",
				Usage: "Issue a bearer token for the HTTP API",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "client",
						Usage: "Name recorded in the token",
						Value: "default",
					},
					&cli.DurationFlag{
						Name:  "ttl",
						Usage: "Token lifetime (overrides server.token_ttl, 0 for no expiry)",
					},
				},
				Action: runServeToken,
			},
		},
	}
}

func runServe(c *cli.Context) error {
	queue := api.NewNotificationQueue()
	surface := app.Surface{Injector: api.DeferredInjector{}, Notifier: queue}

	return withApp(c, surface, func(ctx context.Context, a *app.App) error {
		cfg := a.Config
		if c.IsSet("host") {
			cfg.Server.Host = c.String("host")
		}
		if c.IsSet("port") {
			cfg.Server.Port = c.Int("port")
		}

		server := api.NewServer(cfg.Server, cfg.Addr(), api.Deps{
			Orchestrator:  a.Orchestrator,
			Catalog:       a.Store,
			Notifications: queue,
			Metrics:       a.Pipeline.Metrics(),
			Limiter:       a.Limiter,
		})

		fmt.Fprintf(c.App.ErrWriter, "Starting airewrite API server on %s...\n", cfg.Addr())

		ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
		defer stop()
		return server.Start(ctx)
	})
}

func runServeToken(c *cli.Context) error {
	cfg, closer, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	if cfg.Server.Secret == "" {
		return fmt.Errorf("server.secret is not set; tokens would not be checked")
	}

	ttl := cfg.Server.TokenTTL
	if c.IsSet("ttl") {
		ttl = c.Duration("ttl")
	}

	token, expires, err := auth.NewTokenService(cfg.Server.Secret, ttl).Issue(c.String("client"))
	if err != nil {
		return err
	}

	fmt.Fprintln(c.App.Writer, token)
	if !expires.IsZero() {
		fmt.Fprintf(c.App.ErrWriter, "Expires %s\n", expires.Format(time.RFC3339))
	}
	return nil
}
