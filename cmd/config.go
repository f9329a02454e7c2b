package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/internal/ai"
	"github.com/Spotas/Ai-rewrite/internal/config"
	"github.com/Spotas/Ai-rewrite/internal/store"
)

// ConfigCommand returns the config command
func ConfigCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage configuration",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "Initialize a new configuration file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path",
						Value:   "airewrite.toml",
					},
				},
				Action: runConfigInit,
			},
			{
				Name:   "validate",
				Usage:  "Validate the configuration file",
				Action: runConfigValidate,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration with secrets masked",
				Action: runConfigShow,
			},
			{
				Name:   "env",
				Usage:  "List environment overrides and configuration warnings",
				Action: runConfigEnv,
			},
			{
				Name:  "ping",
				Usage: "Send a test request to the model backend",
				Flags: []cli.Flag{
					&cli.DurationFlag{
						Name:  "timeout",
						Usage: "Give up after this long",
						Value: 30 * time.Second,
					},
				},
				Action: runConfigPing,
			},
		},
	}
}

func runConfigInit(c *cli.Context) error {
	outputPath := c.String("output")

	if err := config.InitConfig(outputPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Fprintf(c.App.Writer, "Created configuration file at %s\n", outputPath)
	return nil
}

func runConfigValidate(c *cli.Context) error {
	_, closer, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	fmt.Fprintln(c.App.Writer, "Configuration is valid")
	return nil
}

func runConfigShow(c *cli.Context) error {
	cfg, closer, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	secret := func(v string) string {
		if v == "" {
			return ""
		}
		return maskSecret(v)
	}

	w := c.App.Writer
	fmt.Fprintf(w, "[gemini]\nmodel = %q\nbase_url = %q\napi_key = %q\n\n", cfg.Gemini.Model, cfg.Gemini.BaseURL, secret(cfg.Gemini.APIKey))
	fmt.Fprintf(w, "[backend]\nprovider = %q\nmodel = %q\nbase_url = %q\napi_key = %q\n\n",
		cfg.Backend.Provider, cfg.Backend.Model, cfg.Backend.BaseURL, secret(cfg.Backend.APIKey))
	fmt.Fprintf(w, "[rewrite]\nmax_text_length = %d\nenable_undo = %t\nenable_usage_tracking = %t\nenable_keyboard_shortcuts = %t\nsecret_guard = %t\nundo_capacity = %d\n\n",
		cfg.Rewrite.MaxTextLength, cfg.Rewrite.EnableUndo, cfg.Rewrite.EnableUsageTracking,
		cfg.Rewrite.EnableKeyboardShortcuts, cfg.Rewrite.SecretGuard, cfg.Rewrite.UndoCapacity)
	fmt.Fprintf(w, "[ratelimit]\nburst = %d\nburstwindow = %q\nrequests = %d\nwindow = %q\n\n",
		cfg.RateLimit.BurstLimit, cfg.RateLimit.BurstWindow, cfg.RateLimit.Requests, cfg.RateLimit.RequestWindow)
	fmt.Fprintf(w, "[retry]\nattempts = %d\ndelay = %q\ntimeout = %q\n\n",
		cfg.Retry.MaxAttempts, cfg.Retry.BaseDelay, cfg.Retry.Timeout)
	fmt.Fprintf(w, "[server]\nhost = %q\nport = %d\nsecret = %q\ntoken_ttl = %q\nclientrps = %g\nclientburst = %d\n\n",
		cfg.Server.Host, cfg.Server.Port, secret(cfg.Server.Secret), cfg.Server.TokenTTL, cfg.Server.ClientRPS, cfg.Server.ClientBurst)
	fmt.Fprintf(w, "[storage]\npath = %q\n\n", cfg.Storage.Path)
	fmt.Fprintf(w, "[log]\nlevel = %q\nfile = %q\nconsole = %t\n", cfg.Log.Level, cfg.Log.File, cfg.Log.Console)
	return nil
}

func runConfigEnv(c *cli.Context) error {
	cfg, closer, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	PrintConfigCheck(CheckEnvironment(cfg))
	return nil
}

func runConfigPing(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, cfg *config.Config, st *store.Store) error {
		s, err := st.Snapshot(ctx)
		if err != nil {
			return err
		}

		backend, err := ai.NewModel(ctx, cfg.AI())
		if err != nil {
			return fmt.Errorf("failed to create model backend: %w", err)
		}

		ctx, cancel := context.WithTimeout(ctx, c.Duration("timeout"))
		defer cancel()

		start := time.Now()
		if err := backend.Ping(ctx, s.APIKey, s.SelectedModel); err != nil {
			return fmt.Errorf("API key test failed: %w", err)
		}
		fmt.Fprintf(c.App.Writer, "API key is valid (%s, %s)\n", s.SelectedModel, time.Since(start).Round(time.Millisecond))
		return nil
	})
}
