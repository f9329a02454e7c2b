// Package cmd holds the airewrite subcommands.
package cmd

import (
	"context"
	"fmt"
	"io"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/internal/app"
	"github.com/Spotas/Ai-rewrite/internal/config"
	"github.com/Spotas/Ai-rewrite/internal/logging"
	"github.com/Spotas/Ai-rewrite/internal/store"
)

// Version is reported by the MCP server. main overrides it.
var Version = "dev"

// loadConfig loads and validates the configuration named by --config and
// configures logging from it. The returned closer flushes the log file.
func loadConfig(c *cli.Context) (*config.Config, io.Closer, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load config: %w", err)
	}
	if lvl := c.String("log-level"); lvl != "" {
		cfg.Log.Level = lvl
	}

	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	closer, err := logging.Setup(cfg.Log)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to configure logging: %w", err)
	}
	return cfg, closer, nil
}

// withStore runs fn against the settings database.
func withStore(c *cli.Context, fn func(ctx context.Context, cfg *config.Config, st *store.Store) error) error {
	cfg, closer, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	st, err := app.OpenStore(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := st.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	return fn(c.Context, cfg, st)
}

// withApp runs fn against a fully wired rewrite core.
func withApp(c *cli.Context, surface app.Surface, fn func(ctx context.Context, a *app.App) error) error {
	cfg, closer, err := loadConfig(c)
	if err != nil {
		return err
	}
	defer closer.Close()

	a, err := app.New(c.Context, cfg, surface)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			log.Warn().Err(err).Msg("Failed to close store")
		}
	}()

	return fn(c.Context, a)
}
