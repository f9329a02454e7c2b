package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/cmd"
)

const (
	version = "0.1.0"
)

func main() {
	cmd.Version = version

	app := &cli.App{
		Name:    "airewrite",
		Usage:   "Rewrite selected text with Gemini and other language models",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Load configuration from `FILE` (default ./airewrite.toml or ~/.airewrite.toml)",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment overrides from `FILE` before reading the configuration",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Usage: "Override log.level (debug, info, warn, error)",
			},
		},
		Before: func(c *cli.Context) error {
			if f := c.String("env-file"); f != "" {
				if err := cmd.LoadEnvFile(f); err != nil {
					return fmt.Errorf("failed to load env file: %w", err)
				}
			}
			return nil
		},
		Commands: []*cli.Command{
			cmd.RewriteCommand(),
			cmd.ServeCommand(),
			cmd.MCPCommand(),
			cmd.ModesCommand(),
			cmd.StatsCommand(),
			cmd.SettingsCommand(),
			cmd.ConfigCommand(),
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}
