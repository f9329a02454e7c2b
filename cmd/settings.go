package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/internal/config"
	"github.com/Spotas/Ai-rewrite/internal/settings"
	"github.com/Spotas/Ai-rewrite/internal/store"
)

// SettingsCommand returns the command for saved user settings.
func SettingsCommand() *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Show, change, export and import saved settings",
		Subcommands: []*cli.Command{
			{
				Name:   "show",
				Usage:  "Show the effective settings",
				Action: runSettingsShow,
			},
			{
				Name:  "set",
				Usage: "Save settings",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "api-key", Usage: "API key for the model backend"},
					&cli.StringFlag{Name: "model", Usage: "Model used for rewrites"},
					&cli.IntFlag{Name: "max-length", Usage: "Maximum selection length in characters"},
					&cli.BoolFlag{Name: "undo", Usage: "Keep originals for undo"},
					&cli.BoolFlag{Name: "tracking", Usage: "Record usage statistics"},
					&cli.BoolFlag{Name: "shortcuts", Usage: "Accept keyboard commands"},
				},
				Action: runSettingsSet,
			},
			{
				Name:  "export",
				Usage: "Write settings and statistics as JSON",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output file path (default stdout)",
					},
				},
				Action: runSettingsExport,
			},
			{
				Name:      "import",
				Usage:     "Import a settings file",
				ArgsUsage: "FILE",
				Action:    runSettingsImport,
			},
			{
				Name:  "reset",
				Usage: "Delete all saved settings, custom modes and statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "yes", Aliases: []string{"y"}, Usage: "Do not ask for confirmation"},
				},
				Action: runSettingsReset,
			},
		},
	}
}

func runSettingsShow(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		s, err := st.Snapshot(ctx)
		if err != nil {
			return err
		}
		w := c.App.Writer
		apiKey := "(not set)"
		if s.APIKey != "" {
			apiKey = maskSecret(s.APIKey)
		}
		fmt.Fprintf(w, "API key:            %s\n", apiKey)
		fmt.Fprintf(w, "Model:              %s\n", s.SelectedModel)
		fmt.Fprintf(w, "Max text length:    %d\n", s.MaxTextLength)
		fmt.Fprintf(w, "Undo:               %t\n", s.EnableUndo)
		fmt.Fprintf(w, "Usage tracking:     %t\n", s.EnableUsageTracking)
		fmt.Fprintf(w, "Keyboard shortcuts: %t\n", s.EnableKeyboardShortcuts)
		fmt.Fprintf(w, "Enabled modes:      %d\n", len(s.EnabledModes))
		fmt.Fprintf(w, "Custom modes:       %d\n", len(s.CustomModes))
		return nil
	})
}

func runSettingsSet(c *cli.Context) error {
	var p settings.Preferences
	if c.IsSet("api-key") {
		v := c.String("api-key")
		p.APIKey = &v
	}
	if c.IsSet("model") {
		v := c.String("model")
		p.SelectedModel = &v
	}
	if c.IsSet("max-length") {
		v := c.Int("max-length")
		p.MaxTextLength = &v
	}
	if c.IsSet("undo") {
		v := c.Bool("undo")
		p.EnableUndo = &v
	}
	if c.IsSet("tracking") {
		v := c.Bool("tracking")
		p.EnableUsageTracking = &v
	}
	if c.IsSet("shortcuts") {
		v := c.Bool("shortcuts")
		p.EnableKeyboardShortcuts = &v
	}
	if p == (settings.Preferences{}) {
		return fmt.Errorf("nothing to save, see 'settings set --help'")
	}

	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		if err := st.SavePreferences(ctx, p); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "Settings saved")
		return nil
	})
}

func runSettingsExport(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		s, err := st.Snapshot(ctx)
		if err != nil {
			return err
		}
		stats, err := st.Summary(ctx)
		if err != nil {
			return err
		}
		doc, err := settings.Export(s, stats, time.Now())
		if err != nil {
			return err
		}

		out := c.String("output")
		if out == "" {
			_, err := fmt.Fprintln(c.App.Writer, string(doc))
			return err
		}
		if err := os.WriteFile(out, doc, 0600); err != nil {
			return fmt.Errorf("failed to write %s: %w", out, err)
		}
		fmt.Fprintf(c.App.ErrWriter, "Settings exported to %s\n", out)
		return nil
	})
}

func runSettingsImport(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: settings import FILE")
	}
	data, err := os.ReadFile(c.Args().First())
	if err != nil {
		return fmt.Errorf("failed to read settings file: %w", err)
	}
	in, err := settings.Import(data)
	if err != nil {
		return err
	}

	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		if err := st.Apply(ctx, in); err != nil {
			return err
		}
		if in.Repaired {
			fmt.Fprintln(c.App.ErrWriter, "Settings file was not valid JSON; imported a repaired copy")
		}
		fmt.Fprintln(c.App.Writer, "Settings imported successfully!")
		return nil
	})
}

func runSettingsReset(c *cli.Context) error {
	if !c.Bool("yes") {
		return fmt.Errorf("this deletes every saved setting, custom mode and statistic; rerun with --yes")
	}
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		if err := st.ResetAll(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "Settings reset to defaults")
		return nil
	})
}
