package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/internal/config"
	"github.com/Spotas/Ai-rewrite/internal/modes"
	"github.com/Spotas/Ai-rewrite/internal/store"
)

// ModesCommand returns the command for managing rewrite modes.
func ModesCommand() *cli.Command {
	return &cli.Command{
		Name:  "modes",
		Usage: "List, add and toggle rewrite modes",
		Subcommands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List built-in and custom modes",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
					&cli.BoolFlag{Name: "enabled", Usage: "Only show enabled modes"},
				},
				Action: runModesList,
			},
			{
				Name:      "add",
				Usage:     "Add a custom mode",
				ArgsUsage: "NAME PROMPT",
				Action:    runModesAdd,
			},
			{
				Name:      "update",
				Usage:     "Change a custom mode's name or prompt",
				ArgsUsage: "KEY",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "name", Usage: "New display name"},
					&cli.StringFlag{Name: "prompt", Usage: "New instruction"},
				},
				Action: runModesUpdate,
			},
			{
				Name:      "remove",
				Aliases:   []string{"rm"},
				Usage:     "Delete a custom mode",
				ArgsUsage: "KEY",
				Action:    runModesRemove,
			},
			{
				Name:      "enable",
				Usage:     "Enable built-in modes",
				ArgsUsage: "KEY...",
				Action:    runModesEnable,
			},
			{
				Name:      "disable",
				Usage:     "Disable built-in modes",
				ArgsUsage: "KEY...",
				Action:    runModesDisable,
			},
			{
				Name:   "reset",
				Usage:  "Enable every built-in mode",
				Action: runModesReset,
			},
		},
	}
}

func runModesList(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		snap, err := st.Snapshot(ctx)
		if err != nil {
			return err
		}
		entries := modes.List(snap.CustomModes, snap.EnabledModes)
		if c.Bool("enabled") {
			filtered := entries[:0]
			for _, e := range entries {
				if e.Enabled {
					filtered = append(filtered, e)
				}
			}
			entries = filtered
		}

		if c.Bool("json") {
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(entries)
		}

		w := tabwriter.NewWriter(c.App.Writer, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tCATEGORY\tENABLED")
		for _, e := range entries {
			fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", e.ID, e.Name, e.Category, e.Enabled)
		}
		return w.Flush()
	})
}

func runModesAdd(c *cli.Context) error {
	if c.NArg() != 2 {
		return fmt.Errorf("usage: modes add NAME PROMPT")
	}
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		created, err := st.AddCustomMode(ctx, c.Args().Get(0), c.Args().Get(1))
		if err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Added custom mode %q (%s%s)\n", created.Name(), modes.CustomPrefix, created.ModeKey)
		return nil
	})
}

func runModesUpdate(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: modes update [--name NAME] [--prompt PROMPT] KEY")
	}
	if !c.IsSet("name") && !c.IsSet("prompt") {
		return fmt.Errorf("nothing to update, pass --name or --prompt")
	}
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		key := c.Args().First()
		customs, err := st.CustomModes(ctx)
		if err != nil {
			return err
		}
		current, ok := customs[key]
		if !ok {
			return fmt.Errorf("%w: %s", modes.ErrModeNotFound, key)
		}

		name, prompt := current.Name(), current.Template
		if c.IsSet("name") {
			name = c.String("name")
		}
		if c.IsSet("prompt") {
			prompt = c.String("prompt")
		}
		if _, err := st.UpdateCustomMode(ctx, key, name, prompt); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Updated custom mode %s\n", key)
		return nil
	})
}

func runModesRemove(c *cli.Context) error {
	if c.NArg() != 1 {
		return fmt.Errorf("usage: modes remove KEY")
	}
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		if err := st.DeleteCustomMode(ctx, c.Args().First()); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "Removed custom mode %s\n", c.Args().First())
		return nil
	})
}

func runModesEnable(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: modes enable KEY...")
	}
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		return st.EnableModes(ctx, c.Args().Slice()...)
	})
}

func runModesDisable(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("usage: modes disable KEY...")
	}
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		return st.DisableModes(ctx, c.Args().Slice()...)
	})
}

func runModesReset(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		return st.ResetModes(ctx)
	})
}
