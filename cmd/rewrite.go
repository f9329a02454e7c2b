package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/internal/app"
	"github.com/Spotas/Ai-rewrite/internal/rewrite"
)

// writerInjector prints the rewritten text.
type writerInjector struct {
	w io.Writer
}

func (i writerInjector) Inject(_ context.Context, _ rewrite.Location, text string) error {
	_, err := fmt.Fprintln(i.w, text)
	return err
}

// writerNotifier prints notifications, skipping progress unless verbose.
type writerNotifier struct {
	w       io.Writer
	verbose bool
}

func (n writerNotifier) Notify(_ context.Context, _ rewrite.Location, note rewrite.Notification) error {
	if note.Level == rewrite.LevelProgress && !n.verbose {
		return nil
	}
	_, err := fmt.Fprintln(n.w, note.Message)
	return err
}

// RewriteCommand returns the one-shot rewrite command.
func RewriteCommand() *cli.Command {
	return &cli.Command{
		Name:      "rewrite",
		Usage:     "Rewrite text from the arguments or stdin and print the result",
		ArgsUsage: "[TEXT...]",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "mode",
				Aliases: []string{"m"},
				Usage:   "Rewrite mode key (see 'modes list')",
				Value:   "humanize",
			},
			&cli.StringFlag{
				Name:  "shortcut",
				Usage: "Run a keyboard command instead, e.g. rewrite-grammar",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Print progress notifications",
			},
		},
		Action: runRewrite,
	}
}

func runRewrite(c *cli.Context) error {
	text := strings.Join(c.Args().Slice(), " ")
	if text == "" {
		data, err := io.ReadAll(c.App.Reader)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = strings.TrimRight(string(data), "\n")
	}

	surface := app.Surface{
		Injector: writerInjector{w: c.App.Writer},
		Notifier: writerNotifier{w: c.App.ErrWriter, verbose: c.Bool("verbose")},
	}

	return withApp(c, surface, func(ctx context.Context, a *app.App) error {
		loc := rewrite.Location{TabID: fmt.Sprintf("cli:%d", os.Getpid())}

		var out rewrite.Outcome
		if cmd := c.String("shortcut"); cmd != "" {
			out = a.Orchestrator.HandleShortcut(ctx, cmd, text, loc)
		} else {
			out = a.Orchestrator.HandleTrigger(ctx, rewrite.Trigger{ModeID: c.String("mode"), Text: text, Location: loc})
		}

		if !out.OK() {
			// Disabled shortcuts are not notified; everything else already printed.
			if out.Message == rewrite.MsgShortcutsOff {
				fmt.Fprintln(c.App.ErrWriter, out.Message)
			}
			return cli.Exit("", 1)
		}
		return nil
	})
}
