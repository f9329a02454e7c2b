package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/Spotas/Ai-rewrite/internal/config"
	"github.com/Spotas/Ai-rewrite/internal/store"
)

// StatsCommand returns the usage statistics command.
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show or reset usage statistics",
		Subcommands: []*cli.Command{
			{
				Name:  "show",
				Usage: "Show usage statistics",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "json", Usage: "Print JSON"},
				},
				Action: runStatsShow,
			},
			{
				Name:   "reset",
				Usage:  "Delete all recorded usage",
				Action: runStatsReset,
			},
		},
	}
}

func runStatsShow(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		stats, err := st.Summary(ctx)
		if err != nil {
			return err
		}

		if c.Bool("json") {
			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(stats)
		}

		w := c.App.Writer
		fmt.Fprintf(w, "Total rewrites:       %d\n", stats.TotalRewrites)
		fmt.Fprintf(w, "Characters processed: %d\n", stats.CharactersProcessed)
		fmt.Fprintf(w, "Characters generated: %d\n", stats.CharactersGenerated)
		if fav := stats.FavoriteMode(); fav != "" {
			fmt.Fprintf(w, "Favorite mode:        %s\n", fav)
		}
		if stats.LastUsed != nil {
			fmt.Fprintf(w, "Last used:            %s\n", stats.LastUsed.Local().Format(time.RFC1123))
		}

		keys := make([]string, 0, len(stats.ModeUsage))
		for k := range stats.ModeUsage {
			keys = append(keys, k)
		}
		sort.Slice(keys, func(i, j int) bool {
			if stats.ModeUsage[keys[i]] != stats.ModeUsage[keys[j]] {
				return stats.ModeUsage[keys[i]] > stats.ModeUsage[keys[j]]
			}
			return keys[i] < keys[j]
		})
		for _, k := range keys {
			fmt.Fprintf(w, "  %-20s %d\n", k, stats.ModeUsage[k])
		}
		return nil
	})
}

func runStatsReset(c *cli.Context) error {
	return withStore(c, func(ctx context.Context, _ *config.Config, st *store.Store) error {
		if err := st.ResetStats(ctx); err != nil {
			return err
		}
		fmt.Fprintln(c.App.Writer, "Usage statistics reset")
		return nil
	})
}
