package main

import (
	"fmt"
	"io"
	"log/slog"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/deusflow/scorenews/internal/cadence"
	"github.com/deusflow/scorenews/internal/history"
)

func newHistoryCmd() *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show today's post count, the daily target and recent posts",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeStore, err := openHistory(cmd.Context(), cfg, slogDiscard())
			if err != nil {
				return err
			}
			defer closeStore()

			rec := store.Load(cmd.Context())
			decider := cadence.New(cadenceConfig(cfg), nil)
			printHistory(cmd.OutOrStdout(), rec, decider, time.Now(), limit)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "number of recent posts to show")
	return cmd
}

func printHistory(w io.Writer, rec history.Record, decider *cadence.Decider, now time.Time, limit int) {
	loc := decider.Config().Location
	fmt.Fprintf(w, "Today (%s): %d of %d posts\n", history.Day(now, loc), rec.TodayCount(now, loc), decider.DailyTarget(now))
	if rec.LastPostAt != nil {
		fmt.Fprintf(w, "Last post: %s (%s ago)\n", rec.LastPostAt.In(loc).Format(time.RFC3339), now.Sub(*rec.LastPostAt).Round(time.Minute))
	} else {
		fmt.Fprintln(w, "Last post: never")
	}

	days := make([]string, 0, len(rec.DailyCount))
	for day := range rec.DailyCount {
		days = append(days, day)
	}
	sort.Strings(days)
	if len(days) > 0 {
		fmt.Fprintln(w, "\nDaily counts:")
		for _, day := range days {
			fmt.Fprintf(w, "  %s  %d\n", day, rec.DailyCount[day])
		}
	}

	posts := rec.Posts
	if limit > 0 && len(posts) > limit {
		posts = posts[len(posts)-limit:]
	}
	if len(posts) > 0 {
		fmt.Fprintf(w, "\nRecent posts (%d of %d):\n", len(posts), len(rec.Posts))
		for i := len(posts) - 1; i >= 0; i-- {
			p := posts[i]
			fmt.Fprintf(w, "  %s  %-8s %s\n", p.PostedAt.In(loc).Format("2006-01-02 15:04"), p.Type, p.Key)
		}
	}
}

// slogDiscard is a logger for commands whose output is the printed report.
func slogDiscard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
