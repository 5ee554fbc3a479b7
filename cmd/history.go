package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/abhisek/zonedash/internal/screens/history"
	"github.com/abhisek/zonedash/internal/store"
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent dashboard loads",
	RunE: func(cmd *cobra.Command, args []string) error {
		limit, _ := cmd.Flags().GetInt("limit")

		e, err := setup(cmd, os.Stderr)
		if err != nil {
			return err
		}
		defer e.Close()

		loads, err := e.store.EventRepo().QueryLoads(cmd.Context(), store.QueryOpts{Limit: limit})
		if err != nil {
			return fmt.Errorf("query loads: %w", err)
		}
		writeLoads(cmd.OutOrStdout(), loads)
		return nil
	},
}

func init() {
	historyCmd.Flags().IntP("limit", "n", 20, "Number of loads to show")
}

func writeLoads(w io.Writer, loads []store.LoadEvent) {
	if len(loads) == 0 {
		fmt.Fprintln(w, "No loads recorded yet.")
		return
	}

	fmt.Fprintf(w, "%-5s  %-19s  %-6s  %-6s  %8s  %7s  %s\n",
		"Seq", "Timestamp", "Gen", "Status", "Duration", "Dropped", "Error")
	fmt.Fprintln(w, strings.Repeat("─", 80))

	for _, ev := range loads {
		msg := ev.ErrorMessage
		if len(msg) > 40 {
			msg = msg[:39] + "…"
		}
		fmt.Fprintf(w, "%-5d  %-19s  %-6d  %-6s  %8s  %7d  %s\n",
			ev.Sequence,
			ev.Timestamp.Local().Format("2006-01-02 15:04:05"),
			ev.Generation,
			history.Status(ev),
			history.FormatDuration(ev.DurationMs),
			ev.Dropped,
			msg,
		)
	}
	fmt.Fprintf(w, "\nLast load %s.\n", humanize.Time(loads[0].Timestamp))
}
