package cli

import (
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/me/schedview/internal/journal"
	"github.com/me/schedview/internal/store"
)

var errNoJournal = errors.New("the action journal is disabled (check --journal / --no-journal)")

func newHistoryCmd(a *app) *cobra.Command {
	var (
		limit     int
		action    string
		olderThan time.Duration
	)
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List recorded actions, newest first",
		Example: "  schedview history --limit 50\n" +
			"  schedview history --action schedule\n" +
			"  schedview history --prune 720h",
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if a.journal == nil {
				return errNoJournal
			}
			ctx := cmd.Context()

			if olderThan > 0 {
				n, err := a.journal.Prune(ctx, time.Now().Add(-olderThan))
				if err != nil {
					return err
				}
				fmt.Fprintf(a.out, "Removed %d entries older than %s.\n", n, olderThan)
				return nil
			}

			var (
				entries []journal.Entry
				err     error
			)
			if action != "" {
				entries, err = a.journal.ListAction(ctx, store.Action(action), limit)
			} else {
				entries, err = a.journal.List(ctx, limit)
			}
			if err != nil {
				return err
			}
			return a.render(entries, func(w io.Writer) { printHistory(w, entries) })
		}),
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of entries")
	cmd.Flags().StringVar(&action, "action", "", "Only show this action (e.g. schedule, suspend)")
	cmd.Flags().DurationVar(&olderThan, "prune", 0, "Delete entries older than this instead of listing")
	return cmd
}

func printHistory(w io.Writer, entries []journal.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "No recorded actions.")
		return
	}
	fmt.Fprintln(w, "SEQ\tWHEN\tACTION\tPID\tTIME\tRESULT\tTOOK\tMESSAGE")
	for _, e := range entries {
		result := "ok"
		if !e.OK {
			result = "failed"
		} else if e.RefreshError != "" {
			result = "stale"
		}
		pid := "-"
		if e.PID > 0 {
			pid = fmt.Sprint(e.PID)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%d\t%s\t%dms\t%s\n",
			e.Seq, humanize.Time(e.CreatedAt), e.Action, pid, e.StepTime, result, e.Duration, e.Message)
	}
}
