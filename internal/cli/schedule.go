package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStepCmd(a *app) *cobra.Command {
	var count int
	var show bool
	cmd := &cobra.Command{
		Use:   "step",
		Short: "Advance the scheduler",
		Long: "step runs one scheduling round per count. Each round is followed by a\n" +
			"status refresh; the step counter starts at 0 for every invocation.",
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if count < 1 {
				return fmt.Errorf("--count must be at least 1, got %d", count)
			}
			for i := 0; i < count; i++ {
				if _, err := a.store.Schedule(cmd.Context()); err != nil {
					return err
				}
				a.flush()
			}
			if !show {
				return nil
			}
			if _, err := a.store.GetProcessor(cmd.Context()); err != nil {
				return err
			}
			v := a.view()
			return a.render(v, func(w io.Writer) { printStatus(w, v) })
		}),
	}
	cmd.Flags().IntVarP(&count, "count", "n", 1, "Number of rounds")
	cmd.Flags().BoolVar(&show, "show", false, "Print the status afterwards")
	return cmd
}

func newResetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Drop every process and free all memory",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			return a.store.Reset(cmd.Context())
		}),
	}
}
