package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
)

func newStatusCmd(a *app) *cobra.Command {
	var check bool
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show queues, processors and the memory map",
		Args:  cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			if err := a.refresh(cmd.Context()); err != nil {
				return err
			}
			v := a.view()
			if err := a.render(v, func(w io.Writer) { printStatus(w, v) }); err != nil {
				return err
			}
			if check {
				if err := a.store.Check(); err != nil {
					return fmt.Errorf("consistency check: %w", err)
				}
			}
			return nil
		}),
	}
	cmd.Flags().BoolVar(&check, "check", false, "Fail if the reported state breaks a queue, memory or processor invariant")
	return cmd
}

func newProcessorsCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:     "processors",
		Aliases: []string{"cpus"},
		Short:   "Show which process runs on each processor",
		Args:    cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			procs, err := a.store.GetProcessor(cmd.Context())
			if err != nil {
				return err
			}
			return a.render(procs, func(w io.Writer) { printProcessors(w, procs) })
		}),
	}
}
