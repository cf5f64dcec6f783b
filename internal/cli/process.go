package cli

import (
	"fmt"
	"io"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/me/schedview/pkg/model"
)

func newCreateCmd(a *app) *cobra.Command {
	var info model.ProcessInfo
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a process",
		Example: "  schedview create --name P1 --time 5 --priority 2 --memory 128\n" +
			"  schedview create --name P2 --time 3 --memory 64 --after 1",
		Args: cobra.NoArgs,
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			p, err := a.store.CreateNewProcess(cmd.Context(), info)
			if err != nil {
				return err
			}
			return a.render(p, func(w io.Writer) {
				fmt.Fprintf(w, "Created process %s (pid %d), state %s, memory at %d\n", p.Name, p.PID, p.State, p.MemoryStart)
			})
		}),
	}
	f := cmd.Flags()
	f.StringVar(&info.Name, "name", "", "Process name")
	f.IntVar(&info.RequiredTime, "time", 0, "Required run time in steps")
	f.IntVar(&info.Priority, "priority", 0, "Priority (higher runs first)")
	f.IntVar(&info.MemorySize, "memory", 0, "Memory size")
	f.IntSliceVar(&info.Predecessors, "after", nil, "Pids that must finish first")
	cmd.MarkFlagRequired("name")
	cmd.MarkFlagRequired("time")
	cmd.MarkFlagRequired("memory")
	return cmd
}

func newSuspendCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "suspend <pid>",
		Short: "Suspend a ready or running process",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			return a.store.Suspend(cmd.Context(), pid)
		}),
	}
}

func newResumeCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <pid>",
		Short: "Resume a suspended process",
		Args:  cobra.ExactArgs(1),
		RunE: a.runE(func(cmd *cobra.Command, args []string) error {
			pid, err := parsePID(args[0])
			if err != nil {
				return err
			}
			return a.store.Resume(cmd.Context(), pid)
		}),
	}
}

func parsePID(s string) (int, error) {
	pid, err := strconv.Atoi(s)
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("invalid pid %q: must be a positive integer", s)
	}
	return pid, nil
}
