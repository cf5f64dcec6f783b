package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// defaultServer returns the default server URL, checking SCHEDVIEW_SERVER env var first.
func defaultServer() string {
	if s := os.Getenv("SCHEDVIEW_SERVER"); s != "" {
		return s
	}
	return "http://localhost:8080"
}

// NewRootCmd creates the root cobra command for the schedview CLI.
func NewRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "schedview",
		Short: "schedview - inspect and drive a process scheduler service",
		Long: "schedview mirrors a remote process scheduler (queues, memory map, processors)\n" +
			"and runs actions against it: create, step, suspend, resume and reset.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		SilenceUsage: true,
	}

	f := root.PersistentFlags()
	f.StringVar(&a.flags.server, "server", defaultServer(), "Scheduler service URL (or SCHEDVIEW_SERVER env)")
	f.StringVar(&a.flags.config, "config", "", "Config file (default ./schedview.yaml or ~/.schedview/schedview.yaml)")
	f.BoolVar(&a.flags.debug, "debug", false, "Enable debug logging")
	f.StringVar(&a.flags.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	f.StringVar(&a.flags.logFormat, "log-format", "text", "Log format (text, json)")
	f.StringVarP(&a.flags.output, "output", "o", "table", "Output format (table, json, yaml)")
	f.DurationVar(&a.flags.timeout, "timeout", 0, "Per-request timeout (default from config, 5s)")
	f.StringVar(&a.flags.journal, "journal", "", "Action journal path (default ~/.schedview/journal.db)")
	f.BoolVar(&a.flags.noJournal, "no-journal", false, "Do not record actions")
	f.BoolVarP(&a.flags.quiet, "quiet", "q", false, "Do not print action notifications")

	root.AddCommand(
		newStatusCmd(a),
		newProcessorsCmd(a),
		newCreateCmd(a),
		newStepCmd(a),
		newSuspendCmd(a),
		newResumeCmd(a),
		newResetCmd(a),
		newWatchCmd(a),
		newHistoryCmd(a),
	)

	return root
}
